package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pokefolio/pokefolio/internal/metrics"
)

const priceTrackerDefaultTimeout = 30 * time.Second

// PriceTrackerService proxies the external pricing API: per-card price
// history and graded-card auction comparables. Requests are smoothed by a
// token-bucket limiter and capped by a daily quota (the upstream free tier
// is small), tracked the same way across restarts of a single day only.
type PriceTrackerService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	dailyLimit int

	mu             sync.Mutex
	requestsToday  int
	lastRequestDay time.Time
}

func NewPriceTrackerService(baseURL, apiKey string, dailyLimit int) *PriceTrackerService {
	if dailyLimit <= 0 {
		dailyLimit = 100
	}
	return &PriceTrackerService{
		client: &http.Client{
			Timeout: priceTrackerDefaultTimeout,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
		dailyLimit: dailyLimit,
	}
}

// PricePoint is one day of market price for a card.
type PricePoint struct {
	Date      string  `json:"date"`
	MarketUSD float64 `json:"market_usd"`
}

// PriceHistory is the proxied history response.
type PriceHistory struct {
	CardID string       `json:"card_id"`
	Days   int          `json:"days"`
	Points []PricePoint `json:"points"`
}

// GradedComparable is one recent auction sale of a graded copy.
type GradedComparable struct {
	Company   string  `json:"company"`
	Grade     string  `json:"grade"`
	SalePrice float64 `json:"sale_price_usd"`
	SaleDate  string  `json:"sale_date"`
	Source    string  `json:"source"`
}

// QuotaStatus reports remaining external API budget.
type QuotaStatus struct {
	RequestsRemaining int       `json:"requests_remaining"`
	DailyLimit        int       `json:"daily_limit"`
	ResetsAt          time.Time `json:"resets_at"`
}

type trackerHistoryResponse struct {
	Data []struct {
		Date   string  `json:"date"`
		Market float64 `json:"market"`
	} `json:"data"`
}

type trackerGradedResponse struct {
	Data []struct {
		Company     string  `json:"gradingCompany"`
		Grade       string  `json:"grade"`
		Price       float64 `json:"price"`
		SoldDate    string  `json:"soldDate"`
		Marketplace string  `json:"marketplace"`
	} `json:"data"`
}

// GetPriceHistory fetches the market price history for a card.
func (s *PriceTrackerService) GetPriceHistory(ctx context.Context, cardID string, days int) (*PriceHistory, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	params := url.Values{}
	params.Set("cardId", cardID)
	params.Set("days", fmt.Sprintf("%d", days))

	body, err := s.fetch(ctx, "/prices/history?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp trackerHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}

	points := make([]PricePoint, len(resp.Data))
	for i, p := range resp.Data {
		points[i] = PricePoint{Date: p.Date, MarketUSD: p.Market}
	}

	return &PriceHistory{CardID: cardID, Days: days, Points: points}, nil
}

// GetGradedComparables fetches recent auction sales for a graded card.
func (s *PriceTrackerService) GetGradedComparables(ctx context.Context, cardID, company, grade string) ([]GradedComparable, error) {
	params := url.Values{}
	params.Set("cardId", cardID)
	if company != "" {
		params.Set("company", company)
	}
	if grade != "" {
		params.Set("grade", grade)
	}

	body, err := s.fetch(ctx, "/prices/graded?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp trackerGradedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode graded comparables: %w", err)
	}

	comps := make([]GradedComparable, len(resp.Data))
	for i, c := range resp.Data {
		comps[i] = GradedComparable{
			Company:   c.Company,
			Grade:     c.Grade,
			SalePrice: c.Price,
			SaleDate:  c.SoldDate,
			Source:    c.Marketplace,
		}
	}
	return comps, nil
}

// Status returns the current quota position.
func (s *PriceTrackerService) Status() QuotaStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	remaining := s.dailyLimit
	if !s.lastRequestDay.Before(today) {
		remaining = s.dailyLimit - s.requestsToday
		if remaining < 0 {
			remaining = 0
		}
	}

	return QuotaStatus{
		RequestsRemaining: remaining,
		DailyLimit:        s.dailyLimit,
		ResetsAt:          today.Add(24 * time.Hour),
	}
}

// checkDailyLimit consumes one request from today's quota, resetting the
// counter on day rollover. Returns false when the quota is exhausted.
func (s *PriceTrackerService) checkDailyLimit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.lastRequestDay.Before(today) {
		s.requestsToday = 0
		s.lastRequestDay = today
	}

	if s.requestsToday >= s.dailyLimit {
		metrics.PriceAPIQuotaRemaining.Set(0)
		return false
	}

	s.requestsToday++
	metrics.PriceAPIQuotaRemaining.Set(float64(s.dailyLimit - s.requestsToday))
	return true
}

func (s *PriceTrackerService) fetch(ctx context.Context, path string) ([]byte, error) {
	if !s.checkDailyLimit() {
		return nil, fmt.Errorf("price API daily rate limit exceeded")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	metrics.PriceAPIRequestsTotal.Inc()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	return readAllLimited(resp.Body)
}
