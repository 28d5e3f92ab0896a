package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pokefolio/pokefolio/internal/metrics"
	"github.com/pokefolio/pokefolio/internal/models"
)

const (
	catalogDefaultTimeout = 30 * time.Second
	catalogCacheSize      = 2048
	catalogPageSize       = 20
)

// CatalogService proxies the external card catalog API through a
// process-wide read-through cache with TTL eviction. The cache is a plain
// collaborator so tests can construct the service with a short TTL.
type CatalogService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   *expirable.LRU[string, []byte]
}

func NewCatalogService(baseURL, apiKey string, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		client: &http.Client{
			Timeout: catalogDefaultTimeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   expirable.NewLRU[string, []byte](catalogCacheSize, nil, cacheTTL),
	}
}

type catalogCardResponse struct {
	Data       []catalogCard `json:"data"`
	TotalCount int           `json:"totalCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
}

type catalogSingleCardResponse struct {
	Data catalogCard `json:"data"`
}

type catalogCard struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Rarity string `json:"rarity"`
	Set    struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Series      string `json:"series"`
		ReleaseDate string `json:"releaseDate"`
	} `json:"set"`
	Images struct {
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"images"`
	TCGPlayer struct {
		Prices map[string]struct {
			Market float64 `json:"market"`
			Mid    float64 `json:"mid"`
		} `json:"prices"`
	} `json:"tcgplayer"`
}

type catalogSetsResponse struct {
	Data []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Series       string `json:"series"`
		ReleaseDate  string `json:"releaseDate"`
		PrintedTotal int    `json:"printedTotal"`
		Images       struct {
			Logo string `json:"logo"`
		} `json:"images"`
	} `json:"data"`
}

// SearchCards searches the catalog by card name, optionally scoped to a set.
func (s *CatalogService) SearchCards(ctx context.Context, query, setCode string, page int) (*models.CardSearchResult, error) {
	if page <= 0 {
		page = 1
	}

	q := fmt.Sprintf("name:%q", query+"*")
	if setCode != "" {
		q += fmt.Sprintf(" set.id:%s", setCode)
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("pageSize", fmt.Sprintf("%d", catalogPageSize))

	body, err := s.fetch(ctx, "/cards?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp catalogCardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	cards := make([]models.CatalogCard, len(resp.Data))
	for i, c := range resp.Data {
		cards[i] = convertCatalogCard(c)
	}

	return &models.CardSearchResult{
		Cards:      cards,
		TotalCount: resp.TotalCount,
		HasMore:    resp.Page*resp.PageSize < resp.TotalCount,
	}, nil
}

// GetCard fetches a single card by catalog ID. Returns nil when the card
// does not exist.
func (s *CatalogService) GetCard(ctx context.Context, id string) (*models.CatalogCard, error) {
	body, err := s.fetch(ctx, "/cards/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp catalogSingleCardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if resp.Data.ID == "" {
		return nil, nil
	}

	card := convertCatalogCard(resp.Data)
	return &card, nil
}

// ListSets returns the catalog's set index.
func (s *CatalogService) ListSets(ctx context.Context) ([]models.CardSet, error) {
	body, err := s.fetch(ctx, "/sets?orderBy=-releaseDate")
	if err != nil {
		return nil, err
	}

	var resp catalogSetsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode catalog sets response: %w", err)
	}

	sets := make([]models.CardSet, len(resp.Data))
	for i, set := range resp.Data {
		sets[i] = models.CardSet{
			ID:          set.ID,
			Name:        set.Name,
			Series:      set.Series,
			ReleaseDate: set.ReleaseDate,
			CardCount:   set.PrintedTotal,
			LogoURL:     set.Images.Logo,
		}
	}
	return sets, nil
}

// fetch performs a cached GET against the catalog API. A nil body with nil
// error means the upstream returned 404.
func (s *CatalogService) fetch(ctx context.Context, path string) ([]byte, error) {
	if cached, ok := s.cache.Get(path); ok {
		metrics.CatalogCacheHits.Inc()
		return cached, nil
	}
	metrics.CatalogCacheMisses.Inc()

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}

	var body []byte
	body, err = readAllLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	s.cache.Add(path, body)
	return body, nil
}

// readAllLimited reads a response body with a hard cap so a misbehaving
// upstream cannot exhaust memory.
func readAllLimited(r io.Reader) ([]byte, error) {
	const maxResponseSize = 10 << 20
	return io.ReadAll(io.LimitReader(r, maxResponseSize))
}

func convertCatalogCard(c catalogCard) models.CatalogCard {
	now := time.Now()

	// Prefer the normal variant's market price; fall back to any variant.
	var market float64
	if p, ok := c.TCGPlayer.Prices["normal"]; ok && p.Market > 0 {
		market = p.Market
	} else {
		for _, p := range c.TCGPlayer.Prices {
			if p.Market > 0 {
				market = p.Market
				break
			}
		}
	}

	return models.CatalogCard{
		ID: c.ID,
		CardSnapshot: models.CardSnapshot{
			Name:           c.Name,
			SetName:        c.Set.Name,
			SetCode:        c.Set.ID,
			Number:         c.Number,
			Rarity:         c.Rarity,
			ImageURL:       c.Images.Small,
			MarketPriceUSD: market,
			PriceUpdatedAt: &now,
		},
	}
}
