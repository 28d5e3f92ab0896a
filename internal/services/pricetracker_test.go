package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTrackerServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/prices/history"):
			w.Write([]byte(`{"data":[{"date":"2026-08-28","market":42.5},{"date":"2026-08-29","market":43.1}]}`))
		case strings.HasPrefix(r.URL.Path, "/prices/graded"):
			w.Write([]byte(`{"data":[{"gradingCompany":"PSA","grade":"10","price":350,"soldDate":"2026-08-20","marketplace":"ebay"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestGetPriceHistory(t *testing.T) {
	var requests int
	server := newTrackerServer(t, &requests)
	defer server.Close()

	svc := NewPriceTrackerService(server.URL, "test-key", 100)

	history, err := svc.GetPriceHistory(context.Background(), "sv3-125", 30)
	if err != nil {
		t.Fatalf("GetPriceHistory failed: %v", err)
	}
	if history.CardID != "sv3-125" {
		t.Errorf("card id = %q, want sv3-125", history.CardID)
	}
	if len(history.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(history.Points))
	}
	if history.Points[1].MarketUSD != 43.1 {
		t.Errorf("latest market = %v, want 43.1", history.Points[1].MarketUSD)
	}
}

func TestGetPriceHistoryClampsDays(t *testing.T) {
	var requests int
	server := newTrackerServer(t, &requests)
	defer server.Close()

	svc := NewPriceTrackerService(server.URL, "", 100)

	tests := []struct {
		in   int
		want int
	}{
		{0, 30},
		{-5, 30},
		{400, 30},
		{90, 90},
	}
	for _, tt := range tests {
		history, err := svc.GetPriceHistory(context.Background(), "sv3-125", tt.in)
		if err != nil {
			t.Fatalf("GetPriceHistory(%d) failed: %v", tt.in, err)
		}
		if history.Days != tt.want {
			t.Errorf("days(%d) = %d, want %d", tt.in, history.Days, tt.want)
		}
	}
}

func TestGetGradedComparables(t *testing.T) {
	var requests int
	server := newTrackerServer(t, &requests)
	defer server.Close()

	svc := NewPriceTrackerService(server.URL, "", 100)

	comps, err := svc.GetGradedComparables(context.Background(), "sv3-125", "PSA", "10")
	if err != nil {
		t.Fatalf("GetGradedComparables failed: %v", err)
	}
	if len(comps) != 1 {
		t.Fatalf("comparables = %d, want 1", len(comps))
	}
	if comps[0].Company != "PSA" || comps[0].SalePrice != 350 {
		t.Errorf("comparable = %+v, want PSA at 350", comps[0])
	}
}

func TestDailyQuotaExhaustion(t *testing.T) {
	var requests int
	server := newTrackerServer(t, &requests)
	defer server.Close()

	svc := NewPriceTrackerService(server.URL, "", 2)

	for i := 0; i < 2; i++ {
		if _, err := svc.GetPriceHistory(context.Background(), "sv3-125", 30); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	if _, err := svc.GetPriceHistory(context.Background(), "sv3-125", 30); err == nil {
		t.Fatal("third request succeeded past a quota of 2")
	}
	if requests != 2 {
		t.Errorf("upstream saw %d requests, want 2 (quota check runs before the call)", requests)
	}

	status := svc.Status()
	if status.RequestsRemaining != 0 {
		t.Errorf("remaining = %d, want 0", status.RequestsRemaining)
	}
	if status.DailyLimit != 2 {
		t.Errorf("daily limit = %d, want 2", status.DailyLimit)
	}
}

func TestQuotaStatusBeforeAnyRequests(t *testing.T) {
	svc := NewPriceTrackerService("http://unused", "", 50)

	status := svc.Status()
	if status.RequestsRemaining != 50 {
		t.Errorf("remaining = %d, want the full 50", status.RequestsRemaining)
	}
}
