package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const catalogSearchBody = `{
	"data": [{
		"id": "sv3-125",
		"name": "Charizard ex",
		"number": "125",
		"rarity": "Double Rare",
		"set": {"id": "sv3", "name": "Obsidian Flames", "series": "Scarlet & Violet"},
		"images": {"small": "https://img.example/sv3-125.png"},
		"tcgplayer": {"prices": {"normal": {"market": 42.5}, "reverseHolofoil": {"market": 55.0}}}
	}],
	"totalCount": 1,
	"page": 1,
	"pageSize": 20
}`

func newCatalogServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/cards":
			w.Write([]byte(catalogSearchBody))
		case r.URL.Path == "/cards/sv3-125":
			w.Write([]byte(`{"data": {"id": "sv3-125", "name": "Charizard ex", "set": {"id": "sv3", "name": "Obsidian Flames"}, "tcgplayer": {"prices": {"holofoil": {"market": 61.0}}}}}`))
		case strings.HasPrefix(r.URL.Path, "/cards/"):
			http.NotFound(w, r)
		case r.URL.Path == "/sets":
			w.Write([]byte(`{"data": [{"id": "sv3", "name": "Obsidian Flames", "series": "Scarlet & Violet", "releaseDate": "2023/08/11", "printedTotal": 197, "images": {"logo": "https://img.example/sv3-logo.png"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSearchCards(t *testing.T) {
	var requests int
	server := newCatalogServer(t, &requests)
	defer server.Close()

	svc := NewCatalogService(server.URL, "", time.Minute)

	result, err := svc.SearchCards(context.Background(), "charizard", "sv3", 1)
	if err != nil {
		t.Fatalf("SearchCards failed: %v", err)
	}
	if result.TotalCount != 1 || len(result.Cards) != 1 {
		t.Fatalf("result = %d cards of %d, want 1 of 1", len(result.Cards), result.TotalCount)
	}

	card := result.Cards[0]
	if card.ID != "sv3-125" {
		t.Errorf("id = %q, want sv3-125", card.ID)
	}
	if card.SetCode != "sv3" || card.SetName != "Obsidian Flames" {
		t.Errorf("set = %q/%q, want sv3/Obsidian Flames", card.SetCode, card.SetName)
	}
	// The normal variant wins over other printings.
	if card.MarketPriceUSD != 42.5 {
		t.Errorf("market price = %v, want the normal variant's 42.5", card.MarketPriceUSD)
	}
	if card.PriceUpdatedAt == nil {
		t.Error("price timestamp not stamped")
	}
}

func TestSearchCardsCached(t *testing.T) {
	var requests int
	server := newCatalogServer(t, &requests)
	defer server.Close()

	svc := NewCatalogService(server.URL, "", time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := svc.SearchCards(context.Background(), "charizard", "", 1); err != nil {
			t.Fatalf("SearchCards failed: %v", err)
		}
	}
	if requests != 1 {
		t.Errorf("upstream saw %d requests for 3 identical searches, want 1", requests)
	}

	// A different page is a different cache key.
	if _, err := svc.SearchCards(context.Background(), "charizard", "", 2); err != nil {
		t.Fatalf("SearchCards failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("upstream saw %d requests, want 2", requests)
	}
}

func TestGetCard(t *testing.T) {
	var requests int
	server := newCatalogServer(t, &requests)
	defer server.Close()

	svc := NewCatalogService(server.URL, "", time.Minute)

	t.Run("found", func(t *testing.T) {
		card, err := svc.GetCard(context.Background(), "sv3-125")
		if err != nil {
			t.Fatalf("GetCard failed: %v", err)
		}
		if card == nil || card.Name != "Charizard ex" {
			t.Fatalf("card = %+v, want Charizard ex", card)
		}
		// No normal variant here, so any priced printing is used.
		if card.MarketPriceUSD != 61.0 {
			t.Errorf("market price = %v, want the holofoil fallback 61.0", card.MarketPriceUSD)
		}
	})

	t.Run("missing card is nil not error", func(t *testing.T) {
		card, err := svc.GetCard(context.Background(), "does-not-exist")
		if err != nil {
			t.Fatalf("GetCard failed: %v", err)
		}
		if card != nil {
			t.Errorf("card = %+v, want nil for a 404", card)
		}
	})
}

func TestListSets(t *testing.T) {
	var requests int
	server := newCatalogServer(t, &requests)
	defer server.Close()

	svc := NewCatalogService(server.URL, "", time.Minute)

	sets, err := svc.ListSets(context.Background())
	if err != nil {
		t.Fatalf("ListSets failed: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(sets))
	}
	if sets[0].ID != "sv3" || sets[0].CardCount != 197 {
		t.Errorf("set = %+v, want sv3 with 197 cards", sets[0])
	}
}
