package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CardSnapshot is the card data copied into collection items, wishlist
// items, and listings at the moment they are created. It is an opaque value
// object: once embedded it is never re-fetched from the catalog, so records
// stay stable even if the external catalog changes. The card's catalog ID
// lives on the owning row, not in the snapshot.
type CardSnapshot struct {
	Name           string     `json:"name"`
	SetName        string     `json:"set_name"`
	SetCode        string     `json:"set_code"`
	Number         string     `json:"number"`
	Rarity         string     `json:"rarity"`
	ImageURL       string     `json:"image_url"`
	MarketPriceUSD float64    `json:"market_price_usd"`
	PriceUpdatedAt *time.Time `json:"price_updated_at,omitempty"`
}

// CatalogCard is a card as returned by the external catalog proxy.
type CatalogCard struct {
	ID string `json:"id"`
	CardSnapshot
}

// CardSearchResult is the catalog proxy's search response.
type CardSearchResult struct {
	Cards      []CatalogCard `json:"cards"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`
}

// CardSet is a catalog set entry.
type CardSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	ReleaseDate string `json:"release_date"`
	CardCount   int    `json:"card_count"`
	LogoURL     string `json:"logo_url"`
}

// StringList stores a JSON-encoded string slice in a single text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
