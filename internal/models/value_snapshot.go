package models

import (
	"time"
)

// CollectionValueSnapshot stores one user's collection value for a single
// day, recorded by the background snapshot worker. Values are USD; the API
// converts to the user's display currency on the way out.
type CollectionValueSnapshot struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_snapshot_date"`
	SnapshotDate  time.Time `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_user_snapshot_date"`
	TotalCards    int       `json:"total_cards"`
	UniqueCards   int       `json:"unique_cards"`
	TotalValueUSD float64   `json:"total_value_usd"`
	WishlistCards int       `json:"wishlist_cards"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValueHistoryResponse is the API response for value history.
type ValueHistoryResponse struct {
	Snapshots []CollectionValueSnapshot `json:"snapshots"`
	Period    string                    `json:"period"` // "week", "month", "year", "all"
}
