package models

import (
	"time"
)

// ListingStatus is the lifecycle state of a marketplace listing.
// Transitions are one-way: active -> sold or active -> cancelled.
// Sold and cancelled are terminal; a listing is never reactivated.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// Valid reports whether s is a known listing status.
func (s ListingStatus) Valid() bool {
	return s == ListingActive || s == ListingSold || s == ListingCancelled
}

// Terminal reports whether s permits no further transitions.
func (s ListingStatus) Terminal() bool {
	return s == ListingSold || s == ListingCancelled
}

// GradingStatus distinguishes raw cards from professionally graded ones.
type GradingStatus string

const (
	GradingRaw    GradingStatus = "raw"
	GradingGraded GradingStatus = "graded"
)

// Listing is a marketplace offer for a sellable quantity of a collection
// item. PricePerCard is authored and stored in PHP, never converted.
type Listing struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	UserID         string        `json:"user_id" gorm:"not null;index"`
	CardID         string        `json:"card_id" gorm:"not null;index"`
	Card           CardSnapshot  `json:"card" gorm:"embedded;embeddedPrefix:card_"`
	Quantity       int           `json:"quantity" gorm:"not null"`
	PricePerCard   float64       `json:"price_per_card" gorm:"not null"`
	Condition      Condition     `json:"condition" gorm:"default:'Raw'"`
	GradingStatus  GradingStatus `json:"grading_status" gorm:"default:'raw'"`
	GradingCompany string        `json:"grading_company,omitempty"`
	GradingGrade   string        `json:"grading_grade,omitempty"`
	Description    string        `json:"description,omitempty"`
	Images         StringList    `json:"images,omitempty" gorm:"type:text"`
	Status         ListingStatus `json:"status" gorm:"not null;default:'active';index"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type CreateListingRequest struct {
	CardID         string     `json:"card_id" binding:"required"`
	Quantity       int        `json:"quantity" binding:"required"`
	PricePerCard   float64    `json:"price_per_card" binding:"required"`
	Condition      Condition  `json:"condition"`
	GradingCompany string     `json:"grading_company"`
	GradingGrade   string     `json:"grading_grade"`
	Description    string     `json:"description"`
	Images         StringList `json:"images"`
}

type UpdateListingStatusRequest struct {
	Status ListingStatus `json:"status" binding:"required"`
}

// ListingFilters narrows marketplace browsing; zero values mean "no filter".
type ListingFilters struct {
	Query     string
	SetCode   string
	Condition Condition
	MinPrice  float64
	MaxPrice  float64
	Status    ListingStatus
	SellerID  string
	Sort      string
	Limit     int
	Offset    int
}

type ListingPage struct {
	Listings   []Listing `json:"listings"`
	TotalCount int64     `json:"total_count"`
	HasMore    bool      `json:"has_more"`
}
