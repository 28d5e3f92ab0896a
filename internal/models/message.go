package models

import (
	"time"
)

// Message belongs to a per-listing thread between the seller and one buyer.
// Read flips to true only when the receiver marks it.
type Message struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	ListingID  string     `json:"listing_id" gorm:"not null;index"`
	SenderID   string     `json:"sender_id" gorm:"not null;index"`
	ReceiverID string     `json:"receiver_id" gorm:"not null;index"`
	Body       string     `json:"message" gorm:"not null"`
	Images     StringList `json:"images,omitempty" gorm:"type:text"`
	Read       bool       `json:"read" gorm:"not null;default:false"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SendMessageRequest starts or continues a listing thread. To is only
// required when the sender is the listing's seller, naming the buyer
// being replied to.
type SendMessageRequest struct {
	ListingID string     `json:"listing_id" binding:"required"`
	Message   string     `json:"message" binding:"required"`
	Images    StringList `json:"images"`
	To        string     `json:"to"`
}

// ThreadSummary is one conversation in the current user's inbox: a listing
// plus the counterparty, with the most recent message and unread count.
type ThreadSummary struct {
	ListingID            string    `json:"listing_id"`
	CardName             string    `json:"card_name"`
	CounterpartyID       string    `json:"counterparty_id"`
	CounterpartyUsername string    `json:"counterparty_username"`
	LastMessage          string    `json:"last_message"`
	LastMessageAt        time.Time `json:"last_message_at"`
	UnreadCount          int       `json:"unread_count"`
}
