package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/metrics"
	"github.com/pokefolio/pokefolio/internal/models"
)

// MessageService owns per-listing message threads. A thread is the pair
// (listing, buyer): buyers message the seller about a listing, sellers
// reply to a specific buyer. Only the receiver may mark a message read.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Send creates a message in a listing thread. Buyers always address the
// seller; the seller must name the buyer being replied to, and may only
// reply to buyers who have already messaged about the listing.
func (s *MessageService) Send(senderID string, req models.SendMessageRequest, replyTo string) (*models.Message, error) {
	if req.Message == "" {
		return nil, apperr.Validationf("message body is required")
	}

	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", req.ListingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("listing not found")
		}
		return nil, err
	}

	var receiverID string
	if senderID == listing.UserID {
		if replyTo == "" {
			return nil, apperr.Validationf("receiver is required when replying to your own listing")
		}
		var count int64
		s.db.Model(&models.Message{}).
			Where("listing_id = ? AND sender_id = ? AND receiver_id = ?", listing.ID, replyTo, senderID).
			Count(&count)
		if count == 0 {
			return nil, apperr.Forbiddenf("no conversation with that user about this listing")
		}
		receiverID = replyTo
	} else {
		receiverID = listing.UserID
	}

	message := models.Message{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       req.Message,
		Images:     req.Images,
		CreatedAt:  time.Now(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}

	metrics.MessagesSentTotal.Inc()
	return &message, nil
}

// Threads returns the user's inbox: one summary per (listing, counterparty)
// pair, newest first, with unread counts for messages addressed to the user.
func (s *MessageService) Threads(userID string) ([]models.ThreadSummary, error) {
	var messages []models.Message
	err := s.db.Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	type threadKey struct {
		listingID    string
		counterparty string
	}

	summaries := make(map[threadKey]*models.ThreadSummary)
	order := make([]threadKey, 0)

	for _, m := range messages {
		counterparty := m.SenderID
		if m.SenderID == userID {
			counterparty = m.ReceiverID
		}
		key := threadKey{m.ListingID, counterparty}

		summary, ok := summaries[key]
		if !ok {
			// Messages are newest-first, so the first one seen per
			// thread is the latest.
			summary = &models.ThreadSummary{
				ListingID:      m.ListingID,
				CounterpartyID: counterparty,
				LastMessage:    m.Body,
				LastMessageAt:  m.CreatedAt,
			}
			summaries[key] = summary
			order = append(order, key)
		}
		if m.ReceiverID == userID && !m.Read {
			summary.UnreadCount++
		}
	}

	result := make([]models.ThreadSummary, 0, len(order))
	for _, key := range order {
		result = append(result, *summaries[key])
	}

	s.fillThreadDetails(result)
	return result, nil
}

// fillThreadDetails resolves counterparty usernames and listing card names.
func (s *MessageService) fillThreadDetails(threads []models.ThreadSummary) {
	if len(threads) == 0 {
		return
	}

	userIDs := make([]string, 0, len(threads))
	listingIDs := make([]string, 0, len(threads))
	for _, t := range threads {
		userIDs = append(userIDs, t.CounterpartyID)
		listingIDs = append(listingIDs, t.ListingID)
	}

	var users []models.User
	s.db.Where("id IN ?", userIDs).Find(&users)
	usernames := make(map[string]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	var listings []models.Listing
	s.db.Where("id IN ?", listingIDs).Find(&listings)
	cardNames := make(map[string]string, len(listings))
	for _, l := range listings {
		cardNames[l.ID] = l.Card.Name
	}

	for i := range threads {
		threads[i].CounterpartyUsername = usernames[threads[i].CounterpartyID]
		threads[i].CardName = cardNames[threads[i].ListingID]
	}
}

// Thread returns the ordered conversation for a listing between the user
// and a counterparty. Buyers omit withUserID (the seller is implied);
// sellers must name the buyer.
func (s *MessageService) Thread(userID, listingID, withUserID string) ([]models.Message, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("listing not found")
		}
		return nil, err
	}

	if userID == listing.UserID {
		if withUserID == "" {
			return nil, apperr.Validationf("with parameter is required for your own listing")
		}
	} else {
		withUserID = listing.UserID
	}

	var messages []models.Message
	err := s.db.Where("listing_id = ?", listingID).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, withUserID, withUserID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips the read flag; only the receiver may do this.
func (s *MessageService) MarkRead(messageID, userID string) (*models.Message, error) {
	var message models.Message
	if err := s.db.First(&message, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("message not found")
		}
		return nil, err
	}
	if message.ReceiverID != userID {
		return nil, apperr.Forbiddenf("only the receiver can mark a message read")
	}

	if !message.Read {
		message.Read = true
		if err := s.db.Save(&message).Error; err != nil {
			return nil, err
		}
	}
	return &message, nil
}
