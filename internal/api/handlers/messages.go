package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/models"
	"github.com/pokefolio/pokefolio/internal/services"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.Send(currentUser(c).ID, req, req.To)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// Threads is the inbox view: one row per listing conversation.
func (h *MessageHandler) Threads(c *gin.Context) {
	threads, err := h.messages.Threads(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// Thread returns the full conversation for one listing. Sellers must name
// the buyer with ?with=<userID>; buyers can omit it.
func (h *MessageHandler) Thread(c *gin.Context) {
	messages, err := h.messages.Thread(currentUser(c).ID, c.Param("listingId"), c.Query("with"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	message, err := h.messages.MarkRead(c.Param("id"), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}
