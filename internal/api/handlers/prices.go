package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/services"
)

type PriceHandler struct {
	tracker *services.PriceTrackerService
}

func NewPriceHandler(tracker *services.PriceTrackerService) *PriceHandler {
	return &PriceHandler{tracker: tracker}
}

func (h *PriceHandler) GetPriceHistory(c *gin.Context) {
	cardID := c.Query("card_id")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'card_id' is required"})
		return
	}
	days, _ := strconv.Atoi(c.Query("days"))

	history, err := h.tracker.GetPriceHistory(c.Request.Context(), cardID, days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *PriceHandler) GetGradedComparables(c *gin.Context) {
	cardID := c.Query("card_id")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'card_id' is required"})
		return
	}

	comps, err := h.tracker.GetGradedComparables(
		c.Request.Context(), cardID, c.Query("company"), c.Query("grade"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comparables": comps})
}

func (h *PriceHandler) GetQuotaStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Status())
}
