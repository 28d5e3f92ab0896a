package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/services"
)

type CardHandler struct {
	catalog *services.CatalogService
}

func NewCardHandler(catalog *services.CatalogService) *CardHandler {
	return &CardHandler{catalog: catalog}
}

func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))

	result, err := h.catalog.SearchCards(c.Request.Context(), query, c.Query("set"), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	card, err := h.catalog.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) ListSets(c *gin.Context) {
	sets, err := h.catalog.ListSets(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sets": sets})
}
