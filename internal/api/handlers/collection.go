package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/models"
	"github.com/pokefolio/pokefolio/internal/services"
)

type CollectionHandler struct {
	collection *services.CollectionService
	snapshots  *services.SnapshotService
}

func NewCollectionHandler(collection *services.CollectionService, snapshots *services.SnapshotService) *CollectionHandler {
	return &CollectionHandler{
		collection: collection,
		snapshots:  snapshots,
	}
}

func (h *CollectionHandler) GetCollection(c *gin.Context) {
	resp, err := h.collection.GetCollection(currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sync replaces the whole collection and wishlist with the payload and
// returns the stored result, locks included.
func (h *CollectionHandler) Sync(c *gin.Context) {
	var req models.CollectionSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := currentUser(c)
	if err := h.collection.Sync(user.ID, req); err != nil {
		fail(c, err)
		return
	}

	resp, err := h.collection.GetCollection(user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CollectionHandler) AddItem(c *gin.Context) {
	var req models.AddToCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.AddItem(currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CollectionHandler) UpdateItem(c *gin.Context) {
	var req models.UpdateCollectionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.UpdateItem(currentUser(c).ID, c.Param("cardId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	if item == nil {
		// Quantity reached zero and the row was removed.
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CollectionHandler) DeleteItem(c *gin.Context) {
	if err := h.collection.RemoveItem(currentUser(c).ID, c.Param("cardId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CollectionHandler) AddWishlistItem(c *gin.Context) {
	var req models.AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.AddWishlistItem(currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CollectionHandler) UpdateWishlistItem(c *gin.Context) {
	var req struct {
		Priority models.WishlistPriority `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.collection.UpdateWishlistPriority(currentUser(c).ID, c.Param("cardId"), req.Priority)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CollectionHandler) DeleteWishlistItem(c *gin.Context) {
	if err := h.collection.RemoveWishlistItem(currentUser(c).ID, c.Param("cardId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CollectionHandler) GetStats(c *gin.Context) {
	stats, err := h.collection.Stats(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *CollectionHandler) GetValueHistory(c *gin.Context) {
	period := c.DefaultQuery("period", "month")

	snapshots, err := h.snapshots.GetHistory(currentUser(c).ID, period)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Snapshots: snapshots,
		Period:    period,
	})
}
