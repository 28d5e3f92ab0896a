package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/models"
	"github.com/pokefolio/pokefolio/internal/services"
)

type MarketplaceHandler struct {
	listings *services.ListingService
}

func NewMarketplaceHandler(listings *services.ListingService) *MarketplaceHandler {
	return &MarketplaceHandler{listings: listings}
}

// List serves marketplace browsing. Defaults to active listings only.
func (h *MarketplaceHandler) List(c *gin.Context) {
	filters := models.ListingFilters{
		Query:     c.Query("q"),
		SetCode:   c.Query("set"),
		Condition: models.Condition(c.Query("condition")),
		Status:    models.ListingStatus(c.Query("status")),
		SellerID:  c.Query("seller"),
		Sort:      c.Query("sort"),
	}
	filters.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	filters.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)
	filters.Limit, _ = strconv.Atoi(c.Query("limit"))
	filters.Offset, _ = strconv.Atoi(c.Query("offset"))

	page, err := h.listings.List(filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// MyListings returns all of the current user's listings, any status.
func (h *MarketplaceHandler) MyListings(c *gin.Context) {
	filters := models.ListingFilters{
		SellerID: currentUser(c).ID,
		Status:   "all",
	}
	filters.Limit, _ = strconv.Atoi(c.Query("limit"))
	filters.Offset, _ = strconv.Atoi(c.Query("offset"))

	page, err := h.listings.List(filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *MarketplaceHandler) Get(c *gin.Context) {
	listing, err := h.listings.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *MarketplaceHandler) Create(c *gin.Context) {
	var req models.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.CreateListing(currentUser(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *MarketplaceHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.UpdateStatus(c.Param("id"), currentUser(c).ID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *MarketplaceHandler) Delete(c *gin.Context) {
	if err := h.listings.Delete(c.Param("id"), currentUser(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
