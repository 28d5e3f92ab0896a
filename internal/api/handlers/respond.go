package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokefolio/pokefolio/internal/apperr"
	"github.com/pokefolio/pokefolio/internal/models"
)

// fail translates a service error into an HTTP response. Unclassified
// errors become an opaque 500 so internals never leak to clients.
func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// currentUser returns the authenticated user placed in the context by the
// auth middleware. Routes behind AuthRequired always have one.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
