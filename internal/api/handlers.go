package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/owlist/owlist/internal/service"
)

// Handler bundles the services the HTTP layer depends on.
type Handler struct {
	search  *service.SearchService
	content *service.ContentService
}

func NewHandler(search *service.SearchService, content *service.ContentService) *Handler {
	return &Handler{
		search:  search,
		content: content,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "owlist-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
