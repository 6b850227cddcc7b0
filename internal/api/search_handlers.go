package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/owlist/owlist/internal/model"
	"github.com/owlist/owlist/internal/service"
	log "github.com/sirupsen/logrus"
)

// SearchHandler handles GET /api/search?q=&type=&page=
func (h *Handler) SearchHandler(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query is required"})
		return
	}

	filter := service.ContentFilter(c.DefaultQuery("type", "all"))
	if !filter.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid content type, must be one of: all, movie, series, anime"})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page number must be greater than 0"})
			return
		}
		page = n
	}

	results, err := h.search.Search(c.Request.Context(), query, filter, page)
	if err != nil {
		log.WithError(err).Error("search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search content"})
		return
	}
	if results == nil {
		results = []model.Canonical{}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"type":    filter,
		"page":    page,
		"results": results,
		"count":   len(results),
	})
}

// GetContentDetailsHandler handles GET /api/search/:source/:externalId?type=
func (h *Handler) GetContentDetailsHandler(c *gin.Context) {
	source := model.Source(c.Param("source"))
	if !source.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source, must be either tmdb or anilist"})
		return
	}

	contentType := model.ContentType(c.Query("type"))
	if contentType != "" && !contentType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type, must be one of: movie, series, anime"})
		return
	}

	content, err := h.search.GetContentDetails(c.Request.Context(), source, c.Param("externalId"), contentType)
	if err != nil {
		log.WithError(err).Warn("content details lookup failed")
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	c.JSON(http.StatusOK, content)
}
