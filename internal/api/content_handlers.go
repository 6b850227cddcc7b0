package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/owlist/owlist/internal/auth"
	"github.com/owlist/owlist/internal/model"
	"github.com/owlist/owlist/internal/service"
	log "github.com/sirupsen/logrus"
)

type addContentRequest struct {
	ExternalID      string     `json:"externalId" binding:"required"`
	Source          string     `json:"source" binding:"required"`
	Type            string     `json:"type" binding:"required"`
	Status          string     `json:"status" binding:"required"`
	Rating          *int       `json:"rating"`
	EpisodesWatched *int       `json:"episodesWatched"`
	WatchedAt       *time.Time `json:"watchedAt"`
	Notes           *string    `json:"notes"`
}

type updateContentRequest struct {
	Status          *string    `json:"status"`
	Rating          *int       `json:"rating"`
	EpisodesWatched *int       `json:"episodesWatched"`
	WatchedAt       *time.Time `json:"watchedAt"`
	Notes           *string    `json:"notes"`
}

// AddContentHandler handles POST /api/content
func (h *Handler) AddContentHandler(c *gin.Context) {
	var req addContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: externalId, source, type, status"})
		return
	}

	source := model.Source(req.Source)
	if !source.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source, must be either tmdb or anilist"})
		return
	}
	contentType := model.ContentType(req.Type)
	if !contentType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type, must be one of: movie, series, anime"})
		return
	}
	status := model.WatchStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status, must be one of: watched, watching, want_to_watch, dropped, paused"})
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}
	if req.EpisodesWatched != nil && *req.EpisodesWatched < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episodesWatched must not be negative"})
		return
	}

	row, err := h.content.AddUserContent(c.Request.Context(), service.CreateUserContentInput{
		UserID:          auth.UserID(c),
		ExternalID:      req.ExternalID,
		Source:          source,
		Type:            contentType,
		Status:          status,
		Rating:          req.Rating,
		EpisodesWatched: req.EpisodesWatched,
		WatchedAt:       req.WatchedAt,
		Notes:           req.Notes,
	})
	if err != nil {
		log.WithError(err).Error("add content failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add content to library"})
		return
	}

	c.JSON(http.StatusCreated, row)
}

// ListContentHandler handles GET /api/content?status=
func (h *Handler) ListContentHandler(c *gin.Context) {
	userID := auth.UserID(c)

	var statusFilter *model.WatchStatus
	statusLabel := "all"
	if raw := c.Query("status"); raw != "" {
		status := model.WatchStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		statusFilter = &status
		statusLabel = raw
	}

	items, err := h.content.ListUserContent(c.Request.Context(), userID, statusFilter)
	if err != nil {
		log.WithError(err).Error("list content failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user content"})
		return
	}
	if items == nil {
		items = []model.UserContent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"userId": userID,
		"status": statusLabel,
		"count":  len(items),
		"items":  items,
	})
}

// UpdateContentHandler handles PUT /api/content/:id
func (h *Handler) UpdateContentHandler(c *gin.Context) {
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := service.UpdateUserContentInput{
		Rating:          req.Rating,
		EpisodesWatched: req.EpisodesWatched,
		WatchedAt:       req.WatchedAt,
		Notes:           req.Notes,
	}
	if req.Status != nil {
		status := model.WatchStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status, must be one of: watched, watching, want_to_watch, dropped, paused"})
			return
		}
		in.Status = &status
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}
	if req.EpisodesWatched != nil && *req.EpisodesWatched < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "episodesWatched must not be negative"})
		return
	}

	row, err := h.content.UpdateUserContent(c.Request.Context(), c.Param("id"), auth.UserID(c), in)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
			return
		}
		log.WithError(err).Error("update content failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update content"})
		return
	}

	c.JSON(http.StatusOK, row)
}

// DeleteContentHandler handles DELETE /api/content/:id
func (h *Handler) DeleteContentHandler(c *gin.Context) {
	err := h.content.DeleteUserContent(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
			return
		}
		log.WithError(err).Error("delete content failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete content"})
		return
	}

	c.Status(http.StatusNoContent)
}
