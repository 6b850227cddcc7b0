package api

import (
	"github.com/gin-gonic/gin"
	"github.com/owlist/owlist/internal/auth"
)

// InitRoutes registers the HTTP surface. Search routes are public; the
// content library requires an authenticated principal.
func InitRoutes(r *gin.Engine, h *Handler, verifier auth.Verifier) {
	r.GET("/health", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/search", h.SearchHandler)
		apiGroup.GET("/search/:source/:externalId", h.GetContentDetailsHandler)

		content := apiGroup.Group("/content", auth.Middleware(verifier))
		{
			content.POST("", h.AddContentHandler)
			content.GET("", h.ListContentHandler)
			content.PUT("/:id", h.UpdateContentHandler)
			content.DELETE("/:id", h.DeleteContentHandler)
		}
	}
}
