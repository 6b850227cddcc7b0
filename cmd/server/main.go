package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/owlist/owlist/internal/anilist"
	"github.com/owlist/owlist/internal/api"
	"github.com/owlist/owlist/internal/auth"
	"github.com/owlist/owlist/internal/config"
	"github.com/owlist/owlist/internal/db"
	"github.com/owlist/owlist/internal/service"
	"github.com/owlist/owlist/internal/tmdb"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	gin.SetMode(cfg.Server.Mode)

	absPath, _ := filepath.Abs(cfg.Database.Path)
	log.Infof("Initializing database at: %s", absPath)

	gdb, err := db.Init(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.ImageBaseURL, timeout)
	anilistClient := anilist.NewClient(cfg.AniList.URL, timeout)

	// Populate the genre taxonomy before accepting traffic so early
	// searches don't normalize without genre names. Best effort: a failed
	// fetch leaves the map empty and the service still boots.
	if err := tmdbClient.InitGenres(context.Background()); err != nil {
		log.WithError(err).Error("failed to initialize TMDB genre cache")
	}

	searchService := service.NewSearchService(tmdbClient, anilistClient)
	contentService := service.NewContentService(gdb, searchService)

	r := gin.Default()
	api.InitRoutes(r, api.NewHandler(searchService, contentService), auth.Verifier{Secret: []byte(cfg.Auth.JWTSecret)})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
