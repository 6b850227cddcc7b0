package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("Expected default mode 'release', got %s", cfg.Server.Mode)
	}
	if cfg.Database.Path != "data/owlist.db" {
		t.Errorf("Expected default db path 'data/owlist.db', got %s", cfg.Database.Path)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("Unexpected TMDB base URL: %s", cfg.TMDB.BaseURL)
	}
	if cfg.AniList.URL != "https://graphql.anilist.co" {
		t.Errorf("Unexpected AniList URL: %s", cfg.AniList.URL)
	}
	if cfg.HTTP.TimeoutSeconds != 10 {
		t.Errorf("Expected default timeout 10s, got %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("OWLIST_SERVER_PORT", "9999")
	os.Setenv("OWLIST_TMDB_API_KEY", "test-key")
	defer os.Unsetenv("OWLIST_SERVER_PORT")
	defer os.Unsetenv("OWLIST_TMDB_API_KEY")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", cfg.Server.Port)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Errorf("Expected api key from env, got %q", cfg.TMDB.APIKey)
	}
}
