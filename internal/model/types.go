package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source identifies which external catalog a piece of content came from.
type Source string

const (
	SourceTMDB    Source = "tmdb"
	SourceAniList Source = "anilist"
)

func (s Source) Valid() bool {
	return s == SourceTMDB || s == SourceAniList
}

// ContentType is the kind of title within a source's catalog.
type ContentType string

const (
	TypeMovie  ContentType = "movie"
	TypeSeries ContentType = "series"
	TypeAnime  ContentType = "anime"
)

func (t ContentType) Valid() bool {
	return t == TypeMovie || t == TypeSeries || t == TypeAnime
}

// Canonical airing-status vocabulary shared by both sources after
// normalization. Unknown upstream values normalize to nil.
const (
	AiringOngoing   = "ongoing"
	AiringEnded     = "ended"
	AiringUpcoming  = "upcoming"
	AiringCancelled = "cancelled"
	AiringHiatus    = "hiatus"
)

// WatchStatus is the user's personal tracking state for one title.
type WatchStatus string

const (
	StatusWatched     WatchStatus = "watched"
	StatusWatching    WatchStatus = "watching"
	StatusWantToWatch WatchStatus = "want_to_watch"
	StatusDropped     WatchStatus = "dropped"
	StatusPaused      WatchStatus = "paused"
)

func (s WatchStatus) Valid() bool {
	switch s {
	case StatusWatched, StatusWatching, StatusWantToWatch, StatusDropped, StatusPaused:
		return true
	}
	return false
}

// Canonical is the unified, source-agnostic shape both adapters normalize
// into. It is transient adapter output and is never persisted as-is.
type Canonical struct {
	ExternalID    string          `json:"externalId"`
	Source        Source          `json:"source"`
	Type          ContentType     `json:"type"`
	Title         string          `json:"title"`
	OriginalTitle string          `json:"originalTitle"`
	Year          *int            `json:"year"`
	PosterURL     *string         `json:"posterUrl"`
	BackdropURL   *string         `json:"backdropUrl"`
	Overview      string          `json:"overview"`
	Genres        []string        `json:"genres"`
	Rating        *float64        `json:"rating"`
	EpisodeCount  *int            `json:"episodeCount"`
	SeasonCount   *int            `json:"seasonCount"`
	Status        *string         `json:"status"`
	RawData       json.RawMessage `json:"rawData"`
}

// Content is the persisted cache record for one canonical title,
// deduplicated by (source, external_id).
type Content struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	ExternalID    string          `gorm:"size:64;not null;uniqueIndex:idx_content_identity,priority:2" json:"external_id"`
	Source        Source          `gorm:"size:16;not null;uniqueIndex:idx_content_identity,priority:1" json:"source"`
	Type          ContentType     `gorm:"size:16;not null" json:"type"`
	Title         string          `gorm:"not null" json:"title"`
	OriginalTitle string          `json:"original_title"`
	Year          *int            `json:"year"`
	PosterURL     *string         `json:"poster_url"`
	BackdropURL   *string         `json:"backdrop_url"`
	Overview      string          `json:"overview"`
	Genres        []string        `gorm:"serializer:json" json:"genres"`
	Rating        *float64        `json:"rating"`
	EpisodeCount  *int            `json:"episode_count"`
	SeasonCount   *int            `json:"season_count"`
	Status        *string         `json:"status"`
	RawData       json.RawMessage `gorm:"type:text" json:"raw_data,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// NewContentFromCanonical copies every canonical field into a fresh cache
// record. The ID is assigned on insert.
func NewContentFromCanonical(can Canonical) Content {
	return Content{
		ExternalID:    can.ExternalID,
		Source:        can.Source,
		Type:          can.Type,
		Title:         can.Title,
		OriginalTitle: can.OriginalTitle,
		Year:          can.Year,
		PosterURL:     can.PosterURL,
		BackdropURL:   can.BackdropURL,
		Overview:      can.Overview,
		Genres:        can.Genres,
		Rating:        can.Rating,
		EpisodeCount:  can.EpisodeCount,
		SeasonCount:   can.SeasonCount,
		Status:        can.Status,
		RawData:       can.RawData,
	}
}

// UserContent is one user's tracking record against a cached Content row.
// (user_id, content_id) is unique; repeated adds update in place.
type UserContent struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	UserID          string      `gorm:"size:64;not null;uniqueIndex:idx_user_content_identity,priority:1" json:"user_id"`
	ContentID       string      `gorm:"size:36;not null;uniqueIndex:idx_user_content_identity,priority:2" json:"content_id"`
	Status          WatchStatus `gorm:"size:16;not null" json:"status"`
	Rating          *int        `json:"rating"`
	EpisodesWatched int         `gorm:"not null;default:0" json:"episodes_watched"`
	WatchedAt       *time.Time  `json:"watched_at"`
	Notes           *string     `json:"notes"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Content *Content `gorm:"foreignKey:ContentID" json:"content,omitempty"`
}

func (uc *UserContent) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	return nil
}
