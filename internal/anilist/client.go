package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/owlist/owlist/internal/model"
)

// Client talks to the AniList GraphQL API and normalizes anime media into
// the canonical content shape. Unlike the TMDB adapter there is no lenient
// search variant: this source has no sibling to compensate, so transport
// and GraphQL errors always surface to the caller.
type Client struct {
	http *resty.Client
	url  string
}

func NewClient(url string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("Accept", "application/json")

	return &Client{
		http: c,
		url:  url,
	}
}

const searchQuery = `
query ($search: String, $page: Int, $perPage: Int) {
  Page(page: $page, perPage: $perPage) {
    media(search: $search, type: ANIME) {
      id
      title {
        romaji
        english
        native
      }
      description
      coverImage {
        large
        extraLarge
      }
      bannerImage
      startDate {
        year
        month
        day
      }
      genres
      averageScore
      episodes
      status
      format
    }
  }
}
`

const getQuery = `
query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    title {
      romaji
      english
      native
    }
    description
    coverImage {
      large
      extraLarge
    }
    bannerImage
    startDate {
      year
      month
      day
    }
    genres
    averageScore
    episodes
    status
    format
  }
}
`

type mediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type coverImage struct {
	ExtraLarge string `json:"extraLarge"`
	Large      string `json:"large"`
}

type startDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type media struct {
	ID           int        `json:"id"`
	Title        mediaTitle `json:"title"`
	Description  string     `json:"description"`
	CoverImage   coverImage `json:"coverImage"`
	BannerImage  string     `json:"bannerImage"`
	StartDate    startDate  `json:"startDate"`
	Genres       []string   `json:"genres"`
	AverageScore int        `json:"averageScore"`
	Episodes     int        `json:"episodes"`
	Status       string     `json:"status"`
	Format       string     `json:"format"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		Page struct {
			Media []json.RawMessage `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type mediaResponse struct {
	Data struct {
		Media json.RawMessage `json:"Media"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Search runs a paged anime text search.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) ([]model.Canonical, error) {
	payload := map[string]interface{}{
		"query": searchQuery,
		"variables": map[string]interface{}{
			"search":  query,
			"page":    page,
			"perPage": perPage,
		},
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("anilist search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("anilist search: %s", resp.Status())
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("anilist search: decode: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("anilist search: %s", result.Errors[0].Message)
	}

	out := make([]model.Canonical, 0, len(result.Data.Page.Media))
	for _, raw := range result.Data.Page.Media {
		can, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, can)
	}
	return out, nil
}

// GetByID fetches one anime by its AniList id.
func (c *Client) GetByID(ctx context.Context, id int) (model.Canonical, error) {
	payload := map[string]interface{}{
		"query": getQuery,
		"variables": map[string]interface{}{
			"id": id,
		},
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(c.url)
	if err != nil {
		return model.Canonical{}, fmt.Errorf("anilist get media: %w", err)
	}
	if resp.IsError() {
		return model.Canonical{}, fmt.Errorf("anilist get media: %s", resp.Status())
	}

	var result mediaResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return model.Canonical{}, fmt.Errorf("anilist get media: decode: %w", err)
	}
	if len(result.Errors) > 0 {
		return model.Canonical{}, fmt.Errorf("anilist get media: %s", result.Errors[0].Message)
	}
	if len(result.Data.Media) == 0 || string(result.Data.Media) == "null" {
		return model.Canonical{}, fmt.Errorf("anilist get media: not found")
	}

	return normalize(result.Data.Media)
}

var (
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	markupRe    = regexp.MustCompile(`<[^>]*>`)
)

func normalize(raw json.RawMessage) (model.Canonical, error) {
	var m media
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.Canonical{}, fmt.Errorf("decode anilist media: %w", err)
	}

	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	originalTitle := m.Title.Native
	if originalTitle == "" {
		originalTitle = m.Title.Romaji
	}

	return model.Canonical{
		ExternalID:    strconv.Itoa(m.ID),
		Source:        model.SourceAniList,
		Type:          model.TypeAnime,
		Title:         title,
		OriginalTitle: originalTitle,
		Year:          yearOf(m.StartDate),
		PosterURL:     posterOf(m.CoverImage),
		BackdropURL:   nonEmpty(m.BannerImage),
		Overview:      cleanDescription(m.Description),
		Genres:        m.Genres,
		Rating:        ratingOf(m.AverageScore),
		EpisodeCount:  positive(m.Episodes),
		SeasonCount:   nil, // AniList has no season concept
		Status:        mapStatus(m.Status),
		RawData:       raw,
	}, nil
}

// cleanDescription converts <br> markup to newlines before stripping the
// remaining tags; the other order would lose the line breaks.
func cleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreakRe.ReplaceAllString(s, "\n")
	return markupRe.ReplaceAllString(s, "")
}

// mapStatus translates AniList's status vocabulary into the canonical
// airing enum; unknown values normalize to nil.
func mapStatus(s string) *string {
	var mapped string
	switch strings.ToUpper(s) {
	case "FINISHED":
		mapped = model.AiringEnded
	case "RELEASING":
		mapped = model.AiringOngoing
	case "NOT_YET_RELEASED":
		mapped = model.AiringUpcoming
	case "CANCELLED":
		mapped = model.AiringCancelled
	case "HIATUS":
		mapped = model.AiringHiatus
	default:
		return nil
	}
	return &mapped
}

func yearOf(d startDate) *int {
	if d.Year == 0 {
		return nil
	}
	y := d.Year
	return &y
}

// ratingOf rescales the upstream 0-100 score to 0-10, one decimal.
func ratingOf(score int) *float64 {
	if score == 0 {
		return nil
	}
	r := math.Round(float64(score)) / 10
	return &r
}

func posterOf(img coverImage) *string {
	if img.ExtraLarge != "" {
		return &img.ExtraLarge
	}
	return nonEmpty(img.Large)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
