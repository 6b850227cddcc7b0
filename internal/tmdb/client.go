package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/owlist/owlist/internal/model"
	log "github.com/sirupsen/logrus"
)

const (
	posterSize   = "w500"
	backdropSize = "original"
)

// Client talks to the TMDB REST API and normalizes movies and series into
// the canonical content shape.
type Client struct {
	http         *resty.Client
	baseURL      string
	imageBaseURL string
	genres       map[int]string
}

func NewClient(token, baseURL, imageBaseURL string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetTimeout(timeout)
	if token != "" {
		c.SetHeader("Authorization", "Bearer "+token)
	}
	c.SetHeader("Content-Type", "application/json")

	return &Client{
		http:         c,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		genres:       map[int]string{},
	}
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreResponse struct {
	Genres []genre `json:"genres"`
}

// movieResult covers both the search-result and detail shapes: search rows
// carry genre_ids, details carry full genre objects.
type movieResult struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	GenreIDs      []int   `json:"genre_ids"`
	Genres        []genre `json:"genres"`
	VoteAverage   float64 `json:"vote_average"`
	Status        string  `json:"status"`
}

type seriesResult struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	FirstAirDate     string  `json:"first_air_date"`
	GenreIDs         []int   `json:"genre_ids"`
	Genres           []genre `json:"genres"`
	VoteAverage      float64 `json:"vote_average"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	Status           string  `json:"status"`
}

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// InitGenres populates the genre id -> name lookup from both the movie and
// TV taxonomies. It is called once at startup, before the first request is
// served, so later reads need no synchronization. Best effort: the caller
// logs a failure and keeps going, and normalization silently drops any
// genre id missing from the map.
func (c *Client) InitGenres(ctx context.Context) error {
	for _, path := range []string{"/genre/movie/list", "/genre/tv/list"} {
		resp, err := c.http.R().SetContext(ctx).Get(c.baseURL + path)
		if err != nil {
			return fmt.Errorf("fetch genres %s: %w", path, err)
		}
		if resp.IsError() {
			return fmt.Errorf("fetch genres %s: %s", path, resp.Status())
		}

		var result genreResponse
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return fmt.Errorf("decode genres %s: %w", path, err)
		}
		for _, g := range result.Genres {
			c.genres[g.ID] = g.Name
		}
	}
	return nil
}

// Search issues a combined movie+series text search. It fails closed: any
// transport or upstream error is logged and an empty result is returned, so
// a multi-source fan-out degrades instead of failing outright.
func (c *Client) Search(ctx context.Context, query string, page int) []model.Canonical {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("include_adult", "false").
		Get(c.baseURL + "/search/multi")
	if err != nil {
		log.WithError(err).Warn("tmdb multi search failed")
		return nil
	}
	if resp.IsError() {
		log.WithField("status", resp.Status()).Warn("tmdb multi search failed")
		return nil
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		log.WithError(err).Warn("tmdb multi search returned malformed payload")
		return nil
	}

	out := make([]model.Canonical, 0, len(result.Results))
	for _, raw := range result.Results {
		var tag struct {
			MediaType string `json:"media_type"`
		}
		if err := json.Unmarshal(raw, &tag); err != nil {
			continue
		}
		switch tag.MediaType {
		case "movie":
			if can, err := c.normalizeMovie(raw); err == nil {
				out = append(out, can)
			}
		case "tv":
			if can, err := c.normalizeSeries(raw); err == nil {
				out = append(out, can)
			}
		}
	}
	return out
}

// SearchMovies is the type-scoped movie search. Unlike Search it propagates
// errors, because it is the sole source for a movie-filtered query.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) ([]model.Canonical, error) {
	return c.scopedSearch(ctx, "/search/movie", query, page, c.normalizeMovie)
}

// SearchSeries is the type-scoped series search; errors propagate.
func (c *Client) SearchSeries(ctx context.Context, query string, page int) ([]model.Canonical, error) {
	return c.scopedSearch(ctx, "/search/tv", query, page, c.normalizeSeries)
}

func (c *Client) scopedSearch(ctx context.Context, path, query string, page int, normalize func([]byte) (model.Canonical, error)) ([]model.Canonical, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("include_adult", "false").
		Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("tmdb search %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tmdb search %s: %s", path, resp.Status())
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("tmdb search %s: decode: %w", path, err)
	}

	out := make([]model.Canonical, 0, len(result.Results))
	for _, raw := range result.Results {
		can, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, can)
	}
	return out, nil
}

// GetMovie fetches movie details by id.
func (c *Client) GetMovie(ctx context.Context, id int) (model.Canonical, error) {
	body, err := c.getDetails(ctx, fmt.Sprintf("/movie/%d", id))
	if err != nil {
		return model.Canonical{}, err
	}
	return c.normalizeMovie(body)
}

// GetSeries fetches series details by id.
func (c *Client) GetSeries(ctx context.Context, id int) (model.Canonical, error) {
	body, err := c.getDetails(ctx, fmt.Sprintf("/tv/%d", id))
	if err != nil {
		return model.Canonical{}, err
	}
	return c.normalizeSeries(body)
}

// GetByID resolves an id whose content family is unknown. Movies and series
// live in distinct id spaces upstream, so without a type hint we try the
// movie lookup first and fall back to series; if both fail the series error
// is surfaced.
func (c *Client) GetByID(ctx context.Context, id int, contentType model.ContentType) (model.Canonical, error) {
	switch contentType {
	case model.TypeMovie:
		return c.GetMovie(ctx, id)
	case model.TypeSeries:
		return c.GetSeries(ctx, id)
	}

	if can, err := c.GetMovie(ctx, id); err == nil {
		return can, nil
	}
	return c.GetSeries(ctx, id)
}

func (c *Client) getDetails(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("tmdb get %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tmdb get %s: %s", path, resp.Status())
	}
	return resp.Body(), nil
}

func (c *Client) normalizeMovie(raw []byte) (model.Canonical, error) {
	var m movieResult
	if err := json.Unmarshal(raw, &m); err != nil {
		return model.Canonical{}, fmt.Errorf("decode tmdb movie: %w", err)
	}

	return model.Canonical{
		ExternalID:    strconv.Itoa(m.ID),
		Source:        model.SourceTMDB,
		Type:          model.TypeMovie,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Year:          yearOf(m.ReleaseDate),
		PosterURL:     c.imageURL(posterSize, m.PosterPath),
		BackdropURL:   c.imageURL(backdropSize, m.BackdropPath),
		Overview:      m.Overview,
		Genres:        c.genreNames(m.GenreIDs, m.Genres),
		Rating:        ratingOf(m.VoteAverage),
		Status:        mapStatus(m.Status),
		RawData:       json.RawMessage(raw),
	}, nil
}

func (c *Client) normalizeSeries(raw []byte) (model.Canonical, error) {
	var s seriesResult
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Canonical{}, fmt.Errorf("decode tmdb series: %w", err)
	}

	return model.Canonical{
		ExternalID:    strconv.Itoa(s.ID),
		Source:        model.SourceTMDB,
		Type:          model.TypeSeries,
		Title:         s.Name,
		OriginalTitle: s.OriginalName,
		Year:          yearOf(s.FirstAirDate),
		PosterURL:     c.imageURL(posterSize, s.PosterPath),
		BackdropURL:   c.imageURL(backdropSize, s.BackdropPath),
		Overview:      s.Overview,
		Genres:        c.genreNames(s.GenreIDs, s.Genres),
		Rating:        ratingOf(s.VoteAverage),
		EpisodeCount:  positive(s.NumberOfEpisodes),
		SeasonCount:   positive(s.NumberOfSeasons),
		Status:        mapStatus(s.Status),
		RawData:       json.RawMessage(raw),
	}, nil
}

// imageURL joins a relative upstream path with the size-qualified base.
// An absent path yields nil, never an empty string.
func (c *Client) imageURL(size, path string) *string {
	if path == "" {
		return nil
	}
	u := c.imageBaseURL + "/" + size + path
	return &u
}

// genreNames resolves genre ids through the cached taxonomy. Search rows
// carry bare ids, detail payloads carry id+name objects; both go through
// the map, and ids it doesn't know are dropped.
func (c *Client) genreNames(ids []int, full []genre) []string {
	if len(ids) == 0 {
		for _, g := range full {
			ids = append(ids, g.ID)
		}
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := c.genres[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func yearOf(date string) *int {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil
	}
	y := t.Year()
	return &y
}

func ratingOf(voteAverage float64) *float64 {
	if voteAverage == 0 {
		return nil
	}
	r := math.Round(voteAverage*10) / 10
	return &r
}

// mapStatus folds TMDB's status vocabulary (movie and TV families) into the
// canonical airing enum. Anything unrecognized normalizes to nil.
func mapStatus(s string) *string {
	var mapped string
	switch strings.ToLower(s) {
	case "released", "ended":
		mapped = model.AiringEnded
	case "returning series":
		mapped = model.AiringOngoing
	case "canceled", "cancelled":
		mapped = model.AiringCancelled
	case "rumored", "planned", "in production", "post production", "pilot":
		mapped = model.AiringUpcoming
	default:
		return nil
	}
	return &mapped
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
