package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/owlist/owlist/internal/anilist"
	"github.com/owlist/owlist/internal/model"
	"github.com/owlist/owlist/internal/tmdb"
	log "github.com/sirupsen/logrus"
)

// ContentFilter is the type filter accepted by unified search.
type ContentFilter string

const (
	FilterAll    ContentFilter = "all"
	FilterMovie  ContentFilter = "movie"
	FilterSeries ContentFilter = "series"
	FilterAnime  ContentFilter = "anime"
)

func (f ContentFilter) Valid() bool {
	switch f {
	case FilterAll, FilterMovie, FilterSeries, FilterAnime:
		return true
	}
	return false
}

const animePerPage = 20

// SearchService fans a free-text query out across both source adapters and
// resolves single items by (source, externalId).
type SearchService struct {
	tmdb    *tmdb.Client
	anilist *anilist.Client
}

func NewSearchService(tmdbClient *tmdb.Client, anilistClient *anilist.Client) *SearchService {
	return &SearchService{
		tmdb:    tmdbClient,
		anilist: anilistClient,
	}
}

// Search runs the unified search. A blank query short-circuits to an empty
// result with no network call. For FilterAll both adapters are queried
// concurrently and concatenated (TMDB first, then AniList); a failure in
// either source degrades to that source contributing nothing, so an
// unfiltered search never fails outright. Scoped filters hit only their
// adapter and propagate its errors.
func (s *SearchService) Search(ctx context.Context, query string, filter ContentFilter, page int) ([]model.Canonical, error) {
	if strings.TrimSpace(query) == "" {
		return []model.Canonical{}, nil
	}

	switch filter {
	case FilterMovie:
		return s.tmdb.SearchMovies(ctx, query, page)
	case FilterSeries:
		return s.tmdb.SearchSeries(ctx, query, page)
	case FilterAnime:
		return s.anilist.Search(ctx, query, page, animePerPage)
	}

	var (
		wg           sync.WaitGroup
		tmdbResults  []model.Canonical
		animeResults []model.Canonical
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tmdbResults = s.tmdb.Search(ctx, query, page)
	}()
	go func() {
		defer wg.Done()
		results, err := s.anilist.Search(ctx, query, page, animePerPage)
		if err != nil {
			log.WithError(err).Warn("anilist search failed, continuing with tmdb results only")
			return
		}
		animeResults = results
	}()
	wg.Wait()

	out := make([]model.Canonical, 0, len(tmdbResults)+len(animeResults))
	out = append(out, tmdbResults...)
	out = append(out, animeResults...)
	return out, nil
}

// GetContentDetails resolves one title by source and external id, always
// fetching fresh from the upstream. For TMDB without a type hint the
// adapter falls back from movie to series lookup.
func (s *SearchService) GetContentDetails(ctx context.Context, source model.Source, externalID string, contentType model.ContentType) (model.Canonical, error) {
	id, err := strconv.Atoi(externalID)
	if err != nil {
		return model.Canonical{}, fmt.Errorf("invalid external id %q: %w", externalID, err)
	}

	switch source {
	case model.SourceTMDB:
		return s.tmdb.GetByID(ctx, id, contentType)
	case model.SourceAniList:
		return s.anilist.GetByID(ctx, id)
	}
	return model.Canonical{}, fmt.Errorf("unknown source %q", source)
}
