package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/owlist/owlist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestSearch_Normalization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "frieren", payload.Variables["search"])
		assert.Equal(t, float64(1), payload.Variables["page"])
		assert.Equal(t, float64(20), payload.Variables["perPage"])

		fmt.Fprint(w, `{"data":{"Page":{"media":[{
			"id": 154587,
			"title": {"romaji":"Sousou no Frieren","english":"Frieren: Beyond Journey's End","native":"葬送のフリーレン"},
			"description": "First line.<br><br/>Second line.<i>italic</i>",
			"coverImage": {"large":"https://img/large.jpg","extraLarge":"https://img/xl.jpg"},
			"bannerImage": "https://img/banner.jpg",
			"startDate": {"year":2023,"month":9,"day":29},
			"genres": ["Adventure","Drama","Fantasy"],
			"averageScore": 89,
			"episodes": 28,
			"status": "FINISHED",
			"format": "TV"
		}]}}}`)
	})

	results, err := c.Search(context.Background(), "frieren", 1, 20)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "154587", got.ExternalID)
	assert.Equal(t, model.SourceAniList, got.Source)
	assert.Equal(t, model.TypeAnime, got.Type)
	assert.Equal(t, "Frieren: Beyond Journey's End", got.Title)
	assert.Equal(t, "葬送のフリーレン", got.OriginalTitle)
	require.NotNil(t, got.Year)
	assert.Equal(t, 2023, *got.Year)
	require.NotNil(t, got.PosterURL)
	assert.Equal(t, "https://img/xl.jpg", *got.PosterURL)
	require.NotNil(t, got.BackdropURL)
	assert.Equal(t, "https://img/banner.jpg", *got.BackdropURL)
	assert.Equal(t, "First line.\n\nSecond line.italic", got.Overview)
	assert.Equal(t, []string{"Adventure", "Drama", "Fantasy"}, got.Genres)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 8.9, *got.Rating)
	require.NotNil(t, got.EpisodeCount)
	assert.Equal(t, 28, *got.EpisodeCount)
	assert.Nil(t, got.SeasonCount)
	require.NotNil(t, got.Status)
	assert.Equal(t, model.AiringEnded, *got.Status)
	assert.NotEmpty(t, got.RawData)
}

func TestSearch_TitleFallsBackToRomaji(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Page":{"media":[{
			"id": 1,
			"title": {"romaji":"Romaji Only","english":"","native":""},
			"averageScore": 0
		}]}}}`)
	})

	results, err := c.Search(context.Background(), "x", 1, 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Romaji Only", results[0].Title)
	assert.Equal(t, "Romaji Only", results[0].OriginalTitle)
	assert.Nil(t, results[0].Rating, "score 0 means no rating")
	assert.Nil(t, results[0].Year)
	assert.Nil(t, results[0].EpisodeCount)
}

func TestSearch_GraphQLErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Page":{"media":[]}},"errors":[{"message":"rate limited"}]}`)
	})

	_, err := c.Search(context.Background(), "x", 1, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSearch_TransportErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), "x", 1, 20)
	assert.Error(t, err)
}

func TestGetByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(21), payload.Variables["id"])

		fmt.Fprint(w, `{"data":{"Media":{
			"id": 21,
			"title": {"romaji":"One Piece","english":"One Piece","native":"ワンピース"},
			"averageScore": 88,
			"status": "RELEASING"
		}}}`)
	})

	got, err := c.GetByID(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, "21", got.ExternalID)
	require.NotNil(t, got.Status)
	assert.Equal(t, model.AiringOngoing, *got.Status)
}

func TestGetByID_NullMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Media":null}}`)
	})

	_, err := c.GetByID(context.Background(), 999999)
	assert.Error(t, err)
}

func TestMapStatus(t *testing.T) {
	cases := map[string]*string{
		"FINISHED":         ptr(model.AiringEnded),
		"RELEASING":        ptr(model.AiringOngoing),
		"NOT_YET_RELEASED": ptr(model.AiringUpcoming),
		"CANCELLED":        ptr(model.AiringCancelled),
		"HIATUS":           ptr(model.AiringHiatus),
		"hiatus":           ptr(model.AiringHiatus),
		"SOMETHING_NEW":    nil,
		"":                 nil,
	}
	for in, want := range cases {
		got := mapStatus(in)
		if want == nil {
			assert.Nil(t, got, "status %q", in)
		} else {
			require.NotNil(t, got, "status %q", in)
			assert.Equal(t, *want, *got, "status %q", in)
		}
	}
}

func TestCleanDescription_OrderMatters(t *testing.T) {
	// <br> conversion must happen before tag stripping, or the line
	// breaks are lost with the rest of the markup.
	in := "a<br>b<br/>c<br />d<b>bold</b>"
	assert.Equal(t, "a\nb\nc\ndbold", cleanDescription(in))
	assert.Equal(t, "", cleanDescription(""))
}

func TestRatingRescale(t *testing.T) {
	r := ratingOf(83)
	require.NotNil(t, r)
	assert.Equal(t, 8.3, *r)

	r = ratingOf(100)
	require.NotNil(t, r)
	assert.Equal(t, 10.0, *r)

	assert.Nil(t, ratingOf(0))
}

func ptr(s string) *string { return &s }
