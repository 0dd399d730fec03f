package cinemeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbytex91/streamhub/internal/model"
)

func TestGetMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/meta/series/tt0903747.json":
			_, _ = w.Write([]byte(`{"meta":{"name":"Breaking Bad","year":"2008–2013","imdb_id":"tt0903747","genres":["Drama","Crime"]}}`))
		case "/meta/movie/tt0245429.json":
			_, _ = w.Write([]byte(`{"meta":{"name":"Spirited Away","releaseInfo":"2001","genres":["Animation","Family"]}}`))
		case "/meta/movie/tt0000000.json":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	series, err := c.GetMeta(ctx, model.ContentTypeSeries, "tt0903747")
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", series.Name)
	assert.Equal(t, 2008, series.Year)
	assert.False(t, series.IsAnimation)

	movie, err := c.GetMeta(ctx, model.ContentTypeMovie, "tt0245429")
	require.NoError(t, err)
	assert.Equal(t, "Spirited Away", movie.Name)
	assert.Equal(t, "tt0245429", movie.IMDBID)
	assert.Equal(t, 2001, movie.Year)
	assert.True(t, movie.IsAnimation)

	_, err = c.GetMeta(ctx, model.ContentTypeMovie, "tt0000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetMeta(ctx, model.ContentTypeMovie, "tt404")
	assert.Error(t, err)
}

func TestParseFromYear(t *testing.T) {
	assert.Equal(t, 2019, parseFromYear("2019–"))
	assert.Equal(t, 2008, parseFromYear("2008-2013"))
	assert.Equal(t, 0, parseFromYear(""))
	assert.Equal(t, 0, parseFromYear("n/a"))
}
