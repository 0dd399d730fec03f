package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbytex91/streamhub/internal/model"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name     string
		expected ID
	}{
		{"moviesdrive", MoviesDrive},
		{" MoviesDrive ", MoviesDrive},
		{"4khdhub", FourKHDHub},
		{"4KHDHub", FourKHDHub},
		{"showbox", ShowBox},
		{"febbox", FebBox},
	} {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}

	_, err := Parse("moviedrive")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestID_Policies(t *testing.T) {
	assert.True(t, MoviesDrive.Cacheable())
	assert.True(t, FourKHDHub.Cacheable())
	assert.False(t, ShowBox.Cacheable())
	assert.False(t, FebBox.Cacheable())
	assert.False(t, ID(42).Cacheable())

	assert.True(t, ShowBox.PassThrough())
	assert.False(t, MoviesDrive.PassThrough())
	assert.Equal(t, "4KHDHub", FourKHDHub.Label())

	for _, id := range All {
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseSet(t *testing.T) {
	set, unknown := ParseSet("4khdhub, nope,,moviesdrive")
	assert.Equal(t, []string{"nope"}, unknown)
	assert.Equal(t, []ID{MoviesDrive, FourKHDHub}, set.IDs())
	assert.False(t, set.Has(ShowBox))

	empty, unknown := ParseSet("")
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, unknown)
}

func TestRegistry_Select(t *testing.T) {
	noop := FetcherFunc(func(context.Context, Query) ([]model.Stream, error) { return nil, nil })
	r := NewRegistry(map[ID]Fetcher{
		FourKHDHub:  noop,
		MoviesDrive: noop,
		ShowBox:     nil,
	})

	assert.True(t, r.Enabled(MoviesDrive))
	assert.False(t, r.Enabled(ShowBox))
	assert.Equal(t, []ID{MoviesDrive, FourKHDHub}, r.Select(0))
	assert.Equal(t, []ID{FourKHDHub}, r.Select(NewSet(FourKHDHub, ShowBox)))
	assert.Empty(t, r.Select(NewSet(ShowBox)))
	assert.Equal(t, NewSet(MoviesDrive, FourKHDHub), r.EnabledSet())
}

func TestScraper_FetchStreams(t *testing.T) {
	var gotPath, gotSeason, gotAnimation, gotKey string
	var gotCookies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSeason = r.URL.Query().Get("season")
		gotAnimation = r.URL.Query().Get("animation")
		gotKey = r.Header.Get(headerAPIKey)
		gotCookies = r.Header.Values(headerCookie)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"streams":[
			{"url":"https://x/1","quality":2160,"size":"20 GB","title":"A"},
			{"url":"","title":"no url"},
			{"url":"https://x/2","quality":"1080p","codecs":["H.264"]}
		]}`))
	}))
	defer server.Close()

	s := NewScraper(server.URL+"/", "default-key", time.Second)
	streams, err := s.FetchStreams(context.Background(), Query{
		Provider:  FourKHDHub,
		TMDBID:    "1399",
		Type:      model.ContentTypeSeries,
		Season:    1,
		Episode:   2,
		Cookies:   []string{"a", "b"},
		Animation: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "/streams/4khdhub/series/1399.json", gotPath)
	assert.Equal(t, "1", gotSeason)
	assert.Equal(t, "true", gotAnimation)
	assert.Equal(t, "default-key", gotKey)
	assert.Equal(t, []string{"a", "b"}, gotCookies)
	require.Len(t, streams, 2)
	assert.Equal(t, model.Quality("2160"), streams[0].Quality)
	assert.Equal(t, []string{"H.264"}, streams[1].Codecs)
}

func TestScraper_FetchStreams_Errors(t *testing.T) {
	status := http.StatusBadGateway
	body := ``
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	s := NewScraper(server.URL, "", time.Second)
	q := Query{Provider: MoviesDrive, TMDBID: "603", Type: model.ContentTypeMovie}

	_, err := s.FetchStreams(context.Background(), q)
	assert.Error(t, err)

	for _, tc := range []struct {
		name string
		body string
	}{
		{"null streams", `{"streams":null}`},
		{"missing streams", `{}`},
		{"object streams", `{"streams":{"url":"x"}}`},
		{"not json", `<html>`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			status = http.StatusOK
			body = tc.body
			streams, err := s.FetchStreams(context.Background(), q)
			require.NoError(t, err)
			assert.NotNil(t, streams)
			assert.Empty(t, streams)
		})
	}
}
