package addon

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/ranking"
)

func TestParseUserData(t *testing.T) {
	raw := url.PathEscape(`{"providers":["moviesdrive","4khdhub"],"minQuality":"720p","excludeCodecs":"DV, HDR","region":"UK","cookie":"a=1","cookies":"b=2,a=1","scraperApiKey":"k"}`)

	userData, err := parseUserData(raw)
	require.NoError(t, err)
	assert.Equal(t, stringList{"moviesdrive", "4khdhub"}, userData.Providers)
	assert.Equal(t, perProvider{"*": "720p"}, userData.MinQuality)
	assert.Equal(t, codecRules{"*": {"DV", "HDR"}}, userData.ExcludeCodecs)
	assert.Equal(t, "UK", userData.Region)
	assert.Equal(t, "a=1", userData.Cookie)
	assert.Equal(t, stringList{"b=2", "a=1"}, userData.Cookies)
	assert.Equal(t, "k", userData.ScraperAPIKey)
}

func TestParseUserData_Invalid(t *testing.T) {
	for _, raw := range []string{"%zz", "not-json", url.PathEscape(`{"providers":42}`), url.PathEscape(`{"minQuality":[1]}`)} {
		userData, err := parseUserData(raw)
		assert.ErrorIs(t, err, errInvalidUserData, raw)
		assert.Equal(t, &UserData{}, userData)
	}

	userData, err := parseUserData("")
	require.NoError(t, err)
	assert.Equal(t, &UserData{}, userData)
}

func TestNewRequestContext(t *testing.T) {
	userData := &UserData{
		Providers:     stringList{"4KHDHub", "showbox", "nope"},
		MinQuality:    perProvider{"*": "720p", "mdrive": "1080p"},
		ExcludeCodecs: codecRules{"4khdhub": {"DV"}},
		Region:        " US ",
		Cookie:        "main",
		Cookies:       stringList{"", "other", "main", "other"},
		ScraperAPIKey: " key ",
	}

	rc := newRequestContext(userData, model.ContentTypeSeries, "1396", 1, 2)
	assert.Equal(t, provider.NewSet(provider.FourKHDHub, provider.ShowBox), rc.Selection)
	assert.Equal(t, []string{"main", "other"}, rc.Cookies)
	assert.Equal(t, "us", rc.Region)
	assert.Equal(t, "key", rc.ScraperAPIKey)

	assert.Equal(t, ranking.Rule{MinQuality: "1080p"}, rc.Rule(provider.MoviesDrive))
	assert.Equal(t, ranking.Rule{MinQuality: "720p", ExcludeCodecs: []string{"DV"}}, rc.Rule(provider.FourKHDHub))
	assert.Equal(t, ranking.Rule{MinQuality: "720p"}, rc.Rule(provider.FebBox))

	q := rc.Query(provider.ShowBox)
	assert.Equal(t, provider.Query{
		Provider:      provider.ShowBox,
		TMDBID:        "1396",
		Type:          model.ContentTypeSeries,
		Season:        1,
		Episode:       2,
		Region:        "us",
		Cookies:       []string{"main", "other"},
		ScraperAPIKey: "key",
	}, q)
}

func TestNewRequestContext_Defaults(t *testing.T) {
	rc := newRequestContext(&UserData{}, model.ContentTypeMovie, "27205", 0, 0)
	assert.True(t, rc.Selection.IsEmpty())
	assert.Empty(t, rc.Cookies)
	assert.Empty(t, rc.Rules)
	assert.True(t, rc.Rule(provider.MoviesDrive).IsZero())
}

func TestRequestContext_CacheKey(t *testing.T) {
	rc := newRequestContext(&UserData{Cookie: "secret-cookie", Region: "us"}, model.ContentTypeSeries, "1396", 3, 4)

	assert.Equal(t, "moviesdrive:series:1396:3:4", rc.CacheKey(provider.MoviesDrive).String())

	key := rc.CacheKey(provider.ShowBox)
	require.NotNil(t, key.Material)
	assert.Equal(t, "us", key.Material.Region)
	assert.NotContains(t, key.String(), "secret-cookie")
	assert.Contains(t, key.String(), ":r=us:c=")

	anonymous := newRequestContext(&UserData{}, model.ContentTypeSeries, "1396", 3, 4)
	assert.Nil(t, anonymous.CacheKey(provider.ShowBox).Material)
}
