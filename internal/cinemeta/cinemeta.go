package cinemeta

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dbytex91/streamhub/internal/model"
)

const DefaultBaseURL = "https://v3-cinemeta.strem.io"

var ErrNotFound = errors.New("cinemeta: meta not found")

type CineMeta struct {
	client *resty.Client
}

type metaResponse struct {
	Meta *metaInfo `json:"meta"`
}

type metaInfo struct {
	Name        string   `json:"name"`
	Year        string   `json:"year"`
	ReleaseInfo string   `json:"releaseInfo"`
	IMDBID      string   `json:"imdb_id"`
	Genres      []string `json:"genres"`
}

func New(baseURL string) *CineMeta {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CineMeta{
		client: resty.New().SetBaseURL(baseURL),
	}
}

// GetMeta looks up a movie or series by its IMDb id.
func (c *CineMeta) GetMeta(ctx context.Context, contentType model.ContentType, imdbID string) (*model.MetaInfo, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&metaResponse{}).
		SetPathParams(map[string]string{
			"type": string(contentType),
			"id":   imdbID,
		}).
		Get("/meta/{type}/{id}.json")
	if err != nil {
		return nil, fmt.Errorf("cinemeta %s: %w", imdbID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cinemeta %s: unexpected status %d", imdbID, resp.StatusCode())
	}

	result := resp.Result().(*metaResponse)
	if result.Meta == nil || result.Meta.Name == "" {
		return nil, ErrNotFound
	}

	year := result.Meta.Year
	if year == "" {
		year = result.Meta.ReleaseInfo
	}

	meta := &model.MetaInfo{
		Name:   result.Meta.Name,
		IMDBID: result.Meta.IMDBID,
		Year:   parseFromYear(year),
	}
	if meta.IMDBID == "" {
		meta.IMDBID = imdbID
	}
	for _, g := range result.Meta.Genres {
		if strings.EqualFold(g, "animation") {
			meta.IsAnimation = true
			break
		}
	}

	return meta, nil
}

// parseFromYear accepts "2019" as well as series ranges like "2008–2013" or "2019–".
func parseFromYear(year string) int {
	tokens := strings.FieldsFunc(year, func(r rune) bool {
		return r == '–' || r == '-'
	})
	if len(tokens) == 0 {
		return 0
	}
	from, _ := strconv.Atoi(strings.TrimSpace(tokens[0]))
	return from
}
