package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamhub/internal/model"
)

const (
	headerAPIKey = "X-Scraper-Api-Key"
	headerCookie = "X-Provider-Cookie"
)

// Scraper talks to the scraping service that does the actual site work for
// every provider.
type Scraper struct {
	client *resty.Client
}

type streamsResponse struct {
	Streams json.RawMessage `json:"streams"`
}

func NewScraper(baseURL string, apiKey string, timeout time.Duration) *Scraper {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	if apiKey != "" {
		client.SetHeader(headerAPIKey, apiKey)
	}

	return &Scraper{client: client}
}

func (s *Scraper) FetchStreams(ctx context.Context, q Query) ([]model.Stream, error) {
	req := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"provider": q.Provider.String(),
			"type":     string(q.Type),
			"id":       q.TMDBID,
		})

	if q.Season > 0 || q.Episode > 0 {
		req.SetQueryParam("season", strconv.Itoa(q.Season))
	}
	if q.Episode > 0 {
		req.SetQueryParam("episode", strconv.Itoa(q.Episode))
	}
	if q.Region != "" {
		req.SetQueryParam("region", q.Region)
	}
	if q.Animation {
		req.SetQueryParam("animation", "true")
	}
	if q.ScraperAPIKey != "" {
		req.SetHeader(headerAPIKey, q.ScraperAPIKey)
	}
	for _, cookie := range q.Cookies {
		req.Header.Add(headerCookie, cookie)
	}

	resp, err := req.Get("/streams/{provider}/{type}/{id}.json")
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", q.Provider, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%s: error response from scraper: %s", q.Provider, resp.Status())
	}

	return decodeStreams(q.Provider, resp.Body()), nil
}

// decodeStreams treats a response that doesn't look like a stream list as an
// empty result.
func decodeStreams(id ID, body []byte) []model.Stream {
	var envelope streamsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Warnf("Unexpected response shape from %s, treating as empty: %v", id, err)
		return []model.Stream{}
	}

	if len(envelope.Streams) == 0 || string(envelope.Streams) == "null" {
		log.Warnf("No streams array in response from %s, treating as empty", id)
		return []model.Stream{}
	}

	var raw []model.Stream
	if err := json.Unmarshal(envelope.Streams, &raw); err != nil {
		log.Warnf("Malformed streams array from %s, treating as empty: %v", id, err)
		return []model.Stream{}
	}

	streams := make([]model.Stream, 0, len(raw))
	for _, s := range raw {
		if s.URL == "" {
			log.Debugf("Skipped stream without url from %s: %q", id, s.Title)
			continue
		}
		streams = append(streams, s)
	}

	return streams
}
