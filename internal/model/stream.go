package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ContentType refers to https://github.com/Stremio/stremio-addon-sdk/blob/master/docs/api/responses/content.types.md
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

func (t ContentType) IsSupported() bool {
	return t == ContentTypeMovie || t == ContentTypeSeries
}

// Quality is the free-text quality label of a stream. Providers send it either
// as a string ("1080p", "4K") or as a bare number (2160).
type Quality string

func (q *Quality) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quality(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// anything else is not worth failing a whole provider response over
		*q = ""
		return nil
	}

	if i, err := n.Int64(); err == nil {
		*q = Quality(strconv.FormatInt(i, 10))
		return nil
	}

	*q = Quality(n.String())
	return nil
}

// Stream is a raw stream as produced by a provider.
type Stream struct {
	URL      string   `json:"url"`
	Quality  Quality  `json:"quality,omitempty"`
	Size     string   `json:"size,omitempty"`
	Title    string   `json:"title,omitempty"`
	Name     string   `json:"name,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Codecs   []string `json:"codecs,omitempty"`
}

// WithProvider returns a copy of s tagged with provider.
func (s Stream) WithProvider(provider string) Stream {
	s.Provider = provider
	if s.Codecs != nil {
		s.Codecs = append([]string(nil), s.Codecs...)
	}
	return s
}
