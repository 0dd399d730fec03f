package tmdb

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid stremio id")

type IDSource string

const (
	SourceIMDB IDSource = "imdb"
	SourceTMDB IDSource = "tmdb"
)

// ContentID is a parsed Stremio content id: tt123, tt123:1:2, tmdb:123 or tmdb:123:1:2.
type ContentID struct {
	Source  IDSource
	ID      string
	Season  int
	Episode int
}

func ParseID(raw string) (ContentID, error) {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ".json")

	tokens := strings.Split(raw, ":")
	var id ContentID
	switch {
	case strings.HasPrefix(tokens[0], "tt") && len(tokens[0]) > 2:
		if _, err := strconv.ParseUint(tokens[0][2:], 10, 64); err != nil {
			return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		id = ContentID{Source: SourceIMDB, ID: tokens[0]}
		tokens = tokens[1:]
	case tokens[0] == "tmdb" && len(tokens) > 1:
		if _, err := strconv.ParseUint(tokens[1], 10, 64); err != nil {
			return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		id = ContentID{Source: SourceTMDB, ID: tokens[1]}
		tokens = tokens[2:]
	default:
		return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}

	switch len(tokens) {
	case 0:
		return id, nil
	case 2:
		season, err1 := strconv.Atoi(tokens[0])
		episode, err2 := strconv.Atoi(tokens[1])
		if err1 != nil || err2 != nil || season < 0 || episode < 1 {
			return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		id.Season = season
		id.Episode = episode
		return id, nil
	default:
		return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
}
