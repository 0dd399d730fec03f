package addon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/ranking"
	"github.com/dbytex91/streamhub/internal/streamcache"
)

var errInvalidUserData = errors.New("invalid userData")

// UserData is the configuration a user encodes in the addon URL.
type UserData struct {
	Providers     stringList  `json:"providers"`
	MinQuality    perProvider `json:"minQuality"`
	ExcludeCodecs codecRules  `json:"excludeCodecs"`
	Region        string      `json:"region"`
	Cookie        string      `json:"cookie"`
	Cookies       stringList  `json:"cookies"`
	ScraperAPIKey string      `json:"scraperApiKey"`
}

// stringList accepts either a JSON array of strings or a comma separated
// string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = splitList(s)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// perProvider is a value that applies either to every provider ("1080p") or
// per provider ({"moviesdrive": "1080p"}). The "*" key stores the former.
type perProvider map[string]string

func (p *perProvider) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = perProvider{"*": s}
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = m
	return nil
}

// codecRules is like perProvider for lists of codec tags.
type codecRules map[string]stringList

func (r *codecRules) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	if len(data) > 0 && data[0] != '{' {
		var all stringList
		if err := json.Unmarshal(data, &all); err != nil {
			return err
		}
		*r = codecRules{"*": all}
		return nil
	}

	var m map[string]stringList
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = m
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseUserData(raw string) (*UserData, error) {
	userData := &UserData{}
	if raw == "" {
		return userData, nil
	}

	userDataJson, err := url.PathUnescape(raw)
	if err != nil {
		return userData, fmt.Errorf("%w: %v", errInvalidUserData, err)
	}

	if err := json.Unmarshal([]byte(userDataJson), userData); err != nil {
		return &UserData{}, fmt.Errorf("%w: %v", errInvalidUserData, err)
	}

	return userData, nil
}

// RequestContext is everything one stream request needs. It is built once per
// request and only read afterwards.
type RequestContext struct {
	ContentType   model.ContentType
	TMDBID        string
	Season        int
	Episode       int
	Region        string
	Cookies       []string
	ScraperAPIKey string
	Animation     bool
	Rules         map[provider.ID]ranking.Rule
	Selection     provider.Set
}

func newRequestContext(userData *UserData, contentType model.ContentType, tmdbID string, season, episode int) *RequestContext {
	rc := &RequestContext{
		ContentType:   contentType,
		TMDBID:        tmdbID,
		Season:        season,
		Episode:       episode,
		Region:        strings.ToLower(strings.TrimSpace(userData.Region)),
		Cookies:       mergeCookies(userData.Cookie, userData.Cookies),
		ScraperAPIKey: strings.TrimSpace(userData.ScraperAPIKey),
		Rules:         make(map[provider.ID]ranking.Rule, len(provider.All)),
	}

	if len(userData.Providers) > 0 {
		selection, unknown := provider.ParseSet(strings.Join(userData.Providers, ","))
		if len(unknown) > 0 {
			log.Warnf("Ignoring unknown providers in selection: %v", unknown)
		}
		rc.Selection = selection
	}

	for _, id := range provider.All {
		rule := ranking.Rule{
			MinQuality:    userData.MinQuality["*"],
			ExcludeCodecs: userData.ExcludeCodecs["*"],
		}
		if q, ok := lookupProvider(userData.MinQuality, id); ok {
			rule.MinQuality = q
		}
		if codecs, ok := lookupProvider(userData.ExcludeCodecs, id); ok {
			rule.ExcludeCodecs = codecs
		}
		if !rule.IsZero() {
			rc.Rules[id] = rule
		}
	}

	return rc
}

// lookupProvider finds a per-provider setting under any of the provider's
// accepted names.
func lookupProvider[V any](m map[string]V, id provider.ID) (V, bool) {
	for key, value := range m {
		if key == "*" {
			continue
		}
		if parsed, err := provider.Parse(key); err == nil && parsed == id {
			return value, true
		}
	}
	var zero V
	return zero, false
}

// mergeCookies puts the single cookie first and drops blanks and duplicates.
func mergeCookies(single string, list []string) []string {
	seen := make(map[string]struct{}, len(list)+1)
	cookies := make([]string, 0, len(list)+1)
	for _, c := range append([]string{single}, list...) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cookies = append(cookies, c)
	}
	return cookies
}

func (rc *RequestContext) Rule(id provider.ID) ranking.Rule {
	return rc.Rules[id]
}

func (rc *RequestContext) Query(id provider.ID) provider.Query {
	return provider.Query{
		Provider:      id,
		TMDBID:        rc.TMDBID,
		Type:          rc.ContentType,
		Season:        rc.Season,
		Episode:       rc.Episode,
		Region:        rc.Region,
		Cookies:       rc.Cookies,
		ScraperAPIKey: rc.ScraperAPIKey,
		Animation:     rc.Animation,
	}
}

func (rc *RequestContext) CacheKey(id provider.ID) streamcache.Key {
	key := streamcache.Key{
		Provider: id,
		Type:     rc.ContentType,
		ID:       rc.TMDBID,
		Season:   rc.Season,
		Episode:  rc.Episode,
	}
	if id.UsesIdentity() && (rc.Region != "" || len(rc.Cookies) > 0) {
		key.Material = &streamcache.KeyMaterial{
			Region:  rc.Region,
			Cookies: rc.Cookies,
		}
	}
	return key
}
