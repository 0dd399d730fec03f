package provider

import (
	"context"

	"github.com/dbytex91/streamhub/internal/model"
)

// Query is what a provider needs to look up streams for one title.
type Query struct {
	Provider      ID
	TMDBID        string
	Type          model.ContentType
	Season        int
	Episode       int
	Region        string
	Cookies       []string
	ScraperAPIKey string
	Animation     bool
}

// Fetcher returns the raw streams a provider has for a query. An empty result
// and an error are both normal outcomes.
type Fetcher interface {
	FetchStreams(ctx context.Context, q Query) ([]model.Stream, error)
}

type FetcherFunc func(ctx context.Context, q Query) ([]model.Stream, error)

func (f FetcherFunc) FetchStreams(ctx context.Context, q Query) ([]model.Stream, error) {
	return f(ctx, q)
}

// Registry holds the fetcher of every enabled provider. It is built once at
// boot and only read afterwards.
type Registry struct {
	fetchers [count]Fetcher
}

// NewRegistry enables exactly the providers present in fetchers.
func NewRegistry(fetchers map[ID]Fetcher) *Registry {
	r := &Registry{}
	for id, f := range fetchers {
		if id.Valid() && f != nil {
			r.fetchers[id] = f
		}
	}
	return r
}

func (r *Registry) Enabled(id ID) bool {
	return id.Valid() && r.fetchers[id] != nil
}

func (r *Registry) Fetcher(id ID) Fetcher {
	if !id.Valid() {
		return nil
	}
	return r.fetchers[id]
}

// EnabledSet is the set of providers with a fetcher.
func (r *Registry) EnabledSet() Set {
	var s Set
	for _, id := range All {
		if r.Enabled(id) {
			s = s.With(id)
		}
	}
	return s
}

// Select returns, in priority order, the enabled providers that are also in
// selection. An empty selection means every enabled provider.
func (r *Registry) Select(selection Set) []ID {
	ids := make([]ID, 0, len(All))
	for _, id := range All {
		if !r.Enabled(id) {
			continue
		}
		if !selection.IsEmpty() && !selection.Has(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
