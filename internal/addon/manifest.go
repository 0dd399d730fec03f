package addon

import "github.com/dbytex91/streamhub/internal/model"

// Resource refers to https://github.com/Stremio/stremio-addon-sdk/blob/master/docs/api/responses/manifest.md#filtering-properties
type Resource string

const (
	ResourceStream Resource = "stream"
)

var idPrefixes = []string{"tt", "tmdb:"}

type Manifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	ResourceItems []ResourceItem `json:"resources"`

	Types    []model.ContentType `json:"types"`
	Catalogs []CatalogItem       `json:"catalogs"`

	IDPrefixes    []string       `json:"idPrefixes,omitempty"`
	Logo          string         `json:"logo,omitempty"`
	BehaviorHints *BehaviorHints `json:"behaviorHints,omitempty"`
}

type ResourceItem struct {
	Name  Resource            `json:"name"`
	Types []model.ContentType `json:"types"`

	IDPrefixes []string `json:"idPrefixes,omitempty"`
}

type BehaviorHints struct {
	Adult                 bool `json:"adult,omitempty"`
	P2P                   bool `json:"p2p,omitempty"`
	Configurable          bool `json:"configurable,omitempty"`
	ConfigurationRequired bool `json:"configurationRequired,omitempty"`
}

// CatalogItem represents a catalog. The addon has none but Stremio expects the
// field.
type CatalogItem struct {
	Type model.ContentType `json:"type"`
	ID   string            `json:"id"`
	Name string            `json:"name"`
}
