package model

// ResolvedID is the canonical content identity an external id maps to.
type ResolvedID struct {
	TMDBID      string
	IMDBID      string
	Type        ContentType
	Title       string
	IsAnimation bool
}

type MetaInfo struct {
	Name        string
	IMDBID      string
	Year        int
	IsAnimation bool
}
