package provider

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownProvider = errors.New("unknown provider")

// ID is one of the known providers. The declaration order is the order
// their streams appear in a response.
type ID uint8

const (
	MoviesDrive ID = iota
	FourKHDHub
	ShowBox
	FebBox

	count
)

// All lists every provider in priority order.
var All = []ID{MoviesDrive, FourKHDHub, ShowBox, FebBox}

func (id ID) String() string {
	switch id {
	case MoviesDrive:
		return "moviesdrive"
	case FourKHDHub:
		return "4khdhub"
	case ShowBox:
		return "showbox"
	case FebBox:
		return "febbox"
	default:
		return fmt.Sprintf("provider(%d)", uint8(id))
	}
}

// Label is the display name used in stream names.
func (id ID) Label() string {
	switch id {
	case MoviesDrive:
		return "MoviesDrive"
	case FourKHDHub:
		return "4KHDHub"
	case ShowBox:
		return "ShowBox"
	case FebBox:
		return "FebBox"
	default:
		return "Unknown"
	}
}

func (id ID) Valid() bool {
	return id < count
}

// Cacheable is false for providers whose links are bound to the caller's
// cookies. Those are always fetched live.
func (id ID) Cacheable() bool {
	switch id {
	case ShowBox, FebBox:
		return false
	default:
		return id.Valid()
	}
}

// PassThrough reports whether the provider builds its own name and title.
func (id ID) PassThrough() bool {
	switch id {
	case ShowBox, FebBox:
		return true
	default:
		return false
	}
}

// UsesIdentity reports whether results depend on the caller's region and
// cookies.
func (id ID) UsesIdentity() bool {
	return id == ShowBox || id == FebBox
}

func Parse(name string) (ID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "moviesdrive", "movies-drive", "mdrive":
		return MoviesDrive, nil
	case "4khdhub", "4khd", "fourkhdhub":
		return FourKHDHub, nil
	case "showbox":
		return ShowBox, nil
	case "febbox":
		return FebBox, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// Set is a selection of providers.
type Set uint32

func NewSet(ids ...ID) Set {
	var s Set
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// ParseSet reads a comma separated list of provider names. Unknown names are
// returned separately so the caller can report them.
func ParseSet(list string) (Set, []string) {
	var s Set
	var unknown []string
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := Parse(name)
		if err != nil {
			unknown = append(unknown, strings.TrimSpace(name))
			continue
		}
		s = s.With(id)
	}
	return s, unknown
}

func (s Set) With(id ID) Set {
	if !id.Valid() {
		return s
	}
	return s | 1<<id
}

func (s Set) Has(id ID) bool {
	return id.Valid() && s&(1<<id) != 0
}

func (s Set) IsEmpty() bool {
	return s == 0
}

func (s Set) IDs() []ID {
	ids := make([]ID, 0, len(All))
	for _, id := range All {
		if s.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
