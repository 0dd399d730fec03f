package ranking

import (
	"cmp"
	"slices"

	"github.com/dbytex91/streamhub/internal/model"
)

// Sort orders streams by quality, then size, both descending. Equal streams
// keep the order the provider returned them in.
func Sort(streams []model.Stream) []model.Stream {
	type keyed struct {
		stream  model.Stream
		quality int
		size    uint64
	}

	items := make([]keyed, len(streams))
	for i := range streams {
		items[i] = keyed{
			stream:  streams[i],
			quality: StreamQuality(&streams[i]),
			size:    ParseSize(streams[i].Size),
		}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		if c := cmp.Compare(b.quality, a.quality); c != 0 {
			return c
		}
		return cmp.Compare(b.size, a.size)
	})

	sorted := make([]model.Stream, len(items))
	for i := range items {
		sorted[i] = items[i].stream
	}
	return sorted
}
