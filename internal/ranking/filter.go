package ranking

import (
	"strings"

	"github.com/dbytex91/streamhub/internal/model"
)

// Rule is the per-provider filtering policy. The zero value lets everything
// through.
type Rule struct {
	MinQuality    string
	ExcludeCodecs []string
}

func (r Rule) IsZero() bool {
	return r.MinQuality == "" && len(r.ExcludeCodecs) == 0
}

// Filter drops the streams below the rule's quality floor and the ones
// carrying an excluded codec tag. The input slice is not modified.
func Filter(streams []model.Stream, rule Rule) []model.Stream {
	if rule.IsZero() {
		return streams
	}

	minRank := ParseQuality(rule.MinQuality)
	excluded := make(map[string]struct{}, len(rule.ExcludeCodecs))
	for _, codec := range rule.ExcludeCodecs {
		if codec = normalizeTag(codec); codec != "" {
			excluded[codec] = struct{}{}
		}
	}

	filtered := make([]model.Stream, 0, len(streams))
	for i := range streams {
		s := &streams[i]
		if minRank > QualityUnknown && StreamQuality(s) < minRank {
			continue
		}
		if hasExcludedCodec(s.Codecs, excluded) {
			continue
		}
		filtered = append(filtered, *s)
	}

	return filtered
}

func hasExcludedCodec(codecs []string, excluded map[string]struct{}) bool {
	if len(excluded) == 0 {
		return false
	}
	for _, codec := range codecs {
		if _, ok := excluded[normalizeTag(codec)]; ok {
			return true
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}
