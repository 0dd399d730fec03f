package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/titleparser"
)

// Quality ranks. Higher is better, unknown is always the lowest.
const (
	QualityUnknown = 0
	Quality360p    = 360
	Quality480p    = 480
	Quality720p    = 720
	Quality1080p   = 1080
	Quality1440p   = 1440
	Quality2160p   = 2160
)

var (
	resolutionPattern = regexp.MustCompile(`\b(2160|1440|1080|720|576|480|360)(?:p|i)?\b`)

	qualityAliases = []struct {
		pattern *regexp.Regexp
		rank    int
	}{
		{regexp.MustCompile(`\b(?:4k|uhd)\b`), Quality2160p},
		{regexp.MustCompile(`\b(?:2k|qhd)\b`), Quality1440p},
		{regexp.MustCompile(`\b(?:fhd|full[\s.-]?hd)\b`), Quality1080p},
		{regexp.MustCompile(`\bhd\b`), Quality720p},
		{regexp.MustCompile(`\bsd\b`), Quality480p},
	}

	qualityLabels = map[int]string{
		Quality2160p: "4K",
		Quality1440p: "1440p",
		Quality1080p: "1080p",
		Quality720p:  "720p",
		Quality480p:  "480p",
		Quality360p:  "360p",
	}
)

// ParseQuality maps a free-text quality label to its rank. It never fails:
// anything it can't read is QualityUnknown.
func ParseQuality(label string) int {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return QualityUnknown
	}

	if m := resolutionPattern.FindStringSubmatch(label); len(m) > 1 {
		rank, _ := strconv.Atoi(m[1])
		if rank == 576 {
			return Quality480p
		}
		return rank
	}

	for _, alias := range qualityAliases {
		if alias.pattern.MatchString(label) {
			return alias.rank
		}
	}

	return QualityUnknown
}

// StreamQuality ranks a stream by its quality label, falling back to the
// resolution found in its title when the label says nothing.
func StreamQuality(s *model.Stream) int {
	if rank := ParseQuality(string(s.Quality)); rank != QualityUnknown {
		return rank
	}
	return resolutionRank(titleparser.Parse(s.Title).Resolution)
}

func resolutionRank(resolution int) int {
	if resolution == 576 {
		return Quality480p
	}
	if _, ok := qualityLabels[resolution]; ok {
		return resolution
	}
	return QualityUnknown
}

// QualityLabel is the display form of a rank.
func QualityLabel(rank int) string {
	if label, ok := qualityLabels[rank]; ok {
		return label
	}
	return "UNK"
}
