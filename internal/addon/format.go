package addon

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/adrg/strutil/metrics"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/ranking"
	"github.com/dbytex91/streamhub/internal/titleparser"
)

const (
	unknownTitle        = "Unknown Title"
	infoSeparator       = " • "
	minServerSimilarity = 0.9
)

var (
	// known hosting servers and their short form
	serverAbbreviations = []struct {
		name  string
		short string
	}{
		{"hubcloud", "HC"},
		{"hubdrive", "HD"},
		{"hubcdn", "HCDN"},
		{"gdflix", "GDF"},
		{"gdtot", "GDT"},
		{"google drive", "GD"},
		{"pixeldrain", "PD"},
		{"pixelserver", "PX"},
		{"fsl server", "FSL"},
		{"fast server", "FS"},
		{"10gbps server", "10G"},
		{"buzzserver", "BZ"},
		{"instant dl", "IDL"},
		{"direct dl", "DL"},
		{"mega", "MEGA"},
		{"s3 server", "S3"},
	}

	flagEmoji = map[string]string{
		"us":  "🇺🇸",
		"usa": "🇺🇸",
		"uk":  "🇬🇧",
		"gb":  "🇬🇧",
		"de":  "🇩🇪",
		"ger": "🇩🇪",
		"fr":  "🇫🇷",
		"fra": "🇫🇷",
		"nl":  "🇳🇱",
		"nld": "🇳🇱",
		"ca":  "🇨🇦",
		"can": "🇨🇦",
		"sg":  "🇸🇬",
		"sgp": "🇸🇬",
		"in":  "🇮🇳",
		"ind": "🇮🇳",
		"jp":  "🇯🇵",
		"jpn": "🇯🇵",
		"au":  "🇦🇺",
		"aus": "🇦🇺",
		"es":  "🇪🇸",
		"it":  "🇮🇹",
		"se":  "🇸🇪",
		"ch":  "🇨🇭",
		"pl":  "🇵🇱",
		"br":  "🇧🇷",
		"hk":  "🇭🇰",
		"kr":  "🇰🇷",
		"fi":  "🇫🇮",
	}

	// codec tags shown in a title, in display order
	codecPriority = []string{"DV", "HDR", "Atmos", "DTS-HD", "DTS", "EAC3", "AC3", "H.265", "H.264", "10-bit"}

	codecAliases = map[string]string{
		"dv":           "DV",
		"dovi":         "DV",
		"dolby vision": "DV",
		"dolbyvision":  "DV",
		"hdr":          "HDR",
		"hdr10":        "HDR",
		"hdr10+":       "HDR",
		"hdr10plus":    "HDR",
		"atmos":        "Atmos",
		"dolby atmos":  "Atmos",
		"dts-hd":       "DTS-HD",
		"dts-hd ma":    "DTS-HD",
		"dtshd":        "DTS-HD",
		"dts:x":        "DTS-HD",
		"dts-x":        "DTS-HD",
		"dts":          "DTS",
		"eac3":         "EAC3",
		"e-ac3":        "EAC3",
		"e-ac-3":       "EAC3",
		"ddp":          "EAC3",
		"dd+":          "EAC3",
		"ac3":          "AC3",
		"ac-3":         "AC3",
		"dd":           "AC3",
		"h.265":        "H.265",
		"h265":         "H.265",
		"x265":         "H.265",
		"hevc":         "H.265",
		"h.264":        "H.264",
		"h264":         "H.264",
		"x264":         "H.264",
		"avc":          "H.264",
		"10-bit":       "10-bit",
		"10bit":        "10-bit",
		"10 bit":       "10-bit",
	}

	hostPrefixPattern = regexp.MustCompile(`^([a-z]{2,3})(?:[0-9-]|$)`)
	serverTokenSplit  = regexp.MustCompile(`[\[\]\(\)|:\-_.]+`)
)

// formatStream turns a raw stream into what Stremio displays. It never fails:
// missing data ends up as placeholder text.
func formatStream(id provider.ID, s *model.Stream, meta *displayMeta) StreamItem {
	quality := ranking.QualityLabel(ranking.StreamQuality(s))

	var name, title string
	if id.PassThrough() {
		name = strings.TrimSpace(s.Name)
		title = strings.TrimSpace(s.Title)
	}

	info := titleparser.Parse(s.Title)
	if name == "" {
		name = buildName(id, s, info, quality)
	}
	if title == "" {
		title = buildTitle(s, info, meta)
	}

	return StreamItem{
		Name:         name,
		Title:        title,
		URL:          s.URL,
		Type:         "url",
		Availability: 2,
		BehaviorHints: &StreamBehaviorHints{
			NotWebReady: true,
			BingeGroup:  fmt.Sprintf("streamhub-%s-%s", id, strings.ToLower(quality)),
		},
	}
}

func buildName(id provider.ID, s *model.Stream, info *titleparser.MetaInfo, quality string) string {
	name := fmt.Sprintf("%s - %s", id.Label(), quality)
	if server := abbreviateServer(s.Name); server != "" {
		name = fmt.Sprintf("%s [%s] - %s", id.Label(), server, quality)
	}
	if info.Source != "" {
		name += " " + info.Source
	}
	if flag := hostFlag(s.URL); flag != "" {
		name = flag + " " + name
	}
	return name
}

func buildTitle(s *model.Stream, info *titleparser.MetaInfo, meta *displayMeta) string {
	first := strings.TrimSpace(s.Title)
	if first == "" {
		first = meta.String()
	}

	lines := []string{first}
	if second := infoLine(s, info); second != "" {
		lines = append(lines, second)
	}
	return strings.Join(lines, "\n")
}

// infoLine joins the known codec tags and the size, or returns "" when there
// is neither.
func infoLine(s *model.Stream, info *titleparser.MetaInfo) string {
	found := make(map[string]struct{}, len(codecPriority))
	for _, tag := range s.Codecs {
		if canonical, ok := codecAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
			found[canonical] = struct{}{}
		}
	}
	for _, tag := range info.Tags() {
		if canonical, ok := codecAliases[strings.ToLower(tag)]; ok {
			found[canonical] = struct{}{}
		}
	}

	parts := make([]string, 0, len(found)+1)
	for _, tag := range codecPriority {
		if _, ok := found[tag]; ok {
			parts = append(parts, tag)
		}
	}
	if size := ranking.SizeLabel(s.Size); size != "" {
		parts = append(parts, size)
	}

	return strings.Join(parts, infoSeparator)
}

// abbreviateServer maps a server name to its short form. An exact match of a
// known name wins; otherwise the closest known name is used if it is similar
// enough.
func abbreviateServer(name string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(serverTokenSplit.ReplaceAllString(name, " ")), " "))
	if normalized == "" {
		return ""
	}

	for _, server := range serverAbbreviations {
		if normalized == server.name || strings.Contains(" "+normalized+" ", " "+server.name+" ") {
			return server.short
		}
	}

	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	best, bestScore := "", 0.0
	for _, token := range candidateTokens(normalized) {
		for _, server := range serverAbbreviations {
			if score := jw.Compare(token, server.name); score > bestScore {
				best, bestScore = server.short, score
			}
		}
	}
	if bestScore >= minServerSimilarity {
		return best
	}
	return ""
}

// candidateTokens yields the whole name plus every one and two word window of
// it.
func candidateTokens(name string) []string {
	words := strings.Fields(name)
	tokens := []string{name}
	for i := range words {
		tokens = append(tokens, words[i])
		if i+1 < len(words) {
			tokens = append(tokens, words[i]+" "+words[i+1])
		}
	}
	return tokens
}

// hostFlag derives a flag from a country-like prefix of the first host label,
// e.g. "uk2.cdn.example" or "de-fra.example".
func hostFlag(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	label, _, _ := strings.Cut(strings.ToLower(u.Hostname()), ".")
	m := hostPrefixPattern.FindStringSubmatch(label)
	if len(m) < 2 {
		return ""
	}
	return flagEmoji[m[1]]
}

// displayMeta is what is known about the requested title for display.
type displayMeta struct {
	Name    string
	Year    int
	Season  int
	Episode int
}

func (m *displayMeta) String() string {
	if m == nil || m.Name == "" {
		return unknownTitle
	}

	title := m.Name
	if m.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, m.Year)
	}
	if m.Episode > 0 {
		title = fmt.Sprintf("%s S%02dE%02d", title, m.Season, m.Episode)
	}
	return title
}
