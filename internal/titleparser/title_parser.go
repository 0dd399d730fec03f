package titleparser

import (
	"regexp"
	"slices"
	"strconv"
)

var (
	parsers = []func(string, *MetaInfo){
		parseResolution(`(?i)\b([0-9]{3,4})[pi]\b`),
		matchAndSetResolution(`(?i)\b(?:4k|uhd)\b`, 2160),
		matchAndSetResolution(`(?i)\b(?:2k|qhd)\b`, 1440),
		matchAndSetResolution(`(?i)\b(?:fhd|full[\s.-]?hd)\b`, 1080),
		appendHDR(`(?i)\b(?:DV|DoVi|Dolby[\s.-]?Vision)\b`, "DV"),
		appendHDR(`(?i)\bHDR10(?:\+|Plus)`, "HDR10+"),
		appendHDR(`(?i)\bHDR10\b`, "HDR10", "HDR10+"),
		appendHDR(`(?i)\bHDR\b`, "HDR", "HDR10+", "HDR10"),
		matchAndSetSource(`(?i)\bREMUX\b`, "REMUX"),
		matchAndSetSource(`(?i)\bBlu-?ray\b|\bBDRip\b|\bBRRip\b`, "BluRay"),
		matchAndSetSource(`(?i)\bWEB-?DL\b`, "WEB-DL"),
		matchAndSetSource(`(?i)\bWEB-?Rip\b`, "WEBRip"),
		matchAndSetSource(`(?i)\bHDTV\b`, "HDTV"),
		matchAndSetSource(`(?i)\bDVD-?Rip\b`, "DVDRip"),
		matchAndSetSource(`(?i)\b(?:HD-?)?CAM(?:rip)?\b`, "CAM"),
		appendAudio(`(?i)\bAtmos\b`, "Atmos"),
		appendAudio(`(?i)\bTrue-?HD\b`, "TrueHD"),
		appendAudio(`(?i)\bDTS[\s.-]?(?:HD|MA|X)\b`, "DTS-HD"),
		appendAudio(`(?i)\bDTS\b`, "DTS", "DTS-HD"),
		appendAudio(`(?i)\bDDP(?:[\s.]?[257][\s.]?[01])?\b|\bE-?AC-?3\b|\bDD\+`, "EAC3"),
		appendAudio(`(?i)\bAC-?3\b|\bDD[\s.]?[257][\s.]?[01]\b`, "AC3", "EAC3"),
		appendAudio(`(?i)\bAAC(?:[\s.]?[257][\s.]?[01])?\b`, "AAC"),
		matchAndSetCodec(`(?i)\b(?:[xh][\s.-]?265|HEVC)\b`, "H.265"),
		matchAndSetCodec(`(?i)\b(?:[xh][\s.-]?264|AVC)\b`, "H.264"),
		matchAndSetCodec(`(?i)\bAV1\b`, "AV1"),
		parseBitDepth(`(?i)\b(8|10|12)[\s.-]?bits?\b`),
	}
)

// MetaInfo holds the release tokens found in a free-text stream title.
type MetaInfo struct {
	Resolution int
	HDR        []string
	Source     string
	Audio      []string
	Codec      string
	BitDepth   int
}

func Parse(title string) *MetaInfo {
	m := &MetaInfo{}
	for _, parser := range parsers {
		parser(title, m)
	}
	return m
}

// Tags lists the tokens in display order: HDR variants first, then audio,
// then video codec and bit depth.
func (m *MetaInfo) Tags() []string {
	tags := make([]string, 0, len(m.HDR)+len(m.Audio)+2)
	tags = append(tags, m.HDR...)
	tags = append(tags, m.Audio...)
	if m.Codec != "" {
		tags = append(tags, m.Codec)
	}
	if m.BitDepth == 10 {
		tags = append(tags, "10-bit")
	}
	return tags
}

func findLast(title string, regex *regexp.Regexp) []int {
	matches := regex.FindAllStringSubmatchIndex(title, -1)
	if len(matches) == 0 {
		return nil
	}
	return matches[len(matches)-1]
}

func findAndSet(value *string, title string, regex *regexp.Regexp, target string) {
	if *value != "" {
		// don't overwrite the existing value
		return
	}

	if regex.MatchString(title) {
		*value = target
	}
}

func parseResolution(pattern string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		if mi.Resolution > 0 {
			return
		}

		loc := findLast(title, compiled)
		if loc == nil || len(loc) < 4 {
			return
		}

		mi.Resolution, _ = strconv.Atoi(title[loc[2]:loc[3]])
	}
}

func matchAndSetResolution(pattern string, value int) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		if mi.Resolution == 0 && compiled.MatchString(title) {
			mi.Resolution = value
		}
	}
}

// appendTag records value once, unless one of the more specific tags in
// supersededBy was already found.
func appendTag(tags *[]string, title string, regex *regexp.Regexp, value string, supersededBy []string) {
	if !regex.MatchString(title) || slices.Contains(*tags, value) {
		return
	}
	for _, other := range supersededBy {
		if slices.Contains(*tags, other) {
			return
		}
	}
	*tags = append(*tags, value)
}

func appendHDR(pattern string, value string, supersededBy ...string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		appendTag(&mi.HDR, title, compiled, value, supersededBy)
	}
}

func appendAudio(pattern string, value string, supersededBy ...string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		appendTag(&mi.Audio, title, compiled, value, supersededBy)
	}
}

func matchAndSetSource(pattern string, value string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		findAndSet(&mi.Source, title, compiled, value)
	}
}

func matchAndSetCodec(pattern string, value string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		findAndSet(&mi.Codec, title, compiled, value)
	}
}

func parseBitDepth(pattern string) func(string, *MetaInfo) {
	compiled := regexp.MustCompile(pattern)
	return func(title string, mi *MetaInfo) {
		if mi.BitDepth > 0 {
			return
		}

		loc := findLast(title, compiled)
		if loc == nil || len(loc) < 4 {
			return
		}

		mi.BitDepth, _ = strconv.Atoi(title[loc[2]:loc[3]])
	}
}
