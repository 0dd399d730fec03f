package ranking

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	sizePattern      = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?)\s*([KMGT])(I)?B\b`)
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// ParseSize extracts the first "<number> <unit>" pair from free text and
// returns it in bytes. Unparseable input is 0.
func ParseSize(text string) uint64 {
	m := sizePattern.FindStringSubmatch(text)
	if len(m) < 3 {
		return 0
	}

	value := m[1]
	if thousandsPattern.MatchString(value) {
		value = strings.ReplaceAll(value, ",", "")
	} else {
		value = strings.ReplaceAll(value, ",", ".")
	}
	unit := strings.ToUpper(m[2]) + strings.ToLower(m[3]) + "B"
	bytes, err := humanize.ParseBytes(value + " " + unit)
	if err != nil {
		return 0
	}

	return bytes
}

// SizeLabel renders a size parsed from text, or "" when there is none.
func SizeLabel(text string) string {
	bytes := ParseSize(text)
	if bytes == 0 {
		return ""
	}
	return humanize.Bytes(bytes)
}
