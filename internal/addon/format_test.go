package addon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
)

func TestFormatStream(t *testing.T) {
	s := &model.Stream{
		URL:     "https://uk2.hubcloud.example/file.mkv",
		Quality: "2160",
		Size:    "2.5 GB",
		Title:   "Dune.2021.2160p.BluRay.REMUX.DV.HDR.TrueHD.Atmos.x265",
		Name:    "HubCloud [Fast]",
		Codecs:  []string{"HDR10+"},
	}

	item := formatStream(provider.MoviesDrive, s, nil)
	assert.Equal(t, "🇬🇧 MoviesDrive [HC] - 4K REMUX", item.Name)
	assert.Equal(t, "Dune.2021.2160p.BluRay.REMUX.DV.HDR.TrueHD.Atmos.x265\nDV • HDR • Atmos • H.265 • 2.5 GB", item.Title)
	assert.Equal(t, s.URL, item.URL)
	assert.Equal(t, "url", item.Type)
	assert.Equal(t, 2, item.Availability)
	assert.True(t, item.BehaviorHints.NotWebReady)
}

func TestFormatStream_Placeholders(t *testing.T) {
	for _, id := range provider.All {
		item := formatStream(id, &model.Stream{}, nil)
		assert.Equal(t, id.Label()+" - UNK", item.Name)
		assert.Equal(t, unknownTitle, item.Title)
		assert.Equal(t, "url", item.Type)
	}

	item := formatStream(provider.FourKHDHub, &model.Stream{URL: "::bad", Size: "huge", Codecs: []string{"", "weird"}}, nil)
	assert.Equal(t, "4KHDHub - UNK", item.Name)
	assert.Equal(t, unknownTitle, item.Title)
}

func TestFormatStream_PassThrough(t *testing.T) {
	s := &model.Stream{URL: "https://febbox/1", Quality: "1080p", Name: "FebBox ORG", Title: "Movie.mkv\n1.2 GB"}

	item := formatStream(provider.FebBox, s, nil)
	assert.Equal(t, "FebBox ORG", item.Name)
	assert.Equal(t, "Movie.mkv\n1.2 GB", item.Title)

	// extracted providers rebuild the name
	item = formatStream(provider.MoviesDrive, s, nil)
	assert.Equal(t, "MoviesDrive - 1080p", item.Name)
}

func TestFormatStream_MetaTitle(t *testing.T) {
	meta := &displayMeta{Name: "Breaking Bad", Year: 2008, Season: 1, Episode: 2}
	item := formatStream(provider.FourKHDHub, &model.Stream{Quality: "720p", Size: "850 MB"}, meta)
	assert.Equal(t, "Breaking Bad (2008) S01E02\n850 MB", item.Title)
}

func TestInfoLine(t *testing.T) {
	tests := []struct {
		name   string
		stream model.Stream
		want   string
	}{
		{
			name:   "priority order",
			stream: model.Stream{Codecs: []string{"10bit", "H.264", "AC3", "DTS", "DTS-HD", "Atmos", "HDR", "DV", "EAC3", "x265"}},
			want:   "DV • HDR • Atmos • DTS-HD • DTS • EAC3 • AC3 • H.265 • H.264 • 10-bit",
		},
		{
			name:   "duplicates collapse",
			stream: model.Stream{Codecs: []string{"hevc", "x265", "H.265"}},
			want:   "H.265",
		},
		{
			name:   "size only",
			stream: model.Stream{Size: "Size: 1.5 GiB"},
			want:   "1.6 GB",
		},
		{
			name:   "nothing known",
			stream: model.Stream{Codecs: []string{"AAC", "OPUS"}, Size: "unknown"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := formatStream(provider.MoviesDrive, &tt.stream, &displayMeta{Name: "X"})
			if tt.want == "" {
				assert.Equal(t, "X", item.Title)
				return
			}
			assert.Equal(t, "X\n"+tt.want, item.Title)
		})
	}
}

func TestFormatStream_EveryAudioTag(t *testing.T) {
	item := formatStream(provider.MoviesDrive, &model.Stream{Title: "Movie.2160p.WEB-DL.DDP5.1.Atmos.x265"}, nil)
	assert.Equal(t, "MoviesDrive - 4K WEB-DL", item.Name)
	assert.Equal(t, "Movie.2160p.WEB-DL.DDP5.1.Atmos.x265\nAtmos • EAC3 • H.265", item.Title)

	item = formatStream(provider.FourKHDHub, &model.Stream{Quality: "Full HD", Title: "Film TrueHD Atmos DTS-HD MA"}, nil)
	assert.Equal(t, "4KHDHub - 1080p", item.Name)
	assert.Equal(t, "Film TrueHD Atmos DTS-HD MA\nAtmos • DTS-HD", item.Title)
}

func TestAbbreviateServer(t *testing.T) {
	tests := map[string]string{
		"HubCloud":           "HC",
		"hubcloud [Fast]":    "HC",
		"GDFlix":             "GDF",
		"Pixeldrain":         "PD",
		"[10Gbps Server]":    "10G",
		"FSL-Server":         "FSL",
		"Hubclod":            "HC",
		"HubClod [Fast]":     "HC",
		"Instant DL (Cloud)": "IDL",
		"Random Host":        "",
		"":                   "",
		"   ":                "",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, abbreviateServer(name))
		})
	}
}

func TestHostFlag(t *testing.T) {
	tests := map[string]string{
		"https://uk2.cdn.example/f.mkv": "🇬🇧",
		"https://de-fra.example/f.mkv":  "🇩🇪",
		"https://usa.example":           "🇺🇸",
		"https://cdn.example.com/f.mkv": "",
		"https://index.example/f.mkv":   "",
		"https://203.0.113.7/f.mkv":     "",
		"not a url":                     "",
		"://bad":                        "",
		"":                              "",
	}

	for rawURL, want := range tests {
		t.Run(rawURL, func(t *testing.T) {
			assert.Equal(t, want, hostFlag(rawURL))
		})
	}
}

func TestDisplayMeta(t *testing.T) {
	var nilMeta *displayMeta
	assert.Equal(t, unknownTitle, nilMeta.String())
	assert.Equal(t, unknownTitle, (&displayMeta{Year: 2020}).String())
	assert.Equal(t, "Inception (2010)", (&displayMeta{Name: "Inception", Year: 2010}).String())
	assert.Equal(t, "Specials S00E03", (&displayMeta{Name: "Specials", Episode: 3}).String())
}
