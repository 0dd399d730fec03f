package titleparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		title string
		want  MetaInfo
	}{
		{
			title: "Dune.Part.Two.2024.2160p.UHD.BluRay.REMUX.DV.HDR10+.TrueHD.Atmos.7.1.HEVC-FGT.mkv",
			want: MetaInfo{
				Resolution: 2160,
				HDR:        []string{"DV", "HDR10+"},
				Source:     "REMUX",
				Audio:      []string{"Atmos", "TrueHD"},
				Codec:      "H.265",
			},
		},
		{
			title: "Oppenheimer (2023) 1080p WEB-DL DDP5.1 Atmos H.264 10bit",
			want: MetaInfo{
				Resolution: 1080,
				Source:     "WEB-DL",
				Audio:      []string{"Atmos", "EAC3"},
				Codec:      "H.264",
				BitDepth:   10,
			},
		},
		{
			title: "The.Office.S03E07.720p.WEBRip.AAC2.0.x265",
			want: MetaInfo{
				Resolution: 720,
				Source:     "WEBRip",
				Audio:      []string{"AAC"},
				Codec:      "H.265",
			},
		},
		{
			title: "Some Show Season 2 4K HDR DTS-HD MA",
			want: MetaInfo{
				Resolution: 2160,
				HDR:        []string{"HDR"},
				Audio:      []string{"DTS-HD"},
			},
		},
		{
			title: "Movie 2019 Full HD HDR10 HDR E-AC-3",
			want: MetaInfo{
				Resolution: 1080,
				HDR:        []string{"HDR10"},
				Audio:      []string{"EAC3"},
			},
		},
		{
			title: "plain title",
			want:  MetaInfo{},
		},
		{
			title: "",
			want:  MetaInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, &tt.want, Parse(tt.title))
		})
	}
}

func TestParse_DVDRipIsNotDolbyVision(t *testing.T) {
	m := Parse("Old.Movie.1999.DVDRip.XviD")
	assert.Empty(t, m.HDR)
	assert.Equal(t, "DVDRip", m.Source)
}

func TestTags(t *testing.T) {
	m := Parse("Film 2160p DV HDR10 Atmos x265 10bit")
	assert.Equal(t, []string{"DV", "HDR10", "Atmos", "H.265", "10-bit"}, m.Tags())

	m = Parse("Movie 2160p DV HDR10 TrueHD Atmos DTS-HD x265")
	assert.Equal(t, []string{"DV", "HDR10", "Atmos", "TrueHD", "DTS-HD", "H.265"}, m.Tags())

	assert.Empty(t, Parse("nothing here").Tags())
}
