package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qobuz-relay/internal/shared"
)

func TestParsePerformers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Daft Punk, MainArtist", []string{"Daft Punk"}},
		{"Daft Punk, Producer, MainArtist - Pharrell Williams, FeaturedArtist, Composer - Nile Rodgers, Guitar", []string{"Daft Punk", "Pharrell Williams"}},
		{"Thomas Bangalter, ComposerLyricist - Guy-Manuel de Homem-Christo, ComposerLyricist", nil},
		{"", nil},
		{"Daft Punk, MainArtist - Daft Punk, FeaturedArtist", []string{"Daft Punk"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePerformers(tt.in), tt.in)
	}
}

func TestBuildMetadata(t *testing.T) {
	album := &shared.Album{
		Title:               "Discovery",
		Artist:              &shared.ArtistRef{Name: "Daft Punk"},
		Image:               shared.Image{Large: "https://static/large.jpg", Thumbnail: "https://static/thumb.jpg"},
		TracksCount:         14,
		ReleaseDateOriginal: "2001-03-12",
		Genre:               &shared.Genre{Name: "Electronic"},
		Label:               &shared.Label{Name: "Parlophone"},
		Copyright:           "(P) 2001 Daft Life",
	}
	track := shared.Track{
		ID:          123,
		Title:       "Digital Love",
		Performers:  "Daft Punk, MainArtist - DJ Sneak, ComposerLyricist",
		TrackNumber: 3,
		ISRC:        "GBDUW0000055",
		Duration:    301,
	}

	meta := BuildMetadata(track, album, "flac")
	assert.Equal(t, "Digital Love", meta.Title)
	assert.Equal(t, "Daft Punk", meta.Artist)
	assert.Equal(t, "Daft Punk", meta.AlbumArtist)
	assert.Equal(t, "Discovery", meta.Album)
	assert.Equal(t, "https://static/thumb.jpg", meta.ThumbnailURL)
	assert.Equal(t, 14, meta.TotalTracks)
	assert.Equal(t, 1, meta.DiscNumber)
	assert.Equal(t, "2001", meta.Year())
	assert.Equal(t, "Parlophone", meta.Label)
	assert.Equal(t, "(P) 2001 Daft Life", meta.Copyright)
	assert.Equal(t, 301, meta.Duration)
}

func TestBuildMetadataFallsBackToEmbeddedAlbum(t *testing.T) {
	track := shared.Track{
		Title:     "Around the World",
		Version:   "Radio Edit",
		Performer: &shared.ArtistRef{Name: "Daft Punk"},
		Album:     &shared.Album{Title: "Homework", TracksCount: 16, ReleaseDateOriginal: "1997-01-20"},
	}

	meta := BuildMetadata(track, nil, "mp3")
	assert.Equal(t, "Around the World (Radio Edit)", meta.Title)
	assert.Equal(t, "Daft Punk", meta.Artist)
	assert.Equal(t, "Daft Punk", meta.AlbumArtist)
	assert.Equal(t, "Homework", meta.Album)
	assert.Equal(t, 1, meta.TrackNumber)
	assert.Equal(t, "mp3", meta.Extension)
}

func TestDetectImageFormat(t *testing.T) {
	assert.Equal(t, "image/png", detectImageFormat([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D}))
	assert.Equal(t, "image/jpeg", detectImageFormat([]byte{0xFF, 0xD8, 0xFF}))
	assert.Equal(t, "image/webp", detectImageFormat([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, "image/jpeg", detectImageFormat(nil))
}
