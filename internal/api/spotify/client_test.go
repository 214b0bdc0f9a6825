package spotify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qobuz-relay/internal/shared"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url, kind, id string
	}{
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "track", "4uLU6hMCjMI75M1A2tKUQC"},
		{"https://open.spotify.com/album/2noRn2Aes5aoNVsU6iWThc?si=abc", "album", "2noRn2Aes5aoNVsU6iWThc"},
		{"https://open.spotify.com/intl-de/playlist/37i9dQZF1DXcBWIGoYBM5M", "playlist", "37i9dQZF1DXcBWIGoYBM5M"},
	}
	for _, tt := range tests {
		kind, id, err := ParseURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.kind, kind)
		assert.Equal(t, tt.id, id)
	}

	_, _, err := ParseURL("https://open.spotify.com/artist/4tZwfgrHOc3mvqYlEYSvVi")
	assert.True(t, errors.Is(err, shared.ErrUnsupportedURL))
	assert.False(t, IsSpotifyURL("https://open.qobuz.com/album/1"))
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewSpotifyClient("", "").Configured())
	assert.True(t, NewSpotifyClient("id", "secret").Configured())

	var nilClient *SpotifyClient
	assert.False(t, nilClient.Configured())
}
