package services

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/downloader"
)

func TestNewServiceContainer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DownloadLocation = t.TempDir()

	container := NewServiceContainer(cfg, &http.Client{Timeout: 30 * time.Second})

	assert.NotNil(t, container.Catalog)
	assert.NotNil(t, container.Resolver)
	assert.NotNil(t, container.DownloadService)
	assert.NotNil(t, container.SearchService)
	assert.NotNil(t, container.SpotifyService)
	assert.NotNil(t, container.UpdaterService)
	assert.NotNil(t, container.FileSystem)
	assert.NotNil(t, container.Logger)
	assert.NotNil(t, container.WarningCollector)
	assert.Nil(t, container.NavidromeService, "navidrome stays off without credentials")

	cfg.NavidromeURL, cfg.NavidromeUsername, cfg.NavidromePassword = "http://localhost:4533", "admin", "pw"
	assert.NotNil(t, NewServiceContainer(cfg, nil).NavidromeService)
}

func TestProcessNamingMask(t *testing.T) {
	meta := downloader.TrackMetadata{
		Title:       "Digital Love",
		Artist:      "Daft Punk",
		Album:       "Discovery",
		TrackNumber: 3,
		DiscNumber:  1,
		Date:        "2001-03-07",
	}
	assert.Equal(t, "03 - Daft Punk - Digital Love", ProcessNamingMask("{track_number} - {artist} - {title}", meta))
	assert.Equal(t, "Daft Punk/Discovery (2001) [1]", ProcessNamingMask("{album_artist}/{album} ({year}) [{disc_number}]", meta))
}

func TestGetDownloadPath(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DownloadLocation = root
	fs := NewFileSystemService(cfg)

	meta := downloader.TrackMetadata{
		Title:       "Around the World / Harder",
		Artist:      "Daft Punk",
		AlbumArtist: "Daft Punk",
		Album:       "Alive 1997",
		TrackNumber: 1,
		Date:        "2001-10-01",
		Extension:   "flac",
	}

	tests := []struct {
		releaseType string
		want        string
	}{
		{"album", filepath.Join(root, "Daft Punk", "Daft Punk - Alive 1997 (2001)", "01 - Daft Punk - Around the World _ Harder.flac")},
		{"epmini", filepath.Join(root, "Daft Punk", "EPs", "Daft Punk - Alive 1997 (2001)", "01 - Daft Punk - Around the World _ Harder.flac")},
		{"single", filepath.Join(root, "Daft Punk", "Singles", "Daft Punk - Alive 1997 (2001)", "01 - Daft Punk - Around the World _ Harder.flac")},
		{"", filepath.Join(root, "Daft Punk", "Daft Punk - Alive 1997 (2001)", "01 - Daft Punk - Around the World _ Harder.flac")},
	}
	for _, tt := range tests {
		t.Run(tt.releaseType, func(t *testing.T) {
			assert.Equal(t, tt.want, fs.GetDownloadPath(meta, tt.releaseType))
		})
	}
}

func TestValidateDownloadLocation(t *testing.T) {
	fs := NewFileSystemService(config.DefaultConfig())
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, fs.ValidateDownloadLocation(dir))
	assert.DirExists(t, dir)
}
