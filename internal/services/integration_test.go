package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/resolver"
)

func newFakeQobuz(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/album/get":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":                    "alb1",
				"title":                 "Discovery",
				"streamable":            true,
				"release_date_original": "2001-03-07",
				"release_type":          "album",
				"tracks_count":          2,
				"artist":                map[string]interface{}{"name": "Daft Punk"},
				"image":                 map[string]interface{}{"large": server.URL + "/cover.jpg"},
				"tracks": map[string]interface{}{"total": 2, "items": []interface{}{
					map[string]interface{}{"id": 1, "title": "One More Time", "track_number": 1, "performer": map[string]interface{}{"name": "Daft Punk"}},
					map[string]interface{}{"id": 2, "title": "Aerodynamic", "track_number": 2, "performer": map[string]interface{}{"name": "Daft Punk"}},
				}},
			})
		case r.URL.Path == "/track/getFileUrl":
			json.NewEncoder(w).Encode(map[string]interface{}{"url": server.URL + "/files/" + r.URL.Query().Get("track_id"), "format_id": 5})
		case strings.HasPrefix(r.URL.Path, "/files/"):
			w.Write([]byte("\xff\xfb\x90\x64fake mpeg frames"))
		case r.URL.Path == "/cover.jpg":
			w.Write([]byte("\xff\xd8\xff\xe0fake jpeg"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestServiceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	server := newFakeQobuz(t)

	cfg := config.DefaultConfig()
	cfg.APIURL = server.URL
	cfg.AppID, cfg.AppSecret, cfg.UserAuthToken = "app", "secret", "token"
	cfg.Quality = qobuz.QualityMP3
	cfg.DownloadLocation = t.TempDir()
	cfg.Parallelism = 2

	container := NewServiceContainer(cfg, server.Client())
	ctx := context.Background()

	content, err := container.Resolver.Resolve(ctx, "https://open.qobuz.com/album/alb1")
	require.NoError(t, err)

	stats, err := container.DownloadService.DownloadContent(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.Zero(t, stats.FailedCount)
	require.Len(t, stats.Completed, 2)

	albumDir := filepath.Join(cfg.DownloadLocation, "Daft Punk", "Daft Punk - Discovery (2001)")
	assert.FileExists(t, filepath.Join(albumDir, "01 - Daft Punk - One More Time.mp3"))
	assert.FileExists(t, filepath.Join(albumDir, "02 - Daft Punk - Aerodynamic.mp3"))

	// a second run finds both files on disk
	stats, err = container.DownloadService.DownloadContent(ctx, &resolver.Content{Kind: qobuz.KindAlbum, Albums: content.Albums})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SkippedCount)
	assert.Zero(t, stats.SuccessCount)
}
