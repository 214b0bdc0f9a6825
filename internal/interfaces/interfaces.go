package interfaces

import (
	"context"
	"net/http"

	"qobuz-relay/internal/api/navidrome"
	"qobuz-relay/internal/core/downloader"
	"qobuz-relay/internal/core/resolver"
	"qobuz-relay/internal/shared"
)

// CatalogClient defines the Qobuz catalog calls the services use
type CatalogClient interface {
	GetAlbum(ctx context.Context, albumID string) (*shared.Album, error)
	GetTrack(ctx context.Context, trackID string) (*shared.Track, error)
	GetArtistCatalog(ctx context.Context, artistID string) (*shared.ArtistCatalog, error)
	GetPlaylist(ctx context.Context, playlistID string) (*shared.Playlist, error)
	GetLabel(ctx context.Context, labelID string) (*shared.LabelCatalog, error)
	Search(ctx context.Context, query, searchType string, limit int) (*shared.SearchResults, error)

	// GetFileURL returns a signed stream URL for a track in the given quality
	GetFileURL(ctx context.Context, trackID string, quality int) (*shared.FileURL, error)

	// DownloadCover downloads cover art and returns the image data
	DownloadCover(ctx context.Context, coverURL string) ([]byte, error)

	HTTPClient() *http.Client
}

// ResolverService turns links into downloadable content
type ResolverService interface {
	Resolve(ctx context.Context, rawURL string) (*resolver.Content, error)
}

// DownloadService defines the interface for download operations
type DownloadService interface {
	// DownloadContent downloads everything a resolved link points at
	DownloadContent(ctx context.Context, content *resolver.Content) (*shared.DownloadStats, error)
}

// NavidromeService defines the interface for Navidrome integration
type NavidromeService interface {
	Authenticate() error
	SyncPlaylist(name string, tracks []navidrome.TrackRef) (int, []navidrome.TrackRef, error)
}

// UpdaterService defines the interface for application updates
type UpdaterService interface {
	Latest(ctx context.Context) (*shared.UpdateInfo, error)
	CheckForUpdates(ctx context.Context, current string) (bool, error)
}

// FileSystemService defines the interface for file system operations
type FileSystemService interface {
	// EnsureDirectoryExists creates a directory if it doesn't exist
	EnsureDirectoryExists(path string) error

	// GetDownloadPath builds the output path for a track from the naming masks
	GetDownloadPath(meta downloader.TrackMetadata, releaseType string) string

	// FileExists checks if a file exists
	FileExists(path string) bool

	// ValidateDownloadLocation checks if the download location is accessible
	ValidateDownloadLocation(path string) error
}

// LoggerService defines the interface for logging operations
type LoggerService interface {
	// Info logs an informational message
	Info(message string, args ...interface{})

	// Warning logs a warning message
	Warning(message string, args ...interface{})

	// Error logs an error message
	Error(message string, args ...interface{})

	// Debug logs a debug message
	Debug(message string, args ...interface{})

	// Success logs a success message
	Success(message string, args ...interface{})

	// SetDebugMode enables or disables debug logging
	SetDebugMode(enabled bool)
}
