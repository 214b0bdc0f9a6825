package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/downloader"
	"qobuz-relay/internal/shared"
)

// FileSystemService lays out downloads with the configured naming masks.
type FileSystemService struct {
	root   string
	naming config.NamingOptions
}

func NewFileSystemService(cfg *config.Config) *FileSystemService {
	cfg.ApplyDefaultNamingMasks()
	return &FileSystemService{root: cfg.DownloadLocation, naming: cfg.Naming}
}

func (fss *FileSystemService) EnsureDirectoryExists(path string) error {
	_, err := shared.CreateDirIfNotExists(path)
	return err
}

func (fss *FileSystemService) FileExists(path string) bool {
	return shared.FileExists(path)
}

func (fss *FileSystemService) ValidateDownloadLocation(path string) error {
	// Check if directory exists, create if it doesn't
	if err := fss.EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("cannot create download directory: %w", err)
	}

	// Test write permissions
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("download directory is not writable: %w", err)
	}
	os.Remove(testFile)
	return nil
}

// ProcessNamingMask fills a naming mask template with track metadata
func ProcessNamingMask(mask string, meta downloader.TrackMetadata) string {
	artist := meta.Artist
	if artist == "" {
		artist = meta.AlbumArtist
	}
	albumArtist := meta.AlbumArtist
	if albumArtist == "" {
		albumArtist = artist
	}
	r := strings.NewReplacer(
		"{title}", meta.Title,
		"{artist}", artist,
		"{album_artist}", albumArtist,
		"{album}", meta.Album,
		"{year}", meta.Year(),
		"{track_number}", fmt.Sprintf("%02d", meta.TrackNumber),
		"{disc_number}", fmt.Sprintf("%d", meta.DiscNumber),
	)
	return r.Replace(mask)
}

// GetDownloadPath generates the full download path using naming masks and track metadata
func (fss *FileSystemService) GetDownloadPath(meta downloader.TrackMetadata, releaseType string) string {
	var folderMask string
	switch strings.ToLower(releaseType) {
	case "ep", "epmini":
		folderMask = fss.naming.EpFolderMask
	case "single":
		folderMask = fss.naming.SingleFolderMask
	default:
		folderMask = fss.naming.AlbumFolderMask
	}

	// Folder masks keep "/" as separator, every component is sanitized on its own
	parts := strings.Split(ProcessNamingMask(folderMask, meta), "/")
	for i, part := range parts {
		parts[i] = shared.SanitizeFileName(part)
	}

	fileName := shared.SanitizeFileName(ProcessNamingMask(fss.naming.FileMask, meta)) + "." + meta.Extension
	return filepath.Join(append(append([]string{fss.root}, parts...), fileName)...)
}
