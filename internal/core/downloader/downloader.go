package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/shared"
)

// Catalog is the part of the Qobuz client the downloader needs.
type Catalog interface {
	GetFileURL(ctx context.Context, trackID string, quality int) (*shared.FileURL, error)
	HTTPClient() *http.Client
}

// Options tune a Downloader.
type Options struct {
	Quality    int
	MaxRetries int
	Verify     bool
	Thumbnail  bool // also save the album thumbnail next to the track
	Debug      bool
}

// Downloader fetches tracks to disk and tags them.
type Downloader struct {
	catalog  Catalog
	opts     Options
	warnings *shared.WarningCollector
}

// Result describes a finished track.
type Result struct {
	Path      string
	ThumbPath string
	Metadata  TrackMetadata
	File      *shared.FileURL
}

// New creates a Downloader. warnings may be nil.
func New(catalog Catalog, opts Options, warnings *shared.WarningCollector) *Downloader {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = shared.DefaultMaxRetries
	}
	if !qobuz.ValidQuality(opts.Quality) {
		opts.Quality = qobuz.QualityHiRes192
	}
	return &Downloader{catalog: catalog, opts: opts, warnings: warnings}
}

// Quality is the format id requested for every track.
func (d *Downloader) Quality() int {
	return d.opts.Quality
}

// Extension is the extension of downloaded files.
func (d *Downloader) Extension() string {
	return qobuz.Extension(d.opts.Quality)
}

// DownloadTrack downloads track to outputPath, tags it with album data and
// cover, and measures its duration. Unavailable tracks return
// shared.ErrTrackUnavailable and are recorded as warnings.
func (d *Downloader) DownloadTrack(ctx context.Context, track shared.Track, album *shared.Album, outputPath string, coverData []byte, bar *pb.ProgressBar) (*Result, error) {
	trackID := shared.IdToString(track.ID)
	file, err := d.catalog.GetFileURL(ctx, trackID, d.opts.Quality)
	if err != nil {
		if errors.Is(err, shared.ErrTrackUnavailable) && d.warnings != nil {
			d.warnings.AddTrackUnavailableWarning(track.Title, trackID, "no full-length stream")
		}
		return nil, err
	}

	if err := d.fetchToFile(ctx, file.URL, outputPath, bar); err != nil {
		return nil, err
	}

	meta := BuildMetadata(track, album, d.Extension())
	if err := WriteTags(outputPath, meta, coverData, d.warnings); err != nil {
		return nil, fmt.Errorf("failed to add metadata: %w", err)
	}
	if seconds, err := ReadDuration(outputPath); err == nil && seconds > 0 {
		meta.Duration = seconds
	}

	result := &Result{Path: outputPath, Metadata: meta, File: file}
	if d.opts.Thumbnail && meta.ThumbnailURL != "" {
		thumbPath := outputPath + "_thumbnail.jpg"
		if err := d.fetchToFile(ctx, meta.ThumbnailURL, thumbPath, nil); err != nil {
			if d.warnings != nil {
				d.warnings.AddCoverArtDownloadWarning(meta.Album, err.Error())
			}
		} else {
			result.ThumbPath = thumbPath
		}
	}
	return result, nil
}

// fetchToFile streams url into outputPath, retrying incomplete transfers.
func (d *Downloader) fetchToFile(ctx context.Context, url, outputPath string, bar *pb.ProgressBar) error {
	var expectedFileSize int64

	err := shared.RetryWithBackoff(ctx, d.opts.MaxRetries, 2*time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", shared.UserAgent)

		resp, err := d.catalog.HTTPClient().Do(req)
		if err != nil {
			return fmt.Errorf("failed to download audio: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &shared.HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
		}

		expectedFileSize = resp.ContentLength
		body := io.Reader(resp.Body)
		if bar != nil {
			if resp.ContentLength <= 0 {
				bar.Set("indeterminate", true)
			} else {
				bar.SetTotal(resp.ContentLength)
			}
			body = bar.NewProxyReader(resp.Body)
		}

		if _, err := shared.CreateDirIfNotExists(filepath.Dir(outputPath)); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()

		written, err := io.Copy(out, body)
		if err != nil {
			os.Remove(outputPath)
			return fmt.Errorf("failed to write audio file: %w", err)
		}
		if expectedFileSize > 0 && written != expectedFileSize {
			os.Remove(outputPath)
			return fmt.Errorf("incomplete download: expected %d bytes, got %d bytes", expectedFileSize, written)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !shared.FileExists(outputPath) {
		return fmt.Errorf("download completed but file not found on disk: %s", outputPath)
	}
	if d.opts.Verify {
		if err := shared.VerifyFileIntegrity(outputPath, expectedFileSize); err != nil {
			os.Remove(outputPath)
			return fmt.Errorf("post-download verification failed: %w", err)
		}
	}
	return nil
}
