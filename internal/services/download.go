package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"qobuz-relay/internal/core/downloader"
	"qobuz-relay/internal/core/resolver"
	"qobuz-relay/internal/interfaces"
	"qobuz-relay/internal/shared"
)

// DownloadService writes resolved content to the download location.
type DownloadService struct {
	catalog          interfaces.CatalogClient
	downloader       *downloader.Downloader
	fileSystem       interfaces.FileSystemService
	logger           interfaces.LoggerService
	warningCollector *shared.WarningCollector
	parallelism      int
}

func NewDownloadService(catalog interfaces.CatalogClient, dl *downloader.Downloader, fileSystem interfaces.FileSystemService, logger interfaces.LoggerService, warningCollector *shared.WarningCollector, parallelism int) *DownloadService {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &DownloadService{
		catalog:          catalog,
		downloader:       dl,
		fileSystem:       fileSystem,
		logger:           logger,
		warningCollector: warningCollector,
		parallelism:      parallelism,
	}
}

// DownloadContent downloads the albums, then the loose tracks, of content.
// Album metadata is fetched up front, parallelism requests at a time.
func (ds *DownloadService) DownloadContent(ctx context.Context, content *resolver.Content) (*shared.DownloadStats, error) {
	totalStats := &shared.DownloadStats{}

	albums, errs := ds.prefetchAlbums(ctx, content.Albums)
	for idx, stub := range content.Albums {
		if err := ctx.Err(); err != nil {
			return totalStats, err
		}
		if len(content.Albums) > 1 {
			ds.logger.Info("🎵 Downloading album %d/%d: %s", idx+1, len(content.Albums), stub.FullTitle())
		}
		if errs[idx] != nil {
			ds.logger.Error("Failed to download album %s: %v", stub.FullTitle(), errs[idx])
			totalStats.FailedCount++
			totalStats.FailedItems = append(totalStats.FailedItems, fmt.Sprintf("%s: %v", stub.FullTitle(), errs[idx]))
			continue
		}
		album := albums[idx]
		var tracks []shared.Track
		if album.Tracks != nil {
			tracks = album.Tracks.Items
		}
		totalStats.Merge(ds.downloadTracks(ctx, tracks, album, ds.fetchCover(ctx, album)))
	}

	covers := make(map[string][]byte)
	for _, stub := range content.Tracks {
		if err := ctx.Err(); err != nil {
			return totalStats, err
		}
		track, err := resolver.TrackWithAlbum(ctx, ds.catalog, stub)
		if err != nil {
			ds.logger.Error("Failed to get track %s: %v", shared.IdToString(stub.ID), err)
			totalStats.FailedCount++
			totalStats.FailedItems = append(totalStats.FailedItems, fmt.Sprintf("%s: %v", shared.IdToString(stub.ID), err))
			continue
		}

		var coverData []byte
		if track.Album != nil && track.Album.Image.Large != "" {
			url := track.Album.Image.Large
			if _, ok := covers[url]; !ok {
				covers[url] = ds.fetchCover(ctx, track.Album)
			}
			coverData = covers[url]
		}
		totalStats.Merge(ds.downloadTracks(ctx, []shared.Track{*track}, track.Album, coverData))
	}
	return totalStats, nil
}

func (ds *DownloadService) prefetchAlbums(ctx context.Context, stubs []shared.Album) ([]*shared.Album, []error) {
	albums := make([]*shared.Album, len(stubs))
	errs := make([]error, len(stubs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ds.parallelism)
	for i, stub := range stubs {
		i, stub := i, stub
		g.Go(func() error {
			album, err := resolver.AlbumWithTracks(gctx, ds.catalog, stub)
			if err != nil {
				errs[i] = fmt.Errorf("failed to get album: %w", err)
				return nil
			}
			albums[i] = album
			return nil
		})
	}
	g.Wait()
	return albums, errs
}

func (ds *DownloadService) fetchCover(ctx context.Context, album *shared.Album) []byte {
	if album == nil || album.Image.Large == "" {
		return nil
	}
	coverData, err := ds.catalog.DownloadCover(ctx, album.Image.Large)
	if err != nil {
		ds.warningCollector.AddCoverArtDownloadWarning(album.FullTitle(), err.Error())
		return nil
	}
	return coverData
}

func (ds *DownloadService) downloadTracks(ctx context.Context, tracks []shared.Track, album *shared.Album, coverData []byte) *shared.DownloadStats {
	stats := &shared.DownloadStats{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(ds.parallelism))

	var pool *pb.Pool
	if shared.IsTTY() {
		var err error
		if pool, err = pb.StartPool(); err != nil {
			ds.logger.Debug("Failed to start progress bar pool: %v", err)
			pool = nil
		}
	}

	for idx, track := range tracks {
		releaseType := ""
		if album != nil {
			releaseType = album.ReleaseType
		}
		meta := downloader.BuildMetadata(track, album, ds.downloader.Extension())
		if meta.TrackNumber == 0 {
			meta.TrackNumber = idx + 1
		}
		outputPath := ds.fileSystem.GetDownloadPath(meta, releaseType)

		if ds.fileSystem.FileExists(outputPath) {
			ds.warningCollector.AddTrackSkippedWarning(outputPath)
			mu.Lock()
			stats.SkippedCount++
			mu.Unlock()
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			ds.logger.Error("Failed to acquire semaphore: %v", err)
			break
		}
		wg.Add(1)

		var bar *pb.ProgressBar
		if pool != nil {
			bar = pb.New(0)
			bar.SetTemplateString(`{{ string . "prefix" }} {{ bar . }} {{ percent . }} | {{ speed . "%s/s" }} | ETA {{ rtime . "%s" }}`)
			bar.Set("prefix", fmt.Sprintf("Track %-2d: %-40s", meta.TrackNumber, shared.TruncateString(meta.Title, 40)))
			pool.Add(bar)
		}

		go func(track shared.Track, outputPath string, bar *pb.ProgressBar) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := ds.downloader.DownloadTrack(ctx, track, album, outputPath, coverData, bar)
			if bar != nil {
				bar.Finish()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.FailedCount++
				stats.FailedItems = append(stats.FailedItems, fmt.Sprintf("%s: %v", track.FullTitle(), err))
				return
			}
			stats.SuccessCount++
			stats.Completed = append(stats.Completed, shared.CompletedTrack{
				Path:   result.Path,
				Title:  result.Metadata.Title,
				Artist: result.Metadata.Artist,
				Album:  result.Metadata.Album,
			})
		}(track, outputPath, bar)
	}

	wg.Wait()
	if pool != nil {
		pool.Stop()
	}
	return stats
}
