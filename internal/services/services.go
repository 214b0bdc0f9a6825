package services

import (
	"context"
	"fmt"
	"net/http"

	"qobuz-relay/internal/api/navidrome"
	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/api/spotify"
	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/downloader"
	"qobuz-relay/internal/core/resolver"
	"qobuz-relay/internal/core/search"
	"qobuz-relay/internal/core/updater"
	"qobuz-relay/internal/interfaces"
	"qobuz-relay/internal/shared"
)

// ServiceContainer holds all application services
type ServiceContainer struct {
	Config           *config.Config
	Catalog          *qobuz.Client
	Resolver         *resolver.Resolver
	Downloader       *downloader.Downloader
	DownloadService  interfaces.DownloadService
	SearchService    *SearchService
	SpotifyService   *spotify.SpotifyClient
	NavidromeService interfaces.NavidromeService // nil unless configured
	UpdaterService   interfaces.UpdaterService
	FileSystem       interfaces.FileSystemService
	Logger           interfaces.LoggerService
	WarningCollector *shared.WarningCollector
}

// NewServiceContainer creates a new service container with all services initialized
func NewServiceContainer(cfg *config.Config, httpClient *http.Client) *ServiceContainer {
	// Create logger first as other services may need it
	logger := NewConsoleLogger()
	warningCollector := shared.NewWarningCollector(true)
	fileSystem := NewFileSystemService(cfg)

	catalog := qobuz.NewClient(cfg.APIURL, qobuz.Credentials{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		UserAuthToken: cfg.UserAuthToken,
	}, httpClient)

	spotifyService := spotify.NewSpotifyClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)

	res := resolver.New(catalog, spotifyService, resolver.Options{
		SmartDiscography: cfg.SmartDiscography,
		SaveSpace:        cfg.SaveSpace,
		SkipExtras:       cfg.SkipExtras,
	}, warningCollector, logger.Debug)

	dl := downloader.New(catalog, downloader.Options{
		Quality:    cfg.Quality,
		MaxRetries: cfg.MaxRetryAttempts,
		Verify:     cfg.VerifyDownloads,
	}, warningCollector)

	container := &ServiceContainer{
		Config:           cfg,
		Catalog:          catalog,
		Resolver:         res,
		Downloader:       dl,
		DownloadService:  NewDownloadService(catalog, dl, fileSystem, logger, warningCollector, cfg.Parallelism),
		SearchService:    NewSearchService(catalog),
		SpotifyService:   spotifyService,
		UpdaterService:   updater.NewChecker(cfg.UpdateRepo, httpClient),
		FileSystem:       fileSystem,
		Logger:           logger,
		WarningCollector: warningCollector,
	}
	if cfg.HasNavidrome() {
		container.NavidromeService = navidrome.NewNavidromeClient(cfg.NavidromeURL, cfg.NavidromeUsername, cfg.NavidromePassword, httpClient, logger.Debug)
	}
	return container
}

// SearchService implementation
type SearchService struct {
	catalog search.Searcher
}

func NewSearchService(catalog search.Searcher) *SearchService {
	return &SearchService{catalog: catalog}
}

// HandleSearch performs a search and handles user interaction for selection
func (ss *SearchService) HandleSearch(ctx context.Context, query, searchType string, auto bool) ([]search.Selection, error) {
	return search.HandleSearch(ctx, ss.catalog, query, searchType, auto, nil)
}

// SyncNavidromePlaylist adds the tracks completed in stats to playlist name.
func (sc *ServiceContainer) SyncNavidromePlaylist(name string, stats *shared.DownloadStats) error {
	if sc.NavidromeService == nil {
		return fmt.Errorf("navidrome is not configured")
	}
	if len(stats.Completed) == 0 {
		return nil
	}
	if err := sc.NavidromeService.Authenticate(); err != nil {
		return fmt.Errorf("navidrome login failed: %w", err)
	}

	refs := make([]navidrome.TrackRef, 0, len(stats.Completed))
	for _, t := range stats.Completed {
		refs = append(refs, navidrome.TrackRef{Title: t.Title, Artist: t.Artist, Album: t.Album})
	}
	added, missing, err := sc.NavidromeService.SyncPlaylist(name, refs)
	for _, m := range missing {
		sc.WarningCollector.AddNavidromeMatchWarning(m.Artist, m.Title)
	}
	if err != nil {
		return err
	}
	sc.Logger.Success("Added %d tracks to Navidrome playlist %s", added, name)
	return nil
}
