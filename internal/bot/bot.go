// Package bot serves Qobuz and Spotify links sent to a Telegram bot by
// uploading the matching tracks into the chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/api/spotify"
	"qobuz-relay/internal/api/telegram"
	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/caption"
	"qobuz-relay/internal/core/downloader"
	"qobuz-relay/internal/core/resolver"
	"qobuz-relay/internal/interfaces"
	"qobuz-relay/internal/shared"
	"qobuz-relay/internal/storage"
)

const helpText = `<b>qobuz-relay</b>

Send a Qobuz album, track, playlist, artist or label link, or a Spotify track, album or playlist link.

/qobuz &lt;link&gt; works in groups.
/help shows this message.`

// Updates is the long polling side of *tgbotapi.BotAPI.
type Updates interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot relays requested music into Telegram chats.
type Bot struct {
	updates    Updates
	relay      *telegram.Relay
	resolver   interfaces.ResolverService
	catalog    interfaces.CatalogClient
	downloader *downloader.Downloader
	throttle   *storage.Throttle // nil disables throttling
	cfg        *config.Config
	logger     interfaces.LoggerService
	workDir    string

	wg sync.WaitGroup
}

// New wires a Bot. throttle may be nil.
func New(updates Updates, relay *telegram.Relay, res interfaces.ResolverService, catalog interfaces.CatalogClient, throttle *storage.Throttle, cfg *config.Config, logger interfaces.LoggerService, warnings *shared.WarningCollector) *Bot {
	dl := downloader.New(catalog, downloader.Options{
		Quality:    cfg.Quality,
		MaxRetries: cfg.MaxRetryAttempts,
		Verify:     cfg.VerifyDownloads,
		Thumbnail:  true,
	}, warnings)
	return &Bot{
		updates:    updates,
		relay:      relay,
		resolver:   res,
		catalog:    catalog,
		downloader: dl,
		throttle:   throttle,
		cfg:        cfg,
		logger:     logger,
		workDir:    filepath.Join(cfg.DownloadLocation, "relay"),
	}
}

// Run polls for updates until ctx is cancelled, then waits for running
// requests to stop.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := shared.CreateDirIfNotExists(b.workDir); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.updates.GetUpdatesChan(u)
	b.logger.Success("Bot is running")

	for {
		select {
		case <-ctx.Done():
			b.updates.StopReceivingUpdates()
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.HandleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// HandleMessage answers one incoming message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.cfg.ChatAllowed(chatID) {
		b.logger.Debug("Ignoring message from chat %d", chatID)
		return
	}

	var link string
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(msg, helpText)
			return
		case "qobuz":
			link = extractLink(msg.CommandArguments())
			if link == "" {
				b.reply(msg, "Usage: /qobuz &lt;link&gt;")
				return
			}
		default:
			return
		}
	} else {
		link = extractLink(msg.Text)
		if link == "" {
			return
		}
	}

	if msg.From != nil {
		allowed, wait, err := b.throttle.Allow(ctx, msg.From.ID)
		if err != nil {
			b.logger.Warning("Throttle check failed for user %d: %v", msg.From.ID, err)
		} else if !allowed {
			b.reply(msg, fmt.Sprintf("⏱ Too many requests, try again in %s.", wait.Round(time.Second)))
			return
		}
	}

	b.process(ctx, msg, link)
}

// extractLink returns the first Qobuz or Spotify link in text.
func extractLink(text string) string {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http") && (qobuz.IsQobuzURL(field) || spotify.IsSpotifyURL(field)) {
			return field
		}
	}
	return ""
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	if _, err := b.relay.SendText(msg.Chat.ID, msg.MessageID, text); err != nil {
		b.logger.Error("%v", err)
	}
}

// request is the state of one link being served.
type request struct {
	msg     *tgbotapi.Message
	status  int
	mention *caption.User
	name    string
	done    int
	failed  int
	total   int
}

func (b *Bot) process(ctx context.Context, msg *tgbotapi.Message, link string) {
	chatID := msg.Chat.ID
	status, err := b.relay.SendText(chatID, msg.MessageID, "🔎 Looking up your link...")
	if err != nil {
		b.logger.Error("%v", err)
		return
	}

	content, err := b.resolver.Resolve(ctx, link)
	if err != nil {
		b.logger.Warning("Failed to resolve %s: %v", link, err)
		b.edit(chatID, status, "❌ "+html.EscapeString(userError(err)))
		return
	}

	req := &request{msg: msg, status: status, name: content.Name, total: len(content.Tracks)}
	if req.name == "" {
		req.name = string(content.Kind)
	}
	if b.cfg.MentionUsers && msg.From != nil {
		req.mention = &caption.User{ID: msg.From.ID, Name: msg.From.FirstName}
	}

	for _, stub := range content.Albums {
		if ctx.Err() != nil {
			break
		}
		b.sendAlbum(ctx, req, stub)
	}
	for _, stub := range content.Tracks {
		if ctx.Err() != nil {
			break
		}
		track, err := resolver.TrackWithAlbum(ctx, b.catalog, stub)
		if err != nil {
			b.logger.Warning("Failed to get track %s: %v", shared.IdToString(stub.ID), err)
			req.failed++
			continue
		}
		var cover []byte
		if track.Album != nil && track.Album.Image.Large != "" {
			cover, _ = b.catalog.DownloadCover(ctx, track.Album.Image.Large)
		}
		b.sendTrack(ctx, req, *track, track.Album, cover)
	}

	b.edit(chatID, status, caption.Finished(req.name, req.done, req.failed))
}

func (b *Bot) sendAlbum(ctx context.Context, req *request, stub shared.Album) {
	album, err := resolver.AlbumWithTracks(ctx, b.catalog, stub)
	if err != nil {
		b.logger.Warning("Failed to get album %s: %v", shared.IdToString(stub.ID), err)
		if errors.Is(err, shared.ErrNotStreamable) {
			b.reply(req.msg, "❌ "+html.EscapeString(album.FullTitle())+" is not streamable.")
		}
		req.failed++
		return
	}
	var tracks []shared.Track
	if album.Tracks != nil {
		tracks = album.Tracks.Items
	}
	if len(tracks) == 0 {
		return
	}
	req.total += len(tracks)

	label := ""
	if b.downloader.Quality() != qobuz.QualityMP3 {
		if file, err := b.catalog.GetFileURL(ctx, shared.IdToString(tracks[0].ID), b.downloader.Quality()); err == nil {
			label = qobuz.QualityLabel(b.downloader.Quality(), file)
		}
	}
	meta := downloader.BuildMetadata(tracks[0], album, b.downloader.Extension())
	if meta.CoverURL != "" {
		if err := b.relay.SendPhoto(req.msg.Chat.ID, req.msg.MessageID, meta.CoverURL, caption.AlbumDetails(meta, label, req.mention)); err != nil {
			b.logger.Warning("%v", err)
		}
	}

	var cover []byte
	if meta.CoverURL != "" {
		cover, _ = b.catalog.DownloadCover(ctx, meta.CoverURL)
	}
	for _, track := range tracks {
		if ctx.Err() != nil {
			return
		}
		b.sendTrack(ctx, req, track, album, cover)
	}
}

func (b *Bot) sendTrack(ctx context.Context, req *request, track shared.Track, album *shared.Album, cover []byte) {
	chatID := req.msg.Chat.ID
	path := filepath.Join(b.workDir, fmt.Sprintf("%d_%s.%s", chatID, shared.IdToString(track.ID), b.downloader.Extension()))

	result, err := b.downloader.DownloadTrack(ctx, track, album, path, cover, nil)
	if err != nil {
		b.logger.Warning("Failed to download %s: %v", track.FullTitle(), err)
		req.failed++
		return
	}
	defer func() {
		os.Remove(result.Path)
		if result.ThumbPath != "" {
			os.Remove(result.ThumbPath)
		}
	}()

	err = b.relay.SendAudio(chatID, req.msg.MessageID, telegram.Audio{
		Path:      result.Path,
		ThumbPath: result.ThumbPath,
		Caption:   caption.Track(req.mention),
		Performer: result.Metadata.Artist,
		Title:     result.Metadata.Title,
		Duration:  result.Metadata.Duration,
	})
	if err != nil {
		b.logger.Warning("%v", err)
		req.failed++
		return
	}
	req.done++
	b.edit(chatID, req.status, caption.Progress(req.name, req.done, req.total))
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if err := b.relay.EditText(chatID, messageID, text); err != nil {
		b.logger.Debug("%v", err)
	}
}

// userError turns resolver errors into something worth showing in chat.
func userError(err error) string {
	switch {
	case errors.Is(err, shared.ErrUnsupportedURL):
		return "That link is not supported."
	case errors.Is(err, shared.ErrMalformedCatalog):
		return "The artist catalog could not be read."
	default:
		return "Something went wrong, please try again later."
	}
}
