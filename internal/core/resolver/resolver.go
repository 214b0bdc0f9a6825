// Package resolver turns user supplied links into the albums and tracks to
// download.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
	"golang.org/x/sync/errgroup"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/api/spotify"
	"qobuz-relay/internal/core/discography"
	"qobuz-relay/internal/shared"
)

// MatchThreshold is the Jaro-Winkler score a search hit needs to stand in
// for a Spotify track.
const MatchThreshold = 0.85

// Catalog is the part of the Qobuz client the resolver reads from.
type Catalog interface {
	GetAlbum(ctx context.Context, albumID string) (*shared.Album, error)
	GetTrack(ctx context.Context, trackID string) (*shared.Track, error)
	GetArtistCatalog(ctx context.Context, artistID string) (*shared.ArtistCatalog, error)
	GetPlaylist(ctx context.Context, playlistID string) (*shared.Playlist, error)
	GetLabel(ctx context.Context, labelID string) (*shared.LabelCatalog, error)
	Search(ctx context.Context, query, searchType string, limit int) (*shared.SearchResults, error)
}

// TrackSource looks up tracks behind a foreign link.
type TrackSource interface {
	Configured() bool
	Resolve(ctx context.Context, rawURL string) ([]shared.SpotifyTrack, string, error)
}

// Options control artist resolution.
type Options struct {
	SmartDiscography bool
	SaveSpace        bool
	SkipExtras       bool
}

// Content is what a link resolves to. Albums hold listing stubs (id, title,
// quality); Tracks hold tracks whose album may still need fetching.
type Content struct {
	Kind   qobuz.Kind
	ID     string
	Name   string
	Albums []shared.Album
	Tracks []shared.Track
}

// Resolver resolves links against the catalog.
type Resolver struct {
	catalog  Catalog
	spotify  TrackSource
	opts     Options
	warnings *shared.WarningCollector
	logf     func(string, ...interface{})
}

// New creates a Resolver. spotify, warnings and logf may be nil.
func New(catalog Catalog, spotify TrackSource, opts Options, warnings *shared.WarningCollector, logf func(string, ...interface{})) *Resolver {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Resolver{catalog: catalog, spotify: spotify, opts: opts, warnings: warnings, logf: logf}
}

// Resolve parses rawURL and loads what it points at.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Content, error) {
	if spotify.IsSpotifyURL(rawURL) {
		return r.resolveSpotify(ctx, rawURL)
	}

	kind, id, err := qobuz.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return r.ResolveID(ctx, kind, id)
}

// ResolveID loads a catalog item by kind and id.
func (r *Resolver) ResolveID(ctx context.Context, kind qobuz.Kind, id string) (*Content, error) {
	content := &Content{Kind: kind, ID: id}
	switch kind {
	case qobuz.KindAlbum:
		content.Albums = []shared.Album{{ID: id}}
	case qobuz.KindTrack:
		content.Tracks = []shared.Track{{ID: id}}
	case qobuz.KindArtist:
		catalog, err := r.catalog.GetArtistCatalog(ctx, id)
		if err != nil {
			return nil, err
		}
		content.Name = catalog.Name
		content.Albums, err = r.artistAlbums(*catalog)
		if err != nil {
			return nil, err
		}
	case qobuz.KindLabel:
		label, err := r.catalog.GetLabel(ctx, id)
		if err != nil {
			return nil, err
		}
		content.Name, content.Albums = label.Name, label.Albums
	case qobuz.KindPlaylist:
		playlist, err := r.catalog.GetPlaylist(ctx, id)
		if err != nil {
			return nil, err
		}
		content.Name, content.Tracks = playlist.Name, playlist.Tracks
	default:
		return nil, fmt.Errorf("%s: %w", kind, shared.ErrUnsupportedURL)
	}
	return content, nil
}

func (r *Resolver) artistAlbums(catalog shared.ArtistCatalog) ([]shared.Album, error) {
	if !r.opts.SmartDiscography {
		return catalog.Albums, nil
	}
	report, err := discography.FilterWithReport(catalog, r.opts.SaveSpace, r.opts.SkipExtras)
	if err != nil {
		return nil, err
	}
	if r.warnings != nil {
		for _, title := range report.Ambiguous {
			r.warnings.AddAmbiguousTitleWarning(catalog.Name, title)
		}
	}
	r.logf("Smart discography kept %d of %d albums for %s", len(report.Albums), len(catalog.Albums), catalog.Name)
	return report.Albums, nil
}

func (r *Resolver) resolveSpotify(ctx context.Context, rawURL string) (*Content, error) {
	if r.spotify == nil || !r.spotify.Configured() {
		return nil, fmt.Errorf("spotify credentials are not configured: %w", shared.ErrUnsupportedURL)
	}
	kind, id, err := spotify.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	items, name, err := r.spotify.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	matches := make([]*shared.Track, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			track, err := r.matchTrack(gctx, item)
			if err != nil {
				return err
			}
			matches[i] = track
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	content := &Content{Kind: qobuz.KindPlaylist, ID: id, Name: name}
	if kind == "track" {
		content.Kind = qobuz.KindTrack
	}
	for i, track := range matches {
		if track == nil {
			if r.warnings != nil {
				r.warnings.AddUnmatchedTrackWarning(items[i].Artist, items[i].Name)
			}
			continue
		}
		content.Tracks = append(content.Tracks, *track)
	}
	return content, nil
}

// matchTrack returns the closest search hit for item, or nil when none
// reaches MatchThreshold.
func (r *Resolver) matchTrack(ctx context.Context, item shared.SpotifyTrack) (*shared.Track, error) {
	query := strings.TrimSpace(item.Artist + " " + item.Name)
	results, err := r.catalog.Search(ctx, query, "track", 5)
	if err != nil {
		return nil, err
	}
	return BestMatch(item, results.Tracks), nil
}

// BestMatch scores candidates against want on "artist title" and returns the
// best one at or above MatchThreshold.
func BestMatch(want shared.SpotifyTrack, candidates []shared.Track) *shared.Track {
	target := normalize(want.Artist + " " + want.Name)
	var best *shared.Track
	bestScore := 0.0
	for i := range candidates {
		c := &candidates[i]
		artist := ""
		if c.Performer != nil {
			artist = c.Performer.Name
		}
		score := smetrics.JaroWinkler(target, normalize(artist+" "+c.Title), 0.7, 4)
		if score >= MatchThreshold && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// AlbumWithTracks fetches the full album record behind a listing stub.
func AlbumWithTracks(ctx context.Context, catalog Catalog, stub shared.Album) (*shared.Album, error) {
	album, err := catalog.GetAlbum(ctx, shared.IdToString(stub.ID))
	if err != nil {
		return nil, err
	}
	if !album.Streamable {
		return album, fmt.Errorf("%s: %w", album.Title, shared.ErrNotStreamable)
	}
	return album, nil
}

// TrackWithAlbum makes sure track carries its album record, fetching the
// track when only an id is known.
func TrackWithAlbum(ctx context.Context, catalog Catalog, track shared.Track) (*shared.Track, error) {
	if track.Album != nil && track.Title != "" {
		return &track, nil
	}
	full, err := catalog.GetTrack(ctx, shared.IdToString(track.ID))
	if err != nil {
		return nil, err
	}
	return full, nil
}
