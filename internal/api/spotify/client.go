package spotify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"qobuz-relay/internal/shared"
)

var urlPattern = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-z]{2}/)?(track|album|playlist)/([A-Za-z0-9]+)`)

// ParseURL returns the item kind ("track", "album" or "playlist") and id of
// an open.spotify.com link.
func ParseURL(rawURL string) (string, string, error) {
	m := urlPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", "", fmt.Errorf("%q: %w", rawURL, shared.ErrUnsupportedURL)
	}
	return m[1], m[2], nil
}

// IsSpotifyURL reports whether s is a link ParseURL accepts.
func IsSpotifyURL(s string) bool {
	_, _, err := ParseURL(s)
	return err == nil
}

// SpotifyClient holds the spotify client and other required fields
type SpotifyClient struct {
	client *spotify.Client
	ID     string
	Secret string
}

// NewSpotifyClient creates a new spotify client
func NewSpotifyClient(id, secret string) *SpotifyClient {
	return &SpotifyClient{
		ID:     id,
		Secret: secret,
	}
}

// Configured reports whether credentials were provided.
func (s *SpotifyClient) Configured() bool {
	return s != nil && s.ID != "" && s.Secret != ""
}

// Authenticate authenticates the client with the spotify api
func (s *SpotifyClient) Authenticate(ctx context.Context) error {
	config := &clientcredentials.Config{
		ClientID:     s.ID,
		ClientSecret: s.Secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return fmt.Errorf("spotify authentication failed: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	s.client = spotify.New(httpClient)
	return nil
}

func (s *SpotifyClient) ensureAuthenticated(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	return s.Authenticate(ctx)
}

// Resolve returns the tracks behind a Spotify link and the name of the
// album or playlist (the track name for a single track).
func (s *SpotifyClient) Resolve(ctx context.Context, rawURL string) ([]shared.SpotifyTrack, string, error) {
	kind, id, err := ParseURL(rawURL)
	if err != nil {
		return nil, "", err
	}
	if err := s.ensureAuthenticated(ctx); err != nil {
		return nil, "", err
	}

	switch kind {
	case "track":
		track, err := s.GetTrack(ctx, id)
		if err != nil {
			return nil, "", err
		}
		return []shared.SpotifyTrack{*track}, track.Name, nil
	case "album":
		return s.GetAlbumTracks(ctx, id)
	default:
		return s.GetPlaylistTracks(ctx, id)
	}
}

// GetPlaylistTracks gets the tracks from a spotify playlist
func (s *SpotifyClient) GetPlaylistTracks(ctx context.Context, playlistID string) ([]shared.SpotifyTrack, string, error) {
	playlist, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, "", fmt.Errorf("failed to get spotify playlist: %w", err)
	}

	var tracks []shared.SpotifyTrack
	for _, item := range playlist.Tracks.Tracks {
		tracks = append(tracks, shared.SpotifyTrack{
			Name:      item.Track.Name,
			Artist:    firstArtist(item.Track.Artists),
			AlbumName: item.Track.Album.Name,
		})
	}
	return tracks, playlist.Name, nil
}

// GetAlbumTracks gets the tracks from a spotify album
func (s *SpotifyClient) GetAlbumTracks(ctx context.Context, albumID string) ([]shared.SpotifyTrack, string, error) {
	album, err := s.client.GetAlbum(ctx, spotify.ID(albumID))
	if err != nil {
		return nil, "", fmt.Errorf("failed to get spotify album: %w", err)
	}

	var tracks []shared.SpotifyTrack
	for _, track := range album.Tracks.Tracks {
		tracks = append(tracks, shared.SpotifyTrack{
			Name:      track.Name,
			Artist:    firstArtist(track.Artists),
			AlbumName: album.Name,
		})
	}
	return tracks, album.Name, nil
}

// GetTrack gets a single track
func (s *SpotifyClient) GetTrack(ctx context.Context, trackID string) (*shared.SpotifyTrack, error) {
	track, err := s.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, fmt.Errorf("failed to get spotify track: %w", err)
	}
	return &shared.SpotifyTrack{
		Name:      track.Name,
		Artist:    firstArtist(track.Artists),
		AlbumName: track.Album.Name,
	}, nil
}

func firstArtist(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
