package navidrome

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	subsonic "github.com/delucks/go-subsonic"
)

const (
	apiVersion = "1.16.1"
	clientName = "qobuz-relay"
)

// NavidromeClient holds the navidrome client and other required fields
type NavidromeClient struct {
	URL      string
	Username string
	Password string
	Client   subsonic.Client
	Salt     string
	Token    string

	httpClient *http.Client
	logf       func(format string, args ...interface{})
}

// NewNavidromeClient creates a new navidrome client. logf receives progress
// messages and may be nil.
func NewNavidromeClient(serverURL, username, password string, httpClient *http.Client, logf func(string, ...interface{})) *NavidromeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &NavidromeClient{
		URL:        strings.TrimSuffix(serverURL, "/"),
		Username:   username,
		Password:   password,
		httpClient: httpClient,
		logf:       logf,
	}
}

// Authenticate authenticates the client with the navidrome api and prepares
// the salted token used for the raw playlist calls.
func (n *NavidromeClient) Authenticate() error {
	salt, err := newSalt()
	if err != nil {
		return err
	}
	n.Salt = salt
	n.Token = getSaltedPassword(n.Password, n.Salt)

	n.Client = subsonic.Client{
		Client:       n.httpClient,
		BaseUrl:      n.URL,
		User:         n.Username,
		ClientName:   clientName,
		PasswordAuth: true,
	}
	if err := n.Client.Authenticate(n.Password); err != nil {
		return fmt.Errorf("navidrome authentication failed: %w", err)
	}
	return nil
}

// SearchTrack looks a track up, first through its album, then by
// "title artist" and finally by title alone. It returns nil when nothing fits.
func (n *NavidromeClient) SearchTrack(trackName, artistName, albumName string) (*subsonic.Child, error) {
	n.logf("Searching Navidrome for %s - %s (%s)", artistName, trackName, albumName)

	album, err := n.SearchAlbum(albumName, artistName)
	if err != nil {
		n.logf("Album search failed for '%s': %v", albumName, err)
	}
	if album != nil {
		if albumData, err := n.Client.GetAlbum(album.ID); err == nil {
			for _, song := range albumData.Song {
				if strings.EqualFold(song.Title, trackName) {
					return song, nil
				}
			}
		}
	}

	combinedQuery := fmt.Sprintf("%s %s", trackName, artistName)
	searchResult, err := n.Client.Search2(combinedQuery, map[string]string{"songCount": "5"})
	if err != nil {
		n.logf("Combined search failed for '%s': %v", combinedQuery, err)
	}
	if searchResult != nil && len(searchResult.Song) > 0 {
		for _, song := range searchResult.Song {
			if strings.EqualFold(song.Title, trackName) && strings.EqualFold(song.Artist, artistName) {
				return song, nil
			}
		}
		return searchResult.Song[0], nil
	}

	searchResult, err = n.Client.Search2(trackName, map[string]string{"songCount": "10"})
	if err != nil {
		return nil, err
	}
	if searchResult != nil {
		for _, song := range searchResult.Song {
			if strings.EqualFold(song.Artist, artistName) {
				return song, nil
			}
		}
	}
	return nil, nil
}

// SearchAlbum returns the album whose title and artist match exactly, or nil.
func (n *NavidromeClient) SearchAlbum(albumName string, artistName string) (*subsonic.Child, error) {
	searchResult, err := n.Client.Search2(albumName, map[string]string{"albumCount": "5"})
	if err != nil {
		return nil, fmt.Errorf("error searching for album '%s': %w", albumName, err)
	}
	if searchResult == nil {
		return nil, nil
	}
	for _, album := range searchResult.Album {
		if strings.EqualFold(album.Title, albumName) && strings.EqualFold(album.Artist, artistName) {
			return album, nil
		}
	}
	return nil, nil
}

// CreatePlaylist creates a new, empty playlist.
func (n *NavidromeClient) CreatePlaylist(name string) error {
	params := n.authParams()
	params.Set("name", name)
	_, err := n.call("createPlaylist", params)
	return err
}

// AddTracksToPlaylist adds multiple tracks to a playlist in a single call
func (n *NavidromeClient) AddTracksToPlaylist(playlistID string, trackIDs []string) error {
	params := n.authParams()
	params.Set("playlistId", playlistID)
	for _, songID := range trackIDs {
		params.Add("songIdToAdd", songID)
	}
	_, err := n.call("updatePlaylist", params)
	return err
}

// UpdatePlaylistComment sets the playlist description.
func (n *NavidromeClient) UpdatePlaylistComment(playlistID, comment string) error {
	return n.Client.UpdatePlaylist(playlistID, map[string]string{"comment": comment})
}

// GetPlaylistTracks returns the tracks in a playlist
func (n *NavidromeClient) GetPlaylistTracks(playlistID string) ([]*subsonic.Child, error) {
	playlist, err := n.Client.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	return playlist.Entry, nil
}

// SearchPlaylist searches for a playlist by name and returns its ID
func (n *NavidromeClient) SearchPlaylist(playlistName string) (string, error) {
	playlists, err := n.Client.GetPlaylists(map[string]string{})
	if err != nil {
		return "", err
	}
	for _, playlist := range playlists {
		if playlist.Name == playlistName {
			return playlist.ID, nil
		}
	}
	return "", fmt.Errorf("playlist '%s' not found", playlistName)
}

// TrackRef identifies a downloaded track to look up on the server.
type TrackRef struct {
	Title  string
	Artist string
	Album  string
}

// SyncPlaylist makes sure playlist name exists and appends every track found
// on the server, skipping tracks it already holds. Tracks that could not be
// found are returned.
func (n *NavidromeClient) SyncPlaylist(name string, tracks []TrackRef) (int, []TrackRef, error) {
	playlistID, err := n.SearchPlaylist(name)
	if err != nil {
		if err := n.CreatePlaylist(name); err != nil {
			return 0, nil, err
		}
		if playlistID, err = n.SearchPlaylist(name); err != nil {
			return 0, nil, err
		}
		if err := n.UpdatePlaylistComment(playlistID, "Downloaded with qobuz-relay"); err != nil {
			n.logf("Failed to set comment on playlist %s: %v", name, err)
		}
	}

	existing := make(map[string]bool)
	if entries, err := n.GetPlaylistTracks(playlistID); err == nil {
		for _, e := range entries {
			existing[e.ID] = true
		}
	}

	var ids []string
	var missing []TrackRef
	for _, t := range tracks {
		song, err := n.SearchTrack(t.Title, t.Artist, t.Album)
		if err != nil || song == nil {
			missing = append(missing, t)
			continue
		}
		if !existing[song.ID] {
			existing[song.ID] = true
			ids = append(ids, song.ID)
		}
	}
	if len(ids) == 0 {
		return 0, missing, nil
	}
	if err := n.AddTracksToPlaylist(playlistID, ids); err != nil {
		return 0, missing, err
	}
	return len(ids), missing, nil
}

func (n *NavidromeClient) authParams() url.Values {
	params := url.Values{}
	params.Set("u", n.Username)
	params.Set("t", n.Token)
	params.Set("s", n.Salt)
	params.Set("v", apiVersion)
	params.Set("c", clientName)
	params.Set("f", "json")
	return params
}

// call issues a raw REST request. The subsonic library sends one value per
// parameter, which is not enough for songIdToAdd.
func (n *NavidromeClient) call(endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/rest/%s.view?%s", n.URL, endpoint, params.Encode())
	resp, err := n.httpClient.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed: status code %d, body: %s", endpoint, resp.StatusCode, string(body))
	}

	var subsonicResponse struct {
		SubsonicResponse struct {
			Status string `json:"status"`
			Error  struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"subsonic-response"`
	}
	if err := json.Unmarshal(body, &subsonicResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if subsonicResponse.SubsonicResponse.Status == "failed" {
		return nil, fmt.Errorf("%s failed: %s (code %d)", endpoint, subsonicResponse.SubsonicResponse.Error.Message, subsonicResponse.SubsonicResponse.Error.Code)
	}
	return body, nil
}

func newSalt() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// getSaltedPassword returns the salted password for navidrome
func getSaltedPassword(password string, salt string) string {
	hasher := md5.New()
	hasher.Write([]byte(password + salt))
	return hex.EncodeToString(hasher.Sum(nil))
}
