package qobuz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qobuz-relay/internal/shared"
)

// DefaultBaseURL is the public Qobuz JSON API.
const DefaultBaseURL = "https://www.qobuz.com/api.json/0.2"

// Constants for retry and rate limiting configuration
const (
	defaultRateLimit       = 250 * time.Millisecond // 4 req/sec
	defaultBurstLimit      = 8
	conservativeRateLimit  = 500 * time.Millisecond // 2 req/sec
	conservativeBurstLimit = 4

	maxRetries         = 5
	baseRetryDelay     = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	rateLimitThreshold = 10 // Adjust rate limit after this many consecutive 429s

	pageLimit = 500
)

// Fibonacci sequence for backoff delays
var fibonacciSequence = []int{1, 2, 3, 5, 8, 13, 21, 34}

// Credentials identify the application and the account.
type Credentials struct {
	AppID         string
	AppSecret     string
	UserAuthToken string
}

// Client talks to the Qobuz catalog API. One Client is shared by every
// component; it is safe for concurrent use.
type Client struct {
	endpoint    string
	creds       Credentials
	client      *http.Client
	retryDelay  time.Duration
	mu          sync.Mutex
	rateLimiter *rate.Limiter
	limitHits   int
	now         func() time.Time
}

// NewClient creates a client. An empty endpoint selects DefaultBaseURL and a
// nil httpClient selects a client with a 30 second timeout.
func NewClient(endpoint string, creds Credentials, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		creds:       creds,
		client:      httpClient,
		retryDelay:  baseRetryDelay,
		rateLimiter: rate.NewLimiter(rate.Every(defaultRateLimit), defaultBurstLimit),
		now:         time.Now,
	}
}

// HTTPClient exposes the underlying client for file downloads.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// Request calls an API method (e.g. "album/get") and returns the raw
// response. Non-200 statuses are returned as *shared.HTTPError.
func (c *Client) Request(ctx context.Context, method string, params []shared.QueryParam) (*http.Response, error) {
	if err := c.limiter().Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	u, err := c.buildURL(method, params)
	if err != nil {
		return nil, err
	}
	return c.requestWithRetry(ctx, u.String())
}

// ============================================================================
// CORE HTTP METHODS (Private)
// ============================================================================

func (c *Client) buildURL(method string, params []shared.QueryParam) (*url.URL, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s", c.endpoint, strings.TrimPrefix(method, "/")))
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for _, param := range params {
			q.Add(param.Name, param.Value)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func (c *Client) getJSON(ctx context.Context, method string, params []shared.QueryParam, out interface{}) error {
	resp, err := c.Request(ctx, method, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// fibonacciDelay calculates delay using Fibonacci sequence for more gradual backoff
func fibonacciDelay(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 0 {
		return baseDelay
	}
	if attempt >= len(fibonacciSequence) {
		attempt = len(fibonacciSequence) - 1
	}
	delay := baseDelay * time.Duration(fibonacciSequence[attempt])
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// addJitter adds up to 25% random jitter
func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}

func (c *Client) limiter() *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimiter
}

func (c *Client) resetRateLimitCounters() {
	c.mu.Lock()
	c.limitHits = 0
	c.mu.Unlock()
}

// trackRateLimitHit counts a 429 and reports whether the limiter should be slowed down
func (c *Client) trackRateLimitHit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limitHits++
	return c.limitHits > rateLimitThreshold
}

// requestWithRetry retries network failures and retryable statuses with
// Fibonacci backoff. Other statuses fail immediately.
func (c *Client) requestWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	consecutiveRateLimits := 0

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.executeRequest(ctx, rawURL)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusOK {
			c.resetRateLimitCounters()
			return resp, nil
		} else {
			lastErr = statusError(resp)
			if !shared.IsRetryableHTTPError(lastErr) {
				return nil, lastErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				consecutiveRateLimits++
				if c.trackRateLimitHit() {
					c.AdjustRateLimitForOverload()
				}
			}
		}

		if attempt == maxRetries-1 {
			break
		}
		delay := fibonacciDelay(attempt, c.retryDelay)
		if consecutiveRateLimits > 2 {
			delay *= time.Duration(consecutiveRateLimits)
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
		delay = addJitter(delay)
		if consecutiveRateLimits > 0 {
			shared.ColorWarning.Printf("⚠️ Rate limit hit (429), retrying in %v (attempt %d/%d)\n", delay, attempt+1, maxRetries)
		}
		if err := waitWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	if consecutiveRateLimits == maxRetries {
		return nil, fmt.Errorf("rate limit exceeded (429) after %d attempts, try reducing parallelism: %w", maxRetries, lastErr)
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) executeRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", shared.UserAgent)
	req.Header.Set("X-App-Id", c.creds.AppID)
	if c.creds.UserAuthToken != "" {
		req.Header.Set("X-User-Auth-Token", c.creds.UserAuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}
	return resp, nil
}

// statusError drains and closes resp, returning the API's message when it sent one.
func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &shared.HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Message: msg}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// RATE LIMIT MANAGEMENT
// ============================================================================

// AdjustRateLimitForOverload slows the limiter down after repeated 429s.
func (c *Client) AdjustRateLimitForOverload() {
	c.mu.Lock()
	c.rateLimiter = rate.NewLimiter(rate.Every(conservativeRateLimit), conservativeBurstLimit)
	c.mu.Unlock()
	shared.ColorWarning.Println("⚠️ Adjusted rate limit to be more conservative due to server overload")
}

// ============================================================================
// PUBLIC API METHODS
// ============================================================================

// GetAlbum retrieves an album with its track listing.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (*shared.Album, error) {
	var album shared.Album
	err := c.getJSON(ctx, "album/get", []shared.QueryParam{
		{Name: "album_id", Value: albumID},
	}, &album)
	if err != nil {
		return nil, fmt.Errorf("failed to get album %s: %w", albumID, err)
	}
	return &album, nil
}

// GetTrack retrieves a track, including the album it belongs to.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*shared.Track, error) {
	var track shared.Track
	err := c.getJSON(ctx, "track/get", []shared.QueryParam{
		{Name: "track_id", Value: trackID},
	}, &track)
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", trackID, err)
	}
	return &track, nil
}

// GetFileURL asks for a signed stream URL of trackID in the given quality.
func (c *Client) GetFileURL(ctx context.Context, trackID string, quality int) (*shared.FileURL, error) {
	ts := c.now().Unix()
	var file shared.FileURL
	err := c.getJSON(ctx, "track/getFileUrl", []shared.QueryParam{
		{Name: "request_ts", Value: strconv.FormatInt(ts, 10)},
		{Name: "request_sig", Value: fileURLSignature(trackID, quality, ts, c.creds.AppSecret)},
		{Name: "track_id", Value: trackID},
		{Name: "format_id", Value: strconv.Itoa(quality)},
		{Name: "intent", Value: "stream"},
	}, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url for track %s: %w", trackID, err)
	}
	if file.URL == "" || file.Sample {
		return &file, fmt.Errorf("track %s: %w", trackID, shared.ErrTrackUnavailable)
	}
	return &file, nil
}

// GetArtistCatalog fetches an artist and every album page listed under it.
// Records are returned as listed; the discography filter validates them.
func (c *Client) GetArtistCatalog(ctx context.Context, artistID string) (*shared.ArtistCatalog, error) {
	catalog := &shared.ArtistCatalog{}
	for offset := 0; ; {
		var page struct {
			ID     interface{}      `json:"id"`
			Name   string           `json:"name"`
			Albums shared.AlbumPage `json:"albums"`
		}
		err := c.getJSON(ctx, "artist/get", []shared.QueryParam{
			{Name: "artist_id", Value: artistID},
			{Name: "extra", Value: "albums"},
			{Name: "limit", Value: strconv.Itoa(pageLimit)},
			{Name: "offset", Value: strconv.Itoa(offset)},
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to get artist %s: %w", artistID, err)
		}
		if offset == 0 {
			catalog.ID = page.ID
			catalog.Name = page.Name
		}
		catalog.Albums = append(catalog.Albums, page.Albums.Items...)

		offset += len(page.Albums.Items)
		if len(page.Albums.Items) == 0 || offset >= page.Albums.Total {
			break
		}
	}

	return catalog, nil
}

// GetPlaylist fetches a playlist and all of its tracks.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*shared.Playlist, error) {
	playlist := &shared.Playlist{}
	for offset := 0; ; {
		var page struct {
			ID          interface{}       `json:"id"`
			Name        string            `json:"name"`
			Owner       *shared.ArtistRef `json:"owner"`
			TracksCount int               `json:"tracks_count"`
			Tracks      shared.TrackPage  `json:"tracks"`
		}
		err := c.getJSON(ctx, "playlist/get", []shared.QueryParam{
			{Name: "playlist_id", Value: playlistID},
			{Name: "extra", Value: "tracks"},
			{Name: "limit", Value: strconv.Itoa(pageLimit)},
			{Name: "offset", Value: strconv.Itoa(offset)},
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist %s: %w", playlistID, err)
		}
		if offset == 0 {
			playlist.ID, playlist.Name, playlist.Owner, playlist.TracksCount = page.ID, page.Name, page.Owner, page.TracksCount
		}
		playlist.Tracks = append(playlist.Tracks, page.Tracks.Items...)

		offset += len(page.Tracks.Items)
		if len(page.Tracks.Items) == 0 || offset >= page.Tracks.Total {
			break
		}
	}
	return playlist, nil
}

// GetLabel fetches a label and every album it lists.
func (c *Client) GetLabel(ctx context.Context, labelID string) (*shared.LabelCatalog, error) {
	label := &shared.LabelCatalog{}
	for offset := 0; ; {
		var page struct {
			ID     interface{}      `json:"id"`
			Name   string           `json:"name"`
			Albums shared.AlbumPage `json:"albums"`
		}
		err := c.getJSON(ctx, "label/get", []shared.QueryParam{
			{Name: "label_id", Value: labelID},
			{Name: "extra", Value: "albums"},
			{Name: "limit", Value: strconv.Itoa(pageLimit)},
			{Name: "offset", Value: strconv.Itoa(offset)},
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to get label %s: %w", labelID, err)
		}
		if offset == 0 {
			label.ID, label.Name = page.ID, page.Name
		}
		label.Albums = append(label.Albums, page.Albums.Items...)

		offset += len(page.Albums.Items)
		if len(page.Albums.Items) == 0 || offset >= page.Albums.Total {
			break
		}
	}
	return label, nil
}

// Search queries the catalog. searchType is "artist", "album", "track" or
// "all"; the matching sections of the result are filled.
func (c *Client) Search(ctx context.Context, query, searchType string, limit int) (*shared.SearchResults, error) {
	var resp struct {
		Artists shared.ArtistPage `json:"artists"`
		Albums  shared.AlbumPage  `json:"albums"`
		Tracks  shared.TrackPage  `json:"tracks"`
	}
	params := []shared.QueryParam{
		{Name: "query", Value: query},
		{Name: "limit", Value: strconv.Itoa(limit)},
	}
	if searchType != "" && searchType != "all" {
		params = append(params, shared.QueryParam{Name: "type", Value: searchType + "s"})
	}
	if err := c.getJSON(ctx, "catalog/search", params, &resp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := &shared.SearchResults{}
	if searchType == "all" || searchType == "artist" {
		results.Artists = resp.Artists.Items
	}
	if searchType == "all" || searchType == "album" {
		results.Albums = resp.Albums.Items
	}
	if searchType == "all" || searchType == "track" {
		results.Tracks = resp.Tracks.Items
	}
	return results, nil
}

// DownloadCover fetches cover art from the image CDN.
func (c *Client) DownloadCover(ctx context.Context, coverURL string) ([]byte, error) {
	var coverData []byte
	err := shared.RetryWithBackoff(ctx, shared.DefaultMaxRetries, c.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", shared.UserAgent)
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return statusError(resp)
		}
		defer resp.Body.Close()

		coverData, err = io.ReadAll(resp.Body)
		return err
	})
	return coverData, err
}
