package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	version "github.com/hashicorp/go-version"

	"qobuz-relay/internal/shared"
)

// DefaultRepo hosts version/version.json on its main branch.
const DefaultRepo = "qobuz-relay/qobuz-relay"

// Checker compares the running version with the published one.
type Checker struct {
	Repo    string
	BaseURL string // raw content host, overridable in tests
	Client  *http.Client
}

// NewChecker returns a Checker for repo, or DefaultRepo when repo is empty.
func NewChecker(repo string, client *http.Client) *Checker {
	if repo == "" {
		repo = DefaultRepo
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{Repo: repo, BaseURL: "https://raw.githubusercontent.com", Client: client}
}

// Latest fetches the published version.
func (c *Checker) Latest(ctx context.Context) (*shared.UpdateInfo, error) {
	rawURL := fmt.Sprintf("%s/%s/main/version/version.json", strings.TrimSuffix(c.BaseURL, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error checking for updates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &shared.HTTPError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	var remote shared.VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("error decoding remote version.json: %w", err)
	}
	return &shared.UpdateInfo{
		Version:     remote.Version,
		DownloadURL: fmt.Sprintf("https://github.com/%s/releases/latest", c.Repo),
	}, nil
}

// CheckForUpdates prints whether a newer version than current is published.
func (c *Checker) CheckForUpdates(ctx context.Context, current string) (bool, error) {
	latest, err := c.Latest(ctx)
	if err != nil {
		return false, err
	}

	newer, err := IsNewerVersion(latest.Version, current)
	if err != nil {
		return false, err
	}
	if newer {
		shared.ColorWarning.Printf("🚨 You are using an outdated version (%s) of qobuz-relay! A new version (%s) is available.\n", current, latest.Version)
		shared.ColorInfo.Printf("Download it from %s\n", latest.DownloadURL)
	} else {
		shared.ColorSuccess.Println("✅ You are running the latest version of qobuz-relay.")
	}
	return newer, nil
}

// IsNewerVersion compares two versions using semantic versioning
func IsNewerVersion(latest, current string) (bool, error) {
	vLatest, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("error parsing latest version '%s': %w", latest, err)
	}
	vCurrent, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("error parsing current version '%s': %w", current, err)
	}
	return vLatest.GreaterThan(vCurrent), nil
}
