package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsonparser "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/shared"
)

// EnvPrefix marks environment overrides; "__" separates nested keys.
const EnvPrefix = "QOBUZ_RELAY_"

// ErrMissingSetting is returned by the Validate methods.
var ErrMissingSetting = errors.New("missing required setting")

// NamingOptions defines the configurable naming masks
type NamingOptions struct {
	AlbumFolderMask  string `koanf:"album_folder_mask" json:"album_folder_mask"`
	EpFolderMask     string `koanf:"ep_folder_mask" json:"ep_folder_mask"`
	SingleFolderMask string `koanf:"single_folder_mask" json:"single_folder_mask"`
	FileMask         string `koanf:"file_mask" json:"file_mask"`
}

// GetDefaultNamingMasks returns the default naming masks
func GetDefaultNamingMasks() NamingOptions {
	return NamingOptions{
		AlbumFolderMask:  "{artist}/{artist} - {album} ({year})",
		EpFolderMask:     "{artist}/EPs/{artist} - {album} ({year})",
		SingleFolderMask: "{artist}/Singles/{artist} - {album} ({year})",
		FileMask:         "{track_number} - {artist} - {title}",
	}
}

// ApplyDefaultNamingMasks applies default naming masks to empty fields
func (cfg *Config) ApplyDefaultNamingMasks() {
	defaults := GetDefaultNamingMasks()

	if cfg.Naming.AlbumFolderMask == "" {
		cfg.Naming.AlbumFolderMask = defaults.AlbumFolderMask
	}
	if cfg.Naming.EpFolderMask == "" {
		cfg.Naming.EpFolderMask = defaults.EpFolderMask
	}
	if cfg.Naming.SingleFolderMask == "" {
		cfg.Naming.SingleFolderMask = defaults.SingleFolderMask
	}
	if cfg.Naming.FileMask == "" {
		cfg.Naming.FileMask = defaults.FileMask
	}
}

// Config is the merged configuration of defaults, config.json and environment.
type Config struct {
	APIURL           string `koanf:"api_url" json:"api_url"`
	AppID            string `koanf:"app_id" json:"app_id"`
	AppSecret        string `koanf:"app_secret" json:"app_secret"`
	UserAuthToken    string `koanf:"user_auth_token" json:"user_auth_token"`
	Quality          int    `koanf:"quality" json:"quality"`
	DownloadLocation string `koanf:"download_location" json:"download_location"`
	Parallelism      int    `koanf:"parallelism" json:"parallelism"`

	SmartDiscography bool `koanf:"smart_discography" json:"smart_discography"`
	SaveSpace        bool `koanf:"save_space" json:"save_space"`
	SkipExtras       bool `koanf:"skip_extras" json:"skip_extras"`

	MentionUsers      bool          `koanf:"mention_users" json:"mention_users"`
	BotToken          string        `koanf:"bot_token" json:"bot_token"`
	AllowedChats      []int64       `koanf:"allowed_chats" json:"allowed_chats"`
	RedisAddress      string        `koanf:"redis_address" json:"redis_address"`
	RateLimitRequests int           `koanf:"rate_limit_requests" json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`

	SpotifyClientID     string `koanf:"spotify_client_id" json:"spotify_client_id"`
	SpotifyClientSecret string `koanf:"spotify_client_secret" json:"spotify_client_secret"`
	NavidromeURL        string `koanf:"navidrome_url" json:"navidrome_url"`
	NavidromeUsername   string `koanf:"navidrome_username" json:"navidrome_username"`
	NavidromePassword   string `koanf:"navidrome_password" json:"navidrome_password"`

	Naming             NamingOptions `koanf:"naming" json:"naming"`
	VerifyDownloads    bool          `koanf:"verify_downloads" json:"verify_downloads"`
	MaxRetryAttempts   int           `koanf:"max_retry_attempts" json:"max_retry_attempts"`
	DisableUpdateCheck bool          `koanf:"disable_update_check" json:"disable_update_check"`
	UpdateRepo         string        `koanf:"update_repo" json:"update_repo"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		APIURL:            qobuz.DefaultBaseURL,
		Quality:           qobuz.QualityHiRes192,
		DownloadLocation:  "downloads",
		Parallelism:       5,
		SmartDiscography:  true,
		SaveSpace:         true,
		SkipExtras:        true,
		MentionUsers:      true,
		RateLimitRequests: 5,
		RateLimitWindow:   time.Minute,
		Naming:            GetDefaultNamingMasks(),
		VerifyDownloads:   true,
		MaxRetryAttempts:  shared.DefaultMaxRetries,
	}
}

// Load merges DefaultConfig, the JSON file at path (skipped when it does not
// exist) and QOBUZ_RELAY_* environment variables, in that order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" && shared.FileExists(path) {
		if err := k.Load(file.Provider(path), jsonparser.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// envKey maps QOBUZ_RELAY_NAMING__FILE_MASK to naming.file_mask.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// envValue splits comma separated list keys so "10,-20" decodes into
// allowed_chats.
func envValue(key, value string) (string, interface{}) {
	key = envKey(key)
	if _, ok := listKeys[key]; !ok {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

var listKeys = map[string]struct{}{
	"allowed_chats": {},
}

func (cfg *Config) normalize() {
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		cfg.APIURL = qobuz.DefaultBaseURL
	}
	if !qobuz.ValidQuality(cfg.Quality) {
		cfg.Quality = qobuz.QualityHiRes192
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = shared.DefaultMaxRetries
	}
	cfg.ApplyDefaultNamingMasks()
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := encodeJSON(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if _, err := shared.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// encodeJSON writes durations as strings ("1m0s") so the file stays editable.
func encodeJSON(config *Config) ([]byte, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["rate_limit_window"] = config.RateLimitWindow.String()
	return json.MarshalIndent(fields, "", "  ")
}

// ValidateCatalog checks the credentials every catalog command needs.
func (cfg *Config) ValidateCatalog() error {
	var missing []string
	if cfg.AppID == "" {
		missing = append(missing, "app_id")
	}
	if cfg.UserAuthToken == "" {
		missing = append(missing, "user_auth_token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateBot checks the catalog credentials plus the bot token.
func (cfg *Config) ValidateBot() error {
	if err := cfg.ValidateCatalog(); err != nil {
		return err
	}
	if cfg.BotToken == "" {
		return fmt.Errorf("%w: bot_token", ErrMissingSetting)
	}
	return nil
}

// HasNavidrome reports whether Navidrome playlist sync is configured.
func (cfg *Config) HasNavidrome() bool {
	return cfg.NavidromeURL != "" && cfg.NavidromeUsername != "" && cfg.NavidromePassword != ""
}

// HasSpotify reports whether Spotify link resolution is configured.
func (cfg *Config) HasSpotify() bool {
	return cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != ""
}

// ChatAllowed reports whether the bot may serve chatID.
func (cfg *Config) ChatAllowed(chatID int64) bool {
	if len(cfg.AllowedChats) == 0 {
		return true
	}
	for _, id := range cfg.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}
