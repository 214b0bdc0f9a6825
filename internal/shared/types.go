package shared

import "fmt"

// VersionInfo represents the structure of our version.json file
type VersionInfo struct {
	Version string `json:"version"`
}

// ArtistRef is the artist credit attached to albums and tracks.
type ArtistRef struct {
	ID   interface{} `json:"id,omitempty"`
	Name string      `json:"name"`
}

// Image holds the cover URLs Qobuz returns for an album
type Image struct {
	Large     string `json:"large,omitempty"`
	Small     string `json:"small,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type Genre struct {
	Name string `json:"name"`
}

type Label struct {
	ID   interface{} `json:"id,omitempty"`
	Name string      `json:"name"`
}

// Album is a catalog album descriptor. The quality and artist fields are
// pointers so a record missing them can be told apart from a zero value.
type Album struct {
	ID                  interface{} `json:"id"`
	Title               string      `json:"title"`
	Version             string      `json:"version,omitempty"`
	MaximumBitDepth     *int        `json:"maximum_bit_depth"`
	MaximumSamplingRate *float64    `json:"maximum_sampling_rate"`
	Artist              *ArtistRef  `json:"artist"`
	Image               Image       `json:"image"`
	TracksCount         int         `json:"tracks_count,omitempty"`
	MediaCount          int         `json:"media_count,omitempty"`
	ReleaseDateOriginal string      `json:"release_date_original,omitempty"`
	ReleaseType         string      `json:"release_type,omitempty"`
	Streamable          bool        `json:"streamable"`
	Genre               *Genre      `json:"genre,omitempty"`
	Label               *Label      `json:"label,omitempty"`
	UPC                 string      `json:"upc,omitempty"`
	Copyright           string      `json:"copyright,omitempty"`
	Tracks              *TrackPage  `json:"tracks,omitempty"`
}

// ArtistName returns the credited artist name, or "" when the credit is missing.
func (a Album) ArtistName() string {
	if a.Artist == nil {
		return ""
	}
	return a.Artist.Name
}

// FullTitle joins title and version the way Qobuz displays them.
func (a Album) FullTitle() string {
	if a.Version == "" {
		return a.Title
	}
	return a.Title + " (" + a.Version + ")"
}

// Track is a catalog track descriptor
type Track struct {
	ID                  interface{} `json:"id"`
	Title               string      `json:"title"`
	Version             string      `json:"version,omitempty"`
	Performers          string      `json:"performers,omitempty"`
	Performer           *ArtistRef  `json:"performer,omitempty"`
	Composer            *ArtistRef  `json:"composer,omitempty"`
	ISRC                string      `json:"isrc,omitempty"`
	TrackNumber         int         `json:"track_number"`
	MediaNumber         int         `json:"media_number"`
	Duration            int         `json:"duration"`
	Copyright           string      `json:"copyright,omitempty"`
	Streamable          bool        `json:"streamable"`
	MaximumBitDepth     *int        `json:"maximum_bit_depth,omitempty"`
	MaximumSamplingRate *float64    `json:"maximum_sampling_rate,omitempty"`
	Album               *Album      `json:"album,omitempty"`
}

// FullTitle joins title and version the way Qobuz displays them.
func (t Track) FullTitle() string {
	if t.Version == "" {
		return t.Title
	}
	return t.Title + " (" + t.Version + ")"
}

// TrackPage and AlbumPage are the paginated containers used by the API.
type TrackPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

type AlbumPage struct {
	Items  []Album `json:"items"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

type ArtistPage struct {
	Items  []ArtistRef `json:"items"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// ArtistCatalog is one requested artist together with every album listed
// under that artist, in API order.
type ArtistCatalog struct {
	ID     interface{} `json:"id"`
	Name   string      `json:"name"`
	Albums []Album     `json:"albums"`
}

// Validate checks that the catalog can be filtered: it names the requested
// artist, holds at least one album and every album has a title, both quality
// fields and a credited artist.
func (c ArtistCatalog) Validate() error {
	if c.Name == "" {
		return &MalformedRecordError{Index: -1, Field: "name"}
	}
	if len(c.Albums) == 0 {
		return fmt.Errorf("artist %q has no albums: %w", c.Name, ErrMalformedCatalog)
	}
	for i, a := range c.Albums {
		var field string
		switch {
		case a.Title == "":
			field = "title"
		case a.MaximumBitDepth == nil:
			field = "maximum_bit_depth"
		case a.MaximumSamplingRate == nil:
			field = "maximum_sampling_rate"
		case a.Artist == nil || a.Artist.Name == "":
			field = "artist.name"
		default:
			continue
		}
		return &MalformedRecordError{Index: i, Title: a.Title, Field: field}
	}
	return nil
}

// LabelCatalog is a label with every album it lists.
type LabelCatalog struct {
	ID     interface{} `json:"id"`
	Name   string      `json:"name"`
	Albums []Album     `json:"albums"`
}

// Playlist is a user or editorial playlist with its tracks merged across pages.
type Playlist struct {
	ID          interface{} `json:"id"`
	Name        string      `json:"name"`
	Owner       *ArtistRef  `json:"owner,omitempty"`
	TracksCount int         `json:"tracks_count"`
	Tracks      []Track     `json:"tracks"`
}

// Restriction is attached to file URL responses when the requested format is
// not what was delivered.
type Restriction struct {
	Code string `json:"code"`
}

// FileURL is the track/getFileUrl response
type FileURL struct {
	URL          string        `json:"url"`
	FormatID     int           `json:"format_id"`
	MimeType     string        `json:"mime_type"`
	BitDepth     int           `json:"bit_depth"`
	SamplingRate float64       `json:"sampling_rate"`
	Sample       bool          `json:"sample"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
}

type SearchResults struct {
	Artists []ArtistRef `json:"artists"`
	Albums  []Album     `json:"albums"`
	Tracks  []Track     `json:"tracks"`
}

// Query parameter structure
type QueryParam struct {
	Name  string
	Value string
}

// Download statistics
type DownloadStats struct {
	SuccessCount int
	SkippedCount int
	FailedCount  int
	FailedItems  []string
	Completed    []CompletedTrack
}

// CompletedTrack is a track written to disk during a run.
type CompletedTrack struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// Merge folds other into s.
func (s *DownloadStats) Merge(other *DownloadStats) {
	if other == nil {
		return
	}
	s.SuccessCount += other.SuccessCount
	s.SkippedCount += other.SkippedCount
	s.FailedCount += other.FailedCount
	s.FailedItems = append(s.FailedItems, other.FailedItems...)
	s.Completed = append(s.Completed, other.Completed...)
}

// SpotifyTrack is the part of a Spotify item used to find it on Qobuz
type SpotifyTrack struct {
	Name      string
	Artist    string
	AlbumName string
}

// Update types
type UpdateInfo struct {
	Version     string
	DownloadURL string
}

// TrackError holds information about a failed track download
type TrackError struct {
	Title string
	Err   error
}
