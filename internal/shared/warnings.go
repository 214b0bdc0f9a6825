package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WarningType represents different types of warnings
type WarningType int

const (
	AmbiguousTitleWarning WarningType = iota
	TrackUnavailableWarning
	CoverArtDownloadWarning
	CoverArtMetadataWarning
	AlbumFetchWarning
	TrackSkippedWarning
	NavidromeMatchWarning
	UnmatchedTrackWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // Track/Album context
	Details string
}

// WarningCollector collects warnings during download operations. Album
// workers run in parallel, so every method takes the lock.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	wc.mu.Lock()
	defer wc.mu.Unlock()
	warning := Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	}
	wc.warnings = append(wc.warnings, warning)
}

// AddAmbiguousTitleWarning records an album title whose grouping key could
// not be derived from its bracket structure.
func (wc *WarningCollector) AddAmbiguousTitleWarning(artist, title string) {
	context := fmt.Sprintf("%s - %s", artist, title)
	wc.AddWarning(AmbiguousTitleWarning, context, "Unbalanced brackets in album title", "grouped by full title")
}

// AddTrackUnavailableWarning records a track that has no downloadable file.
func (wc *WarningCollector) AddTrackUnavailableWarning(title, trackID, details string) {
	context := fmt.Sprintf("%s (ID: %s)", title, trackID)
	wc.AddWarning(TrackUnavailableWarning, context, "Track not available", details)
}

// AddCoverArtDownloadWarning adds a cover art download warning
func (wc *WarningCollector) AddCoverArtDownloadWarning(album, details string) {
	wc.AddWarning(CoverArtDownloadWarning, album, "Could not download cover art", details)
}

// AddCoverArtMetadataWarning adds a cover art metadata warning
func (wc *WarningCollector) AddCoverArtMetadataWarning(context, details string) {
	wc.AddWarning(CoverArtMetadataWarning, context, "Failed to add cover art to metadata", details)
}

// AddAlbumFetchWarning adds an album fetch warning
func (wc *WarningCollector) AddAlbumFetchWarning(trackTitle, trackID, details string) {
	context := fmt.Sprintf("%s (ID: %s)", trackTitle, trackID)
	wc.AddWarning(AlbumFetchWarning, context, "Could not fetch album info", details)
}

// AddTrackSkippedWarning adds a track skipped warning
func (wc *WarningCollector) AddTrackSkippedWarning(trackPath string) {
	wc.AddWarning(TrackSkippedWarning, trackPath, "Track already exists", "")
}

// AddNavidromeMatchWarning records a downloaded track that could not be found on the Navidrome server
func (wc *WarningCollector) AddNavidromeMatchWarning(artist, title string) {
	wc.AddWarning(NavidromeMatchWarning, fmt.Sprintf("%s - %s", artist, title), "Track not found in Navidrome", "")
}

// AddUnmatchedTrackWarning records a track from another service with no close Qobuz search hit
func (wc *WarningCollector) AddUnmatchedTrackWarning(artist, title string) {
	wc.AddWarning(UnmatchedTrackWarning, fmt.Sprintf("%s - %s", artist, title), "No close match on Qobuz", "")
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings) > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	if !wc.HasWarnings() {
		return
	}

	ColorWarning.Printf("\n⚠️  Warning Summary (%d warnings):\n", wc.GetWarningCount())
	ColorWarning.Println(strings.Repeat("─", 50))

	grouped := wc.GetWarningsByType()

	// Sort warning types for consistent output
	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		warnings := grouped[warningType]
		wc.printWarningTypeSection(warningType, warnings)
	}
}

// printWarningTypeSection prints warnings for a specific type
func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	// Print section header
	sectionTitle := wc.getWarningTypeTitle(warningType)
	ColorWarning.Printf("\n%s (%d):\n", sectionTitle, len(warnings))

	// Group similar warnings to avoid repetition
	contextCounts := make(map[string]int)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
	}

	// Sort contexts for consistent output
	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	// Print warnings, showing count if multiple
	for _, context := range contexts {
		count := contextCounts[context]
		if count > 1 {
			ColorWarning.Printf("  • %s (×%d)\n", context, count)
		} else {
			ColorWarning.Printf("  • %s\n", context)
		}
	}
}

// getWarningTypeTitle returns a human-readable title for a warning type
func (wc *WarningCollector) getWarningTypeTitle(warningType WarningType) string {
	switch warningType {
	case AmbiguousTitleWarning:
		return "Ambiguous Album Titles"
	case TrackUnavailableWarning:
		return "Unavailable Tracks"
	case CoverArtDownloadWarning:
		return "Cover Art Download Failures"
	case CoverArtMetadataWarning:
		return "Cover Art Metadata Failures"
	case AlbumFetchWarning:
		return "Album Information Fetch Failures"
	case TrackSkippedWarning:
		return "Tracks Skipped (Already Exist)"
	case NavidromeMatchWarning:
		return "Navidrome Lookup Failures"
	case UnmatchedTrackWarning:
		return "Tracks Without A Qobuz Match"
	default:
		return "Other Warnings"
	}
}