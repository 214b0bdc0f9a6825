package discography

import (
	"regexp"

	"qobuz-relay/internal/shared"
)

// Content type names used by the selection rules.
const (
	TypeRemaster = "remaster"
	TypeExtra    = "extra"
)

// ContentType tags an edition whose "{title} {version}" text matches Pattern.
type ContentType struct {
	Name    string
	Pattern *regexp.Regexp
}

// Classifier is an ordered pattern table. It is read-only once built and may
// be shared between goroutines.
type Classifier []ContentType

// DefaultClassifier recognises remastered editions and editions carrying
// extra material (live, deluxe, anniversary...).
var DefaultClassifier = Classifier{
	{Name: TypeRemaster, Pattern: regexp.MustCompile(`(?i)(re)?master(ed)?`)},
	{Name: TypeExtra, Pattern: regexp.MustCompile(`(?i)(anniversary|deluxe|live|collector|demo|expanded)`)},
}

func classifierText(album shared.Album) string {
	return album.Title + " " + album.Version
}

// Is reports whether album is of the named type. Unknown names never match.
func (c Classifier) Is(name string, album shared.Album) bool {
	text := classifierText(album)
	for _, t := range c {
		if t.Name == name {
			return t.Pattern.MatchString(text)
		}
	}
	return false
}

// Types lists every type album belongs to, in table order.
func (c Classifier) Types(album shared.Album) []string {
	text := classifierText(album)
	var types []string
	for _, t := range c {
		if t.Pattern.MatchString(text) {
			types = append(types, t.Name)
		}
	}
	return types
}
