package discography

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qobuz-relay/internal/shared"
)

func album(title string, bitDepth int, rate float64, artist string) shared.Album {
	return shared.Album{
		ID:                  title,
		Title:               title,
		MaximumBitDepth:     &bitDepth,
		MaximumSamplingRate: &rate,
		Artist:              &shared.ArtistRef{Name: artist},
	}
}

func catalog(albums ...shared.Album) shared.ArtistCatalog {
	return shared.ArtistCatalog{Name: "X", Albums: albums}
}

func titles(albums []shared.Album) []string {
	out := make([]string, 0, len(albums))
	for _, a := range albums {
		out = append(out, a.Title)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name       string
		albums     []shared.Album
		spaceSave  bool
		skipExtras bool
		want       []string
	}{
		{
			name:   "single album",
			albums: []shared.Album{album("Album", 16, 44.1, "X")},
			want:   []string{"Album"},
		},
		{
			name: "highest bit depth wins",
			albums: []shared.Album{
				album("Album", 16, 44.1, "X"),
				album("Album (Hi-Res)", 24, 96, "X"),
			},
			want: []string{"Album (Hi-Res)"},
		},
		{
			name: "remastered edition at the best rate",
			albums: []shared.Album{
				album("Album", 24, 96, "X"),
				album("Album (Remastered)", 24, 96, "X"),
			},
			want: []string{"Album (Remastered)"},
		},
		{
			name: "remaster below the best rate leaves the group empty",
			albums: []shared.Album{
				album("Album", 24, 96, "X"),
				album("Album (Remastered)", 24, 48, "X"),
			},
			want: []string{},
		},
		{
			name: "true duplicate keeps the first",
			albums: []shared.Album{
				func() shared.Album { a := album("Album", 16, 44.1, "X"); a.ID = "first"; return a }(),
				func() shared.Album { a := album("Album", 16, 44.1, "X"); a.ID = "second"; return a }(),
			},
			want: []string{"Album"},
		},
		{
			name: "compilation credited to another artist",
			albums: []shared.Album{
				album("Hits", 24, 192, "Various Artists"),
				album("Hits (Radio)", 16, 44.1, "X"),
			},
			want: []string{},
		},
		{
			name: "skip extras drops deluxe",
			albums: []shared.Album{
				album("Album (Deluxe)", 16, 44.1, "X"),
				album("Album", 16, 44.1, "X"),
			},
			skipExtras: true,
			want:       []string{"Album"},
		},
		{
			name: "extras kept when not skipping",
			albums: []shared.Album{
				album("Album (Deluxe)", 16, 44.1, "X"),
				album("Album", 16, 44.1, "X"),
			},
			want: []string{"Album (Deluxe)"},
		},
		{
			name: "group of only extras contributes nothing",
			albums: []shared.Album{
				album("Live at Home", 16, 44.1, "X"),
				album("Other", 16, 44.1, "X"),
			},
			skipExtras: true,
			want:       []string{"Other"},
		},
		{
			name: "output follows first-seen group order",
			albums: []shared.Album{
				album("B", 16, 44.1, "X"),
				album("A", 16, 44.1, "X"),
				album("B (Hi-Res)", 24, 96, "X"),
			},
			want: []string{"B (Hi-Res)", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(catalog(tt.albums...), tt.spaceSave, tt.skipExtras)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestFilterTrueDuplicatePicksFirst(t *testing.T) {
	first := album("Album", 16, 44.1, "X")
	first.ID = "first"
	second := album("Album", 16, 44.1, "X")
	second.ID = "second"

	got, err := Filter(catalog(first, second), false, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].ID)
}

func TestFilterSpaceSavingToggle(t *testing.T) {
	c := catalog(
		album("Album", 24, 96, "X"),
		album("Album (48k)", 24, 48, "X"),
		album("Album (192k)", 24, 192, "X"),
		album("Album (CD)", 16, 44.1, "X"),
	)

	got, err := Filter(c, true, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 48.0, *got[0].MaximumSamplingRate)

	got, err = Filter(c, false, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 192.0, *got[0].MaximumSamplingRate)
}

func TestFilterRemasterScenario(t *testing.T) {
	// Both editions share bit depth 24, so the best rate is 96. The remaster
	// exists, which rules out the 96 kHz original, and the remaster itself is
	// at 48 kHz: nothing in the group qualifies.
	c := catalog(
		album("Album", 24, 96, "X"),
		album("Album (Remastered)", 24, 48, "X"),
	)
	report, err := FilterWithReport(c, false, false)
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.True(t, report.Groups[0].RemasterExists)
	assert.Equal(t, 96.0, report.Groups[0].BestSamplingRate)
	assert.Equal(t, -1, report.Groups[0].Selected)
	assert.Empty(t, report.Albums)

	// Preferring space lowers the target rate to the remaster's.
	got, err := Filter(c, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Album (Remastered)"}, titles(got))
}

func TestFilterConcurrentCalls(t *testing.T) {
	c := catalog(
		album("Discovery", 24, 96, "X"),
		album("Discovery", 16, 44.1, "X"),
		album("Homework (Remastered)", 24, 44.1, "X"),
		album("Homework", 24, 44.1, "X"),
		album("Alive 1997 (Live)", 16, 44.1, "X"),
		album("Alive (1997", 16, 44.1, "X"),
		album("Human After All", 16, 44.1, "Y"),
	)
	want, err := Filter(c, true, true)
	require.NoError(t, err)

	const workers = 16
	results := make([][]shared.Album, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Filter(c, true, true)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, titles(want), titles(results[i]))
	}
	assert.Len(t, c.Albums, 7, "input is not modified")
}

func TestFilterIdempotent(t *testing.T) {
	c := catalog(
		album("One", 16, 44.1, "X"),
		album("One (Deluxe)", 24, 96, "X"),
		album("Two [Remastered]", 24, 96, "X"),
		album("Two", 24, 96, "X"),
		album("Three", 16, 44.1, "Y"),
		album("Three (Live)", 16, 44.1, "X"),
	)
	for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		t.Run(fmt.Sprint(flags), func(t *testing.T) {
			once, err := Filter(c, flags[0], flags[1])
			require.NoError(t, err)
			require.NotEmpty(t, once)

			twice, err := Filter(shared.ArtistCatalog{Name: "X", Albums: once}, flags[0], flags[1])
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestFilterProperties(t *testing.T) {
	c := catalog(
		album("One", 16, 44.1, "X"),
		album("One (Remastered)", 16, 44.1, "X"),
		album("One (Deluxe Remaster)", 16, 44.1, "X"),
		album("Two (Live)", 24, 48, "X"),
		album("Two (Demo)", 24, 48, "X"),
		album("Three", 24, 192, "Z"),
		album("Three (Again)", 24, 96, "X"),
		album("Four (Broken", 16, 44.1, "X"),
	)

	for _, flags := range [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}} {
		t.Run(fmt.Sprint(flags), func(t *testing.T) {
			report, err := FilterWithReport(c, flags[0], flags[1])
			require.NoError(t, err)

			seen := make(map[string]bool)
			for _, a := range report.Albums {
				key, _ := EssenceKey(a.Title)
				assert.False(t, seen[key], "key %q selected twice", key)
				seen[key] = true

				assert.Equal(t, "X", a.Artist.Name)
				if flags[1] {
					assert.False(t, DefaultClassifier.Is(TypeExtra, a), a.Title)
				}
			}
			assert.LessOrEqual(t, len(report.Albums), len(report.Groups))

			for _, g := range report.Groups {
				if g.RemasterExists && g.Selected >= 0 {
					assert.True(t, DefaultClassifier.Is(TypeRemaster, c.Albums[g.Selected]))
				}
			}
			assert.Equal(t, []string{"Four (Broken"}, report.Ambiguous)
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	c := catalog(
		album("Album", 16, 44.1, "X"),
		album("Album (Remastered)", 16, 44.1, "X"),
	)
	before := titles(c.Albums)
	_, err := Filter(c, false, true)
	require.NoError(t, err)
	assert.Equal(t, before, titles(c.Albums))
}

func TestFilterMalformedCatalog(t *testing.T) {
	missingArtist := album("Album", 16, 44.1, "X")
	missingArtist.Artist = nil
	emptyArtist := album("Album", 16, 44.1, "")
	missingDepth := album("Album", 16, 44.1, "X")
	missingDepth.MaximumBitDepth = nil
	missingRate := album("Album", 16, 44.1, "X")
	missingRate.MaximumSamplingRate = nil

	tests := []struct {
		name    string
		catalog string
		albums  []shared.Album
		field   string
	}{
		{"empty catalog", "X", nil, ""},
		{"missing catalog artist name", "", []shared.Album{album("Album", 16, 44.1, "X")}, "name"},
		{"missing title", "X", []shared.Album{album("Ok", 16, 44.1, "X"), album("", 16, 44.1, "X")}, "title"},
		{"missing bit depth", "X", []shared.Album{missingDepth}, "maximum_bit_depth"},
		{"missing sampling rate", "X", []shared.Album{missingRate}, "maximum_sampling_rate"},
		{"missing artist", "X", []shared.Album{missingArtist}, "artist.name"},
		{"empty artist name", "X", []shared.Album{emptyArtist}, "artist.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(shared.ArtistCatalog{Name: tt.catalog, Albums: tt.albums}, false, false)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, shared.ErrMalformedCatalog))

			var recErr *shared.MalformedRecordError
			if tt.field == "" {
				assert.False(t, errors.As(err, &recErr))
				return
			}
			require.True(t, errors.As(err, &recErr))
			assert.Equal(t, tt.field, recErr.Field)
		})
	}
}

func TestCustomClassifier(t *testing.T) {
	c := Classifier{
		{Name: TypeRemaster, Pattern: regexp.MustCompile(`(?i)remaster`)},
		{Name: TypeExtra, Pattern: regexp.MustCompile(`(?i)bonus`)},
	}
	report, err := c.Filter(catalog(
		album("Album (Bonus Tracks)", 16, 44.1, "X"),
		album("Album", 16, 44.1, "X"),
		album("Alive", 16, 44.1, "X"),
	), false, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Album", "Alive"}, titles(report.Albums))
}
