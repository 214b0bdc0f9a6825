// Package discography picks one edition per logical album out of an
// artist's catalog listing.
package discography

import "qobuz-relay/internal/shared"

// Group is the outcome for one essence key.
type Group struct {
	Key              string
	Indexes          []int // positions in the input, original order
	BestBitDepth     int
	BestSamplingRate float64
	RemasterExists   bool
	Selected         int // input position of the chosen edition, -1 if none survived
}

// Report is the filter result plus what a caller may want to log.
type Report struct {
	Albums    []shared.Album
	Groups    []Group
	Ambiguous []string // titles whose key fell back to the full title
}

// Filter returns at most one album per essence group, groups in the order
// they first appear. preferSpaceSaving picks the lowest sampling rate at the
// best bit depth instead of the highest; skipExtras drops live, deluxe and
// similar editions.
func Filter(catalog shared.ArtistCatalog, preferSpaceSaving, skipExtras bool) ([]shared.Album, error) {
	report, err := FilterWithReport(catalog, preferSpaceSaving, skipExtras)
	if err != nil {
		return nil, err
	}
	return report.Albums, nil
}

// FilterWithReport is Filter using DefaultClassifier, returning the
// per-group decisions as well.
func FilterWithReport(catalog shared.ArtistCatalog, preferSpaceSaving, skipExtras bool) (*Report, error) {
	return DefaultClassifier.Filter(catalog, preferSpaceSaving, skipExtras)
}

// Filter runs the selection with c as the pattern table. c must define the
// remaster and extra types for those rules to apply.
func (c Classifier) Filter(catalog shared.ArtistCatalog, preferSpaceSaving, skipExtras bool) (*Report, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}
	byKey := make(map[string]int)
	for i, album := range catalog.Albums {
		key, ambiguous := EssenceKey(album.Title)
		if ambiguous {
			report.Ambiguous = append(report.Ambiguous, album.Title)
		}
		g, ok := byKey[key]
		if !ok {
			g = len(report.Groups)
			byKey[key] = g
			report.Groups = append(report.Groups, Group{Key: key, Selected: -1})
		}
		report.Groups[g].Indexes = append(report.Groups[g].Indexes, i)
	}

	for gi := range report.Groups {
		group := &report.Groups[gi]
		c.score(catalog.Albums, group, preferSpaceSaving)

		for _, i := range group.Indexes {
			if c.valid(catalog.Albums[i], catalog.Name, group, skipExtras) {
				group.Selected = i
				report.Albums = append(report.Albums, catalog.Albums[i])
				break
			}
		}
	}
	return report, nil
}

func (c Classifier) score(albums []shared.Album, group *Group, preferSpaceSaving bool) {
	first := true
	for _, i := range group.Indexes {
		if bd := *albums[i].MaximumBitDepth; first || bd > group.BestBitDepth {
			group.BestBitDepth = bd
			first = false
		}
		if c.Is(TypeRemaster, albums[i]) {
			group.RemasterExists = true
		}
	}

	first = true
	for _, i := range group.Indexes {
		if *albums[i].MaximumBitDepth != group.BestBitDepth {
			continue
		}
		rate := *albums[i].MaximumSamplingRate
		switch {
		case first:
			group.BestSamplingRate = rate
			first = false
		case preferSpaceSaving && rate < group.BestSamplingRate:
			group.BestSamplingRate = rate
		case !preferSpaceSaving && rate > group.BestSamplingRate:
			group.BestSamplingRate = rate
		}
	}
}

func (c Classifier) valid(album shared.Album, artist string, group *Group, skipExtras bool) bool {
	if *album.MaximumBitDepth != group.BestBitDepth || *album.MaximumSamplingRate != group.BestSamplingRate {
		return false
	}
	if album.Artist.Name != artist {
		return false
	}
	if group.RemasterExists && !c.Is(TypeRemaster, album) {
		return false
	}
	return !(skipExtras && c.Is(TypeExtra, album))
}
