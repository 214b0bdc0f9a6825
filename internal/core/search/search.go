package search

import (
	"context"
	"fmt"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/shared"
)

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, query, searchType string, limit int) (*shared.SearchResults, error)
}

// Selection is one search hit picked for download.
type Selection struct {
	Kind  qobuz.Kind
	ID    string
	Label string
}

// Flatten lists results in display order: artists, albums, then tracks.
func Flatten(results *shared.SearchResults) []Selection {
	var items []Selection
	for _, artist := range results.Artists {
		items = append(items, Selection{Kind: qobuz.KindArtist, ID: shared.IdToString(artist.ID), Label: artist.Name})
	}
	for _, album := range results.Albums {
		label := fmt.Sprintf("%s - %s", album.FullTitle(), album.ArtistName())
		if album.MaximumBitDepth != nil && album.MaximumSamplingRate != nil {
			label += fmt.Sprintf(" [%d/%s]", *album.MaximumBitDepth, shared.FormatSamplingRate(*album.MaximumSamplingRate))
		}
		items = append(items, Selection{Kind: qobuz.KindAlbum, ID: shared.IdToString(album.ID), Label: label})
	}
	for _, track := range results.Tracks {
		label := track.FullTitle()
		if track.Performer != nil {
			label += " - " + track.Performer.Name
		}
		if track.Album != nil {
			label += fmt.Sprintf(" (%s)", track.Album.Title)
		}
		items = append(items, Selection{Kind: qobuz.KindTrack, ID: shared.IdToString(track.ID), Label: label})
	}
	return items
}

// HandleSearch searches and lets the user pick results. With auto the first
// hit is taken without prompting. prompt reads the selection and defaults to
// shared.GetUserInput.
func HandleSearch(ctx context.Context, api Searcher, query, searchType string, auto bool, prompt func(string, string) string) ([]Selection, error) {
	shared.ColorInfo.Printf("🔎 Searching for '%s' (type: %s)...\n", query, searchType)

	results, err := api.Search(ctx, query, searchType, 10)
	if err != nil {
		return nil, err
	}

	items := Flatten(results)
	if len(items) == 0 {
		shared.ColorWarning.Println("No results found.")
		return nil, nil
	}
	if auto {
		return items[:1], nil
	}

	shared.ColorInfo.Printf("Found %d results:\n", len(items))
	var lastKind qobuz.Kind
	for i, item := range items {
		if item.Kind != lastKind {
			shared.ColorInfo.Printf("\n--- %ss ---\n", item.Kind)
			lastKind = item.Kind
		}
		fmt.Printf("%d. %s\n", i+1, item.Label)
	}

	if prompt == nil {
		prompt = shared.GetUserInput
	}
	selectionStr := prompt("\nEnter numbers to download (e.g., '1,3,5-7' or 'q' to quit)", "")
	if selectionStr == "q" || selectionStr == "" {
		return nil, shared.ErrNoItemsSelected
	}

	indices, err := shared.ParseSelectionInput(selectionStr, len(items))
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	if len(indices) == 0 {
		return nil, shared.ErrNoItemsSelected
	}

	selected := make([]Selection, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, items[i-1])
	}
	return selected, nil
}
