package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/shared"
)

// NewSearchCommand searches the catalog and downloads the picked results.
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search for artists, albums, or tracks.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearchCommand,
	}
	cmd.Flags().String("type", "all", "Type of content to search for (artist, album, track, all)")
	cmd.Flags().Bool("auto", false, "Download the first result without prompting")
	return cmd
}

func runSearchCommand(cmd *cobra.Command, args []string) error {
	cfg, container, err := initConfigAndServices(cmd, nil)
	if err != nil {
		return err
	}
	searchType, _ := cmd.Flags().GetString("type")
	auto, _ := cmd.Flags().GetBool("auto")
	ctx := context.Background()

	selected, err := container.SearchService.HandleSearch(ctx, args[0], searchType, auto)
	if err != nil {
		if errors.Is(err, shared.ErrNoItemsSelected) {
			container.Logger.Warning("No items were selected for download.")
			return nil
		}
		return err
	}

	total := &shared.DownloadStats{}
	for _, item := range selected {
		container.Logger.Info("🎵 Downloading %s: %s", item.Kind, item.Label)
		content, err := container.Resolver.ResolveID(ctx, item.Kind, item.ID)
		if err != nil {
			container.Logger.Error("Failed to resolve %s: %v", item.Label, err)
			total.FailedCount++
			total.FailedItems = append(total.FailedItems, item.Label)
			continue
		}
		stats, err := container.DownloadService.DownloadContent(ctx, content)
		total.Merge(stats)
		if err != nil {
			return err
		}
	}

	container.WarningCollector.PrintSummary()
	printSummary(args[0], cfg.DownloadLocation, total)
	return nil
}
