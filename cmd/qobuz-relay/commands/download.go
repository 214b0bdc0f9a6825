package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/shared"
)

// NewDownloadCommand downloads any supported link to disk.
func NewDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [url]",
		Short: "Download a Qobuz album, track, playlist, label or artist link, or a Spotify link.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownloadCommand,
	}
	cmd.Flags().String("playlist", "", "Add the downloaded tracks to this Navidrome playlist")
	return cmd
}

func runDownloadCommand(cmd *cobra.Command, args []string) error {
	cfg, container, err := initConfigAndServices(cmd, nil)
	if err != nil {
		return err
	}
	if err := container.FileSystem.ValidateDownloadLocation(cfg.DownloadLocation); err != nil {
		return err
	}
	playlist, _ := cmd.Flags().GetString("playlist")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	content, err := container.Resolver.Resolve(ctx, args[0])
	if err != nil {
		return err
	}
	name := content.Name
	if name == "" {
		name = string(content.Kind) + " " + content.ID
	}
	container.Logger.Info("🎵 Downloading %s", name)

	stats, err := container.DownloadService.DownloadContent(ctx, content)
	container.WarningCollector.PrintSummary()
	printSummary(name, cfg.DownloadLocation, stats)
	if err != nil {
		return err
	}

	if playlist != "" {
		if err := container.SyncNavidromePlaylist(playlist, stats); err != nil {
			container.Logger.Error("Failed to update Navidrome playlist: %v", err)
		}
		if container.WarningCollector.HasWarnings() {
			container.WarningCollector.PrintSummary()
		}
	}
	if stats.FailedCount > 0 && stats.SuccessCount == 0 {
		return shared.ErrTrackUnavailable
	}
	return nil
}
