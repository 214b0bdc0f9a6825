package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/config"
	"qobuz-relay/internal/shared"
)

// NewArtistCommand creates the artist download command
func NewArtistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artist [artist_id|url]",
		Short: "Download an artist's entire discography.",
		Args:  cobra.ExactArgs(1),
		RunE:  runArtistCommand,
	}
	addDiscographyFlags(cmd)
	cmd.Flags().Bool("no-smart", false, "Download every listed album instead of one edition per album")
	cmd.Flags().Bool("no-confirm", false, "Skip confirmation prompt")
	return cmd
}

func addDiscographyFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("save-space", true, "Prefer the lowest sampling rate at the best bit depth")
	cmd.Flags().Bool("skip-extras", true, "Skip live, deluxe, anniversary and similar editions")
}

func applyDiscographyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("save-space") {
		cfg.SaveSpace, _ = cmd.Flags().GetBool("save-space")
	}
	if cmd.Flags().Changed("skip-extras") {
		cfg.SkipExtras, _ = cmd.Flags().GetBool("skip-extras")
	}
	if noSmart, err := cmd.Flags().GetBool("no-smart"); err == nil && noSmart {
		cfg.SmartDiscography = false
	}
}

// artistID accepts a bare id or an artist link.
func artistID(arg string) (string, error) {
	if !strings.Contains(arg, "/") {
		return arg, nil
	}
	kind, id, err := qobuz.ParseURL(arg)
	if err != nil {
		return "", err
	}
	if kind != qobuz.KindArtist {
		return "", fmt.Errorf("%s link is not an artist: %w", kind, shared.ErrUnsupportedURL)
	}
	return id, nil
}

func runArtistCommand(cmd *cobra.Command, args []string) error {
	cfg, container, err := initConfigAndServices(cmd, func(cfg *config.Config) {
		applyDiscographyFlags(cmd, cfg)
	})
	if err != nil {
		return err
	}
	if err := container.FileSystem.ValidateDownloadLocation(cfg.DownloadLocation); err != nil {
		return err
	}
	id, err := artistID(args[0])
	if err != nil {
		return err
	}
	noConfirm, _ := cmd.Flags().GetBool("no-confirm")
	ctx := context.Background()

	container.Logger.Info("🎵 Starting artist discography download for ID: %s", id)
	content, err := container.Resolver.ResolveID(ctx, qobuz.KindArtist, id)
	if err != nil {
		return fmt.Errorf("failed to get artist: %w", err)
	}
	if len(content.Albums) == 0 {
		container.Logger.Warning("No albums left to download for %s", content.Name)
		return nil
	}

	if !noConfirm {
		container.Logger.Info("Found %d albums to download:", len(content.Albums))
		for i, album := range content.Albums {
			fmt.Printf("%d. %s\n", i+1, formatAlbum(album))
		}
		if !shared.GetYesNoInput("Continue with download? (y/n)", "y") {
			container.Logger.Warning("Discography download cancelled by user.")
			return nil
		}
	}

	stats, err := container.DownloadService.DownloadContent(ctx, content)
	container.WarningCollector.PrintSummary()
	printSummary(content.Name, cfg.DownloadLocation, stats)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return shared.ErrDownloadCancelled
		}
		return err
	}
	container.Logger.Success("Discography download completed!")
	return nil
}

func formatAlbum(album shared.Album) string {
	line := album.FullTitle()
	if album.MaximumBitDepth != nil && album.MaximumSamplingRate != nil {
		line += fmt.Sprintf(" [%d/%s kHz]", *album.MaximumBitDepth, shared.FormatSamplingRate(*album.MaximumSamplingRate))
	}
	if len(album.ReleaseDateOriginal) >= 4 {
		line += fmt.Sprintf(" (%s)", album.ReleaseDateOriginal[:4])
	}
	return line
}
