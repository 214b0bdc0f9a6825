package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/config"
	"qobuz-relay/internal/services"
	"qobuz-relay/internal/shared"
)

// Version is overridden at build time with -ldflags "-X ...commands.Version=".
var Version = "1.0.0"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "qobuz-relay",
		Version: Version,
		Short:   "Download from Qobuz or relay it into Telegram chats.",
		Long: fmt.Sprintf(`qobuz-relay (v%s)

Fetches albums, tracks, playlists, labels and artist discographies from Qobuz
in lossless quality, tags them with cover art and either saves them to disk
or uploads them into Telegram chats through a bot.

Artist downloads keep one edition per album: the best bit depth, then the
highest (or, with --save-space, lowest) sampling rate, preferring remasters.`, Version),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			shared.InitializeColors()
		},
	}

	root.PersistentFlags().String("config", "config.json", "Path to the JSON config file")
	root.PersistentFlags().String("download-location", "", "Directory to save downloads")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(
		NewArtistCommand(),
		NewDiscographyCommand(),
		NewDownloadCommand(),
		NewSearchCommand(),
		NewBotCommand(),
		NewVersionCommand(),
	)
	return root
}

// loadConfig reads the config file and environment, running the first-run
// setup when the file is missing and stdin is a terminal.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if !shared.FileExists(configFile) && shared.IsTTY() {
		if err := firstRunSetup(configFile); err != nil {
			shared.ColorError.Printf("❌ Failed to save initial config: %v\n", err)
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if location, _ := cmd.Flags().GetString("download-location"); location != "" {
		cfg.DownloadLocation = location
	}
	return cfg, nil
}

func firstRunSetup(configFile string) error {
	cfg := config.DefaultConfig()
	shared.ColorInfo.Println("✨ Welcome to qobuz-relay! Let's set up your configuration.")

	cfg.AppID = shared.GetUserInput("Enter your Qobuz app id", "")
	cfg.AppSecret = shared.GetUserInput("Enter your Qobuz app secret", "")
	cfg.UserAuthToken = shared.GetUserInput("Enter your Qobuz user auth token", "")
	cfg.DownloadLocation = shared.GetUserInput("Enter download location", cfg.DownloadLocation)

	defaultParallelism := strconv.Itoa(cfg.Parallelism)
	parallelismStr := shared.GetUserInput("Enter number of parallel downloads", defaultParallelism)
	if p, err := strconv.Atoi(parallelismStr); err == nil && p > 0 {
		cfg.Parallelism = p
	} else {
		shared.ColorWarning.Printf("⚠️ Invalid parallelism value '%s', using default %d.\n", parallelismStr, cfg.Parallelism)
	}

	if err := config.SaveConfig(configFile, cfg); err != nil {
		return err
	}
	shared.ColorSuccess.Println("✅ Configuration saved to", configFile)
	return nil
}

// initConfigAndServices loads the config, lets apply adjust it from flags,
// validates catalog access and builds the services.
func initConfigAndServices(cmd *cobra.Command, apply func(*config.Config)) (*config.Config, *services.ServiceContainer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.ValidateCatalog(); err != nil {
		return nil, nil, err
	}

	container := services.NewServiceContainer(cfg, nil)
	debug, _ := cmd.Flags().GetBool("debug")
	container.Logger.SetDebugMode(debug)
	return cfg, container, nil
}

// printSummary prints the download statistics
func printSummary(name, location string, stats *shared.DownloadStats) {
	if stats == nil || (stats.SuccessCount == 0 && stats.FailedCount == 0 && stats.SkippedCount == 0) {
		return
	}

	fmt.Println()
	shared.ColorInfo.Printf("📊 Download Summary for %s:\n", name)
	if stats.SuccessCount > 0 {
		shared.ColorSuccess.Printf("✅ Successfully downloaded: %d items\n", stats.SuccessCount)
	}
	if stats.SkippedCount > 0 {
		shared.ColorWarning.Printf("⏭️  Skipped (already exists): %d items\n", stats.SkippedCount)
	}
	if stats.FailedCount > 0 {
		shared.ColorError.Printf("❌ Failed downloads: %d items\n", stats.FailedCount)
		for _, item := range stats.FailedItems {
			shared.ColorError.Printf("   • %s\n", item)
		}
	}
	shared.ColorSuccess.Printf("📁 Downloaded to: %s\n", location)
}
