package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/discography"
	"qobuz-relay/internal/shared"
)

// NewDiscographyCommand prints the editions an artist download would pick.
func NewDiscographyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discography [artist_id|url]",
		Short: "List the album editions smart discography keeps for an artist.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiscographyCommand,
	}
	addDiscographyFlags(cmd)
	cmd.Flags().Bool("all", false, "Also list the editions that were dropped")
	return cmd
}

func runDiscographyCommand(cmd *cobra.Command, args []string) error {
	cfg, container, err := initConfigAndServices(cmd, func(cfg *config.Config) {
		applyDiscographyFlags(cmd, cfg)
	})
	if err != nil {
		return err
	}
	id, err := artistID(args[0])
	if err != nil {
		return err
	}
	showAll, _ := cmd.Flags().GetBool("all")

	catalog, err := container.Catalog.GetArtistCatalog(context.Background(), id)
	if err != nil {
		return err
	}
	report, err := discography.FilterWithReport(*catalog, cfg.SaveSpace, cfg.SkipExtras)
	if err != nil {
		return err
	}
	for _, title := range report.Ambiguous {
		container.WarningCollector.AddAmbiguousTitleWarning(catalog.Name, title)
	}

	shared.ColorInfo.Printf("%s: %d listed, %d kept\n\n", catalog.Name, len(catalog.Albums), len(report.Albums))
	n := 0
	for _, group := range report.Groups {
		if group.Selected >= 0 {
			n++
			shared.ColorSuccess.Printf("%d. %s\n", n, formatAlbum(catalog.Albums[group.Selected]))
		}
		if !showAll {
			continue
		}
		for _, i := range group.Indexes {
			if i == group.Selected {
				continue
			}
			line := formatAlbum(catalog.Albums[i])
			if types := discography.DefaultClassifier.Types(catalog.Albums[i]); len(types) > 0 {
				line += " {" + strings.Join(types, ", ") + "}"
			}
			fmt.Printf("   - %s\n", line)
		}
	}
	container.WarningCollector.PrintSummary()
	return nil
}
