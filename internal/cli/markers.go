package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/markers"
)

// markersOpts holds the command-line flags for the markers command.
type markersOpts struct {
	vaultDir string
	tags     []string
	asJSON   bool
}

// newMarkersCmd creates the markers command. It runs the same discovery
// pipeline a map session runs at initialization and prints what a map with
// the given id would show.
func newMarkersCmd() *cobra.Command {
	opts := markersOpts{vaultDir: "."}

	cmd := &cobra.Command{
		Use:   "markers [map-id]",
		Short: "Discover the markers a map would show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkers(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.vaultDir, "vault", opts.vaultDir, "vault root directory")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "include entities carrying this tag (repeatable)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print markers as JSON")

	return cmd
}

func runMarkers(ctx context.Context, mapID string, opts *markersOpts) error {
	logger := loggerFromContext(ctx)

	repo, err := openVault(opts.vaultDir)
	if err != nil {
		return err
	}
	disc := markers.NewDiscoverer(repo, markers.WithLogger(logger))
	defs := disc.Discover(ctx, markers.Options{
		MapID:      mapID,
		TagFilters: opts.tags,
	})

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	if len(defs) == 0 {
		printInfo("No markers for map %q", mapID)
		return nil
	}
	for _, d := range defs {
		pos := fmt.Sprintf("%.1f,%.1f", d.Loc.X, d.Loc.Y)
		if d.Loc.Percent {
			pos = fmt.Sprintf("%.0f%%,%.0f%%", d.Loc.X, d.Loc.Y)
		}
		printInfo("%-10s %-14s %s", d.TypeName, pos, d.Description)
		if d.Link != "" {
			printDetail("%s", d.Link)
		}
	}
	printSuccess("%d markers", len(defs))
	return nil
}
