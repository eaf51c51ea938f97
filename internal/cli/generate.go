package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/pyramid"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	vaultDir string // vault root directory
	basePath string // tile store base path inside the vault
	tileSize int    // tile edge length in pixels
	noCache  bool   // skip the metadata cache
	plain    bool   // disable the progress TUI
}

// newGenerateCmd creates the generate command. It slices a vault image
// into a tile pyramid; regenerating an image that already has a valid
// pyramid is a fast no-op.
func newGenerateCmd() *cobra.Command {
	opts := generateOpts{
		vaultDir: ".",
		tileSize: pyramid.DefaultTileSize,
	}

	cmd := &cobra.Command{
		Use:   "generate [image]",
		Short: "Build a tile pyramid from a vault image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.vaultDir, "vault", opts.vaultDir, "vault root directory")
	cmd.Flags().StringVar(&opts.basePath, "base-path", "", "tile store base path inside the vault")
	cmd.Flags().IntVar(&opts.tileSize, "tile-size", opts.tileSize, "tile edge length in pixels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "skip the metadata cache")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "log progress instead of showing the progress bar")

	return cmd
}

func runGenerate(ctx context.Context, imagePath string, opts *generateOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	repo, err := openVault(opts.vaultDir)
	if err != nil {
		return err
	}
	data, err := repo.ReadBinary(ctx, imagePath)
	if err != nil {
		return err
	}
	logger.Debugf("Read %s: %d bytes", imagePath, len(data))

	store := openStore(repo, opts.basePath, opts.noCache)
	gen := pyramid.New(store,
		pyramid.WithTileSize(opts.tileSize),
		pyramid.WithLogger(logger),
	)

	var hash string
	if opts.plain || !isatty.IsTerminal(os.Stderr.Fd()) {
		hash, err = gen.Generate(ctx, data, imagePath, func(p pyramid.Progress) {
			logger.Debugf("Generated %d/%d tiles (level %d/%d)",
				p.TilesGenerated, p.TotalTiles, p.CurrentZoomIndex+1, p.TotalZoomLevels)
		})
	} else {
		hash, err = generateWithTUI(ctx, gen, data, imagePath)
	}
	if err != nil {
		return err
	}

	md, err := store.ReadMetadata(ctx, hash)
	if err != nil {
		return err
	}

	printSuccess("Pyramid ready: %s", hash)
	printDetail("%dx%d source, zoom %d-%d, %d tiles",
		md.Width, md.Height, md.MinZoom, md.MaxZoom,
		pyramid.TotalTiles(md.Width, md.Height, md.TileSize, md.MinZoom, md.MaxZoom))
	printDetail("stored under %s", store.MetadataPath(hash))
	prog.done("Generation complete")
	return nil
}

// generateWithTUI runs generation behind a live progress display. The
// pipeline runs in a goroutine and feeds snapshots to the bubbletea
// program; pressing q cancels the generation context, which aborts at the
// next yield point.
func generateWithTUI(ctx context.Context, gen *pyramid.Generator, data []byte, imagePath string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newGenerateModel(imagePath, cancel), tea.WithOutput(os.Stderr))
	go func() {
		hash, err := gen.Generate(ctx, data, imagePath, func(pr pyramid.Progress) {
			p.Send(progressMsg(pr))
		})
		p.Send(generateDoneMsg{hash: hash, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m := final.(generateModel)
	if m.err != nil {
		return "", m.err
	}
	return m.hash, nil
}
