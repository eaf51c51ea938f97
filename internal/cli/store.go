package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/pyramid"
	"github.com/tilecraft/atlas/pkg/tilestore"
)

// storeOpts holds the shared flags for the store subcommands.
type storeOpts struct {
	vaultDir string
	basePath string
	noCache  bool
}

// newStoreCmd creates the store command group for inspecting generated
// pyramids.
func newStoreCmd() *cobra.Command {
	opts := storeOpts{vaultDir: "."}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the content-addressed tile store",
	}
	cmd.PersistentFlags().StringVar(&opts.vaultDir, "vault", opts.vaultDir, "vault root directory")
	cmd.PersistentFlags().StringVar(&opts.basePath, "base-path", "", "tile store base path inside the vault")
	cmd.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "skip the metadata cache")

	cmd.AddCommand(newStoreListCmd(&opts))
	cmd.AddCommand(newStoreInfoCmd(&opts))

	return cmd
}

func newStoreListCmd(opts *storeOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored pyramids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreList(cmd.Context(), opts)
		},
	}
}

func newStoreInfoCmd(opts *storeOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info [hash]",
		Short: "Show one pyramid's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreInfo(cmd.Context(), args[0], opts)
		},
	}
}

func runStoreList(ctx context.Context, opts *storeOpts) error {
	repo, err := openVault(opts.vaultDir)
	if err != nil {
		return err
	}
	store := openStore(repo, opts.basePath, opts.noCache)

	hashes, err := listPyramids(repo.Root(), opts.basePath)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		printInfo("No pyramids stored")
		return nil
	}

	for _, hash := range hashes {
		md, err := store.ReadMetadata(ctx, hash)
		if err != nil {
			return err
		}
		if md == nil {
			// Tiles without metadata: an interrupted generation. The next
			// generate run for the same image overwrites it.
			printDetail("%s  (incomplete)", hash)
			continue
		}
		printInfo("%s  %dx%d  zoom %d-%d  %s",
			hash, md.Width, md.Height, md.MinZoom, md.MaxZoom, md.SourcePath)
	}
	return nil
}

func runStoreInfo(ctx context.Context, hash string, opts *storeOpts) error {
	if len(hash) != cache.ShortHashLen {
		return fmt.Errorf("hash must be %d hex characters, got %d", cache.ShortHashLen, len(hash))
	}
	repo, err := openVault(opts.vaultDir)
	if err != nil {
		return err
	}
	store := openStore(repo, opts.basePath, opts.noCache)

	md, err := store.ReadMetadata(ctx, hash)
	if err != nil {
		return err
	}
	if md == nil {
		printError("No pyramid for %s", hash)
		return fmt.Errorf("pyramid %s not found", hash)
	}

	printKeyValue("hash", md.ImageHash)
	printKeyValue("source", md.SourcePath)
	printKeyValue("dimensions", fmt.Sprintf("%dx%d", md.Width, md.Height))
	printKeyValue("tile size", fmt.Sprintf("%d", md.TileSize))
	printKeyValue("zoom", fmt.Sprintf("%d-%d", md.MinZoom, md.MaxZoom))
	printKeyValue("tiles", fmt.Sprintf("%d", pyramid.TotalTiles(md.Width, md.Height, md.TileSize, md.MinZoom, md.MaxZoom)))
	printKeyValue("method", md.Method)
	printKeyValue("version", md.Version)
	printKeyValue("generated", time.UnixMilli(md.GeneratedAt).Format(time.RFC3339))
	return nil
}

// listPyramids enumerates hash directories under the store's base path.
func listPyramids(vaultRoot, basePath string) ([]string, error) {
	if basePath == "" {
		basePath = tilestore.DefaultBasePath
	}
	dir := filepath.Join(vaultRoot, filepath.FromSlash(basePath))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var hashes []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) == cache.ShortHashLen {
			hashes = append(hashes, e.Name())
		}
	}
	return hashes, nil
}
