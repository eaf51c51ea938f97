package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/tilestore"
	"github.com/tilecraft/atlas/pkg/vault"
)

// appName is the application name used for directories and display.
const appName = "atlas"

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. This is
// typically called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the atlas CLI and returns an error if any command fails.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Atlas turns large images into pannable, zoomable map tiles",
		Long:         `Atlas slices large raster images into tile pyramids, stores them content-addressed, and serves them to map canvases together with markers discovered from vault documents.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("atlas %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newStoreCmd())
	root.AddCommand(newMarkersCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}

// openVault opens the filesystem vault rooted at dir.
func openVault(dir string) (*vault.FSVault, error) {
	return vault.NewFSVault(dir)
}

// openStore builds a tile store over the vault, with a metadata cache
// unless noCache is set.
func openStore(repo vault.Repository, basePath string, noCache bool) *tilestore.Store {
	opts := []tilestore.Option{tilestore.WithCache(newCache(noCache))}
	if basePath != "" {
		opts = append(opts, tilestore.WithBasePath(basePath))
	}
	return tilestore.New(repo, opts...)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/atlas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
