package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/markers"
	"github.com/tilecraft/atlas/pkg/tilestore"
	"github.com/tilecraft/atlas/pkg/vault"

	"github.com/tilecraft/atlas/internal/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	vaultDir string
	basePath string
	redis    string // redis address for the shared cache, empty for file cache
	mongoURI string // mongodb URI for the vault backend, empty for filesystem
	mongoDB  string
	noCache  bool
}

// newServeCmd creates the serve command. It exposes tiles, pyramid
// metadata, and marker discovery over HTTP.
//
// Backends:
//   - vault: filesystem by default, MongoDB with --mongo
//   - cache: XDG file cache by default, Redis with --redis
func newServeCmd() *cobra.Command {
	opts := serveOpts{
		addr:     ":8470",
		vaultDir: ".",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tiles, metadata, and markers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.vaultDir, "vault", opts.vaultDir, "vault root directory")
	cmd.Flags().StringVar(&opts.basePath, "base-path", "", "tile store base path inside the vault")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "redis address for the shared cache (e.g. localhost:6379)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "mongodb URI for the vault backend")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "", "mongodb database name")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	repo, cleanup, err := serveVault(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := serveCache(ctx, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	store := tilestore.New(repo,
		tilestore.WithCache(c),
		storeBase(opts.basePath),
	)
	disc := markers.NewDiscoverer(repo,
		markers.WithCache(c),
		markers.WithLogger(logger),
	)

	srv := &http.Server{
		Addr: opts.addr,
		Handler: server.New(store,
			server.WithDiscoverer(disc),
			server.WithLogger(logger),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Infof("Serving on %s", opts.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func serveVault(ctx context.Context, opts *serveOpts) (vault.Repository, func(), error) {
	if opts.mongoURI == "" {
		repo, err := openVault(opts.vaultDir)
		return repo, func() {}, err
	}
	mv, err := vault.NewMongoVault(ctx, vault.MongoConfig{
		URI:      opts.mongoURI,
		Database: opts.mongoDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return mv, func() { _ = mv.Close(context.Background()) }, nil
}

func serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redis != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: opts.redis})
	}
	return newCache(false), nil
}

func storeBase(basePath string) tilestore.Option {
	if basePath == "" {
		return tilestore.WithBasePath(tilestore.DefaultBasePath)
	}
	return tilestore.WithBasePath(basePath)
}
