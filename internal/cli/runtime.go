package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/roach88/shareserver/internal/asset"
	"github.com/roach88/shareserver/internal/blob"
	"github.com/roach88/shareserver/internal/config"
	"github.com/roach88/shareserver/internal/pictures"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/store"
)

// runtime is everything a command needs to dispatch calls against the
// configured stores.
type runtime struct {
	cfg        *config.Config
	store      *store.Store
	blobs      *blob.FileStore
	assets     *asset.Store
	table      *rpc.Table
	dispatcher *rpc.Dispatcher
	registry   *prometheus.Registry
	logger     *slog.Logger
}

// loadConfig reads the --config file and the environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds the text logger used by every command. --verbose wins
// over the configured level.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openRuntime opens the metadata database and blob root and builds the
// procedure table. The caller must Close the result.
func openRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	logger.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	blobs, err := blob.NewFileStore(cfg.BlobDir)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open blob directory", err)
	}

	assets := asset.New(blobs, st.Pictures(),
		asset.WithBasePath(cfg.BasePath),
		asset.WithLogger(logger),
	)

	table, err := pictures.Build(assets, nil)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build procedure table: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher := rpc.NewDispatcher(table,
		rpc.WithLogger(logger),
		rpc.WithMetrics(rpc.NewMetrics(registry)),
	)

	logger.Info("procedure table ready", "procedures", table.Len(), "blob_dir", blobs.Root())
	return &runtime{
		cfg:        cfg,
		store:      st,
		blobs:      blobs,
		assets:     assets,
		table:      table,
		dispatcher: dispatcher,
		registry:   registry,
		logger:     logger,
	}, nil
}

// Close releases the database.
func (r *runtime) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
