package recipe

import (
	"fmt"
	"log/slog"

	"github.com/orneryd/recipeconv/pkg/cache"
	"github.com/orneryd/recipeconv/pkg/config"
	"github.com/orneryd/recipeconv/pkg/storage"
	"github.com/orneryd/recipeconv/pkg/table"
	"github.com/orneryd/recipeconv/pkg/unitgraph"
)

// NewFromConfig loads both tables, builds the unit graph and wires the rate
// cache described by cfg.
//
// With the badger backend the converter owns an open store; call Close when
// done. Stored rates from other unit tables are purged on open.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ratios, err := loadRatios(cfg.Tables.UnitRatioPath)
	if err != nil {
		return nil, fmt.Errorf("unit table: %w", err)
	}
	densities, err := loadDensities(cfg.Tables.DensityPath)
	if err != nil {
		return nil, fmt.Errorf("density table: %w", err)
	}

	g, err := unitgraph.Build(ratios)
	if err != nil {
		return nil, fmt.Errorf("unit table: %w", err)
	}
	if cfg.Conversion.CheckConsistency {
		if err := unitgraph.CheckConsistency(g, cfg.Conversion.ConsistencyTolerance); err != nil {
			return nil, err
		}
	}

	opts := []unitgraph.ResolverOption{unitgraph.WithLogger(logger)}
	var store *storage.RateStore
	if cfg.Cache.Enabled {
		layers := []cache.Layer{cache.NewRateCache(cfg.Cache.Size, cfg.Cache.TTL)}

		if cfg.Cache.Backend == config.BackendBadger {
			store, err = storage.Open(storage.Options{
				DataDir:  cfg.Cache.Dir,
				InMemory: cfg.Cache.Dir == "",
			})
			if err != nil {
				return nil, err
			}
			fp := unitgraph.Fingerprint(g)
			purged, err := store.PurgeStale(fp)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("purge stale rates: %w", err)
			}
			if purged > 0 {
				logger.Info("purged stale rates", slog.Int("count", purged))
			}
			layers = append(layers, store.ForGraph(fp, logger))
		}
		opts = append(opts, unitgraph.WithRateCache(cache.NewTiered(layers...)))
	}

	logger.Debug("converter ready",
		slog.Int("units", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("densities", len(densities)))

	conv := New(densities, unitgraph.NewResolver(g, opts...),
		WithLogger(logger),
		WithUnitGraphFill(cfg.Conversion.UseUnitGraph),
		WithWorkers(cfg.Conversion.Workers),
	)
	conv.store = store
	return conv, nil
}

func loadRatios(path string) ([]table.RatioRow, error) {
	if path == "" {
		return table.DefaultRatioTable()
	}
	return table.LoadRatioTable(path)
}

func loadDensities(path string) ([]table.DensityRow, error) {
	if path == "" {
		return table.DefaultDensityTable()
	}
	return table.LoadDensityTable(path)
}
