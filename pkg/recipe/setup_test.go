package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/recipeconv/pkg/config"
	"github.com/orneryd/recipeconv/pkg/logging"
	"github.com/orneryd/recipeconv/pkg/storage"
	"github.com/orneryd/recipeconv/pkg/table"
	"github.com/orneryd/recipeconv/pkg/unitgraph"
)

func TestNewFromConfig_Defaults(t *testing.T) {
	cfg := config.DefaultConfig()

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "125 g flour", c.ConvertLine("1 cup flour", 1))
	assert.Equal(t, 16.0, c.ConvertUnitToUnit("cup", "tablespoon", 1))
	// unit graph fill is on by default: baking soda has no cup density
	assert.Equal(t, "230.4 g baking soda", c.ConvertLine("1 cup baking soda", 1))
	assert.Nil(t, c.store)
}

func TestNewFromConfig_FillDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Conversion.UseUnitGraph = false
	cfg.Cache.Enabled = false

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, "1 cup baking soda", c.ConvertLine("1 cup baking soda", 1))
}

func TestNewFromConfig_BadgerCache(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.BackendBadger
	cfg.Cache.Dir = dir

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)
	assert.InDelta(t, 48.0, c.ConvertUnitToUnit("cup", "teaspoon", 1), 1e-9)
	require.NoError(t, c.Close())

	store, err := storage.Open(storage.Options{DataDir: dir})
	require.NoError(t, err)
	defer store.Close()

	rows, err := table.DefaultRatioTable()
	require.NoError(t, err)
	g, err := unitgraph.Build(rows)
	require.NoError(t, err)

	rate, ok, err := store.Get(unitgraph.Fingerprint(g), "cup", "teaspoon")
	require.NoError(t, err)
	require.True(t, ok, "rate persisted under the default table fingerprint")
	assert.InDelta(t, 48.0, rate, 1e-9)
}

func TestNewFromConfig_BadgerPurgesStale(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.Open(storage.Options{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put("old-table", "cup", "tablespoon", 15))
	require.NoError(t, store.Close())

	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.BackendBadger
	cfg.Cache.Dir = dir

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 16.0, c.ConvertUnitToUnit("cup", "tablespoon", 1))
	require.NoError(t, c.Close())

	store, err = storage.Open(storage.Options{DataDir: dir})
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count("old-table")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewFromConfig_BadgerInMemory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.BackendBadger

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, c.store)
	assert.Equal(t, 16.0, c.ConvertUnitToUnit("cup", "tablespoon", 1))
	assert.NoError(t, c.Close())
}

func TestNewFromConfig_TableFiles(t *testing.T) {
	dir := t.TempDir()
	units := filepath.Join(dir, "units.csv")
	densities := filepath.Join(dir, "densities.csv")
	require.NoError(t, os.WriteFile(units, []byte("1 cup,16 tablespoon\n"), 0644))
	require.NoError(t, os.WriteFile(densities, []byte("ingredient,cup,tablespoon,teaspoon\nlentils,200,12.5,\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.Tables.UnitRatioPath = units
	cfg.Tables.DensityPath = densities

	c, err := NewFromConfig(cfg, logging.Discard())
	require.NoError(t, err)

	assert.Equal(t, "400 g red lentils", c.ConvertLine("2 cups red lentils", 1))
	assert.Equal(t, "125 cup flour", c.ConvertLine("125 cup flour", 1))
	assert.Equal(t, unitgraph.Unresolved, c.ConvertUnitToUnit("cup", "teaspoon", 1))
}

func TestNewFromConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing unit table", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tables.UnitRatioPath = filepath.Join(dir, "missing.csv")
		_, err := NewFromConfig(cfg, nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing density table", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Tables.DensityPath = filepath.Join(dir, "missing.csv")
		_, err := NewFromConfig(cfg, nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("inconsistent unit table", func(t *testing.T) {
		path := filepath.Join(dir, "cycle.csv")
		content := "1 cup,16 tablespoon\n1 tablespoon,3 teaspoon\n1 cup,50 teaspoon\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg := config.DefaultConfig()
		cfg.Tables.UnitRatioPath = path
		cfg.Conversion.CheckConsistency = true
		_, err := NewFromConfig(cfg, logging.Discard())
		assert.ErrorIs(t, err, unitgraph.ErrInconsistentCycle)

		cfg.Conversion.CheckConsistency = false
		_, err = NewFromConfig(cfg, logging.Discard())
		assert.NoError(t, err)
	})
}
