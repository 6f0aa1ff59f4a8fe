package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fpA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	fpB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestStore(t *testing.T) *RateStore {
	t.Helper()
	store, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRateStore_GetPut(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get(fpA, "cup", "tablespoon")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(fpA, "cup", "tablespoon", 16))
	rate, ok, err := store.Get(fpA, "cup", "tablespoon")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 16.0, rate)

	t.Run("fingerprints are separate namespaces", func(t *testing.T) {
		_, ok, err := store.Get(fpB, "cup", "tablespoon")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("direction matters", func(t *testing.T) {
		_, ok, err := store.Get(fpA, "tablespoon", "cup")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(fpA, "cup", "tablespoon", 1.0/3))
		rate, _, err := store.Get(fpA, "cup", "tablespoon")
		require.NoError(t, err)
		assert.Equal(t, 1.0/3, rate, "full float64 precision")
	})
}

func TestRateStore_CountAndPurge(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put(fpA, "cup", "tablespoon", 16))
	require.NoError(t, store.Put(fpA, "tablespoon", "cup", 1.0/16))
	require.NoError(t, store.Put(fpB, "cup", "pint", 0.5))

	n, err := store.Count(fpA)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fps, err := store.Fingerprints()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fpA, fpB}, fps)

	dropped, err := store.PurgeStale(fpB)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	n, err = store.Count(fpA)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.Count(fpB)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Purge(fpB))
	fps, err = store.Fingerprints()
	require.NoError(t, err)
	assert.Empty(t, fps)
}

func TestRateStore_Closed(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "second close is a no-op")

	_, _, err = store.Get(fpA, "cup", "pint")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Put(fpA, "cup", "pint", 0.5), ErrStoreClosed)
	_, err = store.Count(fpA)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Purge(fpA), ErrStoreClosed)
	_, err = store.PurgeStale(fpA)
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestRateStore_OnDisk(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put(fpA, "cup", "milliliter", 236.588))
	require.NoError(t, store.Close())

	reopened, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	rate, ok, err := reopened.Get(fpA, "cup", "milliliter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 236.588, rate)
}

func TestGraphRates(t *testing.T) {
	store := newTestStore(t)
	rates := store.ForGraph(fpA, nil)

	_, ok := rates.GetRate("cup", "teaspoon")
	assert.False(t, ok)

	rates.PutRate("cup", "teaspoon", 48)
	rate, ok := rates.GetRate("cup", "teaspoon")
	assert.True(t, ok)
	assert.Equal(t, 48.0, rate)

	t.Run("closed store degrades to misses", func(t *testing.T) {
		require.NoError(t, store.Close())
		rates.PutRate("cup", "pint", 0.5)
		_, ok := rates.GetRate("cup", "teaspoon")
		assert.False(t, ok)
	})
}

func TestKeyEncoding(t *testing.T) {
	key := rateKey(fpA, "cup", "teaspoon")
	fp, ok := fingerprintFromKey(key)
	assert.True(t, ok)
	assert.Equal(t, fpA, fp)

	_, ok = fingerprintFromKey([]byte{0x01, 'x'})
	assert.False(t, ok)

	rate, err := decodeRate(encodeRate(4.92892))
	require.NoError(t, err)
	assert.Equal(t, 4.92892, rate)

	_, err = decodeRate([]byte{1, 2, 3})
	assert.Error(t, err)
}
