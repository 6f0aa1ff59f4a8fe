package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "recipeconv v"+version)
}

func TestConvert_Stdin(t *testing.T) {
	out, err := run(t, "1 cup flour\n2 oz butter\n", "convert")
	require.NoError(t, err)
	assert.Equal(t, "125 g flour\n56.7 g butter\n", out)
}

func TestConvert_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("1 cup flour\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("2 oz butter\n"), 0644))

	out, err := run(t, "", "convert", "--multiplier", "2", a)
	require.NoError(t, err)
	assert.Equal(t, "250 g flour\n", out)

	out, err = run(t, "", "convert", a, b)
	require.NoError(t, err)
	assert.Equal(t, "==> "+a+" <==\n125 g flour\n\n==> "+b+" <==\n56.7 g butter\n", out)

	_, err = run(t, "", "convert", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestLine(t *testing.T) {
	out, err := run(t, "", "line", "3", "cup", "mystery-powder")
	require.NoError(t, err)
	assert.Equal(t, "3 cup mystery-powder\n", out)

	_, err = run(t, "", "line", "--multiplier", "-1", "1 cup flour")
	assert.Error(t, err)
}

func TestUnit(t *testing.T) {
	out, err := run(t, "", "unit", "cup", "tablespoon")
	require.NoError(t, err)
	assert.Equal(t, "16\n", out)

	out, err = run(t, "", "unit", "--multiplier", "0.5", "cup", "tablespoon")
	require.NoError(t, err)
	assert.Equal(t, "8\n", out)

	_, err = run(t, "", "unit", "cup", "furlong")
	assert.Error(t, err)
}

func TestGraph(t *testing.T) {
	out, err := run(t, "", "graph", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "cup -> tablespoon  16\n")
	assert.Contains(t, out, "  0  cup\n")
	assert.True(t, strings.HasSuffix(out, "consistent\n"))
}

func TestInitAndConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipeconv.yaml")

	out, err := run(t, "", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run(t, "", "init", path)
	assert.Error(t, err, "refuses to overwrite")

	out, err = run(t, "", "--config", path, "line", "1 cup flour")
	require.NoError(t, err)
	assert.Equal(t, "125 g flour\n", out)
}

func TestBadLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "line", "1 cup flour")
	assert.Error(t, err)
}
