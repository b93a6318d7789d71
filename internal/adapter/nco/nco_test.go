package nco

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/swe-api/internal/domain"
)

func TestSubsetArgs(t *testing.T) {
	w := domain.BoundingWindow{ULX: -100, ULY: 200, LRX: 300, LRY: -50}
	args := SubsetArgs("in.nc", "out.nc", w, "TB")
	assert.Equal(t, []string{
		"-O",
		"-d", "x,-100.000000,300.000000",
		"-d", "y,-50.000000,200.000000",
		"-v", "TB",
		"in.nc", "out.nc",
	}, args)
}

func TestConcatArgs(t *testing.T) {
	assert.Equal(t, []string{"-O", "a.nc", "b.nc", "all.nc"}, ConcatArgs([]string{"a.nc", "b.nc"}, "all.nc"))
}

// fakeTool installs a script that records its arguments.
func fakeTool(t *testing.T, dir, name string, exitCode int) string {
	t.Helper()
	record := filepath.Join(dir, name+".args")
	script := "#!/bin/sh\necho \"$@\" > " + record + "\necho boom >&2\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755)) //nolint:gosec // test executable
	return record
}

func TestRunner_InvokesTools(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	ncks := fakeTool(t, dir, "ncks", 0)
	ncrcat := fakeTool(t, dir, "ncrcat", 0)
	r := NewRunner(dir, nil)

	w := domain.BoundingWindow{ULX: 0, ULY: 10, LRX: 10, LRY: 0}
	require.NoError(t, r.Subset(context.Background(), "in.nc", "out.nc", w, "TB"))
	got, err := os.ReadFile(ncks)
	require.NoError(t, err)
	assert.Equal(t, "-O -d x,0.000000,10.000000 -d y,0.000000,10.000000 -v TB in.nc out.nc", strings.TrimSpace(string(got)))

	require.NoError(t, r.Concat(context.Background(), []string{"a.nc", "b.nc"}, "c.nc"))
	got, err = os.ReadFile(ncrcat)
	require.NoError(t, err)
	assert.Equal(t, "-O a.nc b.nc c.nc", strings.TrimSpace(string(got)))
}

func TestRunner_ReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	fakeTool(t, dir, "ncrcat", 1)
	r := NewRunner(dir, nil)

	err := r.Concat(context.Background(), []string{"a.nc"}, "b.nc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Error(t, r.Concat(context.Background(), nil, "b.nc"))
}
