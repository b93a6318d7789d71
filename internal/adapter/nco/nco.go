// Package nco runs the NetCDF Operators used to subset and concatenate
// downloaded files.
package nco

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/domain"
)

// Runner invokes ncks and ncrcat. All paths are passed explicitly; the
// working directory is never changed.
type Runner struct {
	binDir string
	logger *zap.SugaredLogger
}

// NewRunner creates a runner. An empty binDir resolves the tools on PATH.
func NewRunner(binDir string, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{binDir: binDir, logger: logger}
}

func (r *Runner) tool(name string) string {
	if r.binDir == "" {
		return name
	}
	return filepath.Join(r.binDir, name)
}

// SubsetArgs builds the ncks arguments that cut w out of in and keep only
// varName.
func SubsetArgs(in, out string, w domain.BoundingWindow, varName string) []string {
	minX, maxX := w.XRange()
	minY, maxY := w.YRange()
	return []string{
		"-O",
		"-d", fmt.Sprintf("x,%f,%f", minX, maxX),
		"-d", fmt.Sprintf("y,%f,%f", minY, maxY),
		"-v", varName,
		in, out,
	}
}

// ConcatArgs builds the ncrcat arguments joining inputs along the record
// dimension.
func ConcatArgs(inputs []string, out string) []string {
	args := make([]string, 0, len(inputs)+2)
	args = append(args, "-O")
	args = append(args, inputs...)
	return append(args, out)
}

// Subset writes the part of in that falls inside w to out.
func (r *Runner) Subset(ctx context.Context, in, out string, w domain.BoundingWindow, varName string) error {
	return r.run(ctx, "ncks", SubsetArgs(in, out, w, varName))
}

// Concat joins inputs in order into out.
func (r *Runner) Concat(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("ncrcat: no input files")
	}
	return r.run(ctx, "ncrcat", ConcatArgs(inputs, out))
}

func (r *Runner) run(ctx context.Context, name string, args []string) error {
	//nolint:gosec // G204: tool name is fixed, arguments are file paths and numbers.
	cmd := exec.CommandContext(ctx, r.tool(name), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debugf("running %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
