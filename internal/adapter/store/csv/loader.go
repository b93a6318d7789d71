// Package csv reads and writes melt-onset counts, class breaks and summer
// change maps as CSV.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/swe-api/internal/domain"
)

const dateLayout = "2006-01-02"

var (
	meltHeader   = []string{"date", "count"}
	breaksHeader = []string{"class", "lower", "upper"}
	changeHeader = []string{"row", "col", "x", "y", "change"}
)

// Store keeps CSV exports under one output directory.
type Store struct {
	outDir string
}

// NewStore creates a CSV store rooted at outDir.
func NewStore(outDir string) *Store {
	return &Store{
		outDir: outDir,
	}
}

// Path returns the location of a named export.
func (s *Store) Path(name string) string {
	return filepath.Join(s.outDir, name)
}

// WriteMeltCounts writes one row per day.
func (s *Store) WriteMeltCounts(name string, counts []domain.MeltCount) (string, error) {
	rows := make([][]string, 0, len(counts))
	for _, mc := range counts {
		rows = append(rows, []string{mc.Date.Format(dateLayout), strconv.Itoa(mc.Count)})
	}
	return s.write(name, meltHeader, rows)
}

// WriteBreaks writes one row per class with its lower and upper bounds.
func (s *Store) WriteBreaks(name string, breaks []float64) (string, error) {
	if len(breaks) < 2 {
		return "", fmt.Errorf("need at least 2 breaks, got %d", len(breaks))
	}
	rows := make([][]string, 0, len(breaks)-1)
	for i := 1; i < len(breaks); i++ {
		rows = append(rows, []string{
			strconv.Itoa(i - 1),
			strconv.FormatFloat(breaks[i-1], 'f', -1, 64),
			strconv.FormatFloat(breaks[i], 'f', -1, 64),
		})
	}
	return s.write(name, breaksHeader, rows)
}

// WriteSummerChange writes one row per pixel with a known change. x and y
// are the column and row centers of the map.
func (s *Store) WriteSummerChange(name string, change *domain.Cube, x, y []float64) (string, error) {
	if change.T != 1 {
		return "", fmt.Errorf("expected a single-step change map, got %d steps", change.T)
	}
	if len(x) < change.Cols || len(y) < change.Rows {
		return "", fmt.Errorf("coordinates %dx%d do not cover a %dx%d map", len(y), len(x), change.Rows, change.Cols)
	}
	var rows [][]string
	for r := 0; r < change.Rows; r++ {
		for col := 0; col < change.Cols; col++ {
			v := change.At(0, r, col)
			if domain.IsMissing(v) || domain.IsOcean(v) {
				continue
			}
			rows = append(rows, []string{
				strconv.Itoa(r),
				strconv.Itoa(col),
				strconv.FormatFloat(x[col], 'f', -1, 64),
				strconv.FormatFloat(y[r], 'f', -1, 64),
				strconv.FormatFloat(v, 'f', -1, 64),
			})
		}
	}
	return s.write(name, changeHeader, rows)
}

func (s *Store) write(name string, header []string, rows [][]string) (_ string, err error) {
	if err := os.MkdirAll(s.outDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := s.Path(name)
	//nolint:gosec // G304: File path constructed from outDir (config) and a fixed export name.
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write CSV records: %w", err)
	}
	return path, nil
}

// LoadMeltCounts reads a file written by WriteMeltCounts.
func (s *Store) LoadMeltCounts(name string) ([]domain.MeltCount, error) {
	path := s.Path(name)
	//nolint:gosec // G304: File path constructed from outDir (config) and a fixed export name.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(meltHeader) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", meltHeader, header)
	}
	for i, h := range header {
		if h != meltHeader[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, meltHeader[i], h)
		}
	}

	counts := make([]domain.MeltCount, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("invalid CSV record: expected 2 columns, got %d", len(record))
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", record[0], err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid count for %s: %w", record[0], err)
		}
		counts = append(counts, domain.MeltCount{Date: date, Count: n})
	}
	return counts, nil
}
