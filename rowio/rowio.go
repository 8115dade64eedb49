// Package rowio loads tabular rows from CSV files into the model.Row form
// the evaluator, fitter and validator consume.
//
// The header row names the variables. Cells that parse as finite floats
// become float64 values; everything else stays a string, so categorical
// levels survive untouched. Numeric-looking categorical codes (zip codes,
// airport numbers) can be pinned as strings with WithStringColumns. A blank
// cell leaves the variable absent from that row, which downstream
// evaluation reports as ErrMissingVariable.
//
// Compressed files are transparent: the extension picks the codec, exactly
// as in the model package's file helpers.
package rowio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sqlscore/sqlscore/compress"
	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/options"
	"github.com/sqlscore/sqlscore/model"
)

type config struct {
	comma         rune
	stringColumns map[string]struct{}
}

// Option configures reading.
type Option = options.Option[*config]

// WithStringColumns pins the named columns as strings, so values that
// happen to look numeric stay categorical levels.
func WithStringColumns(names ...string) Option {
	return options.NoError(func(c *config) {
		for _, name := range names {
			c.stringColumns[name] = struct{}{}
		}
	})
}

// WithComma sets the field delimiter, e.g. '\t' for TSV input.
func WithComma(comma rune) Option {
	return options.NoError(func(c *config) {
		c.comma = comma
	})
}

// ReadFile loads rows from a CSV file, decompressing by file extension
// first (.gz, .zst, .lz4, .s2).
func ReadFile(path string, opts ...Option) ([]model.Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data, err := compress.ForPath(path).Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}

	return Read(bytes.NewReader(data), opts...)
}

// Read loads rows from CSV input. The first record is the header; an input
// with no header at all is ErrNoRows. A header-only input returns an empty
// slice, not an error.
func Read(r io.Reader, opts ...Option) ([]model.Row, error) {
	cfg := &config{
		comma:         ',',
		stringColumns: make(map[string]struct{}),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = cfg.comma

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: input has no header row", errs.ErrNoRows)
		}
		return nil, err
	}

	rows := make([]model.Row, 0, 64)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make(model.Row, len(header))
		for i, cell := range record {
			if cell == "" {
				continue
			}
			name := header[i]
			if _, pinned := cfg.stringColumns[name]; pinned {
				row[name] = cell
				continue
			}
			if f, ok := parseFloat(cell); ok {
				row[name] = f
			} else {
				row[name] = cell
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseFloat accepts only finite numbers: "NaN" and "Inf" in a data file
// are level strings, not values a model can score.
func parseFloat(cell string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
