// Package sample generates the SQL that pulls a training sample out of a
// large table. It only builds query text; executing it stays with the
// caller and their database driver.
package sample

import (
	"fmt"
	"math"

	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/errs"
)

// Rows returns a query selecting a uniform sample of n rows from the table.
//
// Parameters:
//   - d: target dialect; must implement dialect.RowSampler
//   - table: source table name
//   - n: sample size, must be positive
//
// Returns:
//   - string: the sampling query
//   - error: ErrEmptyTable, ErrInvalidSampleSize, ErrSamplingUnsupported
func Rows(d dialect.Dialect, table string, n int) (string, error) {
	sampler, err := samplerFor(d, table)
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: %d", errs.ErrInvalidSampleSize, n)
	}

	return sampler.SampleRows(table, n), nil
}

// Fraction returns a query selecting roughly the given fraction of the
// table's rows, using Bernoulli-style sampling where the engine has it.
//
// Parameters:
//   - d: target dialect; must implement dialect.RowSampler
//   - table: source table name
//   - f: sampling fraction in (0, 1]
//
// Returns:
//   - string: the sampling query
//   - error: ErrEmptyTable, ErrInvalidFraction, ErrSamplingUnsupported
func Fraction(d dialect.Dialect, table string, f float64) (string, error) {
	sampler, err := samplerFor(d, table)
	if err != nil {
		return "", err
	}
	if math.IsNaN(f) || f <= 0 || f > 1 {
		return "", fmt.Errorf("%w: %v", errs.ErrInvalidFraction, f)
	}

	return sampler.SampleFraction(table, f), nil
}

func samplerFor(d dialect.Dialect, table string) (dialect.RowSampler, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil dialect", errs.ErrUnknownDialect)
	}
	if table == "" {
		return nil, errs.ErrEmptyTable
	}

	sampler, ok := d.(dialect.RowSampler)
	if !ok {
		return nil, fmt.Errorf("%w: dialect %s", errs.ErrSamplingUnsupported, d.Name())
	}

	return sampler, nil
}
