// Package validate cross-checks model evaluation paths against each other.
//
// Compare runs two predictors over the same rows and tallies per-row
// agreement; InDatabase loads rows into a SQL engine, evaluates the
// generated scoring expression there, and compares the engine's arithmetic
// against the local evaluator. Mismatches are report data, never errors:
// the harness returns an error only when it cannot run at all, and the
// caller decides how severe a non-empty failure list is.
package validate

import (
	"fmt"
	"math"

	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/options"
	"github.com/sqlscore/sqlscore/model"
)

// defaultTolerance is the relative agreement bound applied when no
// WithTolerance option is given.
const defaultTolerance = 1e-9

// Predictor scores one row. fit.Model and predict.Evaluator both satisfy
// it, as does any native model the caller wants certified.
type Predictor interface {
	Predict(model.Row) (float64, error)
}

// Failure records one row whose two predictions disagreed, or whose
// evaluation failed outright.
type Failure struct {
	// Index is the position of the row in the input slice.
	Index int
	// Native and Local are the two predictions. Both are zero when Err is set.
	Native float64
	Local  float64
	// Diff is |Native - Local|.
	Diff float64
	// Err is set when the row could not be evaluated on one side; such
	// rows count as failures without prediction values.
	Err error
}

// Report summarizes one comparison run.
type Report struct {
	// Pass counts rows whose predictions agreed within tolerance.
	Pass int
	// Fail counts rows that disagreed or failed to evaluate.
	Fail int
	// Failures holds one record per failing row, in input order.
	Failures []Failure
}

// Ok reports whether every row agreed within tolerance.
func (r Report) Ok() bool { return r.Fail == 0 }

// String returns a one-line summary of the run.
func (r Report) String() string {
	total := r.Pass + r.Fail
	if r.Ok() {
		return fmt.Sprintf("validation passed: %d/%d rows agree", r.Pass, total)
	}

	return fmt.Sprintf("validation failed: %d/%d rows disagree", r.Fail, total)
}

// config collects the comparison options shared by Compare and InDatabase.
type config struct {
	tolerance float64
	absolute  bool
}

func defaultConfig() config {
	return config{tolerance: defaultTolerance}
}

// Option configures Compare and InDatabase.
type Option = options.Option[*config]

// WithTolerance sets the agreement bound. The default is 1e-9, interpreted
// relative to the predictions' magnitude unless WithAbsolute is also given.
func WithTolerance(tol float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(tol) || tol < 0 {
			return fmt.Errorf("%w: tolerance %v", errs.ErrInvalidValue, tol)
		}
		cfg.tolerance = tol

		return nil
	}
}

// WithAbsolute makes the tolerance an absolute difference bound instead of
// a relative one.
func WithAbsolute() Option {
	return options.NoError(func(cfg *config) {
		cfg.absolute = true
	})
}

// within reports whether two predictions agree under the configured
// tolerance. The relative mode compares |a-b| against tol*max(1, |a|, |b|),
// so near-zero scores are not held to an impossible bound. A NaN on either
// side never agrees.
func (cfg config) within(a, b float64) bool {
	diff := math.Abs(a - b)
	if cfg.absolute {
		return diff <= cfg.tolerance
	}

	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale < 1 {
		scale = 1
	}

	return diff <= cfg.tolerance*scale
}

// Compare evaluates every row with both predictors and tallies agreement.
//
// A row that either predictor fails to evaluate is recorded as a Failure
// with Err set, and the run continues with the next row. A disagreement
// beyond tolerance is recorded with both values and their difference.
// Compare returns an error only for unusable arguments; mismatches are
// data. An empty row slice yields an empty, passing report.
//
// Parameters:
//   - native: The reference predictor, typically the fitting library's own path
//   - local: The predictor under certification
//   - rows: Rows to score on both sides
//   - opts: Tolerance configuration
//
// Returns:
//   - Report: Per-row agreement tally
//   - error: Nil unless a predictor is missing or an option is invalid
func Compare(native, local Predictor, rows []model.Row, opts ...Option) (Report, error) {
	if native == nil || local == nil {
		return Report{}, fmt.Errorf("%w: both predictors are required", errs.ErrInvalidValue)
	}

	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Report{}, err
	}

	var report Report
	for i, row := range rows {
		nv, err := native.Predict(row)
		if err != nil {
			report.Fail++
			report.Failures = append(report.Failures, Failure{Index: i, Err: fmt.Errorf("native prediction: %w", err)})

			continue
		}

		lv, err := local.Predict(row)
		if err != nil {
			report.Fail++
			report.Failures = append(report.Failures, Failure{Index: i, Err: fmt.Errorf("local prediction: %w", err)})

			continue
		}

		if cfg.within(nv, lv) {
			report.Pass++

			continue
		}

		report.Fail++
		report.Failures = append(report.Failures, Failure{
			Index:  i,
			Native: nv,
			Local:  lv,
			Diff:   math.Abs(nv - lv),
		})
	}

	return report, nil
}
