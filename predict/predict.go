// Package predict evaluates a parsed model locally, term by term, against
// rows of input values.
//
// The evaluator is the in-process twin of the sqlgen expression: both walk
// the same term sequence in the same order, so their results agree to
// floating-point rounding. Use it to score rows without a database, or as
// the reference side when validating generated SQL.
package predict

import (
	"fmt"

	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/options"
	"github.com/sqlscore/sqlscore/model"
)

// Option configures an Evaluator.
type Option = options.Option[*Evaluator]

// WithStrictLevels makes categorical values that match none of the model's
// known levels an error instead of silently scoring as the reference level.
//
// By default an unknown level contributes zero to every indicator, which is
// exactly how the generated SQL behaves; strict mode trades that symmetry
// for early detection of vocabulary drift between training and scoring
// data. The reference level carries no term and is therefore unknown to the
// model itself; declare it with WithKnownLevels when rows may contain it.
func WithStrictLevels() Option {
	return options.NoError(func(e *Evaluator) {
		e.strictLevels = true
	})
}

// WithKnownLevels declares additional acceptable levels for a categorical
// variable under strict checking, typically the reference level dropped
// during fitting. Levels for variables the model does not read are ignored.
func WithKnownLevels(variable string, levels ...string) Option {
	return options.NoError(func(e *Evaluator) {
		if e.extraLevels == nil {
			e.extraLevels = make(map[string][]string)
		}
		e.extraLevels[variable] = append(e.extraLevels[variable], levels...)
	})
}

// Evaluator scores rows against a fixed model.
//
// Evaluators are immutable after construction and safe for concurrent use.
type Evaluator struct {
	m            *model.Model
	strictLevels bool
	extraLevels  map[string][]string

	// levels holds the acceptable levels per categorical variable for the
	// strict check, built once at construction.
	levels map[string]map[string]struct{}
}

// New builds an evaluator for the model. The model is validated first; a
// model that fails validation is rejected as-is rather than producing
// undefined scores later.
//
// Parameters:
//   - m: the parsed model to score with
//   - opts: evaluator options (WithStrictLevels, WithKnownLevels)
//
// Returns:
//   - *Evaluator: ready-to-use evaluator
//   - error: validation failure from the model or an option
func New(m *model.Model, opts ...Option) (*Evaluator, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{m: m}
	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	if e.strictLevels {
		e.levels = make(map[string]map[string]struct{})
		for _, t := range m.Terms {
			if t.Kind != model.KindCategoricalLevel {
				continue
			}
			set, ok := e.levels[t.Variable]
			if !ok {
				set = make(map[string]struct{})
				e.levels[t.Variable] = set
			}
			set[t.Level] = struct{}{}
		}
		for variable, extra := range e.extraLevels {
			set, ok := e.levels[variable]
			if !ok {
				continue
			}
			for _, level := range extra {
				set[level] = struct{}{}
			}
		}
	}

	return e, nil
}

// Model returns the model this evaluator scores with.
func (e *Evaluator) Model() *model.Model {
	return e.m
}

// Predict computes intercept + Σ coefficient × indicator over the model's
// terms, in term order. Continuous terms read a numeric row value;
// categorical-level terms contribute their coefficient when the row's
// variable equals the term's level.
//
// A row missing a required variable aborts with ErrMissingVariable; a value
// of the wrong type aborts with ErrInvalidValue. Both abort scoring for
// this row only, the evaluator stays usable.
//
// Returns:
//   - float64: the predicted value
//   - error: nil on success
func (e *Evaluator) Predict(row model.Row) (float64, error) {
	sum := e.m.Intercept
	for _, t := range e.m.Terms {
		switch t.Kind {
		case model.KindContinuous:
			v, err := row.Float(t.Name)
			if err != nil {
				return 0, err
			}
			sum += t.Coefficient * v
		case model.KindCategoricalLevel:
			v, err := row.Text(t.Variable)
			if err != nil {
				return 0, err
			}
			if v == t.Level {
				sum += t.Coefficient
			}
		}
	}

	if e.strictLevels {
		if err := e.checkLevels(row); err != nil {
			return 0, err
		}
	}

	return sum, nil
}

// PredictAll scores every row, collecting per-row results. The returned
// error slice is index-aligned with rows; scores for failed rows are zero.
func (e *Evaluator) PredictAll(rows []model.Row) ([]float64, []error) {
	scores := make([]float64, len(rows))
	errors := make([]error, len(rows))
	for i, row := range rows {
		scores[i], errors[i] = e.Predict(row)
	}

	return scores, errors
}

// checkLevels verifies every categorical value appears among the accepted
// levels.
func (e *Evaluator) checkLevels(row model.Row) error {
	for variable, set := range e.levels {
		v, err := row.Text(variable)
		if err != nil {
			return err
		}
		if _, ok := set[v]; !ok {
			return fmt.Errorf("%w: variable %s has level %q", errs.ErrUnknownLevel, variable, v)
		}
	}

	return nil
}
