// Package fit estimates linear models by ordinary least squares on
// in-memory rows.
//
// The fitter is deliberately small, a single-purpose companion to the rest
// of the module rather than a modeling library. Numeric predictors enter
// the design matrix unchanged; string-valued predictors become factors
// encoded as one-hot indicator columns with one level dropped as the
// reference. The system is solved by QR decomposition through gonum.
//
// A fitted Model is available in three shapes: a tagged *model.Model for
// SQL generation and local evaluation, a model.Summary in the
// concatenated-name convention of R-style fitting libraries, and a native
// Predict path for cross-checking the other two.
package fit

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/options"
	"github.com/sqlscore/sqlscore/model"
)

// config collects the fitting options applied by Linear.
type config struct {
	refLevels map[string]string
}

// Option configures Linear.
type Option = options.Option[*config]

// WithReferenceLevel picks the level of a factor variable that is dropped
// from the design matrix. The default reference is the first level in
// sorted order. The variable must be a string-valued predictor and the
// level must be observed in the rows.
func WithReferenceLevel(variable, level string) Option {
	return options.NoError(func(cfg *config) {
		cfg.refLevels[variable] = level
	})
}

// column is one design-matrix column: a continuous variable, or one
// indicator of a factor level.
type column struct {
	variable string
	level    string // empty for continuous columns
}

// name returns the concatenated coefficient name of this column.
func (c column) name() string { return c.variable + c.level }

// value returns the design-matrix entry of this column for one row.
func (c column) value(row model.Row) (float64, error) {
	if c.level == "" {
		return finiteFloat(row, c.variable)
	}

	v, err := row.Text(c.variable)
	if err != nil {
		return 0, err
	}
	if v == c.level {
		return 1, nil
	}

	return 0, nil
}

// Linear fits response ~ predictors on rows by ordinary least squares.
//
// Every row must carry the response and every predictor. A predictor whose
// values are strings becomes a factor: its distinct levels are collected
// and sorted, the reference level (the first in sorted order unless
// overridden by WithReferenceLevel) is dropped, and the remaining levels
// enter the design matrix as 0/1 indicator columns. Numeric predictors
// enter unchanged. An intercept column is always included.
//
// Parameters:
//   - rows: Observations, one Row per case
//   - response: Name of the numeric variable to predict
//   - predictors: Names of the model variables, in design-matrix order
//   - opts: Optional fitting configuration
//
// Returns:
//   - *Model: Fitted model with coefficients and fit statistics
//   - error: ErrNoRows for empty input, ErrNoTerms for empty predictors,
//     ErrSingularDesign when the system cannot be solved, or a row-level
//     error (ErrMissingVariable, ErrInvalidValue) naming the offending row
//
// Example:
//
//	fitted, err := fit.Linear(rows, "arrdelay", []string{"depdelay", "season"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	expr, _ := sqlgen.Expression(fitted.Parsed(), dialect.SQLite{})
func Linear(rows []model.Row, response string, predictors []string, opts ...Option) (*Model, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: fitting needs at least one observation", errs.ErrNoRows)
	}
	if len(predictors) == 0 {
		return nil, fmt.Errorf("%w: no predictors named", errs.ErrNoTerms)
	}

	cfg := &config{refLevels: make(map[string]string)}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(predictors))
	for _, name := range predictors {
		if name == response {
			return nil, fmt.Errorf("%w: response %q also listed as predictor", errs.ErrDuplicateTerm, name)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: predictor %q listed twice", errs.ErrDuplicateTerm, name)
		}
		seen[name] = struct{}{}
	}

	cols, factors, err := designColumns(rows, predictors, cfg.refLevels)
	if err != nil {
		return nil, err
	}

	n := len(rows)
	p := len(cols) + 1
	if n < p {
		return nil, fmt.Errorf("%w: %d rows cannot determine %d coefficients", errs.ErrSingularDesign, n, p)
	}

	design := mat.NewDense(n, p, nil)
	resp := mat.NewDense(n, 1, nil)
	observed := make([]float64, n)
	for i, row := range rows {
		v, err := finiteFloat(row, response)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		resp.Set(i, 0, v)
		observed[i] = v

		design.Set(i, 0, 1)
		for j, c := range cols {
			x, err := c.value(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			design.Set(i, j+1, x)
		}
	}

	// Least-squares solve via QR. gonum reports rank deficiency and
	// near-singularity as an error, which is exactly the collinear-design
	// case (duplicated predictors, constant columns, aliased factors).
	var beta mat.Dense
	if err := beta.Solve(design, resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSingularDesign, err)
	}

	intercept := beta.At(0, 0)
	coefs := make([]float64, len(cols))
	for j := range cols {
		coefs[j] = beta.At(j+1, 0)
	}

	parsed, err := taggedModel(intercept, cols, coefs)
	if err != nil {
		return nil, err
	}

	var fitted mat.Dense
	fitted.Mul(design, &beta)
	predicted := make([]float64, n)
	for i := range predicted {
		predicted[i] = fitted.At(i, 0)
	}

	return &Model{
		response:  response,
		intercept: intercept,
		cols:      cols,
		coefs:     coefs,
		factors:   factors,
		parsed:    parsed,
		rsquared:  rSquared(observed, predicted),
		rmse:      rmse(observed, predicted),
		n:         n,
	}, nil
}

// designColumns classifies each predictor and expands factors into
// indicator columns with the reference level dropped. It also collects the
// factor level metadata reported by Model.Summary.
func designColumns(rows []model.Row, predictors []string, refLevels map[string]string) ([]column, map[string][]string, error) {
	cols := make([]column, 0, len(predictors))
	factors := make(map[string][]string)
	names := make(map[string]string, len(predictors))

	for _, name := range predictors {
		kind, err := columnKind(rows, name)
		if err != nil {
			return nil, nil, err
		}

		if kind == model.KindContinuous {
			if err := claim(names, name, name); err != nil {
				return nil, nil, err
			}
			cols = append(cols, column{variable: name})

			continue
		}

		levels, err := observedLevels(rows, name)
		if err != nil {
			return nil, nil, err
		}
		if len(levels) < 2 {
			return nil, nil, fmt.Errorf("%w: factor %q has a single level %q", errs.ErrSingularDesign, name, levels[0])
		}

		ref := levels[0]
		if override, ok := refLevels[name]; ok {
			if !slices.Contains(levels, override) {
				return nil, nil, fmt.Errorf("%w: reference level %q not observed for %q", errs.ErrUnknownLevel, override, name)
			}
			ref = override
		}

		factors[name] = levels
		for _, level := range levels {
			if level == ref {
				continue
			}
			if err := claim(names, name+level, name); err != nil {
				return nil, nil, err
			}
			cols = append(cols, column{variable: name, level: level})
		}
	}

	// Reference overrides must name factors that are actually in the model.
	overridden := make([]string, 0, len(refLevels))
	for variable := range refLevels {
		overridden = append(overridden, variable)
	}
	slices.Sort(overridden)
	for _, variable := range overridden {
		if _, ok := factors[variable]; !ok {
			return nil, nil, fmt.Errorf("%w: %q is not a factor variable of this model", errs.ErrUnknownLevel, variable)
		}
	}

	return cols, factors, nil
}

// columnKind decides whether a predictor is continuous or a factor by
// inspecting its values. Mixing numbers and strings in one column is an
// error, not a guess.
func columnKind(rows []model.Row, name string) (model.TermKind, error) {
	var kind model.TermKind
	for i, row := range rows {
		v, ok := row[name]
		if !ok {
			return 0, fmt.Errorf("row %d: %w: %s", i, errs.ErrMissingVariable, name)
		}

		k := model.KindContinuous
		if _, isText := v.(string); isText {
			k = model.KindCategoricalLevel
		} else if _, err := row.Float(name); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}

		if kind == 0 {
			kind = k

			continue
		}
		if kind != k {
			return 0, fmt.Errorf("%w: variable %q mixes numeric and text values", errs.ErrInvalidValue, name)
		}
	}

	return kind, nil
}

// observedLevels collects the distinct values of a factor column, sorted.
func observedLevels(rows []model.Row, name string) ([]string, error) {
	set := make(map[string]struct{})
	for i, row := range rows {
		v, err := row.Text(name)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		set[v] = struct{}{}
	}

	levels := make([]string, 0, len(set))
	for level := range set {
		levels = append(levels, level)
	}
	slices.Sort(levels)

	return levels, nil
}

// claim reserves a coefficient name, rejecting collisions such as a
// continuous "windspeed" clashing with level "speed" of factor "wind".
func claim(names map[string]string, coefName, variable string) error {
	if prev, ok := names[coefName]; ok {
		return fmt.Errorf("%w: coefficient %q produced by both %q and %q", errs.ErrDuplicateTerm, coefName, prev, variable)
	}
	names[coefName] = variable

	return nil
}
