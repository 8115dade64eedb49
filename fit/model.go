package fit

import (
	"fmt"
	"math"
	"slices"

	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/model"
)

// Model is a fitted linear model together with its fit statistics. It
// exposes the fit in the three shapes the rest of the module consumes: a
// tagged *model.Model, an R-style model.Summary, and a native Predict
// path.
type Model struct {
	response  string
	intercept float64
	cols      []column
	coefs     []float64
	factors   map[string][]string
	parsed    *model.Model
	rsquared  float64
	rmse      float64
	n         int
}

// Response returns the name of the predicted variable.
func (m *Model) Response() string { return m.response }

// Parsed returns the fitted model with tagged terms. Terms are tagged
// directly from the design columns, so no coefficient-name parsing is
// involved and overlapping factor names cannot misclassify anything.
func (m *Model) Parsed() *model.Model { return m.parsed }

// Summary returns the fit in the concatenated-name convention of R-style
// fitting libraries: an "(Intercept)" coefficient plus one variable+level
// coefficient per design column, with the factor level metadata needed to
// classify them. model.Parse(m.Summary()) reproduces Parsed exactly.
func (m *Model) Summary() model.Summary {
	coefs := make([]model.Coefficient, 0, len(m.cols)+1)
	coefs = append(coefs, model.Coefficient{Name: "(Intercept)", Value: m.intercept})
	for j, c := range m.cols {
		coefs = append(coefs, model.Coefficient{Name: c.name(), Value: m.coefs[j]})
	}

	factors := make(map[string][]string, len(m.factors))
	for variable, levels := range m.factors {
		factors[variable] = slices.Clone(levels)
	}

	return model.Summary{Coefficients: coefs, Factors: factors}
}

// Predict evaluates the fitted model on one row through the design-vector
// path, independent of the predict package. A factor value unseen at fit
// time sets every indicator of that variable to zero and therefore scores
// as the reference level.
//
// Returns an error wrapping ErrMissingVariable or ErrInvalidValue when the
// row cannot supply a design vector.
func (m *Model) Predict(row model.Row) (float64, error) {
	sum := m.intercept
	for j, c := range m.cols {
		v, err := c.value(row)
		if err != nil {
			return 0, err
		}
		sum += m.coefs[j] * v
	}

	return sum, nil
}

// RSquared returns the coefficient of determination of the fit.
func (m *Model) RSquared() float64 { return m.rsquared }

// RMSE returns the root mean square error of the fit.
func (m *Model) RMSE() float64 { return m.rmse }

// N returns the number of observations the model was fitted on.
func (m *Model) N() int { return m.n }

// String returns a human-readable description of the fit.
func (m *Model) String() string {
	return fmt.Sprintf("Model{Response: %s, Formula: %s, R²: %.4f, RMSE: %.4f, N: %d}",
		m.response, m.parsed.Formula(), m.rsquared, m.rmse, m.n)
}

// taggedModel builds the tagged model straight from the design columns.
func taggedModel(intercept float64, cols []column, coefs []float64) (*model.Model, error) {
	m := &model.Model{
		Intercept: intercept,
		Terms:     make([]model.Term, len(cols)),
	}
	for j, c := range cols {
		t := model.Term{Name: c.name(), Coefficient: coefs[j], Kind: model.KindContinuous}
		if c.level != "" {
			t.Kind = model.KindCategoricalLevel
			t.Variable = c.variable
			t.Level = c.level
		}
		m.Terms[j] = t
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// finiteFloat reads a numeric variable and rejects NaN and infinities,
// which would otherwise poison the least-squares solve.
func finiteFloat(row model.Row, name string) (float64, error) {
	v, err := row.Float(name)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: variable %s has non-finite value %v", errs.ErrInvalidValue, name, v)
	}

	return v, nil
}

// rSquared returns the coefficient of determination, 1 - SSres/SStot. A
// constant response has no variance to explain and reports 0.
func rSquared(observed, predicted []float64) float64 {
	mean := 0.0
	for _, v := range observed {
		mean += v
	}
	mean /= float64(len(observed))

	ssTot := 0.0
	ssRes := 0.0
	for i := range observed {
		d := observed[i] - mean
		ssTot += d * d
		r := observed[i] - predicted[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}

	return 1.0 - ssRes/ssTot
}

// rmse returns the root mean square prediction error over the fit sample.
func rmse(observed, predicted []float64) float64 {
	sumSq := 0.0
	for i := range observed {
		d := observed[i] - predicted[i]
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(observed)))
}
