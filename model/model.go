package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/hash"
)

// TermKind classifies how a model term consumes its input variable.
type TermKind uint8

const (
	// KindContinuous represents a direct numeric predictor: the term
	// contributes coefficient × value.
	KindContinuous TermKind = 0x1
	// KindCategoricalLevel represents a one-hot indicator for a single
	// factor level: the term contributes its coefficient only when the
	// variable equals the level.
	KindCategoricalLevel TermKind = 0x2
)

// String returns the persisted name of the term kind.
func (k TermKind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindCategoricalLevel:
		return "categorical_level"
	default:
		return "unknown"
	}
}

// KindFromString returns the TermKind for a persisted kind name.
// It returns 0 (invalid) for unknown names.
func KindFromString(name string) TermKind {
	switch name {
	case "continuous":
		return KindContinuous
	case "categorical_level":
		return KindCategoricalLevel
	default:
		return 0
	}
}

// Term is a single fitted coefficient with its classification.
//
// Variable and Level are populated only for KindCategoricalLevel terms;
// continuous terms are addressed by Name alone.
type Term struct {
	// Name is the coefficient name as reported by the fitting routine,
	// e.g. "depdelay" or "seasonSpring". Names are unique within a model.
	Name string
	// Coefficient is the fitted weight of this term.
	Coefficient float64
	// Kind classifies the term.
	Kind TermKind
	// Variable is the categorical variable name (categorical terms only).
	Variable string
	// Level is the factor level this term indicates (categorical terms only).
	Level string
}

// VariableName returns the row key this term reads: the term name for
// continuous terms, the factor variable for categorical-level terms.
func (t Term) VariableName() string {
	if t.Kind == KindCategoricalLevel {
		return t.Variable
	}

	return t.Name
}

// Model is the parsed, tagged representation of a fitted linear regression:
// an intercept plus an ordered term sequence. The prediction for a row is
// intercept + Σ coefficient × indicator(term, row).
//
// Models are immutable once constructed and safe for concurrent use.
type Model struct {
	// Intercept is the constant contribution.
	Intercept float64
	// Terms holds the model terms in fitting order. Order is significant:
	// generated SQL and local evaluation both follow it, so identical
	// models always produce identical output.
	Terms []Term
}

// Validate checks the structural invariants: unique non-empty term names,
// finite coefficients, and kind-consistent variable/level fields.
//
// Returns:
//   - nil when the model is well formed
//   - an error wrapping ErrDuplicateTerm, ErrNonFiniteCoefficient or
//     ErrMalformedModel otherwise
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil model", errs.ErrMalformedModel)
	}
	if !isFinite(m.Intercept) {
		return fmt.Errorf("%w: intercept is %v", errs.ErrNonFiniteCoefficient, m.Intercept)
	}

	seen := make(map[string]struct{}, len(m.Terms))
	for i, t := range m.Terms {
		if t.Name == "" {
			return fmt.Errorf("%w: term %d has an empty name", errs.ErrMalformedModel, i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: %q", errs.ErrDuplicateTerm, t.Name)
		}
		seen[t.Name] = struct{}{}

		if !isFinite(t.Coefficient) {
			return fmt.Errorf("%w: term %q is %v", errs.ErrNonFiniteCoefficient, t.Name, t.Coefficient)
		}

		switch t.Kind {
		case KindContinuous:
			if t.Variable != "" || t.Level != "" {
				return fmt.Errorf("%w: continuous term %q carries variable/level metadata", errs.ErrMalformedModel, t.Name)
			}
		case KindCategoricalLevel:
			if t.Variable == "" || t.Level == "" {
				return fmt.Errorf("%w: categorical term %q needs both variable and level", errs.ErrMalformedModel, t.Name)
			}
		default:
			return fmt.Errorf("%w: term %q has unknown kind %d", errs.ErrMalformedModel, t.Name, t.Kind)
		}
	}

	return nil
}

// Term returns the term with the given name.
func (m *Model) Term(name string) (Term, bool) {
	for _, t := range m.Terms {
		if t.Name == name {
			return t, true
		}
	}

	return Term{}, false
}

// Variables returns the distinct input variables the model reads, in first
// appearance order. Categorical variables appear once regardless of how many
// levels carry terms.
func (m *Model) Variables() []string {
	seen := make(map[string]struct{}, len(m.Terms))
	vars := make([]string, 0, len(m.Terms))
	for _, t := range m.Terms {
		name := t.VariableName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, name)
	}

	return vars
}

// Levels returns the non-reference levels the model carries for a
// categorical variable, in term order. The reference level never has a term
// and is therefore not included.
func (m *Model) Levels(variable string) []string {
	var levels []string
	for _, t := range m.Terms {
		if t.Kind == KindCategoricalLevel && t.Variable == variable {
			levels = append(levels, t.Level)
		}
	}

	return levels
}

// Fingerprint returns a stable xxHash64 identity of the model: equal models
// always hash equal, and any change to the intercept, a coefficient, or a
// term's classification changes the sum. Useful for detecting drift between
// an in-memory model and a persisted copy.
func (m *Model) Fingerprint() uint64 {
	b := make([]byte, 0, 64+32*len(m.Terms))
	b = strconv.AppendFloat(b, m.Intercept, 'g', -1, 64)
	for _, t := range m.Terms {
		b = append(b, 0)
		b = append(b, t.Name...)
		b = append(b, 0)
		b = strconv.AppendFloat(b, t.Coefficient, 'g', -1, 64)
		b = append(b, 0, byte(t.Kind), 0)
		b = append(b, t.Variable...)
		b = append(b, 0)
		b = append(b, t.Level...)
	}

	return hash.Sum(b)
}

// Formula returns a human-readable rendering of the model, e.g.
// "0.5 + 0.9*depdelay + -1.2*(season=Spring)". Intended for display; use
// the sqlgen package for expressions a database can evaluate.
func (m *Model) Formula() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatFloat(m.Intercept, 'g', -1, 64))
	for _, t := range m.Terms {
		sb.WriteString(" + ")
		sb.WriteString(strconv.FormatFloat(t.Coefficient, 'g', -1, 64))
		sb.WriteByte('*')
		if t.Kind == KindCategoricalLevel {
			sb.WriteByte('(')
			sb.WriteString(t.Variable)
			sb.WriteByte('=')
			sb.WriteString(t.Level)
			sb.WriteByte(')')
		} else {
			sb.WriteString(t.Name)
		}
	}

	return sb.String()
}

// String returns a short summary of the model.
func (m *Model) String() string {
	return fmt.Sprintf("Model{Terms: %d, Fingerprint: %016x}", len(m.Terms), m.Fingerprint())
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
