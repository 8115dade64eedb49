package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlscore/sqlscore/errs"
)

// interceptName is the coefficient name fitting libraries in the R
// tradition give the intercept.
const interceptName = "(Intercept)"

// Coefficient is one named coefficient of a fitted model.
type Coefficient struct {
	Name  string
	Value float64
}

// Summary is the input boundary for Parse: everything it needs from a
// fitted linear model. Fitting libraries encode categorical predictors as
// one-hot indicator columns whose coefficient names concatenate variable and
// level ("seasonSpring"); Factors supplies the metadata that makes those
// names classifiable.
type Summary struct {
	// Intercept is the fitted constant. Leave zero when the intercept
	// travels among Coefficients under the name "(Intercept)".
	Intercept float64
	// Coefficients holds the named coefficients in fitting order,
	// excluding the intercept unless it uses the "(Intercept)" name.
	Coefficients []Coefficient
	// Factors maps each categorical variable to its observed levels.
	Factors map[string][]string
}

// Parse classifies every coefficient of a fitted model summary once and
// returns the tagged Model. Classification is deterministic:
//
//  1. "(Intercept)" becomes the model intercept.
//  2. A name equal to variable+level for a declared factor becomes a
//     categorical-level term. When factor names overlap, the longest
//     variable name wins, ties broken lexicographically.
//  3. Any other plain identifier becomes a continuous term.
//
// Names that fit none of these, such as interaction terms ("depdelay:season")
// or transformed terms ("log(depdelay)"), abort the parse with an error
// wrapping ErrUnsupportedTerm; no partial model is returned. Interaction
// and transformed terms are a documented limitation of this translator.
//
// Parse is a pure transformation: the summary is not modified, and the
// returned model is independent of it.
func Parse(s Summary) (*Model, error) {
	factorVars := sortedFactorVariables(s.Factors)

	m := &Model{
		Intercept: s.Intercept,
		Terms:     make([]Term, 0, len(s.Coefficients)),
	}

	interceptSeen := false
	for _, c := range s.Coefficients {
		if c.Name == interceptName {
			if interceptSeen {
				return nil, fmt.Errorf("%w: %q", errs.ErrDuplicateTerm, interceptName)
			}
			if s.Intercept != 0 {
				return nil, fmt.Errorf("%w: both Summary.Intercept and a %q coefficient were provided", errs.ErrMalformedModel, interceptName)
			}
			m.Intercept = c.Value
			interceptSeen = true

			continue
		}

		term, err := classify(c, factorVars, s.Factors)
		if err != nil {
			return nil, err
		}
		m.Terms = append(m.Terms, term)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// classify resolves a single coefficient name against the factor metadata.
func classify(c Coefficient, factorVars []string, factors map[string][]string) (Term, error) {
	for _, variable := range factorVars {
		if !strings.HasPrefix(c.Name, variable) {
			continue
		}
		level := c.Name[len(variable):]
		if level == "" {
			continue
		}
		for _, known := range factors[variable] {
			if level == known {
				return Term{
					Name:        c.Name,
					Coefficient: c.Value,
					Kind:        KindCategoricalLevel,
					Variable:    variable,
					Level:       level,
				}, nil
			}
		}
	}

	if isIdentifier(c.Name) {
		return Term{Name: c.Name, Coefficient: c.Value, Kind: KindContinuous}, nil
	}

	if strings.Contains(c.Name, ":") {
		return Term{}, fmt.Errorf("%w: interaction term %q", errs.ErrUnsupportedTerm, c.Name)
	}

	return Term{}, fmt.Errorf("%w: %q", errs.ErrUnsupportedTerm, c.Name)
}

// sortedFactorVariables orders factor variables longest-first, then
// lexicographically, so overlapping names classify deterministically.
func sortedFactorVariables(factors map[string][]string) []string {
	vars := make([]string, 0, len(factors))
	for v := range factors {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		if len(vars[i]) != len(vars[j]) {
			return len(vars[i]) > len(vars[j])
		}

		return vars[i] < vars[j]
	})

	return vars
}

// isIdentifier reports whether the name is a plain column identifier:
// a letter or underscore followed by letters, digits, underscores or dots.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '.'):
		default:
			return false
		}
	}

	return true
}
