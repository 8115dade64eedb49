// Package sqlgen renders a parsed model as a SQL arithmetic expression, so
// scoring runs inside the database instead of pulling rows out.
//
// The generated text is a single projection-safe expression: continuous
// terms multiply their column directly, categorical-level terms multiply a
// CASE WHEN indicator, and every float literal keeps full round-trip
// precision. Output is deterministic: the same model and dialect always
// produce byte-identical text.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/model"
)

// Expression renders the model's scoring arithmetic for the dialect:
//
//	0.5 + (0.9 * "depdelay") + (-1.2 * CASE WHEN "season" = 'Spring' THEN 1.0 ELSE 0.0 END)
//
// Terms appear in model order. The expression references only the model's
// variables and is valid anywhere the engine accepts an expression, such
// as a SELECT projection, a WHERE clause, or an index definition.
//
// Parameters:
//   - m: the parsed model to render
//   - d: the target dialect
//
// Returns:
//   - string: the scoring expression
//   - error: model validation failure, or ErrUnknownDialect for a nil dialect
func Expression(m *model.Model, d dialect.Dialect) (string, error) {
	if d == nil {
		return "", fmt.Errorf("%w: nil dialect", errs.ErrUnknownDialect)
	}
	if err := m.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(d.FormatFloat(m.Intercept))
	for _, t := range m.Terms {
		sb.WriteString(" + (")
		sb.WriteString(d.FormatFloat(t.Coefficient))
		sb.WriteString(" * ")
		switch t.Kind {
		case model.KindContinuous:
			sb.WriteString(d.QuoteIdentifier(t.Name))
		case model.KindCategoricalLevel:
			sb.WriteString("CASE WHEN ")
			sb.WriteString(d.QuoteIdentifier(t.Variable))
			sb.WriteString(" = ")
			sb.WriteString(d.QuoteString(t.Level))
			sb.WriteString(" THEN 1.0 ELSE 0.0 END")
		}
		sb.WriteString(")")
	}

	return sb.String(), nil
}

// Select wraps the scoring expression in a full projection over a table:
//
//	SELECT *, <expression> AS "score" FROM "flights"
//
// An empty alias defaults to "score"; an empty table name is ErrEmptyTable.
func Select(m *model.Model, d dialect.Dialect, table, alias string) (string, error) {
	if table == "" {
		return "", errs.ErrEmptyTable
	}
	if alias == "" {
		alias = "score"
	}

	expr, err := Expression(m, d)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("SELECT *, %s AS %s FROM %s",
		expr, d.QuoteIdentifier(alias), d.QuoteIdentifier(table)), nil
}
