package validate

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/internal/options"
	"github.com/sqlscore/sqlscore/model"
	"github.com/sqlscore/sqlscore/predict"
	"github.com/sqlscore/sqlscore/sqlgen"
)

// ordColumn orders the result set back into input-row order; a table has
// no inherent row order to rely on.
const ordColumn = "scorecheck_ord"

// tableColumn pairs a model variable with the column type it loads into.
type tableColumn struct {
	name string
	kind model.TermKind
}

// InDatabase certifies the generated SQL expression against the local
// evaluator inside a live database engine.
//
// The harness creates a temporary table shaped from the model's variables
// (DOUBLE PRECISION for continuous, TEXT for categorical), inserts the
// rows, selects the sqlgen expression over them, and compares each score
// the engine computed against the local evaluation of the same row.
// Values a row cannot supply load as NULL, and such rows are recorded as
// failures, mirroring Compare's treatment of evaluation errors.
//
// The caller owns the *sql.DB: this package never opens connections and
// imports no driver. All statements run on one connection from the pool so
// the temporary table stays visible throughout, and the table is dropped
// before returning.
//
// Parameters:
//   - ctx: Cancels the database work
//   - db: Open handle to any engine the dialect describes
//   - m: Model whose expression is under certification
//   - d: Dialect the expression is rendered in
//   - rows: Sample rows to score on both paths
//   - opts: Tolerance configuration
//
// Returns:
//   - Report: Per-row agreement tally
//   - error: Setup or execution failure; disagreement is never an error
func InDatabase(ctx context.Context, db *sql.DB, m *model.Model, d dialect.Dialect, rows []model.Row, opts ...Option) (Report, error) {
	if db == nil {
		return Report{}, fmt.Errorf("%w: nil database handle", errs.ErrInvalidValue)
	}
	if d == nil {
		return Report{}, fmt.Errorf("%w: nil dialect", errs.ErrUnknownDialect)
	}

	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return Report{}, err
	}

	ev, err := predict.New(m)
	if err != nil {
		return Report{}, err
	}

	cols, err := tableColumns(m)
	if err != nil {
		return Report{}, err
	}

	expr, err := sqlgen.Expression(m, d)
	if err != nil {
		return Report{}, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	table := d.QuoteIdentifier(fmt.Sprintf("scorecheck_%x", m.Fingerprint()))
	ord := d.QuoteIdentifier(ordColumn)

	if _, err := conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return Report{}, fmt.Errorf("drop stale score table: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	}()

	if _, err := conn.ExecContext(ctx, createStmt(d, table, ord, cols)); err != nil {
		return Report{}, fmt.Errorf("create score table: %w", err)
	}

	for i, row := range rows {
		if _, err := conn.ExecContext(ctx, insertStmt(d, table, ord, cols, i, row)); err != nil {
			return Report{}, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s", ord, expr, table, ord)
	res, err := conn.QueryContext(ctx, query)
	if err != nil {
		return Report{}, fmt.Errorf("score query: %w", err)
	}
	defer res.Close()

	var report Report
	seen := 0
	for res.Next() {
		var idx int
		var score sql.NullFloat64
		if err := res.Scan(&idx, &score); err != nil {
			return Report{}, fmt.Errorf("scan score row: %w", err)
		}
		if idx < 0 || idx >= len(rows) {
			return Report{}, fmt.Errorf("score query returned unknown row %d", idx)
		}
		seen++

		local, lerr := ev.Predict(rows[idx])
		switch {
		case lerr != nil:
			// The engine saw NULL for the same gaps; neither side can
			// certify the row.
			report.Fail++
			report.Failures = append(report.Failures, Failure{Index: idx, Err: fmt.Errorf("local prediction: %w", lerr)})
		case !score.Valid:
			report.Fail++
			report.Failures = append(report.Failures, Failure{Index: idx, Err: fmt.Errorf("%w: database scored NULL", errs.ErrInvalidValue)})
		case cfg.within(score.Float64, local):
			report.Pass++
		default:
			report.Fail++
			report.Failures = append(report.Failures, Failure{
				Index:  idx,
				Native: score.Float64,
				Local:  local,
				Diff:   math.Abs(score.Float64 - local),
			})
		}
	}
	if err := res.Err(); err != nil {
		return Report{}, fmt.Errorf("iterate scores: %w", err)
	}
	if seen != len(rows) {
		return Report{}, fmt.Errorf("score query returned %d rows, expected %d", seen, len(rows))
	}

	return report, nil
}

// tableColumns maps the model's variables to typed table columns, in
// Variables order.
func tableColumns(m *model.Model) ([]tableColumn, error) {
	kinds := make(map[string]model.TermKind)
	for _, t := range m.Terms {
		v := t.Name
		if t.Kind == model.KindCategoricalLevel {
			v = t.Variable
		}
		if prev, ok := kinds[v]; ok && prev != t.Kind {
			return nil, fmt.Errorf("%w: variable %q is used as both continuous and categorical", errs.ErrInvalidValue, v)
		}
		kinds[v] = t.Kind
	}

	vars := m.Variables()
	cols := make([]tableColumn, 0, len(vars))
	for _, v := range vars {
		if v == ordColumn {
			return nil, fmt.Errorf("%w: variable name %q is reserved by the validator", errs.ErrInvalidValue, v)
		}
		cols = append(cols, tableColumn{name: v, kind: kinds[v]})
	}

	return cols, nil
}

// createStmt renders the temp-table DDL. DOUBLE PRECISION is the one
// spelling of an 8-byte float that sqlite, postgres, and mysql all accept.
func createStmt(d dialect.Dialect, table, ord string, cols []tableColumn) string {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, ord+" INTEGER")
	for _, c := range cols {
		sqlType := "DOUBLE PRECISION"
		if c.kind == model.KindCategoricalLevel {
			sqlType = "TEXT"
		}
		defs = append(defs, d.QuoteIdentifier(c.name)+" "+sqlType)
	}

	return fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s)", table, strings.Join(defs, ", "))
}

// insertStmt renders one row as an INSERT with inlined literals. Inlining
// keeps the statement in the dialect's own quoting rules and sidesteps
// per-driver placeholder syntax.
func insertStmt(d dialect.Dialect, table, ord string, cols []tableColumn, idx int, row model.Row) string {
	names := make([]string, 0, len(cols)+1)
	vals := make([]string, 0, len(cols)+1)
	names = append(names, ord)
	vals = append(vals, strconv.Itoa(idx))
	for _, c := range cols {
		names = append(names, d.QuoteIdentifier(c.name))
		vals = append(vals, literal(d, row, c))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(vals, ", "))
}

// literal renders one cell. Missing, mistyped, and non-finite values all
// load as NULL; the local evaluator rejects the same rows, so both sides
// fail them together.
func literal(d dialect.Dialect, row model.Row, c tableColumn) string {
	if c.kind == model.KindCategoricalLevel {
		s, err := row.Text(c.name)
		if err != nil {
			return "NULL"
		}

		return d.QuoteString(s)
	}

	v, err := row.Float(c.name)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "NULL"
	}

	return d.FormatFloat(v)
}
