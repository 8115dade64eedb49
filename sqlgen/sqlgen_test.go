package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/model"
)

func flightModel(t testing.TB) *model.Model {
	t.Helper()

	m, err := model.Parse(model.Summary{
		Coefficients: []model.Coefficient{
			{Name: "(Intercept)", Value: 0.5},
			{Name: "depdelay", Value: 0.9},
			{Name: "seasonSpring", Value: -1.2},
			{Name: "seasonSummer", Value: -0.8},
			{Name: "seasonFall", Value: -0.3},
		},
		Factors: map[string][]string{
			"season": {"Fall", "Spring", "Summer", "Winter"},
		},
	})
	require.NoError(t, err)

	return m
}

func TestExpression_SQLite(t *testing.T) {
	expr, err := Expression(flightModel(t), dialect.SQLite{})
	require.NoError(t, err)

	expected := `0.5 + (0.9 * "depdelay")` +
		` + (-1.2 * CASE WHEN "season" = 'Spring' THEN 1.0 ELSE 0.0 END)` +
		` + (-0.8 * CASE WHEN "season" = 'Summer' THEN 1.0 ELSE 0.0 END)` +
		` + (-0.3 * CASE WHEN "season" = 'Fall' THEN 1.0 ELSE 0.0 END)`
	require.Equal(t, expected, expr)
}

func TestExpression_Postgres(t *testing.T) {
	expr, err := Expression(flightModel(t), dialect.Postgres{})
	require.NoError(t, err)

	// Postgres shares standard quoting with SQLite for this model.
	sqliteExpr, err := Expression(flightModel(t), dialect.SQLite{})
	require.NoError(t, err)
	require.Equal(t, sqliteExpr, expr)
}

func TestExpression_MySQL(t *testing.T) {
	expr, err := Expression(flightModel(t), dialect.MySQL{})
	require.NoError(t, err)

	expected := "0.5 + (0.9 * `depdelay`)" +
		" + (-1.2 * CASE WHEN `season` = 'Spring' THEN 1.0 ELSE 0.0 END)" +
		" + (-0.8 * CASE WHEN `season` = 'Summer' THEN 1.0 ELSE 0.0 END)" +
		" + (-0.3 * CASE WHEN `season` = 'Fall' THEN 1.0 ELSE 0.0 END)"
	require.Equal(t, expected, expr)
}

// Integral coefficients must render as float literals so an integer-typed
// column never drags the whole expression into integer arithmetic.
func TestExpression_IntegralCoefficients(t *testing.T) {
	m := &model.Model{
		Intercept: 2,
		Terms: []model.Term{
			{Name: "depdelay", Coefficient: 3, Kind: model.KindContinuous},
		},
	}

	expr, err := Expression(m, dialect.SQLite{})
	require.NoError(t, err)
	require.Equal(t, `2.0 + (3.0 * "depdelay")`, expr)
}

func TestExpression_QuotingEdgeCases(t *testing.T) {
	m := &model.Model{
		Terms: []model.Term{
			{Name: "odd name", Coefficient: 1.5, Kind: model.KindContinuous},
			{Name: "originO'Hare", Coefficient: -0.5, Kind: model.KindCategoricalLevel, Variable: "origin", Level: "O'Hare"},
		},
	}

	expr, err := Expression(m, dialect.SQLite{})
	require.NoError(t, err)
	require.Equal(t, `0.0 + (1.5 * "odd name")`+
		` + (-0.5 * CASE WHEN "origin" = 'O''Hare' THEN 1.0 ELSE 0.0 END)`, expr)
}

func TestExpression_InterceptOnly(t *testing.T) {
	expr, err := Expression(&model.Model{Intercept: 42.5}, dialect.Postgres{})
	require.NoError(t, err)
	require.Equal(t, "42.5", expr)
}

func TestExpression_Deterministic(t *testing.T) {
	m := flightModel(t)

	first, err := Expression(m, dialect.SQLite{})
	require.NoError(t, err)

	for range 10 {
		again, err := Expression(m, dialect.SQLite{})
		require.NoError(t, err)
		require.Equal(t, first, again, "expression output must be byte-identical")
	}
}

func TestExpression_InvalidModel(t *testing.T) {
	_, err := Expression(&model.Model{
		Terms: []model.Term{
			{Name: "x", Coefficient: 1, Kind: model.KindContinuous},
			{Name: "x", Coefficient: 2, Kind: model.KindContinuous},
		},
	}, dialect.SQLite{})
	require.ErrorIs(t, err, errs.ErrDuplicateTerm)
}

func TestExpression_NilDialect(t *testing.T) {
	_, err := Expression(flightModel(t), nil)
	require.ErrorIs(t, err, errs.ErrUnknownDialect)
}

func TestSelect(t *testing.T) {
	sql, err := Select(flightModel(t), dialect.MySQL{}, "flights", "")
	require.NoError(t, err)
	require.Contains(t, sql, "SELECT *, ")
	require.Contains(t, sql, " AS `score` FROM `flights`")
}

func TestSelect_CustomAlias(t *testing.T) {
	sql, err := Select(flightModel(t), dialect.SQLite{}, "flights", "predicted_delay")
	require.NoError(t, err)
	require.Contains(t, sql, `AS "predicted_delay" FROM "flights"`)
}

func TestSelect_EmptyTable(t *testing.T) {
	_, err := Select(flightModel(t), dialect.SQLite{}, "", "score")
	require.ErrorIs(t, err, errs.ErrEmptyTable)
}

func BenchmarkExpression(b *testing.B) {
	m := flightModel(b)
	d := dialect.Postgres{}

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		if _, err := Expression(m, d); err != nil {
			b.Fatal(err)
		}
	}
}
