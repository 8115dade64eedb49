package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/errs"
)

// noSampler satisfies Dialect but not RowSampler.
type noSampler struct{}

func (noSampler) Name() string { return "stub" }

func (noSampler) QuoteIdentifier(s string) string { return s }

func (noSampler) QuoteString(s string) string { return s }

func (noSampler) FormatFloat(f float64) string { return "0.0" }

func TestRows(t *testing.T) {
	tests := []struct {
		dialect  dialect.Dialect
		expected string
	}{
		{dialect: dialect.SQLite{}, expected: `SELECT * FROM "flights" ORDER BY random() LIMIT 500`},
		{dialect: dialect.Postgres{}, expected: `SELECT * FROM "flights" ORDER BY random() LIMIT 500`},
		{dialect: dialect.MySQL{}, expected: "SELECT * FROM `flights` ORDER BY rand() LIMIT 500"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			sql, err := Rows(tt.dialect, "flights", 500)
			require.NoError(t, err)
			require.Equal(t, tt.expected, sql)
		})
	}
}

func TestRows_Invalid(t *testing.T) {
	_, err := Rows(dialect.SQLite{}, "", 500)
	require.ErrorIs(t, err, errs.ErrEmptyTable)

	_, err = Rows(dialect.SQLite{}, "flights", 0)
	require.ErrorIs(t, err, errs.ErrInvalidSampleSize)

	_, err = Rows(dialect.SQLite{}, "flights", -5)
	require.ErrorIs(t, err, errs.ErrInvalidSampleSize)

	_, err = Rows(nil, "flights", 500)
	require.ErrorIs(t, err, errs.ErrUnknownDialect)
}

func TestFraction(t *testing.T) {
	sql, err := Fraction(dialect.Postgres{}, "flights", 0.005)
	require.NoError(t, err)
	require.Equal(t, `SELECT * FROM "flights" TABLESAMPLE BERNOULLI (0.5)`, sql)

	sql, err = Fraction(dialect.MySQL{}, "flights", 0.25)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM `flights` WHERE rand() < 0.25", sql)

	sql, err = Fraction(dialect.SQLite{}, "flights", 0.5)
	require.NoError(t, err)
	require.Equal(t, `SELECT * FROM "flights" WHERE abs(random() % 1000000) < 500000`, sql)
}

func TestFraction_Bounds(t *testing.T) {
	for _, f := range []float64{0, -0.1, 1.0001, 2, math.NaN()} {
		_, err := Fraction(dialect.Postgres{}, "flights", f)
		require.ErrorIs(t, err, errs.ErrInvalidFraction, "fraction %v", f)
	}

	// The closed upper bound is legal: sample everything.
	_, err := Fraction(dialect.Postgres{}, "flights", 1)
	require.NoError(t, err)
}

func TestSamplingUnsupported(t *testing.T) {
	var d dialect.Dialect = noSampler{}

	_, err := Rows(d, "flights", 10)
	require.ErrorIs(t, err, errs.ErrSamplingUnsupported)
	require.ErrorContains(t, err, "stub")

	_, err = Fraction(d, "flights", 0.1)
	require.ErrorIs(t, err, errs.ErrSamplingUnsupported)
}
