package dialect

import (
	"fmt"
	"strings"
)

// Postgres targets PostgreSQL. Quoting follows the SQL standard; fraction
// sampling uses TABLESAMPLE BERNOULLI, which avoids a full scan.
type Postgres struct{}

var (
	_ Dialect    = (*Postgres)(nil)
	_ RowSampler = (*Postgres)(nil)
)

func (Postgres) Name() string {
	return "postgres"
}

func (Postgres) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (Postgres) FormatFloat(f float64) string {
	return formatFloat(f)
}

func (d Postgres) SampleRows(table string, n int) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT %d", d.QuoteIdentifier(table), n)
}

// SampleFraction uses Bernoulli table sampling; the argument is a
// percentage, not a fraction.
func (d Postgres) SampleFraction(table string, fraction float64) string {
	return fmt.Sprintf("SELECT * FROM %s TABLESAMPLE BERNOULLI (%s)", d.QuoteIdentifier(table), formatFloat(fraction*100))
}
