package dialect

import (
	"fmt"
	"strings"
)

// SQLite targets SQLite 3. Identifiers use standard double quotes; string
// literals double embedded single quotes.
type SQLite struct{}

var (
	_ Dialect    = (*SQLite)(nil)
	_ RowSampler = (*SQLite)(nil)
)

func (SQLite) Name() string {
	return "sqlite"
}

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (SQLite) FormatFloat(f float64) string {
	return formatFloat(f)
}

// SampleRows orders by random() and limits; fine for the sample sizes this
// tooling works with, though it scans the whole table.
func (d SQLite) SampleRows(table string, n int) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT %d", d.QuoteIdentifier(table), n)
}

// SampleFraction filters on random(). SQLite's random() is a signed 64-bit
// integer, so the fraction maps onto a modulus in parts per million.
func (d SQLite) SampleFraction(table string, fraction float64) string {
	threshold := int64(fraction * 1e6)
	return fmt.Sprintf("SELECT * FROM %s WHERE abs(random() %% 1000000) < %d", d.QuoteIdentifier(table), threshold)
}
