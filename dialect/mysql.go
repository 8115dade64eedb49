package dialect

import (
	"fmt"
	"strings"
)

// MySQL targets MySQL and MariaDB. Identifiers use backticks; string
// literals escape both backslashes and quotes, since backslash escapes are
// on by default in these engines.
type MySQL struct{}

var (
	_ Dialect    = (*MySQL)(nil)
	_ RowSampler = (*MySQL)(nil)
)

func (MySQL) Name() string {
	return "mysql"
}

func (MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) QuoteString(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", "''")

	return "'" + escaped + "'"
}

func (MySQL) FormatFloat(f float64) string {
	return formatFloat(f)
}

func (d MySQL) SampleRows(table string, n int) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY rand() LIMIT %d", d.QuoteIdentifier(table), n)
}

// SampleFraction filters on rand(), which is uniform in [0, 1).
func (d MySQL) SampleFraction(table string, fraction float64) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE rand() < %s", d.QuoteIdentifier(table), formatFloat(fraction))
}
