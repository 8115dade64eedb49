// Package dialect renders the engine-specific fragments of generated SQL:
// identifier quoting, string literals, and float literals.
//
// One Dialect implementation exists per target engine; the sqlgen and
// sample packages are written against the interface only, so supporting a
// new engine means adding a new implementation here and registering it,
// nothing else.
package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlscore/sqlscore/errs"
)

// Dialect is the strategy interface for a target SQL engine.
//
// Implementations are stateless values, safe for concurrent use.
type Dialect interface {
	// Name returns the canonical dialect name, e.g. "postgres".
	Name() string

	// QuoteIdentifier quotes a column or table name so reserved words and
	// unusual characters survive.
	QuoteIdentifier(name string) string

	// QuoteString renders a string literal with the engine's escaping
	// rules.
	QuoteString(value string) string

	// FormatFloat renders a float literal with full round-trip precision,
	// shaped so the engine evaluates it in floating-point arithmetic even
	// when the surrounding operands are integer-typed columns.
	FormatFloat(f float64) string
}

// RowSampler is an optional capability for dialects that know a
// row-sampling syntax. The sample package type-asserts for it and returns
// ErrSamplingUnsupported when a dialect does not implement it.
type RowSampler interface {
	// SampleRows returns a query selecting a uniform n-row sample.
	SampleRows(table string, n int) string

	// SampleFraction returns a query selecting roughly the given fraction
	// of the table's rows. The fraction has been validated to lie in (0, 1].
	SampleFraction(table string, fraction float64) string
}

var registry = map[string]Dialect{
	"sqlite":     SQLite{},
	"sqlite3":    SQLite{},
	"postgres":   Postgres{},
	"postgresql": Postgres{},
	"pg":         Postgres{},
	"mysql":      MySQL{},
	"mariadb":    MySQL{},
}

// Get retrieves a dialect by name. Lookup is case-insensitive and accepts
// common aliases (postgresql, pg, sqlite3, mariadb).
//
// Returns:
//   - Dialect: the implementation for the named engine
//   - error: ErrUnknownDialect listing the known names
func Get(name string) (Dialect, error) {
	if d, ok := registry[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}

	return nil, fmt.Errorf("%w: %q (known: %s)", errs.ErrUnknownDialect, name, strings.Join(Names(), ", "))
}

// Names returns the canonical dialect names, sorted, for CLI help text.
func Names() []string {
	seen := make(map[string]struct{}, len(registry))
	names := make([]string, 0, len(registry))
	for _, d := range registry {
		if _, ok := seen[d.Name()]; ok {
			continue
		}
		seen[d.Name()] = struct{}{}
		names = append(names, d.Name())
	}
	sort.Strings(names)

	return names
}

// formatFloat renders the shortest exact decimal form and forces a
// floating-point shape: integral values gain a ".0" suffix so engines never
// fall back to integer division or integer overflow semantics.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}
