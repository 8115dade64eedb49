// Package sqlscore translates fitted linear regression models into scoring
// logic that runs anywhere: as a compiled in-process evaluator, or as
// portable SQL text executed inside the database that already holds the
// rows.
//
// A fitted model arrives as named coefficients plus factor metadata (the
// concatenated-name convention of R-style fitting libraries), is classified
// once into tagged terms, and from then on every consumer (the local
// evaluator, the SQL renderer, the serializer, the validation harness)
// works from the same parsed form without re-parsing names.
//
// # Core Features
//
//   - One-pass coefficient classification (continuous vs categorical level)
//   - Deterministic SQL generation for sqlite, postgres and mysql
//   - Local evaluation that matches the database's arithmetic term for term
//   - Lossless YAML round trip with bit-exact coefficients
//   - Row sampling SQL and an in-database validation harness
//   - Single-purpose OLS fitting for the full train-translate-verify loop
//
// # Basic Usage
//
// Parsing a fitted model and scoring both ways:
//
//	import "github.com/sqlscore/sqlscore"
//
//	summary := model.Summary{
//	    Coefficients: []model.Coefficient{
//	        {Name: "(Intercept)", Value: 0.5},
//	        {Name: "depdelay", Value: 0.9},
//	        {Name: "seasonSpring", Value: -1.2},
//	    },
//	    Factors: map[string][]string{"season": {"Winter", "Spring", "Summer", "Fall"}},
//	}
//	m, _ := sqlscore.Parse(summary)
//
//	// Score locally
//	ev, _ := sqlscore.NewEvaluator(m)
//	score, _ := ev.Predict(model.Row{"depdelay": 10.0, "season": "Spring"})
//
//	// Or inside the database
//	expr, _ := sqlscore.Expression(m, "postgres")
//	// 0.5 + (0.9 * "depdelay") + (-1.2 * CASE WHEN "season" = 'Spring' THEN 1.0 ELSE 0.0 END)
//
// Persisting a model:
//
//	_ = sqlscore.WriteModel("arrdelay.model.yaml.zst", m)
//	m2, _ := sqlscore.ReadModel("arrdelay.model.yaml.zst")
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the most
// common flows. For fine-grained control use the subpackages directly:
//
//   - model: tagged model, summary parsing, YAML serialization
//   - fit: ordinary-least-squares fitting on in-memory rows
//   - predict: the compiled local evaluator
//   - sqlgen: SQL expression and SELECT rendering
//   - dialect: per-engine quoting, formatting and sampling
//   - sample: row sampling SQL
//   - validate: local and in-database agreement harnesses
//   - rowio: CSV row loading
//   - compress: payload codecs for model and row files
package sqlscore

import (
	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/model"
	"github.com/sqlscore/sqlscore/predict"
	"github.com/sqlscore/sqlscore/sqlgen"
)

// Parse classifies a fitted model summary into a tagged model.
//
// This is the module's input boundary: coefficient names like "depdelay"
// and "seasonSpring" are resolved against the summary's factor metadata
// exactly once. See model.Parse for the classification rules.
//
// Example:
//
//	m, err := sqlscore.Parse(summary)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Parse(s model.Summary) (*model.Model, error) {
	return model.Parse(s)
}

// NewEvaluator compiles a model into a local evaluator.
//
// The evaluator computes the same arithmetic the generated SQL does, so it
// doubles as the reference side of validation. Options such as
// predict.WithStrictLevels tighten level handling; see predict.New.
func NewEvaluator(m *model.Model, opts ...predict.Option) (*predict.Evaluator, error) {
	return predict.New(m, opts...)
}

// Expression renders the model's scoring arithmetic for the named dialect.
//
// Dialect names and aliases are resolved by dialect.Get ("sqlite",
// "postgres", "mysql", "pg", "mariadb", ...). For a Dialect value you
// already hold, call sqlgen.Expression directly.
//
// Example:
//
//	expr, err := sqlscore.Expression(m, "sqlite")
func Expression(m *model.Model, dialectName string) (string, error) {
	d, err := dialect.Get(dialectName)
	if err != nil {
		return "", err
	}

	return sqlgen.Expression(m, d)
}

// Select renders a complete scoring SELECT over a table for the named
// dialect, projecting every source column plus the score under the default
// alias. For alias control call sqlgen.Select directly.
//
// Example:
//
//	query, err := sqlscore.Select(m, "postgres", "flights")
//	// SELECT *, 0.5 + ... AS "score" FROM "flights"
func Select(m *model.Model, dialectName, table string) (string, error) {
	d, err := dialect.Get(dialectName)
	if err != nil {
		return "", err
	}

	return sqlgen.Select(m, d, table, "")
}

// WriteModel persists a model to path as YAML; a compression extension
// (.gz, .zst, .s2, .lz4) selects the codec. See model.WriteFile.
func WriteModel(path string, m *model.Model) error {
	return model.WriteFile(path, m)
}

// ReadModel loads a model written by WriteModel, decompressing by
// extension. See model.ReadFile.
func ReadModel(path string) (*model.Model, error) {
	return model.ReadFile(path)
}

// Fingerprint returns the model's stable xxHash64 identity. Equal models
// always hash equal, so comparing the fingerprint of an in-memory model
// against a persisted copy detects drift without a field-by-field diff.
//
// Example:
//
//	stored, _ := sqlscore.ReadModel("arrdelay.model.yaml.zst")
//	if sqlscore.Fingerprint(stored) != sqlscore.Fingerprint(m) {
//	    log.Fatal("model file no longer matches the fitted model")
//	}
func Fingerprint(m *model.Model) uint64 {
	return m.Fingerprint()
}
