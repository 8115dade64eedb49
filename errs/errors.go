// Package errs defines the sentinel errors shared across sqlscore packages.
//
// Callers match these with errors.Is; packages wrap them with additional
// context using fmt.Errorf("%w: ...", errs.ErrX, ...).
package errs

import "errors"

// Model parsing and construction errors.
var (
	// ErrUnsupportedTerm indicates a coefficient name that cannot be
	// classified as a continuous predictor or a categorical level, such as
	// an interaction term ("a:b") or a transformed term ("log(x)").
	ErrUnsupportedTerm = errors.New("unsupported term")

	// ErrDuplicateTerm indicates two coefficients share the same name.
	ErrDuplicateTerm = errors.New("duplicate term")

	// ErrMalformedModel indicates a model definition that violates the
	// structural invariants: a malformed serialized record, a missing
	// field, conflicting intercept sources, or an invalid term shape.
	ErrMalformedModel = errors.New("malformed model")

	// ErrNonFiniteCoefficient indicates a NaN or infinite coefficient or
	// intercept.
	ErrNonFiniteCoefficient = errors.New("non-finite coefficient")

	// ErrNoTerms indicates a model with no terms at all.
	ErrNoTerms = errors.New("model has no terms")
)

// Evaluation errors.
var (
	// ErrMissingVariable indicates an input row lacks a variable the model
	// requires. Evaluation aborts for that row only.
	ErrMissingVariable = errors.New("missing variable")

	// ErrInvalidValue indicates a row value has a type the term cannot
	// consume, such as a string where a continuous predictor expects a
	// number.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnknownLevel indicates a categorical value that matches none of
	// the model's levels while strict level checking is enabled.
	ErrUnknownLevel = errors.New("unknown level")
)

// Dialect and SQL generation errors.
var (
	// ErrUnknownDialect indicates a dialect name with no registered
	// implementation.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrSamplingUnsupported indicates the dialect implements no row
	// sampling syntax.
	ErrSamplingUnsupported = errors.New("sampling unsupported")

	// ErrEmptyTable indicates an empty table name where one is required.
	ErrEmptyTable = errors.New("empty table name")

	// ErrInvalidSampleSize indicates a non-positive row count for a sample
	// query.
	ErrInvalidSampleSize = errors.New("invalid sample size")

	// ErrInvalidFraction indicates a sampling fraction outside (0, 1].
	ErrInvalidFraction = errors.New("invalid sampling fraction")
)

// Fitting errors.
var (
	// ErrNoRows indicates an operation that needs data rows received none.
	ErrNoRows = errors.New("no rows")

	// ErrSingularDesign indicates the design matrix is singular or too
	// ill-conditioned to solve, typically caused by collinear predictors.
	ErrSingularDesign = errors.New("singular design matrix")
)

// Codec errors.
var (
	// ErrUnknownCompression indicates an unrecognized compression type.
	ErrUnknownCompression = errors.New("unknown compression type")
)
