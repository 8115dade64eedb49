// Package model defines the parsed representation of a fitted linear
// regression model and the operations that produce and persist it.
//
// A fitted model arrives as a coefficient summary: an intercept plus ordered
// (name, value) pairs, with factor metadata describing which variables are
// categorical. Parse classifies every coefficient name once, producing a
// Model whose terms carry an explicit TermKind tag, so downstream packages
// (predict, sqlgen, validate) never re-parse names.
//
// # Terms
//
// A continuous term multiplies its coefficient with the row value of the
// predictor named by the term. A categorical-level term is a one-hot
// indicator: its coefficient contributes only when the row's variable equals
// the term's level. One term exists per non-reference factor level; the
// reference level is the one all indicators leave at zero.
//
// # Persistence
//
// Models round-trip losslessly through a YAML mapping, one record per term,
// with coefficients stored as shortest-exact text floats:
//
//	version: 1
//	intercept: "0.5"
//	terms:
//	    depdelay:
//	        coefficient: "0.9"
//	        kind: continuous
//	    seasonSpring:
//	        coefficient: "-1.2"
//	        kind: categorical_level
//	        variable: season
//	        level: Spring
//
// WriteFile and ReadFile additionally route the bytes through the codec
// selected by the file extension (.gz, .zst, .lz4, .s2), so compressed model
// files are transparent to callers.
//
// # Immutability
//
// A Model is immutable once constructed and may be shared freely across
// goroutines without synchronization.
package model
