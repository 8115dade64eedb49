package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/sqlscore/sqlscore/compress"
	"github.com/sqlscore/sqlscore/dialect"
	"github.com/sqlscore/sqlscore/fit"
	"github.com/sqlscore/sqlscore/model"
	"github.com/sqlscore/sqlscore/predict"
	"github.com/sqlscore/sqlscore/rowio"
	"github.com/sqlscore/sqlscore/sample"
	"github.com/sqlscore/sqlscore/sqlgen"
	"github.com/sqlscore/sqlscore/validate"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// scoreColumn is the name of the prediction column in predict output.
const scoreColumn = "score"

// failureDetailLimit caps how many per-row failures validate prints.
const failureDetailLimit = 10

// exitErr carries a numeric exit code through the cobra error path.
// Code 2 means validation found disagreements; code 3 means unusable
// flags or input files.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	root := &cobra.Command{
		Use:   "sqlscore",
		Short: "Translate fitted linear models into SQL and verify the translation",
		Long: "sqlscore parses fitted linear regression models (named coefficients plus\n" +
			"factor metadata), scores rows locally, renders the same arithmetic as\n" +
			"portable SQL for sqlite, postgres and mysql, and validates that the two\n" +
			"paths agree within tolerance.",
		Version: version,
	}

	root.AddCommand(
		newSQLCmd(),
		newPredictCmd(),
		newValidateCmd(),
		newFitCmd(),
		newSampleCmd(),
		newInspectCmd(),
	)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

// sqlFlags holds the parsed flags for the sql command.
type sqlFlags struct {
	model   string
	dialect string
	table   string
	alias   string
}

func newSQLCmd() *cobra.Command {
	var flags sqlFlags
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the scoring SQL for a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd.OutOrStdout(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.model, "model", "m", "", "Model file (required)")
	f.StringVar(&flags.dialect, "dialect", "sqlite", "Target dialect: "+strings.Join(dialect.Names(), ", "))
	f.StringVar(&flags.table, "table", "", "Render a full scoring SELECT over this table instead of the bare expression")
	f.StringVar(&flags.alias, "as", "score", "Column alias for the score in the SELECT")

	return cmd
}

func runSQL(out io.Writer, flags sqlFlags) error {
	m, err := loadModel(flags.model)
	if err != nil {
		return err
	}
	d, err := dialect.Get(flags.dialect)
	if err != nil {
		return codeError(3, "%s", err)
	}

	var text string
	if flags.table != "" {
		text, err = sqlgen.Select(m, d, flags.table, flags.alias)
	} else {
		text, err = sqlgen.Expression(m, d)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, text)

	return nil
}

// predictFlags holds the parsed flags for the predict command.
type predictFlags struct {
	model         string
	rows          string
	out           string
	stringColumns []string
	strict        bool
}

func newPredictCmd() *cobra.Command {
	var flags predictFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score rows locally and write them back as CSV with a score column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.model, "model", "m", "", "Model file (required)")
	f.StringVarP(&flags.rows, "rows", "r", "", "CSV file of input rows (required)")
	f.StringVarP(&flags.out, "out", "o", "", "Write output CSV to file instead of stdout")
	f.StringSliceVar(&flags.stringColumns, "string-columns", nil, "Columns to read as categorical even when numeric-looking")
	f.BoolVar(&flags.strict, "strict", false, "Reject categorical values outside the model's known levels")

	return cmd
}

func runPredict(out, errOut io.Writer, flags predictFlags) error {
	m, err := loadModel(flags.model)
	if err != nil {
		return err
	}
	rows, err := loadRows(flags.rows, flags.stringColumns)
	if err != nil {
		return err
	}

	var opts []predict.Option
	if flags.strict {
		opts = append(opts, predict.WithStrictLevels())
	}
	ev, err := predict.New(m, opts...)
	if err != nil {
		return err
	}

	names := columnOrder(rows)
	for _, name := range names {
		if name == scoreColumn {
			return codeError(3, "input rows already have a %q column", scoreColumn)
		}
	}

	scores, rowErrs := ev.PredictAll(rows)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(append(names, scoreColumn)); err != nil {
		return err
	}

	failed := 0
	record := make([]string, 0, len(names)+1)
	for i, row := range rows {
		record = record[:0]
		for _, name := range names {
			record = append(record, cellString(row[name]))
		}
		if rowErrs[i] != nil {
			// Unscorable rows keep their place with an empty score cell.
			record = append(record, "")
			failed++
		} else {
			record = append(record, strconv.FormatFloat(scores[i], 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, buf.Bytes(), 0o644); err != nil {
			return codeError(3, "writing output file: %s", err)
		}
	} else if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	if failed > 0 {
		fmt.Fprintf(errOut, "WARN: %d of %d rows could not be scored\n", failed, len(rows))
	}

	return nil
}

// validateFlags holds the parsed flags for the validate command.
type validateFlags struct {
	model         string
	rows          string
	actual        string
	db            string
	tolerance     float64
	absolute      bool
	stringColumns []string
}

func newValidateCmd() *cobra.Command {
	var flags validateFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that local predictions agree with stored or in-database scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.model, "model", "m", "", "Model file (required)")
	f.StringVarP(&flags.rows, "rows", "r", "", "CSV file of input rows (required)")
	f.StringVar(&flags.actual, "actual", "", "Row column holding the native predictions to compare against")
	f.StringVar(&flags.db, "db", "", "SQLite database file for an in-database run (created if absent)")
	f.Float64Var(&flags.tolerance, "tolerance", 1e-9, "Agreement bound, relative to prediction magnitude by default")
	f.BoolVar(&flags.absolute, "absolute", false, "Treat the tolerance as an absolute difference bound")
	f.StringSliceVar(&flags.stringColumns, "string-columns", nil, "Columns to read as categorical even when numeric-looking")

	return cmd
}

func runValidate(out io.Writer, flags validateFlags) error {
	if flags.db != "" && flags.actual != "" {
		return codeError(3, "--db and --actual are mutually exclusive")
	}
	if flags.db == "" && flags.actual == "" {
		return codeError(3, "one of --db or --actual is required")
	}

	m, err := loadModel(flags.model)
	if err != nil {
		return err
	}
	rows, err := loadRows(flags.rows, flags.stringColumns)
	if err != nil {
		return err
	}

	opts := []validate.Option{validate.WithTolerance(flags.tolerance)}
	if flags.absolute {
		opts = append(opts, validate.WithAbsolute())
	}

	var report validate.Report
	if flags.db != "" {
		report, err = validateInDatabase(m, rows, flags.db, opts)
	} else {
		report, err = validateStored(m, rows, flags.actual, opts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, report.String())
	for i, failure := range report.Failures {
		if i == failureDetailLimit {
			fmt.Fprintf(out, "  (%d more not shown)\n", len(report.Failures)-failureDetailLimit)
			break
		}
		if failure.Err != nil {
			fmt.Fprintf(out, "  row %d: %s\n", failure.Index, failure.Err)
		} else {
			fmt.Fprintf(out, "  row %d: native=%g local=%g diff=%g\n",
				failure.Index, failure.Native, failure.Local, failure.Diff)
		}
	}

	if !report.Ok() {
		return codeError(2, "%d of %d rows failed validation", report.Fail, report.Pass+report.Fail)
	}

	return nil
}

// validateInDatabase loads the rows into a SQLite file, evaluates the
// generated expression there, and compares against the local evaluator.
func validateInDatabase(m *model.Model, rows []model.Row, path string, opts []validate.Option) (validate.Report, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return validate.Report{}, codeError(3, "opening database: %s", err)
	}
	defer db.Close()

	d, err := dialect.Get("sqlite")
	if err != nil {
		return validate.Report{}, err
	}

	return validate.InDatabase(context.Background(), db, m, d, rows, opts...)
}

// validateStored compares predictions stored in a row column against the
// local evaluator.
func validateStored(m *model.Model, rows []model.Row, column string, opts []validate.Option) (validate.Report, error) {
	ev, err := predict.New(m)
	if err != nil {
		return validate.Report{}, err
	}

	return validate.Compare(storedColumn(column), ev, rows, opts...)
}

// storedColumn adapts a row column of precomputed predictions to the
// validate.Predictor interface.
type storedColumn string

func (c storedColumn) Predict(row model.Row) (float64, error) {
	return row.Float(string(c))
}

// fitFlags holds the parsed flags for the fit command.
type fitFlags struct {
	rows          string
	response      string
	predictors    []string
	out           string
	references    []string
	stringColumns []string
}

func newFitCmd() *cobra.Command {
	var flags fitFlags
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a linear model to CSV rows and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.rows, "rows", "r", "", "CSV file of training rows (required)")
	f.StringVar(&flags.response, "response", "", "Response column to fit (required)")
	f.StringSliceVar(&flags.predictors, "predictors", nil, "Predictor columns, comma separated (required)")
	f.StringVarP(&flags.out, "out", "o", "", "Write the fitted model to file instead of stdout")
	f.StringArrayVar(&flags.references, "reference", nil, "Reference level override as variable=level (may be repeated)")
	f.StringSliceVar(&flags.stringColumns, "string-columns", nil, "Columns to read as categorical even when numeric-looking")

	return cmd
}

func runFit(out, errOut io.Writer, flags fitFlags) error {
	if flags.response == "" {
		return codeError(3, "--response is required")
	}
	if len(flags.predictors) == 0 {
		return codeError(3, "--predictors is required")
	}

	rows, err := loadRows(flags.rows, flags.stringColumns)
	if err != nil {
		return err
	}

	var opts []fit.Option
	for _, ref := range flags.references {
		variable, level, ok := strings.Cut(ref, "=")
		if !ok || variable == "" || level == "" {
			return codeError(3, "--reference must be variable=level, got %q", ref)
		}
		opts = append(opts, fit.WithReferenceLevel(variable, level))
	}

	fitted, err := fit.Linear(rows, flags.response, flags.predictors, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintln(errOut, fitted)

	m := fitted.Parsed()
	if flags.out != "" {
		if err := model.WriteFile(flags.out, m); err != nil {
			return codeError(3, "writing model file: %s", err)
		}

		return nil
	}

	data, err := model.Marshal(m)
	if err != nil {
		return err
	}
	_, err = out.Write(data)

	return err
}

// sampleFlags holds the parsed flags for the sample command.
type sampleFlags struct {
	dialect  string
	table    string
	n        int
	fraction float64
}

func newSampleCmd() *cobra.Command {
	var flags sampleFlags
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print SQL that pulls a uniform row sample from a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd.OutOrStdout(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dialect, "dialect", "sqlite", "Target dialect: "+strings.Join(dialect.Names(), ", "))
	f.StringVar(&flags.table, "table", "", "Source table (required)")
	f.IntVarP(&flags.n, "rows", "n", 10000, "Sample size in rows")
	f.Float64Var(&flags.fraction, "fraction", 0, "Sample this fraction of the table instead of a fixed row count")

	return cmd
}

func runSample(out io.Writer, flags sampleFlags) error {
	d, err := dialect.Get(flags.dialect)
	if err != nil {
		return codeError(3, "%s", err)
	}
	if flags.table == "" {
		return codeError(3, "--table is required")
	}

	var query string
	if flags.fraction > 0 {
		query, err = sample.Fraction(d, flags.table, flags.fraction)
	} else {
		query, err = sample.Rows(d, flags.table, flags.n)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, query)

	return nil
}

// inspectFlags holds the parsed flags for the inspect command.
type inspectFlags struct {
	model string
}

func newInspectCmd() *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a model file's terms, fingerprint and storage details",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model file (required)")

	return cmd
}

func runInspect(out io.Writer, flags inspectFlags) error {
	if flags.model == "" {
		return codeError(3, "--model is required")
	}
	raw, err := os.ReadFile(flags.model)
	if err != nil {
		return codeError(3, "loading model: %s", err)
	}

	ctype := compress.TypeForPath(flags.model)
	codec, err := compress.GetCodec(ctype)
	if err != nil {
		return err
	}
	data, err := codec.Decompress(raw)
	if err != nil {
		return codeError(3, "decompressing %s: %s", flags.model, err)
	}

	m, err := model.Unmarshal(data)
	if err != nil {
		return codeError(3, "parsing model: %s", err)
	}

	fmt.Fprintf(out, "file:        %s\n", flags.model)
	if ctype != compress.TypeNone {
		stats := compress.Stats{
			Algorithm:      ctype,
			OriginalSize:   int64(len(data)),
			CompressedSize: int64(len(raw)),
		}
		fmt.Fprintf(out, "compression: %s (%d -> %d bytes, %.1f%% savings)\n",
			stats.Algorithm, stats.OriginalSize, stats.CompressedSize, stats.Savings())
	}
	fmt.Fprintf(out, "fingerprint: %016x\n", m.Fingerprint())
	fmt.Fprintf(out, "intercept:   %s\n", strconv.FormatFloat(m.Intercept, 'g', -1, 64))
	fmt.Fprintln(out, "terms:")
	for _, t := range m.Terms {
		line := fmt.Sprintf("  %-24s %-18s %s", t.Name, t.Kind, strconv.FormatFloat(t.Coefficient, 'g', -1, 64))
		if t.Kind == model.KindCategoricalLevel {
			line += fmt.Sprintf("  (%s = %s)", t.Variable, t.Level)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "variables:   %s\n", strings.Join(m.Variables(), ", "))
	fmt.Fprintf(out, "formula:     %s\n", m.Formula())

	return nil
}

// loadModel reads and parses a model file, mapping failures to exit code 3.
func loadModel(path string) (*model.Model, error) {
	if path == "" {
		return nil, codeError(3, "--model is required")
	}
	m, err := model.ReadFile(path)
	if err != nil {
		return nil, codeError(3, "loading model: %s", err)
	}

	return m, nil
}

// loadRows reads a CSV row file, mapping failures to exit code 3.
func loadRows(path string, stringColumns []string) ([]model.Row, error) {
	if path == "" {
		return nil, codeError(3, "--rows is required")
	}
	var opts []rowio.Option
	if len(stringColumns) > 0 {
		opts = append(opts, rowio.WithStringColumns(stringColumns...))
	}
	rows, err := rowio.ReadFile(path, opts...)
	if err != nil {
		return nil, codeError(3, "loading rows: %s", err)
	}

	return rows, nil
}

// columnOrder returns the union of column names across all rows, sorted, so
// CSV output is deterministic regardless of map iteration order.
func columnOrder(rows []model.Row) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, 8)
	for _, row := range rows {
		for name := range row {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// cellString renders a row value back into a CSV cell. Absent values become
// the empty cell they were read from.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
