package predict

import (
	"testing"

	"github.com/stretchr/testify/require"

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

// A Spring flight ten minutes late off the gate:
// 0.5 + 0.9*10 - 1.2 = 8.3.
func TestPredict_Fidelity(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	got, err := e.Predict(model.Row{"depdelay": 10.0, "season": "Spring"})
	require.NoError(t, err)
	require.InDelta(t, 8.3, got, 1e-12)
}

func TestPredict_AllSeasons(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	tests := []struct {
		season   string
		expected float64
	}{
		{season: "Spring", expected: 0.5 + 0.9*10 - 1.2},
		{season: "Summer", expected: 0.5 + 0.9*10 - 0.8},
		{season: "Fall", expected: 0.5 + 0.9*10 - 0.3},
		{season: "Winter", expected: 0.5 + 0.9*10}, // reference level
	}

	for _, tt := range tests {
		t.Run(tt.season, func(t *testing.T) {
			got, err := e.Predict(model.Row{"depdelay": 10.0, "season": tt.season})
			require.NoError(t, err)
			require.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestPredict_MissingVariable(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	_, err = e.Predict(model.Row{"season": "Spring"})
	require.ErrorIs(t, err, errs.ErrMissingVariable)
	require.ErrorContains(t, err, "depdelay")

	// The evaluator survives a failed row.
	got, err := e.Predict(model.Row{"depdelay": 0.0, "season": "Winter"})
	require.NoError(t, err)
	require.InDelta(t, 0.5, got, 1e-12)
}

func TestPredict_InvalidValue(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	_, err = e.Predict(model.Row{"depdelay": "ten", "season": "Spring"})
	require.ErrorIs(t, err, errs.ErrInvalidValue)

	_, err = e.Predict(model.Row{"depdelay": 10.0, "season": 4})
	require.ErrorIs(t, err, errs.ErrInvalidValue)
}

func TestPredict_IntegerWidening(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	// Drivers and CSV loaders hand back assorted integer types.
	for _, v := range []any{int(10), int32(10), int64(10), float32(10)} {
		got, err := e.Predict(model.Row{"depdelay": v, "season": "Spring"})
		require.NoError(t, err, "%T", v)
		require.InDelta(t, 8.3, got, 1e-6)
	}
}

func TestPredict_UnknownLevelScoresAsReference(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	// "Monsoon" matches no term: every indicator is zero, same as Winter.
	got, err := e.Predict(model.Row{"depdelay": 10.0, "season": "Monsoon"})
	require.NoError(t, err)
	require.InDelta(t, 9.5, got, 1e-12)
}

func TestPredict_StrictLevels(t *testing.T) {
	e, err := New(flightModel(t),
		WithStrictLevels(),
		WithKnownLevels("season", "Winter"))
	require.NoError(t, err)

	_, err = e.Predict(model.Row{"depdelay": 10.0, "season": "Monsoon"})
	require.ErrorIs(t, err, errs.ErrUnknownLevel)
	require.ErrorContains(t, err, "Monsoon")

	// Declared levels pass, including the reference level.
	for _, season := range []string{"Spring", "Summer", "Fall", "Winter"} {
		_, err := e.Predict(model.Row{"depdelay": 10.0, "season": season})
		require.NoError(t, err, "season %s", season)
	}
}

func TestPredict_StrictLevelsIgnoresUnusedVariables(t *testing.T) {
	e, err := New(flightModel(t),
		WithStrictLevels(),
		WithKnownLevels("aircraft", "A320"))
	require.NoError(t, err)

	// "aircraft" is not a model variable; strict checking must not demand it.
	_, err = e.Predict(model.Row{"depdelay": 10.0, "season": "Spring"})
	require.NoError(t, err)
}

func TestPredict_InterceptOnly(t *testing.T) {
	e, err := New(&model.Model{Intercept: 3.25})
	require.NoError(t, err)

	got, err := e.Predict(model.Row{})
	require.NoError(t, err)
	require.InDelta(t, 3.25, got, 0)
}

func TestPredict_Idempotent(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	row := model.Row{"depdelay": 37.5, "season": "Fall"}
	first, err := e.Predict(row)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := e.Predict(row)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestNew_RejectsInvalidModel(t *testing.T) {
	_, err := New(&model.Model{
		Terms: []model.Term{
			{Name: "x", Coefficient: 1, Kind: model.KindContinuous},
			{Name: "x", Coefficient: 2, Kind: model.KindContinuous},
		},
	})
	require.ErrorIs(t, err, errs.ErrDuplicateTerm)
}

func TestPredictAll(t *testing.T) {
	e, err := New(flightModel(t))
	require.NoError(t, err)

	rows := []model.Row{
		{"depdelay": 10.0, "season": "Spring"},
		{"season": "Spring"}, // missing depdelay
		{"depdelay": 0.0, "season": "Winter"},
	}

	scores, errors := e.PredictAll(rows)
	require.Len(t, scores, 3)
	require.Len(t, errors, 3)

	require.NoError(t, errors[0])
	require.InDelta(t, 8.3, scores[0], 1e-12)

	require.ErrorIs(t, errors[1], errs.ErrMissingVariable)
	require.Zero(t, scores[1])

	require.NoError(t, errors[2])
	require.InDelta(t, 0.5, scores[2], 1e-12)
}

func BenchmarkPredict(b *testing.B) {
	m := flightModel(b)
	e, err := New(m)
	if err != nil {
		b.Fatal(err)
	}
	row := model.Row{"depdelay": 10.0, "season": "Spring"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := e.Predict(row); err != nil {
			b.Fatal(err)
		}
	}
}
