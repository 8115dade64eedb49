package rowio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlscore/sqlscore/compress"
	"github.com/sqlscore/sqlscore/errs"
	"github.com/sqlscore/sqlscore/model"
)

const flightsCSV = `depdelay,season,origin
10,Spring,ORD
-3.5,Winter,SFO
0,Summer,JFK
`

func TestRead(t *testing.T) {
	rows, err := Read(strings.NewReader(flightsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, model.Row{"depdelay": 10.0, "season": "Spring", "origin": "ORD"}, rows[0])
	require.Equal(t, model.Row{"depdelay": -3.5, "season": "Winter", "origin": "SFO"}, rows[1])
	require.Equal(t, model.Row{"depdelay": 0.0, "season": "Summer", "origin": "JFK"}, rows[2])
}

func TestRead_BlankCellMeansAbsent(t *testing.T) {
	rows, err := Read(strings.NewReader("depdelay,season\n,Spring\n7,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, ok := rows[0]["depdelay"]
	require.False(t, ok, "blank cell must leave the variable absent")
	require.Equal(t, "Spring", rows[0]["season"])

	require.Equal(t, 7.0, rows[1]["depdelay"])
	_, ok = rows[1]["season"]
	require.False(t, ok)
}

func TestRead_StringColumnsPinned(t *testing.T) {
	// Airport codes that happen to be numeric must stay categorical.
	csv := "depdelay,airport\n10,06C\n5,100\n"

	rows, err := Read(strings.NewReader(csv), WithStringColumns("airport"))
	require.NoError(t, err)
	require.Equal(t, "06C", rows[0]["airport"])
	require.Equal(t, "100", rows[1]["airport"])
	require.Equal(t, 10.0, rows[0]["depdelay"])
}

func TestRead_NonFiniteStaysString(t *testing.T) {
	rows, err := Read(strings.NewReader("a,b\nNaN,Inf\n"))
	require.NoError(t, err)
	require.Equal(t, "NaN", rows[0]["a"])
	require.Equal(t, "Inf", rows[0]["b"])
}

func TestRead_TSV(t *testing.T) {
	rows, err := Read(strings.NewReader("depdelay\tseason\n10\tSpring\n"), WithComma('\t'))
	require.NoError(t, err)
	require.Equal(t, model.Row{"depdelay": 10.0, "season": "Spring"}, rows[0])
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.ErrorIs(t, err, errs.ErrNoRows)
}

func TestRead_HeaderOnly(t *testing.T) {
	rows, err := Read(strings.NewReader("depdelay,season\n"))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestRead_RaggedRecord(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte(flightsCSV), 0o644))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestReadFile_Compressed(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".gz", ".zst", ".s2", ".lz4"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "rows.csv"+ext)
			packed, err := compress.ForPath(path).Compress([]byte(flightsCSV))
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, packed, 0o644))

			rows, err := ReadFile(path)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			require.Equal(t, 10.0, rows[0]["depdelay"])
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
