package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestSumMatchesID(t *testing.T) {
	data := "intercept: 0.5"
	assert.Equal(t, ID(data), Sum([]byte(data)))
}

func TestSumDiffersForDifferentInputs(t *testing.T) {
	a := Sum([]byte("depdelay: 0.9"))
	b := Sum([]byte("depdelay: 0.8"))
	assert.NotEqual(t, a, b)
}

func BenchmarkSum(b *testing.B) {
	payload := []byte("seasonSpring coefficient -1.2 categorical_level season Spring")
	b.ResetTimer()
	for b.Loop() {
		Sum(payload)
	}
}
