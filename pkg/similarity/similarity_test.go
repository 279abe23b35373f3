package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical after normalization",
			a:    "Core CPI m/m",
			b:    "CORE CPI M-O-M",
			want: 1.0,
		},
		{
			name: "identical raw",
			a:    "Non-Farm Payrolls",
			b:    "Non-Farm Payrolls",
			want: 1.0,
		},
		{
			name: "partial overlap",
			a:    "core cpi mom",
			b:    "core cpi",
			want: 2.0 / 3.0,
		},
		{
			name: "disjoint",
			a:    "Trade Balance",
			b:    "Unemployment Rate",
			want: 0.0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1.0,
		},
		{
			name: "one empty",
			a:    "Retail Sales",
			b:    "",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Initial Jobless Claims", "Continuing Jobless Claims"},
		{"GDP Growth Rate q/q", "GDP Growth Rate y/y"},
		{"ISM Manufacturing PMI", "ISM Services PMI"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]))
	}
}

func TestScoreIgnoresDuplicateTokens(t *testing.T) {
	assert.InDelta(t, 1.0, Score("cpi cpi cpi", "cpi"), 1e-9)
}
