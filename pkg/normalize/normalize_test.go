package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases and trims",
			raw:  "  Non-Farm Payrolls ",
			want: "non-farm payrolls",
		},
		{
			name: "collapses whitespace",
			raw:  "Core   CPI\t m/m",
			want: "core cpi mom",
		},
		{
			name: "month over month slash form",
			raw:  "Core CPI m/m",
			want: "core cpi mom",
		},
		{
			name: "month over month hyphen form",
			raw:  "CORE CPI M-O-M",
			want: "core cpi mom",
		},
		{
			name: "quarter over quarter",
			raw:  "GDP Growth Rate q/q",
			want: "gdp growth rate qoq",
		},
		{
			name: "year over year hyphen form",
			raw:  "CPI Y-O-Y",
			want: "cpi yoy",
		},
		{
			name: "strips trademark glyphs",
			raw:  "S&P Global™ Manufacturing PMI®",
			want: "s&p global manufacturing pmi",
		},
		{
			name: "collapses repeated hyphens",
			raw:  "ISM--Manufacturing---Index",
			want: "ism-manufacturing-index",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace only",
			raw:  "   \t ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.raw))
		})
	}
}

func TestKeyIsIdempotent(t *testing.T) {
	for _, raw := range []string{"Core CPI m/m", "  FOMC   Meeting Minutes ", "Initial--Jobless Claims"} {
		once := Key(raw)
		assert.Equal(t, once, Key(once), "normalizing twice must not change the key for %q", raw)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"non-farm payrolls", []string{"non", "farm", "payrolls"}},
		{"core cpi mom", []string{"core", "cpi", "mom"}},
		{"", nil},
		{"---", nil},
	}

	for _, tt := range tests {
		got := Tokens(tt.key)
		if tt.want == nil {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, tt.want, got)
	}
}
