package sqlexec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "None"},
		{"int", int64(42), "42"},
		{"negative int", int64(-7), "-7"},
		{"whole float", 1.0, "1.0"},
		{"fraction", 2.5, "2.5"},
		{"large float", 1e16, "1e+16"},
		{"small float", 0.00001, "1e-05"},
		{"nan", math.NaN(), "nan"},
		{"text", "name", "'name'"},
		{"text with apostrophe", "it's", `"it's"`},
		{"text with both quotes", `it's "x"`, `'it\'s "x"'`},
		{"text with newline", "a\nb", `'a\nb'`},
		{"text with backslash", `a\b`, `'a\\b'`},
		{"unicode text", "テスト名", "'テスト名'"},
		{"blob", []byte{0x00, 'a', 'b', 0xff}, `b'\x00ab\xff'`},
		{"bool", true, "True"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}

func TestFormatRows(t *testing.T) {
	rows := []Row{
		{Columns: []string{"name"}, Values: []any{"test_table"}},
		{Columns: []string{"name"}, Values: []any{"other"}},
	}
	assert.Equal(t, "[{'name': 'test_table'}, {'name': 'other'}]", FormatRows(rows))
	assert.Equal(t, "[]", FormatRows(nil))
}

func TestResult_String_affectedRows(t *testing.T) {
	assert.Equal(t, "[{'affected_rows': 3}]", (&Result{AffectedRows: 3}).String())
}
