package report

import (
	"reflect"
	"testing"
)

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Safe values pass through untouched.
		{"empty", "", ""},
		{"normal_text", "iPhone 13 128GB", "iPhone 13 128GB"},
		{"number", "4500", "4500"},
		{"price_text", "5 000 kr", "5 000 kr"},
		{"internal_equal", "A=B", "A=B"},
		{"multibyte_first", "Åpen peis", "Åpen peis"},

		// Formula lead-ins must be escaped.
		{"formula_equal", "=SUM(A1:A10)", "'=SUM(A1:A10)"},
		{"formula_plus", "+30.0%", "'+30.0%"},
		{"formula_minus", "-30.0%", "'-30.0%"},
		{"formula_at", "@SUM(A:A)", "'@SUM(A:A)"},
		{"formula_pipe", "|echo test", "'|echo test"},
		{"formula_percent", "%PATH%", "'%PATH%"},

		// Whitespace lead-ins count too.
		{"tab_start", "\t=EXEC()", "'\t=EXEC()"},
		{"newline_start", "\n=FORMULA()", "'\n=FORMULA()"},
		{"carriage_return", "\r=DATA()", "'\r=DATA()"},

		// Titles scraped from listings can legitimately start this way.
		{"title_minus", "- Pent brukt sofa", "'- Pent brukt sofa"},
		{"title_plus", "+47 deksel", "'+47 deksel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeCell(tt.input); got != tt.expected {
				t.Errorf("EscapeCell(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEscapeRow(t *testing.T) {
	row := []string{"iPhone 13", "=1+1", "", "-30.0%", "Oslo"}
	want := []string{"iPhone 13", "'=1+1", "", "'-30.0%", "Oslo"}

	if got := EscapeRow(row); !reflect.DeepEqual(got, want) {
		t.Errorf("EscapeRow() = %v, want %v", got, want)
	}

	// Input must stay untouched.
	if row[1] != "=1+1" {
		t.Error("EscapeRow() mutated its input")
	}
}
