package sanitize

import (
	"testing"
)

func TestField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"trim", "  Asha Rao \n", "Asha Rao"},
		{"zero-width space", "asha\u200B@example.com", "asha@example.com"},
		{"BOM", "\uFEFFPune", "Pune"},
		{"soft hyphen", "Ban\u00ADgalore", "Bangalore"},
		{"inner spaces kept", "12  MG Road", "12  MG Road"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.input); got != tt.expected {
				t.Errorf("Field(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Asha Rao", "Asha Rao"},
		{"newlines flattened", "line one\r\nline two\nthree", "line one line two three"},
		{"tabs collapsed", "a\t\tb", "a b"},
		{"color codes removed", "\x1b[31mred\x1b[0m", "red"},
		{"cursor movement removed", "ab\x1b[2Jcd", "abcd"},
		{"osc title removed", "\x1b]0;pwned\x07name", "name"},
		{"bell removed", "ding\x07", "ding"},
		{"invisible removed", "na\u200Dme", "name"},
		{"unicode kept", "Zoë Ñúñez", "Zoë Ñúñez"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cell(tt.input); got != tt.expected {
				t.Errorf("Cell(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"CRLF", "one\r\ntwo", "one\ntwo"},
		{"CR", "one\rtwo", "one\ntwo"},
		{"blank lines capped", "one\n\n\n\n\ntwo", "one\n\ntwo"},
		{"tabs kept", "a\tb", "a\tb"},
		{"escape removed", "hi \x1b[1mthere\x1b[0m", "hi there"},
		{"trimmed", "\n\n  hello  \n", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
