package textwrap

import (
	"testing"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pad      string
		expected string
	}{
		{
			name:     "single line untouched",
			input:    "hello",
			pad:      "  ",
			expected: "hello",
		},
		{
			name:     "continuation lines padded",
			input:    "first\nsecond\nthird",
			pad:      "    ",
			expected: "first\n    second\n    third",
		},
		{
			name:     "blank continuation line padded",
			input:    "a\n\nb",
			pad:      " ",
			expected: "a\n \n b",
		},
		{
			name:     "empty input",
			input:    "",
			pad:      "  ",
			expected: "",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Indent(test.input, test.pad); got != test.expected {
				t.Errorf("Indent(%q, %q) = %q, want %q", test.input, test.pad, got, test.expected)
			}
		})
	}
}

func TestDedent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "common indent removed",
			input:    "\n\t\t[project]\n\t\tname = 'example'\n\t\t",
			expected: "\n[project]\nname = 'example'\n",
		},
		{
			name:     "mixed indent keeps relative depth",
			input:    "  a\n    b\n  c",
			expected: "a\n  b\nc",
		},
		{
			name:     "no common indent",
			input:    "a\n\tb\n  c",
			expected: "a\n\tb\n  c",
		},
		{
			name:     "blank lines normalized",
			input:    "  a\n   \n  b",
			expected: "a\n\nb",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Dedent(test.input); got != test.expected {
				t.Errorf("Dedent(%q) = %q, want %q", test.input, got, test.expected)
			}
		})
	}
}
