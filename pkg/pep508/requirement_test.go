// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pep508

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		input string
		want  Requirement
		str   string
	}{
		{
			input: "requests",
			want:  Requirement{Name: "requests"},
			str:   "requests",
		},
		{
			input: "requests >=2.8.1, !=2.8.2",
			want:  Requirement{Name: "requests", Specifier: ">=2.8.1,!=2.8.2"},
			str:   "requests>=2.8.1,!=2.8.2",
		},
		{
			input: "requests[socks,security]==2.8.*",
			want:  Requirement{Name: "requests", Extras: []string{"socks", "security"}, Specifier: "==2.8.*"},
			str:   "requests[socks,security]==2.8.*",
		},
		{
			input: "name (>=3)",
			want:  Requirement{Name: "name", Specifier: ">=3"},
			str:   "name>=3",
		},
		{
			input: "pip @ https://github.com/pypa/pip/archive/1.3.1.zip",
			want:  Requirement{Name: "pip", URL: "https://github.com/pypa/pip/archive/1.3.1.zip"},
			str:   "pip @ https://github.com/pypa/pip/archive/1.3.1.zip",
		},
		{
			input: `importlib-metadata; python_version<"3.8"`,
			want:  Requirement{Name: "importlib-metadata"},
			str:   `importlib-metadata; python_version < "3.8"`,
		},
		{
			input: "foo;os_name=='nt' or sys_platform=='win32'",
			want:  Requirement{Name: "foo"},
			str:   `foo; os_name == "nt" or sys_platform == "win32"`,
		},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseRequirement(test.input)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) failed: %v", test.input, err)
			}
			ignoreMarker := cmp.Comparer(func(a, b *Marker) bool { return true })
			if diff := cmp.Diff(test.want, got, ignoreMarker); diff != "" {
				t.Errorf("ParseRequirement(%q) diff (-want +got):\n%s", test.input, diff)
			}
			if got.String() != test.str {
				t.Errorf("ParseRequirement(%q).String() = %q, want %q", test.input, got.String(), test.str)
			}
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	inputs := []string{
		"",
		"-leading-dash",
		"name[",
		"name[extra!]",
		"name==",
		"name ==1.0, ",
		"name; ",
		"name; os_name",
		"name; unknown_var == 'x'",
	}
	for _, input := range inputs {
		if _, err := ParseRequirement(input); err == nil {
			t.Errorf("ParseRequirement(%q) succeeded, want error", input)
		}
	}
}
