// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAsRFC822FullMetadata(t *testing.T) {
	fs := projectFS(t, map[string]string{"README.md": "some readme 👋\n"})
	md := mustMetadata(t, `
		[project]
		name = "full_metadata"
		version = "3.2.1"
		description = "A package with all the metadata :)"
		readme = "README.md"
		keywords = ["trampolim", "is", "interesting"]
		license = { text = "some license text" }
		requires-python = ">=3.8"
		dependencies = [
			"dependency1",
			"dependency2>1.0.0",
			"dependency4; os_name != 'nt'",
		]
		classifiers = [
			"Development Status :: 4 - Beta",
			"Programming Language :: Python",
		]
		authors = [
			{ name = "Example!" },
			{ email = "example@example.com" },
		]
		maintainers = [
			{ name = "Other Example", email = "other@example.com" },
		]

		[project.urls]
		homepage = "example.com"
		documentation = "readthedocs.org"

		[project.optional-dependencies]
		test = [
			"test_dependency",
			"test_dependency2>3.0; os_name == 'nt'",
		]
	`, Options{ProjectDir: fs})

	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}
	want := []Header{
		{"Metadata-Version", "2.1"},
		{"Name", "full_metadata"},
		{"Version", "3.2.1"},
		{"Summary", "A package with all the metadata :)"},
		{"Keywords", "trampolim,is,interesting"},
		{"Home-page", "example.com"},
		{"Author", "Example!"},
		{"Author-Email", "Unknown <example@example.com>"},
		{"Maintainer-Email", "Other Example <other@example.com>"},
		{"License", "some license text"},
		{"Classifier", "Development Status :: 4 - Beta"},
		{"Classifier", "Programming Language :: Python"},
		{"Project-URL", "Documentation, readthedocs.org"},
		{"Project-URL", "Homepage, example.com"},
		{"Requires-Python", ">=3.8"},
		{"Requires-Dist", "dependency1"},
		{"Requires-Dist", "dependency2>1.0.0"},
		{"Requires-Dist", `dependency4; os_name != "nt"`},
		{"Provides-Extra", "test"},
		{"Requires-Dist", `test_dependency; extra == "test"`},
		{"Requires-Dist", `test_dependency2>3.0; os_name == "nt" and extra == "test"`},
		{"Description-Content-Type", "text/markdown"},
	}
	if diff := cmp.Diff(want, msg.Headers()); diff != "" {
		t.Errorf("headers diff (-want +got):\n%s", diff)
	}
	if msg.Body() != "some readme 👋\n" {
		t.Errorf("body = %q", msg.Body())
	}
}

func TestAsRFC822SPDX(t *testing.T) {
	fs := projectFS(t, map[string]string{
		"LICENSE.txt":          "a",
		"AUTHORS.txt":          "b",
		"licenses/LICENSE.MIT": "c",
	})
	md := mustMetadata(t, `
		[project]
		name = "example"
		version = "1.2.3"
		license = "MIT OR GPL-2.0-or-later"
		license-files = ["*.txt", "licenses/*", "AUTHORS.txt"]
	`, Options{ProjectDir: fs})

	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}
	want := []Header{
		{"Metadata-Version", "2.4"},
		{"Name", "example"},
		{"Version", "1.2.3"},
		{"License-Expression", "MIT OR GPL-2.0-or-later"},
		{"License-File", "AUTHORS.txt"},
		{"License-File", "LICENSE.txt"},
		{"License-File", "licenses/LICENSE.MIT"},
	}
	// License-File values are sorted and deduplicated.
	if diff := cmp.Diff(want, msg.Headers()); diff != "" {
		t.Errorf("headers diff (-want +got):\n%s", diff)
	}
}

func TestAsRFC822ExtraMarkers(t *testing.T) {
	md := mustMetadata(t, `
		[project]
		name = "example"
		version = "1.0.0"

		[project.optional-dependencies]
		test = ["foo; os_name=='nt' or sys_platform=='win32'"]
		"Dot.Group" = ["bar"]
	`, Options{})

	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}
	got := msg.Values("Requires-Dist")
	want := []string{
		"bar; extra == \"dot-group\"",
		"foo; (os_name == \"nt\" or sys_platform == \"win32\") and extra == \"test\"",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Requires-Dist diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dot-group", "test"}, msg.Values("Provides-Extra")); diff != "" {
		t.Errorf("Provides-Extra diff (-want +got):\n%s", diff)
	}
}

func TestAsRFC822Dynamic(t *testing.T) {
	doc := `
		[project]
		name = "something"
		version = "1.0.0"
	`

	md := mustMetadata(t, doc, Options{DynamicMetadata: []string{"Summary"}})
	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}
	want := "Metadata-Version: 2.2\nName: something\nVersion: 1.0.0\nDynamic: Summary\n\n"
	if msg.String() != want {
		t.Errorf("message = %q, want %q", msg.String(), want)
	}

	for _, test := range []struct {
		field   string
		wantErr string
	}{
		{"version", "Field cannot be set as dynamic metadata: version"},
		{"Name", "Field cannot be set as dynamic metadata: Name"},
		{"unknown-field", "Field is not known: unknown-field"},
	} {
		md := mustMetadata(t, doc, Options{DynamicMetadata: []string{test.field}})
		if _, err := md.AsRFC822(); err == nil || err.Error() != test.wantErr {
			t.Errorf("AsRFC822 with dynamic %q error = %v, want %q", test.field, err, test.wantErr)
		}
	}
}

func TestMessageFolding(t *testing.T) {
	md := mustMetadata(t, `
		[project]
		name = "example"
		version = "1.0.0"
		license = { text = "line one\nline two\nline three" }
	`, Options{})
	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}
	out := msg.String()
	wantFolded := "License: line one\n         line two\n         line three\n"
	if !strings.Contains(out, wantFolded) {
		t.Errorf("message = %q, want folded %q", out, wantFolded)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	fs := projectFS(t, map[string]string{"README.md": "long\n\ndescription\n"})
	md := mustMetadata(t, `
		[project]
		name = "example"
		version = "1.0.0"
		readme = "README.md"
		license = { text = "line one\nline two" }
		classifiers = [
			"Development Status :: 4 - Beta",
			"Programming Language :: Python",
		]
	`, Options{ProjectDir: fs})
	msg, err := md.AsRFC822()
	if err != nil {
		t.Fatalf("AsRFC822 failed: %v", err)
	}

	parsed, err := ParseMessage(strings.NewReader(msg.String()))
	if err != nil {
		t.Fatalf("ParseMessage failed: %v", err)
	}
	if diff := cmp.Diff(msg.Headers(), parsed.Headers()); diff != "" {
		t.Errorf("round-trip headers diff (-want +got):\n%s", diff)
	}
	if parsed.Body() != msg.Body() {
		t.Errorf("round-trip body = %q, want %q", parsed.Body(), msg.Body())
	}
}

func TestSetHeaderUnknown(t *testing.T) {
	msg := &Message{}
	err := msg.SetHeader("Unknown", "Value")
	if err == nil || err.Error() != `Unknown field "Unknown"` {
		t.Errorf("SetHeader error = %v, want unknown field", err)
	}
	if err := msg.SetHeader("Summary", "fine"); err != nil {
		t.Errorf("SetHeader(Summary) failed: %v", err)
	}
	// Empty values are dropped, not stored.
	if err := msg.SetHeader("Keywords", ""); err != nil {
		t.Errorf("SetHeader(Keywords, empty) failed: %v", err)
	}
	if len(msg.Headers()) != 1 {
		t.Errorf("headers = %v, want only Summary", msg.Headers())
	}
}
