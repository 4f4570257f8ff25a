// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/pybuild-go/pyproject/internal/glob"
	"github.com/pybuild-go/pyproject/pkg/pep508"
)

// License is a classic license: text plus an optional backing file kept
// for provenance. Modern licenses are plain SPDX expression strings.
type License struct {
	Text string
	// File is the project-relative path the text was read from, "" when
	// the license was given inline.
	File string
}

// Readme holds the long description: text, an optional backing file, and
// the content type of the text.
type Readme struct {
	Text        string
	File        string
	ContentType string
}

var validEntryPointName = regexp.MustCompile(`^\w+(\.\w+)*$`)

// reader builds the semantic field values out of the raw [project]
// table, reporting defects into the shared collector. In collect mode a
// failed field yields its zero value and the walk continues.
type reader struct {
	c  *errorCollector
	fs billy.Filesystem
}

func (r *reader) readFile(name string) (string, error) {
	data, err := util.ReadFile(r.fs, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// license resolves [project.license]. A bare string is an SPDX license
// expression and is returned verbatim; a table is the classic file/text
// form.
func (r *reader) license(project map[string]any) (string, *License) {
	val, present := project["license"]
	if !present {
		return "", nil
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case map[string]any:
		table, ok := r.c.asStringMap(v, "project.license")
		if !ok {
			return "", nil
		}
		if extras := extraKeys(v, "file", "text"); len(extras) > 0 {
			r.c.errorf("project.license", "Field %q contains unexpected keys: %s", "project.license", quoteJoin(extras))
			return "", nil
		}
		filename := table["file"]
		text := table["text"]
		if (filename != "") == (text != "") {
			r.c.errorf("project.license", "Field %q must have exactly one of \"text\" or \"file\" keys", "project.license")
			return "", nil
		}
		if filename != "" {
			content, err := r.readFile(filename)
			if err != nil {
				r.c.errorf("project.license.file", "License file not found (%q)", filename)
				return "", nil
			}
			return "", &License{Text: content, File: filename}
		}
		return "", &License{Text: text}
	default:
		r.c.errorf("project.license", "Field %q has an invalid type, expecting a string or table of strings (got %s)", "project.license", typeName(val))
		return "", nil
	}
}

// licenseFiles resolves [project.license-files]: every glob must stay
// inside the project root and match at least one file. Matches are
// project-relative POSIX paths in match order; duplicates are kept here
// and dropped at render time. The returned slice is non-nil whenever the
// field is present, so "set but empty" stays distinguishable from unset.
func (r *reader) licenseFiles(project map[string]any) []string {
	val, present := project["license-files"]
	if !present {
		return nil
	}
	globs, ok := r.c.asStringList(val, "project.license-files")
	if !ok {
		return nil
	}
	files := []string{}
	for _, pattern := range globs {
		if strings.HasPrefix(pattern, "..") || strings.HasPrefix(pattern, "/") {
			r.c.errorf("project.license-files", "%q is an invalid %q glob: the pattern must match files within the project directory", pattern, "project.license-files")
			continue
		}
		matches, err := glob.Expand(r.fs, pattern)
		if err != nil {
			r.c.errorf("project.license-files", "%q is an invalid %q glob: %v", pattern, "project.license-files", err)
			continue
		}
		if len(matches) == 0 {
			r.c.errorf("project.license-files", "Every pattern in %q must match at least one file: %q did not match any", "project.license-files", pattern)
			continue
		}
		files = append(files, matches...)
	}
	return files
}

// readme resolves [project.readme]. The string form is a filename whose
// suffix determines the content type; the table form must carry exactly
// one of file/text plus an explicit content-type.
func (r *reader) readme(project map[string]any) *Readme {
	val, present := project["readme"]
	if !present {
		return nil
	}
	var filename, text, contentType string
	switch v := val.(type) {
	case string:
		filename = v
		switch {
		case strings.HasSuffix(filename, ".md"):
			contentType = "text/markdown"
		case strings.HasSuffix(filename, ".rst"):
			contentType = "text/x-rst"
		default:
			r.c.errorf("project.readme", "Could not infer content type for readme file %q", filename)
			return nil
		}
	case map[string]any:
		table, ok := r.c.asStringMap(v, "project.readme")
		if !ok {
			return nil
		}
		if extras := extraKeys(v, "content-type", "file", "text"); len(extras) > 0 {
			r.c.errorf("project.readme", "Field %q contains unexpected keys: %s", "project.readme", quoteJoin(extras))
			return nil
		}
		filename = table["file"]
		text = table["text"]
		contentType = table["content-type"]
		if (filename != "") == (text != "") {
			r.c.errorf("project.readme", "Field %q must have exactly one of \"file\" or \"text\" keys", "project.readme")
			return nil
		}
		if contentType == "" {
			r.c.errorf("project.readme.content-type", "Field %q is missing required key \"content-type\"", "project.readme")
			return nil
		}
	default:
		r.c.errorf("project.readme", "Field %q has an invalid type, expecting either a string or table of strings (got %s)", "project.readme", typeName(val))
		return nil
	}
	if filename != "" {
		content, err := r.readFile(filename)
		if err != nil {
			r.c.errorf("project.readme.file", "Readme file not found (%q)", filename)
			return nil
		}
		text = content
	}
	return &Readme{Text: text, File: filename, ContentType: contentType}
}

// dependencies resolves [project.dependencies], handing every element to
// the PEP 508 grammar.
func (r *reader) dependencies(project map[string]any) []pep508.Requirement {
	val, present := project["dependencies"]
	if !present {
		return nil
	}
	items, ok := r.c.asStringList(val, "project.dependencies")
	if !ok {
		return nil
	}
	return r.requirements(items, "project.dependencies")
}

// optionalDependencies resolves [project.optional-dependencies]. Extras
// are keyed by their original spelling; normalization happens only when
// the extra marker is synthesized at render time.
func (r *reader) optionalDependencies(project map[string]any) map[string][]pep508.Requirement {
	val, present := project["optional-dependencies"]
	if !present {
		return nil
	}
	table, ok := val.(map[string]any)
	if !ok {
		r.c.errorf("project.optional-dependencies", "Field %q has an invalid type, expecting a table of lists of PEP 508 requirement strings (got %s)", "project.optional-dependencies", typeName(val))
		return nil
	}
	out := make(map[string][]pep508.Requirement, len(table))
	for _, extra := range sortedKeys(table) {
		key := "project.optional-dependencies." + extra
		items, ok := r.c.asStringList(table[extra], key)
		if !ok {
			continue
		}
		out[extra] = r.requirements(items, key)
	}
	return out
}

func (r *reader) requirements(items []string, key string) []pep508.Requirement {
	reqs := make([]pep508.Requirement, 0, len(items))
	for i, item := range items {
		req, err := pep508.ParseRequirement(item)
		if err != nil {
			subkey := fmt.Sprintf("%s[%d]", key, i)
			r.c.errorf(subkey, "Field %q contains an invalid PEP 508 requirement string %q (%q)", subkey, item, err.Error())
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// entrypoints resolves [project.entry-points]: section and entry names
// are restricted to dotted word characters, entry targets are strings.
func (r *reader) entrypoints(project map[string]any) map[string]map[string]string {
	val, present := project["entry-points"]
	if !present {
		return nil
	}
	table, ok := val.(map[string]any)
	if !ok {
		r.c.errorf("project.entry-points", "Field %q has an invalid type, expecting a table of entrypoint sections (got %s)", "project.entry-points", typeName(val))
		return nil
	}
	out := make(map[string]map[string]string, len(table))
	for _, section := range sortedKeys(table) {
		if !validEntryPointName.MatchString(section) {
			r.c.errorf("project.entry-points", "Field %q has an invalid key, expecting a name containing only alphanumeric, underscore, or dot characters (got %q)", "project.entry-points", section)
			continue
		}
		key := "project.entry-points." + section
		entries, ok := r.c.asStringMap(table[section], key)
		if !ok {
			continue
		}
		valid := true
		for name := range entries {
			if !validEntryPointName.MatchString(name) {
				r.c.errorf(key, "Field %q has an invalid key, expecting a name containing only alphanumeric, underscore, or dot characters (got %q)", key, name)
				valid = false
			}
		}
		if valid {
			out[section] = entries
		}
	}
	return out
}

// dynamic resolves [project.dynamic]. The name field can never be
// dynamic, and a field may not be both declared dynamic and defined.
func (r *reader) dynamic(project map[string]any) []string {
	val, present := project["dynamic"]
	if !present {
		return nil
	}
	fields, ok := r.c.asStringList(val, "project.dynamic")
	if !ok {
		return nil
	}
	for _, field := range fields {
		if field == "name" {
			r.c.errorf("project.dynamic", "Unsupported field \"name\" in %q", "project.dynamic")
			continue
		}
		if _, defined := project[field]; defined {
			r.c.errorf("project."+field, "Field \"project.%s\" declared as dynamic in %q but is defined", field, "project.dynamic")
		}
	}
	return fields
}
