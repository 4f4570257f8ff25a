// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"fmt"
	"sort"
)

// shape is a structural type descriptor for one node of the
// pyproject.toml document. check reports every mismatch under key into
// the collector, without building values.
type shape interface {
	check(c *errorCollector, v any, key string)
}

type stringShape struct{}

func (stringShape) check(c *errorCollector, v any, key string) {
	if _, ok := v.(string); !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a string (got %s)", key, typeName(v))
	}
}

// anyShape accepts everything, used for [tool] sub-tables.
type anyShape struct{}

func (anyShape) check(*errorCollector, any, string) {}

// enumShape accepts one of a fixed set of strings.
type enumShape struct {
	values []string
}

func (s enumShape) check(c *errorCollector, v any, key string) {
	str, ok := v.(string)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a string (got %s)", key, typeName(v))
		return
	}
	for _, val := range s.values {
		if str == val {
			return
		}
	}
	c.errorf(key, "Field %q expected one of %s (got %q)", key, quoteJoin(s.values), str)
}

type listShape struct {
	elem shape
	want string
}

func (s listShape) check(c *errorCollector, v any, key string) {
	items, ok := v.([]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting %s (got %s)", key, s.want, typeName(v))
		return
	}
	for i, item := range items {
		s.elem.check(c, item, fmt.Sprintf("%s[%d]", key, i))
	}
}

// tableShape is a table with arbitrary keys and uniform value shape.
type tableShape struct {
	value shape
	want  string
}

func (s tableShape) check(c *errorCollector, v any, key string) {
	table, ok := v.(map[string]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting %s (got %s)", key, s.want, typeName(v))
		return
	}
	for _, subkey := range sortedKeys(table) {
		s.value.check(c, table[subkey], joinKey(key, subkey))
	}
}

// recordShape is a table with a fixed field vocabulary. Only declared
// fields are checked; extra keys are left to the Validate* functions so
// callers can choose their strictness.
type recordShape struct {
	fields map[string]shape
	want   string
}

func (s recordShape) check(c *errorCollector, v any, key string) {
	table, ok := v.(map[string]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting %s (got %s)", key, s.want, typeName(v))
		return
	}
	for _, field := range sortedKeys(table) {
		if fieldShape, known := s.fields[field]; known {
			fieldShape.check(c, table[field], joinKey(key, field))
		}
	}
}

// oneOfShape dispatches on the value's kind: strings go to the string
// variant, tables to the table variant. Variant internals then produce
// their own scoped errors.
type oneOfShape struct {
	str   shape
	table shape
	want  string
}

func (s oneOfShape) check(c *errorCollector, v any, key string) {
	switch v.(type) {
	case string:
		if s.str != nil {
			s.str.check(c, v, key)
			return
		}
	case map[string]any:
		if s.table != nil {
			s.table.check(c, v, key)
			return
		}
	}
	c.errorf(key, "Field %q has an invalid type, expecting %s (got %s)", key, s.want, typeName(v))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func stringList(want string) listShape {
	return listShape{elem: stringShape{}, want: want}
}

// dynamicFieldValues is the vocabulary of [project] fields permitted in
// project.dynamic. Everything except name, which can never be dynamic.
func dynamicFieldValues() []string {
	var values []string
	for field := range projectToMetadata {
		if field != "name" {
			values = append(values, field)
		}
	}
	sort.Strings(values)
	return values
}

func pyprojectShape() recordShape {
	contact := recordShape{
		fields: map[string]shape{"name": stringShape{}, "email": stringShape{}},
		want:   "a table containing the \"name\" and/or \"email\" keys",
	}
	license := oneOfShape{
		str: stringShape{},
		table: recordShape{
			fields: map[string]shape{"text": stringShape{}, "file": stringShape{}},
			want:   "a table of strings",
		},
		want: "a string or table of strings",
	}
	readme := oneOfShape{
		str: stringShape{},
		table: recordShape{
			fields: map[string]shape{"file": stringShape{}, "text": stringShape{}, "content-type": stringShape{}},
			want:   "a table of strings",
		},
		want: "either a string or table of strings",
	}
	project := recordShape{
		fields: map[string]shape{
			"name":            stringShape{},
			"version":         stringShape{},
			"description":     stringShape{},
			"license":         license,
			"license-files":   stringList("a list of strings"),
			"readme":          readme,
			"requires-python": stringShape{},
			"dependencies":    stringList("a list of strings"),
			"optional-dependencies": tableShape{
				value: stringList("a list of strings"),
				want:  "a table of lists of strings",
			},
			"entry-points": tableShape{
				value: tableShape{value: stringShape{}, want: "a table of strings"},
				want:  "a table of tables of strings",
			},
			"authors":     listShape{elem: contact, want: "a list of tables containing the \"name\" and/or \"email\" keys"},
			"maintainers": listShape{elem: contact, want: "a list of tables containing the \"name\" and/or \"email\" keys"},
			"urls":        tableShape{value: stringShape{}, want: "a table of strings"},
			"classifiers": stringList("a list of strings"),
			"keywords":    stringList("a list of strings"),
			"scripts":     tableShape{value: stringShape{}, want: "a table of strings"},
			"gui-scripts": tableShape{value: stringShape{}, want: "a table of strings"},
			"dynamic": listShape{
				elem: enumShape{values: dynamicFieldValues()},
				want: "a list of strings",
			},
		},
		want: "a table",
	}
	buildSystem := recordShape{
		fields: map[string]shape{
			"build-backend": stringShape{},
			"requires":      stringList("a list of strings"),
			"backend-path":  stringList("a list of strings"),
		},
		want: "a table",
	}
	includeGroup := oneOfShape{
		str: stringShape{},
		table: recordShape{
			fields: map[string]shape{"include-group": stringShape{}},
			want:   "a table of strings",
		},
		want: "a string or include-group table",
	}
	return recordShape{
		fields: map[string]shape{
			"build-system": buildSystem,
			"project":      project,
			"tool":         tableShape{value: anyShape{}, want: "a table"},
			"dependency-groups": tableShape{
				value: listShape{elem: includeGroup, want: "a list of strings or include-group tables"},
				want:  "a table of dependency groups",
			},
		},
		want: "a table",
	}
}

// ValidateTable runs the structural pre-pass over a decoded
// pyproject.toml document: every declared table shape is checked without
// building any values. Extra keys are tolerated here; use the Validate*
// functions to reject them.
func ValidateTable(data map[string]any, collectErrors bool) error {
	c := &errorCollector{collect: collectErrors}
	if project, ok := data["project"].(map[string]any); ok {
		if _, present := project["name"]; !present {
			c.errorf("project.name", "Field %q is required if %q is present", "project.name", "project")
		}
	}
	pyprojectShape().check(c, data, "")
	return c.finalize()
}

// ValidateTopLevel rejects unknown top-level pyproject.toml keys.
func ValidateTopLevel(data map[string]any) error {
	if extras := unknownKeys(data, knownTopLevelFields); len(extras) > 0 {
		return &ConfigError{Message: fmt.Sprintf("Extra keys present in pyproject.toml: %s", quoteJoin(extras))}
	}
	return nil
}

// ValidateBuildSystem rejects unknown keys in [build-system].
func ValidateBuildSystem(data map[string]any) error {
	table, _ := data["build-system"].(map[string]any)
	if extras := unknownKeys(table, knownBuildSystemFields); len(extras) > 0 {
		return &ConfigError{
			Message: fmt.Sprintf("Extra keys present in %q: %s", "build-system", quoteJoin(extras)),
			Key:     "build-system",
		}
	}
	return nil
}

// ValidateProject rejects unknown keys in [project].
func ValidateProject(data map[string]any) error {
	table, _ := data["project"].(map[string]any)
	if extras := unknownKeys(table, knownProjectFields()); len(extras) > 0 {
		return &ConfigError{
			Message: fmt.Sprintf("Extra keys present in %q: %s", "project", quoteJoin(extras)),
			Key:     "project",
		}
	}
	return nil
}
