// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package pep508 implements parsing and rendering of PEP 508 dependency
// specifiers and their environment markers.
//
// The marker grammar is exposed as an AST so callers can ask structural
// questions (is the top-level combinator a disjunction?) before rewriting
// a requirement's marker.
package pep508

import (
	"regexp"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/pkg/errors"
)

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	extraPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
)

// Requirement is a parsed PEP 508 dependency specifier.
type Requirement struct {
	Name      string
	Extras    []string
	Specifier string // normalized PEP 440 specifier set, "" if absent
	URL       string // direct reference, "" if absent
	Marker    *Marker
}

// ParseRequirement parses a PEP 508 requirement string such as
// "requests[socks]>=2.8.1,!=2.8.2; python_version < '2.7'".
func ParseRequirement(s string) (Requirement, error) {
	var r Requirement
	rest := strings.TrimSpace(s)
	if rest == "" {
		return r, errors.New("empty requirement string")
	}
	name := namePattern.FindString(rest)
	if name == "" {
		return r, errors.Errorf("invalid requirement name in %q", s)
	}
	r.Name = name
	rest = strings.TrimSpace(rest[len(name):])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return r, errors.Errorf("unterminated extras in %q", s)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" && end == 1 {
				break // empty extras list "[]" is allowed
			}
			if !extraPattern.MatchString(extra) {
				return r, errors.Errorf("invalid extra name %q in %q", extra, s)
			}
			r.Extras = append(r.Extras, extra)
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if i := findMarkerSeparator(rest); i >= 0 {
		markerStr := strings.TrimSpace(rest[i+1:])
		if markerStr == "" {
			return r, errors.Errorf("expected marker after %q in %q", ";", s)
		}
		marker, err := ParseMarker(markerStr)
		if err != nil {
			return r, err
		}
		r.Marker = marker
		rest = strings.TrimSpace(rest[:i])
	}

	switch {
	case strings.HasPrefix(rest, "@"):
		r.URL = strings.TrimSpace(rest[1:])
		if r.URL == "" {
			return r, errors.Errorf("expected URL after %q in %q", "@", s)
		}
	case rest != "":
		spec := rest
		if strings.HasPrefix(spec, "(") && strings.HasSuffix(spec, ")") {
			spec = strings.TrimSpace(spec[1 : len(spec)-1])
		}
		if _, err := pep440.NewSpecifiers(spec); err != nil {
			return r, errors.Wrapf(err, "invalid version specifier %q", spec)
		}
		r.Specifier = normalizeSpecifier(spec)
	}
	return r, nil
}

// MustParseRequirement is ParseRequirement that panics on invalid input.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	b.WriteString(r.Specifier)
	if r.URL != "" {
		b.WriteString(" @ " + r.URL)
	}
	if r.Marker != nil {
		b.WriteString("; " + r.Marker.String())
	}
	return b.String()
}

// findMarkerSeparator locates the ';' that introduces the marker,
// skipping any that appear inside quoted strings.
func findMarkerSeparator(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';':
			return i
		}
	}
	return -1
}

// normalizeSpecifier strips whitespace from each comma-separated clause.
func normalizeSpecifier(spec string) string {
	clauses := strings.Split(spec, ",")
	for i, clause := range clauses {
		clauses[i] = strings.ReplaceAll(clause, " ", "")
	}
	return strings.Join(clauses, ",")
}
