// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package pyproject validates the standard [project] table of a
// pyproject.toml file and renders it as a Python core-metadata record.
package pyproject

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/pybuild-go/pyproject/pkg/pep508"
)

var validName = regexp.MustCompile(`(?i)^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

var canonicalizeRun = regexp.MustCompile(`[-_.]+`)

// SpecifierSet is a parsed PEP 440 version specifier that remembers its
// source spelling for output.
type SpecifierSet struct {
	raw  string
	spec pep440.Specifiers
}

// ParseSpecifierSet parses a PEP 440 version specifier string such as
// ">=3.8,<4".
func ParseSpecifierSet(s string) (*SpecifierSet, error) {
	spec, err := pep440.NewSpecifiers(s)
	if err != nil {
		return nil, err
	}
	return &SpecifierSet{raw: s, spec: spec}, nil
}

// Check reports whether a version satisfies the specifier set.
func (s *SpecifierSet) Check(v pep440.Version) bool { return s.spec.Check(v) }

func (s *SpecifierSet) String() string { return s.raw }

// ExtraKeyPolicy selects how unknown keys in pyproject.toml are treated.
type ExtraKeyPolicy int

const (
	// ExtraKeysWarn reports unknown keys as warnings.
	ExtraKeysWarn ExtraKeyPolicy = iota
	// ExtraKeysError treats unknown keys as validation errors.
	ExtraKeysError
	// ExtraKeysAllow ignores unknown keys.
	ExtraKeysAllow
)

// Options configures FromPyProject.
type Options struct {
	// ProjectDir is the filesystem rooted at the directory holding
	// pyproject.toml, used to resolve readme, license, and license-files
	// references. Required whenever those fields reference files.
	ProjectDir billy.Filesystem
	// MetadataVersion pins the emitted core-metadata version. Empty means
	// pick the lowest version that can represent the fields in use.
	MetadataVersion string
	// DynamicMetadata lists core-metadata fields a build backend will
	// fill in later, emitted as Dynamic headers.
	DynamicMetadata []string
	// ExtraKeys selects the treatment of unknown pyproject.toml keys.
	ExtraKeys ExtraKeyPolicy
	// CollectErrors gathers every defect into one ValidationErrors value
	// instead of stopping at the first.
	CollectErrors bool
	// OnWarning receives non-fatal findings. Nil discards them.
	OnWarning func(ConfigWarning)
}

// Metadata is the validated content of a [project] table. Zero-valued
// fields were absent from the input. After FromPyProject returns, only
// fields declared in Dynamic may be assigned, and only through Set.
type Metadata struct {
	Name                 string
	Version              *pep440.Version
	Description          string
	LicenseExpression    string
	License              *License
	LicenseFiles         []string
	Readme               *Readme
	RequiresPython       *SpecifierSet
	Dependencies         []pep508.Requirement
	OptionalDependencies map[string][]pep508.Requirement
	Entrypoints          map[string]map[string]string
	Authors              []Contact
	Maintainers          []Contact
	URLs                 map[string]string
	Classifiers          []string
	Keywords             []string
	Scripts              map[string]string
	GUIScripts           map[string]string
	Dynamic              []string
	DynamicMetadata      []string
	MetadataVersion      string

	locked bool
}

// FromPyProject builds a Metadata record out of a decoded pyproject.toml
// document, typically the result of toml.Unmarshal into a map[string]any.
//
// The returned error is a single *ConfigError, or ValidationErrors when
// opts.CollectErrors is set. In collect mode a non-nil Metadata is
// returned alongside the errors with the valid fields populated.
func FromPyProject(data map[string]any, opts Options) (*Metadata, error) {
	if opts.ProjectDir == nil {
		opts.ProjectDir = osfs.New(".")
	}
	c := &errorCollector{collect: opts.CollectErrors, onWarn: opts.OnWarning}
	md := &Metadata{
		MetadataVersion: opts.MetadataVersion,
		DynamicMetadata: opts.DynamicMetadata,
	}

	rawProject, present := data["project"]
	if !present {
		c.errorf("project", "Section %q missing in pyproject.toml", "project")
		return md, c.finalize()
	}
	project, ok := rawProject.(map[string]any)
	if !ok {
		c.errorf("project", "Field %q has an invalid type, expecting a table (got %s)", "project", typeName(rawProject))
		return md, c.finalize()
	}

	if opts.ExtraKeys != ExtraKeysAllow {
		checkExtraKeys(c, data, project, opts.ExtraKeys == ExtraKeysError)
	}

	r := &reader{c: c, fs: opts.ProjectDir}

	// Dynamic comes first so missing-field diagnostics below can consult
	// it.
	md.Dynamic = r.dynamic(project)

	if raw, present := project["name"]; present {
		md.Name, _ = c.asString(raw, "project.name")
	} else {
		c.errorf("project.name", "Field %q missing", "project.name")
	}

	if raw, present := project["version"]; present {
		if s, ok := c.asString(raw, "project.version"); ok && s != "" {
			v, err := pep440.Parse(s)
			if err != nil {
				c.errorf("project.version", "Field %q is an invalid PEP 440 version string (got %q)", "project.version", s)
			} else {
				md.Version = &v
			}
		}
	} else if !contains(md.Dynamic, "version") {
		c.errorf("project.version", "Field %q missing and \"version\" not specified in %q", "project.version", "project.dynamic")
	}

	if raw, present := project["description"]; present {
		md.Description, _ = c.asString(raw, "project.description")
	}

	md.LicenseExpression, md.License = r.license(project)
	md.LicenseFiles = r.licenseFiles(project)
	md.Readme = r.readme(project)

	if raw, present := project["requires-python"]; present {
		if s, ok := c.asString(raw, "project.requires-python"); ok && s != "" {
			spec, err := ParseSpecifierSet(s)
			if err != nil {
				c.errorf("project.requires-python", "Field %q is an invalid Python version specifier string (got %q)", "project.requires-python", s)
			} else {
				md.RequiresPython = spec
			}
		}
	}

	md.Dependencies = r.dependencies(project)
	md.OptionalDependencies = r.optionalDependencies(project)
	md.Entrypoints = r.entrypoints(project)

	if raw, present := project["authors"]; present {
		md.Authors, _ = c.asPeople(raw, "project.authors")
	}
	if raw, present := project["maintainers"]; present {
		md.Maintainers, _ = c.asPeople(raw, "project.maintainers")
	}
	if raw, present := project["urls"]; present {
		md.URLs, _ = c.asStringMap(raw, "project.urls")
	}
	if raw, present := project["classifiers"]; present {
		md.Classifiers, _ = c.asStringList(raw, "project.classifiers")
	}
	if raw, present := project["keywords"]; present {
		md.Keywords, _ = c.asStringList(raw, "project.keywords")
	}
	if raw, present := project["scripts"]; present {
		md.Scripts, _ = c.asStringMap(raw, "project.scripts")
	}
	if raw, present := project["gui-scripts"]; present {
		md.GUIScripts, _ = c.asStringMap(raw, "project.gui-scripts")
	}

	md.validate(c, true)

	md.locked = true
	return md, c.finalize()
}

// checkExtraKeys reports keys outside the known pyproject.toml and
// [project] vocabularies, as errors or warnings per asError.
func checkExtraKeys(c *errorCollector, data, project map[string]any, asError bool) {
	report := func(key, format string, args ...any) {
		if asError {
			c.errorf(key, format, args...)
		} else {
			c.warnf(key, format, args...)
		}
	}
	if extras := unknownKeys(data, knownTopLevelFields); len(extras) > 0 {
		report("", "Extra keys present in pyproject.toml: %s", quoteJoin(extras))
	}
	if extras := unknownKeys(project, knownProjectFields()); len(extras) > 0 {
		report("project", "Extra keys present in %q: %s", "project", quoteJoin(extras))
	}
}

func unknownKeys(m map[string]any, known map[string]bool) []string {
	var extras []string
	for k := range m {
		if !known[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return extras
}

// Validate re-checks the record's cross-field invariants, which can fail
// after Set calls changed a dynamic field. Warnings are not re-issued.
func (m *Metadata) Validate() error {
	c := &errorCollector{collect: true}
	m.validate(c, false)
	return c.finalize()
}

func (m *Metadata) validate(c *errorCollector, warn bool) {
	if m.MetadataVersion != "" && !contains(KnownMetadataVersions, m.MetadataVersion) {
		c.errorf("metadata-version", "The metadata_version must be one of %v or None (got %q)", KnownMetadataVersions, m.MetadataVersion)
	}

	if m.Name != "" && !validName.MatchString(m.Name) {
		c.errorf("project.name", "Invalid project name %q. A valid name consists only of ASCII letters and numbers, period, underscore and hyphen. It must start and end with a letter or number", m.Name)
	}

	hasLicenseClassifier := false
	for _, classifier := range m.Classifiers {
		if strings.HasPrefix(classifier, "License ::") {
			hasLicenseClassifier = true
			break
		}
	}

	if m.LicenseFiles != nil && m.License != nil {
		c.errorf("project.license-files", "%q must not be used when %q is not a SPDX license expression", "project.license-files", "project.license")
	}
	if m.LicenseExpression != "" && hasLicenseClassifier {
		c.errorf("project.classifiers", "Setting %q to an SPDX license expression is not compatible with %q classifiers", "project.license", "License ::")
	}

	version := m.AutoMetadataVersion()
	if m.MetadataVersion != "" && preSPDXMetadataVersions[m.MetadataVersion] {
		if m.LicenseExpression != "" {
			c.errorf("project.license", "Setting %q to an SPDX license expression is supported only when emitting metadata version >= 2.4", "project.license")
		}
		if m.LicenseFiles != nil {
			c.errorf("project.license-files", "%q is supported only when emitting metadata version >= 2.4", "project.license-files")
		}
	}

	if warn {
		if strings.ContainsAny(m.Description, "\r\n") {
			c.warnf("project.description", "The one-line summary containing a newline will be truncated by some tools")
		}
		if !preSPDXMetadataVersions[version] {
			if m.License != nil {
				c.warnf("project.license", "Set %q to an SPDX license expression for metadata >= 2.4", "project.license")
			}
			if hasLicenseClassifier {
				c.warnf("project.classifiers", "%q license classifiers are deprecated for metadata >= 2.4, use a SPDX license expression for %q instead", "License ::", "project.license")
			}
		}
	}
}

// AutoMetadataVersion returns the metadata version that will be emitted:
// the pinned version when one was given, otherwise the lowest version
// able to represent the fields in use.
func (m *Metadata) AutoMetadataVersion() string {
	if m.MetadataVersion != "" {
		return m.MetadataVersion
	}
	if m.LicenseExpression != "" || m.LicenseFiles != nil {
		return "2.4"
	}
	if len(m.DynamicMetadata) > 0 {
		return "2.2"
	}
	return "2.1"
}

// CanonicalName returns the PEP 503 normalized project name: lowercase,
// with runs of period, underscore, and hyphen collapsed to one hyphen.
func (m *Metadata) CanonicalName() string {
	return strings.ToLower(canonicalizeRun.ReplaceAllString(m.Name, "-"))
}

// Set assigns a field after construction. Only fields declared dynamic in
// the source document may be assigned; anything else returns a
// *NotDynamicError. Field names accept underscores in place of hyphens.
// Assigning does not re-run cross-field validation; call Validate when
// the updates are complete.
func (m *Metadata) Set(field string, value any) error {
	field = strings.ReplaceAll(field, "_", "-")
	if m.locked && !m.assignable(field) {
		return &NotDynamicError{Field: field}
	}
	invalid := func(want string) error {
		return &ConfigError{
			Message: fmt.Sprintf("Field %q has an invalid type, expecting %s (got %T)", "project."+field, want, value),
			Key:     "project." + field,
		}
	}
	switch field {
	case "name":
		s, ok := value.(string)
		if !ok {
			return invalid("a string")
		}
		m.Name = s
	case "version":
		switch v := value.(type) {
		case pep440.Version:
			m.Version = &v
		case *pep440.Version:
			m.Version = v
		case string:
			parsed, err := pep440.Parse(v)
			if err != nil {
				return &ConfigError{
					Message: fmt.Sprintf("Field %q is an invalid PEP 440 version string (got %q)", "project.version", v),
					Key:     "project.version",
				}
			}
			m.Version = &parsed
		default:
			return invalid("a PEP 440 version")
		}
	case "description":
		s, ok := value.(string)
		if !ok {
			return invalid("a string")
		}
		m.Description = s
	case "license":
		switch v := value.(type) {
		case string:
			m.LicenseExpression = v
			m.License = nil
		case License:
			m.License = &v
			m.LicenseExpression = ""
		case *License:
			m.License = v
			m.LicenseExpression = ""
		default:
			return invalid("a string or License")
		}
	case "license-files":
		v, ok := value.([]string)
		if !ok {
			return invalid("a list of strings")
		}
		m.LicenseFiles = v
	case "readme":
		switch v := value.(type) {
		case Readme:
			m.Readme = &v
		case *Readme:
			m.Readme = v
		default:
			return invalid("a Readme")
		}
	case "requires-python":
		switch v := value.(type) {
		case *SpecifierSet:
			m.RequiresPython = v
		case string:
			spec, err := ParseSpecifierSet(v)
			if err != nil {
				return &ConfigError{
					Message: fmt.Sprintf("Field %q is an invalid Python version specifier string (got %q)", "project.requires-python", v),
					Key:     "project.requires-python",
				}
			}
			m.RequiresPython = spec
		default:
			return invalid("a version specifier")
		}
	case "dependencies":
		v, ok := value.([]pep508.Requirement)
		if !ok {
			return invalid("a list of requirements")
		}
		m.Dependencies = v
	case "optional-dependencies":
		v, ok := value.(map[string][]pep508.Requirement)
		if !ok {
			return invalid("a table of requirement lists")
		}
		m.OptionalDependencies = v
	case "entry-points":
		v, ok := value.(map[string]map[string]string)
		if !ok {
			return invalid("a table of entrypoint sections")
		}
		m.Entrypoints = v
	case "authors":
		v, ok := value.([]Contact)
		if !ok {
			return invalid("a list of contacts")
		}
		m.Authors = v
	case "maintainers":
		v, ok := value.([]Contact)
		if !ok {
			return invalid("a list of contacts")
		}
		m.Maintainers = v
	case "urls":
		v, ok := value.(map[string]string)
		if !ok {
			return invalid("a table of strings")
		}
		m.URLs = v
	case "classifiers":
		v, ok := value.([]string)
		if !ok {
			return invalid("a list of strings")
		}
		m.Classifiers = v
	case "keywords":
		v, ok := value.([]string)
		if !ok {
			return invalid("a list of strings")
		}
		m.Keywords = v
	case "scripts":
		v, ok := value.(map[string]string)
		if !ok {
			return invalid("a table of strings")
		}
		m.Scripts = v
	case "gui-scripts":
		v, ok := value.(map[string]string)
		if !ok {
			return invalid("a table of strings")
		}
		m.GUIScripts = v
	case "metadata-version":
		s, ok := value.(string)
		if !ok {
			return invalid("a string")
		}
		m.MetadataVersion = s
	case "dynamic-metadata":
		v, ok := value.([]string)
		if !ok {
			return invalid("a list of strings")
		}
		m.DynamicMetadata = v
	default:
		return &ConfigError{
			Message: fmt.Sprintf("Unknown field %q", field),
			Key:     "project." + field,
		}
	}
	return nil
}

// assignable reports whether a locked record permits assigning field.
// The emission controls are never part of the source document and stay
// assignable.
func (m *Metadata) assignable(field string) bool {
	if field == "metadata-version" || field == "dynamic-metadata" {
		return true
	}
	return contains(m.Dynamic, field)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
