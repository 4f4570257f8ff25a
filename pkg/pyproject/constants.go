// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

// KnownMetadataVersions lists the core-metadata versions this package can
// emit, oldest first.
var KnownMetadataVersions = []string{"2.1", "2.2", "2.3", "2.4"}

// preSPDXMetadataVersions are the versions that predate PEP 639 (SPDX
// license expressions and License-File).
var preSPDXMetadataVersions = map[string]bool{
	"2.1": true,
	"2.2": true,
	"2.3": true,
}

// projectToMetadata maps each [project] table field to the core-metadata
// headers it can populate.
var projectToMetadata = map[string][]string{
	"authors":               {"Author", "Author-Email"},
	"classifiers":           {"Classifier"},
	"dependencies":          {"Requires-Dist"},
	"description":           {"Summary"},
	"dynamic":               {},
	"entry-points":          {},
	"gui-scripts":           {},
	"keywords":              {"Keywords"},
	"license":               {"License", "License-Expression"},
	"license-files":         {"License-File"},
	"maintainers":           {"Maintainer", "Maintainer-Email"},
	"name":                  {"Name"},
	"optional-dependencies": {"Provides-Extra", "Requires-Dist"},
	"readme":                {"Description", "Description-Content-Type"},
	"requires-python":       {"Requires-Python"},
	"scripts":               {},
	"urls":                  {"Project-URL"},
	"version":               {"Version"},
}

// FieldToMetadata returns the core-metadata headers that correspond to a
// [project] table field, or nil for an unknown field.
func FieldToMetadata(field string) []string {
	headers := projectToMetadata[field]
	out := make([]string, len(headers))
	copy(out, headers)
	return out
}

var knownTopLevelFields = map[string]bool{
	"build-system":      true,
	"project":           true,
	"tool":              true,
	"dependency-groups": true,
}

var knownBuildSystemFields = map[string]bool{
	"backend-path":  true,
	"build-backend": true,
	"requires":      true,
}

func knownProjectFields() map[string]bool {
	fields := make(map[string]bool, len(projectToMetadata))
	for field := range projectToMetadata {
		fields[field] = true
	}
	return fields
}

// knownMetadataFields is the lowercase vocabulary of headers that may
// appear in a core-metadata record. Writing anything else is a defect.
var knownMetadataFields = map[string]bool{
	"author":                   true,
	"author-email":             true,
	"classifier":               true,
	"description":              true,
	"description-content-type": true,
	"download-url":             true, // Not specified via pyproject standards
	"dynamic":                  true,
	"home-page":                true, // Not specified via pyproject standards
	"keywords":                 true,
	"license":                  true,
	"license-expression":       true,
	"license-file":             true,
	"maintainer":               true,
	"maintainer-email":         true,
	"metadata-version":         true,
	"name":                     true,
	"obsoletes":                true, // Deprecated
	"obsoletes-dist":           true, // Rarely used
	"platform":                 true, // Not specified via pyproject standards
	"project-url":              true,
	"provides":                 true, // Deprecated
	"provides-dist":            true, // Rarely used
	"provides-extra":           true,
	"requires":                 true, // Deprecated
	"requires-dist":            true,
	"requires-external":        true, // Not specified via pyproject standards
	"requires-python":          true,
	"summary":                  true,
	"supported-platform":       true, // Not specified via pyproject standards
	"version":                  true,
}
