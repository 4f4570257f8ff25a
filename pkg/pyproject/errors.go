// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"fmt"
	"strings"
)

// ConfigError is a single defect in the pyproject metadata: malformed or
// contradictory input, always attributable to the input data.
type ConfigError struct {
	Message string
	// Key is the dotted path of the offending field, e.g.
	// "project.license.file". May be empty for document-level defects.
	Key string
}

func (e *ConfigError) Error() string { return e.Message }

// ValidationErrors is an ordered group of configuration defects collected
// during a single validation pass.
type ValidationErrors []*ConfigError

func (v ValidationErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to validate pyproject metadata (%d errors):", len(v))
	for _, err := range v {
		b.WriteString("\n  " + err.Message)
	}
	return b.String()
}

// ConfigWarning reports deprecated but tolerated usage. Warnings never
// abort validation.
type ConfigWarning struct {
	Message string
	Key     string
}

// NotDynamicError reports a programming-contract violation: assigning a
// field of a locked record that was not declared dynamic. Unlike
// ConfigError it indicates caller misuse, not bad input, and is never
// collected.
type NotDynamicError struct {
	Field string
}

func (e *NotDynamicError) Error() string {
	return fmt.Sprintf("Field %q is not dynamic", e.Field)
}

// errorCollector accumulates configuration defects during a walk of the
// raw mapping. With collect set, every defect is recorded and reported
// together; otherwise only the first defect survives to finalize, which
// mirrors fail-fast semantics without a second code path.
type errorCollector struct {
	collect bool
	errs    ValidationErrors
	onWarn  func(ConfigWarning)
}

func (c *errorCollector) errorf(key, format string, args ...any) {
	if c.failed() {
		return
	}
	c.errs = append(c.errs, &ConfigError{Message: fmt.Sprintf(format, args...), Key: key})
}

func (c *errorCollector) warnf(key, format string, args ...any) {
	if c.onWarn != nil {
		c.onWarn(ConfigWarning{Message: fmt.Sprintf(format, args...), Key: key})
	}
}

// failed reports whether a fail-fast collector already holds its defect.
func (c *errorCollector) failed() bool {
	return !c.collect && len(c.errs) > 0
}

func (c *errorCollector) finalize() error {
	switch {
	case len(c.errs) == 0:
		return nil
	case !c.collect:
		return c.errs[0]
	default:
		return c.errs
	}
}
