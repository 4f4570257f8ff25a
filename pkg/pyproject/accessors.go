// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Contact is one author or maintainer record. At least one of Name or
// Email is always set.
type Contact struct {
	Name  string
	Email string
}

// typeName renders a decoded TOML value's type in TOML vocabulary for
// error messages.
func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, int, uint64:
		return "integer"
	case float64:
		return "float"
	case time.Time:
		return "datetime"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// asString checks that v is a string. On mismatch a defect naming key is
// recorded and ok is false.
func (c *errorCollector) asString(v any, key string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a string (got %s)", key, typeName(v))
		return "", false
	}
	return s, true
}

// asStringList checks that v is a list with every element a string.
func (c *errorCollector) asStringList(v any, key string) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a list of strings (got %s)", key, typeName(v))
		return nil, false
	}
	out := make([]string, 0, len(items))
	valid := true
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			subkey := fmt.Sprintf("%s[%d]", key, i)
			c.errorf(subkey, "Field %q has an invalid type, expecting a string (got %s)", subkey, typeName(item))
			valid = false
			continue
		}
		out = append(out, s)
	}
	if !valid {
		return nil, false
	}
	return out, true
}

// asStringMap checks that v is a table with every value a string. The
// sub-key is embedded in the reported path.
func (c *errorCollector) asStringMap(v any, key string) (map[string]string, bool) {
	table, ok := v.(map[string]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a table of strings (got %s)", key, typeName(v))
		return nil, false
	}
	out := make(map[string]string, len(table))
	valid := true
	for _, subkey := range sortedKeys(table) {
		s, ok := table[subkey].(string)
		if !ok {
			path := key + "." + subkey
			c.errorf(path, "Field %q has an invalid type, expecting a string (got %s)", path, typeName(table[subkey]))
			valid = false
			continue
		}
		out[subkey] = s
	}
	if !valid {
		return nil, false
	}
	return out, true
}

// asPeople checks that v is a list of contact tables. Each entry must be
// a table of strings carrying "name" and/or "email"; anything else is a
// defect reported with the entry's index in the path.
func (c *errorCollector) asPeople(v any, key string) ([]Contact, bool) {
	items, ok := v.([]any)
	if !ok {
		c.errorf(key, "Field %q has an invalid type, expecting a list of tables containing the \"name\" and/or \"email\" keys (got %s)", key, typeName(v))
		return nil, false
	}
	out := make([]Contact, 0, len(items))
	valid := true
	for i, item := range items {
		subkey := fmt.Sprintf("%s[%d]", key, i)
		entry, ok := item.(map[string]any)
		if !ok {
			c.errorf(subkey, "Field %q has an invalid type, expecting a table containing the \"name\" and/or \"email\" keys (got %s)", subkey, typeName(item))
			valid = false
			continue
		}
		var contact Contact
		entryValid := true
		for _, k := range sortedKeys(entry) {
			s, ok := entry[k].(string)
			if !ok {
				path := subkey + "." + k
				c.errorf(path, "Field %q has an invalid type, expecting a string (got %s)", path, typeName(entry[k]))
				entryValid = false
				continue
			}
			switch k {
			case "name":
				contact.Name = s
			case "email":
				contact.Email = s
			}
		}
		if extras := extraKeys(entry, "name", "email"); len(extras) > 0 {
			c.errorf(subkey, "Field %q contains unexpected keys: %s", subkey, quoteJoin(extras))
			entryValid = false
		}
		if _, hasName := entry["name"]; !hasName {
			if _, hasEmail := entry["email"]; !hasEmail {
				c.errorf(subkey, "Field %q must have at least one of \"name\" or \"email\" keys", subkey)
				entryValid = false
			}
		}
		if !entryValid {
			valid = false
			continue
		}
		out = append(out, contact)
	}
	if !valid {
		return nil, false
	}
	return out, true
}

// sortedKeys returns a table's keys in stable order. Decoded TOML tables
// are Go maps, so every walk that reports defects or renders output must
// impose its own order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// extraKeys returns the sorted keys of m not in allowed.
func extraKeys(m map[string]any, allowed ...string) []string {
	var extras []string
	for k := range m {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return extras
}

func quoteJoin(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(quoted, ", ")
}
