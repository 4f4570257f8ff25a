// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import "strings"

// multiUseFields are the core-metadata headers that may repeat; in the
// structured form their values collect into lists.
var multiUseFields = map[string]bool{
	"classifier":         true,
	"dynamic":            true,
	"license-file":       true,
	"obsoletes-dist":     true,
	"platform":           true,
	"project-url":        true,
	"provides-dist":      true,
	"provides-extra":     true,
	"requires-dist":      true,
	"requires-external":  true,
	"supported-platform": true,
}

// ToMap renders the record in the structured core-metadata form: a flat
// map from lowercase underscore field names to strings or string lists.
// Repeatable headers become lists, keywords are split back into a list,
// and the message body appears under "description". The map encodes
// cleanly as JSON.
func (m *Metadata) ToMap() (map[string]any, error) {
	msg, err := m.AsRFC822()
	if err != nil {
		return nil, err
	}
	return messageToMap(msg), nil
}

func messageToMap(msg *Message) map[string]any {
	out := make(map[string]any)
	for _, h := range msg.Headers() {
		lower := strings.ToLower(h.Name)
		name := strings.ReplaceAll(lower, "-", "_")
		switch {
		case multiUseFields[lower]:
			list, _ := out[name].([]string)
			out[name] = append(list, h.Value)
		case name == "keywords":
			out[name] = strings.Split(h.Value, ",")
		default:
			out[name] = h.Value
		}
	}
	if body := msg.Body(); body != "" {
		out["description"] = body
	}
	return out
}
