// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package pyproject

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/pybuild-go/pyproject/internal/textwrap"
	"github.com/pybuild-go/pyproject/pkg/pep508"
)

// Header is one core-metadata header. Value holds real newlines; folding
// happens when the message is serialized.
type Header struct {
	Name  string
	Value string
}

// Message is an RFC 822 style core-metadata record: ordered, repeatable
// headers plus an optional body holding the long description.
type Message struct {
	headers []Header
	body    string
}

// SetHeader appends a header. The name must be part of the core-metadata
// vocabulary. Empty values are dropped silently so callers can assign
// optional fields unconditionally.
func (m *Message) SetHeader(name, value string) error {
	if !knownMetadataFields[strings.ToLower(name)] {
		return &ConfigError{Message: fmt.Sprintf("Unknown field %q", name), Key: name}
	}
	m.add(name, value)
	return nil
}

// add is SetHeader without the vocabulary check, for the renderer whose
// header names are fixed.
func (m *Message) add(name, value string) {
	if value == "" {
		return
	}
	m.headers = append(m.headers, Header{Name: name, Value: value})
}

// Headers returns the headers in insertion order.
func (m *Message) Headers() []Header {
	out := make([]Header, len(m.headers))
	copy(out, m.headers)
	return out
}

// Get returns the value of the first header with the given name, or "".
func (m *Message) Get(name string) string {
	for _, h := range m.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Values returns every value of the given header in order.
func (m *Message) Values(name string) []string {
	var out []string
	for _, h := range m.headers {
		if strings.EqualFold(h.Name, name) {
			out = append(out, h.Value)
		}
	}
	return out
}

// Body returns the message body.
func (m *Message) Body() string { return m.body }

// SetBody replaces the message body.
func (m *Message) SetBody(body string) { m.body = body }

// String serializes the message. Multiline header values are folded by
// indenting continuation lines to the value column.
func (m *Message) String() string {
	var b strings.Builder
	for _, h := range m.headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(textwrap.Indent(h.Value, strings.Repeat(" ", len(h.Name)+2)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.body)
	return b.String()
}

// ParseMessage reads a serialized core-metadata record back into a
// Message, unfolding continuation lines. The inverse of String for
// messages this package produces.
func ParseMessage(r io.Reader) (*Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading message")
	}
	head, body, _ := strings.Cut(string(data), "\n\n")
	m := &Message{body: body}
	for _, line := range strings.Split(head, "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if len(m.headers) == 0 {
				return nil, errors.Errorf("continuation line with no preceding header: %q", line)
			}
			last := &m.headers[len(m.headers)-1]
			pad := strings.Repeat(" ", len(last.Name)+2)
			rest := strings.TrimPrefix(line, pad)
			if rest == line {
				rest = strings.TrimLeft(line, " \t")
			}
			last.Value += "\n" + rest
			continue
		}
		name, value, found := strings.Cut(line, ": ")
		if !found {
			name, value, found = strings.Cut(line, ":")
			if !found {
				return nil, errors.Errorf("malformed header line: %q", line)
			}
		}
		if err := m.SetHeader(name, value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AsRFC822 renders the record as a core-metadata message per the
// packaging specifications. The record is re-validated first, without
// re-issuing warnings.
func (m *Metadata) AsRFC822() (*Message, error) {
	c := &errorCollector{collect: false}
	m.validate(c, false)
	if err := c.finalize(); err != nil {
		return nil, err
	}

	msg := &Message{}
	msg.add("Metadata-Version", m.AutoMetadataVersion())
	msg.add("Name", m.Name)
	if m.Version == nil {
		return nil, &ConfigError{Message: "Missing version field"}
	}
	msg.add("Version", m.Version.String())
	msg.add("Summary", m.Description)
	msg.add("Keywords", strings.Join(m.Keywords, ","))
	if homepage, ok := m.URLs["homepage"]; ok {
		msg.add("Home-page", homepage)
	}
	msg.add("Author", nameList(m.Authors))
	msg.add("Author-Email", emailList(m.Authors))
	msg.add("Maintainer", nameList(m.Maintainers))
	msg.add("Maintainer-Email", emailList(m.Maintainers))

	if m.License != nil {
		msg.add("License", m.License.Text)
	} else {
		msg.add("License-Expression", m.LicenseExpression)
	}
	for _, file := range sortedSet(m.LicenseFiles) {
		msg.add("License-File", file)
	}

	for _, classifier := range m.Classifiers {
		msg.add("Classifier", classifier)
	}
	for _, name := range sortedStringKeys(m.URLs) {
		msg.add("Project-URL", fmt.Sprintf("%s, %s", capitalized(name), m.URLs[name]))
	}
	if m.RequiresPython != nil {
		msg.add("Requires-Python", m.RequiresPython.String())
	}
	for _, dep := range m.Dependencies {
		msg.add("Requires-Dist", dep.String())
	}
	for _, extra := range sortedExtras(m.OptionalDependencies) {
		norm := normalizeExtra(extra)
		msg.add("Provides-Extra", norm)
		for _, req := range m.OptionalDependencies[extra] {
			withExtra, err := buildExtraReq(norm, req)
			if err != nil {
				return nil, err
			}
			msg.add("Requires-Dist", withExtra.String())
		}
	}
	if m.Readme != nil {
		msg.add("Description-Content-Type", m.Readme.ContentType)
		msg.body = m.Readme.Text
	}
	// Dynamic headers arrived with core metadata 2.2.
	if m.AutoMetadataVersion() != "2.1" {
		for _, field := range m.DynamicMetadata {
			lower := strings.ToLower(field)
			if lower == "name" || lower == "version" || lower == "dynamic" {
				return nil, &ConfigError{Message: fmt.Sprintf("Field cannot be set as dynamic metadata: %s", field)}
			}
			if !knownMetadataFields[lower] {
				return nil, &ConfigError{Message: fmt.Sprintf("Field is not known: %s", field)}
			}
			msg.add("Dynamic", field)
		}
	}
	return msg, nil
}

// nameList joins the names of contacts that carry no email address.
func nameList(people []Contact) string {
	var names []string
	for _, p := range people {
		if p.Email == "" {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

// emailList joins the addresses of contacts that carry one, as
// "Name <addr>" pairs. A nameless contact renders as Unknown.
func emailList(people []Contact) string {
	var addrs []string
	for _, p := range people {
		if p.Email == "" {
			continue
		}
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		addrs = append(addrs, formatAddr(name, p.Email))
	}
	return strings.Join(addrs, ", ")
}

const addrSpecials = `()<>@,:;\".[]`

func formatAddr(name, addr string) string {
	if strings.ContainsAny(name, addrSpecials) {
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
		return fmt.Sprintf("\"%s\" <%s>", escaped, addr)
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}

// normalizeExtra applies the PEP 685 extra name normalization.
func normalizeExtra(extra string) string {
	return strings.ToLower(strings.NewReplacer(".", "-", "_", "-").Replace(extra))
}

// buildExtraReq conjoins an extra marker onto a requirement. A marker
// whose top level is a disjunction is parenthesized first so the added
// conjunction binds over the whole expression.
func buildExtraReq(extra string, req pep508.Requirement) (pep508.Requirement, error) {
	var expr string
	switch {
	case req.Marker == nil:
		expr = fmt.Sprintf("extra == %q", extra)
	case req.Marker.IsDisjunction():
		expr = fmt.Sprintf("(%s) and extra == %q", req.Marker, extra)
	default:
		expr = fmt.Sprintf("%s and extra == %q", req.Marker, extra)
	}
	marker, err := pep508.ParseMarker(expr)
	if err != nil {
		return req, errors.Wrapf(err, "building extra marker for %q", req.Name)
	}
	req.Marker = marker
	return req, nil
}

// capitalized mirrors Python's str.capitalize, which the ecosystem has
// long applied to Project-URL labels.
func capitalized(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func sortedSet(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedExtras(m map[string][]pep508.Requirement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
