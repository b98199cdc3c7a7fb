// Package extravars renders the per-stage configuration documents passed to
// ansible-playbook through --extra-vars.
//
// The document is not general JSON. It is a flat, hand-assembled key/value
// template of the exact shape `{ "key": "value", "list": ["a", "b"] }`,
// which is the wire contract the existing playbooks' templating consumes. Do
// not swap this for a JSON serializer without also changing the playbooks.
package extravars

import (
	"fmt"
	"strings"
)

// Doc accumulates key/value pairs for one stage's extra-vars document. Keys
// render in insertion order. The zero value is ready to use.
type Doc struct {
	entries []string
}

// Add appends a scalar value.
func (d *Doc) Add(key, value string) {
	d.entries = append(d.entries, fmt.Sprintf("%q: %q", key, value))
}

// AddList appends an array value, rendered as `"key": ["a", "b"]`.
func (d *Doc) AddList(key string, values []string) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	d.entries = append(d.entries, fmt.Sprintf("%q: [%s]", key, strings.Join(quoted, ", ")))
}

// Build renders the document. There is never a trailing `, ` before the
// closing brace.
func (d *Doc) Build() string {
	return fmt.Sprintf("{ %s }", strings.Join(d.entries, ", "))
}
