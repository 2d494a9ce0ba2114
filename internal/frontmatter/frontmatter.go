// Package frontmatter reads and rewrites the YAML metadata block of
// Markdown vault documents.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Parse extracts the frontmatter mapping and the Markdown body from raw
// document bytes. A document without frontmatter, or with YAML that does
// not parse into a mapping, yields a nil mapping and the full content as
// body.
//
// Decoding goes through the node tree instead of a plain map so that
// date-valued scalars keep their source text: `do_date: 2024-03-01` is
// the string "2024-03-01", never a time.Time. Dates in frontmatter are
// wire values for the calendar surface; resolving them to timestamps
// would turn every plain date into an RFC3339 datetime.
func Parse(data []byte) (map[string]any, string) {
	block, body, ok := split(data)
	if !ok {
		return nil, string(data)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, string(data)
	}
	mapping := documentMapping(&doc)
	if mapping == nil {
		if len(doc.Content) == 0 {
			// Empty block between the delimiters.
			return nil, strings.TrimLeft(body, "\n\r")
		}
		return nil, string(data)
	}
	fm, _ := decodeNode(mapping).(map[string]any)
	return fm, strings.TrimLeft(body, "\n\r")
}

// decodeNode converts a YAML node into plain Go values. Scalars tagged
// as timestamps return their source text instead of a time.Time.
func decodeNode(n *yaml.Node) any {
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = decodeNode(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, c := range n.Content {
			s[i] = decodeNode(c)
		}
		return s
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == "!!timestamp" {
			return n.Value
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return n.Value
		}
		return v
	default:
		return nil
	}
}

// split separates the YAML block (between leading --- delimiters) from the
// body. ok is false when no complete frontmatter block exists.
func split(data []byte) (block []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}
	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	// Consume the remainder of the closing delimiter line.
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		after = after[i+1:]
	} else {
		after = nil
	}
	return block, string(after), true
}

// Render serialises a frontmatter mapping and body into document bytes.
// Keys are emitted in sorted order; used for newly created documents only
// (existing documents go through Patch to preserve their layout).
func Render(fm map[string]any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")

	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entry, err := yaml.Marshal(map[string]any{k: fm[k]})
		if err != nil {
			return nil, fmt.Errorf("frontmatter: marshal %q: %w", k, err)
		}
		buf.Write(entry)
	}
	buf.WriteString(delim + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}
