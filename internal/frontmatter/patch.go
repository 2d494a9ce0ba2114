package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// dateScalarRe matches date and datetime strings as written in vault
// frontmatter.
var dateScalarRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\S*)?$`)

// Op is a single frontmatter mutation: set a key to a value, or remove it.
type Op struct {
	Key    string
	Value  any
	Remove bool
}

// Set returns an op that writes value under key.
func Set(key string, value any) Op {
	return Op{Key: key, Value: value}
}

// Remove returns an op that deletes key.
func Remove(key string) Op {
	return Op{Key: key, Remove: true}
}

// Patch applies ops to the document's frontmatter block and returns the
// rewritten document. Mutation happens on the YAML node tree, so keys not
// named by an op keep their value, order, and comments. A document without
// a frontmatter block gains one when at least one op sets a value.
func Patch(data []byte, ops ...Op) ([]byte, error) {
	block, body, ok := split(data)
	if !ok {
		return patchFresh(data, ops)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("frontmatter: parse block: %w", err)
	}
	mapping := documentMapping(&doc)
	if mapping == nil {
		return nil, fmt.Errorf("frontmatter: block is not a mapping")
	}

	for _, op := range ops {
		if op.Remove {
			removeKey(mapping, op.Key)
			continue
		}
		if err := setKey(mapping, op.Key, op.Value); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(mapping.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(mapping); err != nil {
			return nil, fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("frontmatter: encode close: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// patchFresh handles documents with no existing frontmatter block.
func patchFresh(data []byte, ops []Op) ([]byte, error) {
	fm := map[string]any{}
	for _, op := range ops {
		if !op.Remove {
			fm[op.Key] = op.Value
		}
	}
	if len(fm) == 0 {
		// Only removals against a missing block: nothing to do.
		return data, nil
	}
	return Render(fm, string(data))
}

// documentMapping unwraps a document node down to its mapping node.
func documentMapping(doc *yaml.Node) *yaml.Node {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}

// setKey replaces the value of key in the mapping, appending the pair when
// the key is absent.
func setKey(mapping *yaml.Node, key string, value any) error {
	var valNode yaml.Node
	if err := valNode.Encode(value); err != nil {
		return fmt.Errorf("frontmatter: encode value for %q: %w", key, err)
	}
	// Emit date strings as plain scalars, the way vault users write
	// them. The encoder would otherwise quote them to avoid timestamp
	// resolution; Parse reads plain timestamps back as their source
	// text, so the round trip is stable either way.
	if s, ok := value.(string); ok && dateScalarRe.MatchString(s) {
		valNode.Style = 0
		valNode.Tag = ""
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = &valNode
			return nil
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	mapping.Content = append(mapping.Content, keyNode, &valNode)
	return nil
}

// removeKey deletes key and its value from the mapping if present.
func removeKey(mapping *yaml.Node, key string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return
		}
	}
}
