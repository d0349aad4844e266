package specdoc

import (
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Value is a read-only fragment of a parsed document.
// The zero Value is empty.
type Value struct {
	node *yaml.Node
}

func newValue(n *yaml.Node) Value {
	return Value{node: deref(n)}
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool {
	return v.node == nil
}

// IsScalar reports whether the value is a single scalar.
func (v Value) IsScalar() bool {
	return v.node != nil && v.node.Kind == yaml.ScalarNode
}

// String renders the value. Scalars are returned verbatim, composites as
// block YAML with keys in source order.
func (v Value) String() string {
	if v.node == nil {
		return ""
	}
	if v.node.Kind == yaml.ScalarNode {
		return v.node.Value
	}
	out, err := yaml.Marshal(blockCopy(v.node))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}

// Decode converts the value into the JSON data model: map[string]any,
// []any, string, float64, bool and nil. Mapping keys are always strings.
func (v Value) Decode() (any, error) {
	return toInstance(v.node), nil
}

// MarshalJSON encodes the decoded value.
func (v Value) MarshalJSON() ([]byte, error) {
	data, err := v.Decode()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// blockCopy returns a deep copy of n with flow styles cleared so JSON
// sources render as block YAML. Aliases are expanded.
func blockCopy(n *yaml.Node) *yaml.Node {
	n = deref(n)
	if n == nil {
		return nil
	}
	c := &yaml.Node{
		Kind:  n.Kind,
		Tag:   n.Tag,
		Value: n.Value,
	}
	if n.Kind == yaml.ScalarNode && n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		c.Style = n.Style
	}
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, 0, len(n.Content))
		for _, child := range n.Content {
			c.Content = append(c.Content, blockCopy(child))
		}
	}
	return c
}

// deref unwraps document and alias nodes.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}
