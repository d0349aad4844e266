package specdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasbot/internal/httputil"
	"github.com/erraggy/oasbot/oaserrors"
)

// Option configures Parse and Validate.
type Option func(*parseConfig)

type parseConfig struct {
	source string
}

// WithSourceName sets the name used in error messages, usually the URL the
// document was fetched from.
func WithSourceName(name string) Option {
	return func(cfg *parseConfig) {
		cfg.source = name
	}
}

func applyOptions(opts []Option) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Parse builds a Document from JSON or YAML bytes.
//
// It fails with *oaserrors.ParseError when the bytes are not well-formed, the
// root is not an object, or the info or paths objects are missing. Malformed
// entries below those levels are tolerated and parse as empty values.
func Parse(data []byte, opts ...Option) (*Document, error) {
	cfg := applyOptions(opts)

	root, err := decodeRoot(data, cfg.source)
	if err != nil {
		return nil, err
	}

	info := lookup(root, "info")
	if info == nil || info.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{Source: cfg.source, Line: root.Line, Message: "missing or invalid info object"}
	}
	paths := lookup(root, "paths")
	if paths == nil || paths.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{Source: cfg.source, Line: root.Line, Message: "missing or invalid paths object"}
	}

	doc := &Document{
		source:     cfg.source,
		root:       root,
		info:       info,
		basePath:   scalarText(lookup(root, "basePath")),
		pathIndex:  make(map[string]*PathItem),
		defIndex:   make(map[string]int),
		operations: make(map[string]*Operation),
	}
	doc.parsePaths(paths)
	doc.parseDefinitions(lookup(root, "definitions"))
	return doc, nil
}

// decodeRoot returns the root mapping node of data.
func decodeRoot(data []byte, source string) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &oaserrors.ParseError{Source: source, Message: "empty document"}
	}

	var root *yaml.Node
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, &oaserrors.ParseError{Source: source, Line: jsonErrorLine(trimmed, err), Message: "invalid JSON", Cause: err}
		}
		n, err := newJSONTree(trimmed).value()
		if err != nil {
			return nil, &oaserrors.ParseError{Source: source, Line: jsonErrorLine(trimmed, err), Message: "invalid JSON", Cause: err}
		}
		root = n
	} else {
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, &oaserrors.ParseError{Source: source, Message: "invalid YAML", Cause: err}
		}
		root = deref(&node)
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{Source: source, Message: "document root must be an object"}
	}
	return root, nil
}

// jsonTree builds a node tree from a JSON token stream. encoding/json applies
// the JSON escape rules and the tree keeps keys in source order.
type jsonTree struct {
	data   []byte
	dec    *json.Decoder
	offset int
	line   int
}

func newJSONTree(data []byte) *jsonTree {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return &jsonTree{data: data, dec: dec, line: 1}
}

// next reads one token and the line it ends on.
func (t *jsonTree) next() (json.Token, int, error) {
	tok, err := t.dec.Token()
	if err != nil {
		return nil, 0, err
	}
	end := int(t.dec.InputOffset())
	if end > len(t.data) {
		end = len(t.data)
	}
	if end > t.offset {
		t.line += bytes.Count(t.data[t.offset:end], []byte("\n"))
		t.offset = end
	}
	return tok, t.line, nil
}

func (t *jsonTree) value() (*yaml.Node, error) {
	tok, line, err := t.next()
	if err != nil {
		return nil, err
	}
	return t.build(tok, line)
}

func (t *jsonTree) build(tok json.Token, line int) (*yaml.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line}
			for t.dec.More() {
				keyTok, keyLine, err := t.next()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := t.value()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Line: keyLine}, val)
			}
			if _, _, err := t.next(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line}
			for t.dec.More() {
				val, err := t.value()
				if err != nil {
					return nil, err
				}
				n.Content = append(n.Content, val)
			}
			if _, _, err := t.next(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Line: line}, nil
	case json.Number:
		tag := "!!int"
		if _, err := strconv.ParseInt(v.String(), 10, 64); err != nil {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String(), Line: line}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v), Line: line}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null", Line: line}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func jsonErrorLine(data []byte, err error) int {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return 0
	}
	offset := int(syntaxErr.Offset)
	if offset > len(data) {
		offset = len(data)
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

func (d *Document) parsePaths(paths *yaml.Node) {
	for i := 0; i+1 < len(paths.Content); i += 2 {
		key := paths.Content[i]
		if key.Kind != yaml.ScalarNode || strings.HasPrefix(key.Value, "x-") {
			continue
		}
		if _, dup := d.pathIndex[key.Value]; dup {
			continue
		}
		itemNode := deref(paths.Content[i+1])
		item := &PathItem{Path: key.Value, Raw: newValue(itemNode)}
		d.paths = append(d.paths, item)
		d.pathIndex[item.Path] = item

		if itemNode == nil || itemNode.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(itemNode.Content); j += 2 {
			method := itemNode.Content[j]
			if method.Kind != yaml.ScalarNode || !httputil.IsOAS2Method(method.Value) {
				continue
			}
			op := parseOperation(item.Path, method.Value, deref(itemNode.Content[j+1]))
			item.Operations = append(item.Operations, op)
			d.opList = append(d.opList, op)
			if op.OperationID != "" {
				if _, exists := d.operations[op.OperationID]; !exists {
					d.operations[op.OperationID] = op
				}
			}
		}
	}
}

func (d *Document) parseDefinitions(defs *yaml.Node) {
	if defs == nil || defs.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(defs.Content); i += 2 {
		key := defs.Content[i]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		if _, dup := d.defIndex[key.Value]; dup {
			continue
		}
		d.defIndex[key.Value] = len(d.definitions)
		d.definitions = append(d.definitions, Definition{Name: key.Value, Schema: newValue(defs.Content[i+1])})
	}
}

// parseOperation never fails: a non-object operation yields an Operation
// carrying only its path and method.
func parseOperation(path, method string, n *yaml.Node) *Operation {
	op := &Operation{Path: path, Method: method, Raw: newValue(n)}
	if n == nil || n.Kind != yaml.MappingNode {
		return op
	}
	op.OperationID = scalarText(lookup(n, "operationId"))

	if tags := lookup(n, "tags"); tags != nil && tags.Kind == yaml.SequenceNode {
		for _, t := range tags.Content {
			if s := scalarText(t); s != "" {
				op.Tags = append(op.Tags, s)
			}
		}
	}

	if params := lookup(n, "parameters"); params != nil && params.Kind == yaml.SequenceNode {
		for _, p := range params.Content {
			p = deref(p)
			if p == nil || p.Kind != yaml.MappingNode {
				continue
			}
			op.Parameters = append(op.Parameters, Parameter{
				Name:   scalarText(lookup(p, "name")),
				In:     scalarText(lookup(p, "in")),
				Ref:    refText(lookup(p, "$ref")),
				Schema: parseSchema(lookup(p, "schema")),
			})
		}
	}

	if responses := lookup(n, "responses"); responses != nil && responses.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(responses.Content); i += 2 {
			code := responses.Content[i]
			if code.Kind != yaml.ScalarNode {
				continue
			}
			resp := Response{StatusCode: code.Value}
			if r := deref(responses.Content[i+1]); r != nil && r.Kind == yaml.MappingNode {
				resp.Schema = parseSchema(lookup(r, "schema"))
			}
			op.Responses = append(op.Responses, resp)
		}
	}
	return op
}

func parseSchema(n *yaml.Node) *Schema {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return &Schema{
		Ref:   refText(lookup(n, "$ref")),
		Type:  scalarText(lookup(n, "type")),
		Items: parseSchema(lookup(n, "items")),
	}
}

// lookup returns the value stored under key in mapping m, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if k.Kind == yaml.ScalarNode && k.Value == key {
			return deref(m.Content[i+1])
		}
	}
	return nil
}

// scalarText returns the text of a non-null scalar node, or "".
func scalarText(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return ""
	}
	return n.Value
}

// refText returns the text of a string scalar, or "".
func refText(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return ""
	}
	return n.Value
}
