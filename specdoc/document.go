package specdoc

import (
	"strings"

	"go.yaml.in/yaml/v4"
)

// Document is an immutable view of a parsed Swagger 2.0 document.
// Values returned by its accessors must not be modified.
type Document struct {
	source      string
	root        *yaml.Node
	info        *yaml.Node
	basePath    string
	paths       []*PathItem
	pathIndex   map[string]*PathItem
	definitions []Definition
	defIndex    map[string]int
	operations  map[string]*Operation
	opList      []*Operation
}

// PathItem is one entry of the paths object.
type PathItem struct {
	// Path is the key as written in the document, e.g. "/pets/{id}"
	Path string
	// Operations in source order; only Swagger 2.0 methods are included
	Operations []*Operation
	// Raw is the complete path item fragment
	Raw Value
}

// Operation is a single method of a path item.
type Operation struct {
	Path        string
	Method      string
	OperationID string
	Tags        []string
	Parameters  []Parameter
	Responses   []Response
	// Raw is the complete operation fragment
	Raw Value
}

// DisplayID returns the operationId, or "METHOD path" when it is absent.
func (o *Operation) DisplayID() string {
	if o.OperationID != "" {
		return o.OperationID
	}
	return strings.ToUpper(o.Method) + " " + o.Path
}

// HasOperationID reports whether the operation declares an operationId.
func (o *Operation) HasOperationID() bool {
	return o.OperationID != ""
}

// Parameter is an entry of an operation's parameter list.
type Parameter struct {
	Name string
	In   string
	// Ref is set when the parameter itself is a $ref
	Ref string
	// Schema is the body schema; nil when absent or malformed
	Schema *Schema
}

// Response is an entry of an operation's responses object.
type Response struct {
	StatusCode string
	// Schema is nil when absent or malformed
	Schema *Schema
}

// Schema holds the parts of a schema object needed to follow a reference.
type Schema struct {
	Ref   string
	Type  string
	Items *Schema
}

// Definition is an entry of the definitions object.
type Definition struct {
	Name   string
	Schema Value
}

// Source returns the name the document was parsed under.
func (d *Document) Source() string {
	return d.source
}

// Info returns a field of the info object.
func (d *Document) Info(field string) (Value, bool) {
	n := lookup(d.info, field)
	if n == nil {
		return Value{}, false
	}
	return newValue(n), true
}

// Root returns a top-level field of the document.
func (d *Document) Root(field string) (Value, bool) {
	n := lookup(d.root, field)
	if n == nil {
		return Value{}, false
	}
	return newValue(n), true
}

// BasePath returns the basePath field, or "" when absent.
func (d *Document) BasePath() string {
	return d.basePath
}

// Paths returns the path items in source order.
func (d *Document) Paths() []*PathItem {
	out := make([]*PathItem, len(d.paths))
	copy(out, d.paths)
	return out
}

// Path returns the path item with the exact key name.
func (d *Document) Path(name string) (*PathItem, bool) {
	p, ok := d.pathIndex[name]
	return p, ok
}

// Definitions returns the definitions in source order.
func (d *Document) Definitions() []Definition {
	out := make([]Definition, len(d.definitions))
	copy(out, d.definitions)
	return out
}

// Definition returns the definition with the exact key name.
func (d *Document) Definition(name string) (Definition, bool) {
	i, ok := d.defIndex[name]
	if !ok {
		return Definition{}, false
	}
	return d.definitions[i], true
}

// Operations returns operations keyed by operationId. Operations without an
// operationId are omitted; when an id repeats, the first occurrence is kept.
func (d *Document) Operations() map[string]*Operation {
	out := make(map[string]*Operation, len(d.operations))
	for k, v := range d.operations {
		out[k] = v
	}
	return out
}

// Operation returns the operation with the exact operationId.
func (d *Document) Operation(id string) (*Operation, bool) {
	op, ok := d.operations[id]
	return op, ok
}

// OperationList returns every path and method pair in source order.
func (d *Document) OperationList() []*Operation {
	out := make([]*Operation, len(d.opList))
	copy(out, d.opList)
	return out
}
