// Package xref finds the operations of a Swagger 2.0 document that mention a
// named object definition.
//
// An operation mentions an object when, checked in this order:
//
//  1. one of its tags equals the name
//  2. its path contains the name
//  3. its display identifier contains the name
//  4. a body parameter schema references #/definitions/<name>
//  5. a response schema, or its items when array-typed, references it
//
// All comparisons ignore case. Each operation is reported at most once, with
// the first criterion that matched. Resolve never fails: malformed entries
// simply do not match.
package xref

import (
	"regexp"
	"strings"

	"github.com/erraggy/oasbot/specdoc"
)

// Kind distinguishes operations that can be addressed by operationId from
// those that can only be addressed by path.
type Kind string

const (
	KindOperation Kind = "operation"
	KindPath      Kind = "path"
)

// Criterion names the rule that linked an operation to the object.
type Criterion string

const (
	ByTag       Criterion = "tag"
	ByPath      Criterion = "path"
	ByName      Criterion = "operation-name"
	ByParameter Criterion = "parameter"
	ByResponse  Criterion = "response"
)

// OperationRef identifies an operation that mentions an object.
type OperationRef struct {
	Kind Kind `json:"kind"`
	// DisplayValue is the operationId, or "METHOD path" when absent
	DisplayValue string    `json:"displayValue"`
	Path         string    `json:"path"`
	Method       string    `json:"method"`
	Criterion    Criterion `json:"criterion"`
}

// definitionRef matches the leading definition name of a local reference.
var definitionRef = regexp.MustCompile(`^#/definitions/(\w+)`)

// Resolve returns every operation of doc that mentions object, in source
// path-then-method order. An empty object name matches nothing.
func Resolve(doc *specdoc.Document, object string) []OperationRef {
	name := strings.ToLower(object)
	if doc == nil || name == "" {
		return nil
	}

	var refs []OperationRef
	for _, op := range doc.OperationList() {
		criterion, ok := match(op, name)
		if !ok {
			continue
		}
		kind := KindPath
		if op.HasOperationID() {
			kind = KindOperation
		}
		refs = append(refs, OperationRef{
			Kind:         kind,
			DisplayValue: op.DisplayID(),
			Path:         op.Path,
			Method:       op.Method,
			Criterion:    criterion,
		})
	}
	return refs
}

// match reports the first criterion linking op to the lowercased name.
func match(op *specdoc.Operation, name string) (Criterion, bool) {
	for _, tag := range op.Tags {
		if strings.ToLower(tag) == name {
			return ByTag, true
		}
	}
	if strings.Contains(strings.ToLower(op.Path), name) {
		return ByPath, true
	}
	if strings.Contains(strings.ToLower(op.DisplayID()), name) {
		return ByName, true
	}
	for _, p := range op.Parameters {
		if p.Schema != nil && refersTo(p.Schema.Ref, name) {
			return ByParameter, true
		}
	}
	for _, r := range op.Responses {
		s := r.Schema
		if s == nil {
			continue
		}
		if s.Items != nil {
			s = s.Items
		}
		if refersTo(s.Ref, name) {
			return ByResponse, true
		}
	}
	return "", false
}

func refersTo(ref, name string) bool {
	m := definitionRef.FindStringSubmatch(ref)
	return m != nil && strings.ToLower(m[1]) == name
}
