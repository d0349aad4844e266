package query

import (
	"github.com/erraggy/oasbot/registry"
	"github.com/erraggy/oasbot/specdoc"
	"github.com/erraggy/oasbot/xref"
)

// ResultKind tags the payload of a Result.
type ResultKind int

const (
	// Scalar carries a single Value.
	Scalar ResultKind = iota
	// List carries Items.
	List
	// ObjectWithReferences carries a definition Value and its References.
	ObjectWithReferences
	// Created carries the new registry Entry.
	Created
)

func (k ResultKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case ObjectWithReferences:
		return "object"
	case Created:
		return "created"
	}
	return "unknown"
}

// Result is the outcome of a successful Execute.
type Result struct {
	Kind ResultKind
	// Entry is the API that was queried, or the one that was created
	Entry registry.Entry
	// Subject is what was asked for: a field name, "apis", a listing name,
	// a definition name, an operationId or a path
	Subject string
	// Value is set for Scalar and ObjectWithReferences results
	Value specdoc.Value
	// Items is set for List results
	Items []string
	// References is set for ObjectWithReferences results
	References []xref.OperationRef
}

// SubjectAPIs is the Subject of a ListAPIs result.
const SubjectAPIs = "apis"
