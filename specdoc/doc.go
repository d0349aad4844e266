// Package specdoc parses Swagger 2.0 documents into an immutable, ordered,
// read-only view.
//
// A Document keeps the order in which paths, methods and definitions appear
// in the source so that listings are deterministic. Every structural level is
// exposed through accessors that return an explicit ok flag instead of
// panicking or returning nil maps, so callers never need defensive lookups.
//
// # Quick Start
//
//	doc, err := specdoc.Parse(data, specdoc.WithSourceName(url))
//	if err != nil {
//		return err
//	}
//	for _, p := range doc.Paths() {
//		fmt.Println(p.Path)
//	}
//	if op, ok := doc.Operation("listPets"); ok {
//		fmt.Println(op.Raw)
//	}
//
// # Values
//
// Fragments of the source tree are returned as Value. Scalars render
// verbatim; mappings and sequences render as block YAML in source key order.
//
// # Validation
//
// Validate checks raw bytes against an embedded subset of the Swagger 2.0
// meta-schema and then runs structural checks (unique operationIds, valid
// status codes, media types). It returns an *oaserrors.ValidationError that
// matches oaserrors.ErrInvalidSpec.
package specdoc
