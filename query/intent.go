package query

import (
	"github.com/erraggy/oasbot/oaserrors"
)

// Intent is one of ListAPIs, CreateAPI, InfoQuery, ObjectQuery,
// OperationQuery or PathQuery.
type Intent interface {
	intent()
}

// Context is a parameter snapshot carried over from an earlier turn.
type Context struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Lifespan   int               `json:"lifespan"`
}

// Target names the API a query is about, either directly or through the
// conversation contexts.
type Target struct {
	// API is the name given in the current turn, if any
	API string
	// Contexts are prior-turn snapshots, most relevant first
	Contexts []Context
}

// APIName returns the API named by the current turn, or else by the first
// context carrying an "api" parameter.
func (t Target) APIName() (string, error) {
	if t.API != "" {
		return t.API, nil
	}
	for _, c := range t.Contexts {
		if api := c.Parameters["api"]; api != "" {
			return api, nil
		}
	}
	return "", oaserrors.ErrNoAPISpecified
}

// ListAPIs lists registered API names.
type ListAPIs struct{}

// CreateAPI registers a new API.
type CreateAPI struct {
	Name string
	// URL may omit its scheme
	URL string
}

// InfoQuery asks for a metadata field or an aggregate listing.
type InfoQuery struct {
	Target
	Field string
}

// ObjectQuery asks for a definition and the operations that mention it.
type ObjectQuery struct {
	Target
	Object string
}

// OperationQuery asks for an operation by operationId.
type OperationQuery struct {
	Target
	OperationID string
}

// PathQuery asks for a path item.
type PathQuery struct {
	Target
	Path string
}

func (ListAPIs) intent()       {}
func (CreateAPI) intent()      {}
func (InfoQuery) intent()      {}
func (ObjectQuery) intent()    {}
func (OperationQuery) intent() {}
func (PathQuery) intent()      {}
