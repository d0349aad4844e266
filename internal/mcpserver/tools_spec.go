package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/xref"
)

type specInfoInput struct {
	API    string `json:"api,omitempty"    jsonschema:"Name of the registered API"`
	Field  string `json:"field,omitempty"  jsonschema:"Field name (e.g. title, version, host, schemes) or listing (paths, operations, definitions)"`
	Limit  int    `json:"limit,omitempty"  jsonschema:"Maximum number of listing items to return (default 100)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Skip the first N listing items (for pagination)"`
}

type specInfoOutput struct {
	API   string `json:"api"`
	Field string `json:"field"`
	// Value is the field rendered as YAML; empty for listings
	Value    string   `json:"value,omitempty"`
	Total    int      `json:"total,omitempty"`
	Returned int      `json:"returned,omitempty"`
	Items    []string `json:"items,omitempty"`
}

func (s *Server) handleSpecInfo(ctx context.Context, _ *mcp.CallToolRequest, input specInfoInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.InfoQuery{Target: query.Target{API: input.API}, Field: input.Field})
	if err != nil {
		return s.errResult("spec_info", err), nil, nil
	}

	out := specInfoOutput{API: res.Entry.Name, Field: res.Subject}
	if res.Kind == query.List {
		page := paginate(res.Items, input.Offset, input.Limit, s.listLimit)
		out.Total = len(res.Items)
		out.Returned = len(page)
		out.Items = page
	} else {
		out.Value = res.Value.String()
	}
	return nil, out, nil
}

type specObjectInput struct {
	API    string `json:"api,omitempty"    jsonschema:"Name of the registered API"`
	Object string `json:"object,omitempty" jsonschema:"Definition name (case-insensitive for lowercase and titlecase forms)"`
}

type specObjectOutput struct {
	API        string              `json:"api"`
	Name       string              `json:"name"`
	Schema     string              `json:"schema"`
	References []xref.OperationRef `json:"references,omitempty"`
}

func (s *Server) handleSpecObject(ctx context.Context, _ *mcp.CallToolRequest, input specObjectInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.ObjectQuery{Target: query.Target{API: input.API}, Object: input.Object})
	if err != nil {
		return s.errResult("spec_object", err), nil, nil
	}
	return nil, specObjectOutput{
		API:        res.Entry.Name,
		Name:       res.Subject,
		Schema:     res.Value.String(),
		References: res.References,
	}, nil
}

type specOperationInput struct {
	API         string `json:"api,omitempty"          jsonschema:"Name of the registered API"`
	OperationID string `json:"operation_id,omitempty" jsonschema:"Exact operationId"`
}

type specPathInput struct {
	API  string `json:"api,omitempty"  jsonschema:"Name of the registered API"`
	Path string `json:"path,omitempty" jsonschema:"Path template, e.g. /pets/{petId}"`
}

// definitionOutput carries an operation or path item rendered as YAML.
type definitionOutput struct {
	API        string `json:"api"`
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

func (s *Server) handleSpecOperation(ctx context.Context, _ *mcp.CallToolRequest, input specOperationInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.OperationQuery{Target: query.Target{API: input.API}, OperationID: input.OperationID})
	if err != nil {
		return s.errResult("spec_operation", err), nil, nil
	}
	return nil, definitionOutput{API: res.Entry.Name, Name: res.Subject, Definition: res.Value.String()}, nil
}

func (s *Server) handleSpecPath(ctx context.Context, _ *mcp.CallToolRequest, input specPathInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.PathQuery{Target: query.Target{API: input.API}, Path: input.Path})
	if err != nil {
		return s.errResult("spec_path", err), nil, nil
	}
	return nil, definitionOutput{API: res.Entry.Name, Name: res.Subject, Definition: res.Value.String()}, nil
}
