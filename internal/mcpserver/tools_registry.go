package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbot/query"
)

type listAPIsInput struct {
	Limit  int `json:"limit,omitempty"  jsonschema:"Maximum number of names to return (default 100)"`
	Offset int `json:"offset,omitempty" jsonschema:"Skip the first N names (for pagination)"`
}

type listAPIsOutput struct {
	Total    int      `json:"total"`
	Returned int      `json:"returned"`
	APIs     []string `json:"apis,omitempty"`
}

func (s *Server) handleListAPIs(ctx context.Context, _ *mcp.CallToolRequest, input listAPIsInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.ListAPIs{})
	if err != nil {
		return s.errResult("list_apis", err), nil, nil
	}
	page := paginate(res.Items, input.Offset, input.Limit, s.listLimit)
	return nil, listAPIsOutput{
		Total:    len(res.Items),
		Returned: len(page),
		APIs:     page,
	}, nil
}

type registerAPIInput struct {
	Name string `json:"name,omitempty" jsonschema:"Unique name for the API"`
	URL  string `json:"url,omitempty"  jsonschema:"URL of the Swagger 2.0 JSON or YAML document"`
}

type registerAPIOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleRegisterAPI(ctx context.Context, _ *mcp.CallToolRequest, input registerAPIInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Execute(ctx, query.CreateAPI{Name: input.Name, URL: input.URL})
	if err != nil {
		return s.errResult("register_api", err), nil, nil
	}
	s.logger.Info("api registered", "api", res.Entry.Name, "url", res.Entry.URL)
	return nil, registerAPIOutput{
		ID:   res.Entry.ID.String(),
		Name: res.Entry.Name,
		URL:  res.Entry.URL,
	}, nil
}
