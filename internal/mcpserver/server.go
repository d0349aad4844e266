// Package mcpserver implements an MCP (Model Context Protocol) server that
// exposes the oasbot query engine as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbot"
	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/query"
)

const serverInstructions = `oasbot MCP server: answers questions about registered Swagger 2.0 (OpenAPI 2.0) documents.

Start with list_apis to see what is registered, or register_api to add a document by name and URL.
Every other tool takes the API name; matching is case-insensitive and a substring is enough.

- spec_info: a metadata field (title, version, description, contact, license, termsOfService,
  host, basePath, schemes, consumes, produces, security, tags, externalDocs) or a listing
  (paths, operations, definitions)
- spec_object: a definition plus the operations that reference it
- spec_operation: an operation by operationId
- spec_path: a path item; a missing leading slash or basePath prefix is tolerated

Documents are fetched on every call, so answers reflect the currently published document.`

// Defaults for list pagination.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Executor runs query intents. *query.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, in query.Intent) (*query.Result, error)
}

// Server exposes an Executor as MCP tools.
type Server struct {
	engine    Executor
	listLimit int
	logger    logging.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithListLimit sets the default page size of list results.
func WithListLimit(n int) Option {
	return func(s *Server) { s.listLimit = n }
}

// New returns a Server over engine.
func New(engine Executor, opts ...Option) *Server {
	s := &Server{engine: engine, listLimit: DefaultListLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.listLimit <= 0 || s.listLimit > MaxListLimit {
		s.listLimit = DefaultListLimit
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Run serves over stdio and blocks until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) mcpServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasbot", Version: oasbot.Version()},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	s.registerTools(server)
	return server
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_apis",
		Description: "List the names of the registered APIs in alphabetical order. Use offset/limit to paginate.",
	}, s.handleListAPIs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "register_api",
		Description: "Register a Swagger 2.0 document under a unique name. The URL may omit its scheme; http:// and https:// are tried in turn. The document is fetched and validated before it is registered.",
	}, s.handleRegisterAPI)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_info",
		Description: "Return a metadata field of a registered API (info fields such as title or version, top-level fields such as host or schemes) or one of the listings paths, operations and definitions. Listings support offset/limit.",
	}, s.handleSpecInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_object",
		Description: "Return an object definition of a registered API and every operation that references it by tag, path, operation name, body parameter schema or response schema. The name is tried as given, lowercased and titlecased.",
	}, s.handleSpecObject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_operation",
		Description: "Return the definition of an operation of a registered API by exact operationId.",
	}, s.handleSpecOperation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "spec_path",
		Description: "Return a path item of a registered API. The path is tried as given, with a leading slash and under the basePath.",
	}, s.handleSpecPath)
}

// paginate applies offset/limit pagination to a slice. A non-positive limit
// uses the default; limits above MaxListLimit are capped.
func paginate[T any](items []T, offset, limit, def int) []T {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// pathPattern matches absolute filesystem paths, which must not leak to MCP
// clients through error messages.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// describe turns an engine error into text for the client. Domain failures
// get a fixed explanation; anything else is sanitized.
func describe(err error) string {
	switch {
	case errors.Is(err, oaserrors.ErrNoAPISpecified):
		return "no api given"
	case errors.Is(err, oaserrors.ErrNoSuchAPI):
		return "no registered api matches that name; use list_apis"
	case errors.Is(err, oaserrors.ErrUnsupportedField):
		return "that field is not part of the Swagger 2.0 specification"
	case errors.Is(err, oaserrors.ErrValidation):
		return "name and url are required"
	case errors.Is(err, oaserrors.ErrInvalidURL):
		return "the url is not reachable over http or https"
	case errors.Is(err, oaserrors.ErrNameConflict), errors.Is(err, oaserrors.ErrURLConflict),
		errors.Is(err, oaserrors.ErrNotFound), errors.Is(err, oaserrors.ErrInvalidSpec):
		return sanitizeError(err)
	}
	return "failed: " + sanitizeError(err)
}

// errResult creates an MCP error result from an error.
func (s *Server) errResult(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool failed", "tool", tool, "error", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: describe(err)}},
	}
}
