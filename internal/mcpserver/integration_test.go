package mcpserver

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbot/fetch"
	"github.com/erraggy/oasbot/internal/testutil"
	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/registry"
)

// startTestSession creates an in-process MCP server/client pair over a real
// engine with "Petstore" registered, and returns the connected client session.
func startTestSession(t *testing.T, opts ...Option) (*mcp.ClientSession, *testutil.SpecServer) {
	t.Helper()

	spec := testutil.NewSpecServer(t, map[string]string{
		"/swagger.json": testutil.PetstoreJSON,
		"/other.json":   testutil.PetstoreJSON,
	})
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "Petstore", spec.URL+"/swagger.json")
	require.NoError(t, err)

	server := New(query.New(reg, fetch.New()), opts...).mcpServer()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	// Start server in background; it blocks until the connection closes.
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session, spec
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// unmarshalStructured extracts the structured output from a CallToolResult
// into a map for easy assertion.
func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "unexpected tool error: %s", errorText(result))

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	require.NotEmpty(t, result.Content, "expected at least one content item")
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &m), "failed to parse text content as JSON")
	return m
}

func errorText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if text, ok := result.Content[0].(*mcp.TextContent); ok {
		return text.Text
	}
	return ""
}

func stringSlice(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		s, _ := r.(string)
		out = append(out, s)
	}
	return out
}

func TestIntegration_ListTools(t *testing.T) {
	session, _ := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has empty description", tool.Name)
	}
	slices.Sort(names)
	assert.Equal(t, []string{"list_apis", "register_api", "spec_info", "spec_object", "spec_operation", "spec_path"}, names)
}

func TestIntegration_RegisterAndList(t *testing.T) {
	session, spec := startTestSession(t)

	out := unmarshalStructured(t, callTool(t, session, "list_apis", map[string]any{}))
	assert.Equal(t, float64(1), out["total"])
	assert.Equal(t, []string{"Petstore"}, stringSlice(out["apis"]))

	out = unmarshalStructured(t, callTool(t, session, "register_api", map[string]any{
		"name": "Animals",
		"url":  spec.URL + "/other.json",
	}))
	assert.Equal(t, "Animals", out["name"])
	assert.NotEmpty(t, out["id"])

	out = unmarshalStructured(t, callTool(t, session, "list_apis", map[string]any{"limit": 1}))
	assert.Equal(t, float64(2), out["total"])
	assert.Equal(t, float64(1), out["returned"])
	assert.Equal(t, []string{"Animals"}, stringSlice(out["apis"]))

	result := callTool(t, session, "register_api", map[string]any{"name": "Petstore", "url": spec.URL + "/swagger.json"})
	assert.True(t, result.IsError)
	assert.Contains(t, errorText(result), "already exists")

	result = callTool(t, session, "register_api", map[string]any{"name": "x", "url": spec.URL + "/missing.json"})
	assert.True(t, result.IsError)
	assert.Equal(t, "the url is not reachable over http or https", errorText(result))
}

func TestIntegration_SpecInfo(t *testing.T) {
	session, _ := startTestSession(t)

	out := unmarshalStructured(t, callTool(t, session, "spec_info", map[string]any{"api": "pet", "field": "title"}))
	assert.Equal(t, "Petstore", out["api"])
	assert.Equal(t, "Swagger Petstore", out["value"])

	out = unmarshalStructured(t, callTool(t, session, "spec_info", map[string]any{"api": "petstore", "field": "paths"}))
	assert.Equal(t, float64(4), out["total"])
	assert.Equal(t, []string{"/pets", "/pets/{petId}", "/store/inventory", "/store/order"}, stringSlice(out["items"]))

	out = unmarshalStructured(t, callTool(t, session, "spec_info", map[string]any{
		"api": "petstore", "field": "definitions", "offset": 1, "limit": 2,
	}))
	assert.Equal(t, float64(4), out["total"])
	assert.Equal(t, []string{"Order", "Error"}, stringSlice(out["items"]))
}

func TestIntegration_SpecInfoErrors(t *testing.T) {
	session, _ := startTestSession(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no api", map[string]any{"field": "title"}, "no api given"},
		{"unknown api", map[string]any{"api": "banking", "field": "title"}, "no registered api matches that name; use list_apis"},
		{"unsupported field", map[string]any{"api": "petstore", "field": "servers"}, "that field is not part of the Swagger 2.0 specification"},
		{"absent field", map[string]any{"api": "petstore", "field": "termsOfService"}, "field not found: termsOfService"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, "spec_info", tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.want, errorText(result))
		})
	}
}

func TestIntegration_SpecObject(t *testing.T) {
	session, _ := startTestSession(t)

	out := unmarshalStructured(t, callTool(t, session, "spec_object", map[string]any{"api": "petstore", "object": "pet"}))
	assert.Equal(t, "Pet", out["name"])
	assert.Contains(t, out["schema"], "type: object")

	refs, ok := out["references"].([]any)
	require.True(t, ok)
	var names []string
	for _, r := range refs {
		names = append(names, r.(map[string]any)["displayValue"].(string))
	}
	assert.Equal(t, []string{"listPets", "createPets", "showPetById"}, names)

	result := callTool(t, session, "spec_object", map[string]any{"api": "petstore", "object": "Customer"})
	assert.True(t, result.IsError)
	assert.Equal(t, "object not found: Customer", errorText(result))
}

func TestIntegration_SpecOperationAndPath(t *testing.T) {
	session, _ := startTestSession(t)

	out := unmarshalStructured(t, callTool(t, session, "spec_operation", map[string]any{"api": "petstore", "operation_id": "showPetById"}))
	assert.Equal(t, "showPetById", out["name"])
	assert.Contains(t, out["definition"], "operationId: showPetById")

	out = unmarshalStructured(t, callTool(t, session, "spec_path", map[string]any{"api": "petstore", "path": "pets/{petId}"}))
	assert.Equal(t, "/pets/{petId}", out["name"])
	assert.True(t, strings.HasPrefix(out["definition"].(string), "get:"))

	result := callTool(t, session, "spec_operation", map[string]any{"api": "petstore", "operation_id": "GET /store/inventory"})
	assert.True(t, result.IsError, "display ids are not operation ids")
}
