package specdoc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Zero(t *testing.T) {
	var v Value
	assert.True(t, v.IsZero())
	assert.False(t, v.IsScalar())
	assert.Equal(t, "", v.String())

	data, err := v.Decode()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestValue_RendersBlockYAML(t *testing.T) {
	doc := mustParse(t, `{
  "swagger": "2.0",
  "info": {"title": "t", "version": "1", "contact": {"name": "Ops", "email": "ops@example.com"}},
  "paths": {},
  "schemes": ["https", "http"]
}`)

	contact, ok := doc.Info("contact")
	require.True(t, ok)
	assert.False(t, contact.IsScalar())
	assert.Equal(t, "name: Ops\nemail: ops@example.com", contact.String())

	schemes, ok := doc.Root("schemes")
	require.True(t, ok)
	assert.Equal(t, "- https\n- http", schemes.String())
}

func TestValue_KeepsQuotedNumbersAsStrings(t *testing.T) {
	doc := mustParse(t, `{"swagger": "2.0", "info": {"title": "t", "version": "1"}, "paths": {
  "/a": {"get": {"responses": {"200": {"description": "ok"}}}}}}`)

	item, ok := doc.Path("/a")
	require.True(t, ok)
	rendered := item.Raw.String()
	assert.True(t, strings.Contains(rendered, `"200":`), rendered)
	assert.False(t, strings.Contains(rendered, "{"), "composites render in block style")
}

func TestValue_MarshalJSON(t *testing.T) {
	doc := mustParse(t, `{"swagger": "2.0", "info": {"title": "t", "version": "1", "license": {"name": "MIT"}}, "paths": {}}`)

	license, ok := doc.Info("license")
	require.True(t, ok)

	data, err := json.Marshal(license)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "MIT"}`, string(data))
}

func TestValue_MarshalJSONBareStatusCodes(t *testing.T) {
	doc, err := Parse([]byte(`swagger: "2.0"
info: {title: t, version: "1"}
paths:
  /health:
    get:
      responses:
        200:
          description: ok
          headers:
            X-Rate-Limit: {type: integer, default: 60}
`))
	require.NoError(t, err)

	item, ok := doc.Path("/health")
	require.True(t, ok)

	data, err := json.Marshal(item.Raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"get": {"responses": {"200": {
		"description": "ok",
		"headers": {"X-Rate-Limit": {"type": "integer", "default": 60}}
	}}}}`, string(data))

	decoded, err := item.Raw.Decode()
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, decoded)
}
