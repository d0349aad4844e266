package router

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/query"
)

//go:embed schema/request.json
var requestSchemaJSON []byte

var (
	requestSchemaOnce sync.Once
	requestSchema     *jsonschema.Resolved
	requestSchemaErr  error
)

func resolvedRequestSchema() (*jsonschema.Resolved, error) {
	requestSchemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal(requestSchemaJSON, &s); err != nil {
			requestSchemaErr = fmt.Errorf("router: decoding request schema: %w", err)
			return
		}
		requestSchema, requestSchemaErr = s.Resolve(&jsonschema.ResolveOptions{})
	})
	return requestSchema, requestSchemaErr
}

// Request is a decoded webhook call.
type Request struct {
	Action     string
	Parameters map[string]string
	Contexts   []query.Context
	// IntentName is the platform's name for the matched intent
	IntentName string
}

// Param returns a parameter value, or "" when absent.
func (r *Request) Param(name string) string {
	if r == nil {
		return ""
	}
	return r.Parameters[name]
}

type wireRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
	Contexts   []struct {
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters"`
		Lifespan   int            `json:"lifespan"`
	} `json:"contexts"`
	Metadata struct {
		IntentName string `json:"intentName"`
	} `json:"metadata"`
}

// ParseRequest decodes and validates a webhook body. It accepts the flat form
// {action, parameters, contexts, metadata} and the api.ai envelope carrying
// the same fields under "result". Parameter values that are not strings are
// stringified.
//
// A malformed body returns *oaserrors.ValidationError matching
// oaserrors.ErrValidation.
func ParseRequest(body []byte) (*Request, error) {
	var instance any
	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, invalidRequest(fmt.Sprintf("invalid JSON: %v", err))
	}
	instance = unwrapEnvelope(instance)

	schema, err := resolvedRequestSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(instance); err != nil {
		return nil, invalidRequest(err.Error())
	}

	raw, err := json.Marshal(instance)
	if err != nil {
		return nil, invalidRequest(err.Error())
	}
	var w wireRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, invalidRequest(err.Error())
	}

	req := &Request{
		Action:     w.Action,
		Parameters: stringify(w.Parameters),
		IntentName: w.Metadata.IntentName,
	}
	for _, c := range w.Contexts {
		req.Contexts = append(req.Contexts, query.Context{
			Name:       c.Name,
			Parameters: stringify(c.Parameters),
			Lifespan:   c.Lifespan,
		})
	}
	return req, nil
}

func invalidRequest(problem string) error {
	return &oaserrors.ValidationError{Subject: "request", Problems: []string{problem}, Payload: true}
}

// unwrapEnvelope returns the "result" object of an api.ai envelope, or v
// itself for the flat form.
func unwrapEnvelope(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if _, flat := m["action"]; flat {
		return v
	}
	if result, ok := m["result"].(map[string]any); ok {
		return result
	}
	return v
}

func stringify(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				out[k] = fmt.Sprint(t)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
