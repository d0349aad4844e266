package specdoc

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasbot/internal/httputil"
	"github.com/erraggy/oasbot/oaserrors"
)

//go:embed schema/swagger-2.0.json
var metaSchemaJSON []byte

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsonschema.Resolved
	metaSchemaErr  error
)

func resolvedMetaSchema() (*jsonschema.Resolved, error) {
	metaSchemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal(metaSchemaJSON, &s); err != nil {
			metaSchemaErr = fmt.Errorf("specdoc: decoding meta-schema: %w", err)
			return
		}
		metaSchema, metaSchemaErr = s.Resolve(&jsonschema.ResolveOptions{})
	})
	return metaSchema, metaSchemaErr
}

var definitionRef = regexp.MustCompile(`^#/definitions/(.+)$`)

// Validate checks that data is a Swagger 2.0 document.
//
// Unparseable input returns *oaserrors.ParseError. A document that parses but
// violates the meta-schema or the structural rules returns
// *oaserrors.ValidationError listing every problem found.
func Validate(data []byte, opts ...Option) error {
	cfg := applyOptions(opts)

	root, err := decodeRoot(data, cfg.source)
	if err != nil {
		return err
	}

	schema, err := resolvedMetaSchema()
	if err != nil {
		return err
	}

	var problems []string
	if err := schema.Validate(toInstance(root)); err != nil {
		problems = append(problems, err.Error())
	}

	// Structural checks need a Document; a meta-schema failure on info or
	// paths already explains why one cannot be built.
	if doc, err := Parse(data, opts...); err == nil {
		problems = append(problems, structuralProblems(doc, root)...)
	}

	if len(problems) > 0 {
		return &oaserrors.ValidationError{Subject: cfg.source, Problems: problems}
	}
	return nil
}

func structuralProblems(doc *Document, root *yaml.Node) []string {
	var problems []string

	if v := scalarText(lookup(root, "swagger")); v != "2.0" {
		problems = append(problems, fmt.Sprintf("swagger: version must be \"2.0\", got %q", v))
	}
	for _, field := range []string{"title", "version"} {
		if _, ok := doc.Info(field); !ok {
			problems = append(problems, fmt.Sprintf("info.%s is required", field))
		}
	}
	for _, field := range []string{"consumes", "produces"} {
		problems = append(problems, mediaTypeProblems(field, lookup(root, field))...)
	}

	seen := make(map[string]string)
	for _, item := range doc.paths {
		if !strings.HasPrefix(item.Path, "/") {
			problems = append(problems, fmt.Sprintf("paths.%s: path must start with '/'", item.Path))
		}
		for _, op := range item.Operations {
			at := fmt.Sprintf("paths.%s.%s", op.Path, op.Method)
			if lookup(op.Raw.node, "responses") == nil {
				problems = append(problems, at+": responses is required")
			}
			if op.OperationID != "" {
				if first, dup := seen[op.OperationID]; dup {
					problems = append(problems, fmt.Sprintf("%s: duplicate operationId %q (first seen at %s)", at, op.OperationID, first))
				} else {
					seen[op.OperationID] = at
				}
			}
			for _, resp := range op.Responses {
				if !httputil.ValidateStatusCode(resp.StatusCode) {
					problems = append(problems, fmt.Sprintf("%s.responses: invalid status code %q", at, resp.StatusCode))
				}
				problems = append(problems, refProblems(doc, at+".responses."+resp.StatusCode, resp.Schema)...)
			}
			for i, p := range op.Parameters {
				problems = append(problems, refProblems(doc, fmt.Sprintf("%s.parameters[%d]", at, i), p.Schema)...)
			}
			opNode := op.Raw.node
			for _, field := range []string{"consumes", "produces"} {
				problems = append(problems, mediaTypeProblems(at+"."+field, lookup(opNode, field))...)
			}
		}
	}
	return problems
}

// refProblems reports local definition references that do not resolve.
func refProblems(doc *Document, at string, s *Schema) []string {
	var problems []string
	for depth := 0; s != nil && depth < 2; depth++ {
		if m := definitionRef.FindStringSubmatch(s.Ref); m != nil {
			if _, ok := doc.Definition(m[1]); !ok {
				problems = append(problems, fmt.Sprintf("%s: unresolved reference %q", at, s.Ref))
			}
		}
		s = s.Items
	}
	return problems
}

func mediaTypeProblems(at string, list *yaml.Node) []string {
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil
	}
	var problems []string
	for i, n := range list.Content {
		if mt := scalarText(n); mt != "" && !httputil.IsValidMediaType(mt) {
			problems = append(problems, fmt.Sprintf("%s[%d]: invalid media type %q", at, i, mt))
		}
	}
	return problems
}

// toInstance converts a node tree into the JSON data model the schema
// validator expects. Mapping keys are always strings, so YAML status codes
// written as bare integers stay valid property names.
func toInstance(n *yaml.Node) any {
	n = deref(n)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = toInstance(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, toInstance(c))
		}
		return s
	}

	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return n.Value
		}
		return b
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return n.Value
		}
		return float64(i)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return n.Value
		}
		return f
	}
	return n.Value
}
