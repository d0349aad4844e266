// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// PetstoreJSON is a Swagger 2.0 document covering tags, path parameters,
// body parameters, array responses, an operation without operationId and
// definitions stored under lowercase and titlecase names.
const PetstoreJSON = `{
  "swagger": "2.0",
  "info": {
    "title": "Swagger Petstore",
    "version": "1.0.3",
    "description": "A sample API that uses a petstore as an example",
    "license": {"name": "MIT"}
  },
  "host": "petstore.example.com",
  "basePath": "/v1",
  "schemes": ["http"],
  "consumes": ["application/json"],
  "produces": ["application/json"],
  "paths": {
    "/pets": {
      "get": {
        "tags": ["pets"],
        "operationId": "listPets",
        "parameters": [
          {"name": "limit", "in": "query", "type": "integer"}
        ],
        "responses": {
          "200": {
            "description": "A paged array of pets",
            "schema": {"type": "array", "items": {"$ref": "#/definitions/Pet"}}
          },
          "default": {
            "description": "unexpected error",
            "schema": {"$ref": "#/definitions/Error"}
          }
        }
      },
      "post": {
        "tags": ["pets"],
        "operationId": "createPets",
        "parameters": [
          {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/Pet"}}
        ],
        "responses": {
          "201": {"description": "Null response"}
        }
      }
    },
    "/pets/{petId}": {
      "get": {
        "tags": ["pets"],
        "operationId": "showPetById",
        "parameters": [
          {"name": "petId", "in": "path", "required": true, "type": "string"}
        ],
        "responses": {
          "200": {
            "description": "Expected response to a valid request",
            "schema": {"$ref": "#/definitions/Pet"}
          }
        }
      }
    },
    "/store/inventory": {
      "get": {
        "tags": ["store"],
        "responses": {
          "200": {"description": "successful operation", "schema": {"type": "object"}}
        }
      }
    },
    "/store/order": {
      "post": {
        "tags": ["store"],
        "operationId": "placeOrder",
        "parameters": [
          {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/Order"}}
        ],
        "responses": {
          "200": {"description": "successful operation", "schema": {"$ref": "#/definitions/Order"}},
          "400": {"description": "Invalid Order"}
        }
      }
    }
  },
  "definitions": {
    "Pet": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "integer", "format": "int64"},
        "name": {"type": "string"},
        "tag": {"type": "string"}
      }
    },
    "Order": {
      "type": "object",
      "properties": {
        "id": {"type": "integer", "format": "int64"},
        "petId": {"type": "integer", "format": "int64"},
        "status": {"type": "string", "enum": ["placed", "approved", "delivered"]}
      }
    },
    "Error": {
      "type": "object",
      "required": ["code", "message"],
      "properties": {
        "code": {"type": "integer", "format": "int32"},
        "message": {"type": "string"}
      }
    },
    "category": {
      "type": "object",
      "properties": {
        "name": {"type": "string"}
      }
    }
  }
}`

// PetstoreYAML is a YAML Swagger 2.0 document with bare integer status codes.
const PetstoreYAML = `swagger: "2.0"
info:
  title: Swagger Petstore
  version: 1.0.3
basePath: /v1
paths:
  /pets:
    get:
      operationId: listPets
      tags:
        - pets
      responses:
        200:
          description: A paged array of pets
          schema:
            type: array
            items:
              $ref: '#/definitions/Pet'
    x-internal: true
  /health:
    get:
      responses:
        200:
          description: ok
definitions:
  Pet:
    type: object
    properties:
      name:
        type: string
      id:
        type: integer
`

// SpecServer serves fixed documents over HTTP and counts requests per path.
type SpecServer struct {
	*httptest.Server

	mu    sync.Mutex
	hits  map[string]int
	files map[string]string
}

// NewSpecServer starts a server that answers GET and HEAD for each path in
// files with 200 and the associated body, and 404 otherwise.
// The server is closed when the test completes.
func NewSpecServer(t *testing.T, files map[string]string) *SpecServer {
	t.Helper()

	s := &SpecServer{hits: make(map[string]int), files: files}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		body, ok := s.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how many requests were made with method to path.
func (s *SpecServer) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// WriteTempFile writes data to name inside a per-test temporary directory.
// Returns the path to the file.
func WriteTempFile(t *testing.T, name, data string) string {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(tmpFile, []byte(data), 0600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}

	return tmpFile
}
