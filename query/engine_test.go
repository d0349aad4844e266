package query

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbot/fetch"
	"github.com/erraggy/oasbot/internal/testutil"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/registry"
	"github.com/erraggy/oasbot/xref"
)

// newPetstoreEngine registers the petstore document served by a test server
// under the name "Petstore".
func newPetstoreEngine(t *testing.T) (*Engine, *testutil.SpecServer) {
	t.Helper()
	srv := testutil.NewSpecServer(t, map[string]string{
		"/swagger.json": testutil.PetstoreJSON,
		"/swagger.yaml": testutil.PetstoreYAML,
	})
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "Petstore", srv.URL+"/swagger.json")
	require.NoError(t, err)
	return New(reg, fetch.New()), srv
}

func petstore() Target {
	return Target{API: "petstore"}
}

func TestExecute_ListAPIs(t *testing.T) {
	reg := registry.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"zoo", "Banking", "acme"} {
		_, err := reg.Create(ctx, name, "https://example.com/"+name+".json")
		require.NoError(t, err)
	}

	res, err := New(reg, fetch.New()).Execute(ctx, ListAPIs{})
	require.NoError(t, err)
	assert.Equal(t, List, res.Kind)
	assert.Equal(t, SubjectAPIs, res.Subject)
	assert.Equal(t, []string{"Banking", "acme", "zoo"}, res.Items)
}

func TestExecute_ListAPIsEmpty(t *testing.T) {
	res, err := New(registry.NewMemory(), fetch.New()).Execute(context.Background(), ListAPIs{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestExecute_Info(t *testing.T) {
	engine, _ := newPetstoreEngine(t)
	ctx := context.Background()

	tests := []struct {
		field string
		kind  ResultKind
		value string
		items []string
	}{
		{field: "title", kind: Scalar, value: "Swagger Petstore"},
		{field: "version", kind: Scalar, value: "1.0.3"},
		{field: "license", kind: Scalar, value: "name: MIT"},
		{field: "host", kind: Scalar, value: "petstore.example.com"},
		{field: "schemes", kind: Scalar, value: "- http"},
		{field: "paths", kind: List, items: []string{"/pets", "/pets/{petId}", "/store/inventory", "/store/order"}},
		{field: "operations", kind: List, items: []string{"listPets", "createPets", "showPetById", "GET /store/inventory", "placeOrder"}},
		{field: "definitions", kind: List, items: []string{"Pet", "Order", "Error", "category"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			res, err := engine.Execute(ctx, InfoQuery{Target: petstore(), Field: tt.field})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.field, res.Subject)
			assert.Equal(t, "Petstore", res.Entry.Name)
			if tt.kind == Scalar {
				assert.Equal(t, tt.value, res.Value.String())
			} else {
				assert.Equal(t, tt.items, res.Items)
			}
		})
	}
}

func TestExecute_InfoErrors(t *testing.T) {
	engine, srv := newPetstoreEngine(t)
	ctx := context.Background()

	t.Run("missing info field", func(t *testing.T) {
		_, err := engine.Execute(ctx, InfoQuery{Target: petstore(), Field: "termsOfService"})
		assert.True(t, errors.Is(err, oaserrors.ErrNotFound))

		var nf *oaserrors.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, oaserrors.KindField, nf.Kind)
	})

	t.Run("missing swagger field", func(t *testing.T) {
		_, err := engine.Execute(ctx, InfoQuery{Target: petstore(), Field: "externalDocs"})
		assert.True(t, errors.Is(err, oaserrors.ErrNotFound))
	})

	t.Run("unsupported field is rejected before fetching", func(t *testing.T) {
		before := srv.Hits(http.MethodGet, "/swagger.json")
		_, err := engine.Execute(ctx, InfoQuery{Target: petstore(), Field: "Title"})
		assert.True(t, errors.Is(err, oaserrors.ErrUnsupportedField))
		assert.Equal(t, before, srv.Hits(http.MethodGet, "/swagger.json"))
	})

	t.Run("no api", func(t *testing.T) {
		_, err := engine.Execute(ctx, InfoQuery{Field: "title"})
		assert.True(t, errors.Is(err, oaserrors.ErrNoAPISpecified))
	})

	t.Run("unknown api", func(t *testing.T) {
		_, err := engine.Execute(ctx, InfoQuery{Target: Target{API: "banking"}, Field: "title"})
		assert.True(t, errors.Is(err, oaserrors.ErrNoSuchAPI))
	})
}

func TestExecute_APIFromContexts(t *testing.T) {
	engine, _ := newPetstoreEngine(t)

	target := Target{Contexts: []Context{
		{Name: "greeting", Parameters: map[string]string{"mood": "happy"}, Lifespan: 2},
		{Name: "use-api", Parameters: map[string]string{"api": "pet"}, Lifespan: 5},
		{Name: "older", Parameters: map[string]string{"api": "banking"}, Lifespan: 1},
	}}
	res, err := engine.Execute(context.Background(), InfoQuery{Target: target, Field: "title"})
	require.NoError(t, err)
	assert.Equal(t, "Swagger Petstore", res.Value.String())

	target.API = "nope"
	_, err = engine.Execute(context.Background(), InfoQuery{Target: target, Field: "title"})
	assert.True(t, errors.Is(err, oaserrors.ErrNoSuchAPI), "current turn wins over contexts")
}

func TestExecute_Object(t *testing.T) {
	engine, _ := newPetstoreEngine(t)
	ctx := context.Background()

	tests := []struct {
		query   string
		subject string
		refs    []string
	}{
		{query: "Pet", subject: "Pet", refs: []string{"listPets", "createPets", "showPetById"}},
		{query: "pet", subject: "Pet", refs: []string{"listPets", "createPets", "showPetById"}},
		{query: "ORDER", subject: "Order", refs: []string{"placeOrder"}},
		{query: "category", subject: "category", refs: nil},
		{query: "CATEGORY", subject: "category", refs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := engine.Execute(ctx, ObjectQuery{Target: petstore(), Object: tt.query})
			require.NoError(t, err)
			assert.Equal(t, ObjectWithReferences, res.Kind)
			assert.Equal(t, tt.subject, res.Subject)
			assert.Contains(t, res.Value.String(), "type: object")

			var got []string
			for _, ref := range res.References {
				got = append(got, ref.DisplayValue)
			}
			assert.Equal(t, tt.refs, got)
		})
	}

	_, err := engine.Execute(ctx, ObjectQuery{Target: petstore(), Object: "Customer"})
	assert.True(t, errors.Is(err, oaserrors.ErrNotFound))
}

func TestExecute_ObjectTitleCase(t *testing.T) {
	const doc = `{"swagger": "2.0", "info": {"title": "owners", "version": "1"}, "paths": {},
  "definitions": {"Pet_Owner": {"type": "object"}, "Pet2Owner": {"type": "object"}}}`
	srv := testutil.NewSpecServer(t, map[string]string{"/swagger.json": doc})
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "owners", srv.URL+"/swagger.json")
	require.NoError(t, err)
	engine := New(reg, fetch.New())

	for query, want := range map[string]string{
		"pet_owner": "Pet_Owner",
		"PET_OWNER": "Pet_Owner",
		"pet2owner": "Pet2Owner",
	} {
		t.Run(query, func(t *testing.T) {
			res, err := engine.Execute(context.Background(), ObjectQuery{Target: Target{API: "owners"}, Object: query})
			require.NoError(t, err)
			assert.Equal(t, want, res.Subject)
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"pet":         "Pet",
		"pET":         "Pet",
		"pet_owner":   "Pet_Owner",
		"pet2owner":   "Pet2Owner",
		"my pet-shop": "My Pet-Shop",
		"123":         "123",
		"élan vital":  "Élan Vital",
	}
	for in, want := range tests {
		assert.Equal(t, want, titleCase(in), in)
	}
}

func TestExecute_ObjectReferenceKinds(t *testing.T) {
	engine, _ := newPetstoreEngine(t)

	res, err := engine.Execute(context.Background(), ObjectQuery{Target: petstore(), Object: "store"})
	require.Error(t, err, "store is a tag, not a definition")
	assert.Nil(t, res)

	res, err = engine.Execute(context.Background(), ObjectQuery{Target: petstore(), Object: "Order"})
	require.NoError(t, err)
	require.Len(t, res.References, 1)
	assert.Equal(t, xref.KindOperation, res.References[0].Kind)
	assert.Equal(t, "/store/order", res.References[0].Path)
}

func TestExecute_Operation(t *testing.T) {
	engine, _ := newPetstoreEngine(t)
	ctx := context.Background()

	res, err := engine.Execute(ctx, OperationQuery{Target: petstore(), OperationID: "showPetById"})
	require.NoError(t, err)
	assert.Equal(t, Scalar, res.Kind)
	assert.Equal(t, "showPetById", res.Subject)
	assert.True(t, strings.HasPrefix(res.Value.String(), "tags:"))

	_, err = engine.Execute(ctx, OperationQuery{Target: petstore(), OperationID: "showpetbyid"})
	assert.True(t, errors.Is(err, oaserrors.ErrNotFound), "operationId lookup is exact")

	_, err = engine.Execute(ctx, OperationQuery{Target: petstore(), OperationID: "GET /store/inventory"})
	assert.True(t, errors.Is(err, oaserrors.ErrNotFound), "display ids are not operationIds")
}

func TestExecute_Path(t *testing.T) {
	engine, _ := newPetstoreEngine(t)
	ctx := context.Background()

	for _, query := range []string{"/pets", "pets"} {
		res, err := engine.Execute(ctx, PathQuery{Target: petstore(), Path: query})
		require.NoError(t, err, query)
		assert.Equal(t, "/pets", res.Subject)
		assert.True(t, strings.HasPrefix(res.Value.String(), "get:"))
	}

	_, err := engine.Execute(ctx, PathQuery{Target: petstore(), Path: "orders"})
	assert.True(t, errors.Is(err, oaserrors.ErrNotFound))
}

func TestExecute_PathUnderBasePath(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{"/swagger.json": `{
		"swagger": "2.0",
		"info": {"title": "t", "version": "1"},
		"basePath": "/v2",
		"paths": {"/v2/users": {"get": {"responses": {"200": {"description": "ok"}}}}}
	}`})
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "users", srv.URL+"/swagger.json")
	require.NoError(t, err)

	res, err := New(reg, fetch.New()).Execute(context.Background(), PathQuery{Target: Target{API: "users"}, Path: "users"})
	require.NoError(t, err)
	assert.Equal(t, "/v2/users", res.Subject)
}

func TestExecute_YAMLDocument(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{"/swagger.yaml": testutil.PetstoreYAML})
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "yamlpets", srv.URL+"/swagger.yaml")
	require.NoError(t, err)
	engine := New(reg, fetch.New())

	res, err := engine.Execute(context.Background(), InfoQuery{Target: Target{API: "yamlpets"}, Field: "paths"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/pets", "/health"}, res.Items)

	res, err = engine.Execute(context.Background(), InfoQuery{Target: Target{API: "yamlpets"}, Field: "operations"})
	require.NoError(t, err)
	assert.Equal(t, []string{"listPets", "GET /health"}, res.Items)
}

func TestExecute_FetchFailures(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{"/broken.json": `{"swagger": `})
	reg := registry.NewMemory()
	ctx := context.Background()
	_, err := reg.Create(ctx, "gone", srv.URL+"/gone.json")
	require.NoError(t, err)
	_, err = reg.Create(ctx, "broken", srv.URL+"/broken.json")
	require.NoError(t, err)
	engine := New(reg, fetch.New())

	_, err = engine.Execute(ctx, InfoQuery{Target: Target{API: "gone"}, Field: "title"})
	assert.True(t, errors.Is(err, oaserrors.ErrFetch))

	_, err = engine.Execute(ctx, InfoQuery{Target: Target{API: "broken"}, Field: "title"})
	assert.True(t, errors.Is(err, oaserrors.ErrParse))
}

func TestExecute_FetchesEveryQuery(t *testing.T) {
	engine, srv := newPetstoreEngine(t)
	ctx := context.Background()

	for range 3 {
		_, err := engine.Execute(ctx, InfoQuery{Target: petstore(), Field: "title"})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.Hits(http.MethodGet, "/swagger.json"))
}

// stubFetcher serves canned answers and records the deadline it was given.
type stubFetcher struct {
	mu       sync.Mutex
	status   map[string]int
	docs     map[string]string
	validate error
	block    bool
	probed   []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if s.block {
		<-ctx.Done()
		return nil, &oaserrors.FetchError{URL: url, Cause: ctx.Err()}
	}
	doc, ok := s.docs[url]
	if !ok {
		return nil, &oaserrors.FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	return []byte(doc), nil
}

func (s *stubFetcher) Probe(_ context.Context, url string) (int, error) {
	s.mu.Lock()
	s.probed = append(s.probed, url)
	s.mu.Unlock()
	if code, ok := s.status[url]; ok {
		return code, nil
	}
	return 0, &oaserrors.FetchError{URL: url, Cause: errors.New("connection refused")}
}

func (s *stubFetcher) Validate(_ context.Context, _ string) error {
	return s.validate
}

func TestExecute_FetchTimeout(t *testing.T) {
	reg := registry.NewMemory()
	_, err := reg.Create(context.Background(), "slow", "https://slow.example.com/swagger.json")
	require.NoError(t, err)

	engine := New(reg, &stubFetcher{block: true}, WithFetchTimeout(20*time.Millisecond))
	start := time.Now()
	_, err = engine.Execute(context.Background(), InfoQuery{Target: Target{API: "slow"}, Field: "title"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecute_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("scheme is added and first success wins", func(t *testing.T) {
		stub := &stubFetcher{status: map[string]int{
			"http://petstore.io/swagger.json":  http.StatusMovedPermanently,
			"https://petstore.io/swagger.json": http.StatusOK,
		}}
		reg := registry.NewMemory()
		res, err := New(reg, stub).Execute(ctx, CreateAPI{Name: "Petstore", URL: "petstore.io/swagger.json"})
		require.NoError(t, err)
		assert.Equal(t, Created, res.Kind)
		assert.Equal(t, "https://petstore.io/swagger.json", res.Entry.URL)
		assert.Equal(t, []string{
			"petstore.io/swagger.json",
			"http://petstore.io/swagger.json",
			"https://petstore.io/swagger.json",
		}, stub.probed)

		entries, err := reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Petstore", entries[0].Name)
	})

	t.Run("literal url", func(t *testing.T) {
		stub := &stubFetcher{status: map[string]int{"https://a.io/s.json": http.StatusOK}}
		res, err := New(registry.NewMemory(), stub).Execute(ctx, CreateAPI{Name: "a", URL: "https://a.io/s.json"})
		require.NoError(t, err)
		assert.Equal(t, "https://a.io/s.json", res.Entry.URL)
		assert.Len(t, stub.probed, 1)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := New(registry.NewMemory(), &stubFetcher{}).Execute(ctx, CreateAPI{Name: "a", URL: "nowhere"})
		assert.True(t, errors.Is(err, oaserrors.ErrInvalidURL))
	})

	t.Run("missing slots", func(t *testing.T) {
		_, err := New(registry.NewMemory(), &stubFetcher{}).Execute(ctx, CreateAPI{Name: " ", URL: "x"})
		assert.True(t, errors.Is(err, oaserrors.ErrValidation))
	})

	t.Run("invalid document", func(t *testing.T) {
		stub := &stubFetcher{
			status:   map[string]int{"https://a.io/s.json": http.StatusOK},
			validate: &oaserrors.ValidationError{Subject: "https://a.io/s.json", Problems: []string{"bad"}},
		}
		reg := registry.NewMemory()
		_, err := New(reg, stub).Execute(ctx, CreateAPI{Name: "a", URL: "https://a.io/s.json"})
		assert.True(t, errors.Is(err, oaserrors.ErrInvalidSpec))

		entries, _ := reg.List(ctx)
		assert.Empty(t, entries)
	})

	t.Run("fetch failure collapses to invalid spec", func(t *testing.T) {
		stub := &stubFetcher{
			status:   map[string]int{"https://a.io/s.json": http.StatusOK},
			validate: &oaserrors.FetchError{URL: "https://a.io/s.json", StatusCode: http.StatusInternalServerError},
		}
		_, err := New(registry.NewMemory(), stub).Execute(ctx, CreateAPI{Name: "a", URL: "https://a.io/s.json"})
		assert.True(t, errors.Is(err, oaserrors.ErrInvalidSpec))
		assert.True(t, errors.Is(err, oaserrors.ErrFetch), "cause is kept")
	})
}

func TestExecute_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	stub := &stubFetcher{status: map[string]int{
		"https://a.io/s.json": http.StatusOK,
		"https://b.io/s.json": http.StatusOK,
	}}
	reg := registry.NewMemory()
	engine := New(reg, stub)

	_, err := engine.Execute(ctx, CreateAPI{Name: "alpha", URL: "https://a.io/s.json"})
	require.NoError(t, err)

	_, err = engine.Execute(ctx, CreateAPI{Name: "alpha", URL: "https://a.io/s.json"})
	assert.True(t, errors.Is(err, oaserrors.ErrNameConflict), "name is checked before url")

	_, err = engine.Execute(ctx, CreateAPI{Name: "alpha", URL: "https://b.io/s.json"})
	assert.True(t, errors.Is(err, oaserrors.ErrNameConflict))

	_, err = engine.Execute(ctx, CreateAPI{Name: "beta", URL: "https://a.io/s.json"})
	assert.True(t, errors.Is(err, oaserrors.ErrURLConflict))

	entries, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExecute_CreateEndToEnd(t *testing.T) {
	srv := testutil.NewSpecServer(t, map[string]string{
		"/swagger.json": testutil.PetstoreJSON,
		"/openapi.json": `{"openapi": "3.0.0", "info": {"title": "t", "version": "1"}, "paths": {}}`,
	})
	engine := New(registry.NewMemory(), fetch.New())
	ctx := context.Background()

	host := strings.TrimPrefix(srv.URL, "http://")
	res, err := engine.Execute(ctx, CreateAPI{Name: "pets", URL: host + "/swagger.json"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/swagger.json", res.Entry.URL)

	_, err = engine.Execute(ctx, CreateAPI{Name: "v3", URL: srv.URL + "/openapi.json"})
	assert.True(t, errors.Is(err, oaserrors.ErrInvalidSpec))

	got, err := engine.Execute(ctx, InfoQuery{Target: Target{API: "pets"}, Field: "title"})
	require.NoError(t, err)
	assert.Equal(t, "Swagger Petstore", got.Value.String())
}

func TestExecute_UnknownIntent(t *testing.T) {
	_, err := New(registry.NewMemory(), &stubFetcher{}).Execute(context.Background(), nil)
	assert.Error(t, err)
}
