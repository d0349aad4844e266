// Package query answers questions about registered Swagger 2.0 documents.
//
// An [Intent] names what is asked: the registered APIs, a new registration,
// a metadata field or listing, an object definition, an operation or a path.
// [Engine.Execute] resolves the target API through the registry, fetches and
// parses its document and returns a [Result]. Documents are never cached.
//
// Failures are the typed errors and sentinels of package oaserrors, so
// callers branch with errors.Is:
//
//	res, err := engine.Execute(ctx, query.InfoQuery{
//		Target: query.Target{API: "petstore"},
//		Field:  "title",
//	})
//	if errors.Is(err, oaserrors.ErrNotFound) {
//		// the document has no title
//	}
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/registry"
	"github.com/erraggy/oasbot/specdoc"
	"github.com/erraggy/oasbot/xref"
)

// Registry is the part of registry.Registry the engine uses.
type Registry interface {
	List(ctx context.Context) ([]registry.Entry, error)
	Lookup(ctx context.Context, name string) (registry.Entry, error)
	Create(ctx context.Context, name, url string) (registry.Entry, error)
}

// Fetcher retrieves and checks documents. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Probe(ctx context.Context, url string) (int, error)
	Validate(ctx context.Context, url string) error
}

// DefaultFetchTimeout bounds each document fetch.
const DefaultFetchTimeout = 30 * time.Second

// Engine executes intents. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	reg          Registry
	fetcher      Fetcher
	fetchTimeout time.Duration
	logger       logging.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	fetchTimeout time.Duration
	logger       logging.Logger
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(cfg *engineConfig) { cfg.logger = l }
}

// WithFetchTimeout bounds the network part of each query. Zero or negative
// disables the bound; the caller's context still applies.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) { cfg.fetchTimeout = d }
}

// New returns an Engine over reg and f.
func New(reg Registry, f Fetcher, opts ...Option) *Engine {
	cfg := &engineConfig{fetchTimeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{
		reg:          reg,
		fetcher:      f,
		fetchTimeout: cfg.fetchTimeout,
		logger:       logging.OrNop(cfg.logger),
	}
}

// Execute runs one intent.
func (e *Engine) Execute(ctx context.Context, in Intent) (*Result, error) {
	switch q := in.(type) {
	case ListAPIs:
		return e.listAPIs(ctx)
	case CreateAPI:
		return e.createAPI(ctx, q)
	case InfoQuery:
		return e.info(ctx, q)
	case ObjectQuery:
		return e.object(ctx, q)
	case OperationQuery:
		return e.operation(ctx, q)
	case PathQuery:
		return e.path(ctx, q)
	case nil:
		return nil, errors.New("query: nil intent")
	default:
		return nil, fmt.Errorf("query: unsupported intent %T", in)
	}
}

func (e *Engine) listAPIs(ctx context.Context) (*Result, error) {
	entries, err := e.reg.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	slices.Sort(names)
	return &Result{Kind: List, Subject: SubjectAPIs, Items: names}, nil
}

func (e *Engine) createAPI(ctx context.Context, q CreateAPI) (*Result, error) {
	name := strings.TrimSpace(q.Name)
	raw := strings.TrimSpace(q.URL)
	if name == "" || raw == "" {
		return nil, &oaserrors.ValidationError{
			Subject:  "create",
			Problems: missingCreateSlots(name, raw),
			Payload:  true,
		}
	}
	log := e.logger.With("api", name)

	url, ok := e.probe(ctx, raw)
	if !ok {
		log.Info("no reachable url variant", "url", raw)
		return nil, oaserrors.ErrInvalidURL
	}

	entries, err := e.reg.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list apis: %w", err)
	}
	for _, entry := range entries {
		if entry.Name == name {
			return nil, oaserrors.NameConflict(name)
		}
	}
	for _, entry := range entries {
		if entry.URL == url {
			return nil, oaserrors.URLConflict(url)
		}
	}

	if err := e.withFetchTimeout(ctx, func(ctx context.Context) error {
		return e.fetcher.Validate(ctx, url)
	}); err != nil {
		log.Info("rejected document", "url", url, "error", err)
		if errors.Is(err, oaserrors.ErrInvalidSpec) {
			return nil, err
		}
		return nil, &oaserrors.ValidationError{Subject: url, Cause: err}
	}

	entry, err := e.reg.Create(ctx, name, url)
	if err != nil {
		return nil, err
	}
	log.Info("api registered", "url", url, "id", entry.ID.String())
	return &Result{Kind: Created, Entry: entry, Subject: entry.Name}, nil
}

func missingCreateSlots(name, url string) []string {
	var problems []string
	if name == "" {
		problems = append(problems, "name is required")
	}
	if url == "" {
		problems = append(problems, "url is required")
	}
	return problems
}

// probe returns the first of raw, http://raw and https://raw that answers a
// HEAD request with 200.
func (e *Engine) probe(ctx context.Context, raw string) (string, bool) {
	for _, candidate := range []string{raw, "http://" + raw, "https://" + raw} {
		var status int
		err := e.withFetchTimeout(ctx, func(ctx context.Context) error {
			var err error
			status, err = e.fetcher.Probe(ctx, candidate)
			return err
		})
		if err != nil {
			e.logger.Debug("probe failed", "url", candidate, "error", err)
			continue
		}
		if status == 200 {
			return candidate, true
		}
	}
	return "", false
}

func (e *Engine) info(ctx context.Context, q InfoQuery) (*Result, error) {
	entry, err := e.resolve(ctx, q.Target)
	if err != nil {
		return nil, err
	}
	category := Classify(q.Field)
	if category == FieldUnknown {
		return nil, fmt.Errorf("%w: %q", oaserrors.ErrUnsupportedField, q.Field)
	}
	doc, err := e.load(ctx, entry)
	if err != nil {
		return nil, err
	}

	res := &Result{Entry: entry, Subject: q.Field}
	switch category {
	case FieldInfo, FieldSwagger:
		lookup := doc.Root
		if category == FieldInfo {
			lookup = doc.Info
		}
		v, ok := lookup(q.Field)
		if !ok {
			return nil, &oaserrors.NotFoundError{Kind: oaserrors.KindField, Name: q.Field}
		}
		res.Kind = Scalar
		res.Value = v
	case FieldGeneral:
		res.Kind = List
		res.Items = listing(doc, q.Field)
	}
	return res, nil
}

func listing(doc *specdoc.Document, field string) []string {
	var items []string
	switch field {
	case ListPaths:
		for _, p := range doc.Paths() {
			items = append(items, p.Path)
		}
	case ListOperations:
		for _, op := range doc.OperationList() {
			items = append(items, op.DisplayID())
		}
	case ListDefinitions:
		for _, d := range doc.Definitions() {
			items = append(items, d.Name)
		}
	}
	return items
}

func (e *Engine) object(ctx context.Context, q ObjectQuery) (*Result, error) {
	entry, err := e.resolve(ctx, q.Target)
	if err != nil {
		return nil, err
	}
	doc, err := e.load(ctx, entry)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{q.Object, strings.ToLower(q.Object), titleCase(q.Object)} {
		def, ok := doc.Definition(name)
		if !ok {
			continue
		}
		return &Result{
			Kind:       ObjectWithReferences,
			Entry:      entry,
			Subject:    def.Name,
			Value:      def.Schema,
			References: xref.Resolve(doc, def.Name),
		}, nil
	}
	return nil, &oaserrors.NotFoundError{Kind: oaserrors.KindObject, Name: q.Object}
}

// titleCase capitalizes the first letter of every run of letters and lowers
// the rest of the run. Any non-letter, digits and '_' included, ends a run,
// so "pet_owner" becomes "Pet_Owner" and "pet2owner" becomes "Pet2Owner".
func titleCase(s string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(title.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(title.String(s[start:]))
	}
	return b.String()
}

func (e *Engine) operation(ctx context.Context, q OperationQuery) (*Result, error) {
	entry, err := e.resolve(ctx, q.Target)
	if err != nil {
		return nil, err
	}
	doc, err := e.load(ctx, entry)
	if err != nil {
		return nil, err
	}

	op, ok := doc.Operation(q.OperationID)
	if !ok {
		return nil, &oaserrors.NotFoundError{Kind: oaserrors.KindOperation, Name: q.OperationID}
	}
	return &Result{Kind: Scalar, Entry: entry, Subject: op.OperationID, Value: op.Raw}, nil
}

func (e *Engine) path(ctx context.Context, q PathQuery) (*Result, error) {
	entry, err := e.resolve(ctx, q.Target)
	if err != nil {
		return nil, err
	}
	doc, err := e.load(ctx, entry)
	if err != nil {
		return nil, err
	}

	for _, candidate := range []string{q.Path, "/" + q.Path, doc.BasePath() + "/" + q.Path} {
		if item, ok := doc.Path(candidate); ok {
			return &Result{Kind: Scalar, Entry: entry, Subject: item.Path, Value: item.Raw}, nil
		}
	}
	return nil, &oaserrors.NotFoundError{Kind: oaserrors.KindPath, Name: q.Path}
}

// resolve finds the registry entry a query targets.
func (e *Engine) resolve(ctx context.Context, t Target) (registry.Entry, error) {
	name, err := t.APIName()
	if err != nil {
		return registry.Entry{}, err
	}
	return e.reg.Lookup(ctx, name)
}

// load fetches and parses the document of entry.
func (e *Engine) load(ctx context.Context, entry registry.Entry) (*specdoc.Document, error) {
	var data []byte
	err := e.withFetchTimeout(ctx, func(ctx context.Context) error {
		var err error
		data, err = e.fetcher.Fetch(ctx, entry.URL)
		return err
	})
	if err != nil {
		e.logger.Warn("failed to fetch document", "api", entry.Name, "url", entry.URL, "error", err)
		return nil, err
	}
	doc, err := specdoc.Parse(data, specdoc.WithSourceName(entry.URL))
	if err != nil {
		e.logger.Warn("failed to parse document", "api", entry.Name, "url", entry.URL, "error", err)
		return nil, err
	}
	return doc, nil
}

func (e *Engine) withFetchTimeout(ctx context.Context, fn func(context.Context) error) error {
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}
	return fn(ctx)
}
