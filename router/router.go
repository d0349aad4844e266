// Package router turns webhook requests into engine queries and engine
// outcomes into response envelopes.
//
// Actions map one to one onto query intents:
//
//	api.list               ListAPIs
//	api.create             CreateAPI   (parameters: api, url)
//	api.info               InfoQuery   (parameters: api, data)
//	api.object-definition  ObjectQuery (parameters: api, object)
//	api.operation          OperationQuery (parameters: api, operation)
//	api.path               PathQuery   (parameters: api, path)
//
// Every business failure is answered with a canned message inside a normal
// envelope; only ParseRequest rejects input.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
	"github.com/erraggy/oasbot/query"
	"github.com/erraggy/oasbot/render"
	"github.com/erraggy/oasbot/xref"
)

// Actions understood by the router.
const (
	ActionList      = "api.list"
	ActionCreate    = "api.create"
	ActionInfo      = "api.info"
	ActionObject    = "api.object-definition"
	ActionOperation = "api.operation"
	ActionPath      = "api.path"
)

// Parameter names.
const (
	ParamAPI       = "api"
	ParamURL       = "url"
	ParamData      = "data"
	ParamObject    = "object"
	ParamOperation = "operation"
	ParamPath      = "path"
)

// Executor runs query intents. *query.Engine implements it.
type Executor interface {
	Execute(ctx context.Context, in query.Intent) (*query.Result, error)
}

// Router dispatches requests to an Executor.
type Router struct {
	engine Executor
	logger logging.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger that receives the errors hidden from users.
func WithLogger(l logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New returns a Router over engine.
func New(engine Executor, opts ...Option) *Router {
	r := &Router{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// Handle answers one request. It always returns a payload.
func (r *Router) Handle(ctx context.Context, req *Request) *render.Payload {
	if req == nil {
		return render.Text(msgNotDefined)
	}
	log := r.logger.With("action", req.Action)
	if req.IntentName != "" {
		log = log.With("intent", req.IntentName)
	}

	in, ok := intentFor(req)
	if !ok {
		log.Debug("unsupported action or missing parameter")
		return render.Text(msgNotDefined)
	}

	res, err := r.engine.Execute(ctx, in)
	if err != nil {
		if _, create := in.(query.CreateAPI); create {
			return render.Text(r.createFailure(log, err))
		}
		return render.Text(r.failure(log, err))
	}
	return answer(in, res)
}

// intentFor maps a request onto an intent. It reports false for unknown
// actions and for queries missing their subject parameter.
func intentFor(req *Request) (query.Intent, bool) {
	target := query.Target{API: req.Param(ParamAPI), Contexts: req.Contexts}
	subject := func(name string) (string, bool) {
		v := strings.TrimSpace(req.Param(name))
		return v, v != ""
	}

	switch req.Action {
	case ActionList:
		return query.ListAPIs{}, true
	case ActionCreate:
		return query.CreateAPI{Name: req.Param(ParamAPI), URL: req.Param(ParamURL)}, true
	case ActionInfo:
		field, ok := subject(ParamData)
		return query.InfoQuery{Target: target, Field: field}, ok
	case ActionObject:
		object, ok := subject(ParamObject)
		return query.ObjectQuery{Target: target, Object: object}, ok
	case ActionOperation:
		id, ok := subject(ParamOperation)
		return query.OperationQuery{Target: target, OperationID: id}, ok
	case ActionPath:
		path, ok := subject(ParamPath)
		return query.PathQuery{Target: target, Path: path}, ok
	}
	return nil, false
}

// failure translates a query error into a user message.
func (r *Router) failure(log logging.Logger, err error) string {
	switch {
	case errors.Is(err, oaserrors.ErrNoAPISpecified), errors.Is(err, oaserrors.ErrNoSuchAPI):
		log.Debug("api not resolved", "error", err)
		return msgNoAPI
	case errors.Is(err, oaserrors.ErrNotFound):
		log.Debug("not in document", "error", err)
		return msgNotExisting
	case errors.Is(err, oaserrors.ErrUnsupportedField):
		log.Debug("unsupported field", "error", err)
		return msgNotDefined
	}
	log.Error("query failed", "error", err)
	return msgGeneric
}

// createFailure translates a create error into a user message.
func (r *Router) createFailure(log logging.Logger, err error) string {
	switch {
	case errors.Is(err, oaserrors.ErrValidation):
		return msgCreateUsage
	case errors.Is(err, oaserrors.ErrInvalidURL):
		return msgInvalidURL
	case errors.Is(err, oaserrors.ErrNameConflict):
		return msgNameExists
	case errors.Is(err, oaserrors.ErrURLConflict):
		return msgURLExists
	case errors.Is(err, oaserrors.ErrInvalidSpec), errors.Is(err, oaserrors.ErrFetch), errors.Is(err, oaserrors.ErrParse):
		log.Info("rejected api", "error", err)
		return msgInvalidSpec
	}
	log.Error("create failed", "error", err)
	return msgGeneric
}

func answer(in query.Intent, res *query.Result) *render.Payload {
	switch res.Kind {
	case query.Created:
		return render.Text(msgCreated)
	case query.List:
		return listAnswer(res)
	case query.ObjectWithReferences:
		return objectAnswer(res)
	case query.Scalar:
		return scalarAnswer(in, res)
	}
	return render.Text(msgGeneric)
}

func scalarAnswer(in query.Intent, res *query.Result) *render.Payload {
	switch in.(type) {
	case query.InfoQuery:
		return render.Text(fmt.Sprintf(msgInfo, res.Subject, res.Entry.Name, res.Value.String()))
	case query.PathQuery:
		return render.Text(fmt.Sprintf(msgPath, res.Subject, res.Value.String()))
	case query.OperationQuery:
		return render.Text(fmt.Sprintf(msgOperation, res.Subject, res.Value.String()))
	}
	return render.Text(msgGeneric)
}

// listing describes how one kind of list result is presented.
type listing struct {
	noun       string
	empty      string
	prompt     string
	callbackID string
	value      func(item string) string
}

var listings = map[string]listing{
	query.ListPaths: {
		noun: "paths", empty: msgNoPaths, prompt: promptPaths, callbackID: callbackPaths,
		value: func(p string) string { return "Explain path " + p },
	},
	query.ListOperations: {
		noun: "operations", empty: msgNoOperations, prompt: promptOperations, callbackID: callbackOperations,
		value: func(op string) string { return "Explain operation " + op },
	},
	query.ListDefinitions: {
		noun: "objects", empty: msgNoDefinitions, prompt: promptDefinitions, callbackID: callbackDefinitions,
		value: func(d string) string { return "Explain object " + d },
	},
}

func listAnswer(res *query.Result) *render.Payload {
	if res.Subject == query.SubjectAPIs {
		if len(res.Items) == 0 {
			return render.Text(msgNoAPIs)
		}
		text := fmt.Sprintf(msgAPIList, strings.Join(res.Items, "\n"))
		return render.WithMenu(text, menu(promptAPIs, callbackAPIs, res.Items, func(api string) string { return "Use " + api }))
	}

	l, ok := listings[res.Subject]
	if !ok {
		return render.Text(msgGeneric)
	}
	if len(res.Items) == 0 {
		return render.Text(l.empty)
	}
	text := fmt.Sprintf(msgList, l.noun, strings.Join(res.Items, "\n"))
	return render.WithMenu(text, menu(l.prompt, l.callbackID, res.Items, l.value))
}

func objectAnswer(res *query.Result) *render.Payload {
	schema := res.Value.String()
	if len(res.References) == 0 {
		return render.Text(fmt.Sprintf(msgObject, res.Subject, schema))
	}

	lines := make([]string, 0, len(res.References))
	buttons := make([]render.Button, 0, len(res.References))
	for _, ref := range res.References {
		lines = append(lines, ref.DisplayValue)
		target := ref.Path
		if ref.Kind == xref.KindOperation {
			target = ref.DisplayValue
		}
		buttons = append(buttons, render.Button{
			Name:  ref.DisplayValue,
			Label: ref.DisplayValue,
			Value: fmt.Sprintf("Explain %s %s", ref.Kind, target),
		})
	}
	text := fmt.Sprintf(msgObjectLinked, res.Subject, schema, strings.Join(lines, "\n"))
	return render.WithMenu(text, render.Menu{
		Prompt:     promptReferences,
		CallbackID: callbackReferences,
		Fallback:   msgGeneric,
		Buttons:    buttons,
	})
}

func menu(prompt, callbackID string, items []string, value func(string) string) render.Menu {
	buttons := make([]render.Button, 0, len(items))
	for _, item := range items {
		buttons = append(buttons, render.Button{Name: item, Label: item, Value: value(item)})
	}
	return render.Menu{Prompt: prompt, CallbackID: callbackID, Fallback: msgGeneric, Buttons: buttons}
}
