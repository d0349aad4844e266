// Package oasbot answers conversational questions about registered
// OpenAPI (Swagger 2.0) documents.
//
// A conversational platform (api.ai / Dialogflow style) posts an intent with
// slot parameters to the webhook. oasbot fetches the registered document,
// parses it into an immutable [specdoc.Document], answers the question and
// renders the answer as plain text plus Slack and Messenger payloads.
//
// # Packages
//
//   - specdoc: order-preserving Swagger 2.0 document model, parsing and validation
//   - xref: finds the operations that reference a named object definition
//   - query: field classification and the query engine
//   - render: plain, Slack and Messenger payload rendering
//   - router: webhook payload validation, intent dispatch and user messages
//   - registry: name to URL directory of known APIs (memory, bbolt, redis, postgres)
//   - fetch: specification fetching, URL probing and validation over HTTP
//   - server: echo-based webhook and REST transport
//
// # Quick Start
//
//	reg := registry.NewMemory()
//	engine := query.New(reg, fetch.New())
//	r := router.New(engine)
//
//	req, err := router.ParseRequest(body)
//	if err != nil {
//		return err
//	}
//	payload := r.Handle(ctx, req)
//	fmt.Println(payload.DisplayText)
//
// Documents are fetched and parsed on every query; nothing is cached between
// requests, so answers always reflect the currently published document.
package oasbot
