// Package oaserrors provides structured error types for oasbot.
//
// Import path: github.com/erraggy/oasbot/oaserrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As].
// The router relies on it to translate domain failures into canned user-facing
// messages, so a legitimate "not found" is never confused with a genuine bug.
//
// # Error Types
//
//   - [ParseError]: the fetched bytes are not a well-formed specification document
//   - [FetchError]: the document could not be downloaded
//   - [NotFoundError]: a field, operation, path, object or API is absent
//   - [ConflictError]: a registry entry with the same name or URL already exists
//   - [ValidationError]: a document or inbound payload violates its schema
//   - [ConfigError]: invalid configuration or input options
//
// # Sentinel Errors
//
//   - [ErrNoAPISpecified]: neither the turn nor its contexts name an API
//   - [ErrNoSuchAPI]: matches [NotFoundError] with Kind "api"
//   - [ErrUnsupportedField]: the field is not part of Swagger 2.0
//   - [ErrNotFound]: matches any other [NotFoundError]
//   - [ErrInvalidURL]: no probed URL variant answered 200
//   - [ErrInvalidSpec]: matches document [ValidationError]
//   - [ErrNameConflict], [ErrURLConflict]: match [ConflictError] by field
//   - [ErrFetch]: matches [FetchError]
//   - [ErrParse]: matches [ParseError]
//   - [ErrValidation]: matches payload [ValidationError]
//   - [ErrConfig]: matches [ConfigError]
//
// # Usage
//
//	_, err := engine.Execute(ctx, query.PathQuery{Target: t, Path: "pets"})
//	switch {
//	case errors.Is(err, oaserrors.ErrNotFound):
//	    // the path is not in the document
//	case errors.Is(err, oaserrors.ErrNoSuchAPI):
//	    // nothing registered under that name
//	}
//
//	var fetchErr *oaserrors.FetchError
//	if errors.As(err, &fetchErr) {
//	    log.Printf("upstream answered %d", fetchErr.StatusCode)
//	}
package oaserrors
