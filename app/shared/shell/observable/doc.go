// Package observable decorates command and query handlers with logging, metrics and tracing.
// Handlers stay free of observability concerns; the wrappers derive everything from the
// returned error and the HandlerResult metadata.
package observable
