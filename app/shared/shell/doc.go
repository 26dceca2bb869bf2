// Package shell holds the application plumbing shared by all command and query features
// of the lending ledger: handler contracts, the caller identity carried in the context,
// retry with exponential backoff for concurrency conflicts and the observability helpers
// used by the observable wrappers.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
