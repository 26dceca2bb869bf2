// Package helper provides test fixtures and observability spies for the lending ledger tests.
//
// The spies capture what the ledger reports through its Logger, MetricsCollector and
// TracingCollector interfaces and offer fluent matchers for assertions.
package helper
