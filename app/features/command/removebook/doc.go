// Package removebook implements the Remove Book use case: an admin deletes a catalog entry
// that has no open loans.
package removebook
