// Package openloans implements the My Issued Books query: the open loans of the calling borrower,
// most recent first.
package openloans
