// Package ledger provides the core types and abstractions of the lending ledger:
// the book catalog and the loan records that track who holds which copy.
//
// This package defines the domain types, the sentinel errors that make up the
// lending error taxonomy, and the observability interfaces used by the ledger
// engine implementations.
//
// The ledger guards two invariants:
//   - For every book: 0 <= copies available <= total copies
//   - For every (book, borrower) pair: at most one open loan
//
// Key types:
//   - Book: a catalog entry with its copy inventory
//   - BookDraft: the admin-editable fields of a book, validated on construction
//   - Loan: a lending record, open until it carries a return timestamp
//   - CatalogStats: aggregated counts for the admin dashboard
//
// Common usage pattern:
//
//	loan, err := ledger.Issue(ctx, bookID, borrowerID)
//	switch {
//	case errors.Is(err, ledger.ErrNoCopiesAvailable):
//		// all copies are out
//	case errors.Is(err, ledger.ErrAlreadyBorrowed):
//		// the borrower already holds this title
//	}
//
//	loan, err = ledger.ReturnLoan(ctx, bookID, borrowerID)
package ledger
