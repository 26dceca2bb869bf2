// Package returnbook implements the Return Book use case: the calling borrower returns
// the copy of a book they hold.
//
// Returning without an open loan fails with ledger.ErrNoOpenLoan, so a repeated return is
// rejected rather than silently accepted.
package returnbook
