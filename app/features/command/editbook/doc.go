// Package editbook implements the Edit Book use case: an admin changes the descriptive
// fields and the total copies of a catalog entry.
//
// Copies available is recomputed from the new total and the open loans. A total below the
// number of copies on loan is rejected with ledger.ErrTotalCopiesBelowOnLoan.
package editbook
