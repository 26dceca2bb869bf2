// Package issuebook implements the Issue Book use case: the calling borrower takes one copy of a book.
//
// The ledger enforces the lending rules atomically: the book must exist, a copy must be
// available and the borrower must not already hold an open loan for it.
// Concurrency conflicts are retried with exponential backoff; rejections are returned as they are.
package issuebook
