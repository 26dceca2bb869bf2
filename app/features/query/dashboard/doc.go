// Package dashboard implements the admin dashboard query: catalog totals and the book list.
//
// It reads with eventual consistency, so with a replica configured the numbers may lag the
// primary slightly.
package dashboard
