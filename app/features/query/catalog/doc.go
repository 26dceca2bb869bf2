// Package catalog implements the Catalog query: every book together with the ids of the books
// the calling borrower currently holds, so a listing can offer either issue or return per row.
package catalog
