// Package addbook implements the Add Book use case: an admin adds a title to the catalog
// with an initial number of copies, all of them available.
package addbook
