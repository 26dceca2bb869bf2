// Package bookdetails implements the Book Details query.
package bookdetails
