package httpapi

import (
	"net/http"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/addbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/editbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/issuebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/removebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/returnbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/bookdetails"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/catalog"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/dashboard"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/openloans"
)

// Redirect targets for form posts.
const (
	pathBooks         = "/books"
	pathMyIssuedBooks = "/my-issued-books"
	pathAdminBooks    = "/admin/books"
)

func (s *Server) issueBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := decodeBookIDRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, _, err := s.handlers.IssueBook.Handle(r.Context(), issuebook.BuildCommand(bookID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !isJSONRequest(r) {
		redirect(w, r, pathBooks)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, loan)
}

func (s *Server) returnBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := decodeBookIDRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, _, err := s.handlers.ReturnBook.Handle(r.Context(), returnbook.BuildCommand(bookID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !isJSONRequest(r) {
		redirect(w, r, pathMyIssuedBooks)
		return
	}

	s.writeJSON(w, r, http.StatusOK, loan)
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	result, err := s.handlers.Catalog.Handle(r.Context(), catalog.BuildQuery())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) bookDetails(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseBookID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, err := s.handlers.BookDetails.Handle(r.Context(), bookdetails.BuildQuery(bookID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, book)
}

func (s *Server) myIssuedBooks(w http.ResponseWriter, r *http.Request) {
	loans, err := s.handlers.OpenLoans.Handle(r.Context(), openloans.BuildQuery())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, loans)
}

func (s *Server) addBook(w http.ResponseWriter, r *http.Request) {
	request, _, err := decodeBookRequest(r, false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := addbook.BuildCommand(request.Title, request.Author, request.PublishedYear, request.TotalCopies)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, _, err := s.handlers.AddBook.Handle(r.Context(), command)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !isJSONRequest(r) {
		redirect(w, r, pathAdminBooks)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, book)
}

func (s *Server) editBook(w http.ResponseWriter, r *http.Request) {
	request, bookID, err := decodeBookRequest(r, true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	command, err := editbook.BuildCommand(bookID, request.Title, request.Author, request.PublishedYear, request.TotalCopies)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	book, _, err := s.handlers.EditBook.Handle(r.Context(), command)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !isJSONRequest(r) {
		redirect(w, r, pathAdminBooks)
		return
	}

	s.writeJSON(w, r, http.StatusOK, book)
}

func (s *Server) removeBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := decodeBookIDRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, _, err = s.handlers.RemoveBook.Handle(r.Context(), removebook.BuildCommand(bookID)); err != nil {
		s.writeError(w, r, err)
		return
	}

	if !isJSONRequest(r) {
		redirect(w, r, pathAdminBooks)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminBooks(w http.ResponseWriter, r *http.Request) {
	result, err := s.handlers.Dashboard.Handle(r.Context(), dashboard.BuildQuery())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, result.Books)
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.handlers.Dashboard.Handle(r.Context(), dashboard.BuildQuery())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, result)
}
