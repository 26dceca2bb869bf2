package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const maxBodyBytes = 1 << 20

// ErrBadRequest is returned for request input that cannot be parsed.
var ErrBadRequest = errors.New("bad request")

type bookIDRequest struct {
	BookID string `json:"book_id"`
}

type bookRequest struct {
	BookID        string `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear int    `json:"published_year"`
	TotalCopies   int    `json:"total_copies"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// isJSONRequest reports whether the request body is JSON rather than a form post.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	return err == nil && mediaType == "application/json"
}

func decodeJSON(r *http.Request, target any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)

	if err := jsoniter.ConfigFastest.NewDecoder(body).Decode(target); err != nil {
		return errors.Join(ErrBadRequest, err)
	}

	return nil
}

func decodeBookIDRequest(r *http.Request) (uuid.UUID, error) {
	var request bookIDRequest

	if isJSONRequest(r) {
		if err := decodeJSON(r, &request); err != nil {
			return uuid.Nil, err
		}
	} else {
		request.BookID = r.PostFormValue("book_id")
	}

	return parseBookID(request.BookID)
}

func decodeBookRequest(r *http.Request, withBookID bool) (bookRequest, uuid.UUID, error) {
	var request bookRequest

	if isJSONRequest(r) {
		if err := decodeJSON(r, &request); err != nil {
			return bookRequest{}, uuid.Nil, err
		}
	} else {
		var err error
		if request, err = bookRequestFromForm(r); err != nil {
			return bookRequest{}, uuid.Nil, err
		}
	}

	if !withBookID {
		return request, uuid.Nil, nil
	}

	bookID, err := parseBookID(request.BookID)
	if err != nil {
		return bookRequest{}, uuid.Nil, err
	}

	return request, bookID, nil
}

func bookRequestFromForm(r *http.Request) (bookRequest, error) {
	publishedYear, err := formInt(r, "published_year")
	if err != nil {
		return bookRequest{}, err
	}

	// Older forms post the copy count as copies_available.
	totalCopiesField := "total_copies"
	if r.PostFormValue(totalCopiesField) == "" {
		totalCopiesField = "copies_available"
	}

	totalCopies, err := formInt(r, totalCopiesField)
	if err != nil {
		return bookRequest{}, err
	}

	return bookRequest{
		BookID:        r.PostFormValue("book_id"),
		Title:         r.PostFormValue("title"),
		Author:        r.PostFormValue("author"),
		PublishedYear: publishedYear,
		TotalCopies:   totalCopies,
	}, nil
}

func formInt(r *http.Request, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(field)))
	if err != nil {
		return 0, errors.Join(ErrBadRequest, errors.New(field+" must be a whole number"))
	}

	return value, nil
}

func parseBookID(raw string) (uuid.UUID, error) {
	bookID, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errors.Join(ErrBadRequest, errors.New("book_id must be a uuid"))
	}

	return bookID, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	body, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encoding response failed", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
