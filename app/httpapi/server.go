package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/addbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/editbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/issuebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/removebook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/command/returnbook"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/bookdetails"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/catalog"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/dashboard"
	"github.com/AntonStoeckl/lending-ledger-go/app/features/query/openloans"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// ErrNilAuthenticator is returned when a Server is created without an Authenticator.
var ErrNilAuthenticator = errors.New("authenticator must not be nil")

// Handlers are the use cases the server dispatches to.
// Both the core handlers and their observable wrappers satisfy these interfaces.
type Handlers struct {
	IssueBook   shell.CoreCommandHandler[issuebook.Command, ledger.Loan]
	ReturnBook  shell.CoreCommandHandler[returnbook.Command, ledger.Loan]
	AddBook     shell.CoreCommandHandler[addbook.Command, ledger.Book]
	EditBook    shell.CoreCommandHandler[editbook.Command, ledger.Book]
	RemoveBook  shell.CoreCommandHandler[removebook.Command, struct{}]
	Catalog     shell.CoreQueryHandler[catalog.Query, catalog.Result]
	BookDetails shell.CoreQueryHandler[bookdetails.Query, ledger.Book]
	OpenLoans   shell.CoreQueryHandler[openloans.Query, ledger.Loans]
	Dashboard   shell.CoreQueryHandler[dashboard.Query, dashboard.Result]
}

// Server routes HTTP requests to the lending ledger use cases.
type Server struct {
	handlers      Handlers
	authenticator *Authenticator
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request and failure logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server.
func NewServer(handlers Handlers, authenticator *Authenticator, opts ...Option) (*Server, error) {
	if authenticator == nil {
		return nil, ErrNilAuthenticator
	}

	server := &Server{
		handlers:      handlers,
		authenticator: authenticator,
		logger:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(server)
	}

	return server, nil
}

// Handler returns the routed and authenticated http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /issue-book", s.issueBook)
	mux.HandleFunc("POST /return-book", s.returnBook)
	mux.HandleFunc("GET /books", s.listBooks)
	mux.HandleFunc("GET /books/{id}", s.bookDetails)
	mux.HandleFunc("GET /my-issued-books", s.myIssuedBooks)

	mux.HandleFunc("POST /add-book", s.addBook)
	mux.HandleFunc("POST /admin/books/edit", s.editBook)
	mux.HandleFunc("POST /admin/books/delete", s.removeBook)
	mux.HandleFunc("GET /admin/books", s.adminBooks)
	mux.HandleFunc("GET /admin", s.adminDashboard)

	return s.logRequests(s.authenticate(mux))
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.DebugContext(r.Context(), "handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
