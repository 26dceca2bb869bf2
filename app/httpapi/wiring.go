package httpapi

import (
	"context"

	"github.com/google/uuid"

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
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell/observable"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Ledger is the full set of ledger operations the use cases need.
type Ledger interface {
	Issue(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error)
	ReturnLoan(ctx context.Context, bookID, borrowerID uuid.UUID) (ledger.Loan, error)
	ListOpenLoans(ctx context.Context, borrowerID uuid.UUID) (ledger.Loans, error)
	ListBooks(ctx context.Context) ([]ledger.Book, error)
	GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error)
	CreateBook(ctx context.Context, draft ledger.BookDraft) (ledger.Book, error)
	UpdateBook(ctx context.Context, bookID uuid.UUID, draft ledger.BookDraft) (ledger.Book, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
	Stats(ctx context.Context) (ledger.CatalogStats, error)
}

// Observability holds the optional collectors the handlers are instrumented with.
// Nil fields disable the respective signal.
type Observability struct {
	Metrics          shell.MetricsCollector
	Tracing          shell.TracingCollector
	ContextualLogger shell.ContextualLogger
	Logger           shell.Logger
}

// NewHandlers builds every use case on top of l and wraps it with observability.
// Retry metrics are recorded by the command wrappers from the handler results.
func NewHandlers(l Ledger, obs Observability) (Handlers, error) {
	var (
		handlers Handlers
		err      error
	)

	if handlers.IssueBook, err = wrapCommand[issuebook.Command, ledger.Loan](issuebook.NewCommandHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.ReturnBook, err = wrapCommand[returnbook.Command, ledger.Loan](returnbook.NewCommandHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.AddBook, err = wrapCommand[addbook.Command, ledger.Book](addbook.NewCommandHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.EditBook, err = wrapCommand[editbook.Command, ledger.Book](editbook.NewCommandHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.RemoveBook, err = wrapCommand[removebook.Command, struct{}](removebook.NewCommandHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.Catalog, err = wrapQuery[catalog.Query, catalog.Result](catalog.NewQueryHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.BookDetails, err = wrapQuery[bookdetails.Query, ledger.Book](bookdetails.NewQueryHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.OpenLoans, err = wrapQuery[openloans.Query, ledger.Loans](openloans.NewQueryHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	if handlers.Dashboard, err = wrapQuery[dashboard.Query, dashboard.Result](dashboard.NewQueryHandler(l), obs); err != nil {
		return Handlers{}, err
	}

	return handlers, nil
}

func wrapCommand[C shell.Command, R any](
	core shell.CoreCommandHandler[C, R],
	obs Observability,
) (shell.CoreCommandHandler[C, R], error) {
	var opts []observable.CommandOption[C, R]

	if obs.Metrics != nil {
		opts = append(opts, observable.WithCommandMetrics[C, R](obs.Metrics))
	}

	if obs.Tracing != nil {
		opts = append(opts, observable.WithCommandTracing[C, R](obs.Tracing))
	}

	if obs.ContextualLogger != nil {
		opts = append(opts, observable.WithCommandContextualLogging[C, R](obs.ContextualLogger))
	}

	if obs.Logger != nil {
		opts = append(opts, observable.WithCommandLogging[C, R](obs.Logger))
	}

	wrapper, err := observable.NewCommandWrapper[C, R](core, opts...)
	if err != nil {
		return nil, err
	}

	return wrapper, nil
}

func wrapQuery[Q shell.Query, R any](
	core shell.CoreQueryHandler[Q, R],
	obs Observability,
) (shell.CoreQueryHandler[Q, R], error) {
	var opts []observable.QueryOption[Q, R]

	if obs.Metrics != nil {
		opts = append(opts, observable.WithQueryMetrics[Q, R](obs.Metrics))
	}

	if obs.Tracing != nil {
		opts = append(opts, observable.WithQueryTracing[Q, R](obs.Tracing))
	}

	if obs.ContextualLogger != nil {
		opts = append(opts, observable.WithQueryContextualLogging[Q, R](obs.ContextualLogger))
	}

	if obs.Logger != nil {
		opts = append(opts, observable.WithQueryLogging[Q, R](obs.Logger))
	}

	wrapper, err := observable.NewQueryWrapper[Q, R](core, opts...)
	if err != nil {
		return nil, err
	}

	return wrapper, nil
}
