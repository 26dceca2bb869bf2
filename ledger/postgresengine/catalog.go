package postgresengine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine/internal/adapters"
)

// ListBooks returns the whole catalog ordered by title.
func (l *Ledger) ListBooks(ctx context.Context) ([]ledger.Book, error) {
	observer, ctx := l.observe(ctx, operationListBooks, nil)

	books, err := l.listBooks(ctx)
	if err == nil {
		observer.recordRows(len(books))
	}

	observer.finish(err, logAttrCount, len(books))

	return books, err
}

func (l *Ledger) listBooks(ctx context.Context) ([]ledger.Book, error) {
	sqlQuery, args, buildErr := l.buildSelectBooksQuery()
	if buildErr != nil {
		return nil, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, l.db, logActionSelectBooks, sqlQuery, args)
	if queryErr != nil {
		return nil, queryErr
	}
	defer l.closeRows(ctx, rows)

	books := make([]ledger.Book, 0)

	for rows.Next() {
		book, scanErr := scanBook(rows)
		if scanErr != nil {
			return nil, l.scanFailed(ctx, scanErr)
		}

		books = append(books, book)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, l.iterationFailed(ctx, rowsErr)
	}

	return books, nil
}

// GetBook returns a single book or ledger.ErrNotFound.
func (l *Ledger) GetBook(ctx context.Context, bookID uuid.UUID) (ledger.Book, error) {
	observer, ctx := l.observe(ctx, operationGetBook, map[string]string{spanAttrBookID: bookID.String()})

	book, found, err := l.selectBook(ctx, l.db, bookID, false)
	if err == nil && !found {
		err = ledger.ErrNotFound
	}

	observer.finish(err, logAttrBookID, bookID.String())

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

// CreateBook adds a book to the catalog with all of its copies available.
func (l *Ledger) CreateBook(ctx context.Context, draft ledger.BookDraft) (ledger.Book, error) {
	observer, ctx := l.observe(ctx, operationCreateBook, nil)

	book, err := l.createBook(ctx, draft)

	observer.finish(err, logAttrBookID, book.ID.String(), logAttrTotalCopies, book.TotalCopies)

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

func (l *Ledger) createBook(ctx context.Context, draft ledger.BookDraft) (ledger.Book, error) {
	bookID, idErr := uuid.NewV7()
	if idErr != nil {
		return ledger.Book{}, errors.Join(ledger.ErrGeneratingIDFailed, idErr)
	}

	book, err := ledger.NewBook(bookID, draft)
	if err != nil {
		return ledger.Book{}, err
	}

	sqlQuery, args, buildErr := l.buildInsertBookQuery(book)
	if buildErr != nil {
		return ledger.Book{}, l.buildFailed(ctx, buildErr)
	}

	if _, err = l.exec(ctx, l.db, logActionInsertBook, sqlQuery, args, ledger.ErrBookAlreadyExists); err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

// UpdateBook replaces the admin-editable fields of a book.
//
// Copies available is recomputed as total copies minus open loans, under the book's row lock.
// A total below the number of copies on loan fails with ledger.ErrTotalCopiesBelowOnLoan.
func (l *Ledger) UpdateBook(ctx context.Context, bookID uuid.UUID, draft ledger.BookDraft) (ledger.Book, error) {
	observer, ctx := l.observe(ctx, operationUpdateBook, map[string]string{spanAttrBookID: bookID.String()})

	book, err := l.updateBook(ctx, bookID, draft)

	observer.finish(err, logAttrBookID, bookID.String(), logAttrTotalCopies, draft.TotalCopies)

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

func (l *Ledger) updateBook(ctx context.Context, bookID uuid.UUID, draft ledger.BookDraft) (ledger.Book, error) {
	if err := draft.Validate(); err != nil {
		return ledger.Book{}, err
	}

	var updated ledger.Book

	err := l.inTransaction(ctx, func(txCtx context.Context, tx adapters.DBTx) error {
		_, found, err := l.selectBook(txCtx, tx, bookID, true)
		if err != nil {
			return err
		}

		if !found {
			return ledger.ErrNotFound
		}

		openLoans, err := l.countOpenLoans(txCtx, tx, bookID)
		if err != nil {
			return err
		}

		if draft.TotalCopies < openLoans {
			return ledger.ErrTotalCopiesBelowOnLoan
		}

		updated = ledger.Book{
			ID:              bookID,
			Title:           draft.Title,
			Author:          draft.Author,
			PublishedYear:   draft.PublishedYear,
			TotalCopies:     draft.TotalCopies,
			CopiesAvailable: draft.TotalCopies - openLoans,
		}

		sqlQuery, args, buildErr := l.buildUpdateBookQuery(updated)
		if buildErr != nil {
			return l.buildFailed(txCtx, buildErr)
		}

		_, err = l.exec(txCtx, tx, logActionUpdateBook, sqlQuery, args, nil)

		return err
	})

	return updated, err
}

// DeleteBook removes a book from the catalog.
// It fails with ledger.ErrBookInUse while copies are on loan and with ledger.ErrNotFound for an unknown id.
// Closed loans of the book are kept as history.
func (l *Ledger) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	observer, ctx := l.observe(ctx, operationDeleteBook, map[string]string{spanAttrBookID: bookID.String()})

	err := l.inTransaction(ctx, func(txCtx context.Context, tx adapters.DBTx) error {
		_, found, err := l.selectBook(txCtx, tx, bookID, true)
		if err != nil {
			return err
		}

		if !found {
			return ledger.ErrNotFound
		}

		openLoans, err := l.countOpenLoans(txCtx, tx, bookID)
		if err != nil {
			return err
		}

		if openLoans > 0 {
			return ledger.ErrBookInUse
		}

		sqlQuery, args, buildErr := l.buildDeleteBookQuery(bookID)
		if buildErr != nil {
			return l.buildFailed(txCtx, buildErr)
		}

		_, err = l.exec(txCtx, tx, logActionDeleteBook, sqlQuery, args, nil)

		return err
	})

	observer.finish(err, logAttrBookID, bookID.String())

	return err
}

// Stats aggregates the catalog and the open loans for the admin dashboard.
func (l *Ledger) Stats(ctx context.Context) (ledger.CatalogStats, error) {
	observer, ctx := l.observe(ctx, operationStats, nil)

	stats, err := l.stats(ctx)

	observer.finish(err,
		logAttrCount, stats.Books,
		logAttrCopiesAvailable, stats.CopiesAvailable)

	return stats, err
}

func (l *Ledger) stats(ctx context.Context) (ledger.CatalogStats, error) {
	sqlQuery, args, buildErr := l.buildStatsQuery()
	if buildErr != nil {
		return ledger.CatalogStats{}, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, l.db, logActionStats, sqlQuery, args)
	if queryErr != nil {
		return ledger.CatalogStats{}, queryErr
	}
	defer l.closeRows(ctx, rows)

	var stats ledger.CatalogStats

	if rows.Next() {
		scanErr := rows.Scan(&stats.Books, &stats.TotalCopies, &stats.CopiesAvailable, &stats.OpenLoans)
		if scanErr != nil {
			return ledger.CatalogStats{}, l.scanFailed(ctx, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return ledger.CatalogStats{}, l.iterationFailed(ctx, rowsErr)
	}

	return stats, nil
}
