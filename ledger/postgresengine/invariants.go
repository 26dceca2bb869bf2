package postgresengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

const (
	reasonBelowZero         = "copies available below zero"
	reasonAboveTotal        = "copies available above total copies"
	reasonOpenLoansMismatch = "copies available does not match total copies minus open loans"
)

// VerifyInvariants checks the stored state of every book against the ledger invariants:
// copies available lies within [0, total copies] and equals total copies minus open loans.
// It returns the offending books together with ledger.ErrInvariantViolated, or nil and nil.
func (l *Ledger) VerifyInvariants(ctx context.Context) ([]ledger.InvariantViolation, error) {
	observer, ctx := l.observe(ctx, operationVerifyInvariants, nil)

	violations, err := l.verifyInvariants(ctx)
	if err == nil && len(violations) > 0 {
		err = fmt.Errorf("%w: %d books affected", ledger.ErrInvariantViolated, len(violations))
	}

	observer.finish(err, logAttrCount, len(violations))

	return violations, err
}

func (l *Ledger) verifyInvariants(ctx context.Context) ([]ledger.InvariantViolation, error) {
	sqlQuery, args, buildErr := l.buildInvariantViolationsQuery()
	if buildErr != nil {
		return nil, l.buildFailed(ctx, buildErr)
	}

	rows, queryErr := l.query(ctx, l.db, logActionInvariants, sqlQuery, args)
	if queryErr != nil {
		return nil, queryErr
	}
	defer l.closeRows(ctx, rows)

	var violations []ledger.InvariantViolation

	for rows.Next() {
		var bookID uuid.UUID
		var violation ledger.InvariantViolation

		scanErr := rows.Scan(&bookID, &violation.TotalCopies, &violation.CopiesAvailable, &violation.OpenLoans)
		if scanErr != nil {
			return nil, l.scanFailed(ctx, scanErr)
		}

		violation.BookID = bookID.String()
		violation.Reason = violationReason(violation)
		violations = append(violations, violation)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, l.iterationFailed(ctx, rowsErr)
	}

	return violations, nil
}

func violationReason(v ledger.InvariantViolation) string {
	switch {
	case v.CopiesAvailable < 0:
		return reasonBelowZero
	case v.CopiesAvailable > v.TotalCopies:
		return reasonAboveTotal
	default:
		return reasonOpenLoansMismatch
	}
}
