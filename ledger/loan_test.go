package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

func Test_Loan_IsOpen(t *testing.T) {
	returnedAt := time.Unix(0, 0).UTC()

	assert.True(t, ledger.Loan{}.IsOpen())
	assert.False(t, ledger.Loan{ReturnedAt: &returnedAt}.IsOpen())
}

func Test_Loans_BookIDs_KeepsOrder(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	loans := ledger.Loans{{BookID: first}, {BookID: second}}

	assert.Equal(t, []uuid.UUID{first, second}, loans.BookIDs())
	assert.Empty(t, ledger.Loans{}.BookIDs())
}
