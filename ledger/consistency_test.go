package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

func Test_GetConsistencyLevel_DefaultsToStrong(t *testing.T) {
	assert.Equal(t, ledger.StrongConsistency, ledger.GetConsistencyLevel(context.Background()))
}

func Test_GetConsistencyLevel_FromContext(t *testing.T) {
	eventual := ledger.WithEventualConsistency(context.Background())
	strong := ledger.WithStrongConsistency(eventual)

	assert.Equal(t, ledger.EventualConsistency, ledger.GetConsistencyLevel(eventual))
	assert.Equal(t, ledger.StrongConsistency, ledger.GetConsistencyLevel(strong))
}

func Test_ConsistencyLevel_String(t *testing.T) {
	assert.Equal(t, "strong", ledger.StrongConsistency.String())
	assert.Equal(t, "eventual", ledger.EventualConsistency.String())
	assert.Equal(t, "unknown", ledger.ConsistencyLevel(42).String())
}
