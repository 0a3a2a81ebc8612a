package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	userID := uuid.New()
	refID := uuid.New()

	tests := []struct {
		name    string
		userID  uuid.UUID
		delta   int64
		reason  ledger.Reason
		ref     ledger.Ref
		wantErr error
	}{
		{"debit with ref", userID, -2, ledger.ReasonPost, ledger.Ref{Table: ledger.RefTablePosts, ID: refID}, nil},
		{"credit without ref", userID, 5, ledger.ReasonOther, ledger.Ref{}, nil},
		{"zero delta", userID, 0, ledger.ReasonOther, ledger.Ref{}, ledger.ErrZeroDelta},
		{"unknown reason", userID, 1, ledger.Reason("GIFT"), ledger.Ref{}, ledger.ErrInvalidReason},
		{"missing user", uuid.Nil, 1, ledger.ReasonOther, ledger.Ref{}, ledger.ErrMissingUser},
		{"half ref", userID, 1, ledger.ReasonTopup, ledger.Ref{Table: ledger.RefTableTopups}, ledger.ErrIncompleteRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ledger.NewEntry(tt.userID, tt.delta, tt.reason, tt.ref, "  note ")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.delta, e.Delta)
			assert.Equal(t, "note", e.Description)
			assert.Equal(t, tt.delta > 0, e.IsCredit())
		})
	}
}

func TestInsufficientFundsError(t *testing.T) {
	var err error = &ledger.InsufficientFundsError{UserID: uuid.New(), Balance: 1, Required: 2}
	wrapped := fmt.Errorf("charge post: %w", err)

	assert.True(t, errors.Is(wrapped, ledger.ErrInsufficientFunds))

	var ife *ledger.InsufficientFundsError
	require.True(t, errors.As(wrapped, &ife))
	assert.Equal(t, int64(1), ife.Shortfall())
	assert.Contains(t, ife.Error(), "2 coins required")
}
