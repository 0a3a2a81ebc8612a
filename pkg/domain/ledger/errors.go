package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInsufficientFunds is matched by every InsufficientFundsError.
var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError reports that applying a debit would take the
// balance below zero. Nothing was applied.
type InsufficientFundsError struct {
	UserID   uuid.UUID
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: %d coins required, balance is %d; top up at least %d more",
		e.Required, e.Balance, e.Shortfall(),
	)
}

// Shortfall is the number of coins missing for the operation to succeed.
func (e *InsufficientFundsError) Shortfall() int64 {
	if e.Required <= e.Balance {
		return 0
	}
	return e.Required - e.Balance
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
