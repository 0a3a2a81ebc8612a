// Package notification lists the messages the platform sends to users
// about their coins.
package notification

import "errors"

// ErrUnknownKind is returned when no template exists for a kind.
var ErrUnknownKind = errors.New("unknown notification kind")

// Kind identifies a user-facing message.
type Kind string

const (
	KindTopupApproved Kind = "TOPUP_APPROVED"
	KindTopupRejected Kind = "TOPUP_REJECTED"
	KindCoinsAdded    Kind = "COINS_ADDED"
	KindCoinsRemoved  Kind = "COINS_REMOVED"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTopupApproved, KindTopupRejected, KindCoinsAdded, KindCoinsRemoved:
		return true
	}
	return false
}

// Payload keys shared by producers and the renderer.
const (
	KeyCoins   = "coins"
	KeyBalance = "balance"
	KeyNote    = "note"
	KeyTopupID = "topup_id"
	KeyReason  = "reason"
)
