// Package audit describes the admin action trail.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMissingAdmin is returned when an audit record has no acting admin.
var ErrMissingAdmin = errors.New("audit record requires an admin")

// Action names an administrative operation.
type Action string

const (
	ActionTopupApprove  Action = "TOPUP_APPROVE"
	ActionTopupReject   Action = "TOPUP_REJECT"
	ActionPricingUpdate Action = "PRICING_UPDATE"
	ActionCoinsAdjust   Action = "COINS_ADJUST"
	ActionRefund        Action = "REFUND"
	ActionUserStatus    Action = "USER_STATUS"
)

// Entity names the kind of record an action touched.
type Entity string

const (
	EntityTopup    Entity = "topup"
	EntitySettings Entity = "settings"
	EntityUser     Entity = "user"
	EntityLedger   Entity = "ledger_entry"
)

// Record is one row of the audit trail.
type Record struct {
	ID        uuid.UUID
	AdminID   uuid.UUID
	Action    Action
	Entity    Entity
	EntityID  string
	Meta      map[string]any
	CreatedAt time.Time
}

// New builds a record stamped with the current time.
func New(adminID uuid.UUID, action Action, entity Entity, entityID string, meta map[string]any) (*Record, error) {
	if adminID == uuid.Nil {
		return nil, ErrMissingAdmin
	}
	return &Record{
		ID:        uuid.New(),
		AdminID:   adminID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}, nil
}
