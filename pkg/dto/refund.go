package dto

import "github.com/google/uuid"

// RefundRequest is the admin request body for reversing a charge.
type RefundRequest struct {
	RefTable string    `json:"ref_table" validate:"required,oneof=posts connection_requests"`
	RefID    uuid.UUID `json:"ref_id" validate:"required"`
	Note     string    `json:"note" validate:"max=500"`
}
