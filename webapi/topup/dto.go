package topup

import (
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/pkg/dto"
)

// NewTopupRead maps a top-up to its response body.
func NewTopupRead(t *topup.Topup) *dto.TopupRead {
	return &dto.TopupRead{
		ID:                  t.ID,
		UserID:              t.UserID,
		AmountMvr:           t.AmountMvr,
		PricePerCoin:        t.PricePerCoin,
		AppliedPricePerCoin: t.AppliedPricePerCoin,
		SlipEvidence:        t.SlipEvidence,
		Status:              string(t.Status),
		ComputedCoins:       t.ComputedCoins,
		AdminNote:           t.AdminNote,
		ReviewedBy:          t.ReviewedBy,
		ReviewedAt:          t.ReviewedAt,
		CreatedAt:           t.CreatedAt,
	}
}

// NewTopupReads maps a listing.
func NewTopupReads(ts []*topup.Topup) []*dto.TopupRead {
	out := make([]*dto.TopupRead, 0, len(ts))
	for _, t := range ts {
		out = append(out, NewTopupRead(t))
	}
	return out
}
