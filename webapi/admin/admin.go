// Package admin exposes the moderation and economy controls reserved for
// administrators.
package admin

import (
	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/atollmatch/atollmatch/pkg/dto"
	"github.com/atollmatch/atollmatch/webapi/common"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	topupweb "github.com/atollmatch/atollmatch/webapi/topup"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Routes(fiberApp *fiber.App, a *app.App) {
	g := fiberApp.Group("/admin", middleware.JwtProtected(a.Config.Auth.Jwt), middleware.AdminOnly())

	g.Get("/topups", ListTopups(a))
	g.Post("/topups/:id/approve", ApproveTopup(a))
	g.Post("/topups/:id/reject", RejectTopup(a))
	g.Put("/pricing", UpdatePricing(a))
	g.Post("/users", CreateUser(a))
	g.Post("/users/:id/coins", AdjustCoins(a))
	g.Post("/users/:id/status", SetUserStatus(a))
	g.Get("/users/:id/reconcile", Reconcile(a))
	g.Post("/refunds", Refund(a))
	g.Get("/audit", ListAudit(a))
}

// ListTopups lists top-ups by status; PENDING when no status is given.
func ListTopups(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := topup.Status(c.Query("status", string(topup.StatusPending)))
		ts, err := a.TopupService.ListByStatus(c.UserContext(), status)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list top-ups", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Top-ups fetched", topupweb.NewTopupReads(ts))
	}
}

// ApproveTopup credits the coins of a PENDING top-up.
func ApproveTopup(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, topupID, decision, ok, err := reviewInput(c)
		if !ok {
			return err
		}
		t, err := a.TopupService.Approve(c.UserContext(), topupID, adminID, decision.Note)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't approve top-up", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Top-up approved", topupweb.NewTopupRead(t))
	}
}

// RejectTopup closes a PENDING top-up without credit.
func RejectTopup(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, topupID, decision, ok, err := reviewInput(c)
		if !ok {
			return err
		}
		t, err := a.TopupService.Reject(c.UserContext(), topupID, adminID, decision.Note)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't reject top-up", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Top-up rejected", topupweb.NewTopupRead(t))
	}
}

// UpdatePricing changes the coin price or action costs.
func UpdatePricing(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[dto.PricingUpdate](c)
		if input == nil {
			return err
		}
		p, err := a.PricingService.Update(c.UserContext(), adminID, *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update pricing", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Pricing updated", p)
	}
}

// CreateUser registers a user, optionally with opening coins.
func CreateUser(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[dto.UserCreate](c)
		if input == nil {
			return err
		}
		u, err := a.UserService.Create(c.UserContext(), *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "User created", u)
	}
}

// AdjustCoins applies a manual credit or debit.
func AdjustCoins(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, userID, ok, err := adminAndUser(c)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[dto.CoinAdjustment](c)
		if input == nil {
			return err
		}
		receipt, err := a.LedgerService.Adjust(c.UserContext(), adminID, userID, *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't adjust coins", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Coins adjusted", receipt)
	}
}

// SetUserStatus moderates a profile.
func SetUserStatus(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, userID, ok, err := adminAndUser(c)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[dto.UserStatusUpdate](c)
		if input == nil {
			return err
		}
		u, err := a.UserService.SetStatus(c.UserContext(), adminID, userID, user.Status(input.Status), input.Note)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't update user status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User status updated", u)
	}
}

// Reconcile compares a user's stored balance with the ledger sum.
func Reconcile(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid user ID", err, "User ID must be a valid UUID", fiber.StatusBadRequest)
		}
		rec, err := a.LedgerService.Reconcile(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't reconcile", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Reconciled", rec)
	}
}

// Refund reverses the charge recorded for a post or connection request.
func Refund(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[dto.RefundRequest](c)
		if input == nil {
			return err
		}
		receipt, err := a.SpendService.Refund(c.UserContext(), adminID, input.RefTable, input.RefID, input.Note)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't refund", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Refunded", receipt)
	}
}

// ListAudit returns audit rows, newest first.
func ListAudit(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := a.AuditService.List(c.UserContext(), dto.AuditFilter{
			Entity:   c.Query("entity"),
			EntityID: c.Query("entity_id"),
			Limit:    c.QueryInt("limit", 0),
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list audit log", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Audit log fetched", rows)
	}
}

// reviewInput reads the admin, the top-up id and the optional decision
// body. When ok is false the problem response is already written.
func reviewInput(c *fiber.Ctx) (adminID, topupID uuid.UUID, decision dto.TopupDecision, ok bool, err error) {
	adminID, err = middleware.CurrentUserID(c)
	if err != nil {
		return adminID, topupID, decision, false, common.ProblemDetailsJSON(c, "Unauthorized", err)
	}
	topupID, err = uuid.Parse(c.Params("id"))
	if err != nil {
		return adminID, topupID, decision, false,
			common.ProblemDetailsJSON(c, "Invalid top-up ID", err, "Top-up ID must be a valid UUID", fiber.StatusBadRequest)
	}
	if len(c.Body()) == 0 {
		return adminID, topupID, decision, true, nil
	}
	input, err := common.BindAndValidate[dto.TopupDecision](c)
	if input == nil {
		return adminID, topupID, decision, false, err
	}
	return adminID, topupID, *input, true, nil
}

func adminAndUser(c *fiber.Ctx) (adminID, userID uuid.UUID, ok bool, err error) {
	adminID, err = middleware.CurrentUserID(c)
	if err != nil {
		return adminID, userID, false, common.ProblemDetailsJSON(c, "Unauthorized", err)
	}
	userID, err = uuid.Parse(c.Params("id"))
	if err != nil {
		return adminID, userID, false,
			common.ProblemDetailsJSON(c, "Invalid user ID", err, "User ID must be a valid UUID", fiber.StatusBadRequest)
	}
	return adminID, userID, true, nil
}
