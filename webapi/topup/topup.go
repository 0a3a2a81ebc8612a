package topup

import (
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/dto"
	topupsvc "github.com/atollmatch/atollmatch/pkg/service/topup"
	"github.com/atollmatch/atollmatch/webapi/common"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Routes(app *fiber.App, topupSvc *topupsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/topups", protected, Submit(topupSvc))
	app.Get("/topups", protected, List(topupSvc))
	app.Get("/topups/:id", protected, Get(topupSvc))
}

// Submit files a PENDING top-up claim for the caller.
func Submit(topupSvc *topupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[dto.TopupSubmit](c)
		if input == nil {
			return err
		}
		t, err := topupSvc.Submit(c.UserContext(), userID, *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't submit top-up", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Top-up submitted", NewTopupRead(t))
	}
}

// List returns the caller's top-ups, newest first.
func List(topupSvc *topupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		ts, err := topupSvc.ListForUser(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list top-ups", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Top-ups fetched", NewTopupReads(ts))
	}
}

// Get returns one of the caller's top-ups. Other users' top-ups are
// reported as not found.
func Get(topupSvc *topupsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid top-up ID", err, "Top-up ID must be a valid UUID", fiber.StatusBadRequest)
		}
		t, err := topupSvc.Get(c.UserContext(), id)
		if err == nil && t.UserID != userID {
			err = domain.ErrNotFound
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Top-up not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Top-up fetched", NewTopupRead(t))
	}
}
