package wallet

import (
	"strconv"

	"github.com/atollmatch/atollmatch/pkg/config"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	pricingsvc "github.com/atollmatch/atollmatch/pkg/service/pricing"
	"github.com/atollmatch/atollmatch/webapi/common"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/gofiber/fiber/v2"
)

// BalanceResponse is the body of GET /wallet/balance.
type BalanceResponse struct {
	Coins int64 `json:"coins"`
}

func Routes(app *fiber.App, ledgerSvc *ledgersvc.Service, pricingSvc *pricingsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/wallet/balance", protected, Balance(ledgerSvc))
	app.Get("/wallet/ledger", protected, History(ledgerSvc))
	app.Get("/pricing", protected, Pricing(pricingSvc))
}

// Balance returns the caller's stored coin balance.
func Balance(ledgerSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		coins, err := ledgerSvc.Balance(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't read balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceResponse{Coins: coins})
	}
}

// History returns one newest-first page of the caller's ledger. The
// cursor is the next_cursor of the previous page.
func History(ledgerSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		var cursor int64
		if raw := c.Query("cursor"); raw != "" {
			cursor, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || cursor < 0 {
				return common.ProblemDetailsJSON(c, "Invalid cursor", err, "cursor must be a non-negative integer", fiber.StatusBadRequest)
			}
		}
		page, err := ledgerSvc.History(c.UserContext(), userID, c.QueryInt("limit", 0), cursor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't read ledger", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Ledger fetched", page)
	}
}

// Pricing returns the coin price and action costs in force.
func Pricing(pricingSvc *pricingsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := pricingSvc.GetPricing(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't read pricing", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Pricing fetched", p)
	}
}
