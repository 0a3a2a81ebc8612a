package connection

import (
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/dto"
	connectionsvc "github.com/atollmatch/atollmatch/pkg/service/connection"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/atollmatch/atollmatch/webapi/common"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/gofiber/fiber/v2"
)

// CreatedResponse pairs the new request with the charge that paid for it.
type CreatedResponse struct {
	Connection *dto.ConnectionRead `json:"connection"`
	Receipt    *ledgersvc.Receipt  `json:"receipt"`
}

func Routes(app *fiber.App, connectionSvc *connectionsvc.Service, cfg *config.App) {
	app.Post("/connections", middleware.JwtProtected(cfg.Auth.Jwt), Request(connectionSvc))
}

// Request sends a connection request and charges the caller the connect
// cost.
func Request(connectionSvc *connectionsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[dto.ConnectionCreate](c)
		if input == nil {
			return err
		}
		conn, receipt, err := connectionSvc.Request(c.UserContext(), userID, input.ToUserID, input.Message)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't send connection request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Connection requested", CreatedResponse{Connection: conn, Receipt: receipt})
	}
}
