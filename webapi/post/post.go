package post

import (
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/dto"
	ledgersvc "github.com/atollmatch/atollmatch/pkg/service/ledger"
	postsvc "github.com/atollmatch/atollmatch/pkg/service/post"
	"github.com/atollmatch/atollmatch/webapi/common"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/gofiber/fiber/v2"
)

// CreatedResponse pairs the new post with the charge that paid for it.
type CreatedResponse struct {
	Post    *dto.PostRead      `json:"post"`
	Receipt *ledgersvc.Receipt `json:"receipt"`
}

func Routes(app *fiber.App, postSvc *postsvc.Service, cfg *config.App) {
	app.Post("/posts", middleware.JwtProtected(cfg.Auth.Jwt), Create(postSvc))
}

// Create publishes a post and charges the caller the post cost.
func Create(postSvc *postsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := middleware.CurrentUserID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		input, err := common.BindAndValidate[dto.PostCreate](c)
		if input == nil {
			return err
		}
		p, receipt, err := postSvc.Create(c.UserContext(), userID, *input)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create post", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Post created", CreatedResponse{Post: p, Receipt: receipt})
	}
}
