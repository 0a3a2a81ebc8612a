// Package webapi provides the HTTP surface of the platform. It is organized
// into sub-packages per area:
//   - wallet: balance, ledger history and pricing
//   - topup: top-up submission and listing
//   - post, connection: coin-costing actions
//   - admin: moderation and economy controls
package webapi

import (
	"errors"
	"strings"

	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/webapi/admin"
	"github.com/atollmatch/atollmatch/webapi/common"
	connectionweb "github.com/atollmatch/atollmatch/webapi/connection"
	postweb "github.com/atollmatch/atollmatch/webapi/post"
	topupweb "github.com/atollmatch/atollmatch/webapi/topup"
	"github.com/atollmatch/atollmatch/webapi/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp initializes Fiber with the platform routes and middleware.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	if rl := a.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          rl.MaxRequests,
			Expiration:   rl.Window,
			KeyGenerator: clientIP,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	if a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("atollmatch API is running")
	})

	wallet.Routes(fiberApp, a.LedgerService, a.PricingService, a.Config)
	topupweb.Routes(fiberApp, a.TopupService, a.Config)
	postweb.Routes(fiberApp, a.PostService, a.Config)
	connectionweb.Routes(fiberApp, a.ConnectionService, a.Config)
	admin.Routes(fiberApp, a)
	return fiberApp
}

// clientIP keys the rate limiter on the first X-Forwarded-For hop, then
// X-Real-IP, then the socket address.
func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
			return strings.TrimSpace(forwardedFor[:commaIndex])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
