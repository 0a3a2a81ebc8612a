// Package app wires the services of the platform from a set of
// infrastructure dependencies.
package app

import (
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/service/audit"
	"github.com/atollmatch/atollmatch/pkg/service/connection"
	"github.com/atollmatch/atollmatch/pkg/service/ledger"
	"github.com/atollmatch/atollmatch/pkg/service/notification"
	"github.com/atollmatch/atollmatch/pkg/service/post"
	"github.com/atollmatch/atollmatch/pkg/service/pricing"
	"github.com/atollmatch/atollmatch/pkg/service/spend"
	"github.com/atollmatch/atollmatch/pkg/service/topup"
	"github.com/atollmatch/atollmatch/pkg/service/user"
)

type App struct {
	Deps              *config.Deps
	Config            *config.App
	AuditService      *audit.Service
	Notifier          *notification.Notifier
	Dispatcher        *notification.Dispatcher
	LedgerService     *ledger.Service
	PricingService    *pricing.Service
	UserService       *user.Service
	SpendService      *spend.Service
	TopupService      *topup.Service
	PostService       *post.Service
	ConnectionService *connection.Service
}

func New(deps *config.Deps) *App {
	d := *deps
	app := &App{
		Deps:   deps,
		Config: deps.Config,
	}

	app.AuditService = audit.NewService(d)
	app.Notifier = notification.NewNotifier(d)
	app.Dispatcher = notification.NewDispatcher(d)
	app.LedgerService = ledger.NewService(d, app.Notifier, app.AuditService)
	app.PricingService = pricing.NewService(d, app.AuditService)
	app.UserService = user.NewService(d, app.LedgerService, app.AuditService)
	app.SpendService = spend.NewService(
		d,
		app.PricingService,
		app.UserService,
		app.LedgerService,
		app.Notifier,
		app.AuditService,
	)
	app.TopupService = topup.NewService(
		d,
		app.PricingService,
		app.UserService,
		app.LedgerService,
		app.Notifier,
		app.AuditService,
	)
	app.PostService = post.NewService(d, app.SpendService)
	app.ConnectionService = connection.NewService(d, app.SpendService, app.UserService)

	app.setupEventBus()
	return app
}
