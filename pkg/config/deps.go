package config

import (
	"log/slog"

	"github.com/atollmatch/atollmatch/pkg/eventbus"
	"github.com/atollmatch/atollmatch/pkg/repository"
)

// Sender delivers a rendered text message to a chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Sender   Sender
	Logger   *slog.Logger
	Config   *App
}
