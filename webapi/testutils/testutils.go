// Package testutils drives the Fiber app end to end against a SQLite
// database.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/atollmatch/atollmatch/infra/eventbus"
	"github.com/atollmatch/atollmatch/pkg/app"
	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	pkgtestutils "github.com/atollmatch/atollmatch/pkg/testutils"
	"github.com/atollmatch/atollmatch/webapi"
	"github.com/atollmatch/atollmatch/webapi/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// E2ETestSuite wires the real services, a synchronous event bus and the
// HTTP app over a fresh database per test.
type E2ETestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Bus    *eventbus.MemoryEventBus
	App    *app.App
	Fiber  *fiber.App
	Config *config.App
}

func (s *E2ETestSuite) SetupTest() {
	uow, db := pkgtestutils.NewTestUoW(s.T())
	logger := pkgtestutils.DiscardLogger()
	s.DB = db
	s.Bus = eventbus.NewWithMemory(logger)
	s.Config = &config.App{
		Env:       "test",
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{},
		Pricing:   &config.Pricing{RatePolicy: config.RatePolicyApproval},
	}
	s.App = app.New(&config.Deps{
		Uow:      uow,
		EventBus: s.Bus,
		Logger:   logger,
		Config:   s.Config,
	})
	s.Fiber = webapi.SetupApp(s.App)
	pkgtestutils.SeedPricing(s.T(), db, "10", 2, 1)
}

// SeedUser inserts a user with the given status and balance.
func (s *E2ETestSuite) SeedUser(status user.Status, coins int64) uuid.UUID {
	return pkgtestutils.SeedUser(s.T(), s.DB, status, coins)
}

// Token signs a bearer token for userID with role.
func (s *E2ETestSuite) Token(userID uuid.UUID, role string) string {
	token, err := middleware.NewToken(s.Config.Auth.Jwt, userID, role)
	s.Require().NoError(err)
	return token
}

// MakeRequest sends a JSON request through the app.
func (s *E2ETestSuite) MakeRequest(method, path, body, token string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.Fiber.Test(req, -1)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// DecodeData reads a success envelope and unmarshals its data into out.
func (s *E2ETestSuite) DecodeData(resp *http.Response, out any) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	s.Require().NoError(json.Unmarshal(envelope.Data, out))
}

// DecodeProblem reads a problem+json body.
func (s *E2ETestSuite) DecodeProblem(resp *http.Response) map[string]any {
	var pd map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}
