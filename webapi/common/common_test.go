package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient funds", &ledger.InsufficientFundsError{Balance: 1, Required: 2}, fiber.StatusUnprocessableEntity},
		{"not approved", &user.NotApprovedError{Status: user.StatusPending}, fiber.StatusForbidden},
		{"invalid state", &topup.InvalidStateError{Status: topup.StatusApproved}, fiber.StatusConflict},
		{"already exists", fmt.Errorf("refund: %w", domain.ErrAlreadyExists), fiber.StatusConflict},
		{"not found", domain.ErrNotFound, fiber.StatusNotFound},
		{"top-up not found", topup.ErrTopupNotFound, fiber.StatusNotFound},
		{"validation", fmt.Errorf("%w: bad", domain.ErrValidation), fiber.StatusBadRequest},
		{"zero delta", ledger.ErrZeroDelta, fiber.StatusBadRequest},
		{"below coin price", topup.ErrAmountBelowCoinPrice, fiber.StatusBadRequest},
		{"amount too large", topup.ErrAmountTooLarge, fiber.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, fiber.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, fiber.StatusForbidden},
		{"storage", domain.NewStorageError("ledger.append", errors.New("disk full")), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorToStatusCode(tt.err))
		})
	}
}

func TestProblemDetailsJSON_InsufficientFunds(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Couldn't create post", &ledger.InsufficientFundsError{
			UserID:   uuid.New(),
			Balance:  1,
			Required: 3,
		})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))

	var pd struct {
		ProblemDetails
		Errors map[string]int64 `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "Couldn't create post", pd.Title)
	assert.EqualValues(t, 3, pd.Errors["required"])
	assert.EqualValues(t, 1, pd.Errors["balance"])
	assert.EqualValues(t, 2, pd.Errors["shortfall"])
}

func TestProblemDetailsJSON_ExplicitStatusAndDetail(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Invalid top-up ID", errors.New("bad uuid"), "ID must be a UUID", fiber.StatusBadRequest)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, fiber.StatusBadRequest, pd.Status)
	assert.Equal(t, "ID must be a UUID", pd.Detail)
	assert.Equal(t, "/", pd.Instance)
}

type sample struct {
	Title string `json:"title" validate:"required,min=3"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[sample](c)
		if in == nil {
			return err
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "ok", in)
	})

	post := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, post(`{"title":"hello"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"title":"hi"}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"title":`))
}
