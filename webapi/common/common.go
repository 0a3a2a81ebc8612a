// Package common holds the response envelopes, request binding and error
// mapping shared by every HTTP handler.
package common

import (
	"errors"

	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/pkg/domain/audit"
	"github.com/atollmatch/atollmatch/pkg/domain/ledger"
	"github.com/atollmatch/atollmatch/pkg/domain/pricing"
	"github.com/atollmatch/atollmatch/pkg/domain/topup"
	"github.com/atollmatch/atollmatch/pkg/domain/user"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

var validate = validator.New()

// SuccessResponseJSON writes a Response envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes an application/problem+json response.
//
// The status is derived from err with ErrorToStatusCode unless an int is
// passed in args; a string in args replaces the detail taken from err.
// A nil err without an explicit status yields 400.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := fiber.StatusBadRequest
	pd := ProblemDetails{Type: "about:blank", Title: title, Instance: c.OriginalURL()}
	if err != nil {
		status = ErrorToStatusCode(err)
		pd.Detail = err.Error()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		var ife *ledger.InsufficientFundsError
		if errors.As(err, &ife) {
			pd.Errors = fiber.Map{
				"required":  ife.Required,
				"balance":   ife.Balance,
				"shortfall": ife.Shortfall(),
			}
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			pd.Errors = fields
		}
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			status = v
		case string:
			pd.Detail = v
		}
	}
	pd.Status = status
	return c.Status(status).JSON(pd, "application/problem+json")
}

// BindAndValidate parses the request body into T and validates it. On
// failure the problem response is already written and T is nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
	}
	return &input, nil
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, user.ErrNotApproved):
		return fiber.StatusForbidden
	case errors.Is(err, topup.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, topup.ErrTopupNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, user.ErrUserUnauthorized),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, audit.ErrMissingAdmin):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case isValidation(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		ledger.ErrZeroDelta,
		ledger.ErrInvalidReason,
		ledger.ErrMissingUser,
		ledger.ErrIncompleteRef,
		topup.ErrInvalidAmount,
		topup.ErrMissingSlip,
		topup.ErrAmountBelowCoinPrice,
		topup.ErrAmountTooLarge,
		pricing.ErrUnknownAction,
		pricing.ErrInvalidPrice,
		pricing.ErrNegativeCost,
		user.ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
