// Package middleware authenticates requests with JWT bearer tokens and
// guards the admin surface.
package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/atollmatch/atollmatch/pkg/config"
	"github.com/atollmatch/atollmatch/pkg/domain"
	"github.com/atollmatch/atollmatch/webapi/common"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// RoleAdmin is the role claim carried by administrator tokens.
	RoleAdmin = "admin"
	// RoleUser is the role claim carried by member tokens.
	RoleUser = "user"

	claimUserID = "user_id"
	claimRole   = "role"
)

// JwtProtected validates the bearer token and stores it in c.Locals("user").
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return common.ProblemDetailsJSON(c, "Bad Request", err, "Missing or malformed JWT", fiber.StatusBadRequest)
	}
	return common.ProblemDetailsJSON(c, "Unauthorized", err, "Invalid or expired JWT", fiber.StatusUnauthorized)
}

// AdminOnly rejects tokens without the admin role. It must run after
// JwtProtected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := currentClaims(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", err)
		}
		if role, _ := claims[claimRole].(string); role != RoleAdmin {
			return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden, "Administrator role required")
		}
		return c.Next()
	}
}

// CurrentUserID returns the user id carried by the request token.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return uuid.Nil, err
	}
	raw, _ := claims[claimUserID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s claim", domain.ErrUnauthorized, claimUserID)
	}
	return id, nil
}

func currentClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims", domain.ErrUnauthorized)
	}
	return claims, nil
}

// NewToken signs a token for userID with role, valid for cfg.Expiry.
func NewToken(cfg *config.Jwt, userID uuid.UUID, role string) (string, error) {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimUserID: userID.String(),
		claimRole:   role,
		"exp":       time.Now().Add(expiry).Unix(),
	})
	return token.SignedString([]byte(cfg.Secret))
}
