package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"eventplanner/internal/auth"
	apperrors "eventplanner/internal/errors"
	"eventplanner/internal/model"
)

const (
	claimsContextKey   = "claims"
	identityContextKey = "identity"
)

// UserResolver loads the user a verified token refers to.
type UserResolver interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Authenticate returns the middleware chain guarding bearer-token routes:
// echo-jwt extracts and verifies the token, then the token id is checked
// against the revocation list and the subject is resolved to a stored user.
// Every failure answers 401.
func Authenticate(tokens *auth.TokenService, revoked auth.TokenStoreInterface, users UserResolver) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization,
		ParseTokenFunc: func(c echo.Context, header string) (interface{}, error) {
			raw, err := auth.TokenFromHeader(header)
			if err != nil {
				return nil, err
			}
			return tokens.Verify(raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized()
		},
	})
	return []echo.MiddlewareFunc{verify, resolveIdentity(revoked, users)}
}

func resolveIdentity(revoked auth.TokenStoreInterface, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*auth.Claims)
			if !ok {
				return unauthorized()
			}
			ctx := c.Request().Context()

			isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("revocation check failed")
			}
			if isRevoked {
				return unauthorized()
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return unauthorized()
			}
			user, err := users.GetUser(ctx, userID)
			if err != nil {
				// A store outage is not the caller's fault.
				if apperrors.MapErrorToHTTP(err).StatusCode == http.StatusInternalServerError {
					return err
				}
				return unauthorized()
			}

			c.Set(identityContextKey, auth.IdentityFromUser(user, claims))
			return next(c)
		}
	}
}

// RequireCapability rejects callers whose role lacks capability with 403.
// It must run after Authenticate.
func RequireCapability(capability model.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return unauthorized()
			}
			if !identity.Can(capability) {
				resp := apperrors.ErrRoleRequired.WithMessage("role %q cannot perform this action", identity.Role)
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: resp.Message,
					Code:  resp.Code,
				})
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the caller resolved by Authenticate.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	identity, ok := c.Get(identityContextKey).(auth.Identity)
	return identity, ok
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: apperrors.ErrUnauthorized.Message,
		Code:  apperrors.ErrUnauthorized.Code,
	})
}
