package middleware

import (
	"strings"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	"github.com/tubeworks/ms-go-accounts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const AccessTokenCookie = "accessToken"

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.AccessClaims, error)
}

type AuthMiddleware struct {
	accountService accessTokenValidator
}

func NewAuthMiddleware(accountService accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{accountService: accountService}
}

// RequireAuth verifies the access token from the Authorization header or
// the accessToken cookie and populates the caller identity on the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			logrus.Debug("Missing access token")
			return apperror.Unauthorized("unauthorized request")
		}

		claims, err := m.accountService.ValidateAccessToken(tokenString)
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return apperror.Unauthorized("invalid access token")
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_username", claims.Username)

		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
