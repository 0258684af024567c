package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	"github.com/tubeworks/ms-go-accounts/app/middleware"
	"github.com/tubeworks/ms-go-accounts/app/service"

	"github.com/labstack/echo/v4"
)

type fakeValidator struct {
	claims *service.AccessClaims
}

func (v *fakeValidator) ValidateAccessToken(tokenString string) (*service.AccessClaims, error) {
	if tokenString == "valid-token" {
		return v.claims, nil
	}
	return nil, service.ErrInvalidToken
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func runMiddleware(t *testing.T, req *http.Request) (echo.Context, error) {
	t.Helper()

	authMiddleware := middleware.NewAuthMiddleware(&fakeValidator{
		claims: &service.AccessClaims{
			UserID:   "64f000000000000000000001",
			Email:    "ann@x.com",
			Username: "annlee",
		},
	})

	ctx, _ := newContext(req)
	handler := authMiddleware.RequireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return ctx, handler(ctx)
}

func wantUnauthorized(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if appErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", appErr.StatusCode)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := runMiddleware(t, req)
	wantUnauthorized(t, err)
}

func TestRequireAuth_InvalidHeaderFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	_, err := runMiddleware(t, req)
	wantUnauthorized(t, err)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	_, err := runMiddleware(t, req)
	wantUnauthorized(t, err)
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	ctx, err := runMiddleware(t, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got, _ := ctx.Get("user_id").(string); got != "64f000000000000000000001" {
		t.Fatalf("expected user_id in context, got %q", got)
	}
	if got, _ := ctx.Get("user_username").(string); got != "annlee" {
		t.Fatalf("expected username in context, got %q", got)
	}
}

func TestRequireAuth_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: "valid-token"})

	ctx, err := runMiddleware(t, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got, _ := ctx.Get("user_email").(string); got != "ann@x.com" {
		t.Fatalf("expected email in context, got %q", got)
	}
}

func TestRequireAuth_InvalidCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: "bad-token"})
	_, err := runMiddleware(t, req)
	wantUnauthorized(t, err)
}
