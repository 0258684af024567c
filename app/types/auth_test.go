package types_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	"github.com/tubeworks/ms-go-accounts/app/types"

	"github.com/labstack/echo/v4"
)

func bindJSON(t *testing.T, body string) echo.Context {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func wantValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", appErr.StatusCode)
	}
}

func TestRegisterRequest_Valid(t *testing.T) {
	ctx := bindJSON(t, `{"fullName":"Ann Lee","email":"ann@x.com","username":"annlee","password":"p1"}`)

	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err = req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestRegisterRequest_TrimsWhitespace(t *testing.T) {
	ctx := bindJSON(t, `{"fullName":"  Ann Lee ","email":" ann@x.com ","username":" annlee ","password":"p1"}`)

	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err = req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if req.FullName != "Ann Lee" || req.Email != "ann@x.com" || req.Username != "annlee" {
		t.Fatalf("expected trimmed fields: %+v", req)
	}
}

func TestRegisterRequest_MissingFields(t *testing.T) {
	for _, body := range []string{
		`{"email":"ann@x.com","username":"annlee","password":"p1"}`,
		`{"fullName":"Ann Lee","username":"annlee","password":"p1"}`,
		`{"fullName":"Ann Lee","email":"ann@x.com","password":"p1"}`,
		`{"fullName":"Ann Lee","email":"ann@x.com","username":"annlee"}`,
		`{"fullName":"   ","email":"ann@x.com","username":"annlee","password":"p1"}`,
	} {
		ctx := bindJSON(t, body)
		req, err := types.NewRegisterRequestFromContext(ctx)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		wantValidationError(t, req.Validate())
	}
}

func TestRegisterRequest_InvalidEmail(t *testing.T) {
	ctx := bindJSON(t, `{"fullName":"Ann Lee","email":"not-an-email","username":"annlee","password":"p1"}`)

	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	wantValidationError(t, req.Validate())
}

func TestLoginRequest_EitherIdentifier(t *testing.T) {
	for _, body := range []string{
		`{"username":"annlee","password":"p1"}`,
		`{"email":"ann@x.com","password":"p1"}`,
	} {
		ctx := bindJSON(t, body)
		req, err := types.NewLoginRequestFromContext(ctx)
		if err != nil {
			t.Fatalf("bind failed: %v", err)
		}
		if err = req.Validate(); err != nil {
			t.Fatalf("expected valid request, got %v", err)
		}
	}
}

func TestLoginRequest_MissingIdentifier(t *testing.T) {
	ctx := bindJSON(t, `{"password":"p1"}`)

	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	wantValidationError(t, req.Validate())
}

func TestLoginRequest_MissingPassword(t *testing.T) {
	ctx := bindJSON(t, `{"username":"annlee"}`)

	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	wantValidationError(t, req.Validate())
}

func TestRefreshTokenRequest_Bind(t *testing.T) {
	ctx := bindJSON(t, `{"refreshToken":"abc"}`)

	req, err := types.NewRefreshTokenRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if req.RefreshToken != "abc" {
		t.Fatalf("unexpected token: %q", req.RefreshToken)
	}
}
