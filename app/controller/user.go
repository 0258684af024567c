package controller

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	httpdto "github.com/tubeworks/ms-go-accounts/app/dto/http"
	"github.com/tubeworks/ms-go-accounts/app/middleware"
	"github.com/tubeworks/ms-go-accounts/app/service"
	"github.com/tubeworks/ms-go-accounts/app/types"
	"github.com/tubeworks/ms-go-accounts/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const refreshTokenCookie = "refreshToken"

type UserController struct {
	accountService service.AccountService
	cfg            *config.Config
}

func NewUserController(accountService service.AccountService, cfg *config.Config) *UserController {
	return &UserController{accountService: accountService, cfg: cfg}
}

func (c *UserController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return apperror.Validation("invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return err
	}

	avatarPath, cleanupAvatar, err := stageFormFile(ctx, "avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			logrus.WithField("username", req.Username).Debug("Register missing avatar image")
			return apperror.Validation("avatar image is required")
		}
		logrus.WithError(err).WithField("username", req.Username).Error("Failed to stage avatar upload")
		return apperror.Internal("failed to process avatar image")
	}
	defer cleanupAvatar()

	coverImagePath := ""
	if path, cleanup, coverErr := stageFormFile(ctx, "coverImage"); coverErr == nil {
		coverImagePath = path
		defer cleanup()
	}

	logrus.WithFields(logrus.Fields{
		"username": req.Username,
		"email":    req.Email,
	}).Info("Register request received")

	user, err := c.accountService.Register(ctx.Request().Context(), service.RegisterInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverImagePath,
	})
	if err != nil {
		logrus.WithError(err).WithField("username", req.Username).Warn("Register failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID.Hex(),
		"username": user.Username,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated,
		httpdto.NewResponse(http.StatusCreated, "user registered successfully", user))
}

func (c *UserController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return apperror.Validation("invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Login validation failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"username": req.Username,
		"email":    req.Email,
	}).Info("Login request received")

	user, pair, err := c.accountService.Login(ctx.Request().Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		logrus.WithError(err).WithField("username", req.Username).Warn("Login failed")
		return err
	}

	c.setTokenCookies(ctx, pair)

	logrus.WithField("user_id", user.ID.Hex()).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.NewResponse(http.StatusOK, "user logged in successfully",
		&httpdto.LoginData{
			User:         user,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}))
}

func (c *UserController) Logout(ctx echo.Context) error {
	userIDHex, ok := ctx.Get("user_id").(string)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return apperror.Unauthorized("unauthorized request")
	}

	userID, err := bson.ObjectIDFromHex(userIDHex)
	if err != nil {
		logrus.WithField("user_id", userIDHex).Warn("Logout failed: malformed user_id")
		return apperror.Unauthorized("unauthorized request")
	}

	logrus.WithField("user_id", userIDHex).Info("Logout request received")
	if err = c.accountService.Logout(ctx.Request().Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userIDHex).Error("Logout failed")
		return err
	}

	c.clearTokenCookies(ctx)

	logrus.WithField("user_id", userIDHex).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.NewResponse(http.StatusOK, "user logged out successfully", nil))
}

func (c *UserController) RefreshToken(ctx echo.Context) error {
	// Cookie takes precedence over the request body.
	incomingToken := ""
	if cookie, err := ctx.Cookie(refreshTokenCookie); err == nil {
		incomingToken = cookie.Value
	}
	if incomingToken == "" {
		req, err := types.NewRefreshTokenRequestFromContext(ctx)
		if err != nil {
			logrus.WithError(err).Debug("Failed to bind refresh token request")
			return apperror.Validation("invalid request body")
		}
		incomingToken = req.RefreshToken
	}

	logrus.Info("Refresh token request received")
	pair, err := c.accountService.Refresh(ctx.Request().Context(), incomingToken)
	if err != nil {
		logrus.WithError(err).Warn("Refresh token failed")
		return err
	}

	c.setTokenCookies(ctx, pair)

	logrus.Info("Refresh token successful")
	return ctx.JSON(http.StatusOK, httpdto.NewResponse(http.StatusOK, "access token refreshed",
		&httpdto.RefreshTokenData{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}))
}

func (c *UserController) setTokenCookies(ctx echo.Context, pair *service.TokenPair) {
	ctx.SetCookie(&http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(c.cfg.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
	})
	ctx.SetCookie(&http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(c.cfg.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
	})
}

func (c *UserController) clearTokenCookies(ctx echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		ctx.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.cfg.CookieSecure,
		})
	}
}

// stageFormFile copies an uploaded multipart file to a temp path so the
// uploader can read it from disk. The cleanup func removes the temp file.
func stageFormFile(ctx echo.Context, field string) (string, func(), error) {
	fileHeader, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	path, err := copyToTemp(src, fileHeader.Filename)
	if err != nil {
		return "", nil, err
	}

	return path, func() { _ = os.Remove(path) }, nil
}

func copyToTemp(src multipart.File, filename string) (string, error) {
	dst, err := os.CreateTemp("", "upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
