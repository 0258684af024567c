package controller

import (
	"errors"
	"net/http"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	httpdto "github.com/tubeworks/ms-go-accounts/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorHandler is the single boundary converting every error into the JSON
// error envelope. Stack traces and internal detail never reach the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	statusCode := http.StatusInternalServerError
	message := "internal server error"
	var subErrors []string

	var appErr *apperror.Error
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &appErr):
		statusCode = appErr.StatusCode
		message = appErr.Message
		subErrors = appErr.Errors
		if statusCode == http.StatusInternalServerError {
			logrus.WithError(err).Error("Request failed")
			message = "internal server error"
		}
	case errors.As(err, &httpErr):
		statusCode = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	default:
		logrus.WithError(err).Error("Request failed")
	}

	if writeErr := c.JSON(statusCode, httpdto.NewErrorResponse(statusCode, message, subErrors)); writeErr != nil {
		logrus.WithError(writeErr).Error("Failed to write error response")
	}
}
