package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
)

// envelope is the body of every response
type envelope struct {
	Status  bool         `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Meta    any          `json:"meta,omitempty"`
	Error   *errorDetail `json:"error,omitempty"`
}

// errorDetail is attached to error responses in development only
type errorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details"`
}

type pageMeta struct {
	Total     int    `json:"total"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Pages     int    `json:"pages"`
	GenreID   string `json:"genre_id,omitempty"`
	GenreName string `json:"genre_name,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Status: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, message string, data any, meta pageMeta) {
	c.JSON(http.StatusOK, envelope{Status: true, Message: message, Data: data, Meta: meta})
}

// errorResponder writes taxonomy errors; detail controls whether the cause
// is exposed to the client.
type errorResponder struct {
	detail bool
}

func (r errorResponder) respond(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal("", err).(*apperror.Error)
	}

	status := apperror.HTTPStatus(appErr.Kind)
	log := logger.GetLogger(c.Request.Context()).WithField("kind", appErr.Kind.String())
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.Debug(appErr.Message)
	}

	body := envelope{Status: false, Message: appErr.Message}
	if r.detail {
		details := appErr.Message
		if cause := errors.Unwrap(appErr); cause != nil {
			details = cause.Error()
		}
		body.Error = &errorDetail{Code: appErr.Kind.String(), Field: appErr.Field, Details: details}
	}
	c.AbortWithStatusJSON(status, body)
}
