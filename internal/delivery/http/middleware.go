package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/auth"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

const (
	headerRequestID = "X-Request-ID"

	ctxUserKey   = "user"
	ctxClaimsKey = "claims"
)

// requestLogger attaches a request scoped logrus entry to the request
// context and logs every completed request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(headerRequestID, requestID)

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		entry := logger.GetLogger(c.Request.Context()).WithFields(fields)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), entry))

		c.Next()

		entry.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}).Info("request completed")
	}
}

// authenticate resolves the bearer token to a user or aborts with 401.
func authenticate(uc *usecase.AuthUseCase, errs errorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			errs.respond(c, apperror.Authentication("Authorization header is required"))
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			errs.respond(c, apperror.Authentication("Invalid authorization header format. Use 'Bearer <token>'"))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			errs.respond(c, apperror.Authentication("Token is required"))
			return
		}

		user, claims, err := uc.Authenticate(c.Request.Context(), token)
		if err != nil {
			errs.respond(c, err)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxClaimsKey, claims)
		entry := logger.GetLogger(c.Request.Context()).WithField("user_id", user.ID)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), entry))
		c.Next()
	}
}

func currentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if user, ok := v.(*entity.User); ok {
			return user
		}
	}
	return nil
}

func currentUserID(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}

func currentClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ctxClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
