package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/internal/guard"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	GinContextKeyOwnerID = "ownerID"
	GinContextKeySession = "session"
)

// ErrorMiddleware renders the last error a handler pushed with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := apperror.ToHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err,
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(status, appErr.ToJSON())
			return
		}
		c.JSON(status, gin.H{"error": apperror.UserMessage(err)})
	}
}

// tokenFromRequest reads the bearer header, then the session cookie.
func tokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token != header {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// AuthMiddleware rejects API requests without a live session.
func AuthMiddleware(sessions *authUC.SessionManager, cookieName string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		sess, err := sessions.Current(c.Request.Context(), token)
		if err != nil {
			log.Warn("Rejected session token",
				zap.Error(err),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}

		c.Set(GinContextKeyOwnerID, sess.UserID)
		c.Set(GinContextKeySession, sess)
		c.Next()
	}
}

// GuardMiddleware applies the page route policy. Any failure to resolve the
// session counts as no session.
func GuardMiddleware(policy guard.Policy, sessions *authUC.SessionManager, cookieName string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hasSession := false
		if token := tokenFromRequest(c, cookieName); token != "" {
			sess, err := sessions.Current(c.Request.Context(), token)
			if err == nil {
				hasSession = true
				c.Set(GinContextKeyOwnerID, sess.UserID)
				c.Set(GinContextKeySession, sess)
			}
		}

		decision := policy.Decide(c.Request.URL.Path, hasSession)
		if decision.Action == guard.Redirect {
			log.Info("Guard redirect",
				zap.String("path", c.Request.URL.Path),
				zap.String("location", decision.Location),
			)
			c.Redirect(http.StatusFound, decision.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetOwnerIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	ownerID, ok := c.Get(GinContextKeyOwnerID)
	if !ok {
		return uuid.Nil, false
	}
	ownerIDUUID, ok := ownerID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return ownerIDUUID, true
}
