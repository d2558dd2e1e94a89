package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-keeper/internal/domain"
	"task-keeper/internal/service"
)

const (
	requestIDKey  = "request_id"
	requestHeader = "X-Request-ID"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestHeader, id)

		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Info("http request")
	}
}

// requireToken admits only requests carrying a valid bearer token for an
// existing principal.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.guard.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			h.fail(c, err)
			return
		}
		h.attachPrincipal(c, user)
		c.Next()
	}
}

// requireCredentials authenticates the email and password in the JSON body.
// It is used only in front of login; it never looks at bearer tokens.
func (h *Handler) requireCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.attachPrincipal(c, user)
		c.Next()
	}
}

func (h *Handler) attachPrincipal(c *gin.Context, user *domain.User) {
	c.Request = c.Request.WithContext(service.WithPrincipal(c.Request.Context(), user))
}

// principal returns the user attached by one of the guards. Handlers behind a
// guard can rely on it being present.
func principal(c *gin.Context) (*domain.User, bool) {
	return service.PrincipalFrom(c.Request.Context())
}
