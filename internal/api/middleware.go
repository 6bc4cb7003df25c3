package api

import (
	"errors"
	"net/http"
	"strings"

	"timeclock/internal/auth"
	"timeclock/internal/db/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxWorkerID = "worker_id"
	ctxRole     = "role"
)

func AuthRequired(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := tokens.Validate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ctxWorkerID, claims.WorkerID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ctxRole)
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func currentWorker(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxWorkerID)
	workerID, _ := id.(uuid.UUID)
	return workerID
}

// LimitBody caps the request body at n bytes. Reads past the cap fail with
// *http.MaxBytesError.
func LimitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
