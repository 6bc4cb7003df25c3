package api

import (
	"net/http"
	"strings"

	"timeclock/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}

	worker, err := h.workers.GetWorkerByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.fail(c, err)
		return
	}
	if worker == nil || !auth.VerifyPassword(req.Password, worker.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expires, err := h.tokens.Issue(worker)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires,
		"worker":     toWorker(worker),
	})
}
