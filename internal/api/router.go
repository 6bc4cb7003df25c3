// Package api exposes clock actions and shift views over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"timeclock/internal/auth"
	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkerDirectory is the worker account store.
type WorkerDirectory interface {
	CreateWorker(ctx context.Context, worker *models.Worker) error
	GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	GetWorkerByUsername(ctx context.Context, username string) (*models.Worker, error)
	ListWorkers(ctx context.Context) ([]*models.Worker, error)
	CountWorkers(ctx context.Context) (int64, error)
}

// DefaultMaxBodyBytes bounds clock request bodies, which may carry base64
// photos and videos.
const DefaultMaxBodyBytes = 64 << 20

type Deps struct {
	Guard     *shift.Guard
	Shifts    *shift.Service
	Workers   WorkerDirectory
	Tokens    *auth.Issuer
	UploadDir string
	Location  *time.Location
	Logger    *slog.Logger
	Now       func() time.Time

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

type Handler struct {
	guard   *shift.Guard
	shifts  *shift.Service
	workers WorkerDirectory
	tokens  *auth.Issuer
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		guard:   d.Guard,
		shifts:  d.Shifts,
		workers: d.Workers,
		tokens:  d.Tokens,
		loc:     d.Location,
		logger:  d.Logger,
		now:     d.Now,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	h := NewHandler(d)

	r.GET("/health", Health)
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", h.Login)
	}

	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	user := r.Group("/api/v1")
	user.Use(AuthRequired(d.Tokens))
	{
		user.POST("/clock/in", LimitBody(maxBody), h.ClockIn)
		user.POST("/clock/out", LimitBody(maxBody), h.ClockOut)
		user.GET("/clock/open", h.OpenShift)
		user.GET("/shifts", h.MyShifts)
		user.GET("/shifts/export.pdf", h.ExportPDF)
		user.GET("/shifts/:id", h.MyShift)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(AuthRequired(d.Tokens), RequireAdmin())
	{
		admin.GET("/active", h.ActiveShifts)
		admin.GET("/stats", h.Stats)
		admin.GET("/workers", h.ListWorkers)
		admin.POST("/workers", h.CreateWorker)
		admin.GET("/workers/:id/shifts", h.WorkerShifts)
		admin.GET("/workers/:id/shifts/:shift", h.WorkerShift)
		admin.GET("/report.xlsx", h.ExportXLSX)
	}

	return r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "timeclock is running",
	})
}
