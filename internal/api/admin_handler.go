package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"timeclock/internal/auth"
	"timeclock/internal/db/models"
	"timeclock/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createWorkerRequest struct {
	Username  string  `json:"username" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	DiscordID *string `json:"discord_id"`
}

// ActiveShifts lists everyone currently on shift, with their names.
func (h *Handler) ActiveShifts(c *gin.Context) {
	ctx := c.Request.Context()
	open, err := h.shifts.GetAllCurrentlyOpenShifts(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	workers, err := h.workers.ListWorkers(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	names := make(map[uuid.UUID]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.DisplayName()
	}

	now := h.now()
	data := make([]shiftResponse, 0, len(open))
	for _, s := range open {
		resp := toShift(s, now)
		resp.WorkerName = names[s.WorkerID]
		data = append(data, resp)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": data})
}

func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	open, err := h.shifts.GetAllCurrentlyOpenShifts(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.workers.CountWorkers(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": len(open), "total": total})
}

func (h *Handler) ListWorkers(c *gin.Context) {
	workers, err := h.workers.ListWorkers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := make([]workerResponse, 0, len(workers))
	for _, w := range workers {
		data = append(data, toWorker(w))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": data})
}

func (h *Handler) CreateWorker(c *gin.Context) {
	var req createWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown role %q", req.Role)})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	worker := &models.Worker{
		Username:     strings.TrimSpace(req.Username),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Role:         role,
		DiscordID:    req.DiscordID,
	}
	if err := h.workers.CreateWorker(c.Request.Context(), worker); err != nil {
		if errors.Is(err, models.ErrDuplicateWorker) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or discord id already taken"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok", "data": toWorker(worker)})
}

func (h *Handler) WorkerShifts(c *gin.Context) {
	id, ok := h.workerParam(c)
	if !ok {
		return
	}
	h.history(c, id)
}

func (h *Handler) WorkerShift(c *gin.Context) {
	id, ok := h.workerParam(c)
	if !ok {
		return
	}
	h.detail(c, id, c.Param("shift"))
}

func (h *Handler) workerParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker id"})
		return uuid.Nil, false
	}
	return id, true
}

// ExportXLSX writes every worker's shifts in the range to one workbook.
func (h *Handler) ExportXLSX(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	workers, err := h.workers.ListWorkers(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	entries := make([]report.WorkerShifts, 0, len(workers))
	for _, w := range workers {
		shifts, err := h.shifts.GetShiftHistory(ctx, w.ID, r)
		if err != nil {
			h.fail(c, err)
			return
		}
		entries = append(entries, report.WorkerShifts{Worker: w, Shifts: shifts})
	}

	book, err := report.TeamWorkbook(entries, h.loc, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shifts.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, book)
}
