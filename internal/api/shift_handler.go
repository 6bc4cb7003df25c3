package api

import (
	"fmt"
	"net/http"

	"timeclock/internal/report"
	"timeclock/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) dateRange(c *gin.Context) (shift.DateRange, bool) {
	r, err := shift.ParseDateRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return shift.DateRange{}, false
	}
	return r, true
}

func (h *Handler) MyShifts(c *gin.Context) {
	h.history(c, currentWorker(c))
}

func (h *Handler) MyShift(c *gin.Context) {
	h.detail(c, currentWorker(c), c.Param("id"))
}

func (h *Handler) history(c *gin.Context, workerID uuid.UUID) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	shifts, err := h.shifts.GetShiftHistory(c.Request.Context(), workerID, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"range":  r.String(),
		"data":   toShifts(shifts, h.now()),
	})
}

func (h *Handler) detail(c *gin.Context, workerID uuid.UUID, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shift id"})
		return
	}
	s, err := h.shifts.GetShift(c.Request.Context(), workerID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": toShift(s, h.now())})
}

// ExportPDF renders the caller's history for the requested range.
func (h *Handler) ExportPDF(c *gin.Context) {
	r, ok := h.dateRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	workerID := currentWorker(c)

	worker, err := h.workers.GetWorker(ctx, workerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if worker == nil {
		h.fail(c, shift.ErrUnknownWorker)
		return
	}
	shifts, err := h.shifts.GetShiftHistory(ctx, workerID, r)
	if err != nil {
		h.fail(c, err)
		return
	}

	doc, err := report.WorkerPDF(worker, shifts, r, h.loc, h.now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "shifts-"+worker.Username+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}
