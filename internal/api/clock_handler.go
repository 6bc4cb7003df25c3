package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"timeclock/internal/db/models"
	"timeclock/internal/media"
	"timeclock/internal/shift"

	"github.com/gin-gonic/gin"
)

type mediaRequest struct {
	Kind string `json:"kind" binding:"required"`
	Data string `json:"data" binding:"required"`
	Name string `json:"name"`
}

type clockRequest struct {
	Latitude   *float64       `json:"latitude"`
	Longitude  *float64       `json:"longitude"`
	Address    *string        `json:"address"`
	Media      []mediaRequest `json:"media" binding:"dive"`
	Activities []string       `json:"activities"`
}

func (r *clockRequest) payload() (shift.Payload, error) {
	p := shift.Payload{Activities: r.Activities}
	if r.Latitude != nil || r.Longitude != nil || r.Address != nil {
		p.Location = &models.Location{Latitude: r.Latitude, Longitude: r.Longitude, Address: r.Address}
	}
	for i, m := range r.Media {
		kind := models.MediaKind(strings.ToUpper(m.Kind))
		if !kind.Valid() {
			return shift.Payload{}, fmt.Errorf("media[%d]: unknown kind %q", i, m.Kind)
		}
		data, err := media.DecodeDataURL(m.Data)
		if err != nil {
			return shift.Payload{}, fmt.Errorf("media[%d]: %w", i, err)
		}
		p.Media = append(p.Media, shift.MediaUpload{Kind: kind, Data: data, Name: m.Name})
	}
	return p, nil
}

func (h *Handler) ClockIn(c *gin.Context)  { h.clock(c, models.KindIn) }
func (h *Handler) ClockOut(c *gin.Context) { h.clock(c, models.KindOut) }

func (h *Handler) clock(c *gin.Context, kind models.Kind) {
	var req clockRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body", "detail": err.Error()})
		return
	}
	payload, err := req.payload()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media", "detail": err.Error()})
		return
	}

	event, err := h.guard.Submit(c.Request.Context(), currentWorker(c), kind, payload)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "ok",
		"data":   toEvent(event),
	})
}

// OpenShift returns the caller's open shift, or null when off duty.
func (h *Handler) OpenShift(c *gin.Context) {
	open, err := h.shifts.GetCurrentOpenShift(c.Request.Context(), currentWorker(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if open == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": toShift(open, h.now())})
}

// fail maps domain errors onto status codes. Rejections are an expected
// outcome and are not logged.
func (h *Handler) fail(c *gin.Context, err error) {
	if rej, ok := shift.AsRejection(err); ok {
		body := gin.H{"error": rej.Reason}
		if rej.OpenEventID != nil {
			body["open_event_id"] = rej.OpenEventID
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	switch {
	case errors.Is(err, shift.ErrUnknownWorker):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown worker"})
	case errors.Is(err, shift.ErrShiftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "shift not found"})
	case errors.Is(err, shift.ErrInvalidDateRange), errors.Is(err, shift.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
