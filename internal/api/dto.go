package api

import (
	"time"

	"timeclock/internal/db/models"
	"timeclock/internal/shift"

	"github.com/google/uuid"
)

type eventResponse struct {
	ID                uuid.UUID        `json:"id"`
	Kind              models.Kind      `json:"kind"`
	Timestamp         time.Time        `json:"timestamp"`
	Location          *models.Location `json:"location,omitempty"`
	LinkedOpenEventID *uuid.UUID       `json:"linked_open_event_id,omitempty"`
}

type activityResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type mediaResponse struct {
	ID   uuid.UUID        `json:"id"`
	Kind models.MediaKind `json:"kind"`
	URI  string           `json:"uri"`
	Name string           `json:"name,omitempty"`
}

type shiftResponse struct {
	ID              uuid.UUID          `json:"id"`
	WorkerID        uuid.UUID          `json:"worker_id"`
	WorkerName      string             `json:"worker_name,omitempty"`
	Status          shift.Status       `json:"status"`
	ClockIn         eventResponse      `json:"clock_in"`
	ClockOut        *eventResponse     `json:"clock_out,omitempty"`
	DurationSeconds *int64             `json:"duration_seconds"`
	ElapsedSeconds  int64              `json:"elapsed_seconds"`
	Activities      []activityResponse `json:"activities"`
	EntryMedia      []mediaResponse    `json:"entry_media"`
	ExitMedia       []mediaResponse    `json:"exit_media"`
}

type workerResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
	DiscordID *string     `json:"discord_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func toEvent(ev *models.ClockEvent) eventResponse {
	return eventResponse{
		ID:                ev.ID,
		Kind:              ev.Kind,
		Timestamp:         ev.Timestamp,
		Location:          ev.Location,
		LinkedOpenEventID: ev.LinkedOpenEventID,
	}
}

func toShift(s *shift.Shift, now time.Time) shiftResponse {
	resp := shiftResponse{
		ID:             s.ID(),
		WorkerID:       s.WorkerID,
		Status:         s.Status,
		ClockIn:        toEvent(s.OpenEvent),
		ElapsedSeconds: int64(s.Elapsed(now) / time.Second),
		Activities:     make([]activityResponse, 0, len(s.Activities)),
		EntryMedia:     toMedia(s.EntryMedia),
		ExitMedia:      toMedia(s.ExitMedia),
	}
	if s.CloseEvent != nil {
		out := toEvent(s.CloseEvent)
		resp.ClockOut = &out
	}
	if secs, ok := s.DurationSeconds(); ok {
		resp.DurationSeconds = &secs
	}
	for _, a := range s.Activities {
		resp.Activities = append(resp.Activities, activityResponse{
			ID:          a.ID,
			Description: a.Description,
			CreatedAt:   a.CreatedAt,
		})
	}
	return resp
}

func toShifts(shifts []*shift.Shift, now time.Time) []shiftResponse {
	out := make([]shiftResponse, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, toShift(s, now))
	}
	return out
}

func toMedia(list []*models.Media) []mediaResponse {
	out := make([]mediaResponse, 0, len(list))
	for _, m := range list {
		out = append(out, mediaResponse{ID: m.ID, Kind: m.Kind, URI: m.URI, Name: m.OriginalName})
	}
	return out
}

func toWorker(w *models.Worker) workerResponse {
	return workerResponse{
		ID:        w.ID,
		Username:  w.Username,
		FullName:  w.FullName,
		Role:      w.Role,
		DiscordID: w.DiscordID,
		CreatedAt: w.CreatedAt,
	}
}
