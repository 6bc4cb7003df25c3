package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timeclock/internal/auth"
	"timeclock/internal/db/memdb"
	"timeclock/internal/db/models"
	"timeclock/internal/media"
	"timeclock/internal/shift"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type testServer struct {
	router *gin.Engine
	db     *memdb.DB
	tokens *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the router dependencies before the
// router is built.
func newTestServerWith(t *testing.T, adjust func(*Deps)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memdb.New()
	files, err := media.NewFileStore(t.TempDir(), "/uploads", db)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	tokens := auth.NewIssuer("test-secret", time.Hour)

	deps := Deps{
		Guard:     shift.NewGuard(shift.GuardConfig{Store: db, Workers: db, Attachments: files, Notes: db, Logger: logger}),
		Shifts:    shift.NewService(db, db, logger),
		Workers:   db,
		Tokens:    tokens,
		UploadDir: files.Dir(),
		Logger:    logger,
	}
	if adjust != nil {
		adjust(&deps)
	}
	router := NewRouter(deps)
	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) addWorker(t *testing.T, username string, role models.Role) (*models.Worker, string) {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	w := &models.Worker{Username: username, FullName: username + " test", PasswordHash: hash, Role: role}
	if err := s.db.CreateWorker(context.Background(), w); err != nil {
		t.Fatalf("create worker: %v", err)
	}
	token, _, err := s.tokens.Issue(w)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return w, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.addWorker(t, "ana", models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ANA", "password": "password123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decode(t, rec)["token"].(string)
	if _, err := s.tokens.Validate(token); err != nil {
		t.Fatalf("login returned an invalid token: %v", err)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ana", "password": "nope-nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodPost, "/api/v1/clock/in", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/v1/clock/in", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
}

func TestClockFlow(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addWorker(t, "ana", models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/v1/clock/in", token, gin.H{
		"latitude":   -23.55,
		"longitude":  -46.63,
		"activities": []string{"opening"},
		"media":      []gin.H{{"kind": "photo", "data": "data:image/jpeg;base64,/9j/4AAQ"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("clock in returned %d: %s", rec.Code, rec.Body.String())
	}
	inID := decode(t, rec)["data"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/clock/in", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second clock in, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["error"] != string(shift.ReasonAlreadyClockedIn) || body["open_event_id"] != inID {
		t.Fatalf("unexpected rejection body %v", body)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/clock/open", token, nil)
	open := decode(t, rec)["data"].(map[string]any)
	if open["id"] != inID || open["status"] != string(shift.StatusOpen) {
		t.Fatalf("unexpected open shift %v", open)
	}
	if media := open["entry_media"].([]any); len(media) != 1 {
		t.Fatalf("expected entry photo, got %v", open["entry_media"])
	}

	if rec := s.do(t, http.MethodPost, "/api/v1/clock/out", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("clock out returned %d: %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/api/v1/clock/out", token, nil)
	if rec.Code != http.StatusConflict || decode(t, rec)["error"] != string(shift.ReasonNotClockedIn) {
		t.Fatalf("expected NOT_CLOCKED_IN, got %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/shifts", token, nil)
	shifts := decode(t, rec)["data"].([]any)
	if len(shifts) != 1 {
		t.Fatalf("expected one shift, got %d", len(shifts))
	}
	closed := shifts[0].(map[string]any)
	if closed["status"] != string(shift.StatusClosed) || closed["duration_seconds"] == nil {
		t.Fatalf("unexpected closed shift %v", closed)
	}
	if acts := closed["activities"].([]any); len(acts) != 1 {
		t.Fatalf("expected the clock-in note, got %v", closed["activities"])
	}

	if rec := s.do(t, http.MethodGet, "/api/v1/shifts/"+inID, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("shift detail returned %d", rec.Code)
	}
}

func TestClockInRejectsBadMedia(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addWorker(t, "ana", models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/v1/clock/in", token, gin.H{
		"media": []gin.H{{"kind": "audio", "data": "aGVsbG8="}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	events, _ := s.db.FindAllDanglingInEvents(context.Background())
	if len(events) != 0 {
		t.Fatalf("a rejected request must not clock in")
	}
}

func TestShiftsBadRange(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addWorker(t, "ana", models.RoleUser)
	if rec := s.do(t, http.MethodGet, "/api/v1/shifts?from=2024-03-05&to=2024-03-01", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/v1/shifts/not-a-uuid", token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	ana, anaToken := s.addWorker(t, "ana", models.RoleUser)
	_, adminToken := s.addWorker(t, "boss", models.RoleAdmin)

	if rec := s.do(t, http.MethodGet, "/api/v1/admin/active", anaToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	s.do(t, http.MethodPost, "/api/v1/clock/in", anaToken, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/admin/active", adminToken, nil)
	active := decode(t, rec)["data"].([]any)
	if len(active) != 1 || active[0].(map[string]any)["worker_name"] != "ana test" {
		t.Fatalf("unexpected active list %v", active)
	}

	stats := decode(t, s.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil))
	if stats["active"] != float64(1) || stats["total"] != float64(2) {
		t.Fatalf("unexpected stats %v", stats)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/admin/workers/"+ana.ID.String()+"/shifts", adminToken, nil)
	if shifts := decode(t, rec)["data"].([]any); len(shifts) != 1 {
		t.Fatalf("expected ana's open shift, got %v", shifts)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/admin/report.xlsx?from=2000-01-01", adminToken, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("xlsx export returned %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestAdminCreateWorker(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.addWorker(t, "boss", models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/v1/admin/workers", adminToken, gin.H{
		"username": "carla", "password": "longenough", "full_name": "Carla Dias",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)["data"].(map[string]any)
	if created["role"] != string(models.RoleUser) {
		t.Fatalf("expected default USER role, got %v", created["role"])
	}
	if _, leaked := created["password_hash"]; leaked {
		t.Fatalf("password hash must not be returned")
	}

	rec = s.do(t, http.MethodPost, "/api/v1/admin/workers", adminToken, gin.H{"username": "carla", "password": "longenough"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/admin/workers", adminToken, gin.H{"username": "dan", "password": "short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/admin/workers", adminToken, gin.H{"username": "dan", "password": "longenough", "role": "king"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/admin/workers", adminToken, nil)
	if workers := decode(t, rec)["data"].([]any); len(workers) != 2 {
		t.Fatalf("expected 2 workers, got %d", len(workers))
	}
}

func TestExportPDF(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addWorker(t, "ana", models.RoleUser)
	s.do(t, http.MethodPost, "/api/v1/clock/in", token, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/shifts/export.pdf", token, nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf export returned %d", rec.Code)
	}
}

type countingDirectory struct {
	*memdb.DB
	lookups int
}

func (d *countingDirectory) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	d.lookups++
	return d.DB.GetWorker(ctx, id)
}

func TestActiveShiftsLoadsWorkersOnce(t *testing.T) {
	var dir *countingDirectory
	s := newTestServerWith(t, func(d *Deps) {
		dir = &countingDirectory{DB: d.Workers.(*memdb.DB)}
		d.Workers = dir
	})
	_, adminToken := s.addWorker(t, "boss", models.RoleAdmin)
	for _, name := range []string{"ana", "bruno", "carla"} {
		_, token := s.addWorker(t, name, models.RoleUser)
		if rec := s.do(t, http.MethodPost, "/api/v1/clock/in", token, nil); rec.Code != http.StatusCreated {
			t.Fatalf("clock in %s returned %d", name, rec.Code)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/v1/admin/active", adminToken, nil)
	active := decode(t, rec)["data"].([]any)
	if len(active) != 3 {
		t.Fatalf("expected 3 open shifts, got %d", len(active))
	}
	for _, a := range active {
		if name, _ := a.(map[string]any)["worker_name"].(string); !strings.HasSuffix(name, " test") {
			t.Fatalf("missing worker name in %v", a)
		}
	}
	if dir.lookups != 0 {
		t.Fatalf("expected no per-shift worker lookups, got %d", dir.lookups)
	}
}

func TestClockBodyLimit(t *testing.T) {
	s := newTestServerWith(t, func(d *Deps) { d.MaxBodyBytes = 1024 })
	_, token := s.addWorker(t, "ana", models.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/v1/clock/in", token, gin.H{
		"media": []gin.H{{"kind": "video", "data": strings.Repeat("A", 4096)}},
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	events, _ := s.db.FindAllDanglingInEvents(context.Background())
	if len(events) != 0 {
		t.Fatalf("an oversized request must not clock in")
	}

	if rec := s.do(t, http.MethodPost, "/api/v1/clock/in", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("small request returned %d", rec.Code)
	}
}
