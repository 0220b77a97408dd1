package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinic-portal-server/internal/handlers"
	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/session"
	"clinic-portal-server/internal/upstream"
)

const testToken = "test-token"

// newBackend fakes the clinic backend behind the portal.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/appointments/upload-report/"):
			w.Write([]byte("Report stored at https://x/r1.pdf"))
		case strings.HasPrefix(r.URL.Path, "/appointments/update/"):
			var draft session.Draft
			json.NewDecoder(r.Body).Decode(&draft)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":              "42",
				"patientName":     "Ana",
				"appointmentDate": draft.AppointmentDate,
				"status":          draft.Status,
				"clinicReportUrl": draft.ClinicReportURL,
			})
		case strings.HasPrefix(r.URL.Path, "/appointments/"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id":"42","patientName":"Ana","appointmentDate":"2025-03-19T09:30:00Z","status":"PENDING"},
				{"id":"43","patientName":"Ben","appointmentDate":"2002-01-05","status":"COMPLETED"}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newRouter wires the appointment routes with the auth middleware replaced by
// a stub that injects a fixed token.
func newRouter(t *testing.T, backendURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := upstream.NewClient(backendURL, 5*time.Second, zerolog.Nop())
	h := handlers.NewAppointmentHandler(client, session.NewManager(), zerolog.Nop())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.TokenContextKey, testToken)
	})
	router.GET("/appointments/upcoming", h.Upcoming)
	router.GET("/appointments/:status", h.List)
	router.POST("/sessions", h.OpenSession)
	router.POST("/sessions/:sid/file", h.SelectFile)
	router.POST("/sessions/:sid/upload", h.Upload)
	router.PATCH("/sessions/:sid/draft", h.UpdateDraft)
	router.POST("/sessions/:sid/save", h.Save)
	router.DELETE("/sessions/:sid", h.CloseSession)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", rec.Body.String(), err)
	}
	return envelope.Data
}

func TestList_FetchesAndCounts(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodGet, "/appointments/all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", data["count"])
	}
}

func TestList_WindowNarrowsResult(t *testing.T) {
	// One seeded appointment sits decades in the past; the month window
	// evaluated against the current clock drops it.
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodGet, "/appointments/all?window=month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["count"] != float64(0) {
		t.Errorf("expected empty month window, got count %v", data["count"])
	}
}

func TestList_RejectsUnknownFilterAndWindow(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	if rec := doJSON(t, router, http.MethodGet, "/appointments/archived", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status filter: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/appointments/all?window=fortnight", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown window: expected 400, got %d", rec.Code)
	}
}

func TestUpcoming_DropsFinishedAppointments(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodGet, "/appointments/upcoming", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	if data["count"] != float64(0) {
		// Both seeded records are in the past or completed.
		t.Errorf("expected no upcoming appointments, got count %v", data["count"])
	}
}

func TestOpenSession_UnknownAppointment(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{"appointmentId": "999"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionRoutes_UnknownSession(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodPost, "/sessions/nope/upload", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestEditFlow walks the whole modal workflow over HTTP: open a session,
// attach a report, upload it, confirm the appointment and save.
func TestEditFlow(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	// Open a session for appointment 42.
	rec := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{"appointmentId": "42"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	sid, _ := data["sessionId"].(string)
	if sid == "" {
		t.Fatalf("no session id in response: %v", data)
	}
	draft, _ := data["draft"].(map[string]any)
	if draft["appointmentDate"] != "2025-03-19T09:30" {
		t.Errorf("draft date not seeded to minute precision: %v", draft["appointmentDate"])
	}

	// Attach a report file.
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", "reportA.pdf")
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	part.Write([]byte("%PDF"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sid+"/file", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	fileRec := httptest.NewRecorder()
	router.ServeHTTP(fileRec, req)
	if fileRec.Code != http.StatusOK {
		t.Fatalf("select file: expected 200, got %d: %s", fileRec.Code, fileRec.Body.String())
	}

	// Upload it.
	rec = doJSON(t, router, http.MethodPost, "/sessions/"+sid+"/upload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeData(t, rec)["clinicReportUrl"]; got != "https://x/r1.pdf" {
		t.Errorf("unexpected report URL %v", got)
	}

	// Confirm the appointment.
	rec = doJSON(t, router, http.MethodPatch, "/sessions/"+sid+"/draft", map[string]string{
		"field": "status",
		"value": "CONFIRMED",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update draft: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Save, receiving the canonical record.
	rec = doJSON(t, router, http.MethodPost, "/sessions/"+sid+"/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	saved := decodeData(t, rec)
	if saved["status"] != "CONFIRMED" || saved["clinicReportUrl"] != "https://x/r1.pdf" {
		t.Errorf("unexpected saved record: %v", saved)
	}

	// The session completed with the save; further calls find nothing.
	rec = doJSON(t, router, http.MethodPost, "/sessions/"+sid+"/save", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after completion, got %d", rec.Code)
	}
}

func TestUpdateDraft_RejectsInvalidStatus(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{"appointmentId": "42"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d", rec.Code)
	}
	sid, _ := decodeData(t, rec)["sessionId"].(string)

	rec = doJSON(t, router, http.MethodPatch, "/sessions/"+sid+"/draft", map[string]string{
		"field": "status",
		"value": "ARCHIVED",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid status, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCloseSession_DiscardsIdleSession(t *testing.T) {
	router := newRouter(t, newBackend(t).URL)

	rec := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{"appointmentId": "42"})
	sid, _ := decodeData(t, rec)["sessionId"].(string)

	rec = doJSON(t, router, http.MethodDelete, "/sessions/"+sid, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/sessions/"+sid+"/upload", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", rec.Code)
	}
}
