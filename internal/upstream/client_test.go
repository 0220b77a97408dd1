package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop()), srv
}

func TestClient_FetchAppointments(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"1","patientName":"Ana","appointmentDate":"2025-03-19T09:30","status":"PENDING"},
			{"id":"2","patientName":"Ben","appointmentDate":"2025-03-20","status":"CONFIRMED"}
		]`))
	}))

	appointments, err := client.WithToken("tok-123").FetchAppointments(context.Background(), models.FilterPending)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/appointments/pending" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("token not forwarded, got %q", gotAuth)
	}
	if len(appointments) != 2 || appointments[0].ID != "1" || appointments[1].Status != models.StatusConfirmed {
		t.Errorf("unexpected decode: %+v", appointments)
	}
}

func TestClient_FetchAppointmentsBackendError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.FetchAppointments(context.Background(), models.FilterAll)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsKind(err, KindFetch) {
		t.Errorf("expected fetch classification, got %v", err)
	}
	ue, _ := AsError(err)
	if ue.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500 on error, got %d", ue.StatusCode)
	}
}

func TestClient_UpdateAppointment(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointments/update/42" || r.Method != http.MethodPost {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"42","status":"CONFIRMED","clinicReportUrl":"https://x/r1.pdf","appointmentDate":"2025-03-19T09:30"}`))
	}))

	draft := session.Draft{Status: models.StatusConfirmed, ClinicReportURL: "https://x/r1.pdf"}
	updated, err := client.UpdateAppointment(context.Background(), "42", draft)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != "42" || updated.Status != models.StatusConfirmed {
		t.Errorf("unexpected record: %+v", updated)
	}
}

func TestClient_UpdateAppointmentFailureIsSaveKind(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))

	_, err := client.UpdateAppointment(context.Background(), "42", session.Draft{})
	if !IsKind(err, KindSave) {
		t.Errorf("expected save classification, got %v", err)
	}
}

func TestClient_UploadReportExtractsURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointments/upload-report/42" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing multipart file field: %v", err)
		} else {
			file.Close()
			if header.Filename != "reportA.pdf" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
		}
		// The backend answers with prose, not JSON; the URL is embedded.
		w.Write([]byte("Report stored successfully at https://x/r1.pdf for appointment 42"))
	}))

	file := session.FileUpload{Name: "reportA.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}
	url, err := client.UploadReport(context.Background(), "42", file)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://x/r1.pdf" {
		t.Errorf("unexpected extracted URL %q", url)
	}
}

func TestClient_UploadReportWithoutURLFails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	_, err := client.UploadReport(context.Background(), "42", session.FileUpload{Name: "a.pdf"})
	if !IsKind(err, KindUpload) {
		t.Errorf("expected upload classification when no URL is extractable, got %v", err)
	}
}

func TestClient_Login(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-abc","message":"welcome"}`))
	}))

	result, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "tok-abc" {
		t.Errorf("unexpected token %q", result.Token)
	}
}

func TestClient_LoginRejectedIsAuthKind(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	if !IsKind(err, KindAuth) {
		t.Errorf("expected auth classification, got %v", err)
	}
}

func TestAdminClient_FetchClinicsAndSetActive(t *testing.T) {
	var gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/action/clinics":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":"c1","name":"Alpha","isActive":true},{"id":"c2","name":"Beta","isActive":false}]`))
		case "/action/deactivate/c1":
			gotAction = "deactivate"
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	admin := NewAdminClient(srv.URL, 5*time.Second, zerolog.Nop())

	clinics, err := admin.FetchClinics(context.Background())
	if err != nil {
		t.Fatalf("fetch clinics: %v", err)
	}
	if len(clinics) != 2 || clinics[0].ID != "c1" || clinics[1].IsActive {
		t.Errorf("unexpected clinics: %+v", clinics)
	}

	if err := admin.SetClinicActive(context.Background(), "c1", false, Credentials{Email: "root@x", Password: "pw"}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if gotAction != "deactivate" {
		t.Errorf("expected deactivate endpoint, got %q", gotAction)
	}
}
