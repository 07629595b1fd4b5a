package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/me/clinic/internal/clinictest"
	"github.com/me/clinic/internal/logging"
	"github.com/me/clinic/internal/store"
	"github.com/me/clinic/pkg/model"
)

func TestClient_AttachesBearerFromStore(t *testing.T) {
	backend, url := clinictest.Start(t)
	st := store.NewMemoryStore()
	c := NewClient(url, StoreTokens(st), nil)
	ctx := context.Background()

	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if got := backend.LastAuthHeader(); got != "" {
		t.Errorf("Authorization without token = %q, want empty", got)
	}

	token, err := backend.Issue("admin")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	st.Set(ctx, store.KeyToken, token)

	if _, err := c.AdminPatients(ctx); err != nil {
		t.Fatalf("AdminPatients: %v", err)
	}
	if got, want := backend.LastAuthHeader(), "Bearer "+token; got != want {
		t.Errorf("Authorization = %q, want %q", got, want)
	}
	if !strings.HasPrefix(backend.LastRequestID(), "req_") {
		t.Errorf("X-Request-ID = %q, want req_ prefix", backend.LastRequestID())
	}
}

func TestClient_TokenReadFreshEachCall(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	c := NewClient(srv.URL, StoreTokens(st), nil)
	ctx := context.Background()

	st.Set(ctx, store.KeyToken, "first")
	c.Get(ctx, "/doctor/all")
	st.Set(ctx, store.KeyToken, "second")
	c.Get(ctx, "/doctor/all")
	st.Remove(ctx, store.KeyToken)
	c.Get(ctx, "/doctor/all")

	want := []string{"Bearer first", "Bearer second", ""}
	if len(seen) != len(want) {
		t.Fatalf("saw %d requests, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestClient_UnauthorizedSignalsSubscribers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid or expired token"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	var calls []string
	c.OnSessionInvalid(func(context.Context) { calls = append(calls, "first") })
	c.OnSessionInvalid(func(context.Context) { calls = append(calls, "second") })

	_, err := c.Get(context.Background(), "/admin/patients")
	if !IsSessionInvalid(err) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if !IsAuthError(err) {
		t.Error("IsAuthError should be true for an invalid session")
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HTTPError in chain, got %T", err)
	}
	if he.Message != "Invalid or expired token" {
		t.Errorf("Message = %q", he.Message)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("subscribers ran %v, want [first second]", calls)
	}
}

func TestClient_PublicUnauthorizedDoesNotSignal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid password"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	signalled := false
	c.OnSessionInvalid(func(context.Context) { signalled = true })

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/admin/login", Body: map[string]string{}, Public: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsSessionInvalid(err) {
		t.Error("public 401 must not be reported as an invalid session")
	}
	if signalled {
		t.Error("public 401 must not notify subscribers")
	}
	if got := Message(err, "fallback"); got != "Invalid password" {
		t.Errorf("Message = %q, want %q", got, "Invalid password")
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"plain text", http.StatusConflict, "Doctor already exists", "Doctor already exists"},
		{"json message", http.StatusBadRequest, `{"message":"Invalid doctor data"}`, "Invalid doctor data"},
		{"json error", http.StatusBadRequest, `{"error":"bad phone"}`, "bad phone"},
		{"json string", http.StatusInternalServerError, `"Internal server error"`, "Internal server error"},
		{"empty body", http.StatusNotFound, "", "request failed: not found"},
		{"object without message", http.StatusBadRequest, `{"code":1}`, "request failed: bad request"},
		{"validation details", http.StatusBadRequest,
			`{"code":"VALIDATION_ERROR","message":"Invalid patient data","details":[{"field":"email","message":"is required"}]}`,
			"Invalid patient data: email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil, nil).Get(context.Background(), "/x")
			var he *HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected *HTTPError, got %v", err)
			}
			if he.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", he.StatusCode, tt.status)
			}
			if he.Message != tt.want {
				t.Errorf("Message = %q, want %q", he.Message, tt.want)
			}
		})
	}
}

func TestClient_TransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, nil).Get(context.Background(), "/health")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if got := Message(err, "Login failed"); got != "Login failed" {
		t.Errorf("Message = %q, want fallback", got)
	}
	if IsAuthError(err) {
		t.Error("transport error is not an auth error")
	}
}

func TestClient_ForbiddenIsAuthErrorButNotInvalid(t *testing.T) {
	backend, url := clinictest.Start(t)
	st := store.NewMemoryStore()
	token, _ := backend.Issue("doctor")
	st.Set(context.Background(), store.KeyToken, token)

	c := NewClient(url, StoreTokens(st), nil)
	signalled := false
	c.OnSessionInvalid(func(context.Context) { signalled = true })

	_, err := c.AdminPatients(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if IsSessionInvalid(err) || signalled {
		t.Error("403 must not invalidate the session")
	}
}

func TestClient_Endpoints(t *testing.T) {
	backend, url := clinictest.Start(t)
	st := store.NewMemoryStore()
	c := NewClient(url, StoreTokens(st), nil)
	ctx := context.Background()

	patientTok, _ := backend.Issue("patient")
	st.Set(ctx, store.KeyToken, patientTok)

	profile, err := c.PatientProfile(ctx, patientTok)
	if err != nil {
		t.Fatalf("PatientProfile: %v", err)
	}
	if profile.Email != clinictest.PatientEmail {
		t.Errorf("profile email = %q", profile.Email)
	}

	appts, err := c.PatientAppointments(ctx, patientTok)
	if err != nil {
		t.Fatalf("PatientAppointments: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("got %d appointments, want 1", len(appts))
	}

	future, err := c.FilterPatientAppointments(ctx, patientTok, "", "future")
	if err != nil {
		t.Fatalf("filter future: %v", err)
	}
	if len(future) != 1 {
		t.Errorf("future appointments = %d, want 1", len(future))
	}
	past, err := c.FilterPatientAppointments(ctx, patientTok, "grey", "past")
	if err != nil {
		t.Fatalf("filter past: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("past appointments = %d, want 0", len(past))
	}

	doctors, err := c.ListDoctors(ctx)
	if err != nil || len(doctors) != 1 {
		t.Fatalf("ListDoctors = %v, %v", doctors, err)
	}

	if _, err := c.CreateAppointment(ctx, &model.Appointment{
		DoctorID:        doctors[0].ID,
		AppointmentTime: "2030-01-02T10:00:00",
	}); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	appts, _ = c.PatientAppointments(ctx, patientTok)
	if len(appts) != 2 {
		t.Errorf("after booking got %d appointments, want 2", len(appts))
	}

	doctorTok, _ := backend.Issue("doctor")
	st.Set(ctx, store.KeyToken, doctorTok)
	if err := c.SetAppointmentStatus(ctx, appts[0].ID, model.StatusCompleted); err != nil {
		t.Fatalf("SetAppointmentStatus: %v", err)
	}
	got, _ := backend.Appointment(appts[0].ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %v, want Completed", got.Status)
	}
	if got.DoctorName == "" {
		t.Error("status update should not clear other fields")
	}

	if _, err := c.CreatePrescription(ctx, &model.Prescription{
		PatientName: "Pat Example", AppointmentID: appts[0].ID, Medication: "Ibuprofen", Dosage: "200mg",
	}); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	if backend.PrescriptionCount() != 1 {
		t.Errorf("prescriptions = %d, want 1", backend.PrescriptionCount())
	}

	adminTok, _ := backend.Issue("admin")
	st.Set(ctx, store.KeyToken, adminTok)
	if err := c.AdminDelete(ctx, "appointment", appts[1].ID); err != nil {
		t.Fatalf("AdminDelete: %v", err)
	}
	all, _ := c.AdminAppointments(ctx)
	if len(all) != 1 {
		t.Errorf("after delete got %d appointments, want 1", len(all))
	}
	if err := c.AdminDelete(ctx, "nurse", 1); err == nil {
		t.Error("expected error for unknown record kind")
	}
	if err := c.AdminDelete(ctx, "patient", 999); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestClient_Prescriptions(t *testing.T) {
	backend, url := clinictest.Start(t)
	st := store.NewMemoryStore()
	c := NewClient(url, StoreTokens(st), nil)
	ctx := context.Background()

	doctorTok, _ := backend.Issue("doctor")
	st.Set(ctx, store.KeyToken, doctorTok)

	appts, err := c.DoctorAppointments(ctx, doctorTok)
	if err != nil || len(appts) != 1 {
		t.Fatalf("DoctorAppointments = %v, %v", appts, err)
	}
	a := appts[0]
	if _, err := c.CreatePrescription(ctx, &model.Prescription{
		PatientName: a.PatientName, AppointmentID: a.ID, Medication: "Amoxicillin", Dosage: "500mg",
	}); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}

	byDoctor, err := c.PrescriptionsByDoctor(ctx, a.DoctorID)
	if err != nil || len(byDoctor) != 1 {
		t.Fatalf("PrescriptionsByDoctor = %v, %v", byDoctor, err)
	}
	byPatient, err := c.PrescriptionsByPatient(ctx, a.PatientID)
	if err != nil || len(byPatient) != 1 {
		t.Fatalf("PrescriptionsByPatient = %v, %v", byPatient, err)
	}

	p := byDoctor[0]
	p.Dosage = "250mg"
	if err := c.UpdatePrescription(ctx, &p); err != nil {
		t.Fatalf("UpdatePrescription: %v", err)
	}
	got, err := c.GetPrescription(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPrescription: %v", err)
	}
	if got.Dosage != "250mg" || got.Medication != "Amoxicillin" {
		t.Errorf("prescription = %+v", got)
	}

	if err := c.DeletePrescription(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrescription: %v", err)
	}
	if _, err := c.GetPrescription(ctx, p.ID); !IsNotFound(err) {
		t.Errorf("after delete err = %v, want not found", err)
	}
}

func TestClient_DebugLogMasksPathToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tests := []struct {
		name  string
		token string
	}{
		{"url safe", "eyJhbGciOi.payload.sig"},
		{"needs escaping", "abc/def+ghi=="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewLoggerWithWriter(slog.LevelDebug, "text", &buf)
			st := store.NewMemoryStore()
			ctx := context.Background()
			st.Set(ctx, store.KeyToken, tt.token)

			c := NewClient(srv.URL, StoreTokens(st), logger)
			if _, err := c.PatientAppointments(ctx, tt.token); err != nil {
				t.Fatalf("PatientAppointments: %v", err)
			}

			output := buf.String()
			for _, leak := range []string{tt.token, "abc%2Fdef", "abc/def"} {
				if strings.Contains(output, leak) {
					t.Errorf("log output contains %q: %s", leak, output)
				}
			}
			if !strings.Contains(output, "/patient/appointments/[redacted]") {
				t.Errorf("expected masked path in log output, got: %s", output)
			}
		})
	}
}
