package app

import (
	"context"
	"testing"

	"github.com/me/clinic/internal/api"
	"github.com/me/clinic/internal/clinictest"
	"github.com/me/clinic/internal/guard"
	"github.com/me/clinic/internal/store"
	"github.com/me/clinic/pkg/model"
)

func newTestApp(t *testing.T, opts ...clinictest.Option) (*App, store.Store, *clinictest.Server) {
	t.Helper()
	backend, url := clinictest.Start(t, opts...)
	st := store.NewMemoryStore()
	return New(st, api.NewClient(url, api.StoreTokens(st), nil), nil), st, backend
}

func TestAdminLoginThenCallCarriesToken(t *testing.T) {
	a, _, backend := newTestApp(t, clinictest.WithFixedToken("tok-1"))
	ctx := context.Background()
	if _, err := a.Boot(ctx); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if err := a.Session.Login(ctx, model.Credentials{Identifier: "admin", Password: "admin123"}, model.RoleAdmin); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d := a.Navigate("/admin-dashboard"); d.Kind != guard.Allow {
		t.Fatalf("Navigate admin dashboard = %+v", d)
	}
	if _, err := a.Client.AdminPatients(ctx); err != nil {
		t.Fatalf("AdminPatients: %v", err)
	}
	if got := backend.LastAuthHeader(); got != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer tok-1")
	}
}

func TestUnauthorizedClearsPersistedStateWithoutMemorySession(t *testing.T) {
	a, st, backend := newTestApp(t)
	ctx := context.Background()

	token, err := backend.Issue("doctor")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	st.Set(ctx, store.KeyToken, token)
	st.Set(ctx, store.KeyUser, `{"identifier":"doctor@clinic.com","type":"doctor"}`)
	backend.RevokeAll()

	// No Boot: the in-memory session is empty.
	_, err = a.Client.DoctorAppointments(ctx, token)
	if !api.IsSessionInvalid(err) {
		t.Fatalf("expected invalid session, got %v", err)
	}
	for _, key := range []string{store.KeyToken, store.KeyUser} {
		if _, ok, _ := st.Get(ctx, key); ok {
			t.Errorf("key %q should be cleared", key)
		}
	}
	if a.Location() != guard.LoginPath {
		t.Errorf("Location = %q, want %q", a.Location(), guard.LoginPath)
	}
}

func TestUnauthorizedLogsOutActiveSession(t *testing.T) {
	a, _, backend := newTestApp(t)
	ctx := context.Background()
	a.Boot(ctx)

	if err := a.Session.Login(ctx, model.Credentials{Identifier: clinictest.PatientEmail, Password: clinictest.PatientPassword}, model.RolePatient); err != nil {
		t.Fatalf("Login: %v", err)
	}
	a.Navigate("/patient-dashboard")
	backend.RevokeAll()

	if _, err := a.Client.PatientAppointments(ctx, a.Session.Snapshot().Token); err == nil {
		t.Fatal("expected error after revocation")
	}
	if a.Session.Snapshot().IsAuthenticated() {
		t.Error("session should be cleared")
	}
	if d := a.Navigate("/patient-dashboard"); d.Kind != guard.Redirect || d.Target != guard.LoginPath {
		t.Errorf("Navigate after invalidation = %+v", d)
	}
}

func TestBootRoutesRestoredSession(t *testing.T) {
	a, st, backend := newTestApp(t)
	ctx := context.Background()

	token, _ := backend.Issue("doctor")
	st.Set(ctx, store.KeyToken, token)
	st.Set(ctx, store.KeyUser, `{"identifier":"doctor@clinic.com","type":"doctor","token":"`+token+`"}`)

	if got := a.Navigate("/doctor-dashboard"); got.Kind != guard.Loading {
		t.Errorf("before Boot decision = %+v, want loading", got)
	}

	d, err := a.Boot(ctx)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if d.Target != "/doctor-dashboard" || a.Location() != "/doctor-dashboard" {
		t.Errorf("Boot decision = %+v, location %q", d, a.Location())
	}
	if d := a.Navigate("/admin-dashboard"); d.Target != guard.LoginPath {
		t.Errorf("doctor to admin = %+v, want login", d)
	}
}

func TestBootWithoutSession(t *testing.T) {
	a, _, _ := newTestApp(t)
	d, err := a.Boot(context.Background())
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if d.Kind != guard.Redirect || a.Location() != guard.LoginPath {
		t.Errorf("Boot = %+v, location %q", d, a.Location())
	}
}
