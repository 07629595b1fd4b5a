// Package clinictest provides an in-process fake of the clinic backend for
// tests. It speaks the same routes and body shapes as the real service and
// records the headers it receives.
package clinictest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/me/clinic/pkg/model"
)

// Seed accounts, mirroring the demo credentials of the clinic.
const (
	PatientEmail    = "patient@example.com"
	PatientPassword = "password123"
	DoctorEmail     = "doctor@clinic.com"
	DoctorPassword  = "password123"
	AdminUsername   = "admin"
	AdminPassword   = "admin123"
)

type principal struct {
	role  string
	email string
	id    int64
}

type account struct {
	id       int64
	password string
}

// Server is a fake clinic backend.
type Server struct {
	router chi.Router
	secret []byte

	mu           sync.Mutex
	fixedToken   string
	tokenTTL     time.Duration
	issued       map[string]*principal
	authHeaders  []string
	requestIDs   []string
	nextID       int64
	patientAccts map[string]account // by email
	doctorAccts  map[string]account
	adminAccts   map[string]account // by username

	patients      map[int64]*model.Patient
	doctors       map[int64]*model.Doctor
	appointments  map[int64]*model.Appointment
	prescriptions map[string]*model.Prescription
}

// Option configures a Server.
type Option func(*Server)

// WithFixedToken makes every successful login return token instead of a JWT.
func WithFixedToken(token string) Option {
	return func(s *Server) {
		s.fixedToken = token
	}
}

// WithTokenTTL sets the lifetime of issued JWTs.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// New creates a fake backend seeded with one patient, one doctor, an admin,
// and one pending appointment between them.
func New(opts ...Option) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		secret:        []byte("clinictest-secret"),
		tokenTTL:      time.Hour,
		issued:        make(map[string]*principal),
		nextID:        1,
		patientAccts:  make(map[string]account),
		doctorAccts:   make(map[string]account),
		adminAccts:    make(map[string]account),
		patients:      make(map[int64]*model.Patient),
		doctors:       make(map[int64]*model.Doctor),
		appointments:  make(map[int64]*model.Appointment),
		prescriptions: make(map[string]*model.Prescription),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()
	s.routes()
	return s
}

// Start serves s on a test HTTP server that is closed with the test.
func Start(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts.URL
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) seed() {
	pid := s.allocID()
	s.patients[pid] = &model.Patient{ID: pid, Name: "Pat Example", Email: PatientEmail, Phone: "5551234567", Address: "1 Main St"}
	s.patientAccts[PatientEmail] = account{id: pid, password: PatientPassword}

	did := s.allocID()
	s.doctors[did] = &model.Doctor{ID: did, Name: "Dr. Grey", Specialty: "Cardiology", Email: DoctorEmail, Phone: "5557654321",
		AvailableTimes: []string{"09:00", "10:00"}}
	s.doctorAccts[DoctorEmail] = account{id: did, password: DoctorPassword}

	s.adminAccts[AdminUsername] = account{id: s.allocID(), password: AdminPassword}

	aid := s.allocID()
	s.appointments[aid] = &model.Appointment{
		ID: aid, DoctorID: did, DoctorName: "Dr. Grey",
		PatientID: pid, PatientName: "Pat Example", PatientEmail: PatientEmail,
		AppointmentTime: time.Now().Add(48 * time.Hour).Truncate(time.Hour).Format(model.LocalDateTimeLayout),
		Status:          model.StatusPending,
	}
}

func (s *Server) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.recordMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})

	// Public authentication routes.
	r.Post("/patient/login", s.handleLogin("patient"))
	r.Post("/doctor/login", s.handleLogin("doctor"))
	r.Post("/admin/login", s.handleLogin("admin"))
	r.Post("/patient/register", s.handleRegisterPatient)
	r.Post("/doctor/register", s.handleRegisterDoctor)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerMiddleware)

		r.Route("/patient", func(r chi.Router) {
			r.Use(requireRole("patient"))
			r.Get("/me/{token}", s.handlePatientProfile)
			r.Get("/appointments/{token}", s.handlePatientAppointments)
			r.Get("/appointments/filter/condition/{token}/{condition}", s.handlePatientAppointments)
			r.Get("/appointments/filter/doctor/{token}/{doctor}", s.handlePatientAppointments)
			r.Get("/appointments/filter/{token}/{doctor}/{condition}", s.handlePatientAppointments)
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Get("/all", s.handleListDoctors)
			r.With(requireRole("doctor")).Get("/appointments/{token}", s.handleDoctorAppointments)
			r.Get("/{id}", s.handleGetDoctor)
			r.Put("/{id}", s.handleUpdateDoctor)
			r.With(requireRole("admin")).Delete("/{id}", s.handleDeleteDoctor)
		})

		r.Route("/appointment", func(r chi.Router) {
			r.Post("/create", s.handleCreateAppointment)
			r.Get("/all", s.handleListAppointments)
			r.Get("/patient/{id}", s.handleAppointmentsBy("patient"))
			r.Get("/doctor/{id}", s.handleAppointmentsBy("doctor"))
			r.Get("/{id}", s.handleGetAppointment)
			r.Put("/{id}", s.handleUpdateAppointment)
			r.Delete("/{id}", s.handleDeleteAppointment)
		})

		r.Route("/prescription", func(r chi.Router) {
			r.With(requireRole("doctor")).Post("/create", s.handleCreatePrescription)
			r.Get("/all", s.handleListPrescriptions)
			r.Get("/patient/{id}", s.handlePrescriptionsBy("patient"))
			r.Get("/doctor/{id}", s.handlePrescriptionsBy("doctor"))
			r.Get("/{id}", s.handleGetPrescription)
			r.Put("/{id}", s.handleUpdatePrescription)
			r.Delete("/{id}", s.handleDeletePrescription)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole("admin"))
			r.Get("/patients", s.handleAdminPatients)
			r.Get("/doctors", s.handleListDoctors)
			r.Get("/appointments", s.handleListAppointments)
			r.Delete("/{kind}/{id}", s.handleAdminDelete)
		})
	})
}

// issue creates a token for p.
func (s *Server) issue(p *principal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.fixedToken
	if token == "" {
		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   p.email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
		if err != nil {
			return "", err
		}
		token = signed
	}
	s.issued[token] = p
	return token, nil
}

// lookup returns the principal for a live token, or nil.
func (s *Server) lookup(token string) *principal {
	s.mu.Lock()
	p := s.issued[token]
	fixed := s.fixedToken
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	if token == fixed {
		return p
	}
	_, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil
	}
	return p
}

// Issue logs in as the seeded account of role and returns its token,
// bypassing HTTP.
func (s *Server) Issue(role string) (string, error) {
	s.mu.Lock()
	var p *principal
	switch role {
	case "patient":
		p = &principal{role: role, email: PatientEmail, id: s.patientAccts[PatientEmail].id}
	case "doctor":
		p = &principal{role: role, email: DoctorEmail, id: s.doctorAccts[DoctorEmail].id}
	case "admin":
		p = &principal{role: role, email: AdminUsername, id: s.adminAccts[AdminUsername].id}
	}
	s.mu.Unlock()
	if p == nil {
		return "", errors.New("unknown role " + role)
	}
	return s.issue(p)
}

// RevokeAll invalidates every issued token, as a backend restart or key
// rotation would.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = make(map[string]*principal)
}

// AuthHeaders returns the Authorization headers of all requests so far.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// LastAuthHeader returns the Authorization header of the latest request.
func (s *Server) LastAuthHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.authHeaders) == 0 {
		return ""
	}
	return s.authHeaders[len(s.authHeaders)-1]
}

// LastRequestID returns the X-Request-ID header of the latest request.
func (s *Server) LastRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requestIDs) == 0 {
		return ""
	}
	return s.requestIDs[len(s.requestIDs)-1]
}

// Appointment returns a copy of a stored appointment.
func (s *Server) Appointment(id int64) (model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, false
	}
	return *a, true
}

// AppointmentIDs returns the IDs of all stored appointments.
func (s *Server) AppointmentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.appointments))
	for id := range s.appointments {
		ids = append(ids, id)
	}
	return ids
}

// PrescriptionCount returns how many prescriptions are stored.
func (s *Server) PrescriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prescriptions)
}
