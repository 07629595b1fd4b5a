package clinictest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/me/clinic/pkg/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondText(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		s.mu.Lock()
		var (
			accts map[string]account
			key   string
			label string
		)
		switch role {
		case "patient":
			accts, key, label = s.patientAccts, req.Email, "Patient"
		case "doctor":
			accts, key, label = s.doctorAccts, req.Email, "Doctor"
		default:
			accts, key, label = s.adminAccts, req.Username, "Admin"
		}
		acct, ok := accts[key]
		s.mu.Unlock()

		if !ok {
			respondText(w, http.StatusUnauthorized, label+" not found")
			return
		}
		if acct.password != req.Password {
			respondText(w, http.StatusUnauthorized, "Invalid password")
			return
		}

		token, err := s.issue(&principal{role: role, email: key, id: acct.id})
		if err != nil {
			respondText(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondText(w, http.StatusOK, token)
	}
}

func checkSignup(email, password string) []model.FieldError {
	var details []model.FieldError
	if email == "" {
		details = append(details, model.FieldError{Field: "email", Message: "is required"})
	}
	if len(password) < 6 {
		details = append(details, model.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	return details
}

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var p model.PatientProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid patient data")
		return
	}
	if details := checkSignup(p.Email, p.Password); len(details) > 0 {
		respondJSON(w, http.StatusBadRequest, model.NewValidationError("Invalid patient data", details...))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.patientAccts[p.Email]; exists {
		respondMessage(w, http.StatusConflict, "Patient with email id or phone no already exist")
		return
	}
	id := s.allocID()
	s.patients[id] = &model.Patient{ID: id, Name: p.Name, Email: p.Email, Phone: p.Phone, Address: p.Address}
	s.patientAccts[p.Email] = account{id: id, password: p.Password}
	respondMessage(w, http.StatusCreated, "Signup successful")
}

func (s *Server) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var d model.DoctorProfile
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid doctor data")
		return
	}
	if details := checkSignup(d.Email, d.Password); len(details) > 0 {
		respondJSON(w, http.StatusBadRequest, model.NewValidationError("Invalid doctor data", details...))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doctorAccts[d.Email]; exists {
		respondMessage(w, http.StatusConflict, "Doctor already exists")
		return
	}
	id := s.allocID()
	s.doctors[id] = &model.Doctor{ID: id, Name: d.Name, Specialty: d.Specialty, Email: d.Email, Phone: d.Phone}
	s.doctorAccts[d.Email] = account{id: id, password: d.Password}
	respondMessage(w, http.StatusCreated, "Doctor added to db")
}

// pathPrincipal resolves the {token} path segment the patient and doctor
// routes carry, and checks it matches the bearer token.
func (s *Server) pathPrincipal(w http.ResponseWriter, r *http.Request) *principal {
	p := s.lookup(chi.URLParam(r, "token"))
	if p == nil || p != principalFromContext(r.Context()) {
		respondText(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil
	}
	return p
}

func (s *Server) handlePatientProfile(w http.ResponseWriter, r *http.Request) {
	p := s.pathPrincipal(w, r)
	if p == nil {
		return
	}
	s.mu.Lock()
	patient := *s.patients[p.id]
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, patient)
}

func (s *Server) handlePatientAppointments(w http.ResponseWriter, r *http.Request) {
	p := s.pathPrincipal(w, r)
	if p == nil {
		return
	}
	condition := chi.URLParam(r, "condition")
	doctor := strings.ToLower(chi.URLParam(r, "doctor"))
	now := time.Now()

	out := s.filterAppointments(func(a *model.Appointment) bool {
		if a.PatientID != p.id {
			return false
		}
		if doctor != "" && !strings.Contains(strings.ToLower(a.DoctorName), doctor) {
			return false
		}
		if condition != "" {
			t, err := a.Time()
			if err != nil {
				return false
			}
			if condition == "past" && !t.Before(now) {
				return false
			}
			if condition == "future" && !t.After(now) {
				return false
			}
		}
		return true
	})
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	p := s.pathPrincipal(w, r)
	if p == nil {
		return
	}
	respondJSON(w, http.StatusOK, s.filterAppointments(func(a *model.Appointment) bool {
		return a.DoctorID == p.id
	}))
}

func (s *Server) filterAppointments(keep func(*model.Appointment) bool) []model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		out = append(out, *d)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminPatients(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(w, http.StatusOK, out)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondText(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	d, found := s.doctors[id]
	var out model.Doctor
	if found {
		out = *d
	}
	s.mu.Unlock()
	if !found {
		respondJSON(w, http.StatusNotFound, model.NewNotFoundError("Doctor", strconv.FormatInt(id, 10)))
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var d model.Doctor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid doctor data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.doctors[id]; !found {
		respondMessage(w, http.StatusNotFound, "Doctor not found")
		return
	}
	d.ID = id
	s.doctors[id] = &d
	respondMessage(w, http.StatusOK, "Doctor updated")
}

func (s *Server) handleDeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.deleteRecord(w, "doctor", id)
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.deleteRecord(w, chi.URLParam(r, "kind"), id)
}

func (s *Server) deleteRecord(w http.ResponseWriter, kind string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	switch kind {
	case "patient":
		_, found = s.patients[id]
		delete(s.patients, id)
	case "doctor":
		_, found = s.doctors[id]
		delete(s.doctors, id)
	case "appointment":
		_, found = s.appointments[id]
		delete(s.appointments, id)
	default:
		respondText(w, http.StatusNotFound, "Unknown record type")
		return
	}
	if !found {
		respondMessage(w, http.StatusNotFound, strings.ToUpper(kind[:1])+kind[1:]+" not found")
		return
	}
	respondMessage(w, http.StatusOK, strings.ToUpper(kind[:1])+kind[1:]+" deleted successfully")
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var a model.Appointment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid appointment data")
		return
	}
	if _, err := a.Time(); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid appointment time")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[a.DoctorID]
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid doctor id")
		return
	}
	if p := principalFromContext(r.Context()); p != nil && p.role == "patient" {
		a.PatientID = p.id
	}
	patient, ok := s.patients[a.PatientID]
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid patient id")
		return
	}
	a.ID = s.allocID()
	a.DoctorName = d.Name
	a.PatientName = patient.Name
	a.PatientEmail = patient.Email
	s.appointments[a.ID] = &a
	respondMessage(w, http.StatusCreated, "Appointment Booked Successfully")
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.filterAppointments(func(*model.Appointment) bool { return true }))
}

func (s *Server) handleAppointmentsBy(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, s.filterAppointments(func(a *model.Appointment) bool {
			if field == "patient" {
				return a.PatientID == id
			}
			return a.DoctorID == id
		}))
	}
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	a, found := s.Appointment(id)
	if !found {
		respondMessage(w, http.StatusNotFound, "Appointment not found")
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// handleUpdateAppointment applies the fields present in the body, so a
// {"status": n} body only changes the status.
func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.appointments[id]
	if !found {
		respondMessage(w, http.StatusNotFound, "Appointment not found")
		return
	}
	updated := *a
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid appointment data")
		return
	}
	updated.ID = id
	s.appointments[id] = &updated
	respondMessage(w, http.StatusOK, "Appointment Updated Successfully")
}

func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s.deleteRecord(w, "appointment", id)
}

func (s *Server) handleCreatePrescription(w http.ResponseWriter, r *http.Request) {
	var p model.Prescription
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Medication == "" {
		respondMessage(w, http.StatusBadRequest, "Invalid prescription data")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[p.AppointmentID]; !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid appointment id")
		return
	}
	p.ID = uuid.NewString()
	s.prescriptions[p.ID] = &p
	respondMessage(w, http.StatusCreated, "Prescription saved")
}

func (s *Server) handleListPrescriptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.Prescription, 0, len(s.prescriptions))
	for _, p := range s.prescriptions {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(w, http.StatusOK, out)
}

// handlePrescriptionsBy lists prescriptions whose appointment belongs to
// the patient or doctor in the path.
func (s *Server) handlePrescriptionsBy(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		out := []model.Prescription{}
		for _, p := range s.prescriptions {
			a, found := s.appointments[p.AppointmentID]
			if !found {
				continue
			}
			if (field == "patient" && a.PatientID == id) || (field == "doctor" && a.DoctorID == id) {
				out = append(out, *p)
			}
		}
		s.mu.Unlock()
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleUpdatePrescription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prescriptions[id]
	if !ok {
		respondMessage(w, http.StatusNotFound, "Prescription not found")
		return
	}
	updated := *p
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid prescription data")
		return
	}
	updated.ID = id
	s.prescriptions[id] = &updated
	respondMessage(w, http.StatusOK, "Prescription updated")
}

func (s *Server) handleGetPrescription(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.prescriptions[chi.URLParam(r, "id")]
	var out model.Prescription
	if ok {
		out = *p
	}
	s.mu.Unlock()
	if !ok {
		respondMessage(w, http.StatusNotFound, "Prescription not found")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePrescription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prescriptions[id]; !ok {
		respondMessage(w, http.StatusNotFound, "Prescription not found")
		return
	}
	delete(s.prescriptions, id)
	respondMessage(w, http.StatusOK, "Prescription deleted")
}
