package model

import "time"

// Patient is a patient record as returned by the backend.
type Patient struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Phone   string `json:"phone" yaml:"phone"`
	Address string `json:"address" yaml:"address"`
}

// Doctor is a doctor record as returned by the backend.
type Doctor struct {
	ID             int64    `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Specialty      string   `json:"specialty" yaml:"specialty"`
	Email          string   `json:"email" yaml:"email"`
	Phone          string   `json:"phone" yaml:"phone"`
	AvailableTimes []string `json:"availableTimes,omitempty" yaml:"available_times,omitempty"`
}

// Prescription is a prescription written by a doctor for an appointment.
type Prescription struct {
	ID            string `json:"id,omitempty" yaml:"id,omitempty"`
	PatientName   string `json:"patientName" yaml:"patient_name" validate:"required,min=3,max=100"`
	AppointmentID int64  `json:"appointmentId" yaml:"appointment_id" validate:"required"`
	Medication    string `json:"medication" yaml:"medication" validate:"required,min=3,max=100"`
	Dosage        string `json:"dosage" yaml:"dosage" validate:"required,min=3,max=100"`
	DoctorNotes   string `json:"doctorNotes,omitempty" yaml:"doctor_notes,omitempty" validate:"max=200"`
}

// PatientProfile is the registration payload for a new patient.
type PatientProfile struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Address  string `json:"address" validate:"required,max=255"`
}

// DoctorProfile is the registration payload for a new doctor.
type DoctorProfile struct {
	Name      string `json:"name" validate:"required,min=3,max=100"`
	Specialty string `json:"specialty" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Phone     string `json:"phone" validate:"required,len=10,numeric"`
}

// LocalDateTimeLayout is the zone-less timestamp format the backend uses.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// ParseLocalDateTime parses a backend timestamp in the local time zone.
func ParseLocalDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(LocalDateTimeLayout, s, time.Local)
}
