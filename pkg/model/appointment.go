package model

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the numeric appointment state used by the backend.
type AppointmentStatus int

const (
	StatusPending   AppointmentStatus = 0
	StatusCompleted AppointmentStatus = 1
	StatusCancelled AppointmentStatus = 2
)

// String returns the display name of the status.
func (s AppointmentStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseAppointmentStatus accepts a status name (case-insensitive) or its number.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "0":
		return StatusPending, nil
	case "completed", "1":
		return StatusCompleted, nil
	case "cancelled", "canceled", "2":
		return StatusCancelled, nil
	}
	return 0, fmt.Errorf("invalid appointment status %q (expected pending, completed, or cancelled)", s)
}

// Appointment is an appointment record as returned by the backend.
type Appointment struct {
	ID              int64             `json:"id,omitempty" yaml:"id,omitempty"`
	DoctorID        int64             `json:"doctorId" yaml:"doctor_id"`
	DoctorName      string            `json:"doctorName,omitempty" yaml:"doctor_name,omitempty"`
	PatientID       int64             `json:"patientId" yaml:"patient_id"`
	PatientName     string            `json:"patientName,omitempty" yaml:"patient_name,omitempty"`
	PatientEmail    string            `json:"patientEmail,omitempty" yaml:"patient_email,omitempty"`
	AppointmentTime string            `json:"appointmentTime" yaml:"appointment_time"`
	Status          AppointmentStatus `json:"status" yaml:"status"`
}

// Time parses AppointmentTime.
func (a *Appointment) Time() (time.Time, error) {
	return ParseLocalDateTime(a.AppointmentTime)
}
