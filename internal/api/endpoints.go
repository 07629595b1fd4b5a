package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/me/clinic/pkg/model"
)

func id(n int64) string { return strconv.FormatInt(n, 10) }

func seg(s string) string { return url.PathEscape(s) }

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.Get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// --- Patient ---

// PatientProfile returns the profile of the patient owning token.
func (c *Client) PatientProfile(ctx context.Context, token string) (*model.Patient, error) {
	return getJSON[*model.Patient](ctx, c, "/patient/me/"+seg(token))
}

// PatientAppointments lists the appointments of the patient owning token.
func (c *Client) PatientAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/patient/appointments/"+seg(token))
}

// FilterPatientAppointments narrows the patient's appointments by condition
// ("past" or "future"), doctor name, or both. Empty arguments are not filtered on.
func (c *Client) FilterPatientAppointments(ctx context.Context, token, doctorName, condition string) ([]model.Appointment, error) {
	var path string
	switch {
	case doctorName != "" && condition != "":
		path = fmt.Sprintf("/patient/appointments/filter/%s/%s/%s", seg(token), seg(doctorName), seg(condition))
	case condition != "":
		path = fmt.Sprintf("/patient/appointments/filter/condition/%s/%s", seg(token), seg(condition))
	case doctorName != "":
		path = fmt.Sprintf("/patient/appointments/filter/doctor/%s/%s", seg(token), seg(doctorName))
	default:
		return c.PatientAppointments(ctx, token)
	}
	return getJSON[[]model.Appointment](ctx, c, path)
}

// --- Doctor ---

// ListDoctors lists every doctor.
func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	return getJSON[[]model.Doctor](ctx, c, "/doctor/all")
}

// GetDoctor fetches one doctor.
func (c *Client) GetDoctor(ctx context.Context, doctorID int64) (*model.Doctor, error) {
	return getJSON[*model.Doctor](ctx, c, "/doctor/"+id(doctorID))
}

// UpdateDoctor replaces a doctor record.
func (c *Client) UpdateDoctor(ctx context.Context, d *model.Doctor) error {
	_, err := c.Put(ctx, "/doctor/"+id(d.ID), d)
	return err
}

// DeleteDoctor removes a doctor.
func (c *Client) DeleteDoctor(ctx context.Context, doctorID int64) error {
	_, err := c.Delete(ctx, "/doctor/"+id(doctorID))
	return err
}

// DoctorAppointments lists the appointments of the doctor owning token.
func (c *Client) DoctorAppointments(ctx context.Context, token string) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/doctor/appointments/"+seg(token))
}

// SetAppointmentStatus changes only the status of an appointment.
func (c *Client) SetAppointmentStatus(ctx context.Context, appointmentID int64, status model.AppointmentStatus) error {
	_, err := c.Put(ctx, "/appointment/"+id(appointmentID), map[string]any{"status": status})
	return err
}

// --- Admin ---

// AdminPatients lists every patient.
func (c *Client) AdminPatients(ctx context.Context) ([]model.Patient, error) {
	return getJSON[[]model.Patient](ctx, c, "/admin/patients")
}

// AdminDoctors lists every doctor.
func (c *Client) AdminDoctors(ctx context.Context) ([]model.Doctor, error) {
	return getJSON[[]model.Doctor](ctx, c, "/admin/doctors")
}

// AdminAppointments lists every appointment.
func (c *Client) AdminAppointments(ctx context.Context) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/admin/appointments")
}

// AdminDelete removes a patient, doctor, or appointment by kind.
func (c *Client) AdminDelete(ctx context.Context, kind string, recordID int64) error {
	switch kind {
	case "patient", "doctor", "appointment":
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	_, err := c.Delete(ctx, "/admin/"+kind+"/"+id(recordID))
	return err
}

// --- Appointment ---

// CreateAppointment books an appointment.
func (c *Client) CreateAppointment(ctx context.Context, a *model.Appointment) (json.RawMessage, error) {
	resp, err := c.Post(ctx, "/appointment/create", a)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// ListAppointments lists every appointment visible to the session.
func (c *Client) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/appointment/all")
}

// GetAppointment fetches one appointment.
func (c *Client) GetAppointment(ctx context.Context, appointmentID int64) (*model.Appointment, error) {
	return getJSON[*model.Appointment](ctx, c, "/appointment/"+id(appointmentID))
}

// UpdateAppointment replaces an appointment.
func (c *Client) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := c.Put(ctx, "/appointment/"+id(a.ID), a)
	return err
}

// DeleteAppointment removes an appointment.
func (c *Client) DeleteAppointment(ctx context.Context, appointmentID int64) error {
	_, err := c.Delete(ctx, "/appointment/"+id(appointmentID))
	return err
}

// AppointmentsByPatient lists a patient's appointments.
func (c *Client) AppointmentsByPatient(ctx context.Context, patientID int64) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/appointment/patient/"+id(patientID))
}

// AppointmentsByDoctor lists a doctor's appointments.
func (c *Client) AppointmentsByDoctor(ctx context.Context, doctorID int64) ([]model.Appointment, error) {
	return getJSON[[]model.Appointment](ctx, c, "/appointment/doctor/"+id(doctorID))
}

// --- Prescription ---

// CreatePrescription stores a prescription.
func (c *Client) CreatePrescription(ctx context.Context, p *model.Prescription) (json.RawMessage, error) {
	resp, err := c.Post(ctx, "/prescription/create", p)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// ListPrescriptions lists every prescription visible to the session.
func (c *Client) ListPrescriptions(ctx context.Context) ([]model.Prescription, error) {
	return getJSON[[]model.Prescription](ctx, c, "/prescription/all")
}

// GetPrescription fetches one prescription.
func (c *Client) GetPrescription(ctx context.Context, prescriptionID string) (*model.Prescription, error) {
	return getJSON[*model.Prescription](ctx, c, "/prescription/"+seg(prescriptionID))
}

// UpdatePrescription replaces a prescription.
func (c *Client) UpdatePrescription(ctx context.Context, p *model.Prescription) error {
	_, err := c.Put(ctx, "/prescription/"+seg(p.ID), p)
	return err
}

// DeletePrescription removes a prescription.
func (c *Client) DeletePrescription(ctx context.Context, prescriptionID string) error {
	_, err := c.Delete(ctx, "/prescription/"+seg(prescriptionID))
	return err
}

// PrescriptionsByPatient lists a patient's prescriptions.
func (c *Client) PrescriptionsByPatient(ctx context.Context, patientID int64) ([]model.Prescription, error) {
	return getJSON[[]model.Prescription](ctx, c, "/prescription/patient/"+id(patientID))
}

// PrescriptionsByDoctor lists prescriptions written by a doctor.
func (c *Client) PrescriptionsByDoctor(ctx context.Context, doctorID int64) ([]model.Prescription, error) {
	return getJSON[[]model.Prescription](ctx, c, "/prescription/doctor/"+id(doctorID))
}
