package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/clinic/internal/api"
	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// render writes v as JSON or YAML, or calls table for the default format.
func (o *options) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	w := o.out(cmd)
	switch o.output {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		w.Write(data)
	default:
		table(w)
	}
	return nil
}

// fail turns a backend error into a message for the user.
func fail(action string, err error) error {
	if api.IsSessionInvalid(err) {
		return fmt.Errorf("%s: session expired, run 'clinic login' again: %w", action, api.ErrSessionInvalid)
	}
	var he *api.HTTPError
	if errors.As(err, &he) {
		return fmt.Errorf("%s: %s", action, he.Message)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// backendMessage returns the "message" of a JSON acknowledgement, or the
// body as text.
func backendMessage(body []byte) string {
	var ack struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &ack) == nil && ack.Message != "" {
		return ack.Message
	}
	var s string
	if json.Unmarshal(body, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}

// when formats an appointment time with a relative hint.
func when(a model.Appointment) string {
	t, err := a.Time()
	if err != nil {
		return a.AppointmentTime
	}
	return fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04"), humanize.Time(t))
}

// parseWhen accepts an appointment time with or without seconds and returns
// it in the backend's layout.
func parseWhen(s string) (string, error) {
	for _, layout := range []string{model.LocalDateTimeLayout, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(model.LocalDateTimeLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q (expected YYYY-MM-DDTHH:MM)", s)
}

func printAppointments(w io.Writer, appts []model.Appointment) {
	if len(appts) == 0 {
		fmt.Fprintln(w, "No appointments found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-36s  %-20s  %-20s  %s\n", "ID", "TIME", "DOCTOR", "PATIENT", "STATUS")
	fmt.Fprintf(w, "%-6s  %-36s  %-20s  %-20s  %s\n", "--", "----", "------", "-------", "------")
	for _, a := range appts {
		fmt.Fprintf(w, "%-6d  %-36s  %-20s  %-20s  %s\n", a.ID, when(a), a.DoctorName, a.PatientName, a.Status)
	}
}

func printDoctors(w io.Writer, doctors []model.Doctor) {
	if len(doctors) == 0 {
		fmt.Fprintln(w, "No doctors found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-24s  %-20s  %-28s  %s\n", "ID", "NAME", "SPECIALTY", "EMAIL", "AVAILABLE")
	fmt.Fprintf(w, "%-6s  %-24s  %-20s  %-28s  %s\n", "--", "----", "---------", "-----", "---------")
	for _, d := range doctors {
		fmt.Fprintf(w, "%-6d  %-24s  %-20s  %-28s  %s\n", d.ID, d.Name, d.Specialty, d.Email, strings.Join(d.AvailableTimes, ", "))
	}
}

func printPatients(w io.Writer, patients []model.Patient) {
	if len(patients) == 0 {
		fmt.Fprintln(w, "No patients found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-24s  %-28s  %-12s  %s\n", "ID", "NAME", "EMAIL", "PHONE", "ADDRESS")
	fmt.Fprintf(w, "%-6s  %-24s  %-28s  %-12s  %s\n", "--", "----", "-----", "-----", "-------")
	for _, p := range patients {
		fmt.Fprintf(w, "%-6d  %-24s  %-28s  %-12s  %s\n", p.ID, p.Name, p.Email, p.Phone, p.Address)
	}
}

func printPrescriptions(w io.Writer, ps []model.Prescription) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No prescriptions found.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-12s  %-20s  %-20s  %-10s  %s\n", "ID", "APPOINTMENT", "PATIENT", "MEDICATION", "DOSAGE", "NOTES")
	fmt.Fprintf(w, "%-36s  %-12s  %-20s  %-20s  %-10s  %s\n", "--", "-----------", "-------", "----------", "------", "-----")
	for _, p := range ps {
		fmt.Fprintf(w, "%-36s  %-12d  %-20s  %-20s  %-10s  %s\n", p.ID, p.AppointmentID, p.PatientName, p.Medication, p.Dosage, p.DoctorNotes)
	}
}
