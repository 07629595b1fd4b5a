package cli

import (
	"fmt"
	"io"

	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newPatientCmd(o *options) *cobra.Command {
	cmd := roleGroup(o, model.RolePatient, "Patient dashboard: appointments, doctors, and profile")
	cmd.AddCommand(
		newPatientAppointmentsCmd(o),
		newPatientDoctorsCmd(o),
		newPatientProfileCmd(o),
		newPatientBookCmd(o),
	)
	return cmd
}

func newPatientAppointmentsCmd(o *options) *cobra.Command {
	var condition, doctor string
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch condition {
			case "", "past", "future":
			default:
				return fmt.Errorf("invalid --condition %q (expected past or future)", condition)
			}
			token := o.app.Session.Snapshot().Token

			var (
				appts []model.Appointment
				err   error
			)
			if condition == "" && doctor == "" {
				appts, err = o.app.Client.PatientAppointments(cmd.Context(), token)
			} else {
				appts, err = o.app.Client.FilterPatientAppointments(cmd.Context(), token, doctor, condition)
			}
			if err != nil {
				return fail("list appointments", err)
			}
			return o.render(cmd, appts, func(w io.Writer) { printAppointments(w, appts) })
		},
	}
	cmd.Flags().StringVar(&condition, "condition", "", "Only past or future appointments")
	cmd.Flags().StringVar(&doctor, "doctor", "", "Only appointments with doctors matching this name")
	return cmd
}

func newPatientDoctorsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctors",
		Short: "List doctors available for booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctors, err := o.app.Client.ListDoctors(cmd.Context())
			if err != nil {
				return fail("list doctors", err)
			}
			return o.render(cmd, doctors, func(w io.Writer) { printDoctors(w, doctors) })
		},
	}
}

func newPatientProfileCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your patient profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.app.Client.PatientProfile(cmd.Context(), o.app.Session.Snapshot().Token)
			if err != nil {
				return fail("load profile", err)
			}
			return o.render(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "Name:     %s\n", p.Name)
				fmt.Fprintf(w, "Email:    %s\n", p.Email)
				fmt.Fprintf(w, "Phone:    %s\n", p.Phone)
				fmt.Fprintf(w, "Address:  %s\n", p.Address)
			})
		},
	}
}

func newPatientBookCmd(o *options) *cobra.Command {
	var (
		doctorID int64
		at       string
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment with a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseWhen(at)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			p, err := o.app.Client.PatientProfile(ctx, o.app.Session.Snapshot().Token)
			if err != nil {
				return fail("load profile", err)
			}
			d, err := o.app.Client.GetDoctor(ctx, doctorID)
			if err != nil {
				return fail("look up doctor", err)
			}

			body, err := o.app.Client.CreateAppointment(ctx, &model.Appointment{
				DoctorID:        d.ID,
				DoctorName:      d.Name,
				PatientID:       p.ID,
				PatientName:     p.Name,
				PatientEmail:    p.Email,
				AppointmentTime: slot,
				Status:          model.StatusPending,
			})
			if err != nil {
				return fail("book appointment", err)
			}
			fmt.Fprintln(o.out(cmd), backendMessage(body))
			return nil
		},
	}
	cmd.Flags().Int64Var(&doctorID, "doctor", 0, "Doctor ID (see 'clinic patient doctors')")
	cmd.Flags().StringVar(&at, "at", "", "Appointment time, YYYY-MM-DDTHH:MM")
	cmd.MarkFlagRequired("doctor")
	cmd.MarkFlagRequired("at")
	return cmd
}
