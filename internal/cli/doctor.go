package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/me/clinic/internal/validate"
	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newDoctorCmd(o *options) *cobra.Command {
	cmd := roleGroup(o, model.RoleDoctor, "Doctor dashboard: appointments and prescriptions")
	cmd.AddCommand(
		newDoctorAppointmentsCmd(o),
		newDoctorPrescriptionsCmd(o),
		newDoctorSetStatusCmd(o),
		newDoctorPrescribeCmd(o),
	)
	return cmd
}

func newDoctorAppointmentsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			appts, err := o.app.Client.DoctorAppointments(cmd.Context(), o.app.Session.Snapshot().Token)
			if err != nil {
				return fail("list appointments", err)
			}
			return o.render(cmd, appts, func(w io.Writer) { printAppointments(w, appts) })
		},
	}
}

func newDoctorPrescriptionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prescriptions",
		Short: "List prescriptions for your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			appts, err := o.app.Client.DoctorAppointments(ctx, o.app.Session.Snapshot().Token)
			if err != nil {
				return fail("list appointments", err)
			}
			mine := make(map[int64]bool, len(appts))
			for _, a := range appts {
				mine[a.ID] = true
			}

			all, err := o.app.Client.ListPrescriptions(ctx)
			if err != nil {
				return fail("list prescriptions", err)
			}
			out := make([]model.Prescription, 0, len(all))
			for _, p := range all {
				if mine[p.AppointmentID] {
					out = append(out, p)
				}
			}
			return o.render(cmd, out, func(w io.Writer) { printPrescriptions(w, out) })
		},
	}
}

func newDoctorSetStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <appointment-id> <pending|completed|cancelled>",
		Short: "Change an appointment's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid appointment id %q", args[0])
			}
			status, err := model.ParseAppointmentStatus(args[1])
			if err != nil {
				return err
			}
			if err := o.app.Client.SetAppointmentStatus(cmd.Context(), id, status); err != nil {
				return fail("update appointment", err)
			}
			fmt.Fprintf(o.out(cmd), "Appointment %d marked %s.\n", id, status)
			return nil
		},
	}
}

func newDoctorPrescribeCmd(o *options) *cobra.Command {
	var p model.Prescription
	cmd := &cobra.Command{
		Use:   "prescribe",
		Short: "Write a prescription for an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if p.PatientName == "" && p.AppointmentID != 0 {
				a, err := o.app.Client.GetAppointment(ctx, p.AppointmentID)
				if err != nil {
					return fail("look up appointment", err)
				}
				p.PatientName = a.PatientName
			}
			if err := validate.Struct(p); err != nil {
				return err
			}
			body, err := o.app.Client.CreatePrescription(ctx, &p)
			if err != nil {
				return fail("save prescription", err)
			}
			fmt.Fprintln(o.out(cmd), backendMessage(body))
			return nil
		},
	}
	cmd.Flags().Int64Var(&p.AppointmentID, "appointment", 0, "Appointment ID")
	cmd.Flags().StringVar(&p.PatientName, "patient", "", "Patient name (defaults to the appointment's patient)")
	cmd.Flags().StringVar(&p.Medication, "medication", "", "Medication")
	cmd.Flags().StringVar(&p.Dosage, "dosage", "", "Dosage")
	cmd.Flags().StringVar(&p.DoctorNotes, "notes", "", "Notes for the patient")
	cmd.MarkFlagRequired("appointment")
	return cmd
}
