package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newAdminCmd(o *options) *cobra.Command {
	cmd := roleGroup(o, model.RoleAdmin, "Admin dashboard: manage patients, doctors, and appointments")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "patients",
			Short: "List all patients",
			RunE: func(cmd *cobra.Command, args []string) error {
				patients, err := o.app.Client.AdminPatients(cmd.Context())
				if err != nil {
					return fail("list patients", err)
				}
				return o.render(cmd, patients, func(w io.Writer) { printPatients(w, patients) })
			},
		},
		&cobra.Command{
			Use:   "doctors",
			Short: "List all doctors",
			RunE: func(cmd *cobra.Command, args []string) error {
				doctors, err := o.app.Client.AdminDoctors(cmd.Context())
				if err != nil {
					return fail("list doctors", err)
				}
				return o.render(cmd, doctors, func(w io.Writer) { printDoctors(w, doctors) })
			},
		},
		&cobra.Command{
			Use:   "appointments",
			Short: "List all appointments",
			RunE: func(cmd *cobra.Command, args []string) error {
				appts, err := o.app.Client.AdminAppointments(cmd.Context())
				if err != nil {
					return fail("list appointments", err)
				}
				return o.render(cmd, appts, func(w io.Writer) { printAppointments(w, appts) })
			},
		},
		newAdminDeleteCmd(o),
	)
	return cmd
}

func newAdminDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:       "delete <patient|doctor|appointment> <id>",
		Short:     "Delete a record",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"patient", "doctor", "appointment"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid %s id %q", kind, args[1])
			}
			if err := o.app.Client.AdminDelete(cmd.Context(), kind, id); err != nil {
				return fail("delete "+kind, err)
			}
			fmt.Fprintf(o.out(cmd), "Deleted %s %d.\n", kind, id)
			return nil
		},
	}
}
