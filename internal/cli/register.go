package cli

import (
	"fmt"

	"github.com/me/clinic/internal/validate"
	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newRegisterCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient or doctor account",
	}
	cmd.AddCommand(newRegisterPatientCmd(o), newRegisterDoctorCmd(o))
	return cmd
}

func newRegisterPatientCmd(o *options) *cobra.Command {
	var p model.PatientProfile
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Register a patient account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.register(cmd, p, model.RolePatient)
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&p.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&p.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&p.Phone, "phone", "", "10-digit phone number")
	cmd.Flags().StringVar(&p.Address, "address", "", "Postal address")
	return cmd
}

func newRegisterDoctorCmd(o *options) *cobra.Command {
	var d model.DoctorProfile
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Register a doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.register(cmd, d, model.RoleDoctor)
		},
	}
	cmd.Flags().StringVar(&d.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&d.Specialty, "specialty", "", "Medical specialty")
	cmd.Flags().StringVar(&d.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&d.Password, "password", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&d.Phone, "phone", "", "10-digit phone number")
	return cmd
}

func (o *options) register(cmd *cobra.Command, profile any, role model.Role) error {
	if err := validate.Struct(profile); err != nil {
		return err
	}
	body, err := o.app.Session.Register(cmd.Context(), profile, role)
	if err != nil {
		return err
	}
	if msg := backendMessage(body); msg != "" {
		fmt.Fprintln(o.out(cmd), msg)
	}
	fmt.Fprintf(o.out(cmd), "Log in with: clinic login --role %s\n", role)
	return nil
}
