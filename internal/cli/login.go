package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/clinic/internal/guard"
	"github.com/me/clinic/internal/session"
	"github.com/me/clinic/internal/validate"
	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newLoginCmd(o *options) *cobra.Command {
	var (
		roleName   string
		identifier string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a patient, doctor, or admin",
		Long: "Authenticate against the role's login endpoint and keep the session " +
			"for later commands. Patients and doctors log in with an email, admins with a username.",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(roleName)
			if err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if identifier == "" {
				if identifier, err = prompt(cmd.OutOrStdout(), in, role.IdentifierLabel()); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.OutOrStdout(), in, "Password"); err != nil {
					return err
				}
			}

			creds := model.Credentials{Identifier: identifier, Password: password}
			if err := validate.Credentials(creds, role); err != nil {
				return err
			}
			if err := o.app.Session.Login(cmd.Context(), creds, role); err != nil {
				return err
			}

			d := o.app.Navigate(guard.LoginPath)
			fmt.Fprintf(o.out(cmd), "Logged in as %s (%s).\n", identifier, role)
			if d.Kind == guard.Redirect {
				fmt.Fprintf(o.out(cmd), "Dashboard: %s\n", d.Target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&roleName, "role", "r", "", "Role to log in as (patient, doctor, admin)")
	cmd.Flags().StringVarP(&identifier, "identifier", "u", "", "Email (patient, doctor) or username (admin); prompted if omitted")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	cmd.MarkFlagRequired("role")
	return cmd
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprintf(w, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			was := o.app.Session.Snapshot()
			if err := o.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			o.app.ForceLogin()
			if was.IsAuthenticated() {
				fmt.Fprintf(o.out(cmd), "Logged out %s.\n", was.Identifier())
			} else {
				fmt.Fprintln(o.out(cmd), "Not logged in.")
			}
			return nil
		},
	}
}

type whoami struct {
	Identifier string     `json:"identifier" yaml:"identifier"`
	Role       model.Role `json:"role" yaml:"role"`
	Dashboard  string     `json:"dashboard" yaml:"dashboard"`
	LoggedInAt *time.Time `json:"logged_in_at,omitempty" yaml:"logged_in_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired    bool       `json:"expired" yaml:"expired"`
}

func newWhoamiCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := o.app.Session.Snapshot()
			if !snap.IsAuthenticated() {
				fmt.Fprintln(o.out(cmd), "Not logged in.")
				return nil
			}

			info := whoami{
				Identifier: snap.Identifier(),
				Role:       snap.Role(),
				Dashboard:  snap.Role().DashboardPath(),
			}
			if t := snap.Identity.LoggedInAt; !t.IsZero() {
				info.LoggedInAt = &t
			}
			// Opaque tokens carry no claims.
			if claims, err := session.ParseClaims(snap.Token); err == nil && !claims.ExpiresAt.IsZero() {
				info.ExpiresAt = &claims.ExpiresAt
				info.Expired = claims.Expired(time.Now())
			}

			return o.render(cmd, info, func(w io.Writer) {
				fmt.Fprintf(w, "Identifier:  %s\n", info.Identifier)
				fmt.Fprintf(w, "Role:        %s\n", info.Role)
				fmt.Fprintf(w, "Dashboard:   %s\n", info.Dashboard)
				if info.LoggedInAt != nil {
					fmt.Fprintf(w, "Logged in:   %s\n", humanize.Time(*info.LoggedInAt))
				}
				if info.ExpiresAt != nil {
					if info.Expired {
						fmt.Fprintf(w, "Token:       expired %s\n", humanize.Time(*info.ExpiresAt))
					} else {
						fmt.Fprintf(w, "Token:       expires %s\n", humanize.Time(*info.ExpiresAt))
					}
				}
			})
		},
	}
}
