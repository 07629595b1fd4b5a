package cli

import (
	"fmt"

	"github.com/me/clinic/internal/guard"
	"github.com/me/clinic/pkg/model"
	"github.com/spf13/cobra"
)

func newDashboardCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard [path]",
		Short: "Show where a route leads for the current session",
		Long:  "Resolve a route (default \"/\") through the route guard and print the resulting location.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			d := o.app.Navigate(path)
			w := o.out(cmd)
			fmt.Fprintf(w, "%s -> %s (%s)\n", path, o.app.Location(), d.Kind)
			if o.app.Location() == guard.LoginPath {
				fmt.Fprintln(w, "Not logged in for this view. Run 'clinic login --role <patient|doctor|admin>'.")
			}
			return nil
		},
	}
}

func newHealthCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the clinic service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := o.app.Client.Health(cmd.Context())
			if err != nil {
				return fail("health check", err)
			}
			fmt.Fprintf(o.out(cmd), "%s: %s\n", o.cfg.Server, backendMessage(body))
			return nil
		},
	}
}

// roleGroup creates the command group for one dashboard. Its subcommands
// run only when the guard admits the current session to that dashboard.
func roleGroup(o *options, role model.Role, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(role),
		Short: short,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := o.setup(cmd); err != nil {
				return err
			}
			return o.enter(role)
		},
	}
}

func (o *options) enter(role model.Role) error {
	d := o.app.Navigate(role.DashboardPath())
	if d.Kind == guard.Allow {
		return nil
	}
	snap := o.app.Session.Snapshot()
	if snap.IsAuthenticated() {
		return fmt.Errorf("%s dashboard requires a %s session, logged in as %s; run 'clinic login --role %s'",
			role, role, snap.Role(), role)
	}
	return fmt.Errorf("not logged in; run 'clinic login --role %s'", role)
}
