package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/me/clinic/internal/api"
	"github.com/me/clinic/internal/app"
	"github.com/me/clinic/internal/config"
	"github.com/me/clinic/internal/logging"
	"github.com/me/clinic/internal/store"
	"github.com/spf13/cobra"
)

// options carries the persistent flags and the objects built from them.
type options struct {
	configPath string
	server     string
	state      string
	debug      bool
	logLevel   string
	logFormat  string
	output     string

	cfg     config.ClientConfig
	logger  *slog.Logger
	storage *store.SQLiteStore
	app     *app.App
}

// Execute runs the CLI with os.Args and releases the state database.
func Execute() error {
	root, o := newRoot()
	defer o.close()
	return root.Execute()
}

func newRoot() (*cobra.Command, *options) {
	o := &options{}
	root := &cobra.Command{
		Use:   "clinic",
		Short: "clinic: command-line client for the clinic management service",
		Long: "clinic logs patients, doctors, and administrators into the clinic service " +
			"and runs the actions of each role's dashboard.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return o.close()
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", config.DefaultPath(), "Config file")
	pf.StringVar(&o.server, "server", "", "Clinic server URL (or CLINIC_SERVER env)")
	pf.StringVar(&o.state, "state", "", "Session state database (or CLINIC_STATE env)")
	pf.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format (text, json)")
	pf.StringVarP(&o.output, "output", "o", "table", "Output format (table, json, yaml)")

	root.AddCommand(
		newLoginCmd(o),
		newLogoutCmd(o),
		newWhoamiCmd(o),
		newRegisterCmd(o),
		newDashboardCmd(o),
		newHealthCmd(o),
		newPatientCmd(o),
		newDoctorCmd(o),
		newAdminCmd(o),
	)
	return root, o
}

// setup loads configuration, opens the state database, and restores the
// session. It runs once per invocation.
func (o *options) setup(cmd *cobra.Command) error {
	if o.app != nil {
		return nil
	}
	switch o.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want table, json, or yaml)", o.output)
	}

	cfg, err := config.Load(cmd.Context(), o.configPath)
	if err != nil {
		return err
	}
	if o.server != "" {
		cfg.Server = o.server
	}
	if o.state != "" {
		cfg.StatePath = o.state
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.debug {
		cfg.LogLevel = "debug"
	}
	o.cfg = cfg
	o.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())

	st, err := store.NewSQLiteStore(cfg.StatePath, o.logger)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return fmt.Errorf("migrate state: %w", err)
	}
	o.storage = st

	client := api.NewClient(cfg.Server, api.StoreTokens(st), o.logger, api.WithTimeout(cfg.Timeout))
	o.app = app.New(st, client, o.logger)
	if _, err := o.app.Boot(cmd.Context()); err != nil {
		o.logger.Warn("restore session", "error", err)
	}
	return nil
}

func (o *options) close() error {
	if o.storage == nil {
		return nil
	}
	err := o.storage.Close()
	o.storage = nil
	return err
}

func (o *options) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
