package cli

import (
	"fmt"
	"log/slog"

	"github.com/me/authkit/internal/config"
	"github.com/me/authkit/internal/logging"
	"github.com/me/authkit/internal/session"
	"github.com/me/authkit/internal/store"
	"github.com/me/authkit/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every command of one invocation.
type app struct {
	configFile string
	debug      bool

	cfg    config.ClientConfig
	logger *slog.Logger
	mgr    *session.Manager
}

// NewRootCmd creates the root cobra command for the authkit CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "authkit",
		Short: "authkit: session client for the shop auth API",
		Long: "authkit signs up, logs in and out against the auth API and keeps the\n" +
			"session in a local store so later commands can restore it.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		SilenceUsage: true,
	}

	def := config.DefaultClientConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (default ./authkit.yaml or ~/.authkit/authkit.yaml)")
	pf.String("server", def.ServerURL, "Auth API base URL (or AUTHKIT_SERVER env)")
	pf.String("store", def.StoreDriver, "Session store driver (sqlite, file, memory)")
	pf.String("store-path", "", "Session store path (default ~/.authkit/authkit.db or ~/.authkit/store.json)")
	pf.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	pf.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-format", def.LogFormat, "Log format (text, json)")

	root.AddCommand(
		newSignUpCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoAmICmd(a),
		newWatchCmd(a),
		newForgotPasswordCmd(a),
		newVerifyResetCmd(a),
		newResetPasswordCmd(a),
		newCustomersCmd(a),
	)

	return root
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"server":     "server",
	"store":      "store",
	"store-path": "store_path",
	"log-level":  "log_level",
	"log-format": "log_format",
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	v := config.NewClientViper(a.configFile)
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.LoadClientConfig(v)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// withSession wraps a command body with an open store and a session
// manager. The expiry timer is cancelled and the store closed when the body
// returns; a stored session stays in place for the next invocation.
func (a *app) withSession(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cmd.Context(), a.cfg.StoreOptions(), a.logger)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer st.Close()

		client := transport.NewClient(a.cfg.ServerURL, a.logger, transport.WithTimeout(a.cfg.Timeout))
		mgr, err := session.NewManager(session.Options{
			Transport: client,
			Store:     st,
			Navigator: session.NavigatorFunc(func(route string) {
				a.logger.Debug("navigate", "route", route)
			}),
			Logger:     a.logger,
			StorageKey: a.cfg.StorageKey,
		})
		if err != nil {
			return err
		}
		client.SetTokenSource(mgr.Token)
		defer mgr.Close()

		a.mgr = mgr
		return run(cmd, args)
	}
}
