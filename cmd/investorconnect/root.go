package main

import (
	"context"
	"fmt"
	"time"

	"investorconnect/internal/app/detail"
	"investorconnect/internal/app/diagnostics"
	"investorconnect/internal/app/listing"
	"investorconnect/internal/app/session"
	"investorconnect/internal/app/submission"
	"investorconnect/internal/app/views"
	"investorconnect/internal/client/api"
	"investorconnect/internal/client/identity"
	"investorconnect/internal/client/settings"
	"investorconnect/internal/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// readyTimeout bounds session restoration at start-up
const readyTimeout = 10 * time.Second

var (
	configFile string
	cfg        = viper.New()

	// rt is built by PersistentPreRunE for every command
	rt *runtime
)

// runtime holds the components shared by every command
type runtime struct {
	settings settings.Settings
	log      *zap.Logger
	identity *identity.Client
	session  *session.Store
	app      *views.App
}

var rootCmd = &cobra.Command{
	Use:   "investorconnect",
	Short: "InvestorConnect command-line client",
	Long: `InvestorConnect connects investors, business owners, bankers and advisors.

Pages are opened by route, for example:
  investorconnect open /business-proposals?category=Technology
  investorconnect open /loan-details/<id>

Run "investorconnect open /" to start.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(cfg, configFile)
		if err != nil {
			return err
		}
		r, err := newRuntime(cmd.Context(), s, cmd)
		if err != nil {
			return err
		}
		rt = r
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default ~/.investorconnect/config.yaml)")
	flags.String("api-url", "", "backend API base URL")
	flags.Duration("timeout", 0, "HTTP request timeout")
	flags.String("session-file", "", "where the signed-in session is kept")
	flags.String("persist-mode", "", "form persistence: write or legacy")
	flags.String("log-level", "", "debug, info, warn or error")

	_ = cfg.BindPFlag(settings.KeyAPIURL, flags.Lookup("api-url"))
	_ = cfg.BindPFlag(settings.KeyAPITimeout, flags.Lookup("timeout"))
	_ = cfg.BindPFlag(settings.KeySessionFile, flags.Lookup("session-file"))
	_ = cfg.BindPFlag(settings.KeyPersistMode, flags.Lookup("persist-mode"))
	_ = cfg.BindPFlag(settings.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(openCmd, registerCmd, loginCmd, logoutCmd, whoamiCmd, submitCmd)
}

func newRuntime(ctx context.Context, s settings.Settings, cmd *cobra.Command) (*runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(s.LogLevel, s.LogFormat)
	log.Debug("configuration loaded",
		zap.String("config_file", s.ConfigFile),
		zap.String("api_url", s.APIURL),
		zap.String("persist_mode", string(s.PersistMode)))

	apiClient := api.New(s.APIURL, s.APITimeout)
	idClient := identity.NewClient(apiClient, s.SessionFile, log.Named("identity"))
	store := api.NewDocumentStore(apiClient, idClient)

	sess := session.New(idClient, store, log.Named("session"))
	sess.Start(ctx)

	r := &runtime{settings: s, log: log, identity: idClient, session: sess}

	if err := idClient.Restore(ctx); err != nil {
		log.Warn("could not restore session", zap.Error(err))
	}
	waitCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := sess.WaitReady(waitCtx); err != nil {
		r.close()
		return nil, fmt.Errorf("session not ready: %w", err)
	}

	r.app = views.New(views.Deps{
		Session: sess,
		Store:   store,
		Fetcher: listing.NewFetcher(store, log.Named("listing")),
		Loader:  detail.NewLoader(store, log.Named("detail")),
		Form:    submission.NewForm(store, s.PersistMode, log.Named("submission")),
		Probe:   diagnostics.NewProbe(store, sess.Ready, log.Named("diagnostics")),
		Log:     log,
	}, cmd.OutOrStdout())
	return r, nil
}

// closeRuntime releases whatever PersistentPreRunE built, whether or not
// the command succeeded.
func closeRuntime() {
	if rt != nil {
		rt.close()
		rt = nil
	}
}

func (r *runtime) close() {
	r.session.Close()
	r.identity.Close()
	_ = r.log.Sync()
}
