// Package cli wires the crewrate commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/okian/crewrate/internal/adapters/repository"
	service "github.com/okian/crewrate/internal/app"
	"github.com/okian/crewrate/internal/config"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "crewrate",
		Short: "Track worker performance ratings",
		Long: `crewrate records reviewer ratings of workers per job category and derives
an overall score, a status classification and per-category trends.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML config file (default: $"+config.EnvConfigPath+")")
	flags.StringVar(&o.logLevel, "log-level", "", "Override log level: debug, info, warn, error")
	flags.StringVar(&o.logFormat, "log-format", "", "Override log format: text or json")

	cmd.AddCommand(
		newServeCmd(o),
		newSeedCmd(o),
		newLocalCmd(o),
		newExportCmd(o),
		newReportCmd(o),
		newVersionCmd(),
	)
	return cmd
}

// init loads the configuration and sets up logging for every command.
func (o *rootOptions) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(cmd.Context(), o.configPath)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(cmd.ErrOrStderr()),
	); err != nil {
		return errors.Wrap(err, "initializing logging")
	}
	metrics.Configure(cfg.MetricsOptions()...)
	o.cfg = cfg
	return nil
}

// openStore opens the relational store named by the configuration.
func (o *rootOptions) openStore(ctx context.Context) (*repository.GormStore, error) {
	db := o.cfg.Database
	store, err := repository.Open(ctx, db.Driver, db.DSN,
		repository.WithMaxOpenConns(db.MaxOpenConns),
		repository.WithSQLLogging(db.LogSQL),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", db.Driver)
	}
	return store, nil
}

// newService opens the store and starts a service over it.
func (o *rootOptions) newService(ctx context.Context) (*service.Service, error) {
	store, err := o.openStore(ctx)
	if err != nil {
		return nil, err
	}
	svc := service.New(store,
		service.WithLogger(logger.Named("service")),
		service.WithSettings(service.SettingsFromConfig(o.cfg)),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "starting service")
	}
	return svc, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
