// Package commands implements the backofficectl command tree.
package commands

import (
	"github.com/erp/backoffice/internal/bootstrap"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/crypto"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Option customizes the root command
type Option func(*app)

// WithVersion sets the version reported by --version
func WithVersion(v string) Option {
	return func(a *app) { a.version = v }
}

// WithConfigLoader replaces config.Load
func WithConfigLoader(load func() (*config.Config, error)) Option {
	return func(a *app) { a.loadConfig = load }
}

// WithClock replaces the wall clock, used for migration timestamps
func WithClock(c shared.Clock) Option {
	return func(a *app) { a.clock = c }
}

// app carries what every subcommand needs. Config and logger are loaded
// once the command line parsed.
type app struct {
	version    string
	logLevel   string
	loadConfig func() (*config.Config, error)
	clock      shared.Clock

	cfg *config.Config
	log *zap.Logger
}

// NewRootCmd builds the backofficectl command tree
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		version:    "dev",
		loadConfig: config.Load,
		clock:      shared.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "backofficectl",
		Short: "Operate the back office database",
		Long: `backofficectl runs schema migrations, imports parties, adopts document
counters after imports, registers tenants and issues access tokens.

Configuration is read from config.toml and BACKOFFICE_ environment variables,
the same way the server reads it.`,
		Version:            a.version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to log.level")

	root.AddCommand(
		newMigrateCmd(a),
		newPartiesCmd(a),
		newSequencesCmd(a),
		newTenantsCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// openServices connects to the configured database and wires the services
func (a *app) openServices() (*bootstrap.Services, func(), error) {
	db, err := persistence.NewDatabase(&a.cfg.Database, persistence.Options{
		Logger:   a.log.Named("gorm"),
		LogLevel: logger.GormLevel(a.log.Level().String()),
	})
	if err != nil {
		return nil, nil, err
	}
	opts := bootstrap.Options{
		Logger:        a.log,
		Clock:         a.clock,
		MaxAttempts:   a.cfg.Numbering.MaxAttempts,
		RetryInterval: a.cfg.Numbering.RetryInterval,
	}
	// commands that never touch party fields run without a key
	if a.cfg.Crypto.Key != "" {
		key, err := a.cfg.Crypto.KeyBytes()
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if opts.Sealer, err = crypto.NewCipher(key); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	services := bootstrap.NewServices(db.DB, opts)
	return services, func() { _ = db.Close() }, nil
}
