package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mpdhub/internal/config"
	"mpdhub/internal/crypto"
	"mpdhub/internal/logging"
	"mpdhub/internal/store"
	"mpdhub/internal/version"
	"mpdhub/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the loaded configuration to subcommands.
type app struct {
	v   *viper.Viper
	cfg config.Config
}

var flagKeys = map[string]string{
	"db-path":        "db_path",
	"migrations-dir": "migrations_dir",
	"secret-key":     "secret_key",
	"log-level":      "log_level",
	"log-format":     "log_format",
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:           "mpdhub",
		Short:         "Manage and monitor MPD servers",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to a YAML/TOML/JSON config file.")
	pf.String("db-path", "", "SQLite database path.")
	pf.String("migrations-dir", "", "Directory of .sql migrations; embedded migrations when empty.")
	pf.String("secret-key", "", "Base64 32-byte key used to encrypt stored passwords.")
	pf.String("log-level", "", "debug, info, warn or error.")
	pf.String("log-format", "", "text, json or logfmt.")
	for flag, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newServeCmd(a), newImportCmd(a), newKeygenCmd())
	return root
}

// openStore opens and migrates the configured database.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	var opts []store.Option
	if a.cfg.SecretKey != "" {
		sealer, err := crypto.NewSealer(a.cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("loading secret key: %w", err)
		}
		opts = append(opts, store.WithSealer(sealer))
	}

	s, err := store.New(a.cfg.DBPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if a.cfg.MigrationsDir != "" {
		err = s.Migrate(a.cfg.MigrationsDir)
	} else {
		err = s.MigrateFS(migrations.FS)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}
