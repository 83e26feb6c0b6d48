package commands

import (
	"fmt"
	"strconv"

	"github.com/erp/backoffice/internal/infrastructure/migration"
	"github.com/spf13/cobra"
)

const defaultMigrationsDir = "migrations"

func newMigrateCmd(a *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back schema migrations.

Migrations compiled into the binary are used unless --path points at a
directory of .up.sql/.down.sql files.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Read migrations from this directory instead of the embedded set")

	withMigrator := func(fn func(cmd *cobra.Command, m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			src := migration.Embedded()
			if path != "" {
				src = migration.Source{Path: path}
			}
			m, err := migration.NewFromURL(a.cfg.Database.DSN(), src, a.log.Named("migrate"))
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			return fn(cmd, m, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(_ *cobra.Command, m *migration.Migrator, _ []string) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(_ *cobra.Command, m *migration.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return m.GoTo(v)
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Record VERSION as applied without running it, clearing the dirty flag",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}),
		},
		newMigrateCreateCmd(a),
		newMigrateListCmd(),
	)
	return cmd
}

func newMigrateCreateCmd(a *app) *cobra.Command {
	var dir, description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Write the next empty migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(dir, args[0], description, a.clock.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "Migrations directory")
	cmd.Flags().StringVarP(&description, "description", "d", "", "One line description written into the files")
	return cmd
}

func newMigrateListCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the migrations found in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listed, err := migration.ListMigrations(dir)
			if err != nil {
				return err
			}
			for _, m := range listed {
				fmt.Fprintf(cmd.OutOrStdout(), "%06d %s\n", m.Version, m.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "Migrations directory")
	return cmd
}

func parseVersion(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return uint(v), nil
}
