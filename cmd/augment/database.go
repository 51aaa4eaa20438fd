package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-augment/pkg/store"
	"github.com/goliatone/go-augment/pkg/store/sqlstore"
)

type databaseFlags struct {
	driver string
	dsn    string
}

func (f *databaseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "sqlite", "Database driver: sqlite or pgx")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Database DSN; records, containers and users are read from it when set")
}

func (f *databaseFlags) enabled() bool {
	return f.dsn != ""
}

func (f *databaseFlags) open(ctx context.Context) (*sqlstore.Store, error) {
	dialect, ok := sqlstore.DialectFor(f.driver)
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", f.driver)
	}
	return sqlstore.Open(ctx, dialect, f.dsn)
}

func newImportCmd() *cobra.Command {
	var (
		data string
		db   databaseFlags
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the containers, records and users of a data document into a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fixture, err := store.LoadFixture(data)
			if err != nil {
				return err
			}
			target, err := db.open(ctx)
			if err != nil {
				return err
			}
			defer target.Close()

			for _, container := range fixture.Containers {
				if err := target.PutContainer(ctx, container); err != nil {
					return err
				}
			}
			for _, record := range fixture.Records {
				if err := target.Save(ctx, record); err != nil {
					return err
				}
			}
			for _, user := range fixture.Users {
				if err := target.PutUser(ctx, user); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d containers, %d records, %d users\n",
				len(fixture.Containers), len(fixture.Records), len(fixture.Users))
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Data document holding containers, records and users")
	db.register(cmd)
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
