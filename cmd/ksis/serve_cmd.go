package main

import (
	service "github.com/matteohorvath/ksis/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(o *options) *cobra.Command {
	var addr, db string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalized store read-only over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			override(&o.cfg.Addr, addr)
			override(&o.cfg.DatabasePath, db)

			ctx := cmd.Context()
			svc, err := service.New(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer svc.Stop(ctx)
			return svc.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides addr)")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path (overrides database_path)")
	return cmd
}
