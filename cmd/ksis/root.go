package main

import (
	"encoding/json"
	"io"

	"github.com/matteohorvath/ksis/internal/config"
	"github.com/matteohorvath/ksis/pkg/logger"
	"github.com/spf13/cobra"
)

// options is shared by every subcommand once the root has loaded config.
type options struct {
	cfg *config.Config
	out io.Writer
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "ksis",
		Short:         "Normalize scraped dance competition results into a relational store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			o.cfg = cfg
			o.out = cmd.OutOrStdout()

			// Logs go to stderr so stdout carries only command output.
			if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			return nil
		},
	}
	cmd.AddCommand(newIngestCmd(o))
	cmd.AddCommand(newServeCmd(o))
	cmd.AddCommand(newRankCmd(o))
	return cmd
}

// override replaces *dst with v when the flag was given.
func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
