package main

import (
	"fmt"
	"text/tabwriter"

	service "github.com/matteohorvath/ksis/internal/app"
	"github.com/spf13/cobra"
)

func newRankCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <round name>...",
		Short: "Print the hierarchy rank of each round name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			h, err := service.NewHierarchy(o.cfg.RoundLevels)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
			for _, name := range args {
				r := h.Rank(name)
				if v, ok := r.Value(); ok {
					canonical, _ := h.Name(r)
					fmt.Fprintf(tw, "%s\t%d\t%s\n", name, v, canonical)
					continue
				}
				fmt.Fprintf(tw, "%s\tunknown\t\n", name)
			}
			return tw.Flush()
		},
	}
}
