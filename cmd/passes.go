package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var passesLimit int

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List recent rendering passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Path == "" {
			return eris.New("passes: no store configured, set store.path")
		}

		env, err := initRuntime()
		if err != nil {
			return err
		}
		defer env.Close()

		passes, err := env.Store.RecentPasses(cmd.Context(), passesLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tID\tADDRESS\tMATCHED\tZOOM\tCIRCLES\tPOLYGONS")
		for _, p := range passes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\t%d\n",
				p.CreatedAt.Format("2006-01-02 15:04:05"),
				p.ID, p.Address, p.Matched, p.Zoom, p.Circles, p.Polygons)
		}
		return w.Flush()
	},
}

func init() {
	passesCmd.Flags().IntVar(&passesLimit, "limit", 20, "maximum rows to list")
	rootCmd.AddCommand(passesCmd)
}
