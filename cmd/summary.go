package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/dataset"
	"github.com/riskatlas/riskmap-cli/internal/summary"
)

var summaryXLSX string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate the dataset into summary tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := dataset.Load(cfg.Dataset.Path, dataset.WithEncoding(cfg.Dataset.Encoding))
		if err != nil {
			return err
		}
		s := summary.Aggregate(records)

		if summaryXLSX != "" {
			if err := summary.WriteXLSX(s, summaryXLSX); err != nil {
				return err
			}
			zap.L().Info("summary workbook written",
				zap.String("path", summaryXLSX),
				zap.Int("records", len(records)),
			)
			return nil
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return eris.Wrap(err, "summary: marshal")
		}
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryXLSX, "xlsx", "", "write an xlsx workbook instead of JSON")
	rootCmd.AddCommand(summaryCmd)
}
