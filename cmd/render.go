package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/overlay"
)

var (
	renderAddress string
	renderOut     string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run one rendering pass and write the overlay as GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initRuntime()
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Runner.Run(cmd.Context(), renderAddress)
		if err != nil {
			return err
		}
		for _, w := range res.Overlay.Warnings {
			zap.L().Warn(w)
		}

		doc := map[string]any{
			"pass_id":  res.PassID,
			"center":   []float64{res.Overlay.Center.Lon, res.Overlay.Center.Lat},
			"zoom":     res.Overlay.Zoom,
			"features": overlay.EncodeGeoJSON(res.Overlay),
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return eris.Wrap(err, "render: marshal overlay")
		}

		if renderOut == "" || renderOut == "-" {
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(renderOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "render: write %s", renderOut)
		}
		zap.L().Info("overlay written",
			zap.String("path", renderOut),
			zap.Int("circles", len(res.Overlay.Circles)),
			zap.Int("polygons", len(res.Overlay.Polygons)),
		)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderAddress, "address", "", "address to center the map on")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(renderCmd)
}
