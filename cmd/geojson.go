package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/balcsv"
	"github.com/adresse-data/bal-pipeline/internal/geostream"
)

var (
	geojsonInPath  string
	geojsonOutPath string
)

var geojsonCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Convert a BAL CSV file to a GeoJSON feature collection",
	RunE: func(_ *cobra.Command, _ []string) error {
		in, err := os.Open(geojsonInPath)
		if err != nil {
			return eris.Wrap(err, "open input")
		}
		defer in.Close() //nolint:errcheck

		result, err := balcsv.Import(in)
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		out, err := os.Create(geojsonOutPath)
		if err != nil {
			return eris.Wrap(err, "create output")
		}
		defer out.Close() //nolint:errcheck

		stream := geostream.NewFeatureStream(
			geostream.NewSliceCursor(result.Voies),
			geostream.NewSliceCursor(result.Numeros),
			geostream.NewSliceCursor(result.Toponymes),
		)
		defer stream.Close() //nolint:errcheck

		if err := geostream.WriteFeatureCollection(out, stream); err != nil {
			return eris.Wrap(err, "write feature collection")
		}

		zap.L().Info("geojson written",
			zap.String("in", geojsonInPath),
			zap.String("out", geojsonOutPath),
			zap.Int("voies", len(result.Voies)),
			zap.Int("numeros", len(result.Numeros)),
		)
		return nil
	},
}

func init() {
	geojsonCmd.Flags().StringVar(&geojsonInPath, "csv", "", "path to input BAL CSV (required)")
	geojsonCmd.Flags().StringVar(&geojsonOutPath, "out", "adresses.geojson", "path to output GeoJSON")
	_ = geojsonCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(geojsonCmd)
}
