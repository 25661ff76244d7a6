package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/balcsv"
)

var validateCSVPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a BAL CSV file and report accepted/rejected rows",
	RunE: func(_ *cobra.Command, _ []string) error {
		file, err := os.Open(validateCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer file.Close() //nolint:errcheck

		result, err := balcsv.Import(file)
		if err != nil {
			fmt.Println("invalid: file is not usable BAL CSV")
			return err
		}

		zap.L().Info("validation complete",
			zap.String("csv", validateCSVPath),
			zap.Int("accepted", result.Accepted),
			zap.Int("rejected", len(result.Rejected)),
			zap.Int("voies", len(result.Voies)),
			zap.Int("numeros", len(result.Numeros)),
		)

		fmt.Printf("accepted: %d\nrejected: %d\n", result.Accepted, len(result.Rejected))
		for _, r := range result.Rejected {
			fmt.Printf("  line %d: %s\n", r.Line, r.Reason)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateCSVPath, "csv", "", "path to BAL CSV file (required)")
	_ = validateCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(validateCmd)
}
