package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/balcsv"
	"github.com/adresse-data/bal-pipeline/internal/commune"
	"github.com/adresse-data/bal-pipeline/internal/fetcher"
)

var (
	normalizeInPath  string
	normalizeOutPath string
	normalizeOffline bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Re-emit a BAL CSV file in canonical form (dedup keys, canonical columns)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := os.Open(normalizeInPath)
		if err != nil {
			return eris.Wrap(err, "open input")
		}
		defer in.Close() //nolint:errcheck

		result, err := balcsv.Import(in)
		if err != nil {
			return eris.Wrap(err, "import csv")
		}

		var dir commune.Directory = commune.StaticDirectory{}
		if !normalizeOffline {
			f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:    cfg.HTTP.UserAgent,
				Timeout:      cfg.HTTP.Timeout(),
				MaxRetries:   cfg.HTTP.MaxRetries,
				RateLimiters: fetcher.DefaultRateLimiters(),
			})
			if idx, err := commune.LoadContours(cmd.Context(), f, cfg.Sources.CommunesURL, cfg.Sources.ArrondissementsURL); err == nil {
				dir = idx
			} else {
				zap.L().Warn("contours unavailable, commune names will be empty", zap.Error(err))
			}
		}

		out, err := os.Create(normalizeOutPath)
		if err != nil {
			return eris.Wrap(err, "create output")
		}
		defer out.Close() //nolint:errcheck

		if err := balcsv.Export(out, result.Voies, result.Numeros, result.Toponymes, dir); err != nil {
			return eris.Wrap(err, "export csv")
		}

		zap.L().Info("normalize complete",
			zap.String("in", normalizeInPath),
			zap.String("out", normalizeOutPath),
			zap.Int("accepted", result.Accepted),
			zap.Int("rejected", len(result.Rejected)),
		)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeInPath, "csv", "", "path to input BAL CSV (required)")
	normalizeCmd.Flags().StringVar(&normalizeOutPath, "out", "normalized.csv", "path to output CSV")
	normalizeCmd.Flags().BoolVar(&normalizeOffline, "offline", false, "skip the commune contours lookup")
	_ = normalizeCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(normalizeCmd)
}
