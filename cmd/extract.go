package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adresse-data/bal-pipeline/internal/balcsv"
	"github.com/adresse-data/bal-pipeline/internal/commune"
	"github.com/adresse-data/bal-pipeline/internal/extract"
	"github.com/adresse-data/bal-pipeline/internal/fetcher"
)

var (
	extractCommunes []string
	extractOutDir   string
	extractOffline  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Seed communes from the recovery snapshot or the national BAN export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := os.MkdirAll(extractOutDir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.HTTP.UserAgent,
			Timeout:      cfg.HTTP.Timeout(),
			MaxRetries:   cfg.HTTP.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		})

		dir := communeDirectory(ctx, f)
		extractor := extract.New(f, extract.Options{
			BANURLPattern:      cfg.Sources.BANURLPattern,
			RecoveryURLPattern: cfg.Sources.RecoveryURLPattern,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Extract.MaxConcurrentCommunes)

		for _, codeCommune := range extractCommunes {
			g.Go(func() error {
				result, err := extractor.Extract(gctx, codeCommune)
				if err != nil {
					return eris.Wrapf(err, "extract commune %s", codeCommune)
				}

				path := filepath.Join(extractOutDir, codeCommune+".csv")
				out, err := os.Create(path)
				if err != nil {
					return eris.Wrap(err, "create output file")
				}
				defer out.Close() //nolint:errcheck

				if err := balcsv.Export(out, result.Voies, result.Numeros, nil, dir); err != nil {
					return eris.Wrapf(err, "export commune %s", codeCommune)
				}

				zap.L().Info("commune extracted",
					zap.String("code_commune", codeCommune),
					zap.Int("voies", len(result.Voies)),
					zap.Int("numeros", len(result.Numeros)),
					zap.String("path", path),
				)
				return nil
			})
		}

		return g.Wait()
	},
}

// communeDirectory loads the national contours index, falling back to an
// empty static table when offline or when the fetch fails.
func communeDirectory(ctx context.Context, f fetcher.Fetcher) commune.Directory {
	if extractOffline {
		return commune.StaticDirectory{}
	}

	idx, err := commune.LoadContours(ctx, f, cfg.Sources.CommunesURL, cfg.Sources.ArrondissementsURL)
	if err != nil {
		zap.L().Warn("contours unavailable, commune names will be empty", zap.Error(err))
		return commune.StaticDirectory{}
	}
	return idx
}

func init() {
	extractCmd.Flags().StringSliceVar(&extractCommunes, "commune", nil, "INSEE commune code (repeatable)")
	extractCmd.Flags().StringVar(&extractOutDir, "out", ".", "output directory for <commune>.csv files")
	extractCmd.Flags().BoolVar(&extractOffline, "offline", false, "skip the commune contours lookup")
	_ = extractCmd.MarkFlagRequired("commune")
	rootCmd.AddCommand(extractCmd)
}
