package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/adresse-data/bal-pipeline/internal/balcsv"
)

// extractFromRecovery fetches the per-commune archived export, already in the
// canonical CSV shape, and rebuilds its graph. Any failure comes back as
// ErrSourceUnavailable so the caller's fallback branch stays explicit.
func (e *Extractor) extractFromRecovery(ctx context.Context, codeCommune string) (*Result, error) {
	url := strings.ReplaceAll(e.opts.RecoveryURLPattern, "<codeCommune>", codeCommune)

	body, err := e.fetcher.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "recovery snapshot %s: %v", codeCommune, err)
	}
	defer body.Close() //nolint:errcheck

	imported, err := balcsv.Import(body)
	if err != nil || !imported.IsValid {
		return nil, eris.Wrapf(ErrSourceUnavailable, "recovery snapshot %s: unusable csv", codeCommune)
	}

	return &Result{Voies: imported.Voies, Numeros: imported.Numeros}, nil
}
