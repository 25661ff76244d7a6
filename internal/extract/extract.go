// Package extract seeds a commune's address graph from external sources: a
// prior recovery snapshot when one exists, the national BAN export otherwise.
package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/bal"
	"github.com/adresse-data/bal-pipeline/internal/fetcher"
)

// ErrSourceUnavailable marks a network or decompression failure while
// fetching an external source. The recovery path swallows it and falls back;
// the BAN path propagates it to the caller.
var ErrSourceUnavailable = eris.New("extract: source unavailable")

// Default source URL templates. <codeDepartement> and <codeCommune> are
// substituted at fetch time.
const (
	DefaultBANURLPattern      = "https://adresse.data.gouv.fr/data/ban/adresses/latest/csv/adresses-<codeDepartement>.csv.gz"
	DefaultRecoveryURLPattern = "https://adresse.data.gouv.fr/data/sbg-recovery/<codeCommune>.csv"
)

// Result is an extracted, already-grouped address graph for one commune.
type Result struct {
	Voies   []bal.Voie
	Numeros []bal.Numero
}

// Options configures source locations.
type Options struct {
	BANURLPattern      string
	RecoveryURLPattern string
}

// Extractor fetches and normalizes third-party address exports.
type Extractor struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// New creates an Extractor over the given fetcher.
func New(f fetcher.Fetcher, opts Options) *Extractor {
	if opts.BANURLPattern == "" {
		opts.BANURLPattern = DefaultBANURLPattern
	}
	if opts.RecoveryURLPattern == "" {
		opts.RecoveryURLPattern = DefaultRecoveryURLPattern
	}
	return &Extractor{fetcher: f, opts: opts}
}

// Extract tries the recovery snapshot for the commune first and falls back
// to the national BAN export. Recovery failures are logged and swallowed;
// a BAN failure is fatal for the extraction.
func (e *Extractor) Extract(ctx context.Context, codeCommune string) (*Result, error) {
	result, err := e.extractFromRecovery(ctx, codeCommune)
	if err == nil {
		zap.L().Info("extracted from recovery snapshot",
			zap.String("code_commune", codeCommune),
			zap.Int("voies", len(result.Voies)),
			zap.Int("numeros", len(result.Numeros)),
		)
		return result, nil
	}

	zap.L().Info("no recovery data available, falling back to BAN",
		zap.String("code_commune", codeCommune),
		zap.Error(err),
	)

	return e.ExtractFromBAN(ctx, codeCommune)
}

// DepartementCode returns the department code containing a commune: the
// first two digits, or three for overseas departments (97x).
func DepartementCode(codeCommune string) string {
	if strings.HasPrefix(codeCommune, "97") && len(codeCommune) >= 3 {
		return codeCommune[:3]
	}
	if len(codeCommune) >= 2 {
		return codeCommune[:2]
	}
	return codeCommune
}
