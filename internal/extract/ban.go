package extract

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/bal"
	"github.com/adresse-data/bal-pipeline/internal/fetcher"
	"github.com/adresse-data/bal-pipeline/internal/normalize"
)

// maxBANNumero is the data-quality ceiling for house numbers in the national
// export; anything above it is noise.
const maxBANNumero = 5000

// banAdresse is one filtered row of the national export, before grouping.
type banAdresse struct {
	codeCommune string
	nomVoie     string
	numero      int
	suffixe     string
	positions   []bal.Position
}

// ExtractFromBAN downloads the department's gzip-compressed reference export,
// filters it to the commune and groups rows into voies by normalized street
// name. Failures here are fatal: there is no further fallback.
func (e *Extractor) ExtractFromBAN(ctx context.Context, codeCommune string) (*Result, error) {
	codeDepartement := DepartementCode(codeCommune)
	url := strings.ReplaceAll(e.opts.BANURLPattern, "<codeDepartement>", codeDepartement)

	body, err := e.fetcher.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "ban export %s: %v", codeDepartement, err)
	}
	defer body.Close() //nolint:errcheck

	decompressed, err := fetcher.Gunzip(body)
	if err != nil {
		return nil, eris.Wrapf(ErrSourceUnavailable, "ban export %s: %v", codeDepartement, err)
	}
	defer decompressed.Close() //nolint:errcheck

	recordCh, errCh := fetcher.StreamRecords(ctx, decompressed, fetcher.CSVOptions{})

	var adresses []banAdresse
	var total, kept int
	for record := range recordCh {
		total++
		adresse, ok := parseBANRecord(record, codeCommune)
		if !ok {
			continue
		}
		kept++
		adresses = append(adresses, adresse)
	}
	for err := range errCh {
		if err != nil {
			return nil, eris.Wrapf(ErrSourceUnavailable, "ban export %s: %v", codeDepartement, err)
		}
	}

	zap.L().Info("ban export filtered",
		zap.String("code_commune", codeCommune),
		zap.Int("rows", total),
		zap.Int("kept", kept),
	)

	return groupAdresses(adresses), nil
}

// parseBANRecord filters and converts one raw record. Rows outside the
// commune, without a street name, or with an unusable number are dropped.
func parseBANRecord(record map[string]string, codeCommune string) (banAdresse, bool) {
	if record["code_insee"] != codeCommune {
		return banAdresse{}, false
	}

	nomVoie := record["nom_voie"]
	numero, err := strconv.Atoi(strings.TrimSpace(record["numero"]))
	if nomVoie == "" || err != nil || numero == 0 || numero > maxBANNumero {
		return banAdresse{}, false
	}

	adresse := banAdresse{
		codeCommune: codeCommune,
		nomVoie:     nomVoie,
		numero:      numero,
		suffixe:     strings.ToLower(record["rep"]),
	}

	// A position only when the coordinate pair is complete and parseable.
	if record["lat"] != "" && record["lon"] != "" {
		lon, lonErr := strconv.ParseFloat(record["lon"], 64)
		lat, latErr := strconv.ParseFloat(record["lat"], 64)
		if lonErr == nil && latErr == nil {
			adresse.positions = append(adresse.positions, bal.Position{
				Kind:   bal.PositionInconnue,
				Source: "BAN",
				Point:  [2]float64{lon, lat},
			})
		}
	}

	return adresse, true
}

// groupAdresses is a pure group-by over the filtered rows: one voie per
// normalized street-name key, first-seen literal name kept, numeros
// deduplicated by (numero, suffixe) with the first occurrence winning.
func groupAdresses(adresses []banAdresse) *Result {
	result := &Result{}

	groupIndex := make(map[string]*bal.Voie)
	seen := make(map[string]map[string]struct{})

	for _, adresse := range adresses {
		key := normalize.NomKey(adresse.nomVoie)

		voie, ok := groupIndex[key]
		if !ok {
			voie = &bal.Voie{
				ID:          uuid.New(),
				CodeCommune: adresse.codeCommune,
				Nom:         adresse.nomVoie,
			}
			groupIndex[key] = voie
			seen[key] = make(map[string]struct{})
			result.Voies = append(result.Voies, *voie)
		}

		numeroKey := strconv.Itoa(adresse.numero) + adresse.suffixe
		if _, dup := seen[key][numeroKey]; dup {
			continue
		}
		seen[key][numeroKey] = struct{}{}

		result.Numeros = append(result.Numeros, bal.Numero{
			ID:          uuid.New(),
			CodeCommune: adresse.codeCommune,
			VoieID:      voie.ID,
			Numero:      adresse.numero,
			Suffixe:     adresse.suffixe,
			Positions:   adresse.positions,
		})
	}

	return result
}
