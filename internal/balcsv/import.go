package balcsv

import (
	"encoding/csv"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/bal"
	"github.com/adresse-data/bal-pipeline/internal/normalize"
)

// ErrMalformedInput marks CSV input that is structurally unusable (missing
// required header columns, unreadable header). Row-level problems never
// raise it; they accumulate as rejected rows instead.
var ErrMalformedInput = eris.New("balcsv: malformed input")

// requiredColumns must all be present in the header for an import to proceed.
var requiredColumns = []string{"voie_nom", "numero", "commune_insee"}

// RejectedRow reports one row excluded from the rebuilt graph.
type RejectedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result is the outcome of an import: the rebuilt entity graph plus the
// per-row accounting. IsValid is false only when the input as a whole was
// unusable; rejected rows alone do not invalidate an import.
type Result struct {
	IsValid   bool           `json:"is_valid"`
	Voies     []bal.Voie     `json:"voies"`
	Numeros   []bal.Numero   `json:"numeros"`
	Toponymes []bal.Toponyme `json:"toponymes"`
	Accepted  int            `json:"accepted"`
	Rejected  []RejectedRow  `json:"rejected"`
}

// Import parses canonical CSV from r and rebuilds the entity graph. Rows
// sharing a canonical key collapse into one numero with all their positions;
// rows naming the same street within a commune collapse into one voie.
// Sentinel rows (numero 99999) attach their position to the voie itself.
func Import(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		zap.L().Warn("bal import: unreadable header", zap.Error(err))
		return &Result{IsValid: false}, eris.Wrap(ErrMalformedInput, "unreadable header")
	}

	for _, col := range requiredColumns {
		if !slices.Contains(header, col) {
			zap.L().Warn("bal import: missing required column", zap.String("column", col))
			return &Result{IsValid: false}, eris.Wrapf(ErrMalformedInput, "missing column %s", col)
		}
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return &Result{IsValid: false}, eris.Wrap(ErrMalformedInput, "build decoder")
	}

	b := newGraphBuilder()
	result := &Result{IsValid: true}

	for {
		var row Row
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			result.Rejected = append(result.Rejected, RejectedRow{Line: recordLine(cr, err), Reason: "unparseable row"})
			continue
		}

		if reason, ok := b.add(row); !ok {
			line, _ := cr.FieldPos(0)
			result.Rejected = append(result.Rejected, RejectedRow{Line: line, Reason: reason})
			continue
		}
		result.Accepted++
	}

	result.Voies, result.Numeros = b.build()
	result.Toponymes = []bal.Toponyme{}
	return result, nil
}

// recordLine reports the physical line of the row that failed to decode.
// Quoted fields may span lines, so positions come from the reader, not from
// counting records. Parse errors carry their own line; for decode errors the
// reader has already consumed the record and FieldPos points at it.
func recordLine(cr *csv.Reader, err error) int {
	var pe *csv.ParseError
	if eris.As(err, &pe) {
		return pe.Line
	}
	line, _ := cr.FieldPos(0)
	return line
}

// graphBuilder accumulates accepted rows into voies and numeros, collapsing
// duplicate keys as it goes.
type graphBuilder struct {
	voies      []*bal.Voie
	voieIndex  map[string]*bal.Voie
	numeros    []*bal.Numero
	numeroKeys map[string]*bal.Numero
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		voieIndex:  make(map[string]*bal.Voie),
		numeroKeys: make(map[string]*bal.Numero),
	}
}

// add validates one row and folds it into the graph. On rejection it returns
// the reason and false.
func (b *graphBuilder) add(row Row) (string, bool) {
	codeCommune := strings.TrimSpace(row.CommuneINSEE)
	if codeCommune == "" {
		return "empty commune_insee", false
	}

	nomVoie := strings.TrimSpace(row.VoieNom)
	if nomVoie == "" {
		return "empty voie_nom", false
	}

	numero, err := strconv.Atoi(strings.TrimSpace(row.Numero))
	if err != nil || numero < 1 || numero > bal.MaxNumero {
		return "invalid numero", false
	}

	position, reason := parsePosition(row)
	if reason != "" {
		return reason, false
	}

	updated, _ := time.Parse(dateLayout, row.DateDerMaj)

	voie := b.voie(codeCommune, nomVoie, row.CleInterop)

	if numero == bal.SentinelNumero {
		if position != nil {
			voie.Positions = append(voie.Positions, *position)
		}
		if voie.Updated.IsZero() {
			voie.Updated = updated
		}
		return "", true
	}

	suffixe := strings.ToLower(strings.TrimSpace(row.Suffixe))
	key := codeCommune + "|" + normalize.NomKey(nomVoie) + "|" + strconv.Itoa(numero) + "|" + suffixe

	n, ok := b.numeroKeys[key]
	if !ok {
		n = &bal.Numero{
			ID:          uuid.New(),
			CodeCommune: codeCommune,
			VoieID:      voie.ID,
			Numero:      numero,
			Suffixe:     suffixe,
			Updated:     updated,
		}
		b.numeroKeys[key] = n
		b.numeros = append(b.numeros, n)
	}
	if position != nil {
		n.Positions = append(n.Positions, *position)
	}
	return "", true
}

// voie returns the voie for (commune, nom), creating it on first sight.
// The first-seen literal display name wins for the whole group.
func (b *graphBuilder) voie(codeCommune, nomVoie, cleInterop string) *bal.Voie {
	key := codeCommune + "|" + normalize.NomKey(nomVoie)
	if v, ok := b.voieIndex[key]; ok {
		return v
	}

	v := &bal.Voie{
		ID:          uuid.New(),
		CodeCommune: codeCommune,
		Nom:         nomVoie,
		Code:        voieCodeFromKey(cleInterop),
	}
	b.voieIndex[key] = v
	b.voies = append(b.voies, v)
	return v
}

func (b *graphBuilder) build() ([]bal.Voie, []bal.Numero) {
	voies := make([]bal.Voie, len(b.voies))
	for i, v := range b.voies {
		voies[i] = *v
	}
	numeros := make([]bal.Numero, len(b.numeros))
	for i, n := range b.numeros {
		numeros[i] = *n
	}
	return voies, numeros
}

// parsePosition extracts the optional position from a row. A row with any
// position field set must carry a recognized kind and a parseable finite
// coordinate pair.
func parsePosition(row Row) (*bal.Position, string) {
	if row.Position == "" && row.Long == "" && row.Lat == "" && row.Source == "" {
		return nil, ""
	}

	kind := bal.PositionKind(row.Position)
	if !kind.Valid() {
		return nil, "unknown position kind"
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(row.Long), 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, "invalid longitude"
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row.Lat), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return nil, "invalid latitude"
	}

	return &bal.Position{
		Kind:   kind,
		Source: row.Source,
		Point:  [2]float64{lon, lat},
	}, ""
}

// voieCodeFromKey recovers the voie segment from a cle_interop. The original
// casing of a legacy code is not recoverable; the lowercased form is kept.
func voieCodeFromKey(cle string) string {
	parts := strings.Split(cle, "_")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
