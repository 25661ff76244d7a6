// Package balcsv encodes and decodes the canonical BAL 1.1 CSV interchange
// format: one semicolon-delimited row per numero position, CRLF line endings,
// Lambert-93 planar coordinates alongside the geodetic pair.
package balcsv

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/bal"
	"github.com/adresse-data/bal-pipeline/internal/commune"
	"github.com/adresse-data/bal-pipeline/internal/normalize"
	"github.com/adresse-data/bal-pipeline/internal/projection"
)

// dateLayout is the calendar-date format of the date_der_maj column.
const dateLayout = "2006-01-02"

// Row is one line of the canonical CSV format. Field order defines the
// header order, which is part of the interchange contract.
type Row struct {
	CleInterop   string `csv:"cle_interop"`
	UIDAdresse   string `csv:"uid_adresse"`
	VoieNom      string `csv:"voie_nom"`
	Numero       string `csv:"numero"`
	Suffixe      string `csv:"suffixe"`
	CommuneINSEE string `csv:"commune_insee"`
	CommuneNom   string `csv:"commune_nom"`
	Position     string `csv:"position"`
	Long         string `csv:"long"`
	Lat          string `csv:"lat"`
	X            string `csv:"x"`
	Y            string `csv:"y"`
	Source       string `csv:"source"`
	DateDerMaj   string `csv:"date_der_maj"`
}

// rowParams carries everything needed to build one Row.
type rowParams struct {
	codeCommune string
	codeVoie    string
	nomVoie     string
	numero      int
	suffixe     string
	updated     time.Time
	position    *bal.Position
}

// formatCoord serializes a coordinate as plain decimal text, shortest form.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// createRow builds a canonical Row. The commune display name comes from the
// injected directory; an unknown code yields an empty commune_nom.
func createRow(p rowParams, dir commune.Directory) (Row, error) {
	key, err := bal.EncodeKey(p.codeCommune, p.codeVoie, p.numero, p.suffixe)
	if err != nil {
		return Row{}, eris.Wrap(err, "balcsv: encode key")
	}

	nomCommune, ok := dir.Nom(p.codeCommune)
	if !ok {
		zap.L().Debug("commune name not found", zap.String("code_commune", p.codeCommune))
	}

	row := Row{
		CleInterop:   key,
		VoieNom:      p.nomVoie,
		Numero:       strconv.Itoa(p.numero),
		Suffixe:      p.suffixe,
		CommuneINSEE: p.codeCommune,
		CommuneNom:   nomCommune,
	}
	if !p.updated.IsZero() {
		row.DateDerMaj = p.updated.Format(dateLayout)
	}

	if p.position != nil {
		lon, lat := p.position.Point[0], p.position.Point[1]
		row.Position = string(p.position.Kind)
		row.Source = p.position.Source
		row.Long = formatCoord(lon)
		row.Lat = formatCoord(lat)

		x, y, err := projection.Project(lon, lat)
		if err != nil {
			zap.L().Warn("position not projectable",
				zap.String("cle_interop", key),
				zap.Error(err),
			)
		} else {
			row.X = formatCoord(x)
			row.Y = formatCoord(y)
		}
	}

	return row, nil
}

// codeVoie returns the key segment identifying a voie: the legacy street
// code when the dataset carries one, a slug of the display name otherwise.
func codeVoie(v bal.Voie) string {
	if v.Code != "" {
		return v.Code
	}
	return normalize.Slug(v.Nom)
}
