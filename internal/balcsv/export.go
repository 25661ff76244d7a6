package balcsv

import (
	"encoding/csv"
	"io"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/adresse-data/bal-pipeline/internal/bal"
	"github.com/adresse-data/bal-pipeline/internal/commune"
	"github.com/adresse-data/bal-pipeline/internal/normalize"
)

// Export writes the canonical CSV for the given entity graph to w, streaming
// one row at a time. Voies keep their input order; each voie's numeros follow
// it in their own input order, then its direct positions as sentinel rows.
// A voie with neither numeros nor positions still yields one blank sentinel
// row. Toponymes export the same way as numberless voies.
func Export(w io.Writer, voies []bal.Voie, numeros []bal.Numero, toponymes []bal.Toponyme, dir commune.Directory) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true
	enc := csvutil.NewEncoder(cw)

	// Header is part of the contract even for an empty dataset.
	if err := enc.EncodeHeader(Row{}); err != nil {
		return eris.Wrap(err, "balcsv: write header")
	}

	writeRow := func(p rowParams) error {
		row, err := createRow(p, dir)
		if err != nil {
			return err
		}
		if err := enc.Encode(row); err != nil {
			return eris.Wrap(err, "balcsv: write row")
		}
		return nil
	}

	// Attach each numero to its parent voie without disturbing input order.
	byVoie := make(map[uuid.UUID][]bal.Numero, len(voies))
	for _, n := range numeros {
		byVoie[n.VoieID] = append(byVoie[n.VoieID], n)
	}

	for _, voie := range voies {
		code := codeVoie(voie)

		for _, numero := range byVoie[voie.ID] {
			p := rowParams{
				codeCommune: numero.CodeCommune,
				codeVoie:    code,
				nomVoie:     voie.Nom,
				numero:      numero.Numero,
				suffixe:     numero.Suffixe,
				updated:     numero.Updated,
			}
			if len(numero.Positions) == 0 {
				if err := writeRow(p); err != nil {
					return err
				}
				continue
			}
			for i := range numero.Positions {
				p.position = &numero.Positions[i]
				if err := writeRow(p); err != nil {
					return err
				}
			}
		}

		p := rowParams{
			codeCommune: voie.CodeCommune,
			codeVoie:    code,
			nomVoie:     voie.Nom,
			numero:      bal.SentinelNumero,
			updated:     voie.Updated,
		}
		for i := range voie.Positions {
			p.position = &voie.Positions[i]
			if err := writeRow(p); err != nil {
				return err
			}
		}
		if len(byVoie[voie.ID]) == 0 && len(voie.Positions) == 0 {
			p.position = nil
			if err := writeRow(p); err != nil {
				return err
			}
		}
	}

	for _, toponyme := range toponymes {
		p := rowParams{
			codeCommune: toponyme.CodeCommune,
			codeVoie:    normalize.Slug(toponyme.Nom),
			nomVoie:     toponyme.Nom,
			numero:      bal.SentinelNumero,
			updated:     toponyme.Updated,
		}
		for i := range toponyme.Positions {
			p.position = &toponyme.Positions[i]
			if err := writeRow(p); err != nil {
				return err
			}
		}
		if len(toponyme.Positions) == 0 {
			if err := writeRow(p); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "balcsv: flush")
	}
	return nil
}
