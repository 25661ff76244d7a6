package geostream

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/adresse-data/bal-pipeline/internal/bal"
)

// FeatureStream lazily yields one point Feature per voie, numero and
// toponyme that carries at least one position. Records without a usable
// position are skipped, not emitted as empty-geometry features. The stream
// is single-pass: it drains its cursors in order (voies, numeros, toponymes).
type FeatureStream struct {
	voies     Cursor[bal.Voie]
	numeros   Cursor[bal.Numero]
	toponymes Cursor[bal.Toponyme]
}

// NewFeatureStream builds a stream over the three record cursors. Any cursor
// may be nil, in which case that record kind is absent from the output.
func NewFeatureStream(voies Cursor[bal.Voie], numeros Cursor[bal.Numero], toponymes Cursor[bal.Toponyme]) *FeatureStream {
	return &FeatureStream{voies: voies, numeros: numeros, toponymes: toponymes}
}

// Next returns the next feature and true, or nil and false once all three
// cursors are exhausted.
func (s *FeatureStream) Next() (*geojson.Feature, bool, error) {
	for s.voies != nil {
		voie, ok, err := s.voies.Next()
		if err != nil {
			return nil, false, eris.Wrap(err, "geostream: read voie")
		}
		if !ok {
			s.voies = nil
			break
		}
		if len(voie.Positions) == 0 {
			continue
		}
		return &geojson.Feature{
			ID:       voie.ID.String(),
			Geometry: pointGeometry(voie.Positions[0]),
			Properties: map[string]any{
				"type":    "voie",
				"nom":     voie.Nom,
				"commune": voie.CodeCommune,
			},
		}, true, nil
	}

	for s.numeros != nil {
		numero, ok, err := s.numeros.Next()
		if err != nil {
			return nil, false, eris.Wrap(err, "geostream: read numero")
		}
		if !ok {
			s.numeros = nil
			break
		}
		if len(numero.Positions) == 0 {
			continue
		}
		return &geojson.Feature{
			ID:       numero.ID.String(),
			Geometry: pointGeometry(numero.Positions[0]),
			Properties: map[string]any{
				"type":    "numero",
				"numero":  numero.Numero,
				"suffixe": numero.Suffixe,
				"commune": numero.CodeCommune,
				"voie":    numero.VoieID.String(),
			},
		}, true, nil
	}

	for s.toponymes != nil {
		toponyme, ok, err := s.toponymes.Next()
		if err != nil {
			return nil, false, eris.Wrap(err, "geostream: read toponyme")
		}
		if !ok {
			s.toponymes = nil
			break
		}
		if len(toponyme.Positions) == 0 {
			continue
		}
		return &geojson.Feature{
			ID:       toponyme.ID.String(),
			Geometry: pointGeometry(toponyme.Positions[0]),
			Properties: map[string]any{
				"type":    "toponyme",
				"nom":     toponyme.Nom,
				"commune": toponyme.CodeCommune,
			},
		}, true, nil
	}

	return nil, false, nil
}

// Close closes the remaining cursors.
func (s *FeatureStream) Close() error {
	var firstErr error
	if s.voies != nil {
		if err := s.voies.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.numeros != nil {
		if err := s.numeros.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.toponymes != nil {
		if err := s.toponymes.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// pointGeometry builds the geodetic point for a position. No planar
// projection happens here; GeoJSON output stays in longitude/latitude.
func pointGeometry(p bal.Position) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Point[0], p.Point[1]})
}

// WriteFeatureCollection drains the stream into w as a single GeoJSON
// FeatureCollection, encoding features one at a time.
func WriteFeatureCollection(w io.Writer, s *FeatureStream) error {
	if _, err := io.WriteString(w, `{"type":"FeatureCollection","features":[`); err != nil {
		return eris.Wrap(err, "geostream: write prologue")
	}

	first := true
	for {
		feature, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		data, err := json.Marshal(feature)
		if err != nil {
			return eris.Wrap(err, "geostream: encode feature")
		}
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return eris.Wrap(err, "geostream: write separator")
			}
		}
		first = false
		if _, err := w.Write(data); err != nil {
			return eris.Wrap(err, "geostream: write feature")
		}
	}

	if _, err := io.WriteString(w, "]}\n"); err != nil {
		return eris.Wrap(err, "geostream: write epilogue")
	}
	return nil
}
