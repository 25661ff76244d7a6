package commune

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/adresse-data/bal-pipeline/internal/fetcher"
)

// Default sources for administrative contours. Arrondissements are loaded on
// top of communes so that Paris/Lyon/Marseille district codes resolve too.
const (
	DefaultCommunesURL        = "http://etalab-datasets.geo.data.gouv.fr/contours-administratifs/latest/geojson/communes-100m.geojson"
	DefaultArrondissementsURL = "http://etalab-datasets.geo.data.gouv.fr/contours-administratifs/latest/geojson/arrondissements-municipaux-100m.geojson"
)

type contourEntry struct {
	nom      string
	geometry geom.T
}

// ContoursIndex is a Directory backed by the national administrative
// contours dataset, indexed by INSEE code.
type ContoursIndex struct {
	byCode map[string]contourEntry
}

// LoadContours fetches the contours feature collections and builds the index.
func LoadContours(ctx context.Context, f fetcher.Fetcher, urls ...string) (*ContoursIndex, error) {
	if len(urls) == 0 {
		urls = []string{DefaultCommunesURL, DefaultArrondissementsURL}
	}

	idx := &ContoursIndex{byCode: make(map[string]contourEntry)}
	for _, url := range urls {
		body, err := f.Download(ctx, url)
		if err != nil {
			return nil, eris.Wrapf(err, "commune: fetch contours %s", url)
		}
		err = idx.addCollection(body)
		_ = body.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "commune: index contours %s", url)
		}
	}

	zap.L().Info("commune contours loaded", zap.Int("communes", len(idx.byCode)))
	return idx, nil
}

func (idx *ContoursIndex) addCollection(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return eris.Wrap(err, "read body")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return eris.Wrap(err, "decode feature collection")
	}

	for _, feature := range fc.Features {
		code, _ := feature.Properties["code"].(string)
		if code == "" {
			continue
		}
		nom, _ := feature.Properties["nom"].(string)
		idx.byCode[code] = contourEntry{nom: nom, geometry: feature.Geometry}
	}

	return nil
}

// Nom implements Directory.
func (idx *ContoursIndex) Nom(code string) (string, bool) {
	entry, ok := idx.byCode[code]
	return entry.nom, ok
}

// Contour returns the administrative boundary geometry for the code.
func (idx *ContoursIndex) Contour(code string) (geom.T, bool) {
	entry, ok := idx.byCode[code]
	if !ok || entry.geometry == nil {
		return nil, false
	}
	return entry.geometry, true
}
