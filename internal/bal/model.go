// Package bal defines the normalized address entity graph exchanged through
// the pipeline: voies, numeros, toponymes and their typed positions.
package bal

import (
	"time"

	"github.com/google/uuid"
)

// SentinelNumero marks a row that carries street-level (or toponyme-level)
// data rather than a specific house number. Fixed protocol constant.
const SentinelNumero = 99999

// MaxNumero is the highest house number the canonical key can encode.
const MaxNumero = 99999

// PositionKind classifies what a position points at.
type PositionKind string

const (
	PositionEntree            PositionKind = "entrée"
	PositionDelivrancePostale PositionKind = "délivrance postale"
	PositionBatiment          PositionKind = "bâtiment"
	PositionCageEscalier      PositionKind = "cage d’escalier"
	PositionLogement          PositionKind = "logement"
	PositionParcelle          PositionKind = "parcelle"
	PositionSegment           PositionKind = "segment"
	PositionServiceTechnique  PositionKind = "service technique"
	PositionInconnue          PositionKind = "inconnue"
)

// positionKinds is the closed set of accepted kind labels.
var positionKinds = map[PositionKind]struct{}{
	PositionEntree:            {},
	PositionDelivrancePostale: {},
	PositionBatiment:          {},
	PositionCageEscalier:      {},
	PositionLogement:          {},
	PositionParcelle:          {},
	PositionSegment:           {},
	PositionServiceTechnique:  {},
	PositionInconnue:          {},
}

// Valid reports whether k is one of the recognized position kinds.
func (k PositionKind) Valid() bool {
	_, ok := positionKinds[k]
	return ok
}

// Position is a typed geographic point in geodetic degrees.
type Position struct {
	Kind   PositionKind `json:"type"`
	Source string       `json:"source,omitempty"`
	// Point is [longitude, latitude].
	Point [2]float64 `json:"point"`
}

// Voie is a named street or way within a commune.
type Voie struct {
	ID          uuid.UUID  `json:"id"`
	BalID       uuid.UUID  `json:"bal_id,omitzero"`
	CodeCommune string     `json:"code_commune"`
	Nom         string     `json:"nom"`
	Code        string     `json:"code,omitempty"` // legacy FANTOIR street code
	Positions   []Position `json:"positions,omitempty"`
	Updated     time.Time  `json:"updated,omitzero"`
}

// Numero is a house number attached to a voie, optionally cross-referenced
// to a toponyme.
type Numero struct {
	ID          uuid.UUID  `json:"id"`
	BalID       uuid.UUID  `json:"bal_id,omitzero"`
	CodeCommune string     `json:"code_commune"`
	VoieID      uuid.UUID  `json:"voie_id"`
	ToponymeID  uuid.UUID  `json:"toponyme_id,omitzero"`
	Numero      int        `json:"numero"`
	Suffixe     string     `json:"suffixe,omitempty"`
	Positions   []Position `json:"positions,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	Parcelles   []string   `json:"parcelles,omitempty"`
	Updated     time.Time  `json:"updated,omitzero"`
}

// Toponyme is a named place not tied to a specific house number.
type Toponyme struct {
	ID          uuid.UUID  `json:"id"`
	BalID       uuid.UUID  `json:"bal_id,omitzero"`
	CodeCommune string     `json:"code_commune"`
	Nom         string     `json:"nom"`
	Positions   []Position `json:"positions,omitempty"`
	Parcelles   []string   `json:"parcelles,omitempty"`
	Updated     time.Time  `json:"updated,omitzero"`
}
