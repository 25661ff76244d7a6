package bal

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// EncodeKey builds the cle_interop identifying a numero across systems:
// <commune>_<voie code or slug, lowercased>_<5-digit numero>[_<suffixe>].
// The commune code keeps its original casing; voie code and suffixe are
// lowercased verbatim. The caller supplies a legacy code or a pre-slugged
// name; no diacritic stripping happens here.
func EncodeKey(codeCommune, codeVoie string, numero int, suffixe string) (string, error) {
	if codeCommune == "" {
		return "", eris.New("cle: commune code is required")
	}
	if codeVoie == "" {
		return "", eris.New("cle: voie code is required")
	}
	if numero < 0 || numero > MaxNumero {
		return "", eris.Errorf("cle: numero %d out of range [0,%d]", numero, MaxNumero)
	}

	key := fmt.Sprintf("%s_%s_%05d", codeCommune, strings.ToLower(codeVoie), numero)
	if suffixe != "" {
		key += "_" + strings.ToLower(suffixe)
	}
	return key, nil
}
