package balcsv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adresse-data/bal-pipeline/internal/bal"
)

func balCSV(rows ...string) string {
	lines := append([]string{
		"cle_interop;uid_adresse;voie_nom;numero;suffixe;commune_insee;commune_nom;position;long;lat;x;y;source;date_der_maj",
	}, rows...)
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestImport_Basic(t *testing.T) {
	input := balCSV(
		"54084_xxxx_00012_bis;;rue des peupliers;12;bis;54084;Mont-Bonvillers;entrée;5.835188;49.326038;906109.41;6917751.73;Mairie;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.Accepted)
	assert.Empty(t, result.Rejected)

	require.Len(t, result.Voies, 1)
	voie := result.Voies[0]
	assert.Equal(t, "54084", voie.CodeCommune)
	assert.Equal(t, "rue des peupliers", voie.Nom)
	assert.Equal(t, "xxxx", voie.Code)

	require.Len(t, result.Numeros, 1)
	numero := result.Numeros[0]
	assert.Equal(t, voie.ID, numero.VoieID)
	assert.Equal(t, 12, numero.Numero)
	assert.Equal(t, "bis", numero.Suffixe)
	assert.Equal(t, "2019-01-01", numero.Updated.Format("2006-01-02"))

	require.Len(t, numero.Positions, 1)
	assert.Equal(t, bal.PositionEntree, numero.Positions[0].Kind)
	assert.Equal(t, "Mairie", numero.Positions[0].Source)
	assert.Equal(t, [2]float64{5.835188, 49.326038}, numero.Positions[0].Point)
}

func TestImport_RoundTrip(t *testing.T) {
	voies, numeros := scenarioGraph()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, voies, numeros, nil, testDirectory))

	result, err := Import(&buf)
	require.NoError(t, err)
	require.True(t, result.IsValid)
	assert.Equal(t, 4, result.Accepted)
	assert.Empty(t, result.Rejected)

	require.Len(t, result.Voies, 2)
	assert.Equal(t, "allée des acacias", result.Voies[0].Nom)
	assert.Len(t, result.Voies[0].Positions, 1)
	assert.Equal(t, "rue des aulnes", result.Voies[1].Nom)
	assert.Empty(t, result.Voies[1].Positions)

	require.Len(t, result.Numeros, 2)
	for i, numero := range result.Numeros {
		assert.Equal(t, numeros[i].CodeCommune, numero.CodeCommune)
		assert.Equal(t, numeros[i].Numero, numero.Numero)
		assert.Equal(t, numeros[i].Suffixe, numero.Suffixe)
		assert.Len(t, numero.Positions, len(numeros[i].Positions))
	}
}

func TestImport_CollapsesSameKey(t *testing.T) {
	input := balCSV(
		"54084_xxxx_00012;;rue des peupliers;12;;54084;Mont-Bonvillers;entrée;5.835188;49.326038;;;Mairie;2019-01-01",
		"54084_xxxx_00012;;rue des peupliers;12;;54084;Mont-Bonvillers;bâtiment;5.8352;49.3261;;;Mairie;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)

	require.Len(t, result.Numeros, 1)
	assert.Len(t, result.Numeros[0].Positions, 2)
	assert.Equal(t, bal.PositionEntree, result.Numeros[0].Positions[0].Kind)
	assert.Equal(t, bal.PositionBatiment, result.Numeros[0].Positions[1].Kind)
}

func TestImport_CollapsesSameVoie(t *testing.T) {
	// Accent and case variants of a street name rebuild one voie.
	input := balCSV(
		"54084_alleedesacacias_00001;;Allée des Acacias;1;;54084;;;;;;;;2019-01-01",
		"54084_alleedesacacias_00002;;allee des acacias;2;;54084;;;;;;;;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Voies, 1)
	assert.Equal(t, "Allée des Acacias", result.Voies[0].Nom)
	assert.Len(t, result.Numeros, 2)
}

func TestImport_SentinelAttachesToVoie(t *testing.T) {
	input := balCSV(
		"54084_6789_99999;;allée des acacias;99999;;54084;;segment;5.834072;49.324156;;;Mairie;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)

	require.Len(t, result.Voies, 1)
	assert.Len(t, result.Voies[0].Positions, 1)
	assert.Equal(t, "2019-01-01", result.Voies[0].Updated.Format("2006-01-02"))
	assert.Empty(t, result.Numeros)
}

func TestImport_RejectsBadRows(t *testing.T) {
	input := balCSV(
		"54084_xxxx_00012;;rue des peupliers;12;;54084;;;;;;;;2019-01-01",
		"54084_xxxx_0000x;;rue des peupliers;not-a-number;;54084;;;;;;;;2019-01-01",
		"54084_xxxx_00013;;rue des peupliers;13;;;;;;;;;;2019-01-01",
		"54084_xxxx_00014;;rue des peupliers;14;;54084;;porte;5.8;49.3;;;Mairie;2019-01-01",
		"54084_xxxx_00015;;rue des peupliers;15;;54084;;entrée;east;49.3;;;Mairie;2019-01-01",
		"54084_xxxx_00016;;;16;;54084;;;;;;;;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, result.IsValid) // bad rows never invalidate the whole import
	assert.Equal(t, 1, result.Accepted)
	require.Len(t, result.Rejected, 5)

	reasons := make([]string, len(result.Rejected))
	for i, r := range result.Rejected {
		reasons[i] = r.Reason
	}
	assert.Equal(t, []string{
		"invalid numero",
		"empty commune_insee",
		"unknown position kind",
		"invalid longitude",
		"empty voie_nom",
	}, reasons)

	// Rejected rows carry their 1-based line numbers (header is line 1).
	assert.Equal(t, 3, result.Rejected[0].Line)
	assert.Equal(t, 7, result.Rejected[4].Line)
}

func TestImport_RejectsZeroNumero(t *testing.T) {
	// Valid numeros span 1 to 99999; zero is outside the domain, while the
	// upper bound stays reserved for street-level rows.
	input := balCSV(
		"54084_xxxx_00000;;rue des peupliers;0;;54084;;;;;;;;2019-01-01",
		"54084_xxxx_99999;;rue des peupliers;99999;;54084;;;;;;;;2019-01-01",
	)

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "invalid numero", result.Rejected[0].Reason)
	assert.Equal(t, 2, result.Rejected[0].Line)

	assert.Empty(t, result.Numeros)
	assert.Len(t, result.Voies, 1)
}

func TestImport_LineNumbersSpanQuotedNewlines(t *testing.T) {
	// A quoted commune_nom spanning two physical lines must not shift the
	// line numbers reported for later rejections.
	input := strings.Join([]string{
		"cle_interop;uid_adresse;voie_nom;numero;suffixe;commune_insee;commune_nom;position;long;lat;x;y;source;date_der_maj",
		"54084_xxxx_00012;;rue des peupliers;12;;54084;\"Mont-",
		"Bonvillers\";;;;;;;2019-01-01",
		"54084_xxxx_0000x;;rue des peupliers;not-a-number;;54084;;;;;;;;2019-01-01",
	}, "\r\n") + "\r\n"

	result, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Accepted)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "invalid numero", result.Rejected[0].Reason)
	assert.Equal(t, 4, result.Rejected[0].Line)
}

func TestImport_MissingHeader(t *testing.T) {
	input := "cle_interop;uid_adresse;numero\r\nx;;12\r\n"

	result, err := Import(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.False(t, result.IsValid)
}

func TestImport_EmptyInput(t *testing.T) {
	result, err := Import(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.False(t, result.IsValid)
}
