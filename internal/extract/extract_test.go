package extract

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adresse-data/bal-pipeline/internal/bal"
)

// stubFetcher serves canned bodies per URL and records requested URLs.
type stubFetcher struct {
	bodies    map[string][]byte
	requested []string
}

func (f *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	f.requested = append(f.requested, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, eris.Errorf("http 404 from %s", url)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const banFixture = `code_insee;nom_voie;numero;rep;lat;lon
54084;Allée des Acacias;1;;49.324156;5.834072
54084;allee des acacias;2;BIS;49.3242;5.8341
54084;ALLÉE DES ACACIAS;1;;49.3243;5.8342
54084;rue des aulnes;4;;;
54084;rue des aulnes;4;;49.32;5.83
54084;;7;;49.32;5.83
54084;rue du moulin;zero;;49.32;5.83
54084;rue du moulin;0;;49.32;5.83
54084;rue du moulin;5001;;49.32;5.83
54085;rue voisine;3;;49.33;5.84
`

func testURLs() Options {
	return Options{
		BANURLPattern:      "http://fixture/ban/adresses-<codeDepartement>.csv.gz",
		RecoveryURLPattern: "http://fixture/recovery/<codeCommune>.csv",
	}
}

func TestExtractFromBAN(t *testing.T) {
	f := &stubFetcher{bodies: map[string][]byte{
		"http://fixture/ban/adresses-54.csv.gz": gzipped(t, banFixture),
	}}
	e := New(f, testURLs())

	result, err := e.ExtractFromBAN(context.Background(), "54084")
	require.NoError(t, err)

	// Accent/case variants collapse to one voie carrying the first-seen name.
	require.Len(t, result.Voies, 2)
	assert.Equal(t, "Allée des Acacias", result.Voies[0].Nom)
	assert.Equal(t, "rue des aulnes", result.Voies[1].Nom)
	assert.Equal(t, "54084", result.Voies[0].CodeCommune)

	// 1, 2 bis for the acacias; the duplicate 1 is dropped. One 4 for the
	// aulnes; the duplicate keeps the first (positionless) occurrence.
	require.Len(t, result.Numeros, 3)
	assert.Equal(t, 1, result.Numeros[0].Numero)
	assert.Equal(t, "", result.Numeros[0].Suffixe)
	assert.Equal(t, 2, result.Numeros[1].Numero)
	assert.Equal(t, "bis", result.Numeros[1].Suffixe)
	assert.Equal(t, 4, result.Numeros[2].Numero)
	assert.Empty(t, result.Numeros[2].Positions)

	assert.Equal(t, result.Voies[0].ID, result.Numeros[0].VoieID)
	assert.Equal(t, result.Voies[1].ID, result.Numeros[2].VoieID)

	// Positions come through as kind "inconnue" sourced "BAN".
	require.Len(t, result.Numeros[0].Positions, 1)
	assert.Equal(t, bal.PositionInconnue, result.Numeros[0].Positions[0].Kind)
	assert.Equal(t, "BAN", result.Numeros[0].Positions[0].Source)
	assert.Equal(t, [2]float64{5.834072, 49.324156}, result.Numeros[0].Positions[0].Point)
}

func TestExtract_FallsBackToBAN(t *testing.T) {
	f := &stubFetcher{bodies: map[string][]byte{
		"http://fixture/ban/adresses-54.csv.gz": gzipped(t, banFixture),
	}}
	e := New(f, testURLs())

	result, err := e.Extract(context.Background(), "54084")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Voies)

	require.Len(t, f.requested, 2)
	assert.Equal(t, "http://fixture/recovery/54084.csv", f.requested[0])
	assert.Equal(t, "http://fixture/ban/adresses-54.csv.gz", f.requested[1])
}

func TestExtract_PrefersRecovery(t *testing.T) {
	recovery := strings.Join([]string{
		"cle_interop;uid_adresse;voie_nom;numero;suffixe;commune_insee;commune_nom;position;long;lat;x;y;source;date_der_maj",
		"54084_6789_00006;;allée des acacias;6;;54084;Mont-Bonvillers;entrée;5.83315;49.324433;905967.72;6917567.98;Mairie;2019-02-05",
	}, "\r\n") + "\r\n"

	f := &stubFetcher{bodies: map[string][]byte{
		"http://fixture/recovery/54084.csv": []byte(recovery),
	}}
	e := New(f, testURLs())

	result, err := e.Extract(context.Background(), "54084")
	require.NoError(t, err)

	require.Len(t, f.requested, 1) // short-circuits, BAN never touched
	require.Len(t, result.Voies, 1)
	assert.Equal(t, "allée des acacias", result.Voies[0].Nom)
	require.Len(t, result.Numeros, 1)
	assert.Equal(t, 6, result.Numeros[0].Numero)
}

func TestExtract_UnusableRecoveryFallsBack(t *testing.T) {
	f := &stubFetcher{bodies: map[string][]byte{
		"http://fixture/recovery/54084.csv":     []byte("not;a;bal;file\n1;2;3;4\n"),
		"http://fixture/ban/adresses-54.csv.gz": gzipped(t, banFixture),
	}}
	e := New(f, testURLs())

	result, err := e.Extract(context.Background(), "54084")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Voies)
	require.Len(t, f.requested, 2)
}

func TestExtract_BANFailureIsFatal(t *testing.T) {
	f := &stubFetcher{bodies: map[string][]byte{}}
	e := New(f, testURLs())

	_, err := e.Extract(context.Background(), "54084")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestExtract_BANNotGzip(t *testing.T) {
	f := &stubFetcher{bodies: map[string][]byte{
		"http://fixture/ban/adresses-54.csv.gz": []byte("plain text, not gzip"),
	}}
	e := New(f, testURLs())

	_, err := e.ExtractFromBAN(context.Background(), "54084")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDepartementCode(t *testing.T) {
	assert.Equal(t, "54", DepartementCode("54084"))
	assert.Equal(t, "75", DepartementCode("75056"))
	assert.Equal(t, "974", DepartementCode("97410"))
	assert.Equal(t, "972", DepartementCode("97209"))
	assert.Equal(t, "2A", DepartementCode("2A004"))
}
