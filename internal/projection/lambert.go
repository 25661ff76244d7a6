// Package projection converts geodetic WGS84 coordinates to the Lambert-93
// planar reference (EPSG:2154) used by legacy French address consumers.
package projection

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrInvalidCoordinate is returned when a geodetic input is non-finite or
// outside the valid longitude/latitude ranges.
var ErrInvalidCoordinate = eris.New("projection: invalid coordinate")

// Lambert-93: Lambert Conformal Conic (2SP) on the GRS80 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1 / 298.257222101

	falseEasting  = 700000.0
	falseNorthing = 6600000.0
)

var (
	ecc = math.Sqrt(2*flattening - flattening*flattening)

	latOrigin = radians(46.5)
	lonOrigin = radians(3)
	parallel1 = radians(44)
	parallel2 = radians(49)

	coneN, coneF, radiusOrigin = coneConstants()
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// isoT is the isometric latitude function t(phi) of the LCC-2SP formulas.
func isoT(phi float64) float64 {
	esin := ecc * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-esin)/(1+esin), ecc/2)
}

// gridM is the scale function m(phi) of the LCC-2SP formulas.
func gridM(phi float64) float64 {
	sin := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-ecc*ecc*sin*sin)
}

func coneConstants() (n, f, r0 float64) {
	m1 := gridM(parallel1)
	m2 := gridM(parallel2)
	t1 := isoT(parallel1)
	t2 := isoT(parallel2)

	n = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f = m1 / (n * math.Pow(t1, n))
	r0 = semiMajor * f * math.Pow(isoT(latOrigin), n)
	return n, f, r0
}

// Project converts a geodetic (longitude, latitude) pair in degrees to
// Lambert-93 planar coordinates, rounded to 2 decimals.
func Project(lon, lat float64) (x, y float64, err error) {
	if !isFinite(lon) || !isFinite(lat) || math.Abs(lon) > 180 || math.Abs(lat) > 90 {
		return 0, 0, eris.Wrapf(ErrInvalidCoordinate, "lon=%v lat=%v", lon, lat)
	}

	phi := radians(lat)
	lambda := radians(lon)

	r := semiMajor * coneF * math.Pow(isoT(phi), coneN)
	theta := coneN * (lambda - lonOrigin)

	x = falseEasting + r*math.Sin(theta)
	y = falseNorthing + radiusOrigin - r*math.Cos(theta)

	return Round(x, 2), Round(y, 2), nil
}

// Round rounds v to precision decimal digits, ties away from zero.
func Round(v float64, precision int) float64 {
	pow := math.Pow(10, float64(precision))
	return math.Round(v*pow) / pow
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
