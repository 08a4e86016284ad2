// Package crs reprojects parcel coordinates between the Korea 2000 Unified
// coordinate system (EPSG:5179) and geographic WGS84/GRS80 longitude/latitude
// (EPSG:4326). The transform is a pure function of its inputs; the only
// failure mode is an unsupported CRS pair, which is a configuration error
// surfaced at startup.
package crs

import (
	"math"

	"github.com/rotisserie/eris"
)

// Supported CRS identifiers.
const (
	Korea2000UnifiedCS = "EPSG:5179"
	WGS84Geographic    = "EPSG:4326"
)

// GRS80 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1.0 / 298.257222101
)

// Korea 2000 / Unified CS projection parameters.
const (
	originLatDeg = 38.0
	originLonDeg = 127.5
	scaleFactor  = 0.9996
	falseEasting = 1000000.0
	falseNorth   = 2000000.0
)

// Transformer converts projected (x, y) coordinates to geographic (lon, lat)
// and back. Safe for concurrent use; all state is computed once at
// construction.
type Transformer struct {
	e      float64 // first eccentricity
	a2     float64 // rectifying radius scaled: A
	alpha  [3]float64
	beta   [3]float64
	xi0    float64 // rectifying latitude of the projection origin
	lonRad float64
}

// NewTransformer builds a Transformer for the given CRS pair. Only
// EPSG:5179 -> EPSG:4326 is supported; anything else is a configuration
// error and should be fatal at startup.
func NewTransformer(source, target string) (*Transformer, error) {
	if source != Korea2000UnifiedCS || target != WGS84Geographic {
		return nil, eris.Errorf("crs: unsupported transform %s -> %s (only %s -> %s)",
			source, target, Korea2000UnifiedCS, WGS84Geographic)
	}

	n := flattening / (2 - flattening)
	n2, n3 := n*n, n*n*n

	t := &Transformer{
		e:      math.Sqrt(flattening * (2 - flattening)),
		a2:     semiMajor / (1 + n) * (1 + n2/4 + n2*n2/64),
		lonRad: originLonDeg * math.Pi / 180,
	}

	// Krueger series coefficients, third order in n. Sub-millimeter over the
	// extent of the Unified CS, far inside the 1e-6 degree contract.
	t.alpha = [3]float64{
		n/2 - 2*n2/3 + 5*n3/16,
		13*n2/48 - 3*n3/5,
		61 * n3 / 240,
	}
	t.beta = [3]float64{
		n/2 - 2*n2/3 + 37*n3/96,
		n2/48 + n3/15,
		17 * n3 / 480,
	}

	t.xi0 = t.rectifying(originLatDeg * math.Pi / 180)
	return t, nil
}

// ToGeographic converts a projected (x, y) pair in meters to (lon, lat) in
// degrees.
func (t *Transformer) ToGeographic(x, y float64) (lon, lat float64) {
	xi := (y - falseNorth + scaleFactor*t.a2*t.xi0) / (scaleFactor * t.a2)
	eta := (x - falseEasting) / (scaleFactor * t.a2)

	xiP, etaP := xi, eta
	for j := 0; j < 3; j++ {
		k := float64(2 * (j + 1))
		xiP -= t.beta[j] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= t.beta[j] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	tauP := math.Sin(xiP) / math.Sqrt(math.Sinh(etaP)*math.Sinh(etaP)+math.Cos(xiP)*math.Cos(xiP))
	dLon := math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	tau := t.geodeticTangent(tauP)

	lat = math.Atan(tau) * 180 / math.Pi
	lon = (t.lonRad + dLon) * 180 / math.Pi
	return lon, lat
}

// FromGeographic converts (lon, lat) in degrees to a projected (x, y) pair in
// meters. Used for round-trip verification and for synthesizing fixtures.
func (t *Transformer) FromGeographic(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	dLon := lon*math.Pi/180 - t.lonRad

	tau := math.Tan(phi)
	sigma := math.Sinh(t.e * math.Atanh(t.e*tau/math.Sqrt(1+tau*tau)))
	tauP := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)

	xiP := math.Atan2(tauP, math.Cos(dLon))
	etaP := math.Asinh(math.Sin(dLon) / math.Sqrt(tauP*tauP+math.Cos(dLon)*math.Cos(dLon)))

	xi, eta := xiP, etaP
	for j := 0; j < 3; j++ {
		k := float64(2 * (j + 1))
		xi += t.alpha[j] * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += t.alpha[j] * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	x = falseEasting + scaleFactor*t.a2*eta
	y = falseNorth + scaleFactor*t.a2*(xi-t.xi0)
	return x, y
}

// rectifying returns the rectifying latitude xi for a geodetic latitude.
func (t *Transformer) rectifying(phi float64) float64 {
	tau := math.Tan(phi)
	sigma := math.Sinh(t.e * math.Atanh(t.e*tau/math.Sqrt(1+tau*tau)))
	tauP := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
	xiP := math.Atan(tauP)
	xi := xiP
	for j := 0; j < 3; j++ {
		k := float64(2 * (j + 1))
		xi += t.alpha[j] * math.Sin(k*xiP)
	}
	return xi
}

// geodeticTangent recovers tan(phi) from the conformal tangent tau' by
// Newton iteration (Karney 2011). Converges in two or three steps anywhere
// on the peninsula.
func (t *Transformer) geodeticTangent(tauP float64) float64 {
	e2 := t.e * t.e
	tau := tauP / math.Sqrt(1-e2) // first guess
	for i := 0; i < 8; i++ {
		sigma := math.Sinh(t.e * math.Atanh(t.e*tau/math.Sqrt(1+tau*tau)))
		tauI := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
		step := (tauP - tauI) * (1 + (1-e2)*tau*tau) /
			((1 - e2) * math.Sqrt(1+tauI*tauI) * math.Sqrt(1+tau*tau))
		tau += step
		if math.Abs(step) < 1e-14*(1+math.Abs(tau)) {
			break
		}
	}
	return tau
}
