package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid and UTM constants
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
	scaleFactor   = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0
)

var (
	ecc2      = flattening * (2 - flattening) // first eccentricity squared
	eccPrime2 = ecc2 / (1 - ecc2)             // second eccentricity squared
)

// CRS identifies a coordinate reference system the adapter understands:
// geographic WGS84 (lon/lat degrees) or one UTM zone on the WGS84 ellipsoid
type CRS struct {
	Zone       int  // UTM zone 1..60, ignored when Geographic
	South      bool // southern hemisphere (false northing applied)
	Geographic bool
}

// WGS84 is geographic longitude/latitude in degrees. Points are orb.Point{lon, lat}.
var WGS84 = CRS{Geographic: true}

// UTM returns the projected CRS for the given zone and hemisphere
func UTM(zone int, south bool) CRS {
	return CRS{Zone: zone, South: south}
}

// DefaultUTM is the projected CRS every stored lot geometry is expressed in (EPSG:32718)
var DefaultUTM = UTM(18, true)

// EPSG returns the EPSG code of the CRS
func (c CRS) EPSG() int {
	if c.Geographic {
		return 4326
	}
	if c.South {
		return 32700 + c.Zone
	}
	return 32600 + c.Zone
}

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.EPSG())
}

func (c CRS) centralMeridian() float64 {
	return float64((c.Zone-1)*6 - 180 + 3)
}

// ProjectionError reports a point that could not be converted between two CRSs
type ProjectionError struct {
	Point  orb.Point
	From   CRS
	To     CRS
	Reason string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("project %v from %s to %s: %s", e.Point, e.From, e.To, e.Reason)
}

// Project converts p from one CRS to another. Only conversions between WGS84
// and a UTM zone (or identity) are supported; re-zoning between two UTM zones
// is rejected.
func Project(p orb.Point, from, to CRS) (orb.Point, error) {
	fail := func(reason string) (orb.Point, error) {
		return orb.Point{}, &ProjectionError{Point: p, From: from, To: to, Reason: reason}
	}

	if !finite(p[0]) || !finite(p[1]) {
		return fail("non-finite coordinate")
	}
	for _, c := range []CRS{from, to} {
		if !c.Geographic && (c.Zone < 1 || c.Zone > 60) {
			return fail(fmt.Sprintf("unsupported UTM zone %d", c.Zone))
		}
	}

	switch {
	case from.Geographic && to.Geographic:
		if reason := checkGeographic(p); reason != "" {
			return fail(reason)
		}
		return p, nil
	case from.Geographic:
		if reason := checkGeographic(p); reason != "" {
			return fail(reason)
		}
		return toUTM(p[1], p[0], to), nil
	case to.Geographic:
		if reason := checkProjected(p); reason != "" {
			return fail(reason)
		}
		return fromUTM(p[0], p[1], from), nil
	case from == to:
		if reason := checkProjected(p); reason != "" {
			return fail(reason)
		}
		return p, nil
	default:
		return fail("conversion between UTM zones is not supported")
	}
}

// ProjectRing projects every point of ring. Points that fail are replaced
// with (0,0) and their errors are returned alongside the converted ring.
func ProjectRing(ring orb.Ring, from, to CRS) (orb.Ring, []error) {
	out := make(orb.Ring, len(ring))
	var errs []error
	for i, p := range ring {
		q, err := Project(p, from, to)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[i] = q
	}
	return out, errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkGeographic(p orb.Point) string {
	if p[0] < -180 || p[0] > 180 {
		return "longitude out of range"
	}
	if p[1] < -90 || p[1] > 90 {
		return "latitude out of range"
	}
	return ""
}

func checkProjected(p orb.Point) string {
	if p[0] <= 0 || p[0] >= 1000000 {
		return "easting out of range"
	}
	if p[1] < 0 || p[1] > falseNorthing {
		return "northing out of range"
	}
	return ""
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// meridianArc is the distance along the central meridian from the equator to latitude phi
func meridianArc(phi float64) float64 {
	e4 := ecc2 * ecc2
	e6 := e4 * ecc2
	return semiMajorAxis * ((1-ecc2/4-3*e4/64-5*e6/256)*phi -
		(3*ecc2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// toUTM is the forward transverse Mercator series (Snyder, USGS PP 1395)
func toUTM(lat, lon float64, crs CRS) orb.Point {
	phi := radians(lat)
	sinPhi, cosPhi, tanPhi := math.Sin(phi), math.Cos(phi), math.Tan(phi)

	n := semiMajorAxis / math.Sqrt(1-ecc2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := eccPrime2 * cosPhi * cosPhi
	a := cosPhi * radians(lon-crs.centralMeridian())

	a2 := a * a
	easting := scaleFactor*n*(a+
		(1-t+c)*a2*a/6+
		(5-18*t+t*t+72*c-58*eccPrime2)*a2*a2*a/120) + falseEasting

	northing := scaleFactor * (meridianArc(phi) + n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a2*a2/24+
		(61-58*t+t*t+600*c-330*eccPrime2)*a2*a2*a2/720))
	if crs.South {
		northing += falseNorthing
	}

	return orb.Point{easting, northing}
}

// fromUTM inverts toUTM via the footpoint latitude
func fromUTM(easting, northing float64, crs CRS) orb.Point {
	x := easting - falseEasting
	y := northing
	if crs.South {
		y -= falseNorthing
	}

	e4 := ecc2 * ecc2
	e6 := e4 * ecc2
	mu := y / scaleFactor / (semiMajorAxis * (1 - ecc2/4 - 3*e4/64 - 5*e6/256))

	sq := math.Sqrt(1 - ecc2)
	e1 := (1 - sq) / (1 + sq)
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1, tanPhi1 := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	w := 1 - ecc2*sinPhi1*sinPhi1
	n1 := semiMajorAxis / math.Sqrt(w)
	t1 := tanPhi1 * tanPhi1
	c1 := eccPrime2 * cosPhi1 * cosPhi1
	r1 := semiMajorAxis * (1 - ecc2) / (w * math.Sqrt(w))
	d := x / (n1 * scaleFactor)
	d2 := d * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*eccPrime2)*d2*d2/24+
		(61+90*t1+298*c1+45*t1*t1-252*eccPrime2-3*c1*c1)*d2*d2*d2/720)

	lambda := (d - (1+2*t1+c1)*d2*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*eccPrime2+24*t1*t1)*d2*d2*d/120) / cosPhi1

	return orb.Point{crs.centralMeridian() + degrees(lambda), degrees(phi)}
}
