package domain

import "math"

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
)

var (
	wgs84E2 = wgs84F * (2 - wgs84F)
	wgs84E  = math.Sqrt(wgs84E2)
	// qp is q evaluated at the pole.
	wgs84Qp = authalicQ(math.Pi / 2)
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// authalicQ is Snyder's q(φ) for the WGS84 ellipsoid (eq. 3-12).
func authalicQ(phi float64) float64 {
	s := math.Sin(phi)
	es := wgs84E * s
	return (1 - wgs84E2) * (s/(1-es*es) - (1/(2*wgs84E))*math.Log((1-es)/(1+es)))
}

// latitudeFromAuthalic inverts the authalic latitude β to geodetic latitude
// using Snyder's series (eq. 3-18), accurate well below a micro-degree.
func latitudeFromAuthalic(beta float64) float64 {
	e4 := wgs84E2 * wgs84E2
	e6 := e4 * wgs84E2
	return beta +
		(wgs84E2/3+31*e4/180+517*e6/5040)*math.Sin(2*beta) +
		(23*e4/360+251*e6/3780)*math.Sin(4*beta) +
		(761*e6/45360)*math.Sin(6*beta)
}

// clampUnit keeps asin arguments inside [-1, 1] against rounding.
func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// normalizeLon180 wraps a longitude in degrees into [-180, 180).
func normalizeLon180(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// projection converts between geographic degrees and projected meters.
type projection interface {
	forward(lat, lon float64) (x, y float64)
	inverse(x, y float64) (lat, lon float64)
}

// polarLAEA is the polar aspect of the Lambert azimuthal equal-area
// projection on the ellipsoid, centered on longitude 0.
type polarLAEA struct {
	south bool
}

func (p polarLAEA) forward(lat, lon float64) (float64, float64) {
	phi := Deg2Rad(lat)
	lam := Deg2Rad(lon)
	var rho float64
	if p.south {
		rho = wgs84A * math.Sqrt(math.Max(0, wgs84Qp+authalicQ(phi)))
		return rho * math.Sin(lam), rho * math.Cos(lam)
	}
	rho = wgs84A * math.Sqrt(math.Max(0, wgs84Qp-authalicQ(phi)))
	return rho * math.Sin(lam), -rho * math.Cos(lam)
}

func (p polarLAEA) inverse(x, y float64) (float64, float64) {
	rho := math.Hypot(x, y)
	q := wgs84Qp - (rho*rho)/(wgs84A*wgs84A)
	beta := math.Asin(clampUnit(q / wgs84Qp))
	lat := Rad2Deg(latitudeFromAuthalic(beta))

	// Longitude is undefined at the pole itself; report the central meridian.
	lon := 0.0
	if rho > 1e-9 {
		if p.south {
			lon = Rad2Deg(math.Atan2(x, y))
		} else {
			lon = Rad2Deg(math.Atan2(x, -y))
		}
	}
	if p.south {
		lat = -lat
	}
	return lat, normalizeLon180(lon)
}

// cylindricalEA is the normal cylindrical equal-area projection on the
// ellipsoid with a true-scale latitude, centered on longitude 0.
type cylindricalEA struct {
	k0 float64
}

func newCylindricalEA(latTS float64) cylindricalEA {
	s := math.Sin(Deg2Rad(latTS))
	return cylindricalEA{k0: math.Cos(Deg2Rad(latTS)) / math.Sqrt(1-wgs84E2*s*s)}
}

func (c cylindricalEA) forward(lat, lon float64) (float64, float64) {
	x := wgs84A * c.k0 * Deg2Rad(normalizeLon180(lon))
	y := wgs84A * authalicQ(Deg2Rad(lat)) / (2 * c.k0)
	return x, y
}

func (c cylindricalEA) inverse(x, y float64) (float64, float64) {
	beta := math.Asin(clampUnit(2 * y * c.k0 / (wgs84A * wgs84Qp)))
	lat := Rad2Deg(latitudeFromAuthalic(beta))
	lon := Rad2Deg(x / (wgs84A * c.k0))
	return lat, lon
}
