package celestial

import (
	"fmt"
	"math"
	"time"
)

// TT-UTC in seconds. Delta-T drifts slowly; a fixed value is within a minute
// of the truth for the years the element table is valid.
const ttMinusUTC = 69.2

// JulianDate converts t to a Julian Date on the UTC scale.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	Y := float64(t.Year())
	M := float64(t.Month())
	D := float64(t.Day())

	dayFraction := (float64(t.Hour())*3600 +
		float64(t.Minute())*60 +
		float64(t.Second()) +
		float64(t.Nanosecond())/1e9) / SecondsPerDay

	// January and February count as months 13 and 14 of the previous year
	if M <= 2 {
		Y--
		M += 12
	}

	A := math.Floor(Y / 100.0)
	B := 2 - A + math.Floor(A/4.0)

	jd := math.Floor(365.25*(Y+4716)) + math.Floor(30.6001*(M+1)) + D + B - 1524.5
	return jd + dayFraction
}

// tdbMinusTT returns the periodic TDB-TT difference in seconds.
func tdbMinusTT(jd float64) float64 {
	t := (jd - J2000Epoch) / DaysPerCentury
	g := degToRad(357.53 + 35999.050*t) // Mean anomaly of the Sun

	return 0.001658*math.Sin(g) + 0.000014*math.Sin(2*g)
}

// CenturiesSinceJ2000 returns Julian centuries of TDB elapsed since J2000.
func CenturiesSinceJ2000(t time.Time) float64 {
	ttJD := JulianDate(t) + ttMinusUTC/SecondsPerDay
	tdbJD := ttJD + tdbMinusTT(ttJD)/SecondsPerDay
	return (tdbJD - J2000Epoch) / DaysPerCentury
}

// GreenwichMeanSiderealTime returns GMST in degrees [0, 360) (IAU 1982).
func GreenwichMeanSiderealTime(t time.Time) float64 {
	jd := JulianDate(t)
	T := (jd - J2000Epoch) / DaysPerCentury

	gmst := 280.46061837 +
		360.98564736629*(jd-J2000Epoch) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return NormalizeDegrees(gmst)
}

// SolveKepler solves Kepler's equation M = E - e*sin(E) for the eccentric
// anomaly E. Angles are in radians; e must be in [0, 1).
func SolveKepler(M float64, e float64) float64 {
	var E float64
	if e < 0.8 {
		E = M + e*math.Sin(M)*(1.0+e*math.Cos(M))
	} else {
		E = math.Pi
	}

	for iter := 0; iter < 30; iter++ {
		residual := E - e*math.Sin(E) - M
		if math.Abs(residual) < 1e-14 {
			break
		}
		E -= residual / (1.0 - e*math.Cos(E))
	}

	return normalizeRadians(E)
}

// HeliocentricEcliptic returns the heliocentric position of b in AU, referred
// to the ecliptic and equinox of J2000, T centuries after J2000.
func HeliocentricEcliptic(b Body, T float64) (Vector3, error) {
	if b == Sun {
		return Vector3{}, nil
	}
	el, ok := orbitalElements[b]
	if !ok {
		return Vector3{}, fmt.Errorf("%w: no orbital elements for %s", ErrUnknownBody, b)
	}

	a := el.A + T*el.DA
	e := el.E + T*el.DE
	i := degToRad(el.I + T*el.DI)
	L := degToRad(NormalizeDegrees(el.L + T*el.DL))
	wbar := degToRad(NormalizeDegrees(el.LP + T*el.DLP))
	node := degToRad(NormalizeDegrees(el.N + T*el.DN))

	M := normalizeRadians(L - wbar)
	w := normalizeRadians(wbar - node)

	E := SolveKepler(M, e)

	v := 2.0 * math.Atan2(
		math.Sqrt(1.0+e)*math.Sin(E/2.0),
		math.Sqrt(1.0-e)*math.Cos(E/2.0),
	)
	r := a * (1.0 - e*math.Cos(E))

	xOrbit := r * math.Cos(v)
	yOrbit := r * math.Sin(v)

	// Rotate by the argument of perihelion
	xPeri := xOrbit*math.Cos(w) - yOrbit*math.Sin(w)
	yPeri := xOrbit*math.Sin(w) + yOrbit*math.Cos(w)

	// then by the inclination
	yInc := yPeri * math.Cos(i)
	zInc := yPeri * math.Sin(i)

	// and finally by the longitude of the ascending node
	return Vector3{
		X: xPeri*math.Cos(node) - yInc*math.Sin(node),
		Y: xPeri*math.Sin(node) + yInc*math.Cos(node),
		Z: zInc,
	}, nil
}

// moonGeocentric evaluates a truncated lunar series and returns the Moon's
// geocentric ecliptic position in AU, precessed back to J2000.
func moonGeocentric(T float64) Vector3 {
	d := T * DaysPerCentury

	Lprime := NormalizeDegrees(218.3164477 + 13.17639648*d) // mean longitude of the Moon
	M := degToRad(NormalizeDegrees(357.5291092 + 0.98560028*d))
	Mm := degToRad(NormalizeDegrees(134.9633964 + 13.06499295*d))
	D := degToRad(NormalizeDegrees(297.8501921 + 12.19074912*d))
	F := degToRad(NormalizeDegrees(93.2720950 + 13.22935024*d))

	lon := Lprime +
		6.289*math.Sin(Mm) +
		1.274*math.Sin(2*D-Mm) +
		0.658*math.Sin(2*D) +
		0.214*math.Sin(2*Mm) -
		0.186*math.Sin(M) -
		0.114*math.Sin(2*F)

	lat := 5.128*math.Sin(F) +
		0.280*math.Sin(Mm+F) +
		0.277*math.Sin(Mm-F) +
		0.173*math.Sin(2*D-F)

	distKm := 385000.56 -
		20905.355*math.Cos(Mm) -
		3699.111*math.Cos(2*D-Mm) -
		2955.968*math.Cos(2*D) -
		569.925*math.Cos(2*Mm)

	// The series is referred to the equinox of date; general precession
	// in longitude is 1.396971 degrees per century.
	lonRad := degToRad(lon - 1.396971*T)
	latRad := degToRad(lat)
	r := distKm / AU

	return Vector3{
		X: r * math.Cos(latRad) * math.Cos(lonRad),
		Y: r * math.Cos(latRad) * math.Sin(lonRad),
		Z: r * math.Sin(latRad),
	}
}

// geocentricEcliptic returns the light-time corrected geocentric ecliptic
// position of b in AU.
func geocentricEcliptic(b Body, T float64) (Vector3, error) {
	switch b {
	case Moon:
		return moonGeocentric(T), nil
	case Earth:
		return Vector3{}, fmt.Errorf("%w: %s is the observing origin", ErrUnknownBody, b)
	}

	earth, err := HeliocentricEcliptic(Earth, T)
	if err != nil {
		return Vector3{}, err
	}
	target, err := HeliocentricEcliptic(b, T)
	if err != nil {
		return Vector3{}, err
	}

	// One pass is enough: the retarded position moves by arcseconds at most.
	tau := target.Subtract(earth).Magnitude() * LightDaysPerAU / DaysPerCentury
	target, err = HeliocentricEcliptic(b, T-tau)
	if err != nil {
		return Vector3{}, err
	}
	return target.Subtract(earth), nil
}

func eclipticToEquatorial(v Vector3) Vector3 {
	eps := degToRad(obliquityJ2000)
	return Vector3{
		X: v.X,
		Y: v.Y*math.Cos(eps) - v.Z*math.Sin(eps),
		Z: v.Y*math.Sin(eps) + v.Z*math.Cos(eps),
	}
}

// Observer geocentric position in the equatorial frame, AU.
func observerVector(obs Observer, t time.Time) Vector3 {
	const (
		wgs84F  = 1.0 / 298.257223563
		wgs84E2 = wgs84F * (2 - wgs84F)
	)

	lat := degToRad(obs.Latitude)
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	heightKm := obs.Height / 1000.0

	// Radius of curvature in the prime vertical.
	N := EarthRadius / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	rho := (N + heightKm) * cosLat
	z := (N*(1-wgs84E2) + heightKm) * sinLat

	// Local sidereal angle turns the Earth-fixed vector into the inertial frame.
	theta := degToRad(GreenwichMeanSiderealTime(t) + obs.Longitude)

	return Vector3{
		X: rho * math.Cos(theta) / AU,
		Y: rho * math.Sin(theta) / AU,
		Z: z / AU,
	}
}

// Equator returns the topocentric equatorial coordinates of b at time t as
// seen from obs, referred to the J2000 equator and corrected for light time.
func Equator(b Body, t time.Time, obs Observer) (Equatorial, error) {
	T := CenturiesSinceJ2000(t)

	geo, err := geocentricEcliptic(b, T)
	if err != nil {
		return Equatorial{}, err
	}

	topo := eclipticToEquatorial(geo).Subtract(observerVector(obs, t))
	if !topo.finite() {
		return Equatorial{}, fmt.Errorf("%w: position of %s at %s", ErrNonFinite, b, t.Format(time.RFC3339))
	}

	dist := topo.Magnitude()
	if dist == 0 {
		return Equatorial{}, fmt.Errorf("%w: zero distance to %s", ErrNonFinite, b)
	}

	ra := radToDeg(math.Atan2(topo.Y, topo.X))
	dec := radToDeg(math.Asin(topo.Z / dist))

	return Equatorial{
		RA:   NormalizeDegrees(ra) / 15.0,
		Dec:  dec,
		Dist: dist,
	}, nil
}
