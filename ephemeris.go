package trajopt

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/planetposition"
)

const (
	j2000           = 2451545.0
	daysPerCentury  = 36525.0
	keplerTolerance = 1e-14
)

// Ephemeris returns the heliocentric position, in AU and projected on the ecliptic plane, of a body at
// a given time. Implementations must be safe for concurrent use: the simulator queries them from
// several goroutines at once.
type Ephemeris interface {
	Position(body CelestialObject, dt time.Time) (Vector2, error)
}

// meanElements are J2000 Keplerian elements (AU and degrees) along with their rates per Julian century.
type meanElements struct {
	a, e, i, L, LP, N       float64
	dA, dE, dI, dL, dLP, dN float64
}

// standishElements are the approximate planetary elements valid between 1800 and 2050 (Standish, JPL).
var standishElements = map[string]meanElements{
	"venus":   {0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255, 0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418},
	"earth":   {1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0, 0.00000562, -0.00004392, -0.01294668, 35999.37306329, 0.32327364, 0.0},
	"mars":    {1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891, 0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343},
	"jupiter": {5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909, -0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106},
	"saturn":  {9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448, -0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794},
}

// MeanElementEphemeris computes positions from mean Keplerian elements. It needs no data files and
// holds no mutable state.
type MeanElementEphemeris struct {
	elements map[string]meanElements
}

// NewMeanElementEphemeris returns an ephemeris for all the built-in planets.
func NewMeanElementEphemeris() *MeanElementEphemeris {
	return &MeanElementEphemeris{standishElements}
}

// Position implements the Ephemeris interface.
func (m *MeanElementEphemeris) Position(body CelestialObject, dt time.Time) (Vector2, error) {
	if body.key() == "sun" {
		return Vector2{}, nil
	}
	el, ok := m.elements[body.key()]
	if !ok {
		return Vector2{}, fmt.Errorf("%w: no mean elements for %s", ErrUnknownBody, body.Name)
	}
	T := (julian.TimeToJD(dt.UTC()) - j2000) / daysPerCentury
	a := el.a + T*el.dA
	e := el.e + T*el.dE
	i := (el.i + T*el.dI) * deg2rad
	L := Deg2rad(el.L + T*el.dL)
	ϖ := Deg2rad(el.LP + T*el.dLP)
	Ω := Deg2rad(el.N + T*el.dN)
	ω := normalizeRadians(ϖ - Ω)
	E := solveKepler(normalizeRadians(L-ϖ), e)
	ν := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(E/2), math.Sqrt(1-e)*math.Cos(E/2))
	r := a * (1 - e*math.Cos(E))
	// Position in the orbital plane, rotated by ω, i and Ω. The out of plane component is dropped.
	sν, cν := math.Sincos(ν + ω)
	sΩ, cΩ := math.Sincos(Ω)
	ci := math.Cos(i)
	return Vector2{
		X: r * (cΩ*cν - sΩ*sν*ci),
		Y: r * (sΩ*cν + cΩ*sν*ci),
	}, nil
}

// solveKepler solves Kepler's equation for the eccentric anomaly with Newton-Raphson.
func solveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)*(1+e*math.Cos(M))
	for iter := 0; iter < 15; iter++ {
		δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= δ
		if math.Abs(δ) < keplerTolerance {
			break
		}
	}
	return E
}

// VSOP87Ephemeris computes positions from the VSOP87B series. The series are loaded once, at
// construction, hence reads are safe from any number of goroutines.
type VSOP87Ephemeris struct {
	planets map[string]*planetposition.V87Planet
}

// vsop87Index maps a body to its position in the VSOP87 files.
func vsop87Index(body CelestialObject) (int, error) {
	switch body.key() {
	case "venus":
		return planetposition.Venus, nil
	case "earth":
		return planetposition.Earth, nil
	case "mars":
		return planetposition.Mars, nil
	case "jupiter":
		return planetposition.Jupiter, nil
	case "saturn":
		return planetposition.Saturn, nil
	default:
		return -1, fmt.Errorf("%w: %s is not in VSOP87", ErrUnknownBody, body.Name)
	}
}

// NewVSOP87Ephemeris loads the VSOP87B files from dir for each of the provided bodies (the Sun is skipped).
func NewVSOP87Ephemeris(dir string, bodies ...CelestialObject) (*VSOP87Ephemeris, error) {
	eph := &VSOP87Ephemeris{make(map[string]*planetposition.V87Planet)}
	for _, body := range bodies {
		if body.key() == "sun" {
			continue
		}
		if _, loaded := eph.planets[body.key()]; loaded {
			continue
		}
		idx, err := vsop87Index(body)
		if err != nil {
			return nil, err
		}
		planet, err := planetposition.LoadPlanetPath(idx, dir)
		if err != nil {
			return nil, fmt.Errorf("could not load VSOP87 data for %s from %s: %w", body.Name, dir, err)
		}
		eph.planets[body.key()] = planet
	}
	return eph, nil
}

// Position implements the Ephemeris interface.
func (v *VSOP87Ephemeris) Position(body CelestialObject, dt time.Time) (Vector2, error) {
	if body.key() == "sun" {
		return Vector2{}, nil
	}
	planet, ok := v.planets[body.key()]
	if !ok {
		return Vector2{}, fmt.Errorf("%w: %s was not loaded", ErrUnknownBody, body.Name)
	}
	l, b, r := planet.Position2000(julian.TimeToJD(dt.UTC()))
	sL, cL := math.Sincos(l.Rad())
	cB := math.Cos(b.Rad())
	return Vector2{r * cB * cL, r * cB * sL}, nil
}
