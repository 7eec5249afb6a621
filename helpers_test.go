package trajopt

import (
	"errors"
	"math"
	"sync"
	"time"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Massless test bodies: they never attract the craft, which leaves only the Sun's gravity.
var (
	pad    = CelestialObject{Name: "Pad", Radius: 1, CrashRadius: 1e7, OrbitalSpeed: 29780}
	beacon = CelestialObject{Name: "Beacon", Radius: 1}
	rock   = CelestialObject{Name: "Rock", Radius: 1, CrashRadius: 1e7}
)

// fixedEphemeris places bodies at fixed positions (AU); the Sun is at the origin.
type fixedEphemeris struct {
	sync.Mutex
	positions map[string]Vector2
	calls     int
}

func newFixedEphemeris(positions map[CelestialObject]Vector2) *fixedEphemeris {
	eph := &fixedEphemeris{positions: make(map[string]Vector2)}
	for body, pos := range positions {
		eph.positions[body.key()] = pos
	}
	return eph
}

func (f *fixedEphemeris) Position(body CelestialObject, dt time.Time) (Vector2, error) {
	f.Lock()
	f.calls++
	f.Unlock()
	if body.key() == "sun" {
		return Vector2{}, nil
	}
	pos, ok := f.positions[body.key()]
	if !ok {
		return Vector2{}, errors.New("no position for " + body.Name)
	}
	return pos, nil
}

// circularEphemeris places bodies on circular orbits (AU) starting on the X axis at testEpoch.
type circularEphemeris map[string]float64

func (c circularEphemeris) Position(body CelestialObject, dt time.Time) (Vector2, error) {
	if body.key() == "sun" {
		return Vector2{}, nil
	}
	a, ok := c[body.key()]
	if !ok {
		return Vector2{}, ErrUnknownBody
	}
	n := math.Sqrt(Sun.GM() / math.Pow(a*AU, 3))
	s, co := math.Sincos(n * dt.Sub(testEpoch).Seconds())
	return Vector2{a * co, a * s}, nil
}

// testConfig returns a small configuration departing from dep and targeting tgt with only the Sun attracting.
func testConfig(dep, tgt CelestialObject, days float64) Config {
	conf := DefaultConfig()
	conf.Start = testEpoch
	conf.End = testEpoch.Add(time.Duration(days*24) * time.Hour)
	conf.MaxDays = days
	conf.Departure = dep
	conf.Target = tgt
	conf.Bodies = []CelestialObject{Sun}
	return conf
}

// padEphemeris is the usual test ephemeris: pad at 1 AU and beacon at 3 AU, both fixed.
func padEphemeris() *fixedEphemeris {
	return newFixedEphemeris(map[CelestialObject]Vector2{pad: {1, 0}, beacon: {0, 3}})
}
