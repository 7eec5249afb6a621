package trajopt

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AU is one astronomical unit in meters. All distances reported by this package are in AU.
	AU = 1.495978707e11
	// G is the gravitational constant in m^3 kg^-1 s^-2.
	G = 6.6743e-11
	// Day is one day in seconds.
	Day = 86400.0
)

// ErrUnknownBody is returned when a body name or ephemeris lookup cannot be resolved.
var ErrUnknownBody = errors.New("unknown celestial object")

// CelestialObject defines a celestial object.
// All values are in SI units.
type CelestialObject struct {
	Name         string
	Radius       float64 // Mean radius (m)
	Mass         float64 // kg
	CrashRadius  float64 // Any closer approach is a collision (m)
	OrbitalSpeed float64 // Mean heliocentric circular speed (m/s)
}

// GM returns the gravitational parameter μ in m^3/s^2.
func (c CelestialObject) GM() float64 {
	return G * c.Mass
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.Mass == b.Mass && c.CrashRadius == b.CrashRadius
}

// key is the lowercase name, used in ephemeris lookups and exported files.
func (c CelestialObject) key() string {
	return strings.ToLower(c.Name)
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sun":
		return Sun, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	case "saturn":
		return Saturn, nil
	default:
		return CelestialObject{}, fmt.Errorf("%w: '%s'", ErrUnknownBody, name)
	}
}

// CelestialObjectsFromStrings resolves several names at once.
func CelestialObjectsFromStrings(names []string) ([]CelestialObject, error) {
	objs := make([]CelestialObject, len(names))
	for i, name := range names {
		obj, err := CelestialObjectFromString(name)
		if err != nil {
			return nil, err
		}
		objs[i] = obj
	}
	return objs, nil
}

/* Definitions */

// Sun is our closest star. Its crash radius includes a generous thermal margin.
var Sun = CelestialObject{"Sun", 6.957e8, 1.98847e30, 1.0e10, 0}

// Venus is poisonous.
var Venus = CelestialObject{"Venus", 6.0518e6, 4.8675e24, 1.0e7, 35020}

// Earth is home.
var Earth = CelestialObject{"Earth", 6.3781363e6, 5.9722e24, 1.0e7, 29780}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3.39619e6, 6.4171e23, 1.0e7, 24070}

// Jupiter is big, and so is its crash radius.
var Jupiter = CelestialObject{"Jupiter", 7.1492e7, 1.89813e27, 7.0e8, 13070}

// Saturn floats and that's really cool.
var Saturn = CelestialObject{"Saturn", 6.0268e7, 5.6834e26, 6.0e8, 9680}
