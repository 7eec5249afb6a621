package tools

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ChristopherRabotin/trajopt"
)

// Hohmann computes an Hohmann transfer between two circular orbits of radii rI and rF (m) around a body
// of gravitational parameter μ (m^3/s^2). It returns the departure and arrival velocities, and the time
// of flight.
// To get final computations:
// ΔvInit = vDepature - vI
// ΔvFinal = vArrival - vF
func Hohmann(rI, rF, μ float64) (vDeparture, vArrival float64, tof time.Duration) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival = math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/μ)) * time.Second
	return
}

// HohmannTOF returns the Hohmann time of flight (days) between the departure body at the start of the
// mission and the target body after that time of flight, iterated until the target radius settles.
func HohmannTOF(eph trajopt.Ephemeris, conf trajopt.Config) (float64, error) {
	R1, err := eph.Position(conf.Departure, conf.Start)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", trajopt.ErrEphemeris, conf.Departure, err)
	}
	R2, err := eph.Position(conf.Target, conf.Start)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", trajopt.ErrEphemeris, conf.Target, err)
	}
	var tof time.Duration
	for i := 0; i < 5; i++ {
		_, _, tof = Hohmann(R1.Norm()*trajopt.AU, R2.Norm()*trajopt.AU, trajopt.Sun.GM())
		if R2, err = eph.Position(conf.Target, conf.Start.Add(tof)); err != nil {
			return 0, fmt.Errorf("%w: %s: %w", trajopt.ErrEphemeris, conf.Target, err)
		}
	}
	return tof.Hours() / 24, nil
}

// ScanSeeds computes the Lambert seeds for every time of flight from minTOF to maxTOF (days), every
// stepTOF days, and returns the n seeds requiring the least launch Δv. Times of flight where the solver
// fails are skipped, but ephemeris failures are returned.
func ScanSeeds(eph trajopt.Ephemeris, conf trajopt.Config, minTOF, maxTOF, stepTOF float64, n int) ([]Seed, error) {
	if stepTOF <= 0 || maxTOF < minTOF {
		return nil, fmt.Errorf("invalid time of flight scan [%f, %f] every %f days", minTOF, maxTOF, stepTOF)
	}
	var seeds []Seed
	for tof := minTOF; tof <= maxTOF; tof += stepTOF {
		seed, err := LambertSeeds(eph, conf, tof)
		if err != nil {
			if errors.Is(err, trajopt.ErrEphemeris) {
				return nil, err
			}
			continue
		}
		seeds = append(seeds, seed...)
	}
	slices.SortStableFunc(seeds, func(a, b Seed) int {
		return cmp.Compare(a.Launch.Norm(), b.Launch.Norm())
	})
	return seeds[:min(n, len(seeds))], nil
}
