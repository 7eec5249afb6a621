package tools

import (
	"fmt"
	"time"

	"github.com/ChristopherRabotin/trajopt"
	"gonum.org/v1/gonum/mat"
)

// Seed is a launch guess computed from a Lambert transfer between the departure body at the start of the
// mission and the target body after the time of flight.
type Seed struct {
	TOF        float64         // Time of flight (days)
	Departure  trajopt.Vector2 // Heliocentric departure velocity (m/s)
	Arrival    trajopt.Vector2 // Heliocentric arrival velocity (m/s)
	Launch     trajopt.Vector2 // Launch Δv in the departure body's radial/along track frame (m/s)
	Clamped    bool            // Whether the launch had to be clamped to the gene bounds
	Chromosome trajopt.Chromosome
}

func (s Seed) String() string {
	clamped := ""
	if s.Clamped {
		clamped = " (clamped)"
	}
	return fmt.Sprintf("TOF %.0f days: launch Δv=%s m/s |Δv|=%.1f m/s%s, arrival |v|=%.1f m/s", s.TOF, s.Launch, s.Launch.Norm(), clamped, s.Arrival.Norm())
}

// LambertSeeds returns one seed per time of flight (in days). The seeds coast: both maneuvers are nil and
// scheduled at a third and two thirds of the flight.
func LambertSeeds(eph trajopt.Ephemeris, conf trajopt.Config, tofs ...float64) ([]Seed, error) {
	μ := trajopt.Sun.GM() / 1e9 // km^3/s^2
	R1, err := eph.Position(conf.Departure, conf.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", trajopt.ErrEphemeris, conf.Departure, err)
	}
	radial := R1.Unit()
	prograde := radial.Perp()
	seeds := make([]Seed, 0, len(tofs))
	for _, tof := range tofs {
		arrival := conf.Start.Add(time.Duration(tof * 24 * float64(time.Hour)))
		R2, err := eph.Position(conf.Target, arrival)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", trajopt.ErrEphemeris, conf.Target, err)
		}
		Vi, Vf, _, err := Lambert(kmVec(R1), kmVec(R2), tof*trajopt.Day, 0, μ)
		if err != nil {
			return nil, fmt.Errorf("TOF %.1f days: %w", tof, err)
		}
		V := trajopt.Vector2{X: Vi.AtVec(0) * 1e3, Y: Vi.AtVec(1) * 1e3}
		launch := trajopt.Vector2{X: V.Dot(radial), Y: V.Dot(prograde) - conf.Departure.OrbitalSpeed}
		var genes [trajopt.GeneCount]float64
		genes[trajopt.GeneLaunchX] = launch.X
		genes[trajopt.GeneLaunchY] = launch.Y
		genes[trajopt.GeneBurn1Day] = tof / 3
		genes[trajopt.GeneBurn2Day] = 2 * tof / 3
		c := trajopt.NewChromosome(genes)
		clamped := !trajopt.GeneBounds[trajopt.GeneLaunchX].Contains(launch.X) || !trajopt.GeneBounds[trajopt.GeneLaunchY].Contains(launch.Y)
		c.Clamp()
		seeds = append(seeds, Seed{
			TOF:        tof,
			Departure:  V,
			Arrival:    trajopt.Vector2{X: Vf.AtVec(0) * 1e3, Y: Vf.AtVec(1) * 1e3},
			Launch:     launch,
			Clamped:    clamped,
			Chromosome: c,
		})
	}
	return seeds, nil
}

// Chromosomes returns the chromosomes of the seeds.
func Chromosomes(seeds []Seed) []trajopt.Chromosome {
	cs := make([]trajopt.Chromosome, len(seeds))
	for i, s := range seeds {
		cs[i] = s.Chromosome
	}
	return cs
}

// kmVec converts a position in AU to a 3x1 vector in km.
func kmVec(r trajopt.Vector2) *mat.VecDense {
	return mat.NewVecDense(3, []float64{r.X * trajopt.AU / 1e3, r.Y * trajopt.AU / 1e3, 0})
}
