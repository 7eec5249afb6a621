package trajopt

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Simulation constants. These thresholds decide which candidates are flagged as crashed, escaped or
// abandoned, so they are kept as is.
const (
	departureThreshold = 5e7  // m; the departure body cannot be crashed into before the craft is this far.
	singularityFloor   = 1.0  // m; bodies closer than this do not attract the craft.
	escapeDistance     = 10.0 // AU from the Sun
	distanceSampling   = 10   // Steps between two target distance checks
	earlyExitMinSteps  = 500  // Early termination is not considered before this step
	earlyExitSunDist   = 2.0  // AU; early termination is only considered this far from the Sun
	earlyExitFactor    = 2.0  // Receding craft further than this factor of their best approach are abandoned
)

// ErrEphemeris wraps any ephemeris failure during a simulation. Such failures abort the optimization.
var ErrEphemeris = errors.New("ephemeris lookup failed")

// TrajectoryResult summarizes one simulation.
type TrajectoryResult struct {
	MinDistance float64 // Closest approach to the target (AU)
	DeltaV      float64 // Launch and maneuvers Δv magnitudes (m/s)
	Days        float64 // Simulated mission duration
	Crashed     bool
	Escaped     bool
	CrashedInto string  // Name of the body crashed into, if any
	Final       Vector2 // Final spacecraft position (AU)
	Steps       int
}

// Feasible returns whether the trajectory neither crashed nor escaped and remained finite.
func (r TrajectoryResult) Feasible() bool {
	return !r.Crashed && !r.Escaped && !math.IsInf(r.MinDistance, 0) && !math.IsNaN(r.MinDistance) && r.Final.IsFinite()
}

func (r TrajectoryResult) String() string {
	status := "nominal"
	if r.Crashed {
		status = "crashed into " + r.CrashedInto
	} else if r.Escaped {
		status = "escaped"
	}
	return fmt.Sprintf("min dist %.4f AU, Δv %.1f m/s, %.1f days, %s", r.MinDistance, r.DeltaV, r.Days, status)
}

// Sample is the state of the spacecraft and of the tracked bodies at one instant.
type Sample struct {
	DT        time.Time
	Craft     Vector2 // AU
	Bodies    []Vector2
	Step      int
	Maneuver  bool // Whether a maneuver was applied on this step
	Collision bool // Whether a collision was detected on this step
}

// propagateOpts tweak a propagation; simulations used for scoring use the zero value.
type propagateOpts struct {
	noEarlyExit  bool
	noCrashAbort bool
	sampleEvery  int
	tracked      []CelestialObject
	sample       func(Sample) error
}

// Simulator propagates a spacecraft under the gravity of the configured bodies.
// It holds no mutable state and may be shared between goroutines.
type Simulator struct {
	conf   Config
	eph    Ephemeris
	bodies []CelestialObject
}

// NewSimulator returns a new Simulator.
func NewSimulator(conf Config, eph Ephemeris) *Simulator {
	return &Simulator{conf, eph, conf.gravitating()}
}

// Simulate propagates the provided chromosome from the mission start until the end of the mission,
// the maximum number of days, a collision, an escape or until the trajectory is clearly failing.
func (s *Simulator) Simulate(c Chromosome) (TrajectoryResult, error) {
	return s.propagate(c, propagateOpts{})
}

// lookup returns the position of the body in AU, as provided by the ephemeris.
func (s *Simulator) lookup(body CelestialObject, dt time.Time) (Vector2, error) {
	pos, err := s.eph.Position(body, dt)
	if err != nil {
		return pos, fmt.Errorf("%w: %s @ %s: %w", ErrEphemeris, body.Name, dt.Format(DateTimeFormat), err)
	}
	return pos, nil
}

// position returns the position of the body in meters.
func (s *Simulator) position(body CelestialObject, dt time.Time) (Vector2, error) {
	pos, err := s.lookup(body, dt)
	if err != nil {
		return pos, err
	}
	return pos.Scale(AU), nil
}

func toAU(v Vector2) Vector2 {
	return Vector2{v.X / AU, v.Y / AU}
}

func (s *Simulator) propagate(c Chromosome, opts propagateOpts) (TrajectoryResult, error) {
	rslt := TrajectoryResult{MinDistance: math.Inf(1)}
	step := s.conf.Step.Seconds()
	stepHours := s.conf.Step.Hours()
	maxSteps := int(s.conf.MaxDays * Day / step)
	dt := s.conf.Start.UTC()

	// The spacecraft leaves from the departure body with its orbital velocity plus the launch Δv,
	// expressed in the radial/along track frame.
	R, err := s.position(s.conf.Departure, dt)
	if err != nil {
		return rslt, err
	}
	radial := R.Unit()
	prograde := radial.Perp()
	launch := c.LaunchDeltaV()
	V := prograde.Scale(s.conf.Departure.OrbitalSpeed + launch.Y).Add(radial.Scale(launch.X))
	rslt.DeltaV = launch.Norm()

	maneuvers := c.Maneuvers()
	var burnSteps [2]int
	for i, m := range maneuvers {
		burnSteps[i] = int(m.Day * 24 / stepHours)
	}

	departed := false
	prevTgtDist := math.Inf(1)
	// Off cadence, only the first collision is sampled.
	collisionSampled := false
	emit := func(stepNo int, maneuver, collision bool) error {
		if opts.sample == nil {
			return nil
		}
		if stepNo%opts.sampleEvery != 0 && (!collision || collisionSampled) {
			return nil
		}
		if collision {
			collisionSampled = true
		}
		smpl := Sample{DT: dt, Craft: toAU(R), Bodies: make([]Vector2, len(opts.tracked)), Step: stepNo, Maneuver: maneuver, Collision: collision}
		for i, body := range opts.tracked {
			pos, err := s.lookup(body, dt)
			if err != nil {
				return err
			}
			smpl.Bodies[i] = pos
		}
		return opts.sample(smpl)
	}
	if err := emit(0, false, false); err != nil {
		return rslt, err
	}

	stepNo := 0
propagation:
	for ; stepNo < maxSteps; stepNo++ {
		burnt := false
		for i, m := range maneuvers {
			if stepNo == burnSteps[i] {
				V = V.Add(m.DeltaV)
				rslt.DeltaV += m.DeltaV.Norm()
				burnt = true
			}
		}

		if !departed {
			depPos, err := s.position(s.conf.Departure, dt)
			if err != nil {
				return rslt, err
			}
			departed = R.Dist(depPos) > departureThreshold
		}

		next := dt.Add(s.conf.Step)
		if next.After(s.conf.End) {
			break
		}
		dt = next

		var acc Vector2
		collided := false
		for _, body := range s.bodies {
			pos, err := s.position(body, dt)
			if err != nil {
				return rslt, err
			}
			rel := pos.Sub(R)
			r := rel.Norm()
			if r < body.CrashRadius && (departed || !body.Equals(s.conf.Departure)) {
				if !rslt.Crashed {
					rslt.Crashed = true
					rslt.CrashedInto = body.Name
				}
				collided = true
				if !opts.noCrashAbort {
					break propagation
				}
			}
			if r < singularityFloor {
				continue
			}
			acc = acc.Add(rel.Scale(body.GM() / (r * r * r)))
		}

		// Semi-implicit Euler: the velocity is updated first.
		V = V.Add(acc.Scale(step))
		R = R.Add(V.Scale(step))

		if err := emit(stepNo+1, burnt, collided); err != nil {
			return rslt, err
		}

		if R.Norm() > escapeDistance*AU {
			rslt.Escaped = true
			stepNo++
			break
		}

		if (stepNo+1)%distanceSampling == 0 {
			tgtPos, err := s.position(s.conf.Target, dt)
			if err != nil {
				return rslt, err
			}
			tgtDist := R.Dist(tgtPos) / AU
			rslt.MinDistance = math.Min(rslt.MinDistance, tgtDist)
			if !opts.noEarlyExit && stepNo+1 >= earlyExitMinSteps && R.Norm() > earlyExitSunDist*AU &&
				tgtDist > prevTgtDist && tgtDist > earlyExitFactor*rslt.MinDistance {
				stepNo++
				break
			}
			prevTgtDist = tgtDist
		}
	}

	// The final position also counts towards the closest approach.
	if tgtPos, err := s.position(s.conf.Target, dt); err != nil {
		return rslt, err
	} else if d := R.Dist(tgtPos) / AU; d < rslt.MinDistance {
		rslt.MinDistance = d
	}
	rslt.Steps = stepNo
	rslt.Days = float64(stepNo) * step / Day
	rslt.Final = toAU(R)
	return rslt, nil
}
