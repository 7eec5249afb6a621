package trajopt

import "math"

// Fitness shaping. Lower fitness is better.
const (
	// InfeasiblePenalty is the fitness of any crashed or escaped trajectory.
	InfeasiblePenalty = 10000.0

	distanceWeight = 2.0
	fuelWeight     = 0.3
	fuelReference  = 10000.0 // m/s
	timeWeight     = 0.1
	timeReference  = 1000.0 // days
	bonusThreshold = 0.5    // AU
	bonusSoftening = 0.01   // AU
)

// Fitness scores a trajectory: the closest approach dominates, propellant and duration break ties, and
// approaches within bonusThreshold of the target get a hyperbolic bonus.
func Fitness(r TrajectoryResult) float64 {
	if !r.Feasible() {
		return InfeasiblePenalty
	}
	return distanceWeight*r.MinDistance +
		fuelWeight*r.DeltaV/fuelReference +
		timeWeight*r.Days/timeReference -
		arrivalBonus(r.MinDistance)
}

// arrivalBonus grows as 1/d once the craft is within the threshold of the target.
func arrivalBonus(d float64) float64 {
	if d >= bonusThreshold {
		return 0
	}
	return 1 / (d + bonusSoftening)
}

// Evaluator scores chromosomes by simulating them.
type Evaluator struct {
	sim *Simulator
}

// NewEvaluator returns an Evaluator using the provided simulator.
func NewEvaluator(sim *Simulator) *Evaluator {
	return &Evaluator{sim}
}

// Evaluate simulates the chromosome and stores its result and fitness. Only ephemeris failures are
// returned as errors: infeasible trajectories are scored with InfeasiblePenalty.
func (e *Evaluator) Evaluate(c *Chromosome) error {
	rslt, err := e.sim.Simulate(*c)
	if err != nil {
		return err
	}
	c.Result = rslt
	c.Fitness = Fitness(rslt)
	if math.IsNaN(c.Fitness) {
		c.Fitness = InfeasiblePenalty
	}
	return nil
}
