package trajopt

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"
)

// State is the state of an Engine.
type State uint8

// Engine states.
const (
	Uninitialized State = iota
	Initializing
	Evolving
	Complete
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Evolving:
		return "evolving"
	case Complete:
		return "complete"
	case Stopped:
		return "stopped"
	}
	panic("cannot stringify unknown engine state")
}

// Progress summarizes a generation.
type Progress struct {
	Generation  int
	Best        Chromosome // Best-ever chromosome
	BestFitness float64
	MinDistance float64 // AU
	DeltaV      float64 // m/s
	Days        float64
	MeanFitness float64 // Of the current generation
	StdFitness  float64
	Feasible    int // Feasible trajectories in the current generation
	Evaluations int // Simulations since the start of the run
	Elapsed     time.Duration
	Final       bool
}

func (p Progress) String() string {
	return fmt.Sprintf("gen %d: best fitness %.6f (%s); mean %.3f σ %.3f; %d feasible", p.Generation, p.BestFitness, p.Best.Result, p.MeanFitness, p.StdFitness, p.Feasible)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithProgress sets the callback receiving progress reports. It is called from the goroutine running the engine.
func WithProgress(f func(Progress)) EngineOption {
	return func(e *Engine) {
		e.progress = f
	}
}

// Engine is the genetic algorithm searching for the best transfer. It does no I/O: results are
// returned and progress is reported to the WithProgress callback.
type Engine struct {
	conf         Config
	eval         *Evaluator
	rng          *rand.Rand
	population   []Chromosome
	seeds        []Chromosome
	best         Chromosome
	state        State
	generation   int
	evaluations  int
	lastReported int
	until        int // Last generation of the current run, whose report is the final one
	started      time.Time
	progress     func(Progress)
}

// NewEngine returns a new engine after validating the configuration.
func NewEngine(conf Config, eph Ephemeris, opts ...EngineOption) (*Engine, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if eph == nil {
		return nil, fmt.Errorf("%w: no ephemeris provided", ErrInvalidConfig)
	}
	e := &Engine{
		conf:         conf,
		eval:         NewEvaluator(NewSimulator(conf, eph)),
		rng:          rand.New(rand.NewPCG(conf.Seed, conf.Seed^0x9e3779b97f4a7c15)),
		best:         Chromosome{Fitness: Unevaluated},
		lastReported: -1,
		until:        -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	return e.state
}

// Generation returns the number of generations bred so far.
func (e *Engine) Generation() int {
	return e.generation
}

// Population returns a copy of the current population.
func (e *Engine) Population() []Chromosome {
	return slices.Clone(e.population)
}

// Seed adds chromosomes (e.g. from a Lambert solution) which are placed first in the initial population.
// It must be called before the population is initialized.
func (e *Engine) Seed(cs ...Chromosome) {
	for _, c := range cs {
		c.Clamp()
		c.Fitness = Unevaluated
		c.Result = TrajectoryResult{}
		e.seeds = append(e.seeds, c)
	}
}

// InitializePopulation creates the initial population: the seeds, then the guided chromosomes drawn
// around plausible transfers, then chromosomes drawn uniformly within the gene bounds.
func (e *Engine) InitializePopulation(size int) {
	e.state = Initializing
	e.population = make([]Chromosome, 0, size)
	for _, seed := range e.seeds {
		if len(e.population) == size {
			break
		}
		e.population = append(e.population, seed)
	}
	for i := 0; i < e.conf.GuidedCount && len(e.population) < size; i++ {
		e.population = append(e.population, e.randomChromosome(guidedBounds))
	}
	for len(e.population) < size {
		e.population = append(e.population, e.randomChromosome(GeneBounds))
	}
}

func (e *Engine) randomChromosome(bounds [GeneCount]Bound) Chromosome {
	var genes [GeneCount]float64
	for i, b := range bounds {
		genes[i] = b.Min + e.rng.Float64()*(b.Max-b.Min)
	}
	return NewChromosome(genes)
}

// Initialize creates the population, unless it already exists, and evaluates it.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.state >= Evolving {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.started.IsZero() {
		e.started = time.Now()
	}
	if e.population == nil {
		e.InitializePopulation(e.conf.PopulationSize)
	}
	if err := e.evaluate(); err != nil {
		return err
	}
	e.state = Evolving
	e.report(false)
	return nil
}

// Step breeds and evaluates one generation.
func (e *Engine) Step(ctx context.Context) error {
	if err := e.Initialize(ctx); err != nil {
		return err
	}
	e.population = e.breed()
	if err := e.evaluate(); err != nil {
		return err
	}
	e.generation++
	e.report(false)
	return nil
}

// Run evolves the population for the provided number of generations and returns the best-ever chromosome.
// Cancellation of the context is checked between generations: the best-ever chromosome is then returned
// along with the context error. Ephemeris failures abort the run.
func (e *Engine) Run(ctx context.Context, generations int) (Chromosome, error) {
	if generations < 0 {
		return e.Best(), fmt.Errorf("%w: negative generation count %d", ErrInvalidConfig, generations)
	}
	e.until = e.generation + generations
	if err := e.Initialize(ctx); err != nil {
		return e.Best(), err
	}
	for e.generation < e.until {
		if err := ctx.Err(); err != nil {
			e.Stop()
			return e.Best(), err
		}
		if err := e.Step(ctx); err != nil {
			return e.Best(), err
		}
	}
	e.Complete()
	return e.Best(), nil
}

// Stop marks the engine as stopped and reports the final progress.
func (e *Engine) Stop() {
	e.state = Stopped
	e.report(true)
}

// Complete marks the engine as complete and reports the final progress.
func (e *Engine) Complete() {
	e.state = Complete
	e.report(true)
}

// Best returns a copy of the best-ever chromosome. Should no chromosome ever have been evaluated, the
// first member of the population is returned instead.
func (e *Engine) Best() Chromosome {
	if e.best.Evaluated() || len(e.population) == 0 {
		return e.best.Clone()
	}
	return e.population[0].Clone()
}

// evaluate simulates every unevaluated chromosome on a bounded pool of goroutines, and returns once all
// are evaluated. Each goroutine only writes to its own chromosome.
func (e *Engine) evaluate() error {
	p := pool.New().WithMaxGoroutines(e.conf.workers()).WithErrors().WithFirstError()
	for i := range e.population {
		if e.population[i].Evaluated() {
			continue
		}
		c := &e.population[i]
		e.evaluations++
		p.Go(func() error {
			return e.eval.Evaluate(c)
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("generation %d: %w", e.generation, err)
	}
	for _, c := range e.population {
		if c.Fitness < e.best.Fitness {
			e.best = c.Clone()
		}
	}
	return nil
}

// report calls the progress callback on the configured cadence, and always on the final generation.
// The last generation of a run is only reported once, as the final report.
func (e *Engine) report(final bool) {
	if e.progress == nil {
		return
	}
	if !final && (e.generation%e.conf.ProgressEvery != 0 || e.generation == e.until || e.lastReported == e.generation) {
		return
	}
	e.lastReported = e.generation
	e.progress(e.snapshot(final))
}

// snapshot summarizes the current generation.
func (e *Engine) snapshot(final bool) Progress {
	fitnesses := make([]float64, len(e.population))
	feasible := 0
	for i, c := range e.population {
		fitnesses[i] = c.Fitness
		if c.Result.Feasible() {
			feasible++
		}
	}
	mean, std := stat.MeanStdDev(fitnesses, nil)
	best := e.Best()
	return Progress{
		Generation:  e.generation,
		Best:        best,
		BestFitness: best.Fitness,
		MinDistance: best.Result.MinDistance,
		DeltaV:      best.Result.DeltaV,
		Days:        best.Result.Days,
		MeanFitness: mean,
		StdFitness:  std,
		Feasible:    feasible,
		Evaluations: e.evaluations,
		Elapsed:     time.Since(e.started),
		Final:       final,
	}
}

// ranked returns the population indices sorted by fitness, best first.
func (e *Engine) ranked() []int {
	idx := make([]int, len(e.population))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(e.population[a].Fitness, e.population[b].Fitness)
	})
	return idx
}

// breed returns the next generation: the elites, unchanged, then mutated offspring of tournament winners.
func (e *Engine) breed() []Chromosome {
	size := len(e.population)
	next := make([]Chromosome, 0, size)
	for _, i := range e.ranked()[:min(e.conf.EliteCount, size)] {
		next = append(next, e.population[i].Clone())
	}
	for len(next) < size {
		p1 := e.population[e.tournament()]
		p2 := e.population[e.tournament()]
		c1, c2 := e.crossover(p1, p2)
		e.mutate(&c1)
		e.mutate(&c2)
		next = append(next, c1)
		if len(next) < size {
			next = append(next, c2)
		}
	}
	return next
}

// tournament samples TournamentSize members with replacement and returns the index of the fittest.
func (e *Engine) tournament() int {
	winner := e.rng.IntN(len(e.population))
	for i := 1; i < e.conf.TournamentSize; i++ {
		if contender := e.rng.IntN(len(e.population)); e.population[contender].Fitness < e.population[winner].Fitness {
			winner = contender
		}
	}
	return winner
}

// crossover performs a single point crossover at a random cut in [1, GeneCount-1].
func (e *Engine) crossover(a, b Chromosome) (Chromosome, Chromosome) {
	return crossoverAt(a, b, 1+e.rng.IntN(GeneCount-1))
}

func crossoverAt(a, b Chromosome, cut int) (Chromosome, Chromosome) {
	var g1, g2 [GeneCount]float64
	for i := 0; i < GeneCount; i++ {
		if i < cut {
			g1[i], g2[i] = a.Genes[i], b.Genes[i]
		} else {
			g1[i], g2[i] = b.Genes[i], a.Genes[i]
		}
	}
	return NewChromosome(g1), NewChromosome(g2)
}

// mutate adds Gaussian noise, proportional to the gene plus a floor, to each gene with probability
// MutationRate, and clamps the result.
func (e *Engine) mutate(c *Chromosome) {
	for i, g := range c.Genes {
		if e.rng.Float64() < e.conf.MutationRate {
			σ := math.Abs(g)*e.conf.MutationStrength + e.conf.MutationFloor
			c.Genes[i] = g + e.gaussian()*σ
		}
	}
	c.Clamp()
	c.Fitness = Unevaluated
}

// gaussian draws from N(0, 1) with the Box-Muller transform.
func (e *Engine) gaussian() float64 {
	u1 := 1 - e.rng.Float64() // in (0, 1]
	u2 := e.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
