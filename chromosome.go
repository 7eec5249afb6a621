package trajopt

import (
	"fmt"
	"math"
	"strings"
)

// GeneCount is the number of genes of a Chromosome.
const GeneCount = 8

// Gene indices.
const (
	GeneLaunchX = iota // Launch Δv, radial component (m/s)
	GeneLaunchY        // Launch Δv, along track component (m/s)
	GeneBurn1Day       // Mission day of the first maneuver
	GeneBurn1X         // First maneuver Δv X (m/s)
	GeneBurn1Y         // First maneuver Δv Y (m/s)
	GeneBurn2Day       // Mission day of the second maneuver
	GeneBurn2X         // Second maneuver Δv X (m/s)
	GeneBurn2Y         // Second maneuver Δv Y (m/s)
)

// Unevaluated is the fitness of a chromosome which has not been simulated yet. It compares as worse
// than any fitness Fitness can return.
const Unevaluated = math.MaxFloat64

// Bound is a closed gene range.
type Bound struct {
	Min, Max float64
}

// Clamp returns v within the bound.
func (b Bound) Clamp(v float64) float64 {
	return clamp(v, b.Min, b.Max)
}

// Contains returns whether v is within the bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// GeneBounds are the admissible ranges of each gene.
var GeneBounds = [GeneCount]Bound{
	{-10000, 10000},
	{5000, 15000},
	{50, 600},
	{-3000, 3000},
	{-3000, 3000},
	{200, 1000},
	{-3000, 3000},
	{-3000, 3000},
}

// guidedBounds are narrower ranges around physically plausible Earth to Jupiter transfers.
var guidedBounds = [GeneCount]Bound{
	{-2000, 2000},
	{8000, 10000},
	{80, 250},
	{-500, 500},
	{-500, 500},
	{300, 600},
	{-500, 500},
	{-500, 500},
}

// Chromosome is a candidate transfer.
// The genes are stored in an array so that copying a Chromosome never aliases the genes of another one.
type Chromosome struct {
	Genes   [GeneCount]float64
	Fitness float64
	Result  TrajectoryResult // Result of the last simulation, if evaluated.
}

// NewChromosome returns an unevaluated chromosome with the provided genes.
func NewChromosome(genes [GeneCount]float64) Chromosome {
	return Chromosome{Genes: genes, Fitness: Unevaluated}
}

// Clone returns a deep copy.
func (c Chromosome) Clone() Chromosome {
	return c
}

// Evaluated returns whether this chromosome has a fitness.
func (c Chromosome) Evaluated() bool {
	return c.Fitness != Unevaluated
}

// Clamp enforces the gene bounds.
func (c *Chromosome) Clamp() {
	for i, b := range GeneBounds {
		c.Genes[i] = b.Clamp(c.Genes[i])
	}
}

// InBounds returns whether all genes are within their bounds.
func (c Chromosome) InBounds() bool {
	for i, b := range GeneBounds {
		if !b.Contains(c.Genes[i]) {
			return false
		}
	}
	return true
}

// Maneuver is an impulsive burn scheduled on a mission day.
type Maneuver struct {
	Day    float64
	DeltaV Vector2 // m/s
}

func (m Maneuver) String() string {
	return fmt.Sprintf("day %.1f Δv=%s m/s (|Δv|=%.1f m/s)", m.Day, m.DeltaV, m.DeltaV.Norm())
}

// LaunchDeltaV returns the launch Δv in the departure body's radial/along track frame.
func (c Chromosome) LaunchDeltaV() Vector2 {
	return Vector2{c.Genes[GeneLaunchX], c.Genes[GeneLaunchY]}
}

// Maneuvers decodes the two mid-course maneuvers.
func (c Chromosome) Maneuvers() [2]Maneuver {
	return [2]Maneuver{
		{c.Genes[GeneBurn1Day], Vector2{c.Genes[GeneBurn1X], c.Genes[GeneBurn1Y]}},
		{c.Genes[GeneBurn2Day], Vector2{c.Genes[GeneBurn2X], c.Genes[GeneBurn2Y]}},
	}
}

func (c Chromosome) String() string {
	genes := make([]string, GeneCount)
	for i, g := range c.Genes {
		genes[i] = fmt.Sprintf("%.3f", g)
	}
	fitness := "unevaluated"
	if c.Evaluated() {
		fitness = fmt.Sprintf("%.6f", c.Fitness)
	}
	return fmt.Sprintf("[%s] fitness=%s", strings.Join(genes, ", "), fitness)
}
