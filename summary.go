package trajopt

import (
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Burn is an impulsive Δv in a Summary.
type Burn struct {
	Day       float64    `toml:"day"`
	DeltaV    [2]float64 `toml:"delta_v"` // m/s
	Magnitude float64    `toml:"magnitude"`
}

func newBurn(day float64, dv Vector2) Burn {
	return Burn{day, [2]float64{dv.X, dv.Y}, dv.Norm()}
}

// Summary is the human readable outcome of an optimization.
type Summary struct {
	Fitness     float64            `toml:"fitness"`
	MinDistance float64            `toml:"min_distance_au"`
	DeltaV      float64            `toml:"delta_v"`
	Days        float64            `toml:"days"`
	Crashed     bool               `toml:"crashed"`
	CrashedInto string             `toml:"crashed_into,omitempty"`
	Escaped     bool               `toml:"escaped"`
	Launch      Burn               `toml:"launch"`
	Maneuvers   []Burn             `toml:"maneuvers"`
	Genes       [GeneCount]float64 `toml:"genes"`
}

// NewSummary decodes the genes and the last simulation of a chromosome.
func NewSummary(c Chromosome) Summary {
	s := Summary{
		Fitness:     c.Fitness,
		MinDistance: c.Result.MinDistance,
		DeltaV:      c.Result.DeltaV,
		Days:        c.Result.Days,
		Crashed:     c.Result.Crashed,
		CrashedInto: c.Result.CrashedInto,
		Escaped:     c.Result.Escaped,
		Launch:      newBurn(0, c.LaunchDeltaV()),
		Genes:       c.Genes,
	}
	for _, m := range c.Maneuvers() {
		s.Maneuvers = append(s.Maneuvers, newBurn(m.Day, m.DeltaV))
	}
	return s
}

// Chromosome returns an unevaluated chromosome with the genes of this summary.
func (s Summary) Chromosome() Chromosome {
	return NewChromosome(s.Genes)
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fitness: %.6f\n", s.Fitness)
	fmt.Fprintf(&b, "closest approach: %.6f AU\n", s.MinDistance)
	fmt.Fprintf(&b, "total Δv: %.1f m/s\n", s.DeltaV)
	fmt.Fprintf(&b, "duration: %.1f days\n", s.Days)
	if s.Crashed {
		fmt.Fprintf(&b, "crashed into %s\n", s.CrashedInto)
	}
	if s.Escaped {
		b.WriteString("escaped the solar system\n")
	}
	fmt.Fprintf(&b, "launch: Δv=(%.1f, %.1f) m/s |Δv|=%.1f m/s\n", s.Launch.DeltaV[0], s.Launch.DeltaV[1], s.Launch.Magnitude)
	for i, m := range s.Maneuvers {
		fmt.Fprintf(&b, "maneuver #%d: day %.1f Δv=(%.1f, %.1f) m/s |Δv|=%.1f m/s\n", i+1, m.Day, m.DeltaV[0], m.DeltaV[1], m.Magnitude)
	}
	return b.String()
}

// WriteTOML writes the summary as TOML.
func (s Summary) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// ReadSummary reads a summary written by WriteTOML.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := toml.NewDecoder(r).Decode(&s); err != nil {
		return s, fmt.Errorf("invalid summary: %w", err)
	}
	return s, nil
}
