package trajopt

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// DateTimeFormat is the format of all dates in scenarios and exported files.
const DateTimeFormat = "2006-01-02 15:04:05"

// ErrInvalidConfig is returned when a configuration is rejected before any simulation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration of an optimization run. It is passed by value and never modified
// by the consumers.
type Config struct {
	Start, End time.Time     // Mission window; End is a hard stop.
	Step       time.Duration // Integration time step
	MaxDays    float64       // Bounds the number of steps
	Departure  CelestialObject
	Target     CelestialObject
	Bodies     []CelestialObject // Gravitating bodies

	PopulationSize   int
	Generations      int
	EliteCount       int
	TournamentSize   int
	GuidedCount      int
	MutationRate     float64
	MutationStrength float64
	MutationFloor    float64
	Seed             uint64
	Workers          int // Evaluation goroutines, 0 means one per CPU.
	ProgressEvery    int // Generations between two progress reports

	ExportEvery int // Steps between two exported samples
}

// DefaultConfig returns the configuration of an Earth to Jupiter transfer starting on 2026-01-01.
func DefaultConfig() Config {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Config{
		Start:            start,
		End:              start.Add(1200 * 24 * time.Hour),
		Step:             2 * time.Hour,
		MaxDays:          1200,
		Departure:        Earth,
		Target:           Jupiter,
		Bodies:           []CelestialObject{Sun, Earth, Mars, Jupiter},
		PopulationSize:   40,
		Generations:      50,
		EliteCount:       2,
		TournamentSize:   3,
		GuidedCount:      5,
		MutationRate:     0.1,
		MutationStrength: 0.2,
		MutationFloor:    100,
		Seed:             42,
		Workers:          0,
		ProgressEvery:    5,
		ExportEvery:      12,
	}
}

// Validate returns an error wrapping ErrInvalidConfig if the configuration cannot be run.
func (c Config) Validate() error {
	var problems []string
	if c.PopulationSize <= 0 {
		problems = append(problems, fmt.Sprintf("population size must be positive (got %d)", c.PopulationSize))
	}
	if c.EliteCount < 0 || (c.PopulationSize > 0 && c.EliteCount >= c.PopulationSize) {
		problems = append(problems, fmt.Sprintf("elite count must be in [0, %d) (got %d)", c.PopulationSize, c.EliteCount))
	}
	if c.Generations <= 0 {
		problems = append(problems, fmt.Sprintf("generation count must be positive (got %d)", c.Generations))
	}
	if c.Step <= 0 {
		problems = append(problems, fmt.Sprintf("time step must be positive (got %s)", c.Step))
	}
	if c.MaxDays <= 0 {
		problems = append(problems, fmt.Sprintf("max days must be positive (got %f)", c.MaxDays))
	}
	if !c.End.After(c.Start) {
		problems = append(problems, fmt.Sprintf("mission end %s is not after start %s", c.End, c.Start))
	}
	if c.TournamentSize < 1 {
		problems = append(problems, fmt.Sprintf("tournament size must be at least 1 (got %d)", c.TournamentSize))
	}
	if c.GuidedCount < 0 {
		problems = append(problems, fmt.Sprintf("guided count cannot be negative (got %d)", c.GuidedCount))
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		problems = append(problems, fmt.Sprintf("mutation rate must be in [0, 1] (got %f)", c.MutationRate))
	}
	if c.MutationStrength < 0 || c.MutationFloor < 0 {
		problems = append(problems, "mutation strength and floor cannot be negative")
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("worker count cannot be negative (got %d)", c.Workers))
	}
	if c.ProgressEvery <= 0 {
		problems = append(problems, fmt.Sprintf("progress interval must be positive (got %d)", c.ProgressEvery))
	}
	if c.ExportEvery <= 0 {
		problems = append(problems, fmt.Sprintf("export interval must be positive (got %d)", c.ExportEvery))
	}
	if c.Departure.Name == "" || c.Target.Name == "" {
		problems = append(problems, "departure and target bodies are required")
	} else if c.Departure.Equals(c.Target) {
		problems = append(problems, "departure and target must differ")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// workers returns the number of evaluation goroutines.
func (c Config) workers() int {
	if c.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// gravitating returns the bodies which attract the spacecraft, always including the departure and
// target bodies. The returned slice is a copy.
func (c Config) gravitating() []CelestialObject {
	bodies := make([]CelestialObject, 0, len(c.Bodies)+2)
	bodies = append(bodies, c.Bodies...)
	for _, must := range []CelestialObject{c.Departure, c.Target} {
		found := false
		for _, b := range bodies {
			if b.Equals(must) {
				found = true
				break
			}
		}
		if !found {
			bodies = append(bodies, must)
		}
	}
	return bodies
}

// tracked returns the bodies written to exported trajectories: every gravitating body but the Sun.
func (c Config) tracked() []CelestialObject {
	var bodies []CelestialObject
	for _, b := range c.gravitating() {
		if b.key() != "sun" {
			bodies = append(bodies, b)
		}
	}
	return bodies
}

// Scenario is a Config along with the settings of its surroundings (ephemeris and output files).
type Scenario struct {
	Name      string
	Config    Config
	Ephemeris string // "mean" or "vsop87"
	VSOP87Dir string
	OutputDir string
	Prefix    string
}

// NewEphemeris returns the ephemeris selected by this scenario.
func (s Scenario) NewEphemeris() (Ephemeris, error) {
	switch strings.ToLower(s.Ephemeris) {
	case "", "mean":
		return NewMeanElementEphemeris(), nil
	case "vsop87":
		if s.VSOP87Dir == "" {
			return nil, fmt.Errorf("%w: ephemeris.vsop87_dir is required for VSOP87", ErrInvalidConfig)
		}
		return NewVSOP87Ephemeris(s.VSOP87Dir, s.Config.gravitating()...)
	default:
		return nil, fmt.Errorf("%w: unknown ephemeris provider `%s`", ErrInvalidConfig, s.Ephemeris)
	}
}

// LoadScenario reads a scenario from viper, starting from DefaultConfig. The returned configuration is validated.
func LoadScenario(v *viper.Viper) (Scenario, error) {
	conf := DefaultConfig()
	s := Scenario{Name: v.GetString("general.name"), Ephemeris: "mean", OutputDir: "./", Prefix: "trajopt"}

	var err error
	if v.IsSet("mission.start") {
		if conf.Start, err = confReadJDEorTime(v, "mission.start"); err != nil {
			return s, err
		}
		// The end date follows the start date unless it is set.
		conf.End = conf.Start.Add(time.Duration(conf.MaxDays*24) * time.Hour)
	}
	if v.IsSet("mission.max_days") {
		conf.MaxDays = v.GetFloat64("mission.max_days")
		if !v.IsSet("mission.end") {
			conf.End = conf.Start.Add(time.Duration(conf.MaxDays*24) * time.Hour)
		}
	}
	if v.IsSet("mission.end") {
		if conf.End, err = confReadJDEorTime(v, "mission.end"); err != nil {
			return s, err
		}
	}
	if v.IsSet("mission.step") {
		conf.Step = v.GetDuration("mission.step")
	}
	if v.IsSet("mission.departure") {
		if conf.Departure, err = CelestialObjectFromString(v.GetString("mission.departure")); err != nil {
			return s, fmt.Errorf("%w: mission.departure: %w", ErrInvalidConfig, err)
		}
	}
	if v.IsSet("mission.target") {
		if conf.Target, err = CelestialObjectFromString(v.GetString("mission.target")); err != nil {
			return s, fmt.Errorf("%w: mission.target: %w", ErrInvalidConfig, err)
		}
	}
	if v.IsSet("mission.bodies") {
		if conf.Bodies, err = CelestialObjectsFromStrings(v.GetStringSlice("mission.bodies")); err != nil {
			return s, fmt.Errorf("%w: mission.bodies: %w", ErrInvalidConfig, err)
		}
	}

	for key, dst := range map[string]*int{
		"ga.population":     &conf.PopulationSize,
		"ga.generations":    &conf.Generations,
		"ga.elite":          &conf.EliteCount,
		"ga.tournament":     &conf.TournamentSize,
		"ga.guided":         &conf.GuidedCount,
		"ga.workers":        &conf.Workers,
		"ga.progress_every": &conf.ProgressEvery,
		"export.every":      &conf.ExportEvery,
	} {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	for key, dst := range map[string]*float64{
		"ga.mutation_rate":     &conf.MutationRate,
		"ga.mutation_strength": &conf.MutationStrength,
		"ga.mutation_floor":    &conf.MutationFloor,
	} {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	if v.IsSet("ga.seed") {
		conf.Seed = v.GetUint64("ga.seed")
	}

	if v.IsSet("ephemeris.provider") {
		s.Ephemeris = v.GetString("ephemeris.provider")
	}
	s.VSOP87Dir = v.GetString("ephemeris.vsop87_dir")
	if dir := v.GetString("general.output_dir"); dir != "" {
		s.OutputDir = dir
	}
	if prefix := v.GetString("general.prefix"); prefix != "" {
		s.Prefix = prefix
	}
	s.Config = conf
	return s, conf.Validate()
}

// confReadJDEorTime reads a date which is either a Julian date or a DateTimeFormat string in UTC.
func confReadJDEorTime(v *viper.Viper, key string) (time.Time, error) {
	if jde := v.GetFloat64(key); jde != 0 {
		return julian.JDToTime(jde), nil
	}
	dt, err := time.Parse(DateTimeFormat, v.GetString(key))
	if err != nil {
		return dt, fmt.Errorf("%w: could not understand `%s`: %w", ErrInvalidConfig, key, err)
	}
	return dt, nil
}
