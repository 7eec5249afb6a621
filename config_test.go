package trajopt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func readScenario(t *testing.T, toml string) (Scenario, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(toml)); err != nil {
		t.Fatalf("invalid test scenario: %s", err)
	}
	return LoadScenario(v)
}

func TestLoadScenario(t *testing.T) {
	s, err := readScenario(t, `
[general]
name = "saturn-probe"
output_dir = "/tmp/trajopt"
prefix = "probe"

[mission]
start = "2026-03-01 00:00:00"
max_days = 900
step = "4h"
departure = "earth"
target = "Saturn"
bodies = ["Sun", "Earth", "Jupiter", "Saturn"]

[ga]
population = 20
generations = 10
elite = 1
seed = 7
mutation_rate = 0.2
workers = 2

[ephemeris]
provider = "mean"

[export]
every = 6
`)
	if err != nil {
		t.Fatal(err)
	}
	conf := s.Config
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !conf.Start.Equal(start) || !conf.End.Equal(start.Add(900*24*time.Hour)) {
		t.Fatalf("invalid mission window %s - %s", conf.Start, conf.End)
	}
	if conf.Step != 4*time.Hour || conf.MaxDays != 900 {
		t.Fatalf("invalid step %s or max days %f", conf.Step, conf.MaxDays)
	}
	if !conf.Departure.Equals(Earth) || !conf.Target.Equals(Saturn) || len(conf.Bodies) != 4 {
		t.Fatalf("invalid bodies %s -> %s via %v", conf.Departure, conf.Target, conf.Bodies)
	}
	if conf.PopulationSize != 20 || conf.Generations != 10 || conf.EliteCount != 1 || conf.Seed != 7 || conf.Workers != 2 {
		t.Fatalf("invalid GA settings %+v", conf)
	}
	if conf.MutationRate != 0.2 || conf.MutationStrength != 0.2 || conf.TournamentSize != 3 {
		t.Fatal("unset GA settings should keep their defaults")
	}
	if conf.ExportEvery != 6 || s.Name != "saturn-probe" || s.OutputDir != "/tmp/trajopt" || s.Prefix != "probe" {
		t.Fatalf("invalid scenario %+v", s)
	}
	if eph, err := s.NewEphemeris(); err != nil {
		t.Fatal(err)
	} else if _, ok := eph.(*MeanElementEphemeris); !ok {
		t.Fatalf("expected the mean element ephemeris, got %T", eph)
	}
}

func TestLoadScenarioDates(t *testing.T) {
	s, err := readScenario(t, `
[mission]
start = 2451545.0
end = "2002-01-01 12:00:00"
max_days = 1000
`)
	if err != nil {
		t.Fatal(err)
	}
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if d := s.Config.Start.Sub(j2000); d < -time.Second || d > time.Second {
		t.Fatalf("invalid start from Julian date: %s", s.Config.Start)
	}
	if !s.Config.End.Equal(time.Date(2002, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("explicit end date ignored: %s", s.Config.End)
	}
	// Without any setting, the defaults are used.
	s, err = readScenario(t, "")
	if err != nil {
		t.Fatal(err)
	}
	if def := DefaultConfig(); !s.Config.Start.Equal(def.Start) || !s.Config.End.Equal(def.End) || s.Prefix != "trajopt" {
		t.Fatalf("defaults not used: %+v", s)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	for _, test := range []struct {
		toml string
		err  error
	}{
		{"[mission]\ndeparture = \"pluto\"", ErrUnknownBody},
		{"[mission]\ntarget = \"vesta\"", ErrInvalidConfig},
		{"[mission]\nbodies = [\"sun\", \"ceres\"]", ErrUnknownBody},
		{"[mission]\nstart = \"tomorrow\"", ErrInvalidConfig},
		{"[mission]\ndeparture = \"jupiter\"", ErrInvalidConfig},
		{"[ga]\npopulation = 0", ErrInvalidConfig},
		{"[ga]\nelite = 40", ErrInvalidConfig},
	} {
		if _, err := readScenario(t, test.toml); !errors.Is(err, test.err) {
			t.Fatalf("%q: expected %v, got %v", test.toml, test.err, err)
		}
	}
	for _, provider := range []string{"vsop87", "horizons"} {
		s := Scenario{Config: DefaultConfig(), Ephemeris: provider}
		if _, err := s.NewEphemeris(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", provider, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default configuration is invalid: %s", err)
	}
	for name, invalidate := range map[string]func(*Config){
		"population":  func(c *Config) { c.PopulationSize = 0 },
		"elite":       func(c *Config) { c.EliteCount = c.PopulationSize },
		"generations": func(c *Config) { c.Generations = 0 },
		"step":        func(c *Config) { c.Step = 0 },
		"max days":    func(c *Config) { c.MaxDays = -1 },
		"window":      func(c *Config) { c.End = c.Start },
		"tournament":  func(c *Config) { c.TournamentSize = 0 },
		"guided":      func(c *Config) { c.GuidedCount = -1 },
		"rate":        func(c *Config) { c.MutationRate = 1.5 },
		"strength":    func(c *Config) { c.MutationStrength = -0.2 },
		"workers":     func(c *Config) { c.Workers = -4 },
		"progress":    func(c *Config) { c.ProgressEvery = 0 },
		"export":      func(c *Config) { c.ExportEvery = 0 },
		"target":      func(c *Config) { c.Target = c.Departure },
		"departure":   func(c *Config) { c.Departure = CelestialObject{} },
	} {
		conf := DefaultConfig()
		invalidate(&conf)
		if err := conf.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestConfigBodies(t *testing.T) {
	conf := DefaultConfig()
	conf.Bodies = []CelestialObject{Sun, Mars}
	grav := conf.gravitating()
	if len(grav) != 4 || !grav[2].Equals(Earth) || !grav[3].Equals(Jupiter) {
		t.Fatalf("departure and target should always attract: %v", grav)
	}
	if len(conf.Bodies) != 2 {
		t.Fatal("gravitating modified the configuration")
	}
	tracked := conf.tracked()
	if len(tracked) != 3 || !tracked[0].Equals(Mars) {
		t.Fatalf("the Sun should not be tracked: %v", tracked)
	}
	if conf.workers() < 1 {
		t.Fatal("at least one worker is needed")
	}
}
