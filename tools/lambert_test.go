package tools

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ChristopherRabotin/trajopt"
	"gonum.org/v1/gonum/mat"
)

const μEarth = 3.98600433e5 // km^3/s^2

func TestLambert(t *testing.T) {
	// From Vallado 4th edition, page 497
	Ri := mat.NewVecDense(3, []float64{15945.34, 0, 0})
	Rf := mat.NewVecDense(3, []float64{12214.83899, 10249.46731, 0})
	ViExp := mat.NewVecDense(3, []float64{2.058913, 2.915965, 0})
	VfExp := mat.NewVecDense(3, []float64{-3.451565, 0.910315, 0})
	for _, dm := range []float64{0, 1} {
		Vi, Vf, ψ, err := Lambert(Ri, Rf, 76.0*60, dm, μEarth)
		if err != nil {
			t.Fatalf("err %s", err)
		}
		if !mat.EqualApprox(Vi, ViExp, 1e-6) {
			t.Logf("ψ=%f", ψ)
			t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vi.T()), mat.Formatted(ViExp.T()))
			t.Fatalf("[dm=%f] incorrect Vi computed", dm)
		}
		if !mat.EqualApprox(Vf, VfExp, 1e-6) {
			t.Logf("ψ=%f", ψ)
			t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vf.T()), mat.Formatted(VfExp.T()))
			t.Fatalf("[dm=%f] incorrect Vf computed", dm)
		}
	}
	// Test with dm=-1
	ViExp = mat.NewVecDense(3, []float64{-3.811158, -2.003854, 0})
	VfExp = mat.NewVecDense(3, []float64{4.207569, 0.914724, 0})

	Vi, Vf, ψ, err := Lambert(Ri, Rf, 76.0*60, -1, μEarth)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !mat.EqualApprox(Vi, ViExp, 1e-6) {
		t.Logf("ψ=%f", ψ)
		t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vi.T()), mat.Formatted(ViExp.T()))
		t.Fatal("[dm=-1] incorrect Vi computed")
	}
	if !mat.EqualApprox(Vf, VfExp, 1e-6) {
		t.Logf("ψ=%f", ψ)
		t.Logf("\nGot %+v\nExp %+v\n", mat.Formatted(Vf.T()), mat.Formatted(VfExp.T()))
		t.Fatal("[dm=-1] incorrect Vf computed")
	}
}

func TestLambertErrors(t *testing.T) {
	Ri := mat.NewVecDense(3, []float64{15945.34, 0, 0})
	Rf := mat.NewVecDense(3, []float64{12214.83899, 10249.46731, 0})
	if _, _, _, err := Lambert(Ri, Rf, 76.0*60, 2, μEarth); err == nil {
		t.Fatal("err should not be nil if dm == 2")
	}
	if _, _, _, err := Lambert(mat.NewVecDense(2, []float64{15945.34, 0}), Rf, 76.0*60, 1, μEarth); err == nil {
		t.Fatal("err should not be nil if the R vectors are of different dimensions")
	}
	if _, _, _, err := Lambert(mat.NewVecDense(2, []float64{15945.34, 0}), mat.NewVecDense(2, []float64{12214.83899, 10249.46731}), 76.0*60, 1, μEarth); err == nil {
		t.Fatal("err should not be nil if the R vectors are of not of dimension 3x1")
	}
	if _, _, _, err := Lambert(Ri, Rf, -1, 1, μEarth); err == nil {
		t.Fatal("err should not be nil for a negative time of flight")
	}
	opposite := mat.NewVecDense(3, []float64{-15945.34, 0, 0})
	if _, _, _, err := Lambert(Ri, opposite, 76.0*60, 1, μEarth); err == nil {
		t.Fatal("err should not be nil if the radii are opposite")
	}
}

func TestStumpff(t *testing.T) {
	for _, ψ := range []float64{-30, -1, -1e-3, 1e-3, 1, 30} {
		c2, c3 := stumpff(ψ)
		// Series expansions: c2 = 1/2 - ψ/24 + ..., c3 = 1/6 - ψ/120 + ...
		if math.Abs(ψ) < 1e-2 && (math.Abs(c2-(0.5-ψ/24)) > 1e-8 || math.Abs(c3-(1/6.-ψ/120)) > 1e-8) {
			t.Fatalf("ψ=%f: c2=%f c3=%f", ψ, c2, c3)
		}
		if c2 <= 0 || c3 <= 0 {
			t.Fatalf("ψ=%f: Stumpff functions must be positive (c2=%f c3=%f)", ψ, c2, c3)
		}
	}
}

// stubEphemeris places bodies at fixed positions (AU).
type stubEphemeris map[string]trajopt.Vector2

func (s stubEphemeris) Position(body trajopt.CelestialObject, dt time.Time) (trajopt.Vector2, error) {
	if strings.EqualFold(body.Name, "sun") {
		return trajopt.Vector2{}, nil
	}
	pos, ok := s[strings.ToLower(body.Name)]
	if !ok {
		return pos, trajopt.ErrUnknownBody
	}
	return pos, nil
}

func TestLambertSeeds(t *testing.T) {
	pad := trajopt.CelestialObject{Name: "Pad", Radius: 1, CrashRadius: 1e7, OrbitalSpeed: 29780}
	outpost := trajopt.CelestialObject{Name: "Outpost", Radius: 1}
	s, c := math.Sincos(3 * math.Pi / 4)
	eph := stubEphemeris{"pad": {X: 1}, "outpost": {X: 3.5 * c, Y: 3.5 * s}}
	conf := trajopt.DefaultConfig()
	conf.Departure = pad
	conf.Target = outpost
	conf.Bodies = []trajopt.CelestialObject{trajopt.Sun}

	seeds, err := LambertSeeds(eph, conf, 300, 700)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 2 || seeds[0].Clamped || !seeds[1].Clamped {
		t.Fatalf("unexpected seeds %v", seeds)
	}
	if !seeds[1].Chromosome.InBounds() || len(Chromosomes(seeds)) != 2 {
		t.Fatal("seeds should be clamped to the gene bounds")
	}
	if launch := seeds[0].Chromosome.LaunchDeltaV(); launch != seeds[0].Launch {
		t.Fatalf("launch genes %s differ from the launch %s", launch, seeds[0].Launch)
	}
	// Flying the unclamped seed reaches the outpost.
	rslt, err := trajopt.NewSimulator(conf, eph).Simulate(seeds[0].Chromosome)
	if err != nil {
		t.Fatal(err)
	}
	if rslt.MinDistance > 0.02 || !rslt.Feasible() {
		t.Fatalf("Lambert seed missed the target: %s", rslt)
	}

	conf.Target = trajopt.CelestialObject{Name: "Nowhere"}
	if _, err := LambertSeeds(eph, conf, 300); !errors.Is(err, trajopt.ErrEphemeris) {
		t.Fatalf("expected ErrEphemeris, got %v", err)
	}
}

func TestHohmann(t *testing.T) {
	// Earth to Mars, circular orbits.
	μ := trajopt.Sun.GM()
	vDep, vArr, tof := Hohmann(trajopt.AU, 1.524*trajopt.AU, μ)
	if days := tof.Hours() / 24; math.Abs(days-259) > 1 {
		t.Fatalf("Earth-Mars Hohmann transfer should last ~259 days, got %f", days)
	}
	if vI := math.Sqrt(μ / trajopt.AU); math.Abs(vDep-vI-2945) > 10 {
		t.Fatalf("invalid departure Δv %f m/s", vDep-vI)
	}
	if vF := math.Sqrt(μ / (1.524 * trajopt.AU)); math.Abs(vF-vArr-2649) > 10 {
		t.Fatalf("invalid arrival Δv %f m/s", vF-vArr)
	}
}

func TestScanSeeds(t *testing.T) {
	pad := trajopt.CelestialObject{Name: "Pad", Radius: 1, OrbitalSpeed: 29780}
	outpost := trajopt.CelestialObject{Name: "Outpost", Radius: 1}
	s, c := math.Sincos(170 * math.Pi / 180)
	eph := stubEphemeris{"pad": {X: 1}, "outpost": {X: 3.5 * c, Y: 3.5 * s}}
	conf := trajopt.DefaultConfig()
	conf.Departure = pad
	conf.Target = outpost

	tof, err := HohmannTOF(eph, conf)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, exp := Hohmann(trajopt.AU, 3.5*trajopt.AU, trajopt.Sun.GM()); math.Abs(tof-exp.Hours()/24) > 1e-6 {
		t.Fatalf("invalid Hohmann TOF %f", tof)
	}
	seeds, err := ScanSeeds(eph, conf, 200, 1000, 50, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 3 || seeds[0].TOF != 550 {
		t.Fatalf("expected 3 seeds starting with a 550 days TOF, got %v", seeds)
	}
	for i := 1; i < len(seeds); i++ {
		if seeds[i].Launch.Norm() < seeds[i-1].Launch.Norm() {
			t.Fatal("seeds are not sorted by launch Δv")
		}
	}
	if _, err := ScanSeeds(eph, conf, 200, 100, 50, 3); err == nil {
		t.Fatal("expected an error for an empty scan")
	}
	conf.Target = trajopt.CelestialObject{Name: "Nowhere"}
	if _, err := ScanSeeds(eph, conf, 200, 1000, 50, 3); !errors.Is(err, trajopt.ErrEphemeris) {
		t.Fatalf("expected ErrEphemeris, got %v", err)
	}
}
