package tools

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const (
	ε             = 1e-6                   // General epsilon
	tε            = 1e-6                   // Time epsilon (1e-6 seconds)
	νε            = (5e-5 / 180) * math.Pi // 0.00005 degrees
	maxIterations = 1000
)

// ErrLambertNoConvergence is returned when the time of flight cannot be matched.
var ErrLambertNoConvergence = errors.New("Lambert solver did not converge")

// Lambert solves the Lambert boundary problem:
// Given the initial and final radii and the gravitational parameter μ of the central body, it returns the
// needed initial and final velocities along with ψ which is the square of the difference in eccentric
// anomaly. Units only need to be consistent (e.g. km, s and km^3/s^2).
// The direction of motion dm is either 1 (short way), -1 (long way) or 0 to pick the short way in the
// direction of the motion of the planets.
func Lambert(Ri, Rf *mat.VecDense, Δt0, dm, μ float64) (Vi, Vf *mat.VecDense, ψ float64, err error) {
	// Sanity checks
	if Ri.Len() != Rf.Len() || Ri.Len() != 3 {
		err = errors.New("initial and final radii must be 3x1 vectors")
		return
	}
	if Δt0 <= 0 || μ <= 0 {
		err = fmt.Errorf("time of flight (%f) and μ (%f) must be positive", Δt0, μ)
		return
	}
	// Initialize return variables
	Vi = mat.NewVecDense(3, nil)
	Vf = mat.NewVecDense(3, nil)
	rI := mat.Norm(Ri, 2)
	rF := mat.Norm(Rf, 2)
	cosΔν := mat.Dot(Ri, Rf) / (rI * rF)
	// Compute the direction of motion
	Δν := math.Mod(math.Atan2(Rf.AtVec(1), Rf.AtVec(0))-math.Atan2(Ri.AtVec(1), Ri.AtVec(0)), 2*math.Pi)
	if Δν < 0 {
		Δν += 2 * math.Pi
	}
	if dm == 0 {
		if Δν < math.Pi {
			dm = 1
		} else {
			dm = -1
		}
	} else if dm != 1 && dm != -1 {
		err = errors.New("direction of motion must be either 0, -1 or 1 (multi rev not supported)")
		return
	}
	A := dm * math.Sqrt(rI*rF*(1+cosΔν))
	if math.Abs(Δν-math.Pi) < νε || scalar.EqualWithinAbs(A, 0, ε) {
		err = errors.New("Δν ~=π and A ~=0, cannot compute trajectory")
		return
	}
	ψ = 0
	ψup := 4 * math.Pow(math.Pi, 2)
	ψlow := -4 * math.Pi
	// Initial guesses for c2 and c3
	c2, c3 := 1/2., 1/6.
	Δtε := math.Max(tε, Δt0*1e-12)
	var Δt, y float64
	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			// ψlow is readjusted until y is positive.
			ψ = (0.8 / c3) * (1 - (math.Sqrt(c2)/A)*(rI+rF))
			ψlow = ψ
			c2, c3 = stumpff(ψ)
			continue
		}
		χ := math.Sqrt(y / c2)
		Δt = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / math.Sqrt(μ)
		if math.Abs(Δt-Δt0) <= Δtε {
			converged = true
			break
		}
		if Δt < Δt0 {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
		c2, c3 = stumpff(ψ)
	}
	if !converged {
		err = fmt.Errorf("%w: Δt=%f instead of %f after %d iterations", ErrLambertNoConvergence, Δt, Δt0, maxIterations)
		return
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/μ)
	// Compute velocities
	Rf2 := mat.NewVecDense(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	return
}

// stumpff returns the c2 and c3 Stumpff functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	if ψ > ε {
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		return (1 - csψ) / ψ, (sψ - ssψ) / math.Pow(sψ, 3)
	} else if ψ < -ε {
		sψ := math.Sqrt(-ψ)
		return (1 - math.Cosh(sψ)) / ψ, (math.Sinh(sψ) - sψ) / math.Pow(sψ, 3)
	}
	return 1 / 2., 1 / 6.
}
