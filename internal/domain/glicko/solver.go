package glicko

import (
	"fmt"
	"math"
)

// maxBracketSteps bounds the downward search for the lower bracket.
const maxBracketSteps = 10_000

// volatilitySolver finds the new volatility with regula falsi and the
// Illinois correction.
type volatilitySolver struct {
	tau           float64
	epsilon       float64
	maxIterations int
}

// target is the function whose root is ln(sigma'^2). deviation, delta and
// variance are on the internal scale; alpha is ln(sigma^2).
func (s volatilitySolver) target(deviation, delta, variance, alpha float64) func(x float64) float64 {
	phi2 := deviation * deviation
	delta2 := delta * delta
	tau2 := s.tau * s.tau
	return func(x float64) float64 {
		ex := math.Exp(x)
		tmp := phi2 + ex + variance
		return ex*(delta2-tmp)/(2*tmp*tmp) - (x-alpha)/tau2
	}
}

// solve returns the new volatility and the number of narrowing iterations.
func (s volatilitySolver) solve(deviation, volatility, delta, variance float64) (float64, int, error) {
	alpha := math.Log(volatility * volatility)
	f := s.target(deviation, delta, variance, alpha)

	a := alpha
	var b float64
	if excess := delta*delta - deviation*deviation - variance; excess > 0 {
		b = math.Log(excess)
	} else {
		k := 1
		for f(alpha-float64(k)*s.tau) < 0 {
			k++
			if k > maxBracketSteps {
				return 0, 0, fmt.Errorf("%w: no sign change below ln(sigma^2)=%v", ErrNonConvergence, alpha)
			}
		}
		b = alpha - float64(k)*s.tau
	}

	x, iterations, err := s.narrow(f, a, b)
	if err != nil {
		return 0, iterations, err
	}
	return math.Exp(x / 2), iterations, nil
}

// narrow shrinks the bracket [a, b] around the root of f and returns it.
func (s volatilitySolver) narrow(f func(float64) float64, a, b float64) (float64, int, error) {
	fa, fb := f(a), f(b)
	if fb == 0 {
		return b, 0, nil
	}
	iterations := 0
	for math.Abs(b-a) > s.epsilon {
		if iterations >= s.maxIterations {
			return 0, iterations, fmt.Errorf("%w: bracket [%v, %v] after %d iterations", ErrNonConvergence, a, b, iterations)
		}
		iterations++

		c := a + (a-b)*fa/(fb-fa)
		fc := f(c)
		switch {
		case math.IsNaN(fc) || math.IsInf(fc, 0):
			return 0, iterations, fmt.Errorf("%w: target undefined at %v", ErrNonConvergence, c)
		case fc == 0:
			return c, iterations, nil
		case fc*fb < 0:
			a, fa = b, fb
		default:
			fa /= 2
		}
		b, fb = c, fc
	}
	return a, iterations, nil
}
