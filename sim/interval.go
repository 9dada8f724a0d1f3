package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Interval distributions accepted by NewIntervalSampler.
const (
	IntervalUniform = "uniform"
	IntervalPoisson = "poisson"
	IntervalGamma   = "gamma"
	IntervalWeibull = "weibull"
)

var validIntervalProcesses = map[string]bool{
	"":              true, // empty defaults to uniform
	IntervalUniform: true,
	IntervalPoisson: true,
	IntervalGamma:   true,
	IntervalWeibull: true,
}

// IsValidIntervalProcess reports whether name is a recognized interval distribution.
func IsValidIntervalProcess(name string) bool {
	return validIntervalProcesses[name]
}

// IntervalSampler draws the time (ms) until the next arrival or the length
// of an I/O operation.
type IntervalSampler interface {
	// Sample always returns a value >= 1.
	Sample(rng *rand.Rand) int64
}

// UniformSampler draws 1 + U[0, 2*mean), so the mean is about mean.
// A mean of 0 or less always gives 1.
type UniformSampler struct {
	mean int64
}

func (s UniformSampler) Sample(rng *rand.Rand) int64 {
	if s.mean <= 0 {
		return 1
	}
	return 1 + rng.Int63n(2*s.mean)
}

// ExponentialSampler draws exponentially distributed intervals (CV=1),
// which makes arrivals a Poisson process.
type ExponentialSampler struct {
	mean float64
}

func (s ExponentialSampler) Sample(rng *rand.Rand) int64 {
	return atLeastOne(rng.ExpFloat64() * s.mean)
}

// GammaSampler draws Gamma-distributed intervals. CV > 1 gives bursty arrivals.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // mean·CV²
}

func (s GammaSampler) Sample(rng *rand.Rand) int64 {
	return atLeastOne(gammaRand(rng, s.shape, s.scale))
}

// gammaRand samples Gamma(shape, scale) with Marsaglia-Tsang for shape >= 1
// and Gamma(a) = Gamma(a+1)·U^(1/a) below that.
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler draws Weibull-distributed intervals by inverse CDF.
type WeibullSampler struct {
	shape float64 // k
	scale float64 // λ, ms
}

func (s WeibullSampler) Sample(rng *rand.Rand) int64 {
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // -ln(0) is +Inf
	}
	return atLeastOne(s.scale * math.Pow(-math.Log(u), 1.0/s.shape))
}

func atLeastOne(sample float64) int64 {
	if sample < 1 {
		return 1
	}
	return int64(sample)
}

// NewIntervalSampler builds the sampler for process with the given mean (ms).
// cv is the coefficient of variation and only matters for gamma and weibull.
func NewIntervalSampler(process string, mean int64, cv float64) (IntervalSampler, error) {
	if !IsValidIntervalProcess(process) {
		return nil, fmt.Errorf("%w: unknown interval distribution %q", ErrInvalidConfig, process)
	}
	if mean <= 0 || process == "" || process == IntervalUniform {
		return UniformSampler{mean: mean}, nil
	}
	if cv <= 0 {
		cv = 1.0
	}

	m := float64(mean)
	switch process {
	case IntervalGamma:
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return ExponentialSampler{mean: m}, nil
		}
		return GammaSampler{shape: shape, scale: m * cv * cv}, nil
	case IntervalWeibull:
		k := weibullShapeFromCV(cv)
		return WeibullSampler{shape: k, scale: m / math.Gamma(1.0+1.0/k)}, nil
	default:
		return ExponentialSampler{mean: m}, nil
	}
}

// weibullShapeFromCV finds k with CV² = Γ(1+2/k)/Γ(1+1/k)² - 1 by bisection over [0.1, 100].
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV decreases as k grows
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}
