package bayra

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minVariance floors every trained Gaussian variance.
const minVariance = 0.01

// Gaussian is a normal distribution parametrised by mean and variance.
type Gaussian struct {
	mu     float64
	sigma2 float64
}

func NewGaussian(mu, sigma2 float64) *Gaussian {
	if sigma2 <= 0 {
		LogWarning("bayra.NewGaussian: non-positive variance %g floored to %g", sigma2, minVariance)
		sigma2 = minVariance
	}
	return &Gaussian{mu: mu, sigma2: sigma2}
}

func (g *Gaussian) Mu() float64       { return g.mu }
func (g *Gaussian) Variance() float64 { return g.sigma2 }

func (g *Gaussian) dist() distuv.Normal {
	return distuv.Normal{Mu: g.mu, Sigma: math.Sqrt(g.sigma2)}
}

// Get returns the density at x (a float64).
func (g *Gaussian) Get(x any) float64 {
	v, ok := x.(float64)
	if !ok {
		LogWarning("bayra.Gaussian.Get: unsupported point type %T", x)
		return 0
	}
	return g.dist().Prob(v)
}

// Sample draws a float64.
func (g *Gaussian) Sample(rng *rand.Rand) any {
	d := g.dist()
	d.Src = rng
	return d.Rand()
}

// VariancePolicy selects how variances are tied when fitting a table of
// Gaussians from grouped samples.
type VariancePolicy int

const (
	// VarianceUntied fits each group's variance independently.
	VarianceUntied VariancePolicy = iota
	// VarianceTiedMax ties every group to the maximum group variance.
	VarianceTiedMax
	// VarianceTiedPooled ties every group to the pooled variance
	// sum((n_i-1)*s2_i) / sum(n_i-1).
	VarianceTiedPooled
)

// FitGaussians estimates one Gaussian per sample group under the given
// variance policy. Empty groups produce nil entries. Variances are floored
// at 0.01.
func FitGaussians(groups [][]float64, policy VariancePolicy) []*Gaussian {
	means := make([]float64, len(groups))
	vars_ := make([]float64, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		means[i], vars_[i] = stat.MeanVariance(g, nil)
		if len(g) < 2 || math.IsNaN(vars_[i]) {
			vars_[i] = 0
		}
	}

	switch policy {
	case VarianceTiedMax:
		maxVar := 0.0
		for i, g := range groups {
			if len(g) > 0 && vars_[i] > maxVar {
				maxVar = vars_[i]
			}
		}
		for i := range vars_ {
			vars_[i] = maxVar
		}
	case VarianceTiedPooled:
		num, den := 0.0, 0.0
		for i, g := range groups {
			if len(g) > 1 {
				num += float64(len(g)-1) * vars_[i]
				den += float64(len(g) - 1)
			}
		}
		pooled := 0.0
		if den > 0 {
			pooled = num / den
		}
		for i := range vars_ {
			vars_[i] = pooled
		}
	}

	out := make([]*Gaussian, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		out[i] = NewGaussian(means[i], math.Max(vars_[i], minVariance))
	}
	return out
}
