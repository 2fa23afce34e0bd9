package bayra

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distmv"
)

// Convergence thresholds for FitAlpha.
const (
	dirichletGradTol = 1.0 / (1 << 20)
	dirichletRateTol = 1.0 / (1 << 10)
)

// Dirichlet is a Dirichlet distribution over the probability simplex of an
// enumerable domain.
type Dirichlet struct {
	domain *Domain
	alpha  []float64
}

// NewDirichlet creates a Dirichlet with the given concentration vector,
// one entry per domain value. With no alphas it defaults to all ones.
func NewDirichlet(domain *Domain, alpha ...float64) *Dirichlet {
	d := &Dirichlet{domain: domain, alpha: make([]float64, domain.Size())}
	if len(alpha) == 0 {
		for i := range d.alpha {
			d.alpha[i] = 1
		}
		return d
	}
	if len(alpha) != domain.Size() {
		LogFatal("bayra.NewDirichlet: %d concentrations for domain %q of size %d", len(alpha), domain.Name(), domain.Size())
	}
	copy(d.alpha, alpha)
	return d
}

func (d *Dirichlet) Domain() *Domain { return d.domain }

// Alpha returns the concentration vector. The slice must not be mutated.
func (d *Dirichlet) Alpha() []float64 { return d.alpha }

// Get returns the density at a point on the simplex, given either as a
// []float64 or a *Categorical over the same domain.
func (d *Dirichlet) Get(x any) float64 {
	var p []float64
	switch v := x.(type) {
	case []float64:
		p = v
	case *Categorical:
		p = v.P()
	default:
		LogWarning("bayra.Dirichlet.Get: unsupported point type %T", x)
		return 0
	}
	if len(p) != len(d.alpha) {
		LogWarning("bayra.Dirichlet.Get: point has %d components, expected %d", len(p), len(d.alpha))
		return 0
	}
	return math.Exp(distmv.NewDirichlet(d.alpha, nil).LogProb(p))
}

// Sample draws a probability vector as a []float64.
func (d *Dirichlet) Sample(rng *rand.Rand) any {
	return distmv.NewDirichlet(d.alpha, rng).Rand(nil)
}

// logLikelihood of a set of observed simplex points under Dir(alpha), using
// the sufficient statistic meanLogP (mean log-probability per component).
func dirichletLogLik(alpha []float64, meanLogP []float64, n float64) float64 {
	a0 := floats.Sum(alpha)
	ll := lgamma(a0)
	for i, a := range alpha {
		ll += -lgamma(a) + (a-1)*meanLogP[i]
	}
	return n * ll
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// FitAlpha estimates the concentration vector by maximum likelihood from a
// set of observed categorical distributions over the same domain. It runs
// gradient ascent on the sufficient statistic (mean log-probabilities) with
// step halving, stopping when the gradient l2-norm drops below 2^-20 or the
// learn rate below 2^-10.
func (d *Dirichlet) FitAlpha(observed []*Categorical) {
	if len(observed) == 0 {
		return
	}
	k := len(d.alpha)
	meanLogP := make([]float64, k)
	for _, c := range observed {
		for i, p := range c.P() {
			// Clamp away from zero so absent categories do not
			// produce -Inf statistics.
			meanLogP[i] += math.Log(math.Max(p, 1e-12))
		}
	}
	for i := range meanLogP {
		meanLogP[i] /= float64(len(observed))
	}

	n := float64(len(observed))
	alpha := append([]float64(nil), d.alpha...)
	grad := make([]float64, k)
	next := make([]float64, k)
	rate := 1.0
	ll := dirichletLogLik(alpha, meanLogP, n)

	for rate >= dirichletRateTol {
		a0 := floats.Sum(alpha)
		for i := range grad {
			grad[i] = n * (mathext.Digamma(a0) - mathext.Digamma(alpha[i]) + meanLogP[i])
		}
		if floats.Norm(grad, 2) < dirichletGradTol {
			break
		}
		ok := false
		for rate >= dirichletRateTol {
			valid := true
			for i := range next {
				next[i] = alpha[i] + rate*grad[i]
				if next[i] <= 0 {
					valid = false
					break
				}
			}
			if valid {
				if nll := dirichletLogLik(next, meanLogP, n); nll > ll {
					ll = nll
					copy(alpha, next)
					ok = true
					break
				}
			}
			rate /= 2
		}
		if !ok {
			break
		}
	}
	copy(d.alpha, alpha)
}
