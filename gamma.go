package bayra

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gamma is a gamma distribution with shape k and scale theta.
type Gamma struct {
	k     float64
	theta float64
}

func NewGamma(k, theta float64) *Gamma {
	if k <= 0 || theta <= 0 {
		LogFatal("bayra.NewGamma: shape and scale must be positive, got k=%g theta=%g", k, theta)
	}
	return &Gamma{k: k, theta: theta}
}

func (g *Gamma) Shape() float64 { return g.k }
func (g *Gamma) Scale() float64 { return g.theta }

func (g *Gamma) dist() distuv.Gamma {
	// distuv parametrises by rate, the inverse of scale.
	return distuv.Gamma{Alpha: g.k, Beta: 1 / g.theta}
}

// Get returns the density at x (a float64).
func (g *Gamma) Get(x any) float64 {
	v, ok := x.(float64)
	if !ok {
		LogWarning("bayra.Gamma.Get: unsupported point type %T", x)
		return 0
	}
	return g.dist().Prob(v)
}

// Sample draws a float64.
func (g *Gamma) Sample(rng *rand.Rand) any {
	d := g.dist()
	d.Src = rng
	return d.Rand()
}
