package bayra

import "golang.org/x/exp/rand"

// Distrib is the shared capability set of the leaf probability objects.
// Get returns a density or mass at a point; the point type depends on the
// member: string or int for Categorical, float64 for Gaussian and Gamma,
// []float64 or *Categorical for Dirichlet. Sample draws from the
// distribution using the caller-owned generator.
type Distrib interface {
	Get(x any) float64
	Sample(rng *rand.Rand) any
}
