package bayra

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Categorical is a probability vector over an enumerable domain.
type Categorical struct {
	domain *Domain
	p      []float64
}

// NewCategorical creates a categorical distribution over domain. With no
// probabilities it starts uniform; otherwise p must have one entry per
// domain value.
func NewCategorical(domain *Domain, p ...float64) *Categorical {
	c := &Categorical{domain: domain, p: make([]float64, domain.Size())}
	if len(p) == 0 {
		for i := range c.p {
			c.p[i] = 1.0 / float64(domain.Size())
		}
		return c
	}
	if len(p) != domain.Size() {
		LogFatal("bayra.NewCategorical: %d probabilities for domain %q of size %d", len(p), domain.Name(), domain.Size())
	}
	copy(c.p, p)
	return c
}

func (c *Categorical) Domain() *Domain { return c.domain }

// P returns the probability vector. The slice must not be mutated.
func (c *Categorical) P() []float64 { return c.p }

// Get returns the mass at x, which may be a domain value or an index.
func (c *Categorical) Get(x any) float64 {
	switch v := x.(type) {
	case string:
		i, err := c.domain.Index(v)
		if err != nil {
			LogWarning("bayra.Categorical.Get: %v", err)
			return 0
		}
		return c.p[i]
	case int:
		return c.p[v]
	default:
		LogWarning("bayra.Categorical.Get: unsupported point type %T", x)
		return 0
	}
}

// Set assigns mass p to the given domain value.
func (c *Categorical) Set(value string, p float64) error {
	i, err := c.domain.Index(value)
	if err != nil {
		return err
	}
	c.p[i] = p
	return nil
}

// SetAll replaces the whole vector.
func (c *Categorical) SetAll(p []float64) {
	copy(c.p, p)
}

// Normalise scales the vector to sum to one. Returns
// ErrEvidenceImpossible when the vector is all zero.
func (c *Categorical) Normalise() error {
	sum := 0.0
	for _, p := range c.p {
		sum += p
	}
	if sum <= 0 {
		return ErrEvidenceImpossible
	}
	for i := range c.p {
		c.p[i] /= sum
	}
	return nil
}

// Sample draws a domain value.
func (c *Categorical) Sample(rng *rand.Rand) any {
	d := distuv.NewCategorical(c.p, rng)
	return c.domain.Value(int(d.Rand()))
}
