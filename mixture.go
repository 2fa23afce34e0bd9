package bayra

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mixture is a weighted collection of component distributions. Weights are
// stored unnormalised; Get and Sample normalise on the fly. Adding a
// mixture into a mixture flattens into a single component map, so nesting
// never occurs.
type Mixture struct {
	components []Distrib
	weights    []float64
	pos        map[Distrib]int
}

func NewMixture() *Mixture {
	return &Mixture{pos: make(map[Distrib]int)}
}

// Add inserts a component with the given weight. An existing component
// accumulates weight. Adding a *Mixture merges its components with their
// weights multiplied by w.
func (m *Mixture) Add(d Distrib, w float64) *Mixture {
	if w < 0 {
		LogWarning("bayra.Mixture.Add: negative weight %g ignored", w)
		return m
	}
	if inner, ok := d.(*Mixture); ok {
		for i, c := range inner.components {
			m.Add(c, inner.weights[i]*w)
		}
		return m
	}
	if i, ok := m.pos[d]; ok {
		m.weights[i] += w
		return m
	}
	m.pos[d] = len(m.components)
	m.components = append(m.components, d)
	m.weights = append(m.weights, w)
	return m
}

// Size returns the number of distinct components.
func (m *Mixture) Size() int { return len(m.components) }

// Components returns the components in insertion order.
func (m *Mixture) Components() []Distrib { return m.components }

// Weight returns the accumulated weight of a component, 0 if absent.
func (m *Mixture) Weight(d Distrib) float64 {
	if i, ok := m.pos[d]; ok {
		return m.weights[i]
	}
	return 0
}

func (m *Mixture) total() float64 {
	sum := 0.0
	for _, w := range m.weights {
		sum += w
	}
	return sum
}

// Get returns the weight-normalised mixture density or mass at x.
func (m *Mixture) Get(x any) float64 {
	total := m.total()
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for i, c := range m.components {
		sum += m.weights[i] * c.Get(x)
	}
	return sum / total
}

// Sample picks a component proportionally to its weight, then samples it.
func (m *Mixture) Sample(rng *rand.Rand) any {
	if len(m.components) == 0 {
		LogWarning("bayra.Mixture.Sample: empty mixture")
		return nil
	}
	pick := distuv.NewCategorical(m.weights, rng)
	return m.components[int(pick.Rand())].Sample(rng)
}
