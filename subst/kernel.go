// Package subst implements time-reversible substitution models over finite
// alphabets: rate-matrix construction, eigen-decomposition, and cached
// time-parametrised transition-probability matrices.
package subst

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/HazelnutParadise/bayra"
	"gonum.org/v1/gonum/mat"
)

// rowSumTol is the tolerance beyond which a probability row is
// renormalised.
const rowSumTol = 1e-6

// Model is a continuous-time Markov substitution model. The rate matrix is
// eigen-decomposed once at construction; Probs results are cached per
// branch length behind a lock, so repeated queries at the same time are
// O(1) after the first.
type Model struct {
	name     string
	alphabet *bayra.Domain
	pi       []float64

	lambda []float64 // eigenvalues of Q, real parts
	vecs   *mat.Dense
	inv    *mat.Dense

	degenerate bool

	mu    sync.Mutex
	cache map[float64]*mat.Dense
}

// New builds a model from stationary frequencies and a symmetric exchange
// matrix S: Qij = Sij * pi_j for i != j.
func New(name string, alphabet *bayra.Domain, pi []float64, exch *mat.Dense) (*Model, error) {
	k := alphabet.Size()
	if err := checkDims(name, k, pi, exch); err != nil {
		return nil, err
	}
	q := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if i != j {
				q.Set(i, j, exch.At(i, j)*pi[j])
			}
		}
	}
	return finish(name, alphabet, pi, q)
}

// NewQ builds a model directly from a rate matrix Q; only the off-diagonal
// entries are read, the diagonal is recomputed.
func NewQ(name string, alphabet *bayra.Domain, pi []float64, q *mat.Dense) (*Model, error) {
	k := alphabet.Size()
	if err := checkDims(name, k, pi, q); err != nil {
		return nil, err
	}
	cp := mat.NewDense(k, k, nil)
	cp.Copy(q)
	return finish(name, alphabet, pi, cp)
}

func checkDims(name string, k int, pi []float64, m *mat.Dense) error {
	if len(pi) != k {
		return fmt.Errorf("%w: model %q has %d frequencies for alphabet size %d", bayra.ErrInvalidModel, name, len(pi), k)
	}
	r, c := m.Dims()
	if r != k || c != k {
		return fmt.Errorf("%w: model %q matrix is %dx%d, want %dx%d", bayra.ErrInvalidModel, name, r, c, k, k)
	}
	return nil
}

// finish zeroes the row sums, normalises Q to one expected substitution
// per unit time, and caches the eigen-decomposition.
func finish(name string, alphabet *bayra.Domain, pi []float64, q *mat.Dense) (*Model, error) {
	k := alphabet.Size()
	for i := 0; i < k; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			if i != j {
				sum += q.At(i, j)
			}
		}
		q.Set(i, i, -sum)
	}
	rate := 0.0
	for i := 0; i < k; i++ {
		rate += -q.At(i, i) * pi[i]
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (total rate %g)", bayra.ErrInvalidModel, name, rate)
	}
	q.Scale(1/rate, q)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if math.IsNaN(q.At(i, j)) || math.IsInf(q.At(i, j), 0) {
				return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (non-finite entry)", bayra.ErrInvalidModel, name)
			}
		}
	}

	m := &Model{
		name:     name,
		alphabet: alphabet,
		pi:       append([]float64(nil), pi...),
		cache:    make(map[float64]*mat.Dense),
	}

	var eig mat.Eigen
	if ok := eig.Factorize(q, mat.EigenRight); !ok {
		return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (eigen-decomposition failed)", bayra.ErrInvalidModel, name)
	}
	values := eig.Values(nil)
	cvecs := mat.NewCDense(k, k, nil)
	eig.VectorsTo(cvecs)

	// The rate matrix is similar to a symmetric one, so the spectrum is
	// real up to numerical noise; borderline matrices can come back with
	// complex parts, which are dropped and the model flagged degenerate.
	m.lambda = make([]float64, k)
	m.vecs = mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		if math.Abs(imag(values[i])) > 1e-9 {
			m.degenerate = true
		}
		m.lambda[i] = real(values[i])
		for j := 0; j < k; j++ {
			if math.Abs(imag(cvecs.At(i, j))) > 1e-9 {
				m.degenerate = true
			}
			m.vecs.Set(i, j, real(cvecs.At(i, j)))
		}
	}
	for _, v := range values {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (non-finite eigenvalue)", bayra.ErrInvalidModel, name)
		}
	}
	if m.degenerate {
		bayra.LogWarning("subst.New: model %q has a borderline spectrum; imaginary parts dropped", name)
	}

	m.inv = mat.NewDense(k, k, nil)
	if err := m.inv.Inverse(m.vecs); err != nil {
		return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (singular eigenvector matrix)", bayra.ErrInvalidModel, name)
	}
	return m, nil
}

func (m *Model) Name() string            { return m.name }
func (m *Model) Alphabet() *bayra.Domain { return m.alphabet }

// Pi returns the stationary frequencies. The slice must not be mutated.
func (m *Model) Pi() []float64 { return m.pi }

// Degenerate reports whether the spectrum came back with imaginary parts
// that were dropped.
func (m *Model) Degenerate() bool { return m.degenerate }

// Probs returns the transition-probability matrix P(t) = V exp(t L) V^-1,
// where Probs(t).At(i, j) = P(state at time t = j | state at 0 = i).
// Results are cached per t; the returned matrix must not be mutated.
func (m *Model) Probs(t float64) (*mat.Dense, error) {
	if bayra.Config.GetThreadSafetyStatus() {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	if p, ok := m.cache[t]; ok {
		return p, nil
	}

	k := m.alphabet.Size()
	diag := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		diag.Set(i, i, math.Exp(t*m.lambda[i]))
	}
	var tmp, p mat.Dense
	tmp.Mul(m.vecs, diag)
	p.Mul(&tmp, m.inv)

	// Sign noise from the decomposition shows up as tiny negative
	// probabilities; absolute values suppress it.
	for i := 0; i < k; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			v := math.Abs(p.At(i, j))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: model %q has degenerate rate matrix (non-finite P(%g))", bayra.ErrInvalidModel, m.name, t)
			}
			p.Set(i, j, v)
			sum += v
		}
		if math.Abs(sum-1) > rowSumTol {
			for j := 0; j < k; j++ {
				p.Set(i, j, p.At(i, j)/sum)
			}
		}
	}

	out := mat.DenseCopyOf(&p)
	m.cache[t] = out
	return out, nil
}

// Prob returns P(state at time t = child | state at 0 = parent).
func (m *Model) Prob(t float64, parent, child int) (float64, error) {
	p, err := m.Probs(t)
	if err != nil {
		return 0, err
	}
	return p.At(parent, child), nil
}

// Prior returns the stationary distribution as a categorical over the
// alphabet.
func (m *Model) Prior() *bayra.Categorical {
	return bayra.NewCategorical(m.alphabet, m.pi...)
}
