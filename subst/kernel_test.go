package subst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/HazelnutParadise/bayra"
)

func TestProbsRowsSumToOne(t *testing.T) {
	for _, name := range Names() {
		m, err := Named(name)
		require.NoError(t, err, name)
		k := m.Alphabet().Size()
		for _, tt := range []float64{0.001, 0.1, 1, 10, 100} {
			p, err := m.Probs(tt)
			require.NoError(t, err)
			for i := 0; i < k; i++ {
				sum := 0.0
				for j := 0; j < k; j++ {
					sum += p.At(i, j)
					assert.GreaterOrEqual(t, p.At(i, j), 0.0)
				}
				assert.InDelta(t, 1.0, sum, 1e-6, "%s t=%g row %d", name, tt, i)
			}
		}
	}
}

func TestProbsZeroIsIdentity(t *testing.T) {
	m, err := Named(LG)
	require.NoError(t, err)
	p, err := m.Probs(0)
	require.NoError(t, err)
	k := m.Alphabet().Size()
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, p.At(i, j), 1e-9)
		}
	}
}

func TestProbsSemigroup(t *testing.T) {
	m, err := Named(WAG)
	require.NoError(t, err)
	k := m.Alphabet().Size()

	p1, err := m.Probs(0.3)
	require.NoError(t, err)
	p2, err := m.Probs(0.9)
	require.NoError(t, err)
	p3, err := m.Probs(1.2)
	require.NoError(t, err)

	var prod mat.Dense
	prod.Mul(p1, p2)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			assert.InDelta(t, p3.At(i, j), prod.At(i, j), 1e-6)
		}
	}
}

func TestProbsDiagonalDominanceShortTime(t *testing.T) {
	m, err := Named(LG)
	require.NoError(t, err)
	kIdx, err := m.Alphabet().Index("K")
	require.NoError(t, err)
	p, err := m.Prob(0.1, kIdx, kIdx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p, 0.85)
}

func TestProbsCacheReturnsSameMatrix(t *testing.T) {
	m, err := Named(JTT)
	require.NoError(t, err)
	p1, err := m.Probs(0.42)
	require.NoError(t, err)
	p2, err := m.Probs(0.42)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := New("bad", Nucleotides, []float64{0.5, 0.5}, symmetric(4, yangExchange))
	require.Error(t, err)
	assert.True(t, errors.Is(err, bayra.ErrInvalidModel))

	_, err = New("bad", Nucleotides, yangFreqs, symmetric(2, binaryExchange))
	require.Error(t, err)
	assert.True(t, errors.Is(err, bayra.ErrInvalidModel))
}

func TestUnknownModelName(t *testing.T) {
	_, err := Named("NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, bayra.ErrInvalidModel))
}

func TestPriorMatchesFrequencies(t *testing.T) {
	m, err := Named(Yang)
	require.NoError(t, err)
	prior := m.Prior()
	for i, v := range m.Alphabet().Values() {
		assert.InDelta(t, m.Pi()[i], prior.Get(v), 1e-12)
	}
}
