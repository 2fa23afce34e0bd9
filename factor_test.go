package bayra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func mustFactor(t *testing.T, evars []*Variable, nvars []*Variable, traced bool) *Factor {
	t.Helper()
	f, err := NewFactor(evars, nvars, traced)
	require.NoError(t, err)
	return f
}

func fillRandom(f *Factor, rng *rand.Rand) {
	for i := 0; i < f.Size(); i++ {
		f.SetValueAt(i, rng.Float64())
	}
}

func TestFactorSortsKeyVariables(t *testing.T) {
	a := NewVariable("a", Boolean)
	b := NewVariable("b", Boolean)
	f := mustFactor(t, []*Variable{b, a}, nil, false)
	assert.Equal(t, []*Variable{a, b}, f.Vars())
	assert.Equal(t, 4, f.Size())
}

func TestScalarFactor(t *testing.T) {
	f := NewScalarFactor(0.25)
	assert.True(t, f.Scalar())
	assert.Equal(t, 1, f.Size())
	assert.InDelta(t, 0.25, f.ValueAt(0), 1e-12)
}

func TestProductCommutativeOnWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d3 := NewDomain("d3", "a", "b", "c")
	x := NewVariable("x", Boolean)
	y := NewVariable("y", d3)
	z := NewVariable("z", Boolean)

	f1 := mustFactor(t, []*Variable{x, y}, nil, false)
	f2 := mustFactor(t, []*Variable{y, z}, nil, false)
	fillRandom(f1, rng)
	fillRandom(f2, rng)

	xy, err := Product(f1, f2)
	require.NoError(t, err)
	yx, err := Product(f2, f1)
	require.NoError(t, err)

	require.Equal(t, xy.Vars(), yx.Vars())
	for i := 0; i < xy.Size(); i++ {
		assert.InDelta(t, xy.ValueAt(i), yx.ValueAt(i), 1e-12)
	}
}

func TestProductStructuralCases(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	x := NewVariable("x", Boolean)
	y := NewVariable("y", Boolean)

	fx := mustFactor(t, []*Variable{x}, nil, false)
	fy := mustFactor(t, []*Variable{y}, nil, false)
	fxy := mustFactor(t, []*Variable{x, y}, nil, false)
	fillRandom(fx, rng)
	fillRandom(fy, rng)
	fillRandom(fxy, rng)

	// Scalar broadcast.
	s := NewScalarFactor(2)
	got, err := Product(s, fx)
	require.NoError(t, err)
	for i := 0; i < fx.Size(); i++ {
		assert.InDelta(t, 2*fx.ValueAt(i), got.ValueAt(i), 1e-12)
	}

	// Full overlap.
	same, err := Product(fx, fx)
	require.NoError(t, err)
	for i := 0; i < fx.Size(); i++ {
		assert.InDelta(t, fx.ValueAt(i)*fx.ValueAt(i), same.ValueAt(i), 1e-12)
	}

	// Contained overlap: check against hand computation.
	cont, err := Product(fxy, fx)
	require.NoError(t, err)
	for i := 0; i < cont.Size(); i++ {
		key := cont.Key(i, nil)
		wantX, err := fx.Value([]int{key[0]})
		require.NoError(t, err)
		assert.InDelta(t, fxy.ValueAt(i)*wantX, cont.ValueAt(i), 1e-12)
	}

	// Disjoint Cartesian.
	dis, err := Product(fx, fy)
	require.NoError(t, err)
	require.Equal(t, 4, dis.Size())
	for i := 0; i < dis.Size(); i++ {
		key := dis.Key(i, nil)
		wx, _ := fx.Value([]int{key[0]})
		wy, _ := fy.Value([]int{key[1]})
		assert.InDelta(t, wx*wy, dis.ValueAt(i), 1e-12)
	}
}

func TestProductGeneralJoinMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	d3 := NewDomain("d3", "a", "b", "c")
	v1 := NewVariable("v1", Boolean)
	v2 := NewVariable("v2", d3)
	v3 := NewVariable("v3", Boolean)
	v4 := NewVariable("v4", d3)

	fa := mustFactor(t, []*Variable{v1, v2, v3}, nil, false)
	fb := mustFactor(t, []*Variable{v2, v4}, nil, false)
	fillRandom(fa, rng)
	fillRandom(fb, rng)

	got, err := Product(fa, fb)
	require.NoError(t, err)
	require.Equal(t, []*Variable{v1, v2, v3, v4}, got.Vars())

	for i := 0; i < got.Size(); i++ {
		key := got.Key(i, nil)
		wa, err := fa.Value([]int{key[0], key[1], key[2]})
		require.NoError(t, err)
		wb, err := fb.Value([]int{key[1], key[3]})
		require.NoError(t, err)
		assert.InDelta(t, wa*wb, got.ValueAt(i), 1e-12)
	}
}

func TestSumOutCommutes(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	d3 := NewDomain("d3", "a", "b", "c")
	a := NewVariable("a", Boolean)
	b := NewVariable("b", d3)
	c := NewVariable("c", Boolean)

	f := mustFactor(t, []*Variable{a, b, c}, nil, false)
	fillRandom(f, rng)

	ab, err := f.SumOut(a)
	require.NoError(t, err)
	ab2, err := ab.SumOut(b)
	require.NoError(t, err)

	ba, err := f.SumOut(b)
	require.NoError(t, err)
	ba2, err := ba.SumOut(a)
	require.NoError(t, err)

	require.Equal(t, ab2.Vars(), ba2.Vars())
	for i := 0; i < ab2.Size(); i++ {
		assert.InDelta(t, ab2.ValueAt(i), ba2.ValueAt(i), 1e-9)
	}
}

func TestSumOutAllYieldsAtomic(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	a := NewVariable("a", Boolean)
	f := mustFactor(t, []*Variable{a}, nil, false)
	fillRandom(f, rng)

	atomic, err := f.SumOut(a)
	require.NoError(t, err)
	assert.True(t, atomic.Scalar())
	assert.InDelta(t, f.Sum(), atomic.ValueAt(0), 1e-12)
}

func TestSumOutMixesJDFs(t *testing.T) {
	a := NewVariable("a", Boolean)
	obs := NewContinuous("obs")
	g0 := NewGaussian(0, 1)
	g1 := NewGaussian(10, 1)

	f := mustFactor(t, []*Variable{a}, []*Variable{obs}, false)
	require.NoError(t, f.SetValue([]int{0}, 0.25))
	require.NoError(t, f.SetValue([]int{1}, 0.75))
	require.NoError(t, f.SetDistrib([]int{0}, obs, g0))
	require.NoError(t, f.SetDistrib([]int{1}, obs, g1))

	out, err := f.SumOut(a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.ValueAt(0), 1e-12)

	jdf := out.JDFAt(0)
	require.NotNil(t, jdf)
	mix, ok := jdf[obs].(*Mixture)
	require.True(t, ok)
	require.Equal(t, 2, mix.Size())
	assert.InDelta(t, 0.25*g0.Get(0.0)+0.75*g1.Get(0.0), mix.Get(0.0), 1e-12)
}

func TestSumOutExcludesZeroWeightJDF(t *testing.T) {
	a := NewVariable("a", Boolean)
	obs := NewContinuous("obs")
	g0 := NewGaussian(0, 1)
	g1 := NewGaussian(10, 1)

	f := mustFactor(t, []*Variable{a}, []*Variable{obs}, false)
	require.NoError(t, f.SetValue([]int{0}, 0))
	require.NoError(t, f.SetValue([]int{1}, 0.5))
	require.NoError(t, f.SetDistrib([]int{0}, obs, g0))
	require.NoError(t, f.SetDistrib([]int{1}, obs, g1))

	out, err := f.SumOut(a)
	require.NoError(t, err)
	// The zero-weight source contributed nothing, so the single survivor
	// is carried unwrapped.
	assert.Equal(t, g1, out.JDFAt(0)[obs])
}

func TestMaxOutTracesWinningAssignment(t *testing.T) {
	d3 := NewDomain("d3", "a", "b", "c")
	a := NewVariable("a", Boolean)
	b := NewVariable("b", d3)

	f := mustFactor(t, []*Variable{a, b}, nil, true)
	weights := []float64{0.1, 0.7, 0.2, 0.05, 0.3, 0.15}
	for i, w := range weights {
		f.SetValueAt(i, w)
	}

	out, err := f.MaxOut(b)
	require.NoError(t, err)
	require.Equal(t, []*Variable{a}, out.Vars())
	assert.InDelta(t, 0.7, out.ValueAt(0), 1e-12)
	assert.InDelta(t, 0.3, out.ValueAt(1), 1e-12)

	tr := out.TraceAt(0)
	require.Len(t, tr, 1)
	assert.Equal(t, b, tr[0].Var)
	assert.Equal(t, 1, tr[0].Value)

	// Max out the rest; the atomic trace holds the full argmax.
	final, err := out.MaxOut(a)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, final.ValueAt(0), 1e-12)
	tr = final.TraceAt(0)
	require.Len(t, tr, 2)
	assert.Equal(t, a, tr[1].Var)
	assert.Equal(t, 0, tr[1].Value)
}

func TestMaxOutTieBreaksToLowestIndex(t *testing.T) {
	a := NewVariable("a", Boolean)
	f := mustFactor(t, []*Variable{a}, nil, true)
	f.SetValueAt(0, 0.5)
	f.SetValueAt(1, 0.5)

	out, err := f.MaxOut(a)
	require.NoError(t, err)
	tr := out.TraceAt(0)
	require.Len(t, tr, 1)
	assert.Equal(t, 0, tr[0].Value)
}

func TestNormalise(t *testing.T) {
	a := NewVariable("a", Boolean)
	f := mustFactor(t, []*Variable{a}, nil, false)
	f.SetValueAt(0, 3)
	f.SetValueAt(1, 1)
	require.NoError(t, f.Normalise())
	assert.InDelta(t, 1.0, f.Sum(), 1e-9)
	assert.InDelta(t, 0.75, f.ValueAt(0), 1e-12)

	zero := mustFactor(t, []*Variable{a}, nil, false)
	assert.ErrorIs(t, zero.Normalise(), ErrEvidenceImpossible)
}

func TestProductCarriesTracesAndEvidenceFlag(t *testing.T) {
	a := NewVariable("a", Boolean)
	b := NewVariable("b", Boolean)

	fa := mustFactor(t, []*Variable{a}, nil, true)
	fa.SetValueAt(0, 0.5)
	fa.SetValueAt(1, 0.5)
	require.NoError(t, fa.AddTrace([]int{0}, Assign{Var: b, Value: 1}))
	fa.SetEvidenced(true)

	fb := mustFactor(t, []*Variable{a}, nil, false)
	fb.SetValueAt(0, 1)
	fb.SetValueAt(1, 1)

	out, err := Product(fa, fb)
	require.NoError(t, err)
	assert.True(t, out.Evidenced())
	assert.True(t, out.Traced())
	tr, err := out.Trace([]int{0})
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, 1, tr[0].Value)
}
