package bayra

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// randomFactorSet builds 8 factors over 10 shared variables, each spanning
// a small random subset.
func randomFactorSet(t *testing.T, rng *rand.Rand) []*Factor {
	t.Helper()
	d2 := NewDomain("d2", "0", "1")
	d3 := NewDomain("d3", "0", "1", "2")
	vars := make([]*Variable, 10)
	for i := range vars {
		d := d2
		if i%3 == 0 {
			d = d3
		}
		vars[i] = NewVariable(fmt.Sprintf("v%d", i), d)
	}

	fs := make([]*Factor, 8)
	for i := range fs {
		n := 1 + rng.Intn(3)
		perm := rng.Perm(len(vars))[:n]
		sub := make([]*Variable, n)
		for j, p := range perm {
			sub[j] = vars[p]
		}
		f, err := NewFactor(sub, nil, false)
		require.NoError(t, err)
		for c := 0; c < f.Size(); c++ {
			f.SetValueAt(c, 0.05+rng.Float64())
		}
		fs[i] = f
	}
	return fs
}

func TestProductTreeMatchesLinearProduct(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		fs := randomFactorSet(t, rng)

		linear := fs[0]
		var err error
		for _, f := range fs[1:] {
			linear, err = Product(linear, f)
			require.NoError(t, err)
		}

		tree, err := ProductMany(fs...)
		require.NoError(t, err)

		require.Equal(t, linear.Vars(), tree.Vars(), "seed %d", seed)
		for i := 0; i < linear.Size(); i++ {
			lw, tw := linear.ValueAt(i), tree.ValueAt(i)
			if lw == 0 && tw == 0 {
				continue
			}
			ratio := tw / lw
			require.Greater(t, ratio, 0.999, "seed %d cell %d", seed, i)
			require.Less(t, ratio, 1.001, "seed %d cell %d", seed, i)
		}
	}
}

func TestProductManyTrivial(t *testing.T) {
	_, err := ProductMany()
	require.Error(t, err)

	f := NewScalarFactor(0.5)
	got, err := ProductMany(f)
	require.NoError(t, err)
	require.Same(t, f, got)
}
