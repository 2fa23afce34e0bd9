package bn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/bn"
	"github.com/HazelnutParadise/bayra/subst"
)

func TestCPTTextRoundTrip(t *testing.T) {
	a := bayra.NewVariable("textA", bayra.Boolean)
	b := bayra.NewVariable("textB", bayra.Boolean)

	orig, err := bn.NewCPT(b, []*bayra.Variable{a}, [][]float64{{0.2, 0.8}, {0.6, 0.4}})
	require.NoError(t, err)
	text, err := bn.AsText(orig)
	require.NoError(t, err)

	blank, err := bn.NewCPT(b, []*bayra.Variable{a}, nil)
	require.NoError(t, err)
	require.NoError(t, bn.FromText(blank, text))

	row, err := blank.Row([]int{1})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, row.Get("false"), 1e-12)
	assert.InDelta(t, 0.4, row.Get("true"), 1e-12)
}

func TestGDTTextRoundTrip(t *testing.T) {
	s := bayra.NewVariable("textSwitch", bayra.Boolean)
	x := bayra.NewContinuous("textSensor")

	orig, err := bn.NewGDT(x, []*bayra.Variable{s}, []*bayra.Gaussian{
		bayra.NewGaussian(-1, 2),
		bayra.NewGaussian(3, 0.5),
	})
	require.NoError(t, err)
	text, err := bn.AsText(orig)
	require.NoError(t, err)

	blank, err := bn.NewGDT(x, []*bayra.Variable{s}, nil)
	require.NoError(t, err)
	require.NoError(t, bn.FromText(blank, text))

	again, err := bn.AsText(blank)
	require.NoError(t, err)
	assert.JSONEq(t, text, again)
}

func TestSubstTextRoundTrip(t *testing.T) {
	model, err := subst.Named(subst.GLOOME1)
	require.NoError(t, err)
	p := bayra.NewVariable("textEdgeParent", model.Alphabet())
	c := bayra.NewVariable("textEdgeChild", model.Alphabet())

	orig, err := bn.NewSubst(c, p, model, 0.35)
	require.NoError(t, err)
	text, err := bn.AsText(orig)
	require.NoError(t, err)
	assert.Contains(t, text, "GLOOME1")

	// Restore over a node whose branch length has drifted.
	mutated, err := bn.NewSubst(c, p, model, 9)
	require.NoError(t, err)
	require.NoError(t, bn.FromText(mutated, text))
	assert.Equal(t, "GLOOME1", mutated.Model().Name())
	assert.InDelta(t, 0.35, mutated.Length(), 1e-12)
}

func TestFromTextRejectsWrongKind(t *testing.T) {
	a := bayra.NewVariable("kindA", bayra.Boolean)
	cpt, err := bn.NewPrior(a, 0.5, 0.5)
	require.NoError(t, err)
	err = bn.FromText(cpt, `{"Type":"gdt"}`)
	assert.ErrorIs(t, err, bayra.ErrIncompleteNetwork)
}
