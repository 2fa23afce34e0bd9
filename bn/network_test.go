package bn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/bn"
)

func TestCompileRejectsCycle(t *testing.T) {
	a := bayra.NewVariable("cycleA", bayra.Boolean)
	b := bayra.NewVariable("cycleB", bayra.Boolean)

	ca, err := bn.NewCPT(a, []*bayra.Variable{b}, [][]float64{{0.5, 0.5}, {0.5, 0.5}})
	require.NoError(t, err)
	cb, err := bn.NewCPT(b, []*bayra.Variable{a}, [][]float64{{0.5, 0.5}, {0.5, 0.5}})
	require.NoError(t, err)

	nw := bn.New()
	require.NoError(t, nw.AddNode(ca))
	require.NoError(t, nw.AddNode(cb))
	assert.ErrorIs(t, nw.Compile(), bayra.ErrIncompleteNetwork)
}

func TestCompileRejectsMissingParent(t *testing.T) {
	a := bayra.NewVariable("orphanParent", bayra.Boolean)
	b := bayra.NewVariable("orphanChild", bayra.Boolean)

	cb, err := bn.NewCPT(b, []*bayra.Variable{a}, [][]float64{{0.5, 0.5}, {0.5, 0.5}})
	require.NoError(t, err)

	nw := bn.New()
	require.NoError(t, nw.AddNode(cb))
	assert.ErrorIs(t, nw.Compile(), bayra.ErrIncompleteNetwork)
}

func TestAddNodeRejectsDuplicates(t *testing.T) {
	a := bayra.NewVariable("dupVar", bayra.Boolean)
	p1, err := bn.NewPrior(a, 0.5, 0.5)
	require.NoError(t, err)
	p2, err := bn.NewPrior(a, 0.4, 0.6)
	require.NoError(t, err)

	nw := bn.New()
	require.NoError(t, nw.AddNode(p1))
	assert.ErrorIs(t, nw.AddNode(p2), bayra.ErrIncompleteNetwork)
}

func TestSetEvidenceValidation(t *testing.T) {
	a := bayra.NewVariable("evVar", bayra.Boolean)
	p, err := bn.NewPrior(a, 0.5, 0.5)
	require.NoError(t, err)
	nw := bn.New()
	require.NoError(t, nw.AddNode(p))

	assert.ErrorIs(t, nw.SetEvidence(a, "maybe"), bayra.ErrInvalidDomain)
	assert.ErrorIs(t, nw.SetEvidence(a, 1.5), bayra.ErrInvalidDomain)
	require.NoError(t, nw.SetEvidence(a, "true"))
	assert.Equal(t, "true", nw.Evidence(a))

	nw.ClearEvidence()
	assert.Nil(t, nw.Evidence(a))
}

func TestTopologicalOrder(t *testing.T) {
	a := bayra.NewVariable("topoA", bayra.Boolean)
	b := bayra.NewVariable("topoB", bayra.Boolean)

	pb, err := bn.NewCPT(b, []*bayra.Variable{a}, [][]float64{{0.5, 0.5}, {0.5, 0.5}})
	require.NoError(t, err)
	pa, err := bn.NewPrior(a, 0.5, 0.5)
	require.NoError(t, err)

	nw := bn.New()
	require.NoError(t, nw.AddNode(pb))
	require.NoError(t, nw.AddNode(pa))
	require.NoError(t, nw.Compile())

	order := nw.Variables()
	require.Len(t, order, 2)
	assert.Equal(t, a, order[0])
	assert.Equal(t, b, order[1])
	assert.Equal(t, []*bayra.Variable{b}, nw.Children(a))
}
