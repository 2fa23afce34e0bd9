package recon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/subst"
)

const testTree = "((A:0.1,B:0.1)X:0.1,(C:0.1,D:0.1)Y:0.1)R;"

func TestJointReconstructionConservedColumns(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{
		"A": "AAC",
		"B": "AAC",
		"C": "AGC",
		"D": "AGC",
	})
	require.NoError(t, err)

	res, err := Reconstruct(context.Background(), tree, aln, subst.Yang, Options{Mode: Joint, Workers: 2})
	require.NoError(t, err)

	require.Contains(t, res.Ancestors, "R")
	require.Contains(t, res.Ancestors, "X")
	require.Contains(t, res.Ancestors, "Y")
	require.Len(t, res.Ancestors["R"], 3)

	// A fully conserved column reconstructs the conserved symbol
	// everywhere.
	assert.Equal(t, "A", res.Ancestors["R"][0])
	assert.Equal(t, "A", res.Ancestors["X"][0])
	assert.Equal(t, "A", res.Ancestors["Y"][0])
	assert.Equal(t, "C", res.Ancestors["R"][2])

	// Clade-conserved symbols survive at the clade ancestors.
	assert.Equal(t, "A", res.Ancestors["X"][1])
	assert.Equal(t, "G", res.Ancestors["Y"][1])
}

func TestMarginalReconstruction(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{
		"A": "AA",
		"B": "AA",
		"C": "AT",
		"D": "AT",
	})
	require.NoError(t, err)

	res, err := Reconstruct(context.Background(), tree, aln, subst.Yang, Options{
		Mode:          Marginal,
		BranchPointID: "X",
	})
	require.NoError(t, err)

	require.Len(t, res.Marginals, 2)
	require.Contains(t, res.Ancestors, "X")
	assert.Len(t, res.Ancestors, 1)

	sum := 0.0
	for _, p := range res.Marginals[0].P() {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, "A", res.Ancestors["X"][0])
	// Column 2: X's clade reads A, so A dominates even though the other
	// clade reads T.
	assert.Equal(t, "A", res.Ancestors["X"][1])
	assert.Greater(t, res.Marginals[1].Get("A"), res.Marginals[1].Get("T"))
}

func TestMarginalRequiresBranchPoint(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{"A": "A", "B": "A", "C": "A", "D": "A"})
	require.NoError(t, err)

	_, err = Reconstruct(context.Background(), tree, aln, subst.Yang, Options{Mode: Marginal, BranchPointID: "A"})
	assert.ErrorIs(t, err, bayra.ErrIncompleteNetwork)
	_, err = Reconstruct(context.Background(), tree, aln, subst.Yang, Options{Mode: Marginal, BranchPointID: "nope"})
	assert.ErrorIs(t, err, bayra.ErrIncompleteNetwork)
}

func TestReconstructUnknownModel(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{"A": "A", "B": "A", "C": "A", "D": "A"})
	require.NoError(t, err)

	_, err = Reconstruct(context.Background(), tree, aln, "NOPE", Options{})
	assert.ErrorIs(t, err, bayra.ErrInvalidModel)
}

func TestReconstructMissingLeafSequence(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{"A": "A", "B": "A", "C": "A"})
	require.NoError(t, err)

	_, err = Reconstruct(context.Background(), tree, aln, subst.Yang, Options{})
	assert.ErrorIs(t, err, bayra.ErrIncompleteNetwork)
}

func TestGapInference(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{
		"A": "AA",
		"B": "AA",
		"C": "A-",
		"D": "A-",
	})
	require.NoError(t, err)

	res, err := Reconstruct(context.Background(), tree, aln, subst.Yang, Options{Mode: Joint, IncludeGaps: true})
	require.NoError(t, err)

	// The gapped clade's ancestor is reconstructed absent; the conserved
	// column stays intact.
	assert.Equal(t, GapSymbol, res.Ancestors["Y"][1])
	assert.Equal(t, "A", res.Ancestors["X"][1])
	assert.Equal(t, "A", res.Ancestors["Y"][0])
}

func TestReconstructCancellation(t *testing.T) {
	tree, err := ParseNewick(testTree)
	require.NoError(t, err)
	aln, err := NewAlignment(map[string]string{
		"A": "AAAAAAAA",
		"B": "AAAAAAAA",
		"C": "AAAAAAAA",
		"D": "AAAAAAAA",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Reconstruct(ctx, tree, aln, subst.Yang, Options{})
	assert.ErrorIs(t, err, bayra.ErrCancelled)
}

func waitForJob(t *testing.T, q *Queue, id string) State {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		s, err := q.Status(id)
		require.NoError(t, err)
		if s == Complete || s == Failed || s == Cancelled {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not settle in time")
	return Failed
}

func TestQueueLifecycle(t *testing.T) {
	q := NewQueue(2)
	id := q.Submit(Request{
		Tree:      testTree,
		Alignment: map[string]string{"A": "AC", "B": "AC", "C": "AC", "D": "AC"},
		Model:     subst.Yang,
	})

	state := waitForJob(t, q, id)
	require.Equal(t, Complete, state)

	res, err := q.Output(id)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Ancestors["R"][0])
	assert.Equal(t, "C", res.Ancestors["R"][1])
}

func TestQueueFailure(t *testing.T) {
	q := NewQueue(1)
	id := q.Submit(Request{
		Tree:      testTree,
		Alignment: map[string]string{"A": "A", "B": "A", "C": "A", "D": "A"},
		Model:     "NOPE",
	})
	state := waitForJob(t, q, id)
	require.Equal(t, Failed, state)
	_, err := q.Output(id)
	assert.ErrorIs(t, err, bayra.ErrInvalidModel)
}

func TestQueueUnknownJob(t *testing.T) {
	q := NewQueue(1)
	_, err := q.Status("missing")
	assert.Error(t, err)
	assert.Error(t, q.Cancel("missing"))
}
