package recon

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/bn"
	"github.com/HazelnutParadise/bayra/subst"
)

// Mode selects the reconstruction flavour.
type Mode int

const (
	// Joint reconstructs the single most probable assignment of all
	// ancestors per column.
	Joint Mode = iota
	// Marginal reconstructs the per-column posterior of one branch point.
	Marginal
)

// Options tune a reconstruction run.
type Options struct {
	Mode Mode
	// BranchPointID names the ancestor whose marginal is wanted; required
	// in Marginal mode.
	BranchPointID string
	// IncludeGaps switches on indel inference with the binary Gap model:
	// ancestors inferred absent report the gap symbol. When off, gaps are
	// treated as missing observations.
	IncludeGaps bool
	// Workers caps the column worker pool; 0 means one per CPU.
	Workers int
}

// Result holds per-ancestor reconstructed sequences and, in Marginal
// mode, the per-column posterior of the branch point.
type Result struct {
	Ancestors map[string][]string
	Marginals []*bayra.Categorical
}

// Reconstruct runs ancestral reconstruction of the alignment on the tree
// under the named substitution model. Columns are independent and solved
// concurrently; cancellation is checked between columns and a cancelled
// run returns no partial output.
func Reconstruct(ctx context.Context, tree *Tree, aln *Alignment, modelName string, opts Options) (*Result, error) {
	model, err := subst.Named(modelName)
	if err != nil {
		return nil, err
	}
	gapModel, err := subst.Named(subst.Gap)
	if err != nil {
		return nil, err
	}
	if tree == nil || tree.Root == nil {
		return nil, fmt.Errorf("%w: empty tree", bayra.ErrIncompleteNetwork)
	}
	if opts.Mode == Marginal {
		n := tree.Find(opts.BranchPointID)
		if n == nil || n.Leaf() {
			return nil, fmt.Errorf("%w: branch point %q is not an ancestor of the tree", bayra.ErrIncompleteNetwork, opts.BranchPointID)
		}
	}
	for _, leaf := range tree.Leaves() {
		if !aln.Has(leaf.Name) {
			return nil, fmt.Errorf("%w: no aligned sequence for leaf %q", bayra.ErrIncompleteNetwork, leaf.Name)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type colOut struct {
		symbols  map[string]string
		marginal *bayra.Categorical
	}
	cols := aln.Length()
	outs := make([]colOut, cols)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	jobs := make(chan int)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}
	failed := func() bool {
		errMu.Lock()
		defer errMu.Unlock()
		return firstErr != nil
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for col := range jobs {
				// Keep draining after a failure so the feeder never blocks.
				if failed() {
					continue
				}
				symbols, marginal, err := reconstructColumn(ctx, tree, aln, model, gapModel, opts, col)
				if err != nil {
					fail(err)
					continue
				}
				outs[col] = colOut{symbols: symbols, marginal: marginal}
			}
		}()
	}

feed:
	for col := 0; col < cols; col++ {
		select {
		case <-ctx.Done():
			fail(fmt.Errorf("%w: reconstruction interrupted", bayra.ErrCancelled))
			break feed
		case jobs <- col:
		}
	}
	close(jobs)
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	res := &Result{Ancestors: make(map[string][]string)}
	ancestors := tree.Internals()
	if opts.Mode == Marginal {
		ancestors = []*Node{tree.Find(opts.BranchPointID)}
		res.Marginals = make([]*bayra.Categorical, cols)
		for col := range outs {
			res.Marginals[col] = outs[col].marginal
		}
	}
	for _, anc := range ancestors {
		seq := make([]string, cols)
		for col := range outs {
			seq[col] = outs[col].symbols[anc.Name]
		}
		res.Ancestors[anc.Name] = seq
	}
	return res, nil
}

// columnNetwork builds the tree-shaped network for one column over the
// given model's alphabet: root prior = stationary frequencies, one
// substitution edge per branch, leaves instantiated to their observed
// symbols. observe maps a raw alignment symbol to the evidence value, ""
// for missing.
func columnNetwork(tree *Tree, aln *Alignment, model *subst.Model, col int, observe func(string) string) (*bn.Network, map[string]*bayra.Variable, error) {
	nw := bn.New()
	vars := make(map[string]*bayra.Variable)
	for _, n := range tree.Nodes() {
		vars[n.Name] = bayra.NewVariable(n.Name, model.Alphabet())
	}

	prior, err := bn.NewCPT(vars[tree.Root.Name], nil, [][]float64{model.Pi()})
	if err != nil {
		return nil, nil, err
	}
	if err := nw.AddNode(prior); err != nil {
		return nil, nil, err
	}
	for _, n := range tree.Nodes() {
		if n.Parent == nil {
			continue
		}
		edge, err := bn.NewSubst(vars[n.Name], vars[n.Parent.Name], model, n.Length)
		if err != nil {
			return nil, nil, err
		}
		if err := nw.AddNode(edge); err != nil {
			return nil, nil, err
		}
	}
	for _, leaf := range tree.Leaves() {
		val := observe(aln.Symbol(leaf.Name, col))
		if val == "" {
			continue
		}
		if err := nw.SetEvidence(vars[leaf.Name], val); err != nil {
			return nil, nil, err
		}
	}
	return nw, vars, nil
}

func reconstructColumn(ctx context.Context, tree *Tree, aln *Alignment, model, gapModel *subst.Model, opts Options, col int) (map[string]string, *bayra.Categorical, error) {
	nw, vars, err := columnNetwork(tree, aln, model, col, func(sym string) string {
		if model.Alphabet().Has(sym) {
			return sym
		}
		if sym != GapSymbol {
			bayra.LogDebug("recon: symbol %q not in %q alphabet, treated as missing", sym, model.Name())
		}
		return ""
	})
	if err != nil {
		return nil, nil, err
	}
	eng, err := bn.NewEngine(nw)
	if err != nil {
		return nil, nil, err
	}

	symbols := make(map[string]string)
	var marginal *bayra.Categorical

	switch opts.Mode {
	case Joint:
		// No explicit query: every unobserved variable is maxed out one
		// at a time and the atomic trace carries the whole assignment,
		// keeping factor sizes treewidth-bounded.
		assignment, _, err := eng.MPE(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, anc := range tree.Internals() {
			symbols[anc.Name] = assignment[vars[anc.Name]]
		}
	case Marginal:
		f, err := eng.Marginal(ctx, vars[opts.BranchPointID])
		if err != nil {
			return nil, nil, err
		}
		marginal, err = f.Distribution()
		if err != nil {
			return nil, nil, err
		}
		best := 0
		for i, p := range marginal.P() {
			if p > marginal.P()[best] {
				best = i
			}
		}
		symbols[opts.BranchPointID] = model.Alphabet().Value(best)
	}

	if opts.IncludeGaps {
		if err := overlayGaps(ctx, tree, aln, gapModel, col, symbols); err != nil {
			return nil, nil, err
		}
	}
	return symbols, marginal, nil
}

// overlayGaps runs the binary presence/absence model on the column and
// rewrites ancestors inferred absent to the gap symbol.
func overlayGaps(ctx context.Context, tree *Tree, aln *Alignment, gapModel *subst.Model, col int, symbols map[string]string) error {
	nw, vars, err := columnNetwork(tree, aln, gapModel, col, func(sym string) string {
		if sym == GapSymbol {
			return "-"
		}
		return "+"
	})
	if err != nil {
		return err
	}
	eng, err := bn.NewEngine(nw)
	if err != nil {
		return err
	}
	assignment, _, err := eng.MPE(ctx)
	if err != nil {
		return err
	}
	for name := range symbols {
		if assignment[vars[name]] == "-" {
			symbols[name] = GapSymbol
		}
	}
	return nil
}
