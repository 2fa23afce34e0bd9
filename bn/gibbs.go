package bn

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/HazelnutParadise/bayra"
)

// GibbsMode selects how sample mass is accumulated. The source material
// this engine descends from carried several overlapping accumulation
// schemes; rather than guess which is authoritative, both are exposed and
// their contracts documented.
type GibbsMode int

const (
	// PerQueryCount tallies the query variables only, and only on
	// recorded sweeps (after burn-in, every thin-th sweep).
	PerQueryCount GibbsMode = iota
	// PerNodeFactor tallies every non-evidence variable on every sweep
	// after burn-in, ignoring thinning; query marginals are read from
	// those per-node tallies.
	PerNodeFactor
)

// Gibbs is a Markov-blanket Gibbs sampler over the network's enumerable
// non-evidence variables. Continuous variables must be evidenced; they
// contribute densities through their nodes' local factors. The random
// generator is caller-owned, one per query, for reproducibility.
type Gibbs struct {
	nw   *Network
	Mode GibbsMode
}

func NewGibbs(nw *Network) (*Gibbs, error) {
	if !nw.compiled {
		if err := nw.Compile(); err != nil {
			return nil, err
		}
	}
	return &Gibbs{nw: nw}, nil
}

// blanketConditional multiplies v's own local factor with each child
// node's local factor restricted to the child's current value, and
// normalises.
func (g *Gibbs) blanketConditional(v *bayra.Variable, state map[*bayra.Variable]any) (*bayra.Categorical, error) {
	fs := make([]*bayra.Factor, 0, 1+len(g.nw.children[v]))
	own, err := g.nw.byVar[v].LocalFactor(v, state)
	if err != nil {
		return nil, err
	}
	fs = append(fs, own)
	for _, c := range g.nw.children[v] {
		cf, err := g.nw.byVar[c].LocalFactor(v, state)
		if err != nil {
			return nil, err
		}
		fs = append(fs, cf)
	}
	prod, err := bayra.ProductMany(fs...)
	if err != nil {
		return nil, err
	}
	if err := prod.Normalise(); err != nil {
		return nil, err
	}
	return prod.Distribution()
}

// Run draws samples and returns the estimated posterior marginal for each
// query variable. burnin sweeps are discarded; in PerQueryCount mode every
// thin-th sweep afterwards is recorded.
func (g *Gibbs) Run(ctx context.Context, rng *rand.Rand, queryVars []*bayra.Variable, sweeps, burnin, thin int) (map[*bayra.Variable]*bayra.Categorical, error) {
	if thin < 1 {
		thin = 1
	}
	if len(queryVars) == 0 {
		return nil, fmt.Errorf("%w: gibbs query needs at least one variable", bayra.ErrIncompleteNetwork)
	}

	// Initialise: evidence fixed, everything else sampled from scratch.
	state := make(map[*bayra.Variable]any, len(g.nw.order))
	var free []*bayra.Variable
	for _, v := range g.nw.order {
		if obs, ok := g.nw.evidence[v]; ok {
			state[v] = obs
			continue
		}
		if !v.Enumerable() {
			return nil, fmt.Errorf("%w: continuous %q must be evidenced for gibbs sampling", bayra.ErrUnfactorisable, v.Name())
		}
		free = append(free, v)
		state[v] = v.Domain().Value(rng.Intn(v.Size()))
	}

	tally := make(map[*bayra.Variable][]float64)
	tallied := queryVars
	if g.Mode == PerNodeFactor {
		tallied = free
	}
	for _, v := range tallied {
		tally[v] = make([]float64, v.Size())
	}

	for sweep := 0; sweep < burnin+sweeps; sweep++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: sampling interrupted", bayra.ErrCancelled)
		default:
		}
		for _, v := range free {
			cond, err := g.blanketConditional(v, state)
			if err != nil {
				return nil, err
			}
			state[v] = cond.Sample(rng)
		}
		if sweep < burnin {
			continue
		}
		record := g.Mode == PerNodeFactor || (sweep-burnin)%thin == 0
		if !record {
			continue
		}
		for _, v := range tallied {
			i, err := v.Domain().Index(state[v].(string))
			if err != nil {
				return nil, err
			}
			tally[v][i]++
		}
	}

	out := make(map[*bayra.Variable]*bayra.Categorical, len(queryVars))
	for _, v := range queryVars {
		counts, ok := tally[v]
		if !ok {
			return nil, fmt.Errorf("%w: query variable %q is evidenced", bayra.ErrIncompleteNetwork, v.Name())
		}
		c := bayra.NewCategorical(v.Domain())
		c.SetAll(counts)
		if err := c.Normalise(); err != nil {
			return nil, err
		}
		out[v] = c
	}
	return out, nil
}
