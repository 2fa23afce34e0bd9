package bn

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/HazelnutParadise/bayra"
)

// rescaleFloor is the weight threshold below which the scaled-log pass
// pulls a factor back into range.
const rescaleFloor = 1e-150

// Engine answers exact queries on a compiled network by variable
// elimination. Factors are owned by the engine for the duration of one
// query and discarded afterwards; an Engine is safe for sequential reuse
// but not for concurrent queries on the same network evidence.
type Engine struct {
	nw *Network
}

func NewEngine(nw *Network) (*Engine, error) {
	if !nw.compiled {
		if err := nw.Compile(); err != nil {
			return nil, err
		}
	}
	return &Engine{nw: nw}, nil
}

// ancestorsOf returns the given variables and all their ancestors.
func (nw *Network) ancestorsOf(vars []*bayra.Variable) map[*bayra.Variable]bool {
	out := make(map[*bayra.Variable]bool)
	var walk func(v *bayra.Variable)
	walk = func(v *bayra.Variable) {
		if out[v] {
			return
		}
		out[v] = true
		if n := nw.byVar[v]; n != nil {
			for _, p := range n.Parents() {
				walk(p)
			}
		}
	}
	for _, v := range vars {
		walk(v)
	}
	return out
}

// elimination runs the shared eliminate loop. maximise selects max-out
// over sum-out; scaled enables the rescaling pass that defends against
// underflow and accumulates the log scale.
func (e *Engine) elimination(ctx context.Context, queryVars []*bayra.Variable, rel map[*bayra.Variable]bool, maximise, scaled bool) (*bayra.Factor, float64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%w: query interrupted", bayra.ErrCancelled)
	default:
	}
	q := &query{nw: e.nw, relevant: rel}

	isQuery := make(map[*bayra.Variable]bool, len(queryVars))
	for _, v := range queryVars {
		isQuery[v] = true
	}

	pool := make([]*bayra.Factor, 0, len(e.nw.order))
	var elim []*bayra.Variable
	for _, v := range e.nw.order {
		if !rel[v] {
			continue
		}
		f, err := e.nw.byVar[v].MakeFactor(q)
		if err != nil {
			return nil, 0, err
		}
		pool = append(pool, f)
		_, observed := e.nw.evidence[v]
		if v.Enumerable() && !observed && !isQuery[v] {
			elim = append(elim, v)
		}
	}

	logScale := 0.0
	for len(elim) > 0 {
		select {
		case <-ctx.Done():
			return nil, 0, fmt.Errorf("%w: query interrupted", bayra.ErrCancelled)
		default:
		}

		v := e.pickNext(elim, pool)
		var gathered, rest []*bayra.Factor
		for _, f := range pool {
			if f.HasVar(v) {
				gathered = append(gathered, f)
			} else {
				rest = append(rest, f)
			}
		}
		for i, ev := range elim {
			if ev == v {
				elim = append(elim[:i], elim[i+1:]...)
				break
			}
		}
		if len(gathered) == 0 {
			continue
		}

		prod, err := bayra.ProductMany(gathered...)
		if err != nil {
			return nil, 0, err
		}
		var reduced *bayra.Factor
		if maximise {
			reduced, err = prod.MaxOut(v)
		} else {
			reduced, err = prod.SumOut(v)
		}
		if err != nil {
			return nil, 0, err
		}
		if scaled {
			if _, max := reduced.MaxCell(); max > 0 && max < rescaleFloor {
				reduced.Rescale(max)
				logScale += math.Log(max)
			}
		}
		pool = append(rest, reduced)
	}

	final, err := bayra.ProductMany(pool...)
	if err != nil {
		return nil, 0, err
	}
	return final, logScale, nil
}

// pickNext chooses the elimination variable by the min-weight heuristic:
// the smallest product of domain sizes over the union of the key variables
// of the factors that mention it, ties broken by lowest canonical index.
func (e *Engine) pickNext(elim []*bayra.Variable, pool []*bayra.Factor) *bayra.Variable {
	sort.Slice(elim, func(i, j int) bool { return elim[i].Canonical() < elim[j].Canonical() })
	best := elim[0]
	bestCost := math.Inf(1)
	for _, v := range elim {
		union := make(map[*bayra.Variable]bool)
		for _, f := range pool {
			if !f.HasVar(v) {
				continue
			}
			for _, u := range f.Vars() {
				union[u] = true
			}
		}
		cost := 1.0
		for u := range union {
			cost *= float64(u.Size())
		}
		if cost < bestCost {
			bestCost = cost
			best = v
		}
	}
	return best
}

// Marginal computes the normalised posterior over the query variables
// given the network's evidence. Underflow triggers one scaled-log retry
// before failing with ErrEvidenceImpossible.
func (e *Engine) Marginal(ctx context.Context, queryVars ...*bayra.Variable) (*bayra.Factor, error) {
	if len(queryVars) == 0 {
		return nil, fmt.Errorf("%w: marginal query needs at least one variable", bayra.ErrIncompleteNetwork)
	}
	rel := e.nw.relevant(queryVars)
	f, _, err := e.elimination(ctx, queryVars, rel, false, false)
	if err != nil {
		return nil, err
	}
	if f.Sum() <= 0 {
		bayra.LogDebug("bn.Marginal: zero mass, retrying with scaled-log weights")
		if f, _, err = e.elimination(ctx, queryVars, rel, false, true); err != nil {
			return nil, err
		}
	}
	if err := f.Normalise(); err != nil {
		return nil, err
	}
	return f, nil
}

// MPE computes the most probable explanation: the joint assignment to all
// relevant non-evidence enumerable variables maximising probability given
// the evidence, together with its log-probability. Passing query variables
// restricts the relevant set to the variables that bear on them, and they
// are maxed out last, all traced; with none, every unobserved variable is
// relevant.
func (e *Engine) MPE(ctx context.Context, queryVars ...*bayra.Variable) (map[*bayra.Variable]string, float64, error) {
	rel := e.nw.relevant(queryVars)
	if len(queryVars) == 0 {
		rel = e.nw.relevant(e.nw.allUnobserved())
	}
	run := func(scaled bool) (*bayra.Factor, float64, error) {
		f, logScale, err := e.elimination(ctx, queryVars, rel, true, scaled)
		if err != nil {
			return nil, 0, err
		}
		if len(f.Vars()) > 0 {
			if f, err = f.MaxOut(f.Vars()...); err != nil {
				return nil, 0, err
			}
		}
		return f, logScale, nil
	}

	f, logScale, err := run(false)
	if err != nil {
		return nil, 0, err
	}
	if f.ValueAt(0) <= 0 {
		bayra.LogDebug("bn.MPE: zero mass, retrying with scaled-log weights")
		if f, logScale, err = run(true); err != nil {
			return nil, 0, err
		}
	}
	w := f.ValueAt(0)
	if w <= 0 {
		return nil, 0, fmt.Errorf("%w: no assignment has positive probability", bayra.ErrEvidenceImpossible)
	}

	assignment := make(map[*bayra.Variable]string)
	for _, a := range f.TraceAt(0) {
		assignment[a.Var] = a.Var.Domain().Value(a.Value)
	}
	return assignment, math.Log(w) + logScale, nil
}

// allUnobserved lists the variables without evidence, continuous ones
// included: a full explanation must cover them, so an unevidenced density
// node surfaces as unfactorisable rather than being silently pruned.
func (nw *Network) allUnobserved() []*bayra.Variable {
	var out []*bayra.Variable
	for _, v := range nw.order {
		if _, observed := nw.evidence[v]; !observed {
			out = append(out, v)
		}
	}
	return out
}

// LogLikelihood returns the log-probability of the evidence.
func (e *Engine) LogLikelihood(ctx context.Context) (float64, error) {
	var evid []*bayra.Variable
	for v := range e.nw.evidence {
		evid = append(evid, v)
	}
	bayra.SortByCanonical(evid)
	if len(evid) == 0 {
		return 0, nil
	}
	rel := e.nw.ancestorsOf(evid)

	run := func(scaled bool) (float64, float64, error) {
		f, logScale, err := e.elimination(ctx, nil, rel, false, scaled)
		if err != nil {
			return 0, 0, err
		}
		var sum float64
		if len(f.Vars()) > 0 {
			atomic, err := f.SumOut(f.Vars()...)
			if err != nil {
				return 0, 0, err
			}
			sum = atomic.ValueAt(0)
		} else {
			sum = f.ValueAt(0)
		}
		return sum, logScale, nil
	}

	sum, logScale, err := run(false)
	if err != nil {
		return 0, err
	}
	if sum <= 0 {
		bayra.LogDebug("bn.LogLikelihood: zero mass, retrying with scaled-log weights")
		if sum, logScale, err = run(true); err != nil {
			return 0, err
		}
	}
	if sum <= 0 {
		return 0, fmt.Errorf("%w: evidence has zero likelihood", bayra.ErrEvidenceImpossible)
	}
	return math.Log(sum) + logScale, nil
}
