package bn

import (
	"errors"
	"fmt"

	"github.com/HazelnutParadise/bayra"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// Network is a Bayesian network under construction or compiled for
// querying. Nodes are added with AddNode; Compile validates the DAG and
// fixes the canonical node ordering. Evidence is per-network state shared
// by subsequent queries until cleared.
type Network struct {
	nodes    []Node
	byVar    map[*bayra.Variable]Node
	byName   map[string]*bayra.Variable
	children map[*bayra.Variable][]*bayra.Variable
	order    []*bayra.Variable
	evidence map[*bayra.Variable]any
	compiled bool
}

func New() *Network {
	return &Network{
		byVar:    make(map[*bayra.Variable]Node),
		byName:   make(map[string]*bayra.Variable),
		evidence: make(map[*bayra.Variable]any),
	}
}

// AddNode registers a node. Variable names must be unique; parents may be
// added in any order but must all be present by Compile time.
func (nw *Network) AddNode(n Node) error {
	v := n.Variable()
	if _, dup := nw.byVar[v]; dup {
		return fmt.Errorf("%w: variable %q already has a node", bayra.ErrIncompleteNetwork, v.Name())
	}
	if _, dup := nw.byName[v.Name()]; dup {
		return fmt.Errorf("%w: variable name %q already in use", bayra.ErrIncompleteNetwork, v.Name())
	}
	nw.nodes = append(nw.nodes, n)
	nw.byVar[v] = n
	nw.byName[v.Name()] = v
	nw.compiled = false
	return nil
}

// Node returns the node for a variable, nil when absent.
func (nw *Network) Node(v *bayra.Variable) Node { return nw.byVar[v] }

// VariableByName resolves a variable by its name.
func (nw *Network) VariableByName(name string) *bayra.Variable { return nw.byName[name] }

// Variables returns the canonical (topological) node ordering. Compile
// must have run.
func (nw *Network) Variables() []*bayra.Variable { return nw.order }

// SetEvidence records an observation: a domain value (string) for an
// enumerable variable, a float64 for a continuous one, a []float64 for a
// simplex-valued one.
func (nw *Network) SetEvidence(v *bayra.Variable, value any) error {
	if _, ok := nw.byVar[v]; !ok {
		return fmt.Errorf("%w: no node for variable %q", bayra.ErrIncompleteNetwork, v.Name())
	}
	if v.Enumerable() {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: evidence for %q must be a domain value, got %T", bayra.ErrInvalidDomain, v.Name(), value)
		}
		if _, err := v.Domain().Index(s); err != nil {
			return err
		}
	} else {
		switch value.(type) {
		case float64, []float64:
		default:
			return fmt.Errorf("%w: evidence for continuous %q must be float64 or []float64, got %T", bayra.ErrInvalidDomain, v.Name(), value)
		}
	}
	nw.evidence[v] = value
	return nil
}

// ClearEvidence drops all observations.
func (nw *Network) ClearEvidence() {
	nw.evidence = make(map[*bayra.Variable]any)
}

// Evidence returns the observation for v, nil when unobserved.
func (nw *Network) Evidence(v *bayra.Variable) any { return nw.evidence[v] }

// Compile validates the network: every parent must have a node and the
// structure must be acyclic. The canonical node ordering is the
// topological order of the DAG.
func (nw *Network) Compile() error {
	g := core.NewGraph(core.WithDirected(true))
	for _, n := range nw.nodes {
		if err := g.AddVertex(n.Variable().Name()); err != nil {
			return fmt.Errorf("%w: %v", bayra.ErrIncompleteNetwork, err)
		}
	}
	nw.children = make(map[*bayra.Variable][]*bayra.Variable, len(nw.nodes))
	for _, n := range nw.nodes {
		for _, p := range n.Parents() {
			if _, ok := nw.byVar[p]; !ok {
				return fmt.Errorf("%w: parent %q of %q has no node", bayra.ErrIncompleteNetwork, p.Name(), n.Variable().Name())
			}
			if _, err := g.AddEdge(p.Name(), n.Variable().Name(), 0); err != nil {
				return fmt.Errorf("%w: %v", bayra.ErrIncompleteNetwork, err)
			}
			nw.children[p] = append(nw.children[p], n.Variable())
		}
	}

	names, err := dfs.TopologicalSort(g)
	if err != nil {
		if errors.Is(err, dfs.ErrCycleDetected) {
			return fmt.Errorf("%w: network has a cycle", bayra.ErrIncompleteNetwork)
		}
		return fmt.Errorf("%w: %v", bayra.ErrIncompleteNetwork, err)
	}
	nw.order = make([]*bayra.Variable, len(names))
	for i, name := range names {
		nw.order[i] = nw.byName[name]
	}
	nw.compiled = true
	return nil
}

// Children returns the child variables of v. Compile must have run.
func (nw *Network) Children(v *bayra.Variable) []*bayra.Variable { return nw.children[v] }
