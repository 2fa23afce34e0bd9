// Package bn builds Bayesian networks over enumerable and continuous
// variables and answers marginal, most-probable-explanation and
// log-likelihood queries by variable elimination. A Gibbs sampler consumes
// the same surface for approximate inference.
package bn

import (
	"fmt"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/subst"
)

// Node is one network node: a variable, its parents, and the recipe that
// turns the node's conditional distribution into a factor for the current
// query. AsText and FromText are the per-node persistence hooks used by
// external storage collaborators.
type Node interface {
	Variable() *bayra.Variable
	Parents() []*bayra.Variable
	MakeFactor(q *query) (*bayra.Factor, error)
	// LocalFactor fixes every family variable except target to the given
	// current values and returns the resulting factor over target. The
	// Gibbs sampler builds Markov-blanket conditionals from these.
	LocalFactor(target *bayra.Variable, values map[*bayra.Variable]any) (*bayra.Factor, error)
	AsText() (string, error)
	FromText(string) error
}

// query carries the per-query state every MakeFactor consumes.
type query struct {
	nw       *Network
	relevant map[*bayra.Variable]bool
}

// evidenceIndex resolves enumerable evidence to a domain index, -1 when
// the variable is unobserved.
func (q *query) evidenceIndex(v *bayra.Variable) (int, error) {
	val, ok := q.nw.evidence[v]
	if !ok {
		return -1, nil
	}
	s, ok := val.(string)
	if !ok {
		return 0, fmt.Errorf("%w: evidence for %q must be a domain value, got %T", bayra.ErrInvalidDomain, v.Name(), val)
	}
	return v.Domain().Index(s)
}

// buildKey assembles a factor key in sorted-variable order from a value
// lookup.
func buildKey(f *bayra.Factor, value func(*bayra.Variable) int) []int {
	key := make([]int, len(f.Vars()))
	for i, v := range f.Vars() {
		key[i] = value(v)
	}
	return key
}

// ---------------------------------------------------------------------------
// CPT: categorical child of enumerable parents.

// CPT is a conditional probability table: one categorical over the node's
// variable per combination of parent values.
type CPT struct {
	v       *bayra.Variable
	parents []*bayra.Variable
	table   *bayra.Table[*bayra.Categorical]
}

// NewCPT creates a CPT with rows indexed by parent combination (parent
// order as given, last parent fastest); each row holds the probabilities
// over the node variable's domain.
func NewCPT(v *bayra.Variable, parents []*bayra.Variable, rows [][]float64) (*CPT, error) {
	if !v.Enumerable() {
		return nil, fmt.Errorf("%w: CPT variable %q must be enumerable", bayra.ErrInvalidDomain, v.Name())
	}
	table, err := bayra.NewTable[*bayra.Categorical](parents...)
	if err != nil {
		return nil, err
	}
	if rows != nil && len(rows) != table.Size() {
		return nil, fmt.Errorf("%w: CPT for %q has %d rows, want %d", bayra.ErrIncompleteNetwork, v.Name(), len(rows), table.Size())
	}
	c := &CPT{v: v, parents: append([]*bayra.Variable(nil), parents...), table: table}
	for i, row := range rows {
		if len(row) != v.Size() {
			return nil, fmt.Errorf("%w: CPT row %d for %q has %d entries, want %d", bayra.ErrIncompleteNetwork, i, v.Name(), len(row), v.Size())
		}
		table.SetAt(i, bayra.NewCategorical(v.Domain(), row...))
	}
	return c, nil
}

// NewPrior creates a parentless CPT from a probability vector.
func NewPrior(v *bayra.Variable, p ...float64) (*CPT, error) {
	return NewCPT(v, nil, [][]float64{p})
}

func (c *CPT) Variable() *bayra.Variable  { return c.v }
func (c *CPT) Parents() []*bayra.Variable { return c.parents }

// SetRow replaces the categorical for one parent combination.
func (c *CPT) SetRow(parentKey []int, p []float64) error {
	if len(p) != c.v.Size() {
		return fmt.Errorf("%w: row for %q has %d entries, want %d", bayra.ErrIncompleteNetwork, c.v.Name(), len(p), c.v.Size())
	}
	return c.table.Set(parentKey, bayra.NewCategorical(c.v.Domain(), p...))
}

// Row returns the categorical for one parent combination.
func (c *CPT) Row(parentKey []int) (*bayra.Categorical, error) {
	cat, ok, err := c.table.Get(parentKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no distribution for %q at %v", bayra.ErrIncompleteNetwork, c.v.Name(), parentKey)
	}
	return cat, nil
}

func (c *CPT) MakeFactor(q *query) (*bayra.Factor, error) {
	selfIdx, err := q.evidenceIndex(c.v)
	if err != nil {
		return nil, err
	}
	parentIdx := make([]int, len(c.parents))
	evidenced := selfIdx >= 0
	for i, p := range c.parents {
		parentIdx[i], err = q.evidenceIndex(p)
		if err != nil {
			return nil, err
		}
		evidenced = evidenced || parentIdx[i] >= 0
	}

	keyVars := make([]*bayra.Variable, 0, len(c.parents)+1)
	if selfIdx < 0 {
		keyVars = append(keyVars, c.v)
	}
	var irrelevant []*bayra.Variable
	for i, p := range c.parents {
		if parentIdx[i] < 0 {
			keyVars = append(keyVars, p)
			if !q.relevant[p] {
				irrelevant = append(irrelevant, p)
			}
		}
	}

	f, err := bayra.NewFactor(keyVars, nil, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(c.parents))
	for pi := 0; pi < c.table.Size(); pi++ {
		pkey = c.table.Key(pi, pkey)
		if conflicts(pkey, parentIdx) {
			continue
		}
		cat, ok := c.table.At(pi)
		if !ok {
			return nil, fmt.Errorf("%w: no distribution for %q at %v", bayra.ErrIncompleteNetwork, c.v.Name(), pkey)
		}
		lo, hi := 0, c.v.Size()
		if selfIdx >= 0 {
			lo, hi = selfIdx, selfIdx+1
		}
		for si := lo; si < hi; si++ {
			key := buildKey(f, func(v *bayra.Variable) int {
				if v == c.v {
					return si
				}
				return pkey[indexOf(c.parents, v)]
			})
			if err := f.SetValue(key, cat.Get(si)); err != nil {
				return nil, err
			}
		}
	}
	f.SetEvidenced(evidenced)
	if len(irrelevant) > 0 {
		return f.SumOut(irrelevant...)
	}
	return f, nil
}

func (c *CPT) LocalFactor(target *bayra.Variable, values map[*bayra.Variable]any) (*bayra.Factor, error) {
	f, err := bayra.NewFactor([]*bayra.Variable{target}, nil, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(c.parents))
	for i, p := range c.parents {
		if p == target {
			continue
		}
		if pkey[i], err = enumValue(p, values); err != nil {
			return nil, err
		}
	}
	for k := 0; k < target.Size(); k++ {
		var w float64
		if target == c.v {
			cat, err := c.Row(pkey)
			if err != nil {
				return nil, err
			}
			w = cat.Get(k)
		} else {
			pkey[indexOf(c.parents, target)] = k
			cat, err := c.Row(pkey)
			if err != nil {
				return nil, err
			}
			si, err := enumValue(c.v, values)
			if err != nil {
				return nil, err
			}
			w = cat.Get(si)
		}
		if err := f.SetValue([]int{k}, w); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func conflicts(key, fixed []int) bool {
	for i, want := range fixed {
		if want >= 0 && key[i] != want {
			return true
		}
	}
	return false
}

func indexOf(vars []*bayra.Variable, v *bayra.Variable) int {
	for i, p := range vars {
		if p == v {
			return i
		}
	}
	return -1
}

func enumValue(v *bayra.Variable, values map[*bayra.Variable]any) (int, error) {
	val, ok := values[v]
	if !ok {
		return 0, fmt.Errorf("%w: no current value for %q", bayra.ErrIncompleteNetwork, v.Name())
	}
	s, ok := val.(string)
	if !ok {
		return 0, fmt.Errorf("%w: value for %q must be a domain value, got %T", bayra.ErrInvalidDomain, v.Name(), val)
	}
	return v.Domain().Index(s)
}

// ---------------------------------------------------------------------------
// GDT: Gaussian density table over enumerable parents.

// GDT attaches one Gaussian over a continuous variable per combination of
// enumerable parent values.
type GDT struct {
	v       *bayra.Variable
	parents []*bayra.Variable
	table   *bayra.Table[*bayra.Gaussian]
}

func NewGDT(v *bayra.Variable, parents []*bayra.Variable, cells []*bayra.Gaussian) (*GDT, error) {
	if v.Enumerable() {
		return nil, fmt.Errorf("%w: GDT variable %q must be continuous", bayra.ErrInvalidDomain, v.Name())
	}
	table, err := bayra.NewTable[*bayra.Gaussian](parents...)
	if err != nil {
		return nil, err
	}
	if cells != nil && len(cells) != table.Size() {
		return nil, fmt.Errorf("%w: GDT for %q has %d cells, want %d", bayra.ErrIncompleteNetwork, v.Name(), len(cells), table.Size())
	}
	for i, g := range cells {
		if g != nil {
			table.SetAt(i, g)
		}
	}
	return &GDT{v: v, parents: append([]*bayra.Variable(nil), parents...), table: table}, nil
}

func (g *GDT) Variable() *bayra.Variable  { return g.v }
func (g *GDT) Parents() []*bayra.Variable { return g.parents }

// Fit trains the table's Gaussians from grouped samples, one group per
// parent combination, under the given variance policy.
func (g *GDT) Fit(groups [][]float64, policy bayra.VariancePolicy) error {
	if len(groups) != g.table.Size() {
		return fmt.Errorf("%w: %d sample groups for %d parent combinations", bayra.ErrIncompleteNetwork, len(groups), g.table.Size())
	}
	for i, fitted := range bayra.FitGaussians(groups, policy) {
		if fitted != nil {
			g.table.SetAt(i, fitted)
		}
	}
	return nil
}

func (g *GDT) cellAt(i int) (*bayra.Gaussian, error) {
	gauss, ok := g.table.At(i)
	if !ok {
		return nil, fmt.Errorf("%w: no distribution for %q at cell %d", bayra.ErrIncompleteNetwork, g.v.Name(), i)
	}
	return gauss, nil
}

func (g *GDT) MakeFactor(q *query) (*bayra.Factor, error) {
	observed, evidenced := q.nw.evidence[g.v]
	var x float64
	if evidenced {
		v, ok := observed.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: evidence for continuous %q must be a float64, got %T", bayra.ErrInvalidDomain, g.v.Name(), observed)
		}
		x = v
	}
	if len(g.parents) == 0 && !evidenced {
		return nil, fmt.Errorf("%w: density node %q has no enumerable parents and no evidence", bayra.ErrUnfactorisable, g.v.Name())
	}

	parentIdx := make([]int, len(g.parents))
	var err error
	anyParentEvid := false
	var keyVars, irrelevant []*bayra.Variable
	for i, p := range g.parents {
		if parentIdx[i], err = q.evidenceIndex(p); err != nil {
			return nil, err
		}
		if parentIdx[i] >= 0 {
			anyParentEvid = true
		} else {
			keyVars = append(keyVars, p)
			if !q.relevant[p] {
				irrelevant = append(irrelevant, p)
			}
		}
	}

	var nvars []*bayra.Variable
	if !evidenced {
		nvars = []*bayra.Variable{g.v}
	}
	f, err := bayra.NewFactor(keyVars, nvars, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(g.parents))
	for pi := 0; pi < g.table.Size(); pi++ {
		pkey = g.table.Key(pi, pkey)
		if conflicts(pkey, parentIdx) {
			continue
		}
		gauss, err := g.cellAt(pi)
		if err != nil {
			return nil, err
		}
		key := buildKey(f, func(v *bayra.Variable) int {
			return pkey[indexOf(g.parents, v)]
		})
		if evidenced {
			err = f.SetValue(key, gauss.Get(x))
		} else {
			if err = f.SetValue(key, 1); err == nil {
				err = f.SetDistrib(key, g.v, gauss)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	f.SetEvidenced(evidenced || anyParentEvid)
	if len(irrelevant) > 0 {
		return f.SumOut(irrelevant...)
	}
	return f, nil
}

func (g *GDT) LocalFactor(target *bayra.Variable, values map[*bayra.Variable]any) (*bayra.Factor, error) {
	if target == g.v {
		return nil, fmt.Errorf("%w: cannot enumerate continuous %q", bayra.ErrUnfactorisable, g.v.Name())
	}
	x, ok := values[g.v].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: no current value for continuous %q", bayra.ErrIncompleteNetwork, g.v.Name())
	}
	f, err := bayra.NewFactor([]*bayra.Variable{target}, nil, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(g.parents))
	for i, p := range g.parents {
		if p == target {
			continue
		}
		if pkey[i], err = enumValue(p, values); err != nil {
			return nil, err
		}
	}
	ti := indexOf(g.parents, target)
	for k := 0; k < target.Size(); k++ {
		pkey[ti] = k
		idx, err := g.table.Index(pkey)
		if err != nil {
			return nil, err
		}
		gauss, err := g.cellAt(idx)
		if err != nil {
			return nil, err
		}
		if err := f.SetValue([]int{k}, gauss.Get(x)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// DDT: Dirichlet density table over enumerable parents.

// DDT attaches one Dirichlet over a continuous (simplex-valued) variable
// per combination of enumerable parent values.
type DDT struct {
	v       *bayra.Variable
	parents []*bayra.Variable
	table   *bayra.Table[*bayra.Dirichlet]
}

func NewDDT(v *bayra.Variable, parents []*bayra.Variable, cells []*bayra.Dirichlet) (*DDT, error) {
	if v.Enumerable() {
		return nil, fmt.Errorf("%w: DDT variable %q must be continuous", bayra.ErrInvalidDomain, v.Name())
	}
	table, err := bayra.NewTable[*bayra.Dirichlet](parents...)
	if err != nil {
		return nil, err
	}
	if cells != nil && len(cells) != table.Size() {
		return nil, fmt.Errorf("%w: DDT for %q has %d cells, want %d", bayra.ErrIncompleteNetwork, v.Name(), len(cells), table.Size())
	}
	for i, d := range cells {
		if d != nil {
			table.SetAt(i, d)
		}
	}
	return &DDT{v: v, parents: append([]*bayra.Variable(nil), parents...), table: table}, nil
}

func (d *DDT) Variable() *bayra.Variable  { return d.v }
func (d *DDT) Parents() []*bayra.Variable { return d.parents }

func (d *DDT) MakeFactor(q *query) (*bayra.Factor, error) {
	observed, evidenced := q.nw.evidence[d.v]
	var x []float64
	if evidenced {
		v, ok := observed.([]float64)
		if !ok {
			return nil, fmt.Errorf("%w: evidence for simplex %q must be a []float64, got %T", bayra.ErrInvalidDomain, d.v.Name(), observed)
		}
		x = v
	}
	if len(d.parents) == 0 && !evidenced {
		return nil, fmt.Errorf("%w: density node %q has no enumerable parents and no evidence", bayra.ErrUnfactorisable, d.v.Name())
	}

	parentIdx := make([]int, len(d.parents))
	var err error
	anyParentEvid := false
	var keyVars, irrelevant []*bayra.Variable
	for i, p := range d.parents {
		if parentIdx[i], err = q.evidenceIndex(p); err != nil {
			return nil, err
		}
		if parentIdx[i] >= 0 {
			anyParentEvid = true
		} else {
			keyVars = append(keyVars, p)
			if !q.relevant[p] {
				irrelevant = append(irrelevant, p)
			}
		}
	}

	var nvars []*bayra.Variable
	if !evidenced {
		nvars = []*bayra.Variable{d.v}
	}
	f, err := bayra.NewFactor(keyVars, nvars, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(d.parents))
	for pi := 0; pi < d.table.Size(); pi++ {
		pkey = d.table.Key(pi, pkey)
		if conflicts(pkey, parentIdx) {
			continue
		}
		dir, ok := d.table.At(pi)
		if !ok {
			return nil, fmt.Errorf("%w: no distribution for %q at %v", bayra.ErrIncompleteNetwork, d.v.Name(), pkey)
		}
		key := buildKey(f, func(v *bayra.Variable) int {
			return pkey[indexOf(d.parents, v)]
		})
		if evidenced {
			err = f.SetValue(key, dir.Get(x))
		} else {
			if err = f.SetValue(key, 1); err == nil {
				err = f.SetDistrib(key, d.v, dir)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	f.SetEvidenced(evidenced || anyParentEvid)
	if len(irrelevant) > 0 {
		return f.SumOut(irrelevant...)
	}
	return f, nil
}

func (d *DDT) LocalFactor(target *bayra.Variable, values map[*bayra.Variable]any) (*bayra.Factor, error) {
	if target == d.v {
		return nil, fmt.Errorf("%w: cannot enumerate simplex %q", bayra.ErrUnfactorisable, d.v.Name())
	}
	x, ok := values[d.v].([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: no current value for simplex %q", bayra.ErrIncompleteNetwork, d.v.Name())
	}
	f, err := bayra.NewFactor([]*bayra.Variable{target}, nil, false)
	if err != nil {
		return nil, err
	}
	pkey := make([]int, len(d.parents))
	for i, p := range d.parents {
		if p == target {
			continue
		}
		if pkey[i], err = enumValue(p, values); err != nil {
			return nil, err
		}
	}
	ti := indexOf(d.parents, target)
	for k := 0; k < target.Size(); k++ {
		pkey[ti] = k
		dir, _, err := d.table.Get(pkey)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			return nil, fmt.Errorf("%w: no distribution for %q at %v", bayra.ErrIncompleteNetwork, d.v.Name(), pkey)
		}
		if err := f.SetValue([]int{k}, dir.Get(x)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Subst: substitution edge on a phylogenetic tree.

// Subst is a categorical CPT over a tree edge built from a substitution
// model at a branch length: P(child=j | parent=i) = Probs(length)[i][j].
type Subst struct {
	child  *bayra.Variable
	parent *bayra.Variable
	model  *subst.Model
	length float64

	cpt *CPT
}

func NewSubst(child, parent *bayra.Variable, model *subst.Model, length float64) (*Subst, error) {
	if child.Domain() != model.Alphabet() || parent.Domain() != model.Alphabet() {
		return nil, fmt.Errorf("%w: edge %q->%q not over the %q alphabet", bayra.ErrInvalidModel, parent.Name(), child.Name(), model.Name())
	}
	return &Subst{child: child, parent: parent, model: model, length: length}, nil
}

func (s *Subst) Variable() *bayra.Variable  { return s.child }
func (s *Subst) Parents() []*bayra.Variable { return []*bayra.Variable{s.parent} }
func (s *Subst) Model() *subst.Model        { return s.model }
func (s *Subst) Length() float64            { return s.length }

// asCPT materialises the edge's conditional table once.
func (s *Subst) asCPT() (*CPT, error) {
	if s.cpt != nil {
		return s.cpt, nil
	}
	p, err := s.model.Probs(s.length)
	if err != nil {
		return nil, err
	}
	k := s.model.Alphabet().Size()
	rows := make([][]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			rows[i][j] = p.At(i, j)
		}
	}
	s.cpt, err = NewCPT(s.child, []*bayra.Variable{s.parent}, rows)
	return s.cpt, err
}

func (s *Subst) MakeFactor(q *query) (*bayra.Factor, error) {
	cpt, err := s.asCPT()
	if err != nil {
		return nil, err
	}
	return cpt.MakeFactor(q)
}

func (s *Subst) LocalFactor(target *bayra.Variable, values map[*bayra.Variable]any) (*bayra.Factor, error) {
	cpt, err := s.asCPT()
	if err != nil {
		return nil, err
	}
	return cpt.LocalFactor(target, values)
}
