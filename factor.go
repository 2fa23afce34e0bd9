package bayra

import (
	"fmt"
	"math"
)

// Assign is one (variable, value-index) binding in an assignment trace.
type Assign struct {
	Var   *Variable
	Value int
}

// fcell is one factor cell: a non-negative weight, an optional joint
// density fragment over the factor's non-enumerable variables, and an
// optional assignment trace maintained for max-marginalisation.
type fcell struct {
	weight float64
	jdf    map[*Variable]Distrib
	trace  []Assign
}

// Factor is a table over a set of enumerable key variables whose cells
// carry a scalar weight, optionally a joint density fragment, and
// optionally an assignment trace. A factor with no key variables and no
// density variables is a scalar. Factors returned from algebraic
// operations must be treated as immutable by callers.
type Factor struct {
	evars     []*Variable // enumerable key variables, sorted by canonical index
	strides   []int
	cells     []fcell
	nvars     []*Variable // non-enumerable variables of the JDFs
	evidenced bool
	traced    bool
}

// NewFactor allocates a factor over the given enumerable key variables and
// non-enumerable density variables. Key variables are sorted by canonical
// index; the caller addresses cells in that sorted order.
func NewFactor(enumerable []*Variable, continuous []*Variable, traced bool) (*Factor, error) {
	evars := make([]*Variable, 0, len(enumerable))
	seen := make(map[*Variable]bool, len(enumerable))
	for _, v := range enumerable {
		if !v.Enumerable() {
			return nil, fmt.Errorf("invalid key: variable %q is not enumerable", v.Name())
		}
		if seen[v] {
			return nil, fmt.Errorf("invalid key: variable %q repeated", v.Name())
		}
		seen[v] = true
		evars = append(evars, v)
	}
	SortByCanonical(evars)

	nvars := make([]*Variable, 0, len(continuous))
	for _, v := range continuous {
		if v.Enumerable() {
			return nil, fmt.Errorf("invalid key: variable %q is enumerable, not a density variable", v.Name())
		}
		nvars = append(nvars, v)
	}
	SortByCanonical(nvars)

	f := &Factor{evars: evars, nvars: nvars, traced: traced}
	var size int
	f.strides, size = buildStrides(evars)
	f.cells = make([]fcell, size)
	return f, nil
}

// NewScalarFactor creates an atomic factor holding a single weight.
func NewScalarFactor(weight float64) *Factor {
	f, _ := NewFactor(nil, nil, false)
	f.cells[0].weight = weight
	return f
}

// Vars returns the enumerable key variables, sorted by canonical index.
func (f *Factor) Vars() []*Variable { return f.evars }

// DensityVars returns the non-enumerable variables of the JDFs.
func (f *Factor) DensityVars() []*Variable { return f.nvars }

// Size returns the number of cells (1 for an atomic factor).
func (f *Factor) Size() int { return len(f.cells) }

// Scalar reports whether the factor has no key and no density variables.
func (f *Factor) Scalar() bool { return len(f.evars) == 0 && len(f.nvars) == 0 }

// Evidenced reports whether the factor reflects observed evidence.
func (f *Factor) Evidenced() bool { return f.evidenced }

// SetEvidenced marks the factor as reflecting observed evidence.
func (f *Factor) SetEvidenced(b bool) { f.evidenced = b }

// Traced reports whether assignment traces are maintained.
func (f *Factor) Traced() bool { return f.traced }

// HasVar reports whether v is one of the enumerable key variables.
func (f *Factor) HasVar(v *Variable) bool { return f.posOf(v) >= 0 }

func (f *Factor) posOf(v *Variable) int {
	for i, e := range f.evars {
		if e == v {
			return i
		}
	}
	return -1
}

// Index linearises a key given in sorted-variable order.
func (f *Factor) Index(key []int) (int, error) {
	return tupleIndex(f.evars, f.strides, key)
}

// Key decomposes a linearised index; dst is reused when sized right.
func (f *Factor) Key(idx int, dst []int) []int {
	if len(dst) != len(f.evars) {
		dst = make([]int, len(f.evars))
	}
	for i := range f.evars {
		dst[i] = idx / f.strides[i]
		idx %= f.strides[i]
	}
	return dst
}

// Value returns the weight at key.
func (f *Factor) Value(key []int) (float64, error) {
	idx, err := f.Index(key)
	if err != nil {
		return 0, err
	}
	return f.cells[idx].weight, nil
}

// ValueAt returns the weight at a linearised index.
func (f *Factor) ValueAt(idx int) float64 { return f.cells[idx].weight }

// SetValue stores a weight at key.
func (f *Factor) SetValue(key []int, w float64) error {
	idx, err := f.Index(key)
	if err != nil {
		return err
	}
	f.SetValueAt(idx, w)
	return nil
}

// SetValueAt stores a weight at a linearised index.
func (f *Factor) SetValueAt(idx int, w float64) {
	if w < 0 || math.IsNaN(w) {
		LogWarning("bayra.Factor.SetValue: weight %g clamped to 0", w)
		w = 0
	}
	f.cells[idx].weight = w
}

// JDF returns the joint density fragment at key, nil when none is set.
func (f *Factor) JDF(key []int) (map[*Variable]Distrib, error) {
	idx, err := f.Index(key)
	if err != nil {
		return nil, err
	}
	return f.cells[idx].jdf, nil
}

// JDFAt returns the joint density fragment at a linearised index.
func (f *Factor) JDFAt(idx int) map[*Variable]Distrib { return f.cells[idx].jdf }

// SetDistrib attaches a distribution over the non-enumerable variable v to
// the cell at key. v is added to the factor's density variables when new.
func (f *Factor) SetDistrib(key []int, v *Variable, d Distrib) error {
	idx, err := f.Index(key)
	if err != nil {
		return err
	}
	f.SetDistribAt(idx, v, d)
	return nil
}

// SetDistribAt is SetDistrib addressed by linearised index.
func (f *Factor) SetDistribAt(idx int, v *Variable, d Distrib) {
	if v.Enumerable() {
		LogWarning("bayra.Factor.SetDistrib: %q is enumerable, ignoring", v.Name())
		return
	}
	if f.cells[idx].jdf == nil {
		f.cells[idx].jdf = make(map[*Variable]Distrib, 1)
	}
	f.cells[idx].jdf[v] = d
	f.addDensityVar(v)
}

func (f *Factor) addDensityVar(v *Variable) {
	for _, n := range f.nvars {
		if n == v {
			return
		}
	}
	f.nvars = append(f.nvars, v)
	SortByCanonical(f.nvars)
}

// Trace returns the assignment trace at key.
func (f *Factor) Trace(key []int) ([]Assign, error) {
	idx, err := f.Index(key)
	if err != nil {
		return nil, err
	}
	return f.cells[idx].trace, nil
}

// TraceAt returns the assignment trace at a linearised index.
func (f *Factor) TraceAt(idx int) []Assign { return f.cells[idx].trace }

// AddTrace appends an assignment to the cell's trace.
func (f *Factor) AddTrace(key []int, a Assign) error {
	idx, err := f.Index(key)
	if err != nil {
		return err
	}
	f.cells[idx].trace = append(f.cells[idx].trace, a)
	f.traced = true
	return nil
}

// Sum returns the total weight over all cells.
func (f *Factor) Sum() float64 {
	sum := 0.0
	for i := range f.cells {
		sum += f.cells[i].weight
	}
	return sum
}

// MaxCell returns the linearised index and weight of the heaviest cell,
// lowest index on ties.
func (f *Factor) MaxCell() (int, float64) {
	best, bw := 0, f.cells[0].weight
	for i := 1; i < len(f.cells); i++ {
		if f.cells[i].weight > bw {
			best, bw = i, f.cells[i].weight
		}
	}
	return best, bw
}

// Normalise scales all weights to sum to one, in place. Returns
// ErrEvidenceImpossible when the total weight is zero.
func (f *Factor) Normalise() error {
	sum := f.Sum()
	if sum <= 0 {
		return fmt.Errorf("%w: factor over %d variables sums to zero", ErrEvidenceImpossible, len(f.evars))
	}
	for i := range f.cells {
		f.cells[i].weight /= sum
	}
	return nil
}

// Rescale divides every weight by s. Used by the driver's scaled-log
// retry; s must be positive.
func (f *Factor) Rescale(s float64) {
	if s <= 0 {
		return
	}
	for i := range f.cells {
		f.cells[i].weight /= s
	}
}

// Distribution reads the factor as a categorical over its single key
// variable. The factor must be normalised first.
func (f *Factor) Distribution() (*Categorical, error) {
	if len(f.evars) != 1 {
		return nil, fmt.Errorf("invalid key: factor has %d key variables, want 1", len(f.evars))
	}
	c := NewCategorical(f.evars[0].Domain())
	p := make([]float64, len(f.cells))
	for i := range f.cells {
		p[i] = f.cells[i].weight
	}
	c.SetAll(p)
	return c, nil
}

func (f *Factor) String() string {
	return fmt.Sprintf("Factor(%d key vars, %d density vars, %d cells)", len(f.evars), len(f.nvars), len(f.cells))
}
