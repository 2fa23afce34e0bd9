package bayra

import "fmt"

// buildStrides returns the linearisation strides for a tuple of enumerable
// variables, last variable fastest.
func buildStrides(vars []*Variable) ([]int, int) {
	strides := make([]int, len(vars))
	size := 1
	for i := len(vars) - 1; i >= 0; i-- {
		strides[i] = size
		size *= vars[i].Size()
	}
	return strides, size
}

// tupleIndex linearises a full key (domain indices, one per variable).
func tupleIndex(vars []*Variable, strides []int, key []int) (int, error) {
	if len(key) != len(vars) {
		return 0, fmt.Errorf("invalid key: got %d positions, table has %d", len(key), len(vars))
	}
	idx := 0
	for i, k := range key {
		if k < 0 || k >= vars[i].Size() {
			return 0, fmt.Errorf("%w: index %d out of range for %q", ErrInvalidDomain, k, vars[i].Name())
		}
		idx += k * strides[i]
	}
	return idx, nil
}

// matchingIndices walks the strides of every position left nil (<0) in the
// partial key and collects all linearised indices whose fixed positions
// match. Cost is O(product of unfixed domain sizes).
func matchingIndices(vars []*Variable, strides []int, partial []int) ([]int, error) {
	if len(partial) != len(vars) {
		return nil, fmt.Errorf("invalid key: got %d positions, table has %d", len(partial), len(vars))
	}
	base := 0
	free := make([]int, 0, len(vars))
	count := 1
	for i, k := range partial {
		if k < 0 {
			free = append(free, i)
			count *= vars[i].Size()
			continue
		}
		if k >= vars[i].Size() {
			return nil, fmt.Errorf("%w: index %d out of range for %q", ErrInvalidDomain, k, vars[i].Name())
		}
		base += k * strides[i]
	}
	out := make([]int, 0, count)
	var walk func(pos, acc int)
	walk = func(pos, acc int) {
		if pos == len(free) {
			out = append(out, acc)
			return
		}
		i := free[pos]
		for k := 0; k < vars[i].Size(); k++ {
			walk(pos+1, acc+k*strides[i])
		}
	}
	walk(0, base)
	return out, nil
}

// Table is a dense rectangular map from a tuple of enumerable parent values
// to a payload of type T, with a presence bit per cell.
type Table[T any] struct {
	vars    []*Variable
	strides []int
	cells   []T
	present []bool
}

// NewTable creates a table over the given enumerable variables, in the
// order supplied.
func NewTable[T any](vars ...*Variable) (*Table[T], error) {
	for _, v := range vars {
		if !v.Enumerable() {
			return nil, fmt.Errorf("invalid key: variable %q is not enumerable", v.Name())
		}
	}
	t := &Table[T]{vars: append([]*Variable(nil), vars...)}
	strides, size := buildStrides(t.vars)
	t.strides = strides
	t.cells = make([]T, size)
	t.present = make([]bool, size)
	return t, nil
}

// Vars returns the table's variables in storage order.
func (t *Table[T]) Vars() []*Variable { return t.vars }

// Size returns the number of cells.
func (t *Table[T]) Size() int { return len(t.cells) }

// Index linearises a key of domain indices.
func (t *Table[T]) Index(key []int) (int, error) {
	return tupleIndex(t.vars, t.strides, key)
}

// Key decomposes a linearised index back into domain indices. dst is reused
// when it has the right length.
func (t *Table[T]) Key(idx int, dst []int) []int {
	if len(dst) != len(t.vars) {
		dst = make([]int, len(t.vars))
	}
	for i := range t.vars {
		dst[i] = idx / t.strides[i]
		idx %= t.strides[i]
	}
	return dst
}

// At returns the payload at a linearised index and whether it is present.
func (t *Table[T]) At(idx int) (T, bool) {
	return t.cells[idx], t.present[idx]
}

// SetAt stores a payload at a linearised index.
func (t *Table[T]) SetAt(idx int, v T) {
	t.cells[idx] = v
	t.present[idx] = true
}

// Get returns the payload for a key.
func (t *Table[T]) Get(key []int) (T, bool, error) {
	idx, err := t.Index(key)
	if err != nil {
		var zero T
		return zero, false, err
	}
	v, ok := t.At(idx)
	return v, ok, nil
}

// Set stores a payload for a key.
func (t *Table[T]) Set(key []int, v T) error {
	idx, err := t.Index(key)
	if err != nil {
		return err
	}
	t.SetAt(idx, v)
	return nil
}

// IndicesMatching returns all linearised indices whose non-negative
// positions match the partial key; negative positions are wildcards.
func (t *Table[T]) IndicesMatching(partial []int) ([]int, error) {
	return matchingIndices(t.vars, t.strides, partial)
}
