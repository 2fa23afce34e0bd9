package bayra

import (
	"time"
)

// unionVars merges two canonically-sorted variable slices, shared entries
// once.
func unionVars(a, b []*Variable) []*Variable {
	out := make([]*Variable, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i].Canonical() < b[j].Canonical():
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// ComplexityJoined estimates the size of the product of x and y: the
// product of domain sizes over the union of their key variables, shared
// variables counted once.
func ComplexityJoined(x, y *Factor) float64 {
	c := 1.0
	for _, v := range unionVars(x.evars, y.evars) {
		c *= float64(v.Size())
	}
	return c
}

// ComplexityUnjoined is the same estimate with shared variables counted on
// both sides.
func ComplexityUnjoined(x, y *Factor) float64 {
	return float64(x.Size()) * float64(y.Size())
}

func mergeJDF(a, b map[*Variable]Distrib) map[*Variable]Distrib {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[*Variable]Distrib, len(a)+len(b))
	for v, d := range a {
		out[v] = d
	}
	for v, d := range b {
		if _, clash := out[v]; clash {
			LogWarning("bayra.Product: both operands carry a density for %q, keeping the left one", v.Name())
			continue
		}
		out[v] = d
	}
	return out
}

func mergeTrace(a, b []Assign) []Assign {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]Assign, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// combineCells writes the independent product of a and b into dst. JDFs and
// traces are only carried on cells with positive weight.
func combineCells(dst, a, b *fcell) {
	dst.weight = a.weight * b.weight
	if dst.weight == 0 {
		return
	}
	dst.jdf = mergeJDF(a.jdf, b.jdf)
	dst.trace = mergeTrace(a.trace, b.trace)
}

func newProductShell(evars []*Variable, x, y *Factor) *Factor {
	f, err := NewFactor(evars, unionVars(x.nvars, y.nvars), x.traced || y.traced)
	if err != nil {
		// evars come from existing factors, so this cannot happen.
		LogFatal("bayra.Product: %v", err)
	}
	f.evidenced = x.evidenced || y.evidenced
	return f
}

// Product combines two factors into one over the union of their key
// variables and the union of their density variables. Weights multiply
// cell-wise, JDFs combine as independent products of marginals, traces
// concatenate, and the evidenced flag is the OR of the operands.
func Product(x, y *Factor) (*Factor, error) {
	switch {
	case len(x.evars) == 0 && len(y.evars) == 0:
		out := newProductShell(nil, x, y)
		combineCells(&out.cells[0], &x.cells[0], &y.cells[0])
		return out, nil
	case len(x.evars) == 0:
		return productBroadcast(y, x, true), nil
	case len(y.evars) == 0:
		return productBroadcast(x, y, false), nil
	}

	shared := 0
	for _, v := range y.evars {
		if x.posOf(v) >= 0 {
			shared++
		}
	}
	switch {
	case shared == len(x.evars) && shared == len(y.evars):
		return productEqual(x, y), nil
	case shared == len(y.evars):
		return productContained(x, y, false), nil
	case shared == len(x.evars):
		return productContained(y, x, true), nil
	case shared == 0:
		return productDisjoint(x, y), nil
	default:
		return productJoin(x, y), nil
	}
}

// productBroadcast multiplies every cell of f by the single cell of the
// atomic factor s. scalarLeft preserves trace order when s was the left
// operand.
func productBroadcast(f, s *Factor, scalarLeft bool) *Factor {
	out := newProductShell(f.evars, f, s)
	sc := &s.cells[0]
	for i := range f.cells {
		if scalarLeft {
			combineCells(&out.cells[i], sc, &f.cells[i])
		} else {
			combineCells(&out.cells[i], &f.cells[i], sc)
		}
	}
	return out
}

// productEqual handles E(X) = E(Y). Both key sets are canonically sorted,
// so cell indices coincide and no crossref permutation is needed.
func productEqual(x, y *Factor) *Factor {
	out := newProductShell(x.evars, x, y)
	for i := range x.cells {
		combineCells(&out.cells[i], &x.cells[i], &y.cells[i])
	}
	return out
}

// productContained handles E(small) ⊂ E(big): iterate the larger table and
// locate the smaller table's cell by masking the missing dimensions.
func productContained(big, small *Factor, bigRight bool) *Factor {
	out := newProductShell(big.evars, big, small)
	mask := make([]int, len(big.evars))
	for i, v := range big.evars {
		if p := small.posOf(v); p >= 0 {
			mask[i] = small.strides[p]
		}
	}
	key := make([]int, len(big.evars))
	for idx := range big.cells {
		key = big.Key(idx, key)
		sidx := 0
		for i, k := range key {
			sidx += k * mask[i]
		}
		if bigRight {
			combineCells(&out.cells[idx], &small.cells[sidx], &big.cells[idx])
		} else {
			combineCells(&out.cells[idx], &big.cells[idx], &small.cells[sidx])
		}
	}
	return out
}

// destStrides maps each of vars to its stride in the product factor.
func destStrides(out *Factor, vars []*Variable) []int {
	ds := make([]int, len(vars))
	for i, v := range vars {
		ds[i] = out.strides[out.posOf(v)]
	}
	return ds
}

// productDisjoint handles E(X) ∩ E(Y) = ∅ as a Cartesian product of cells.
func productDisjoint(x, y *Factor) *Factor {
	out := newProductShell(unionVars(x.evars, y.evars), x, y)
	dsx := destStrides(out, x.evars)
	dsy := destStrides(out, y.evars)
	xkey := make([]int, len(x.evars))
	ykey := make([]int, len(y.evars))
	for xi := range x.cells {
		if x.cells[xi].weight == 0 {
			continue
		}
		xkey = x.Key(xi, xkey)
		base := 0
		for i, k := range xkey {
			base += k * dsx[i]
		}
		for yi := range y.cells {
			if y.cells[yi].weight == 0 {
				continue
			}
			ykey = y.Key(yi, ykey)
			didx := base
			for j, k := range ykey {
				didx += k * dsy[j]
			}
			combineCells(&out.cells[didx], &x.cells[xi], &y.cells[yi])
		}
	}
	return out
}

// scanMatches returns the indices of y cells whose fixed positions match
// the partial key, by scanning the whole table with a key predicate.
func scanMatches(y *Factor, partial []int) []int {
	var out []int
	key := make([]int, len(y.evars))
	for idx := range y.cells {
		key = y.Key(idx, key)
		ok := true
		for j, want := range partial {
			if want >= 0 && key[j] != want {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, idx)
		}
	}
	return out
}

// productJoin handles the general partial-overlap case. For each non-zero
// X cell a partial key over Y is built from the shared values and the
// matching Y cells are enumerated either by a stride walk or by a full
// scan with a key-match predicate. Both strategies are timed on the first
// two outer iterations and the faster one is kept for the remainder of
// this product.
func productJoin(x, y *Factor) *Factor {
	out := newProductShell(unionVars(x.evars, y.evars), x, y)
	dsx := destStrides(out, x.evars)
	dsy := destStrides(out, y.evars)

	// sharedInX[j] is the position in X of Y's j-th variable, -1 when not
	// shared. Shared Y positions contribute nothing to the destination
	// index; their value is already in the X key.
	sharedInX := make([]int, len(y.evars))
	for j, v := range y.evars {
		sharedInX[j] = x.posOf(v)
		if sharedInX[j] >= 0 {
			dsy[j] = 0
		}
	}

	xkey := make([]int, len(x.evars))
	ykey := make([]int, len(y.evars))
	partial := make([]int, len(y.evars))

	var tWalk, tScan time.Duration
	outer := 0
	useWalk := true
	for xi := range x.cells {
		if x.cells[xi].weight == 0 {
			continue
		}
		xkey = x.Key(xi, xkey)
		base := 0
		for i, k := range xkey {
			base += k * dsx[i]
		}
		for j := range partial {
			if sharedInX[j] >= 0 {
				partial[j] = xkey[sharedInX[j]]
			} else {
				partial[j] = -1
			}
		}

		var matches []int
		switch {
		case outer == 0:
			start := time.Now()
			matches, _ = matchingIndices(y.evars, y.strides, partial)
			tWalk = time.Since(start)
		case outer == 1:
			start := time.Now()
			matches = scanMatches(y, partial)
			tScan = time.Since(start)
			useWalk = tWalk <= tScan
		case useWalk:
			matches, _ = matchingIndices(y.evars, y.strides, partial)
		default:
			matches = scanMatches(y, partial)
		}
		outer++

		for _, yi := range matches {
			if y.cells[yi].weight == 0 {
				continue
			}
			ykey = y.Key(yi, ykey)
			didx := base
			for j, k := range ykey {
				didx += k * dsy[j]
			}
			combineCells(&out.cells[didx], &x.cells[xi], &y.cells[yi])
		}
	}
	return out
}
