package bayra

// splitVars partitions f's key variables into kept and removed, where the
// removed set is the intersection of f's keys with vars.
func (f *Factor) splitVars(vars []*Variable) (kept, removed []*Variable) {
	drop := make(map[*Variable]bool, len(vars))
	for _, v := range vars {
		if f.posOf(v) >= 0 {
			drop[v] = true
		}
	}
	for _, v := range f.evars {
		if drop[v] {
			removed = append(removed, v)
		} else {
			kept = append(kept, v)
		}
	}
	return kept, removed
}

// keptStrides maps every position of f's key to the destination stride of
// that variable, 0 for removed positions.
func keptStrides(f, dst *Factor) []int {
	ks := make([]int, len(f.evars))
	for i, v := range f.evars {
		if p := dst.posOf(v); p >= 0 {
			ks[i] = dst.strides[p]
		}
	}
	return ks
}

// SumOut removes the named enumerable variables by summation. Destination
// weights are the sums of the projecting source weights; destination JDFs
// are the weight-normalised mixtures of the source JDFs, zero-weight
// sources excluded. Traces are dropped: they are meaningless after mixing.
// Removing every key variable of a density-free factor yields an atomic
// factor.
func (f *Factor) SumOut(vars ...*Variable) (*Factor, error) {
	kept, removed := f.splitVars(vars)
	if len(removed) == 0 && len(f.evars) > 0 {
		LogDebug("bayra.Factor.SumOut: nothing to remove")
	}
	out, err := NewFactor(kept, f.nvars, false)
	if err != nil {
		return nil, err
	}
	out.evidenced = f.evidenced
	ks := keptStrides(f, out)

	// Per destination cell, per density variable, the mixture of source
	// distributions weighted by source cell weight.
	var mixes []map[*Variable]*Mixture
	if len(f.nvars) > 0 {
		mixes = make([]map[*Variable]*Mixture, len(out.cells))
	}

	key := make([]int, len(f.evars))
	for idx := range f.cells {
		c := &f.cells[idx]
		key = f.Key(idx, key)
		didx := 0
		for i, k := range key {
			didx += k * ks[i]
		}
		out.cells[didx].weight += c.weight
		if c.weight == 0 || c.jdf == nil {
			continue
		}
		if mixes[didx] == nil {
			mixes[didx] = make(map[*Variable]*Mixture, len(c.jdf))
		}
		for v, d := range c.jdf {
			m := mixes[didx][v]
			if m == nil {
				m = NewMixture()
				mixes[didx][v] = m
			}
			m.Add(d, c.weight)
		}
	}

	for didx, byVar := range mixes {
		if byVar == nil {
			continue
		}
		jdf := make(map[*Variable]Distrib, len(byVar))
		for v, m := range byVar {
			if m.Size() == 1 {
				// A single contributor needs no mixture wrapper.
				jdf[v] = m.Components()[0]
			} else {
				jdf[v] = m
			}
		}
		out.cells[didx].jdf = jdf
	}
	return out, nil
}

// MaxOut removes the named enumerable variables by maximisation. Each
// destination cell takes the heaviest projecting source cell (ties to the
// lowest linearised source index), copies its JDF, carries its trace
// forward and extends it with the bindings of the removed variables from
// the winning source key.
func (f *Factor) MaxOut(vars ...*Variable) (*Factor, error) {
	kept, removed := f.splitVars(vars)
	out, err := NewFactor(kept, f.nvars, true)
	if err != nil {
		return nil, err
	}
	out.evidenced = f.evidenced
	ks := keptStrides(f, out)

	winner := make([]int, len(out.cells))
	for i := range winner {
		winner[i] = -1
	}
	key := make([]int, len(f.evars))
	for idx := range f.cells {
		key = f.Key(idx, key)
		didx := 0
		for i, k := range key {
			didx += k * ks[i]
		}
		// Strictly greater keeps the lowest source index on ties.
		if winner[didx] < 0 || f.cells[idx].weight > out.cells[didx].weight {
			winner[didx] = idx
			out.cells[didx].weight = f.cells[idx].weight
		}
	}

	// Positions with no destination stride are the removed ones.
	removedPos := make([]int, 0, len(removed))
	for i := range f.evars {
		if ks[i] == 0 {
			removedPos = append(removedPos, i)
		}
	}

	for didx, src := range winner {
		if src < 0 {
			continue
		}
		c := &f.cells[src]
		if c.jdf != nil {
			out.cells[didx].jdf = c.jdf
		}
		key = f.Key(src, key)
		trace := make([]Assign, 0, len(c.trace)+len(removedPos))
		trace = append(trace, c.trace...)
		for _, i := range removedPos {
			trace = append(trace, Assign{Var: f.evars[i], Value: key[i]})
		}
		out.cells[didx].trace = trace
	}
	return out, nil
}
