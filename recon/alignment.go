package recon

import (
	"fmt"
	"sort"
)

// Alignment is a set of equal-length symbol sequences keyed by sequence
// name. Symbols are single-character strings; '-' is the gap symbol.
type Alignment struct {
	names  []string
	seqs   map[string][]string
	length int
}

// GapSymbol marks a missing residue in an alignment column.
const GapSymbol = "-"

// NewAlignment builds an alignment from name -> sequence strings. All
// sequences must have the same length.
func NewAlignment(seqs map[string]string) (*Alignment, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("invalid alignment: no sequences")
	}
	a := &Alignment{seqs: make(map[string][]string, len(seqs)), length: -1}
	for name := range seqs {
		a.names = append(a.names, name)
	}
	sort.Strings(a.names)
	for _, name := range a.names {
		s := seqs[name]
		if a.length < 0 {
			a.length = len(s)
		} else if len(s) != a.length {
			return nil, fmt.Errorf("invalid alignment: %q has length %d, want %d", name, len(s), a.length)
		}
		syms := make([]string, len(s))
		for i := range s {
			syms[i] = string(s[i])
		}
		a.seqs[name] = syms
	}
	return a, nil
}

// Length returns the number of columns.
func (a *Alignment) Length() int { return a.length }

// Names returns the sequence names, sorted.
func (a *Alignment) Names() []string { return a.names }

// Has reports whether a sequence with the given name is present.
func (a *Alignment) Has(name string) bool {
	_, ok := a.seqs[name]
	return ok
}

// Symbol returns the symbol of a sequence at a column.
func (a *Alignment) Symbol(name string, col int) string {
	return a.seqs[name][col]
}
