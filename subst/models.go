package subst

import (
	"fmt"
	"sync"

	"github.com/HazelnutParadise/bayra"
	"gonum.org/v1/gonum/mat"
)

// Catalogue names.
const (
	JTT     = "JTT"
	Dayhoff = "Dayhoff"
	LG      = "LG"
	WAG     = "WAG"
	Yang    = "Yang"
	GLOOME1 = "GLOOME1"
	Gap     = "Gap"
)

// Alphabets used by the catalogue models.
var (
	AminoAcids = bayra.NewDomain("aminoacid",
		"A", "R", "N", "D", "C", "Q", "E", "G", "H", "I",
		"L", "K", "M", "F", "P", "S", "T", "W", "Y", "V")
	Nucleotides = bayra.NewDomain("nucleotide", "A", "C", "G", "T")
	GainLoss    = bayra.NewDomain("gainloss", "0", "1")
	GapStates   = bayra.NewDomain("gapstate", "-", "+")
)

// symmetric expands a lower triangle (row-major, rows 1..k-1) into a full
// symmetric matrix with zero diagonal.
func symmetric(k int, lower []float64) *mat.Dense {
	m := mat.NewDense(k, k, nil)
	p := 0
	for i := 1; i < k; i++ {
		for j := 0; j < i; j++ {
			m.Set(i, j, lower[p])
			m.Set(j, i, lower[p])
			p++
		}
	}
	return m
}

// Yang-style nucleotide exchange: transitions twice as exchangeable as
// transversions.
var yangExchange = []float64{
	1.0,
	2.0, 1.0,
	1.0, 2.0, 1.0,
}

var yangFreqs = []float64{0.308, 0.185, 0.199, 0.308}

// GLOOME1 gain/loss model: gains rarer than losses.
var gloomeFreqs = []float64{0.64, 0.36}

// Gap model: indel presence/absence along an edge.
var gapFreqs = []float64{0.22, 0.78}

var binaryExchange = []float64{1.0}

var (
	modelMu    sync.Mutex
	modelCache = make(map[string]*Model)
)

// Named returns the prebuilt catalogue model for a name. Models are built
// once and shared; their transition caches accumulate across callers.
func Named(name string) (*Model, error) {
	modelMu.Lock()
	defer modelMu.Unlock()
	if m, ok := modelCache[name]; ok {
		return m, nil
	}
	var (
		m   *Model
		err error
	)
	switch name {
	case JTT:
		m, err = New(name, AminoAcids, jttFreqs, symmetric(20, jttExchange))
	case Dayhoff:
		m, err = New(name, AminoAcids, dayhoffFreqs, symmetric(20, dayhoffExchange))
	case LG:
		m, err = New(name, AminoAcids, lgFreqs, symmetric(20, lgExchange))
	case WAG:
		m, err = New(name, AminoAcids, wagFreqs, symmetric(20, wagExchange))
	case Yang:
		m, err = New(name, Nucleotides, yangFreqs, symmetric(4, yangExchange))
	case GLOOME1:
		m, err = New(name, GainLoss, gloomeFreqs, symmetric(2, binaryExchange))
	case Gap:
		m, err = New(name, GapStates, gapFreqs, symmetric(2, binaryExchange))
	default:
		return nil, fmt.Errorf("%w: unknown substitution model %q", bayra.ErrInvalidModel, name)
	}
	if err != nil {
		return nil, err
	}
	modelCache[name] = m
	return m, nil
}

// Names lists the catalogue model names.
func Names() []string {
	return []string{JTT, Dayhoff, LG, WAG, Yang, GLOOME1, Gap}
}
