package bn

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/HazelnutParadise/bayra"
	"github.com/HazelnutParadise/bayra/subst"
)

// Per-node text persistence. The core only promises a per-node string
// form; wrapping them into a whole-network document is the persistence
// collaborator's business.

// AsText serialises a node's distribution parameters.
func AsText(n Node) (string, error) { return n.AsText() }

// FromText restores a node's distribution parameters from its text form.
// The node's variable and parents must already match.
func FromText(n Node, s string) error { return n.FromText(s) }

type cptText struct {
	Type    string      `json:"Type"`
	Var     string      `json:"Var"`
	Parents []string    `json:"Parents"`
	Rows    [][]float64 `json:"Rows"`
}

func (c *CPT) AsText() (string, error) {
	t := cptText{Type: "cpt", Var: c.v.Name()}
	for _, p := range c.parents {
		t.Parents = append(t.Parents, p.Name())
	}
	for i := 0; i < c.table.Size(); i++ {
		cat, ok := c.table.At(i)
		if !ok {
			return "", fmt.Errorf("%w: no distribution for %q at row %d", bayra.ErrIncompleteNetwork, c.v.Name(), i)
		}
		t.Rows = append(t.Rows, append([]float64(nil), cat.P()...))
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (c *CPT) FromText(s string) error {
	var t cptText
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return err
	}
	if t.Type != "cpt" {
		return fmt.Errorf("%w: node text is %q, want cpt", bayra.ErrIncompleteNetwork, t.Type)
	}
	if len(t.Rows) != c.table.Size() {
		return fmt.Errorf("%w: %d rows for %q, want %d", bayra.ErrIncompleteNetwork, len(t.Rows), c.v.Name(), c.table.Size())
	}
	for i, row := range t.Rows {
		if len(row) != c.v.Size() {
			return fmt.Errorf("%w: row %d has %d entries, want %d", bayra.ErrIncompleteNetwork, i, len(row), c.v.Size())
		}
		c.table.SetAt(i, bayra.NewCategorical(c.v.Domain(), row...))
	}
	return nil
}

type gdtText struct {
	Type      string    `json:"Type"`
	Var       string    `json:"Var"`
	Parents   []string  `json:"Parents"`
	Means     []float64 `json:"Means"`
	Variances []float64 `json:"Variances"`
}

func (g *GDT) AsText() (string, error) {
	t := gdtText{Type: "gdt", Var: g.v.Name()}
	for _, p := range g.parents {
		t.Parents = append(t.Parents, p.Name())
	}
	for i := 0; i < g.table.Size(); i++ {
		gauss, err := g.cellAt(i)
		if err != nil {
			return "", err
		}
		t.Means = append(t.Means, gauss.Mu())
		t.Variances = append(t.Variances, gauss.Variance())
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (g *GDT) FromText(s string) error {
	var t gdtText
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return err
	}
	if t.Type != "gdt" {
		return fmt.Errorf("%w: node text is %q, want gdt", bayra.ErrIncompleteNetwork, t.Type)
	}
	if len(t.Means) != g.table.Size() || len(t.Variances) != g.table.Size() {
		return fmt.Errorf("%w: %d cells for %q, want %d", bayra.ErrIncompleteNetwork, len(t.Means), g.v.Name(), g.table.Size())
	}
	for i := range t.Means {
		g.table.SetAt(i, bayra.NewGaussian(t.Means[i], t.Variances[i]))
	}
	return nil
}

type ddtText struct {
	Type    string      `json:"Type"`
	Var     string      `json:"Var"`
	Parents []string    `json:"Parents"`
	Alphas  [][]float64 `json:"Alphas"`
	Domain  []string    `json:"Domain"`
}

func (d *DDT) AsText() (string, error) {
	t := ddtText{Type: "ddt", Var: d.v.Name()}
	for _, p := range d.parents {
		t.Parents = append(t.Parents, p.Name())
	}
	for i := 0; i < d.table.Size(); i++ {
		dir, ok := d.table.At(i)
		if !ok {
			return "", fmt.Errorf("%w: no distribution for %q at cell %d", bayra.ErrIncompleteNetwork, d.v.Name(), i)
		}
		t.Alphas = append(t.Alphas, append([]float64(nil), dir.Alpha()...))
		if i == 0 {
			t.Domain = dir.Domain().Values()
		}
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (d *DDT) FromText(s string) error {
	var t ddtText
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return err
	}
	if t.Type != "ddt" {
		return fmt.Errorf("%w: node text is %q, want ddt", bayra.ErrIncompleteNetwork, t.Type)
	}
	if len(t.Alphas) != d.table.Size() {
		return fmt.Errorf("%w: %d cells for %q, want %d", bayra.ErrIncompleteNetwork, len(t.Alphas), d.v.Name(), d.table.Size())
	}
	dom := bayra.NewDomain(d.v.Name()+"-simplex", t.Domain...)
	for i, alpha := range t.Alphas {
		d.table.SetAt(i, bayra.NewDirichlet(dom, alpha...))
	}
	return nil
}

type substText struct {
	Type   string  `json:"Type"`
	Var    string  `json:"Var"`
	Parent string  `json:"Parent"`
	Model  string  `json:"Model"`
	Length float64 `json:"Length"`
}

func (s *Subst) AsText() (string, error) {
	b, err := json.Marshal(substText{
		Type:   "subst",
		Var:    s.child.Name(),
		Parent: s.parent.Name(),
		Model:  s.model.Name(),
		Length: s.length,
	})
	return string(b), err
}

func (s *Subst) FromText(text string) error {
	var t substText
	if err := json.Unmarshal([]byte(text), &t); err != nil {
		return err
	}
	if t.Type != "subst" {
		return fmt.Errorf("%w: node text is %q, want subst", bayra.ErrIncompleteNetwork, t.Type)
	}
	m, err := subst.Named(t.Model)
	if err != nil {
		return err
	}
	s.model = m
	s.length = t.Length
	s.cpt = nil
	return nil
}
