// Package recon reconstructs ancestral sequences on phylogenetic trees:
// per-column tree-shaped networks over a substitution alphabet, solved in
// joint (most-probable-explanation) or marginal mode, with columns batched
// across a worker pool and a cancellable job queue on top.
package recon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HazelnutParadise/bayra"
)

// Node is one node of a rooted phylogenetic tree. Length is the branch to
// the parent, meaningless on the root.
type Node struct {
	Name     string
	Length   float64
	Parent   *Node
	Children []*Node
}

// Leaf reports whether the node has no children.
func (n *Node) Leaf() bool { return len(n.Children) == 0 }

// Tree is a rooted phylogenetic tree.
type Tree struct {
	Root *Node
}

// Nodes returns all nodes in pre-order.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	if t.Root != nil {
		walk(t.Root)
	}
	return out
}

// Leaves returns the leaf nodes in pre-order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if n.Leaf() {
			out = append(out, n)
		}
	}
	return out
}

// Internals returns the non-leaf nodes (the ancestors) in pre-order, root
// first.
func (t *Tree) Internals() []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if !n.Leaf() {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the node with the given name, nil when absent.
func (t *Tree) Find(name string) *Node {
	for _, n := range t.Nodes() {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// defaultBranchLength substitutes for edges the Newick string leaves
// unspecified.
const defaultBranchLength = 1.0

// ParseNewick parses a Newick tree string such as
// "((A:0.1,B:0.2)X:0.05,C:0.3);". Unnamed internal nodes are assigned
// names N0, N1, ... in pre-order. Only the string form is handled here;
// reading tree files is the caller's business.
func ParseNewick(s string) (*Tree, error) {
	p := &newickParser{s: strings.TrimSpace(s)}
	root, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ';' {
		p.pos++
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("invalid newick: trailing input at offset %d", p.pos)
	}

	t := &Tree{Root: root}
	used := make(map[string]bool)
	for _, n := range t.Nodes() {
		if n.Name != "" {
			if used[n.Name] {
				return nil, fmt.Errorf("invalid newick: duplicate node name %q", n.Name)
			}
			used[n.Name] = true
		}
	}
	next := 0
	for _, n := range t.Nodes() {
		if n.Name != "" {
			continue
		}
		if n.Leaf() {
			return nil, fmt.Errorf("invalid newick: unnamed leaf")
		}
		for {
			name := "N" + strconv.Itoa(next)
			next++
			if !used[name] {
				n.Name = name
				used[name] = true
				break
			}
		}
	}
	return t, nil
}

type newickParser struct {
	s   string
	pos int
}

func (p *newickParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t' || p.s[p.pos] == '\n' || p.s[p.pos] == '\r') {
		p.pos++
	}
}

func (p *newickParser) node() (*Node, error) {
	p.skipSpace()
	n := &Node{Length: defaultBranchLength}
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		p.pos++
		for {
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			child.Parent = n
			n.Children = append(n.Children, child)
			p.skipSpace()
			if p.pos >= len(p.s) {
				return nil, fmt.Errorf("invalid newick: unterminated group")
			}
			if p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.s[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("invalid newick: unexpected %q at offset %d", p.s[p.pos], p.pos)
		}
	}
	n.Name = p.label()
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ':' {
		p.pos++
		length, err := p.number()
		if err != nil {
			return nil, err
		}
		n.Length = length
	} else if len(n.Children) > 0 && (p.pos >= len(p.s) || p.s[p.pos] == ';') {
		// Only the root label is followed by ';' or the end of input.
		bayra.LogDebug("recon.ParseNewick: root branch length defaulted")
	}
	return n, nil
}

func (p *newickParser) label() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '(' || c == ')' || c == ',' || c == ':' || c == ';' || c == ' ' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *newickParser) number() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		return 0, fmt.Errorf("invalid newick: missing branch length at offset %d", p.pos)
	}
	return strconv.ParseFloat(p.s[start:p.pos], 64)
}
