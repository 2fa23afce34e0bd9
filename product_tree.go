package bayra

import "fmt"

// prodNode is one node of the binary product tree. Leaves hold input
// factors; internal nodes are evaluated post-order.
type prodNode struct {
	factor      *Factor
	left, right *prodNode
	evars       []*Variable
}

func leafNode(f *Factor) *prodNode {
	return &prodNode{factor: f, evars: f.evars}
}

// ProductMany multiplies a set of factors. The binary product tree is
// built greedily: at each step the pooled pair with the smallest joined
// complexity estimate is replaced by its product node. Evaluation is
// post-order.
func ProductMany(fs ...*Factor) (*Factor, error) {
	if len(fs) == 0 {
		return nil, fmt.Errorf("%w: empty factor set", ErrIncompleteNetwork)
	}
	pool := make([]*prodNode, len(fs))
	for i, f := range fs {
		pool[i] = leafNode(f)
	}
	for len(pool) > 1 {
		bi, bj := 0, 1
		best := joinedSize(pool[0].evars, pool[1].evars)
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				if c := joinedSize(pool[i].evars, pool[j].evars); c < best {
					best, bi, bj = c, i, j
				}
			}
		}
		merged := &prodNode{
			left:  pool[bi],
			right: pool[bj],
			evars: unionVars(pool[bi].evars, pool[bj].evars),
		}
		pool[bi] = merged
		pool = append(pool[:bj], pool[bj+1:]...)
	}
	return pool[0].eval()
}

func joinedSize(a, b []*Variable) float64 {
	c := 1.0
	for _, v := range unionVars(a, b) {
		c *= float64(v.Size())
	}
	return c
}

func (n *prodNode) eval() (*Factor, error) {
	if n.factor != nil {
		return n.factor, nil
	}
	l, err := n.left.eval()
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval()
	if err != nil {
		return nil, err
	}
	return Product(l, r)
}
