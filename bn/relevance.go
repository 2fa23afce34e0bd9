package bn

import "github.com/HazelnutParadise/bayra"

// relevant computes the set of variables whose distributions can affect
// the posterior of the query given the current evidence: a Bayes-ball pass
// from the query collects the requisite probability nodes (nodes the ball
// leaves through their parents, plus visited evidence nodes), which prunes
// both non-ancestors and d-separated ancestors.
func (nw *Network) relevant(query []*bayra.Variable) map[*bayra.Variable]bool {
	type visit struct {
		v         *bayra.Variable
		fromChild bool
	}
	visitedTop := make(map[*bayra.Variable]bool)
	visitedBottom := make(map[*bayra.Variable]bool)
	requisite := make(map[*bayra.Variable]bool)

	stack := make([]visit, 0, len(query))
	for _, q := range query {
		stack = append(stack, visit{v: q, fromChild: true})
		requisite[q] = true
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		_, observed := nw.evidence[cur.v]
		node := nw.byVar[cur.v]

		if cur.fromChild {
			if observed {
				// The ball is blocked going up through evidence, but the
				// evidence node's own distribution is requisite.
				requisite[cur.v] = true
				continue
			}
			if !visitedTop[cur.v] {
				visitedTop[cur.v] = true
				requisite[cur.v] = true
				if node != nil {
					for _, p := range node.Parents() {
						stack = append(stack, visit{v: p, fromChild: true})
					}
				}
			}
			if !visitedBottom[cur.v] {
				visitedBottom[cur.v] = true
				for _, c := range nw.children[cur.v] {
					stack = append(stack, visit{v: c, fromChild: false})
				}
			}
			continue
		}

		// Arriving from a parent.
		if observed {
			// Bounce back up: observed colliders open the path to their
			// other parents.
			requisite[cur.v] = true
			if !visitedTop[cur.v] {
				visitedTop[cur.v] = true
				if node != nil {
					for _, p := range node.Parents() {
						stack = append(stack, visit{v: p, fromChild: true})
					}
				}
			}
			continue
		}
		if !visitedBottom[cur.v] {
			visitedBottom[cur.v] = true
			for _, c := range nw.children[cur.v] {
				stack = append(stack, visit{v: c, fromChild: false})
			}
		}
	}
	return requisite
}
