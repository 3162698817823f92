package checker

import (
	"context"
	"math"
)

const (
	unseen uint32 = 0
	closed uint32 = math.MaxUint32
)

type centry struct {
	id      uint32
	lowlink int
}

type dentry struct {
	pos   int
	via   uint32
	moves []move
	next  int
}

// Tarjan looks for an accepting cycle with Tarjan's strongly connected component search. The cstack
// holds the states of open components, the dstack the search path as positions into the cstack, and
// the astack the cstack positions of accepting states. A back edge that lowers the lowlink of the
// current state below an accepting position closes an accepting cycle.
type Tarjan struct {
	*search
	// per state, unseen, closed, or its cstack position plus one
	seen    []uint32
	cut     []bool
	cstack  []centry
	dstack  []dentry
	astack  []int
	closure int
}

func (c *Tarjan) Algorithm() Algorithm { return AlgorithmTarjan }

func (c *Tarjan) checker() {}

// Components is the number of components closed by the last check.
func (c *Tarjan) Components() int { return c.closure }

func (c *Tarjan) Check(ctx context.Context) Verdict {
	c.reset(AlgorithmTarjan)
	c.seen, c.cut = c.seen[:0], c.cut[:0]
	c.cstack, c.dstack, c.astack = c.cstack[:0], c.dstack[:0], c.astack[:0]
	c.closure = 0
	for _, id := range c.initial() {
		c.grow()
		if c.seen[id] != unseen {
			continue
		}
		if c.dfs(ctx, id) {
			return c.finish(AlgorithmTarjan, Violated)
		}
		if c.aborted {
			break
		}
	}
	return c.finish(AlgorithmTarjan, c.inconclusive())
}

func (c *Tarjan) grow() {
	for len(c.seen) < c.store.len() {
		c.seen = append(c.seen, unseen)
		c.cut = append(c.cut, false)
	}
}

func (c *Tarjan) expand(id uint32, ordered bool) []move {
	if c.cut[id] {
		return nil
	}
	moves := c.successors(id, ordered)
	c.grow()
	return moves
}

func (c *Tarjan) push(id, via uint32) {
	p := len(c.cstack)
	c.cstack = append(c.cstack, centry{id: id, lowlink: p})
	c.seen[id] = uint32(p) + 1
	if !c.weak && c.accepting(id) {
		c.astack = append(c.astack, p)
	}
	depth := len(c.dstack)
	if depth > c.stats.MaxDepth {
		c.stats.MaxDepth = depth
	}
	if c.opts.KBound > 0 && depth >= c.opts.KBound {
		c.cut[id] = true
		c.bounded = true
	}
	if c.heur != nil && via != noMove {
		c.heur.Push(via)
	}
	c.dstack = append(c.dstack, dentry{pos: p, via: via, moves: c.expand(id, true)})
}

// pop backtracks from the top of the dstack. It closes the component rooted there, or passes the lowlink
// to the parent and reports whether that closes an accepting cycle.
func (c *Tarjan) pop() bool {
	top := c.dstack[len(c.dstack)-1]
	c.dstack = c.dstack[:len(c.dstack)-1]
	if c.heur != nil && top.via != noMove {
		c.heur.Pop(top.via)
	}
	p := top.pos
	low := c.cstack[p].lowlink
	if low == p {
		for _, e := range c.cstack[p:] {
			c.seen[e.id] = closed
		}
		c.cstack = c.cstack[:p]
		for len(c.astack) > 0 && c.astack[len(c.astack)-1] >= p {
			c.astack = c.astack[:len(c.astack)-1]
		}
		c.closure++
		return false
	}
	if len(c.dstack) == 0 {
		return false
	}
	parent := c.dstack[len(c.dstack)-1].pos
	if low < c.cstack[parent].lowlink {
		c.cstack[parent].lowlink = low
		return c.acceptingCycle(parent)
	}
	return false
}

// acceptingCycle reports whether the open component of the state at cstack position p holds an
// accepting state. The states at positions from the lowlink of p upwards share its component. In a
// weak automaton every state of a component has the same acceptance.
func (c *Tarjan) acceptingCycle(p int) bool {
	if c.weak {
		return c.accepting(c.cstack[p].id)
	}
	return len(c.astack) > 0 && c.astack[len(c.astack)-1] >= c.cstack[p].lowlink
}

func (c *Tarjan) dfs(ctx context.Context, root uint32) bool {
	c.push(root, noMove)
	for len(c.dstack) > 0 {
		top := &c.dstack[len(c.dstack)-1]
		if top.next == len(top.moves) {
			if c.pop() {
				c.lasso()
				return true
			}
			continue
		}
		m := top.moves[top.next]
		top.next++
		switch v := c.seen[m.succ]; v {
		case closed:
		case unseen:
			if !c.poll(ctx) {
				return false
			}
			c.push(m.succ, m.transition())
		default:
			p := top.pos
			if j := int(v - 1); j < c.cstack[p].lowlink {
				c.cstack[p].lowlink = j
			}
			if c.acceptingCycle(p) {
				c.lasso()
				return true
			}
		}
	}
	return false
}

// lasso records the search path to the current state followed by a cycle through an accepting state of
// its component. Both legs of the cycle are found breadth first among the open states of the component.
func (c *Tarjan) lasso() {
	if !c.opts.Trace {
		return
	}
	var path []move
	for i := 0; i+1 < len(c.dstack); i++ {
		d := c.dstack[i]
		path = append(path, d.moves[d.next-1])
	}
	top := c.dstack[len(c.dstack)-1]
	from := c.cstack[top.pos].id
	low := c.cstack[top.pos].lowlink
	inComponent := func(id uint32) bool {
		v := c.seen[id]
		return v != unseen && v != closed && int(v-1) >= low
	}
	expand := func(id uint32) []move { return c.expand(id, false) }
	var loop []move
	target := from
	if !c.accepting(from) {
		leg, ok := c.path(from, c.accepting, inComponent, expand)
		if !ok {
			c.log.Warn("no accepting state in component")
			return
		}
		loop = leg
		target = leg[len(leg)-1].succ
	}
	back, ok := c.path(target, func(id uint32) bool { return id == from }, inComponent, expand)
	if !ok {
		c.log.Warn("component does not close")
		return
	}
	c.trace = steps(append(append(path, loop...), back...))
	c.loop = len(path)
}
