package checker

import (
	"context"
)

const (
	blue uint8 = 1 << iota
	cyan
	red
	truncated
)

type frame struct {
	id    uint32
	via   uint32
	moves []move
	pos   int
}

// NestedDFS looks for an accepting cycle with a blue search over the product. When the blue search
// backtracks from an accepting state a red search starts there, and any state on the blue stack it
// reaches closes a cycle through that state. A blue edge into the blue stack closes a cycle directly
// when either end is accepting.
type NestedDFS struct {
	*search
	colour []uint8
	stack  []frame
	reds   []frame
}

func (c *NestedDFS) Algorithm() Algorithm { return AlgorithmNestedDFS }

func (c *NestedDFS) checker() {}

func (c *NestedDFS) Check(ctx context.Context) Verdict {
	c.reset(AlgorithmNestedDFS)
	c.colour = c.colour[:0]
	for _, id := range c.initial() {
		c.grow()
		if c.colour[id]&blue != 0 {
			continue
		}
		if c.blue(ctx, id) {
			return c.finish(AlgorithmNestedDFS, Violated)
		}
		if c.aborted {
			break
		}
	}
	return c.finish(AlgorithmNestedDFS, c.inconclusive())
}

func (c *NestedDFS) grow() {
	for len(c.colour) < c.store.len() {
		c.colour = append(c.colour, 0)
	}
}

func (c *NestedDFS) expand(id uint32, ordered bool) []move {
	if c.colour[id]&truncated != 0 {
		return nil
	}
	moves := c.successors(id, ordered)
	c.grow()
	return moves
}

func (c *NestedDFS) enter(id, via uint32) {
	c.colour[id] |= blue | cyan
	depth := len(c.stack)
	if depth > c.stats.MaxDepth {
		c.stats.MaxDepth = depth
	}
	if c.opts.KBound > 0 && depth >= c.opts.KBound {
		c.colour[id] |= truncated
		c.bounded = true
	}
	if c.heur != nil && via != noMove {
		c.heur.Push(via)
	}
	c.stack = append(c.stack, frame{id: id, via: via, moves: c.expand(id, true)})
}

func (c *NestedDFS) blue(ctx context.Context, root uint32) bool {
	c.stack = c.stack[:0]
	c.enter(root, noMove)
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		if top.pos < len(top.moves) {
			m := top.moves[top.pos]
			top.pos++
			col := c.colour[m.succ]
			if col&cyan != 0 && (c.accepting(top.id) || c.accepting(m.succ)) {
				c.lasso(m.succ, []move{m})
				return true
			}
			if col&blue == 0 {
				if !c.poll(ctx) {
					return false
				}
				c.enter(m.succ, m.transition())
			}
			continue
		}
		if c.accepting(top.id) && c.red(ctx, top.id) {
			return true
		}
		if c.aborted {
			return false
		}
		c.colour[top.id] &^= cyan
		if c.heur != nil && top.via != noMove {
			c.heur.Pop(top.via)
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	return false
}

// red searches from the accepting seed for a state on the blue stack. Only accepting states seed a red
// search.
func (c *NestedDFS) red(ctx context.Context, seed uint32) bool {
	c.reds = append(c.reds[:0], frame{id: seed, moves: c.expand(seed, false)})
	for len(c.reds) > 0 {
		top := &c.reds[len(c.reds)-1]
		if top.pos == len(top.moves) {
			c.reds = c.reds[:len(c.reds)-1]
			continue
		}
		m := top.moves[top.pos]
		top.pos++
		if c.colour[m.succ]&cyan != 0 {
			tail := make([]move, 0, len(c.reds))
			for _, f := range c.reds {
				tail = append(tail, f.moves[f.pos-1])
			}
			c.lasso(m.succ, tail)
			return true
		}
		if c.colour[m.succ]&red != 0 {
			continue
		}
		c.colour[m.succ] |= red
		if !c.poll(ctx) {
			return false
		}
		c.reds = append(c.reds, frame{id: m.succ, moves: c.expand(m.succ, false)})
	}
	return false
}

// lasso records the trace of the blue stack followed by tail, which leads back to the stack state
// target. The loop starts where target was entered.
func (c *NestedDFS) lasso(target uint32, tail []move) {
	if !c.opts.Trace {
		return
	}
	var path []move
	loop := 0
	for i, f := range c.stack {
		if f.id == target {
			loop = i
		}
		if i+1 < len(c.stack) {
			path = append(path, f.moves[f.pos-1])
		}
	}
	c.trace = steps(append(path, tail...))
	c.loop = loop
}
