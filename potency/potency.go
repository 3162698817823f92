package potency

import (
	"container/heap"
	"math/rand"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/query"
)

// Kind identifies how a queue weighs items and picks the bucket to pop from.
type Kind uint8

const (
	// KindRandom weighs an item by the distance of its marking and pops from a bucket chosen at random,
	// proportionally to its potency.
	KindRandom Kind = iota
	// KindMonteCarlo weighs an item by the best distance reached by random playouts from its marking
	// and pops from the most potent non-empty bucket.
	KindMonteCarlo
)

func (k Kind) String() string {
	return [...]string{"random", "montecarlo"}[k]
}

const (
	// Initial is the potency every transition starts with.
	Initial = 100
	// DefaultMaxSteps is the playout length of the Monte-Carlo queue.
	DefaultMaxSteps = 32
	none            = -1
)

type item struct {
	weight uint32
	id     uint32
}

// bucket is a min-heap of items by weight, smaller ids first on equal weights.
type bucket []item

func (b bucket) Len() int { return len(b) }

func (b bucket) Less(i, j int) bool {
	if b[i].weight == b[j].weight {
		return b[i].id < b[j].id
	}
	return b[i].weight < b[j].weight
}

func (b bucket) Swap(i, j int) { b[i], b[j] = b[j], b[i] }

func (b *bucket) Push(x any) { *b = append(*b, x.(item)) }

func (b *bucket) Pop() any {
	old := *b
	it := old[len(old)-1]
	*b = old[:len(old)-1]
	return it
}

// value is the potency of a transition and its neighbours in the potency order.
type value struct {
	weight     uint32
	prev, next int
}

// Queue is a frontier of pending items with one bucket per transition. Buckets are kept in a doubly
// linked order of decreasing potency. A transition gains potency when an item pushed through it is
// closer than the item last popped, and loses it when it is farther.
type Queue struct {
	kind       Kind
	net        *petri.Net
	rng        *rand.Rand
	maxSteps   int
	size       int
	best       int
	parentDist uint32
	potencies  []value
	queues     []bucket
	scratch    petri.Marking
}

func newQueue(kind Kind, n *petri.Net, seed int64) *Queue {
	// the last bucket holds deadlock stutters
	buckets := n.NumTransitions() + 1
	q := &Queue{
		kind:       kind,
		net:        n,
		rng:        rand.New(rand.NewSource(seed)),
		parentDist: query.Infinity,
		potencies:  make([]value, buckets),
		queues:     make([]bucket, buckets),
	}
	for i := range q.potencies {
		q.potencies[i] = value{weight: Initial, prev: i - 1, next: i + 1}
	}
	q.potencies[buckets-1].next = none
	return q
}

func NewRandom(n *petri.Net, seed int64) *Queue {
	return newQueue(KindRandom, n, seed)
}

// NewMonteCarlo returns a queue whose playouts run at most maxSteps transitions.
func NewMonteCarlo(n *petri.Net, seed int64, maxSteps int) *Queue {
	q := newQueue(KindMonteCarlo, n, seed)
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	q.maxSteps = maxSteps
	return q
}

func (q *Queue) Kind() Kind { return q.kind }

func (q *Queue) Len() int { return q.size }

func (q *Queue) Empty() bool { return q.size == 0 }

// Reparent sets the distance new items are compared against. Pop sets it to the weight of the popped item.
func (q *Queue) Reparent(dist uint32) { q.parentDist = dist }

// Potency returns the current potency of transition t.
func (q *Queue) Potency(t uint32) uint32 { return q.potencies[q.bucketOf(t)].weight }

// Order returns the buckets from the most to the least potent. The deadlock bucket is reported as
// petri.Deadlock.
func (q *Queue) Order() []uint32 {
	out := make([]uint32, 0, len(q.potencies))
	for i := q.best; i != none; i = q.potencies[i].next {
		if i == len(q.potencies)-1 {
			out = append(out, petri.Deadlock)
			continue
		}
		out = append(out, uint32(i))
	}
	return out
}

func (q *Queue) bucketOf(t uint32) int {
	if int(t) >= len(q.queues)-1 {
		return len(q.queues) - 1
	}
	return int(t)
}

// Push adds the item id reached by firing t, weighted by the distance of the marking in ctx to
// satisfying cond.
func (q *Queue) Push(id uint32, ctx *query.DistanceContext, cond query.Condition, t uint32) {
	var w uint32
	switch q.kind {
	case KindMonteCarlo:
		w = q.playout(ctx, cond)
	default:
		w = cond.Distance(ctx)
	}
	b := q.bucketOf(t)
	heap.Push(&q.queues[b], item{weight: w, id: id})
	q.size++
	switch {
	case w < q.parentDist:
		q.promote(b)
	case w > q.parentDist:
		q.demote(b)
	}
}

// Pop removes the next item. It returns false when the queue is empty.
func (q *Queue) Pop() (uint32, bool) {
	if q.size == 0 {
		return 0, false
	}
	b := q.choose()
	it := heap.Pop(&q.queues[b]).(item)
	q.size--
	q.parentDist = it.weight
	return it.id, true
}

func (q *Queue) choose() int {
	if q.kind == KindRandom {
		var total uint64
		for i := q.best; i != none; i = q.potencies[i].next {
			if len(q.queues[i]) > 0 {
				total += uint64(q.potencies[i].weight)
			}
		}
		r := uint64(q.rng.Int63n(int64(total)))
		for i := q.best; i != none; i = q.potencies[i].next {
			if len(q.queues[i]) == 0 {
				continue
			}
			w := uint64(q.potencies[i].weight)
			if r < w {
				return i
			}
			r -= w
		}
	}
	for i := q.best; i != none; i = q.potencies[i].next {
		if len(q.queues[i]) > 0 {
			return i
		}
	}
	panic("potency: non-empty queue without items")
}

func (q *Queue) promote(b int) {
	p := &q.potencies[b]
	if p.weight < ^uint32(0) {
		p.weight++
	}
	for p.prev != none && q.potencies[p.prev].weight < p.weight {
		q.swapAdjacent(p.prev, b)
	}
}

func (q *Queue) demote(b int) {
	p := &q.potencies[b]
	if p.weight > 1 {
		p.weight--
	}
	for p.next != none && q.potencies[p.next].weight > p.weight {
		q.swapAdjacent(b, p.next)
	}
}

// swapAdjacent exchanges a and its successor b in the potency order.
func (q *Queue) swapAdjacent(a, b int) {
	pa, pb := &q.potencies[a], &q.potencies[b]
	before, after := pa.prev, pb.next
	if before != none {
		q.potencies[before].next = b
	} else {
		q.best = b
	}
	if after != none {
		q.potencies[after].prev = a
	}
	pb.prev, pb.next = before, a
	pa.prev, pa.next = b, after
}

// playout returns the smallest distance to cond seen along random firing sequences of at most
// maxSteps transitions from the marking in ctx. Only the first trace is played.
func (q *Queue) playout(ctx *query.DistanceContext, cond query.Condition) uint32 {
	best := cond.Distance(ctx)
	if best == 0 || q.maxSteps == 0 {
		return best
	}
	np := q.net.NumPlaces()
	if cap(q.scratch) < len(ctx.Marking) {
		q.scratch = make(petri.Marking, len(ctx.Marking))
	}
	q.scratch = q.scratch[:len(ctx.Marking)]
	copy(q.scratch, ctx.Marking)
	play := &query.DistanceContext{}
	*play = *ctx
	play.Marking = q.scratch
	enabled := make([]uint32, 0, q.net.NumTransitions())
	for step := 0; step < q.maxSteps; step++ {
		enabled = enabled[:0]
		for t := 0; t < q.net.NumTransitions(); t++ {
			if q.net.Enabled(q.scratch[:np], uint32(t)) {
				enabled = append(enabled, uint32(t))
			}
		}
		if len(enabled) == 0 {
			break
		}
		t := enabled[q.rng.Intn(len(enabled))]
		q.net.Fire(q.scratch[:np], t, q.scratch[:np])
		if d := cond.Distance(play); d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return best
}
