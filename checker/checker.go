package checker

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/analysis"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/heuristic"
	"github.com/jt05610/petri/marked"
	"github.com/jt05610/petri/potency"
	"github.com/jt05610/petri/product"
	"github.com/jt05610/petri/query"
	"github.com/jt05610/petri/stubborn"
	"go.uber.org/zap"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm selects the emptiness check.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	AlgorithmNestedDFS
	AlgorithmTarjan
)

var algorithmNames = [...]string{"none", "ndfs", "tarjan"}

func (a Algorithm) String() string { return algorithmNames[a] }

func ParseAlgorithm(s string) (Algorithm, error) {
	for i, name := range algorithmNames {
		if i > 0 && strings.EqualFold(s, name) {
			return Algorithm(i), nil
		}
	}
	return AlgorithmNone, fmt.Errorf("algorithm %q: %w", s, ErrUnknownAlgorithm)
}

// Verdict is the outcome of an emptiness check. Violated means an accepting run of the product exists.
type Verdict uint8

const (
	Unknown Verdict = iota
	Satisfied
	Violated
)

func (v Verdict) String() string {
	return [...]string{"unknown", "satisfied", "violated"}[v]
}

// Options configure a check. Apart from Algorithm the zero value is an unbounded search without
// reduction, ordered by the automaton heuristic.
type Options struct {
	// KBound is the largest number of steps explored from an initial state; 0 is unbounded.
	KBound       int
	Algorithm    Algorithm
	PartialOrder bool
	Strategy     heuristic.Strategy
	Heuristic    heuristic.Type
	UtilizeWeak  bool
	// Trace records a counterexample when the check finds an accepting run.
	Trace bool
	Seed  int64
	// MaxSteps bounds the playouts of the Monte-Carlo potency strategy.
	MaxSteps int
	Logger   *zap.Logger
	Observer Observer
}

// Observer receives the statistics of every finished check.
type Observer interface {
	Observe(a Algorithm, v Verdict, s Stats)
}

type Stats struct {
	// Explored is the number of distinct product states discovered.
	Explored uint64
	// Expanded is the number of successor enumerations.
	Expanded uint64
	MaxDepth int
	// Reduced is the number of markings whose stubborn set was smaller than the enabled set.
	Reduced int
	Elapsed time.Duration
}

// Step is one move of a trace: the transition fired in each trace, petri.Deadlock for a stutter.
type Step []uint32

// Problem is the product to check: a net, the automaton of the property to refute and the formula the
// automaton accepts, and the number of synchronous traces.
type Problem struct {
	Net       *petri.Net
	Automaton *buchi.Automaton
	Formula   query.Condition
	Traces    int
}

// Checker decides whether the product of a net and an automaton has an accepting run.
type Checker interface {
	Check(ctx context.Context) Verdict
	// Trace returns the counterexample of the last check, if one was recorded.
	Trace() []Step
	// LoopIndex is the index in Trace of the first step of the accepting cycle, or -1.
	LoopIndex() int
	Stats() Stats
	Algorithm() Algorithm
	checker()
}

// New builds the checker selected by opts. Selecting AlgorithmNone is a programming error and panics.
func New(p Problem, opts Options) (Checker, error) {
	s, err := newSearch(p, opts)
	if err != nil {
		return nil, err
	}
	switch opts.Algorithm {
	case AlgorithmNestedDFS:
		return &NestedDFS{search: s}, nil
	case AlgorithmTarjan:
		return &Tarjan{search: s}, nil
	}
	panic(fmt.Sprintf("checker: unsupported algorithm %q", opts.Algorithm))
}

// pollInterval is the number of expansions between context checks.
const pollInterval = 1024

// noMove marks frames entered without a move, the initial states.
const noMove = ^uint32(0)

type move struct {
	fired Step
	succ  uint32
}

func (m move) transition() uint32 {
	if len(m.fired) == 0 {
		return noMove
	}
	return m.fired[0]
}

// search is the state shared by both algorithms: the product generator, the visited store and the
// exploration order.
type search struct {
	problem Problem
	opts    Options
	log     *zap.Logger
	gen     *product.Generator
	reducer *stubborn.Generator
	store   *store
	heur    heuristic.Heuristic
	pot     *potency.Queue
	width   int
	weak    bool
	scratch product.State
	ranks   []uint32
	order   []move
	trace   []Step
	loop    int
	bounded bool
	aborted bool
	polls   int
	stats   Stats
	started time.Time
	runID   uuid.UUID
}

func newSearch(p Problem, opts Options) (*search, error) {
	if p.Traces < 1 {
		p.Traces = 1
	}
	if p.Formula == nil {
		p.Formula = query.True
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Algorithm == AlgorithmNone {
		panic("checker: no algorithm selected")
	}
	if err := p.Net.Compile(); err != nil {
		return nil, err
	}
	s := &search{
		problem: p,
		opts:    opts,
		width:   p.Net.NumPlaces() * p.Traces,
		loop:    -1,
	}
	var succ product.Successors = marked.New(p.Net, p.Traces)
	if opts.PartialOrder && p.Traces == 1 && !p.Formula.ContainsNext() {
		st, err := analysis.Analyze(p.Net)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", p.Net.Name, err)
		}
		s.reducer = stubborn.New(p.Net, st, p.Automaton.Atoms())
		succ = s.reducer
	}
	s.gen = product.NewGenerator(p.Net, p.Automaton, succ)
	s.weak = opts.UtilizeWeak && p.Automaton.IsWeak()
	s.heur = heuristic.Make(heuristic.Options{
		Strategy:  opts.Strategy,
		Type:      opts.Heuristic,
		Seed:      opts.Seed,
		Net:       p.Net,
		Automaton: p.Automaton,
		Formula:   p.Formula,
	})
	switch opts.Strategy {
	case heuristic.StrategyRPFS:
		s.pot = potency.NewRandom(p.Net, opts.Seed)
	case heuristic.StrategyMCPFS:
		s.pot = potency.NewMonteCarlo(p.Net, opts.Seed, opts.MaxSteps)
	}
	s.scratch.Marking = make(petri.Marking, s.width)
	return s, nil
}

func (s *search) Trace() []Step { return s.trace }

func (s *search) LoopIndex() int { return s.loop }

func (s *search) Stats() Stats { return s.stats }

// reset prepares a new check. The visited store is rebuilt so a checker can be run more than once.
func (s *search) reset(alg Algorithm) {
	s.store = newStore(s.width)
	s.trace, s.loop = nil, -1
	s.bounded, s.aborted = false, false
	s.polls = 0
	s.stats = Stats{}
	s.started = time.Now()
	s.runID = uuid.New()
	s.log = s.opts.Logger.With(
		zap.String("run", s.runID.String()),
		zap.String("net", s.problem.Net.Name),
		zap.Stringer("algorithm", alg),
	)
	s.log.Debug("check started",
		zap.Bool("partialOrder", s.reducer != nil),
		zap.Bool("weak", s.weak),
		zap.Int("traces", s.problem.Traces),
		zap.Int("kBound", s.opts.KBound),
	)
}

func (s *search) finish(alg Algorithm, v Verdict) Verdict {
	s.stats.Elapsed = time.Since(s.started)
	if s.reducer != nil {
		s.stats.Reduced = s.reducer.Reduced()
	}
	s.log.Info("check finished",
		zap.Stringer("verdict", v),
		zap.Uint64("explored", s.stats.Explored),
		zap.Uint64("expanded", s.stats.Expanded),
		zap.Int("maxDepth", s.stats.MaxDepth),
		zap.Duration("elapsed", s.stats.Elapsed),
	)
	if s.opts.Observer != nil {
		s.opts.Observer.Observe(alg, v, s.stats)
	}
	return v
}

// inconclusive is the verdict of a search that found no accepting run.
func (s *search) inconclusive() Verdict {
	if s.bounded || s.aborted {
		return Unknown
	}
	return Satisfied
}

// poll reports whether the search may continue. The context is checked every pollInterval calls.
func (s *search) poll(ctx context.Context) bool {
	s.polls++
	if s.polls%pollInterval != 0 {
		return true
	}
	if err := ctx.Err(); err != nil {
		s.aborted = true
		s.log.Info("check interrupted", zap.Error(err), zap.Uint64("explored", s.stats.Explored))
		return false
	}
	return true
}

func (s *search) accepting(id uint32) bool {
	return s.problem.Automaton.IsAccepting(s.store.buchi[id])
}

// initial interns the initial product states. Every trace starts in the initial marking of the net.
func (s *search) initial() []uint32 {
	m0 := s.problem.Net.InitialMarking()
	m := make(petri.Marking, 0, s.width)
	for i := 0; i < s.problem.Traces; i++ {
		m = append(m, m0...)
	}
	var ids []uint32
	for _, st := range s.gen.InitialStates(m) {
		id, added := s.store.add(st)
		if added {
			s.stats.Explored++
			ids = append(ids, id)
		}
	}
	return ids
}

// successors enumerates the product successors of id. Ordered successors follow the potency queue
// when one is configured, the heuristic otherwise, and generation order without either.
func (s *search) successors(id uint32, ordered bool) []move {
	s.stats.Expanded++
	parent := s.store.get(id)
	ordered = ordered && (s.heur != nil || s.pot != nil)
	if ordered && s.pot != nil {
		s.pot.Reparent(s.problem.Formula.Distance(query.NewDistanceContext(s.problem.Net, parent.Marking)))
	}
	s.ranks = s.ranks[:0]
	var moves []move
	s.gen.Prepare(&parent)
	for s.gen.Next(&s.scratch) {
		succ, added := s.store.add(s.scratch)
		if added {
			s.stats.Explored++
		}
		m := move{fired: Step(s.gen.Fired()).clone(), succ: succ}
		if ordered {
			switch {
			case s.pot != nil:
				ctx := query.NewDistanceContext(s.problem.Net, s.scratch.Marking)
				s.pot.Push(uint32(len(moves)), ctx, s.problem.Formula, m.transition())
			default:
				s.ranks = append(s.ranks, s.heur.Eval(s.scratch, m.transition()))
			}
		}
		moves = append(moves, m)
	}
	if ordered {
		moves = s.sort(moves)
	}
	return moves
}

func (s *search) sort(moves []move) []move {
	s.order = s.order[:0]
	if s.pot != nil {
		for {
			i, ok := s.pot.Pop()
			if !ok {
				break
			}
			s.order = append(s.order, moves[i])
		}
		return append(moves[:0], s.order...)
	}
	idx := make([]int, len(moves))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(s.ranks[a], s.ranks[b]) })
	for _, i := range idx {
		s.order = append(s.order, moves[i])
	}
	return append(moves[:0], s.order...)
}

func (st Step) clone() Step {
	return append(Step(nil), st...)
}

// path searches breadth first from the successors of from for a state satisfying target, moving only
// through states allowed admits. It returns the moves of a shortest such path.
func (s *search) path(from uint32, target, allowed func(uint32) bool, expand func(uint32) []move) ([]move, bool) {
	type link struct {
		prev uint32
		m    move
	}
	links := make(map[uint32]link)
	fifo := petri.NewFIFO[uint32](0)
	fifo.Push(from)
	for {
		id, ok := fifo.Next()
		if !ok {
			return nil, false
		}
		for _, m := range expand(id) {
			if !allowed(m.succ) {
				continue
			}
			if _, seen := links[m.succ]; seen {
				continue
			}
			links[m.succ] = link{prev: id, m: m}
			if target(m.succ) {
				var out []move
				for cur := m.succ; ; {
					l := links[cur]
					out = append(out, l.m)
					if l.prev == from {
						break
					}
					cur = l.prev
				}
				slices.Reverse(out)
				return out, true
			}
			fifo.Push(m.succ)
		}
	}
}

func steps(moves []move) []Step {
	out := make([]Step, len(moves))
	for i, m := range moves {
		out[i] = m.fired
	}
	return out
}
