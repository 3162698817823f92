package checker_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
	"github.com/jt05610/petri/checker"
	"github.com/jt05610/petri/heuristic"
	"github.com/jt05610/petri/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(n *petri.Net) *petri.Net {
	if err := n.Compile(); err != nil {
		panic(err)
	}
	return n
}

// ring: a moves the token from p1 to p2, b moves it back.
func ring() *petri.Net {
	p1, p2 := petri.NewPlace("p1", 1), petri.NewPlace("p2", 0)
	a, b := petri.NewTransition("a"), petri.NewTransition("b")
	return compile(petri.NewNet("ring").WithPlaces(p1, p2).WithTransitions(a, b).WithArcs(
		petri.NewArc(p1, a, 1), petri.NewArc(a, p2, 1),
		petri.NewArc(p2, b, 1), petri.NewArc(b, p1, 1),
	))
}

// chain: t1 then t2 move the token from p0 to p2, where it stays.
func chain() *petri.Net {
	p0, p1, p2 := petri.NewPlace("p0", 1), petri.NewPlace("p1", 0), petri.NewPlace("p2", 0)
	t1, t2 := petri.NewTransition("t1"), petri.NewTransition("t2")
	return compile(petri.NewNet("chain").WithPlaces(p0, p1, p2).WithTransitions(t1, t2).WithArcs(
		petri.NewArc(p0, t1, 1), petri.NewArc(t1, p1, 1),
		petri.NewArc(p1, t2, 1), petri.NewArc(t2, p2, 1),
	))
}

// concurrent: two independent processes a: p1 -> q1 and b: p2 -> q2.
func concurrent() *petri.Net {
	p1, q1 := petri.NewPlace("p1", 1), petri.NewPlace("q1", 0)
	p2, q2 := petri.NewPlace("p2", 1), petri.NewPlace("q2", 0)
	a, b := petri.NewTransition("a"), petri.NewTransition("b")
	return compile(petri.NewNet("concurrent").WithPlaces(p1, q1, p2, q2).WithTransitions(a, b).WithArcs(
		petri.NewArc(p1, a, 1), petri.NewArc(a, q1, 1),
		petri.NewArc(p2, b, 1), petri.NewArc(b, q2, 1),
	))
}

func mutex() *petri.Net {
	idle1, idle2 := petri.NewPlace("idle1", 1), petri.NewPlace("idle2", 1)
	crit1, crit2 := petri.NewPlace("crit1", 0), petri.NewPlace("crit2", 0)
	lock := petri.NewPlace("lock", 1)
	enter1, leave1 := petri.NewTransition("enter1"), petri.NewTransition("leave1")
	enter2, leave2 := petri.NewTransition("enter2"), petri.NewTransition("leave2")
	return compile(petri.NewNet("mutex").
		WithPlaces(idle1, idle2, crit1, crit2, lock).
		WithTransitions(enter1, leave1, enter2, leave2).
		WithArcs(
			petri.NewArc(idle1, enter1, 1), petri.NewArc(lock, enter1, 1), petri.NewArc(enter1, crit1, 1),
			petri.NewArc(crit1, leave1, 1), petri.NewArc(leave1, idle1, 1), petri.NewArc(leave1, lock, 1),
			petri.NewArc(idle2, enter2, 1), petri.NewArc(lock, enter2, 1), petri.NewArc(enter2, crit2, 1),
			petri.NewArc(crit2, leave2, 1), petri.NewArc(leave2, idle2, 1), petri.NewArc(leave2, lock, 1),
		))
}

// counter: inc adds a token to q every time it fires.
func counter() *petri.Net {
	p, q := petri.NewPlace("p", 1), petri.NewPlace("q", 0)
	inc := petri.NewTransition("inc")
	return compile(petri.NewNet("counter").WithPlaces(p, q).WithTransitions(inc).WithArcs(
		petri.NewArc(p, inc, 1), petri.NewArc(inc, p, 1), petri.NewArc(inc, q, 1),
	))
}

// spinning: spin loops on p forever while go moves the token from r to q once.
func spinning() *petri.Net {
	p, r, q := petri.NewPlace("p", 1), petri.NewPlace("r", 1), petri.NewPlace("q", 0)
	spin, move := petri.NewTransition("spin"), petri.NewTransition("go")
	return compile(petri.NewNet("spinning").WithPlaces(p, r, q).WithTransitions(spin, move).WithArcs(
		petri.NewArc(p, spin, 1), petri.NewArc(spin, p, 1),
		petri.NewArc(r, move, 1), petri.NewArc(move, q, 1),
	))
}

type edge struct {
	from, to uint32
	guard    string
}

func automaton(t *testing.T, n *petri.Net, states int, accepting []uint32, edges ...edge) *buchi.Automaton {
	a := buchi.New(states)
	p := query.NewParser(n, nil)
	for _, e := range edges {
		g, err := a.ParseGuard(p, e.guard)
		require.NoError(t, err)
		require.NoError(t, a.AddEdge(e.from, e.to, g))
	}
	for _, s := range accepting {
		require.NoError(t, a.SetAccepting(s))
	}
	return a
}

// infinitelyOften accepts the runs on which a holds infinitely often.
func infinitelyOften(t *testing.T, n *petri.Net, a string) *buchi.Automaton {
	return automaton(t, n, 2, []uint32{1},
		edge{0, 0, "!(" + a + ")"}, edge{0, 1, a},
		edge{1, 1, a}, edge{1, 0, "!(" + a + ")"},
	)
}

// eventuallyAlways accepts the runs on which a holds from some point on.
func eventuallyAlways(t *testing.T, n *petri.Net, a string) *buchi.Automaton {
	return automaton(t, n, 2, []uint32{1},
		edge{0, 0, "true"}, edge{0, 1, a}, edge{1, 1, a},
	)
}

// always accepts the runs on which a holds in every state.
func always(t *testing.T, n *petri.Net, a string) *buchi.Automaton {
	return automaton(t, n, 1, []uint32{0}, edge{0, 0, a})
}

// eventually accepts the runs that reach a.
func eventually(t *testing.T, n *petri.Net, a string) *buchi.Automaton {
	return automaton(t, n, 2, []uint32{1},
		edge{0, 0, "true"}, edge{0, 1, a}, edge{1, 1, "true"},
	)
}

type problem struct {
	name string
	p    checker.Problem
	want checker.Verdict
}

func problems(t *testing.T) []problem {
	r, c, cc, m, sp := ring(), chain(), concurrent(), mutex(), spinning()
	return []problem{
		{"ring visits p2 infinitely often", checker.Problem{Net: r, Automaton: infinitelyOften(t, r, "p2 >= 1")}, checker.Violated},
		{"ring never settles in p2", checker.Problem{Net: r, Automaton: eventuallyAlways(t, r, "p2 >= 1")}, checker.Satisfied},
		{"chain deadlocks in p2", checker.Problem{Net: c, Automaton: eventuallyAlways(t, c, "p2 >= 1")}, checker.Violated},
		{"chain never returns to p0", checker.Problem{Net: c, Automaton: infinitelyOften(t, c, "p0 >= 1")}, checker.Satisfied},
		{"concurrent ends in q1", checker.Problem{Net: cc, Automaton: eventuallyAlways(t, cc, "q1 >= 1")}, checker.Violated},
		{"concurrent never doubles q1", checker.Problem{Net: cc, Automaton: eventually(t, cc, "q1 >= 2")}, checker.Satisfied},
		{"mutex excludes", checker.Problem{Net: m, Automaton: eventually(t, m, "crit1 >= 1 && crit2 >= 1")}, checker.Satisfied},
		{"mutex enters", checker.Problem{Net: m, Automaton: eventually(t, m, "crit2 >= 1")}, checker.Violated},
		{"spinning may never reach q", checker.Problem{Net: sp, Automaton: always(t, sp, "!(q >= 1)")}, checker.Violated},
	}
}

func TestCheck_AlgorithmsAgree(t *testing.T) {
	strategies := []heuristic.Strategy{
		heuristic.StrategyDefault, heuristic.StrategyDFS, heuristic.StrategyRDFS,
		heuristic.StrategyRPFS, heuristic.StrategyMCPFS,
	}
	for _, pr := range problems(t) {
		for _, alg := range []checker.Algorithm{checker.AlgorithmNestedDFS, checker.AlgorithmTarjan} {
			for _, po := range []bool{false, true} {
				for _, s := range strategies {
					name := fmt.Sprintf("%s/%s/po=%v/%s", pr.name, alg, po, s)
					t.Run(name, func(t *testing.T) {
						c, err := checker.New(pr.p, checker.Options{
							Algorithm:    alg,
							PartialOrder: po,
							Strategy:     s,
							UtilizeWeak:  true,
							Trace:        true,
							Seed:         11,
						})
						require.NoError(t, err)
						assert.Equal(t, pr.want, c.Check(context.Background()))
						if pr.want == checker.Violated {
							assert.NotEmpty(t, c.Trace())
							assert.GreaterOrEqual(t, c.LoopIndex(), 0)
							assert.Less(t, c.LoopIndex(), len(c.Trace()))
						} else {
							assert.Empty(t, c.Trace())
							assert.Equal(t, -1, c.LoopIndex())
						}
					})
				}
			}
		}
	}
}

func TestCheck_Heuristics(t *testing.T) {
	for _, pr := range problems(t) {
		for _, h := range []heuristic.Type{heuristic.TypeAutomaton, heuristic.TypeDistance, heuristic.TypeFireCount} {
			t.Run(pr.name+"/"+h.String(), func(t *testing.T) {
				c, err := checker.New(pr.p, checker.Options{Algorithm: checker.AlgorithmTarjan, Heuristic: h})
				require.NoError(t, err)
				assert.Equal(t, pr.want, c.Check(context.Background()))
			})
		}
	}
}

func TestCheck_DeadlockTrace(t *testing.T) {
	n := chain()
	aut := eventuallyAlways(t, n, "p2 >= 1")
	for _, alg := range []checker.Algorithm{checker.AlgorithmNestedDFS, checker.AlgorithmTarjan} {
		t.Run(alg.String(), func(t *testing.T) {
			c, err := checker.New(checker.Problem{Net: n, Automaton: aut}, checker.Options{
				Algorithm: alg,
				Strategy:  heuristic.StrategyDFS,
				Trace:     true,
			})
			require.NoError(t, err)
			require.Equal(t, checker.Violated, c.Check(context.Background()))
			assert.Equal(t, []checker.Step{{0}, {1}, {petri.Deadlock}, {petri.Deadlock}}, c.Trace())
			assert.Equal(t, 3, c.LoopIndex())
		})
	}
}

func TestCheck_KBound(t *testing.T) {
	n := chain()
	aut := eventually(t, n, "p2 >= 1")
	for _, alg := range []checker.Algorithm{checker.AlgorithmNestedDFS, checker.AlgorithmTarjan} {
		t.Run(alg.String(), func(t *testing.T) {
			for bound, want := range map[int]checker.Verdict{
				1: checker.Unknown,
				2: checker.Unknown,
				3: checker.Unknown,
				4: checker.Violated,
				0: checker.Violated,
			} {
				c, err := checker.New(checker.Problem{Net: n, Automaton: aut}, checker.Options{Algorithm: alg, KBound: bound})
				require.NoError(t, err)
				assert.Equal(t, want, c.Check(context.Background()), "bound %d", bound)
			}
		})
	}
}

func TestCheck_Cancelled(t *testing.T) {
	n := counter()
	aut := automaton(t, n, 1, nil, edge{0, 0, "true"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, alg := range []checker.Algorithm{checker.AlgorithmNestedDFS, checker.AlgorithmTarjan} {
		c, err := checker.New(checker.Problem{Net: n, Automaton: aut}, checker.Options{Algorithm: alg})
		require.NoError(t, err)
		assert.Equal(t, checker.Unknown, c.Check(ctx), alg.String())
		assert.Greater(t, c.Stats().Explored, uint64(1000))
	}
}

func TestCheck_NoInitialState(t *testing.T) {
	n := ring()
	aut := automaton(t, n, 2, []uint32{1}, edge{0, 1, "p2 >= 1"}, edge{1, 1, "true"})
	c, err := checker.New(checker.Problem{Net: n, Automaton: aut}, checker.Options{Algorithm: checker.AlgorithmTarjan})
	require.NoError(t, err)
	assert.Equal(t, checker.Satisfied, c.Check(context.Background()))
	assert.Equal(t, uint64(0), c.Stats().Explored)
}

func TestCheck_Rerun(t *testing.T) {
	n := ring()
	c, err := checker.New(checker.Problem{Net: n, Automaton: infinitelyOften(t, n, "p2 >= 1")}, checker.Options{Algorithm: checker.AlgorithmNestedDFS})
	require.NoError(t, err)
	assert.Equal(t, checker.Violated, c.Check(context.Background()))
	first := c.Stats().Explored
	assert.Equal(t, checker.Violated, c.Check(context.Background()))
	assert.Equal(t, first, c.Stats().Explored)
}

func TestTarjan_Components(t *testing.T) {
	n := chain()
	c, err := checker.New(checker.Problem{Net: n, Automaton: infinitelyOften(t, n, "p0 >= 1")}, checker.Options{
		Algorithm: checker.AlgorithmTarjan,
		Strategy:  heuristic.StrategyDFS,
	})
	require.NoError(t, err)
	require.Equal(t, checker.Satisfied, c.Check(context.Background()))
	tarjan := c.(*checker.Tarjan)
	assert.Equal(t, int(c.Stats().Explored), tarjan.Components(), "every state of a chain is its own component")
}

type recorder struct {
	verdicts []checker.Verdict
}

func (r *recorder) Observe(_ checker.Algorithm, v checker.Verdict, _ checker.Stats) {
	r.verdicts = append(r.verdicts, v)
}

func TestCheck_Observer(t *testing.T) {
	n := ring()
	r := &recorder{}
	c, err := checker.New(checker.Problem{Net: n, Automaton: eventuallyAlways(t, n, "p2 >= 1")}, checker.Options{
		Algorithm: checker.AlgorithmTarjan,
		Observer:  r,
	})
	require.NoError(t, err)
	c.Check(context.Background())
	assert.Equal(t, []checker.Verdict{checker.Satisfied}, r.verdicts)
}

func TestNew_NoAlgorithm(t *testing.T) {
	n := ring()
	assert.Panics(t, func() {
		_, _ = checker.New(checker.Problem{Net: n, Automaton: eventually(t, n, "p2 >= 1")}, checker.Options{})
	})
}

func TestParseAlgorithm(t *testing.T) {
	a, err := checker.ParseAlgorithm("NDFS")
	require.NoError(t, err)
	assert.Equal(t, checker.AlgorithmNestedDFS, a)
	_, err = checker.ParseAlgorithm("none")
	assert.ErrorIs(t, err, checker.ErrUnknownAlgorithm)
}
