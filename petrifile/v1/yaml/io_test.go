package yaml_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jt05610/petri/examples"
	pf "github.com/jt05610/petri/petrifile"
	"github.com/jt05610/petri/petrifile/v1"
	"github.com/jt05610/petri/petrifile/v1/yaml"
	"github.com/jt05610/petri/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counter = `petri: v1
name: counter
places: {p: 1, q: 0}
transitions:
  inc: {in: {p: 1}, out: {p: 1, q: 2}, inhibit: {q: 6}}
propositions: {full: "q >= 6"}
queries:
  - name: fills
    formula: "A(F(full))"
    automaton:
      initial: 0
      accepting: [0]
      edges:
        - {from: 0, to: 0, guard: "!full"}
`

func TestService_Load(t *testing.T) {
	srv := &yaml.Service{}
	m, err := srv.Load(context.Background(), strings.NewReader(counter))
	require.NoError(t, err)
	n := m.Net
	assert.Equal(t, "counter", n.Name)
	require.Len(t, n.Places, 2)
	assert.Equal(t, "p", n.Places[0].Name)
	assert.Equal(t, uint32(1), n.Places[0].Initial)
	require.Len(t, n.Transitions, 1)
	assert.Len(t, n.Arcs, 4)
	assert.Len(t, n.Inhibitors(0), 1)
	assert.Equal(t, map[string]string{"full": "q >= 6"}, m.Propositions)

	q, err := m.Query("fills")
	require.NoError(t, err)
	assert.Equal(t, "A(F(full))", q.Source)
	require.NotNil(t, q.Automaton)
	assert.Equal(t, 1, q.Automaton.Len())
	assert.True(t, q.Automaton.IsAccepting(0))
	assert.Equal(t, "!(q >= 6)", q.Automaton.GuardString(q.Automaton.Edges(0)[0].Guard))

	a, err := q.Provider().Automaton(q.Formula)
	require.NoError(t, err)
	assert.Same(t, q.Automaton, a)

	_, err = m.Query("missing")
	assert.ErrorIs(t, err, pf.ErrUnknownQuery)
}

func TestService_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{
			name: "version",
			src:  "petri: v2\nname: x\nplaces: {p: 1}\n",
			err:  pf.ErrUnsupportedVersion,
		},
		{
			name: "unknown place",
			src:  "petri: v1\nname: x\nplaces: {p: 1}\ntransitions:\n  t: {in: {r: 1}}\n",
			err:  petrifile.ErrUnknownPlace,
		},
		{
			name: "places not a mapping",
			src:  "petri: v1\nname: x\nplaces: [p]\n",
			err:  petrifile.ErrNotMapping,
		},
		{
			name: "unknown identifier in guard",
			src: `petri: v1
name: x
places: {p: 1}
queries:
  - name: q
    formula: "A(G(p >= 1))"
    automaton: {initial: 0, accepting: [0], edges: [{from: 0, to: 0, guard: "r >= 1"}]}
`,
			err: query.ErrUnknownIdentifier,
		},
	}
	srv := &yaml.Service{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.Load(context.Background(), strings.NewReader(tt.src))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestService_Hyper(t *testing.T) {
	src := `petri: v1
name: ring
places: {p1: 1, p2: 0}
transitions:
  a: {in: {p1: 1}, out: {p2: 1}}
  b: {in: {p2: 1}, out: {p1: 1}}
queries:
  - name: lockstep
    formula: "A(pi1, pi2, G(pi1.p1 == pi2.p1))"
    automaton:
      initial: 0
      accepting: [1]
      edges:
        - {from: 0, to: 0, guard: "true"}
        - {from: 0, to: 1, guard: "pi1.p1 != pi2.p1"}
        - {from: 1, to: 1, guard: "true"}
`
	srv := &yaml.Service{}
	m, err := srv.Load(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"pi1", "pi2"}, m.Queries[0].Traces)
	assert.Len(t, m.Queries[0].Automaton.Props, 1)
}

func TestService_SaveRoundTrip(t *testing.T) {
	srv := &yaml.Service{}
	for _, name := range examples.Models() {
		t.Run(name, func(t *testing.T) {
			m, err := examples.Model(name)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, srv.Save(context.Background(), &buf, m))

			back, err := srv.Load(context.Background(), &buf)
			require.NoError(t, err, buf.String())
			assert.Equal(t, m.Net.Name, back.Net.Name)
			assert.Equal(t, m.Net.InitialMarking(), back.Net.InitialMarking())
			for i := range m.Net.Transitions {
				tr := uint32(i)
				assert.Equal(t, m.Net.TransitionName(tr), back.Net.TransitionName(tr))
				assert.ElementsMatch(t, m.Net.Preset(tr), back.Net.Preset(tr))
				assert.ElementsMatch(t, m.Net.Postset(tr), back.Net.Postset(tr))
				assert.ElementsMatch(t, m.Net.Inhibitors(tr), back.Net.Inhibitors(tr))
			}
			assert.Equal(t, m.Propositions, back.Propositions)
			require.Len(t, back.Queries, len(m.Queries))
			for i, q := range m.Queries {
				assert.Equal(t, q.Source, back.Queries[i].Source)
				assert.Equal(t, q.Automaton.Len(), back.Queries[i].Automaton.Len())
				var want, got bytes.Buffer
				require.NoError(t, q.Automaton.WriteHOA(&want))
				require.NoError(t, back.Queries[i].Automaton.WriteHOA(&got))
				assert.Equal(t, want.String(), got.String())
			}
		})
	}
}

func TestService_Version(t *testing.T) {
	assert.Equal(t, pf.V1, (&yaml.Service{}).Version())
}
