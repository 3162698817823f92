package graphviz

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/jt05610/petri"
	"github.com/jt05610/petri/buchi"
)

var _ petri.Flusher[*petri.Net] = (*Writer)(nil)

// Writer renders nets and automata. Places are circles labelled with their name and carry their tokens
// as an xlabel, weights above one label arcs, and inhibitor arcs end in a circle.
type Writer struct {
	*Config
	g       *cgraph.Graph
	mapping map[petri.Node]*cgraph.Node
}

func (w *Writer) writePlace(i int, p *petri.Place, tokens uint32) error {
	name := fmt.Sprintf("p%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	node.SetShape(cgraph.CircleShape)
	node.SetLabel(p.Name)
	node.SafeSet("fontname", string(w.Font), "")
	if tokens > 0 {
		node.SetXLabel(strconv.FormatUint(uint64(tokens), 10))
	}
	w.mapping[p] = node
	return nil
}

func (w *Writer) writeTransition(i int, t *petri.Transition) error {
	name := fmt.Sprintf("t%d", i)
	node, err := w.g.CreateNode(name)
	if err != nil {
		return err
	}
	w.mapping[t] = node
	node.SetShape(cgraph.BoxShape)
	node.SetLabel(t.Name)
	node.SafeSet("fontname", string(w.Font), "")
	return nil
}

func (w *Writer) writeArc(i int, a *petri.Arc) error {
	src := w.mapping[a.Src]
	dst := w.mapping[a.Dest]
	name := fmt.Sprintf("a%d", i)
	e, err := w.g.CreateEdge(name, src, dst)
	if err != nil {
		return err
	}
	if a.Weight > 1 {
		e.SetLabel(strconv.FormatUint(uint64(a.Weight), 10))
	}
	if a.Inhibitor {
		e.SetArrowHead(cgraph.ODotArrow)
	}
	return nil
}

func (w *Writer) render(out io.Writer, draw func() error) error {
	graph := graphviz.New()
	defer func() {
		_ = graph.Close()
	}()
	g, err := graph.Graph()
	if err != nil {
		return err
	}
	defer func() {
		_ = g.Close()
	}()
	g.SetRankDir(cgraph.RankDir(w.RankDir))
	w.g = g
	clear(w.mapping)
	if err := draw(); err != nil {
		return err
	}
	return graph.Render(w.g, w.Format, out)
}

// Flush renders the net with its initial marking.
func (w *Writer) Flush(out io.Writer, n *petri.Net) error {
	if err := n.Compile(); err != nil {
		return err
	}
	return w.WriteMarking(out, n, n.InitialMarking())
}

// WriteMarking renders the net with the tokens of m.
func (w *Writer) WriteMarking(out io.Writer, n *petri.Net, m petri.Marking) error {
	return w.render(out, func() error {
		for i, p := range n.Places {
			var tokens uint32
			if i < len(m) {
				tokens = m[i]
			}
			if err := w.writePlace(i, p, tokens); err != nil {
				return err
			}
		}
		for i, t := range n.Transitions {
			if err := w.writeTransition(i, t); err != nil {
				return err
			}
		}
		for i, a := range n.Arcs {
			if err := w.writeArc(i, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteAutomaton renders the states of a, accepting ones doubly circled, with guards as edge labels. A
// point marks the initial state.
func (w *Writer) WriteAutomaton(out io.Writer, a *buchi.Automaton) error {
	return w.render(out, func() error {
		states := make([]*cgraph.Node, a.Len())
		for s := range states {
			node, err := w.g.CreateNode(fmt.Sprintf("q%d", s))
			if err != nil {
				return err
			}
			node.SetShape(cgraph.CircleShape)
			if a.IsAccepting(uint32(s)) {
				node.SetShape(cgraph.DoubleCircleShape)
			}
			node.SetLabel(strconv.Itoa(s))
			node.SafeSet("fontname", string(w.Font), "")
			states[s] = node
		}
		start, err := w.g.CreateNode("start")
		if err != nil {
			return err
		}
		start.SetShape(cgraph.PointShape)
		if _, err := w.g.CreateEdge("init", start, states[a.Initial]); err != nil {
			return err
		}
		for s := range states {
			for i, e := range a.Edges(uint32(s)) {
				edge, err := w.g.CreateEdge(fmt.Sprintf("e%d_%d", s, i), states[s], states[e.Dest])
				if err != nil {
					return err
				}
				edge.SetLabel(a.GuardString(e.Guard))
			}
		}
		return nil
	})
}

type Font string

func (f Font) Or(other Font) Font {
	return f + "," + other
}

const (
	Helvetica  Font = "Helvetica"
	Arial      Font = "Arial"
	Roboto     Font = "Roboto"
	Montserrat Font = "Montserrat"
	SansSerif  Font = "sans-serif"
	Serif      Font = "Serif"
	Times      Font = "Times"
)

type RankDir string

const (
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
)

// Format is an output format of the renderer.
type Format = graphviz.Format

const (
	DOT Format = graphviz.XDOT
	SVG Format = graphviz.SVG
	PNG Format = graphviz.PNG
)

type Config struct {
	Name string
	Font
	RankDir
	Format
}

func New(config *Config) *Writer {
	if config.Name == "" {
		config.Name = "petri"
	}
	if config.Format == "" {
		config.Format = DOT
	}
	return &Writer{
		Config:  config,
		mapping: make(map[petri.Node]*cgraph.Node),
	}
}
