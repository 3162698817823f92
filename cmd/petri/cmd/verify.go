/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/


package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jt05610/petri/checker"
	"github.com/jt05610/petri/env"
	"github.com/jt05610/petri/heuristic"
	"github.com/jt05610/petri/ltl"
	"github.com/jt05610/petri/metrics"
	"github.com/jt05610/petri/petrifile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// verifyConfig is what the verify flags resolve to.
type verifyConfig struct {
	queries  []string
	opts     checker.Options
	timeout  time.Duration
	parallel int
	metrics  string
}

type verifyFlags struct {
	queries      []string
	algorithm    string
	strategy     string
	heuristic    string
	partialOrder bool
	kBound       int
	weak         bool
	trace        bool
	seed         int64
	maxSteps     int
	timeout      time.Duration
	parallel     int
	metrics      string
}

var vf verifyFlags

// resolve fills the flags the user left unset from the environment and parses them.
func (f verifyFlags) resolve(cmd *cobra.Command, e *env.Environment) (verifyConfig, error) {
	flags := cmd.Flags()
	if !flags.Changed("algorithm") {
		f.algorithm = e.Algorithm
	}
	if !flags.Changed("strategy") {
		f.strategy = e.Strategy
	}
	if !flags.Changed("heuristic") {
		f.heuristic = e.Heuristic
	}
	if !flags.Changed("partial-order") {
		f.partialOrder = e.PartialOrder
	}
	if !flags.Changed("k-bound") {
		f.kBound = e.KBound
	}
	if !flags.Changed("seed") {
		f.seed = e.Seed
	}
	if !flags.Changed("timeout") {
		f.timeout = e.Timeout
	}
	if !flags.Changed("parallel") {
		f.parallel = e.Parallel
	}
	alg, err := checker.ParseAlgorithm(f.algorithm)
	if err != nil {
		return verifyConfig{}, err
	}
	strategy, err := heuristic.ParseStrategy(f.strategy)
	if err != nil {
		return verifyConfig{}, err
	}
	typ, err := heuristic.ParseType(f.heuristic)
	if err != nil {
		return verifyConfig{}, err
	}
	return verifyConfig{
		queries: f.queries,
		opts: checker.Options{
			KBound:       f.kBound,
			Algorithm:    alg,
			PartialOrder: f.partialOrder,
			Strategy:     strategy,
			Heuristic:    typ,
			UtilizeWeak:  f.weak,
			Trace:        f.trace,
			Seed:         f.seed,
			MaxSteps:     f.maxSteps,
		},
		timeout:  f.timeout,
		parallel: max(f.parallel, 1),
		metrics:  f.metrics,
	}, nil
}

// verify checks the selected queries of m, up to cfg.parallel at a time, and writes one report per
// query in file order.
func verify(ctx context.Context, out io.Writer, m *petrifile.Model, cfg verifyConfig, log *zap.Logger) error {
	queries := m.Queries
	if len(cfg.queries) > 0 {
		queries = queries[:0:0]
		for _, name := range cfg.queries {
			q, err := m.Query(name)
			if err != nil {
				return err
			}
			queries = append(queries, q)
		}
	}
	var reg *prometheus.Registry
	if cfg.metrics != "" {
		reg = prometheus.NewRegistry()
		cfg.opts.Observer = metrics.New(reg)
	}
	reports := make([]bytes.Buffer, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallel)
	for i, q := range queries {
		g.Go(func() error {
			opts := cfg.opts
			opts.Logger = log.With(zap.String("query", q.Name))
			return check(ctx, &reports[i], m, q, opts, cfg.timeout)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range reports {
		if _, err := reports[i].WriteTo(out); err != nil {
			return err
		}
	}
	if reg != nil {
		return metrics.WriteToTextfile(cfg.metrics, reg)
	}
	return nil
}

func check(ctx context.Context, w io.Writer, m *petrifile.Model, q *petrifile.Query, opts checker.Options, timeout time.Duration) error {
	s, err := ltl.New(m.Net, q.Formula, q.Provider())
	if err != nil {
		return fmt.Errorf("query %s: %w", q.Name, err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	res, err := s.Solve(ctx, opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.Name, err)
	}
	st := s.Stats()
	fmt.Fprintf(w, "%s: %s\n", q.Name, res)
	fmt.Fprintf(w, "  explored %d, expanded %d, max depth %d, %s\n", st.Explored, st.Expanded, st.MaxDepth, st.Elapsed.Round(time.Microsecond))
	if opts.Trace {
		return s.WriteTrace(w)
	}
	return nil
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the queries of a petri file",
	Long: `Check the queries of a petri file. Every query is answered true, false, or unknown when the
depth bound or the timeout cut the search short. Flags left unset take their value from PETRI_
environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := vf.resolve(cmd, environment)
		if err != nil {
			return err
		}
		m, err := loadModel(inputFile)
		if err != nil {
			return err
		}
		return verify(cmd.Context(), cmd.OutOrStdout(), m, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	flags := verifyCmd.Flags()
	flags.StringSliceVarP(&vf.queries, "query", "q", nil, "queries to check (default all)")
	flags.StringVar(&vf.algorithm, "algorithm", "tarjan", "emptiness check: tarjan or ndfs")
	flags.StringVar(&vf.strategy, "strategy", "default", "search strategy: default, dfs, rdfs, heur, rpfs or mcpfs")
	flags.StringVar(&vf.heuristic, "heuristic", "automaton", "heuristic: automaton, distance, firecount, dfs or rdfs")
	flags.BoolVar(&vf.partialOrder, "partial-order", false, "explore stubborn sets only")
	flags.IntVar(&vf.kBound, "k-bound", 0, "largest number of steps explored, 0 for no bound")
	flags.BoolVar(&vf.weak, "weak", false, "classify components of weak automata by their acceptance")
	flags.BoolVar(&vf.trace, "trace", false, "print the counterexample as xml")
	flags.Int64Var(&vf.seed, "seed", 1, "seed of the random strategies")
	flags.IntVar(&vf.maxSteps, "max-steps", 0, "playout length of the mcpfs strategy")
	flags.DurationVar(&vf.timeout, "timeout", time.Minute, "time limit per query, 0 for none")
	flags.IntVar(&vf.parallel, "parallel", 1, "queries checked at the same time")
	flags.StringVar(&vf.metrics, "metrics", "", "write prometheus metrics of the checks to this file")
}
