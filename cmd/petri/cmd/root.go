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
	"context"
	"fmt"
	"os"

	"github.com/jt05610/petri/builder"
	"github.com/jt05610/petri/env"
	"github.com/jt05610/petri/petrifile"
	"github.com/jt05610/petri/petrifile/v1/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	inputFile string
	outputDir string
	verbose   bool
	envFile   string
	search    []string

	logger      = zap.NewNop()
	environment = env.Default()
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "petri",
	Short: "petri checks LTL properties of Petri nets",
	Long: `petri checks LTL and HyperLTL properties of Petri nets on the fly. Models are petri files that
declare a net, named propositions and queries with the automata of their negations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
		}
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		e, err := env.LoadEnv(logger, files...)
		if err != nil {
			return err
		}
		environment = e
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// loadModel finds the petri file named by path, or by path without extension in the search dirs.
func loadModel(path string) (*petrifile.Model, error) {
	if path == "" {
		return nil, fmt.Errorf("no input file, use -i")
	}
	srv := &yaml.Service{}
	b := builder.NewBuilder(append([]string{"."}, search...)...).
		WithService("yaml", srv).
		WithService("yml", srv)
	return b.Build(context.Background(), path)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input petri file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log the progress of every check")
	rootCmd.PersistentFlags().StringSliceVar(&search, "search", nil, "directories searched for input files")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "environment file with PETRI_ defaults (default .env)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
