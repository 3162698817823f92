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
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	queryName       string
	automatonFormat string
)

// hoa is the format that prints an automaton as text.
const hoa = "hoa"

func automaton(out io.Writer, dir string) (string, error) {
	m, err := loadModel(inputFile)
	if err != nil {
		return "", err
	}
	q, err := m.Query(queryName)
	if err != nil {
		return "", err
	}
	if q.Automaton == nil {
		return "", fmt.Errorf("query %s has no automaton", q.Name)
	}
	if automatonFormat == hoa && dir == "" {
		return "", q.Automaton.WriteHOA(out)
	}
	df, err := create(dir, q.Name+"."+automatonFormat)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = df.Close()
	}()
	if automatonFormat == hoa {
		return df.Name(), q.Automaton.WriteHOA(df)
	}
	return df.Name(), writer(q.Name, automatonFormat).WriteAutomaton(df, q.Automaton)
}

// automatonCmd represents the automaton command
var automatonCmd = &cobra.Command{
	Use:   "automaton",
	Short: "Render the automaton of a query",
	Long: `Render the automaton of a query of a petri file. The hoa format prints the automaton as text,
to the terminal when no output directory is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := automaton(cmd.OutOrStdout(), outputDir)
		if err == nil && path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(automatonCmd)
	automatonCmd.Flags().StringVarP(&queryName, "query", "q", "", "query name")
	automatonCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	automatonCmd.Flags().StringVarP(&automatonFormat, "format", "f", "dot", "output format: dot, svg, png or hoa")
	_ = automatonCmd.MarkFlagRequired("query")
}
