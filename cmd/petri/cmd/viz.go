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
	"os"
	"path/filepath"

	"github.com/jt05610/petri/graphviz"
	"github.com/spf13/cobra"
)

var vizFormat string

// create opens dir/name for writing, creating dir as needed.
func create(dir, name string) (*os.File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(dir, name))
}

func writer(name, format string) *graphviz.Writer {
	return graphviz.New(&graphviz.Config{
		Name:    name,
		Font:    graphviz.Helvetica,
		RankDir: graphviz.LeftToRight,
		Format:  graphviz.Format(format),
	})
}

func viz(out io.Writer, path string) (string, error) {
	m, err := loadModel(inputFile)
	if err != nil {
		return "", err
	}
	df, err := create(path, m.Net.Name+"."+vizFormat)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = df.Close()
	}()
	fmt.Fprintf(out, "writing figure for %s to %s...", inputFile, df.Name())
	if err := writer(m.Net.Name, vizFormat).Flush(df, m.Net); err != nil {
		return "", err
	}
	fmt.Fprintln(out, "done")
	return df.Name(), nil
}

// vizCmd represents the viz command
var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Create a graphviz figure from a petri net",
	Long:  `Create a graphviz figure from a petri net with its initial marking. The input file must be a petri file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := viz(cmd.OutOrStdout(), outputDir)
		return err
	},
}

func init() {
	rootCmd.AddCommand(vizCmd)
	vizCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	vizCmd.Flags().StringVarP(&vizFormat, "format", "f", "svg", "output format")
}
