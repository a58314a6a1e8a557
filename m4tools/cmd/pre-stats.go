// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/m4tools/m4tools/m4tools/pre"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var preStatsCmd = &cobra.Command{
	Use:   "pre-stats",
	Short: "Summarize pre-alignment files",
	Long: `Summarize pre-alignment files

Columns:
  file      input file
  records   number of pre-alignments
  queries   number of distinct queries
  targets   number of distinct targets
  forward   pre-alignments on the positive strand of targets
  reverse   pre-alignments on the negative strand of targets

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out-file")
		bufferSize := getFlagBufferSize(cmd, "buffer-size")

		files := args
		if len(files) == 0 {
			files = []string{"-"}
		}
		checkFiles(files...)

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		_, err = outfh.WriteString("file\trecords\tqueries\ttargets\tforward\treverse\n")
		checkError(err)
		for _, file := range files {
			s, err := statPres(file, bufferSize)
			checkError(err)
			_, err = fmt.Fprintf(outfh, "%s\t%d\t%d\t%d\t%d\t%d\n",
				file, s.Records, s.Queries, s.Targets, s.Forward, s.Reverse)
			checkError(err)
		}
		checkError(closeOutStream(outfh, gw, w))
	},
}

type preStats struct {
	Records int
	Queries int
	Targets int
	Forward int
	Reverse int
}

func statPres(file string, bufferSize int) (*preStats, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read pre file: %s", file)
	}
	defer fh.Close()

	queries := make(map[string]struct{}, 1024)
	targets := make(map[string]struct{}, 1024)
	s := &preStats{}

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 64<<10), bufferSize)
	var line string
	var n int
	var a *pre.Alignment
	for scanner.Scan() {
		n++
		line = strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		a, err = pre.Parse(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: line %d", file, n)
		}

		s.Records++
		queries[a.QName] = struct{}{}
		targets[a.TName] = struct{}{}
		if a.Strand == '-' {
			s.Reverse++
		} else {
			s.Forward++
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read pre file: %s", file)
	}

	s.Queries = len(queries)
	s.Targets = len(targets)
	return s, nil
}

func init() {
	RootCmd.AddCommand(preStatsCmd)

	preStatsCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	preStatsCmd.Flags().StringP("buffer-size", "b", "20M",
		formatFlagUsage(`Size of buffer, supported unit: K, M, G. You need increase the value when "bufio.Scanner: token too long" error reported`))

	preStatsCmd.SetUsageTemplate(usageTemplate("[<pre file> ...]"))
}
