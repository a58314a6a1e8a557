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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m4tools/m4tools/m4tools/m4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep the best alignment of every query/target pair",
	Long: `Keep the best alignment of every query/target pair

For every run of consecutive records of the same query, only the record with
the lowest score is kept for each target. It helps get rid of chimeras,
at the cost of some yield.

Attention:
  1. Records of a query should be contiguous, e.g., the output of blasr.
     A query appearing again in a later, non-adjacent run is treated as
     a new group, and pairs are not deduplicated across the runs.
  2. For pairs with the same score, the later record is kept.
  3. Record counts are reported to stderr.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		if len(args) != 1 {
			checkError(fmt.Errorf("one m4 file needed"))
		}
		file := args[0]
		checkFiles(file)

		outFile := getFlagString(cmd, "out-file")
		bufferSize := getFlagBufferSize(cmd, "buffer-size")

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		count, err := collapse(file, outfh, bufferSize)
		fmt.Fprintln(os.Stderr, count)
		checkError(err)
		checkError(closeOutStream(outfh, gw, w))

		if opt.Verbose || opt.Log2File {
			log.Infof("%s of %s records kept", humanize.Comma(int64(count.Filtered)), humanize.Comma(int64(count.Original)))
		}
	},
}

// collapse writes the best record of every query/target pair of an m4 file.
func collapse(file string, w io.Writer, bufferSize int) (m4.Counter, error) {
	r, err := m4.NewReader(file, bufferSize)
	if err != nil {
		return m4.Counter{}, err
	}
	defer r.Close()

	c := m4.NewCollapser(w)
	for r.Scan() {
		if err = c.Add(r.Line()); err != nil {
			return c.Count(), errors.Wrap(err, file)
		}
	}
	if err = r.Err(); err != nil {
		return c.Count(), err
	}
	err = c.Flush()
	return c.Count(), err
}

func init() {
	RootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	filterCmd.Flags().StringP("buffer-size", "b", "20M",
		formatFlagUsage(`Size of buffer, supported unit: K, M, G. You need increase the value when "bufio.Scanner: token too long" error reported`))

	filterCmd.SetUsageTemplate(usageTemplate("<m4 file>"))
}
