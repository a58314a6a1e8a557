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
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/m4tools/m4tools/m4tools/bestn"
	"github.com/m4tools/m4tools/m4tools/m4"
	"github.com/m4tools/m4tools/m4tools/pre"
	"github.com/m4tools/m4tools/m4tools/seqs"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var toPreCmd = &cobra.Command{
	Use:   "2pre",
	Short: "Select, rescore and convert alignments of a chunk to pre-alignments",
	Long: `Select, rescore and convert alignments of a chunk to pre-alignments

Positional arguments:
  1. m4 file of the local chunk.
  2. File of m4 file names of all chunks, which must list the local chunk.
     Use the local m4 file if alignments are not chunked.
  3. FASTA/Q file of reads.
  4. Number of best alignments kept for a query across all chunks.

Steps:
  1. Rating every alignment with -score + aligned target length.
  2. For chunked alignments, scanning all other chunks to find the
     best-N ratings of queries in the local chunk, and discarding local
     alignments outside the best N.
  3. Rescoring alignments with target coverage, in the order of
     target and score. Alignments covering already covered regions
     get weaker scores.
  4. Keeping the best (--limit - 1) alignments for each target.
  5. Extracting the aligned query and target subsequences.

Output format (space-delimited):
  qid tid strand tlen tstart tend qseq tseq

Attention:
  1. Read IDs have a chunk-specific prefix (--prefix-len), which is
     removed for matching the same read across chunks.
  2. Alignments with target sequences absent in reads are skipped
     with a warning.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

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

		// ---------------------------------------------------------------
		// args and flags

		if len(args) != 4 {
			checkError(fmt.Errorf("four positional arguments needed: <m4 file> <m4 fofn> <reads> <bestn>"))
		}
		localFile, manifestFile, readsFile := args[0], args[1], args[2]
		bestN, err := strconv.Atoi(args[3])
		if err != nil || bestN <= 0 {
			checkError(fmt.Errorf("the value of bestn should be a positive integer: %s", args[3]))
		}
		checkFiles(localFile, manifestFile, readsFile)

		limit := getFlagPositiveInt(cmd, "limit")
		prefixLen := getFlagNonNegativeInt(cmd, "prefix-len")
		outFile := getFlagString(cmd, "out-file")
		statsFile := getFlagString(cmd, "stats-file")
		bufferSize := getFlagBufferSize(cmd, "buffer-size")

		sopt := &m4.SelectOptions{
			BestN:      bestN,
			Limit:      limit,
			PrefixLen:  prefixLen,
			BufferSize: bufferSize,
			Chunked:    isChunked(localFile, manifestFile),
		}

		if sopt.Chunked {
			sopt.Siblings, err = readManifest(manifestFile, localFile)
			checkError(err)
			checkFiles(sopt.Siblings...)

			if opt.Verbose || opt.Log2File {
				log.Infof("%d sibling chunk(s) listed in %s", len(sopt.Siblings), manifestFile)
			}
		}

		// ---------------------------------------------------------------
		// select alignments

		sel, err := selectAlignments(localFile, sopt, opt.Verbose)
		checkError(err)

		if opt.Verbose || opt.Log2File {
			log.Infof("%s alignments of %s queries loaded from %s",
				humanize.Comma(int64(sel.Stats.LocalRecords)), humanize.Comma(int64(sel.Stats.Queries)), localFile)
			if sopt.Chunked {
				log.Infof("%s of %s alignments in sibling chunks consulted for best-%d",
					humanize.Comma(int64(sel.Stats.ConsultedRecords)), humanize.Comma(int64(sel.Stats.SiblingRecords)), bestN)
			}
			log.Infof("%s alignments left after best-N filtering", humanize.Comma(int64(sel.Stats.AfterBestN)))
			log.Infof("%s alignments left after limiting %d per target", humanize.Comma(int64(sel.Stats.AfterLimit)), limit-1)
		}

		// ---------------------------------------------------------------
		// load only related reads

		reads, err := loadReads(readsFile, sel.Tracker, prefixLen)
		checkError(err)
		sel.Tracker = nil

		if opt.Verbose || opt.Log2File {
			log.Infof("%s reads loaded from %s", humanize.Comma(int64(len(reads))), readsFile)
		}

		// ---------------------------------------------------------------
		// output

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)

		sel.Stats.Written, sel.Stats.SkippedNoTarget, err = writePres(outfh, sel.Records, reads)
		checkError(err)
		checkError(closeOutStream(outfh, gw, w))

		if opt.Verbose || opt.Log2File {
			log.Infof("%s pre-alignments written to %s", humanize.Comma(int64(sel.Stats.Written)), outFile)
		}

		if statsFile != "" {
			checkError(writeStats(statsFile, &sel.Stats))
		}
	},
}

// isChunked tells whether alignments are split into chunks, i.e.,
// the manifest is not the local m4 file itself.
func isChunked(local, manifest string) bool {
	return filepath.Clean(local) != filepath.Clean(manifest)
}

// selectAlignments runs m4.Select, showing the progress of scanning
// sibling chunks if verbose.
func selectAlignments(local string, sopt *m4.SelectOptions, verbose bool) (*m4.Selection, error) {
	if !verbose || len(sopt.Siblings) == 0 {
		return m4.Select(local, sopt)
	}

	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(len(sopt.Siblings)),
		mpb.PrependDecorators(
			decor.Name("scanned chunks: ", decor.WC{W: len("scanned chunks: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)

	onSibling := sopt.OnSibling
	t := time.Now()
	sopt.OnSibling = func(file string, records int, consulted int) {
		bar.EwmaIncrBy(1, time.Since(t))
		t = time.Now()
		if onSibling != nil {
			onSibling(file, records, consulted)
		}
	}

	sel, err := m4.Select(local, sopt)
	if err != nil {
		// the bar would never complete
		bar.Abort(false)
	}
	pbs.Wait()
	return sel, err
}

// loadReads loads reads of queries in the local chunk. Reads are matched
// by their query keys, so the same read from other chunks is also loaded.
func loadReads(file string, tracker *bestn.Tracker, prefixLen int) (map[string][]byte, error) {
	return seqs.Load(file, func(id string) bool {
		return tracker.Has(m4.QueryKey(id, prefixLen))
	})
}

// writePres writes pre-alignments of records. Records with missing target
// sequences are skipped with a warning.
func writePres(outfh *bufio.Writer, recs []*m4.Record, reads map[string][]byte) (int, int, error) {
	var written, skipped int
	for _, r := range recs {
		a, err := pre.Extract(r, reads)
		if err != nil {
			if errors.Is(err, pre.ErrMissingTarget) {
				log.Warningf("skipping query %s target %s", r.QName, r.TName)
				skipped++
				continue
			}
			return written, skipped, err
		}

		if _, err = outfh.Write(a.Format()); err != nil {
			return written, skipped, err
		}
		if err = outfh.WriteByte('\n'); err != nil {
			return written, skipped, err
		}
		written++
	}
	return written, skipped, nil
}

func writeStats(file string, stats *m4.Stats) error {
	data, err := toml.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "marshal stats")
	}
	return errors.Wrapf(os.WriteFile(file, data, 0644), "write stats file: %s", file)
}

func init() {
	RootCmd.AddCommand(toPreCmd)

	toPreCmd.Flags().IntP("limit", "l", m4.DefaultLimit,
		formatFlagUsage(`Limit of alignments per target. Only the best (limit - 1) alignments of a target are kept.`))

	toPreCmd.Flags().IntP("prefix-len", "p", m4.DefaultPrefixLen,
		formatFlagUsage(`Length of the chunk-specific prefix of read IDs, removed for matching reads across chunks.`))

	toPreCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	toPreCmd.Flags().StringP("stats-file", "s", "",
		formatFlagUsage(`Write a summary of the run to a TOML file.`))

	toPreCmd.Flags().StringP("buffer-size", "b", "20M",
		formatFlagUsage(`Size of buffer, supported unit: K, M, G. You need increase the value when "bufio.Scanner: token too long" error reported`))

	toPreCmd.SetUsageTemplate(usageTemplate("<m4 file> <m4 fofn> <reads> <bestn>"))
}
