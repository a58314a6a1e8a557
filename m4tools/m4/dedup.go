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

package m4

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Counter tallies input and output records of the Collapser.
type Counter struct {
	Original int
	Filtered int
}

func (c Counter) String() string {
	return fmt.Sprintf("Record count: original=%d, filtered=%d", c.Original, c.Filtered)
}

type dedupEntry struct {
	line  string
	score int64
}

// Collapser keeps, for each run of consecutive records of the same query,
// one record per target: the one with the lowest score. For equal scores
// the later record wins.
//
// Records of a query must be contiguous. A query appearing again in a later,
// non-adjacent run starts a new group, and pairs are not deduplicated across
// the two runs.
type Collapser struct {
	w io.Writer

	query string
	group []dedupEntry
	index map[string]int // target -> index in group

	count Counter
}

// NewCollapser returns a Collapser writing kept lines to w.
func NewCollapser(w io.Writer) *Collapser {
	return &Collapser{
		w:     w,
		group: make([]dedupEntry, 0, 64),
		index: make(map[string]int, 64),
	}
}

// Add consumes one m4 line.
func (c *Collapser) Add(line string) error {
	items, err := Fields(line)
	if err != nil {
		return err
	}
	score, err := strconv.ParseInt(items[colScore], 10, 64)
	if err != nil {
		return errors.Wrapf(ErrMalformedRecord, "score: %s", items[colScore])
	}

	c.count.Original++

	if items[colQName] != c.query {
		if err = c.Flush(); err != nil {
			return err
		}
		c.query = items[colQName]
	}

	target := items[colTName]
	if i, ok := c.index[target]; ok {
		if score <= c.group[i].score {
			c.group[i] = dedupEntry{line: line, score: score}
		}
		return nil
	}
	c.index[target] = len(c.group)
	c.group = append(c.group, dedupEntry{line: line, score: score})
	return nil
}

// Flush writes the kept records of the current group.
// It must be called after the last line.
func (c *Collapser) Flush() error {
	var err error
	for _, e := range c.group {
		if _, err = io.WriteString(c.w, e.line); err != nil {
			return err
		}
		if _, err = io.WriteString(c.w, "\n"); err != nil {
			return err
		}
		c.count.Filtered++
	}
	c.group = c.group[:0]
	clear(c.index)
	return nil
}

// Count returns the record counts so far.
func (c *Collapser) Count() Counter {
	return c.count
}
