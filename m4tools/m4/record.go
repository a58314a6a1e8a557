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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NumFields is the number of columns of a full m4 record:
//
//	qname tname score pctsimilarity qstrand qstart qend qseqlength
//	tstrand tstart tend tseqlength mapqv
const NumFields = 13

// column indexes of a full m4 record
const (
	colQName = iota
	colTName
	colScore
	colPctSimilarity
	colQStrand
	colQStart
	colQEnd
	colQSeqLength
	colTStrand
	colTStart
	colTEnd
	colTSeqLength
	colMapQV
)

// DefaultPrefixLen is the length of the chunk-specific prefix of read
// identifiers. The same read shows up in different chunks with different
// prefixes, so they are stripped before grouping reads across chunks.
const DefaultPrefixLen = 32

// ErrMalformedRecord means a line has too few columns or an unparsable number.
var ErrMalformedRecord = errors.New("m4: malformed record")

// Record is the part of an m4 record needed for selecting alignments.
// Coordinates are 0-based and half-open; TStart and TEnd are
// in the frame of the target strand.
type Record struct {
	QName string
	TName string

	// Score is the alignment score, the lower the better.
	// It is overwritten by Rescore.
	Score float64

	QStart int
	QEnd   int

	TReverse bool
	TStart   int
	TEnd     int
	TLen     int
}

// Rating ranks alignments of the same query for best-N selection,
// favouring strong and long alignments.
func (r *Record) Rating() float64 {
	return -r.Score + float64(r.TEnd-r.TStart)
}

// Strand returns "+" or "-" for the target strand.
func (r *Record) Strand() string {
	if r.TReverse {
		return "-"
	}
	return "+"
}

// ForwardInterval returns the covered target interval in the
// coordinates of the forward strand.
func (r *Record) ForwardInterval() (int, int) {
	if r.TReverse {
		return r.TLen - r.TEnd, r.TLen - r.TStart
	}
	return r.TStart, r.TEnd
}

// QueryKey strips the chunk prefix of a read identifier.
// Identifiers not longer than the prefix have an empty key.
func QueryKey(id string, prefixLen int) string {
	if len(id) <= prefixLen {
		return ""
	}
	return id[prefixLen:]
}

// Fields splits a line by white spaces and checks the column number.
func Fields(line string) ([]string, error) {
	items := strings.Fields(line)
	if len(items) < NumFields {
		return nil, errors.Wrapf(ErrMalformedRecord, "%d columns (<%d): %q", len(items), NumFields, line)
	}
	return items, nil
}

// Parse parses one m4 line.
func Parse(line string) (*Record, error) {
	items, err := Fields(line)
	if err != nil {
		return nil, err
	}
	return fromFields(items)
}

func fromFields(items []string) (*Record, error) {
	var err error
	r := &Record{
		QName: items[colQName],
		TName: items[colTName],
	}

	r.Score, err = strconv.ParseFloat(items[colScore], 64)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "score: %s", items[colScore])
	}

	ints := []struct {
		p   *int
		col int
	}{
		{&r.QStart, colQStart},
		{&r.QEnd, colQEnd},
		{&r.TStart, colTStart},
		{&r.TEnd, colTEnd},
		{&r.TLen, colTSeqLength},
	}
	for _, v := range ints {
		*v.p, err = strconv.Atoi(items[v.col])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedRecord, "column %d: %s", v.col+1, items[v.col])
		}
	}

	switch items[colTStrand] {
	case "0":
	case "1":
		r.TReverse = true
	default:
		return nil, errors.Wrapf(ErrMalformedRecord, "target strand: %s", items[colTStrand])
	}

	return r, nil
}

// String formats the record with the columns kept by Record,
// in the order of qname tname score qstart qend tstrand tstart tend tseqlength.
func (r *Record) String() string {
	var strand byte = '0'
	if r.TReverse {
		strand = '1'
	}
	var b strings.Builder
	b.WriteString(r.QName)
	b.WriteByte(' ')
	b.WriteString(r.TName)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(r.Score, 'g', -1, 64))
	for _, v := range []int{r.QStart, r.QEnd} {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(' ')
	b.WriteByte(strand)
	for _, v := range []int{r.TStart, r.TEnd, r.TLen} {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
