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

// Package pre builds and parses pre-alignments, the simplified alignment
// records consumed by the consensus step of pre-assembly.
//
// A pre-alignment is one line of 8 space-separated fields:
//
//	qid tid strand tlen tstart tend qseq tseq
//
// where qseq is the aligned query subsequence and tseq the aligned target
// subsequence on the target strand.
package pre

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NumFields is the number of columns of a pre-alignment.
const NumFields = 8

// ErrMalformedPre means a pre-alignment line can not be parsed.
var ErrMalformedPre = errors.New("pre: malformed pre-alignment")

// Alignment is a pre-alignment.
type Alignment struct {
	QName  string
	TName  string
	Strand byte // '+' or '-'
	TLen   int
	TStart int
	TEnd   int
	QSeq   []byte
	TSeq   []byte
}

// Format formats the pre-alignment as one line, without the line break.
func (a *Alignment) Format() []byte {
	buf := make([]byte, 0, len(a.QName)+len(a.TName)+len(a.QSeq)+len(a.TSeq)+40)
	buf = append(buf, a.QName...)
	buf = append(buf, ' ')
	buf = append(buf, a.TName...)
	buf = append(buf, ' ', a.Strand, ' ')
	buf = strconv.AppendInt(buf, int64(a.TLen), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(a.TStart), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(a.TEnd), 10)
	buf = append(buf, ' ')
	buf = append(buf, a.QSeq...)
	buf = append(buf, ' ')
	buf = append(buf, a.TSeq...)
	return buf
}

// Parse parses a pre-alignment line. Repeated spaces are ignored.
func Parse(line string) (*Alignment, error) {
	items := strings.Fields(line)
	if len(items) < NumFields {
		return nil, errors.Wrapf(ErrMalformedPre, "%d columns (<%d)", len(items), NumFields)
	}

	a := &Alignment{
		QName: items[0],
		TName: items[1],
		QSeq:  []byte(items[6]),
		TSeq:  []byte(items[7]),
	}

	if len(items[2]) != 1 || (items[2][0] != '+' && items[2][0] != '-') {
		return nil, errors.Wrapf(ErrMalformedPre, "strand: %s", items[2])
	}
	a.Strand = items[2][0]

	var err error
	for i, p := range []*int{&a.TLen, &a.TStart, &a.TEnd} {
		*p, err = strconv.Atoi(items[3+i])
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedPre, "column %d: %s", 4+i, items[3+i])
		}
	}

	return a, nil
}
