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

package pre

import (
	"github.com/m4tools/m4tools/m4tools/m4"
	"github.com/pkg/errors"
)

var (
	// ErrMissingTarget means the target sequence of an alignment is not loaded.
	// Callers skip such alignments.
	ErrMissingTarget = errors.New("pre: missing target sequence")

	// ErrMissingQuery means the query sequence of an alignment is not loaded.
	ErrMissingQuery = errors.New("pre: missing query sequence")

	// ErrOutOfRange means alignment coordinates exceed the sequence.
	ErrOutOfRange = errors.New("pre: coordinates out of range")
)

// complement of A, C, G, T in both cases. Other bytes, including
// degenerate bases, are kept as they are.
var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	for _, p := range [][2]byte{{'A', 'T'}, {'C', 'G'}, {'a', 't'}, {'c', 'g'}} {
		complement[p[0]], complement[p[1]] = p[1], p[0]
	}
}

// RevComp returns the reverse complement of s.
func RevComp(s []byte) []byte {
	rc := make([]byte, len(s))
	n := len(s) - 1
	for i, b := range s {
		rc[n-i] = complement[b]
	}
	return rc
}

// SubSeq returns s[start:end] on the given strand. For the negative strand,
// coordinates are in the frame of the reverse complement of s, so it equals
// RevComp(s)[start:end].
func SubSeq(s []byte, start, end int, reverse bool) ([]byte, error) {
	if start < 0 || end > len(s) || start > end {
		return nil, errors.Wrapf(ErrOutOfRange, "[%d, %d) of %d bp", start, end, len(s))
	}
	if reverse {
		return RevComp(s[len(s)-end : len(s)-start]), nil
	}
	sub := make([]byte, end-start)
	copy(sub, s[start:end])
	return sub, nil
}

// Extract builds the pre-alignment of an m4 record from loaded sequences.
func Extract(r *m4.Record, seqs map[string][]byte) (*Alignment, error) {
	tseq, ok := seqs[r.TName]
	if !ok {
		return nil, errors.Wrapf(ErrMissingTarget, "query %s target %s", r.QName, r.TName)
	}
	qseq, ok := seqs[r.QName]
	if !ok {
		return nil, errors.Wrapf(ErrMissingQuery, "query %s target %s", r.QName, r.TName)
	}

	a := &Alignment{
		QName:  r.QName,
		TName:  r.TName,
		Strand: r.Strand()[0],
		TLen:   r.TLen,
		TStart: r.TStart,
		TEnd:   r.TEnd,
	}

	var err error
	a.QSeq, err = SubSeq(qseq, r.QStart, r.QEnd, false)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", r.QName)
	}
	a.TSeq, err = SubSeq(tseq, r.TStart, r.TEnd, r.TReverse)
	if err != nil {
		return nil, errors.Wrapf(err, "target %s", r.TName)
	}
	return a, nil
}
