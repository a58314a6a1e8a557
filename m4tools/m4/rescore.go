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
	"github.com/twotwotwo/sorts"
)

// ByTargetScore sorts records by target name, then score.
// Ties are broken by query name and coordinates to keep the order stable
// across runs.
type ByTargetScore []*Record

func (s ByTargetScore) Len() int      { return len(s) }
func (s ByTargetScore) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByTargetScore) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.TName != b.TName {
		return a.TName < b.TName
	}
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.QName != b.QName {
		return a.QName < b.QName
	}
	if a.QStart != b.QStart {
		return a.QStart < b.QStart
	}
	if a.QEnd != b.QEnd {
		return a.QEnd < b.QEnd
	}
	if a.TReverse != b.TReverse {
		return !a.TReverse
	}
	if a.TStart != b.TStart {
		return a.TStart < b.TStart
	}
	return a.TEnd < b.TEnd
}

// SortByTargetScore sorts records in place by (target, score).
func SortByTargetScore(recs []*Record) {
	sorts.Quicksort(ByTargetScore(recs))
}

// Rescore replaces the score of each record with a coverage-based one.
//
// Records must be sorted by target. For every record, the bases of the target
// it covers get their coverage increased by one, and the new score is the
// negative sum of 1/coverage over these bases. Coverage only counts records
// seen so far, so an alignment piling on an already covered region
// gets a weaker score than the ones before it.
func Rescore(recs []*Record) {
	var prev string
	var cov []int32
	var start, end, i int
	var score float64
	for j, r := range recs {
		if j == 0 || r.TName != prev {
			prev = r.TName
			cov = make([]int32, max(r.TLen, 0))
		}

		start, end = r.ForwardInterval()
		if start < 0 {
			start = 0
		}
		if end > len(cov) {
			end = len(cov)
		}

		score = 0
		for i = start; i < end; i++ {
			cov[i]++
			score += 1 / float64(cov[i])
		}
		r.Score = -score
	}
}

// Limit keeps the best records of each target.
// Records must be sorted by (target, score). The count of a target is
// increased before the comparison, so at most limit-1 records are kept
// for a target.
func Limit(recs []*Record, limit int) []*Record {
	kept := recs[:0]
	var prev string
	var n int
	for j, r := range recs {
		if j == 0 || r.TName != prev {
			prev = r.TName
			n = 0
		}
		n++
		if n < limit {
			kept = append(kept, r)
		}
	}
	return kept
}
