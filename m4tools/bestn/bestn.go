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

// Package bestn tracks the N highest alignment ratings of each query.
package bestn

import (
	"container/heap"
	"sort"
)

// DefaultN is the default number of ratings kept for a query.
const DefaultN = 10

// Top keeps the n highest ratings added to it.
// It starts with n zero ratings, so only positive ratings
// can displace the placeholders.
type Top struct {
	h minHeap
}

// NewTop returns a Top of capacity n, filled with n zeros.
func NewTop(n int) *Top {
	if n < 0 {
		n = 0
	}
	return &Top{h: make(minHeap, n)}
}

// Add inserts a rating. If the set is full, the current minimum is evicted
// when the new rating is larger; otherwise the new rating is discarded.
func (t *Top) Add(rating float64) {
	if len(t.h) == 0 || rating <= t.h[0] {
		return
	}
	t.h[0] = rating
	heap.Fix(&t.h, 0)
}

// Contains reports whether the rating is one of the kept ones.
func (t *Top) Contains(rating float64) bool {
	for _, v := range t.h {
		if v == rating {
			return true
		}
	}
	return false
}

// Min returns the smallest kept rating.
func (t *Top) Min() float64 {
	if len(t.h) == 0 {
		return 0
	}
	return t.h[0]
}

// Len returns the number of kept ratings.
func (t *Top) Len() int { return len(t.h) }

// Values returns the kept ratings in descending order.
func (t *Top) Values() []float64 {
	vs := make([]float64, len(t.h))
	copy(vs, t.h)
	sort.Sort(sort.Reverse(sort.Float64Slice(vs)))
	return vs
}

type minHeap []float64

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x interface{}) {
	*h = append(*h, x.(float64))
}

func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Tracker maps query keys to their Top ratings.
type Tracker struct {
	n    int
	tops map[string]*Top
}

// NewTracker returns a Tracker keeping n ratings per query.
func NewTracker(n int) *Tracker {
	return &Tracker{
		n:    n,
		tops: make(map[string]*Top, 1024),
	}
}

// N returns the capacity of each query.
func (t *Tracker) N() int { return t.n }

// GetOrCreate returns the Top of a query, creating it if absent.
func (t *Tracker) GetOrCreate(key string) *Top {
	top, ok := t.tops[key]
	if !ok {
		top = NewTop(t.n)
		t.tops[key] = top
	}
	return top
}

// Add adds a rating to a query, creating the query if absent.
func (t *Tracker) Add(key string, rating float64) {
	t.GetOrCreate(key).Add(rating)
}

// AddKnown adds a rating only if the query is already tracked.
// It reports whether the query is known.
func (t *Tracker) AddKnown(key string, rating float64) bool {
	top, ok := t.tops[key]
	if !ok {
		return false
	}
	top.Add(rating)
	return true
}

// Has reports whether a query is tracked.
func (t *Tracker) Has(key string) bool {
	_, ok := t.tops[key]
	return ok
}

// Contains reports whether the rating is among the kept ratings of a query.
func (t *Tracker) Contains(key string, rating float64) bool {
	top, ok := t.tops[key]
	if !ok {
		return false
	}
	return top.Contains(rating)
}

// Len returns the number of tracked queries.
func (t *Tracker) Len() int { return len(t.tops) }
