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
	"github.com/m4tools/m4tools/m4tools/bestn"
	"github.com/pkg/errors"
)

// DefaultLimit is the default maximum number of alignments per target, plus one.
const DefaultLimit = 76

// SelectOptions contains the parameters of selecting alignments.
type SelectOptions struct {
	BestN      int // number of alignments kept for a query across chunks
	Limit      int // see Limit
	PrefixLen  int // length of the chunk prefix of read identifiers
	BufferSize int // maximum line length

	// Chunked enables best-N filtering with sibling chunks.
	Chunked  bool
	Siblings []string

	// OnSibling, if not nil, is called after a sibling chunk is scanned.
	OnSibling func(file string, records int, consulted int)
}

// Stats summarizes a selection.
type Stats struct {
	LocalRecords     int `toml:"local-records"`
	SiblingFiles     int `toml:"sibling-files"`
	SiblingRecords   int `toml:"sibling-records"`
	ConsultedRecords int `toml:"consulted-sibling-records"`
	Queries          int `toml:"queries"`
	AfterBestN       int `toml:"records-after-bestn"`
	AfterLimit       int `toml:"records-after-limit"`
	Written          int `toml:"records-written"`
	SkippedNoTarget  int `toml:"records-skipped-missing-target"`
}

// Selection is the result of Select.
type Selection struct {
	Records []*Record
	Tracker *bestn.Tracker
	Stats   Stats
}

// LoadChunk reads all records of the local chunk and adds their ratings
// to the tracker.
func LoadChunk(file string, tracker *bestn.Tracker, prefixLen int, bufferSize int) ([]*Record, error) {
	recs, err := ReadAll(file, bufferSize)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		tracker.Add(QueryKey(r.QName, prefixLen), r.Rating())
	}
	return recs, nil
}

// ScanSibling streams a sibling chunk and adds the ratings of queries
// already known to the tracker. Sibling records are never kept.
// It returns the number of records read and the number of them
// added to the tracker.
func ScanSibling(file string, tracker *bestn.Tracker, prefixLen int, bufferSize int) (int, int, error) {
	r, err := NewReader(file, bufferSize)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	var n, consulted int
	var rec *Record
	for r.Scan() {
		rec, err = r.Record()
		if err != nil {
			return n, consulted, err
		}
		n++
		if tracker.AddKnown(QueryKey(rec.QName, prefixLen), rec.Rating()) {
			consulted++
		}
	}
	return n, consulted, r.Err()
}

// FilterBestN removes records whose rating is not among the kept
// ratings of their query.
func FilterBestN(recs []*Record, tracker *bestn.Tracker, prefixLen int) []*Record {
	kept := recs[:0]
	for _, r := range recs {
		if tracker.Contains(QueryKey(r.QName, prefixLen), r.Rating()) {
			kept = append(kept, r)
		}
	}
	return kept
}

// Select runs the selection pipeline on a local chunk:
// best-N filtering with sibling chunks (chunked mode only), sorting,
// coverage-based rescoring, sorting again, and the per-target limit.
//
// The returned tracker holds every query key of the local chunk, which is
// used to decide which sequences to load.
func Select(local string, opt *SelectOptions) (*Selection, error) {
	if opt.BestN < 1 {
		return nil, errors.Errorf("best-N should be positive: %d", opt.BestN)
	}
	if opt.Limit < 1 {
		return nil, errors.Errorf("limit should be positive: %d", opt.Limit)
	}

	tracker := bestn.NewTracker(opt.BestN)
	sel := &Selection{Tracker: tracker}

	recs, err := LoadChunk(local, tracker, opt.PrefixLen, opt.BufferSize)
	if err != nil {
		return nil, err
	}
	sel.Stats.LocalRecords = len(recs)
	sel.Stats.Queries = tracker.Len()

	if opt.Chunked {
		var n, consulted int
		for _, file := range opt.Siblings {
			n, consulted, err = ScanSibling(file, tracker, opt.PrefixLen, opt.BufferSize)
			if err != nil {
				return nil, err
			}
			sel.Stats.SiblingFiles++
			sel.Stats.SiblingRecords += n
			sel.Stats.ConsultedRecords += consulted
			if opt.OnSibling != nil {
				opt.OnSibling(file, n, consulted)
			}
		}

		recs = FilterBestN(recs, tracker, opt.PrefixLen)
	}
	sel.Stats.AfterBestN = len(recs)

	SortByTargetScore(recs)
	Rescore(recs)
	SortByTargetScore(recs)

	recs = Limit(recs, opt.Limit)
	sel.Stats.AfterLimit = len(recs)

	sel.Records = recs
	return sel, nil
}
