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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func writeLines(t *testing.T, dir, name string, lines []string) string {
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func selectedQueries(sel *Selection) []string {
	qs := make([]string, 0, len(sel.Records))
	for _, r := range sel.Records {
		qs = append(qs, r.QName+"|"+r.TName)
	}
	sort.Strings(qs)
	return qs
}

func TestSelectEndToEnd(t *testing.T) {
	dir := t.TempDir()
	local := writeLines(t, dir, "local.m4", []string{
		m4Line("q1", "t1", -50, 0, 10, false, 0, 10, 100),
	})

	sel, err := Select(local, &SelectOptions{BestN: 10, Limit: DefaultLimit, PrefixLen: DefaultPrefixLen})
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sel.Records))
	}
	if !almostEqual(sel.Records[0].Score, -10) {
		t.Errorf("expected rescored score -10, got %f", sel.Records[0].Score)
	}
}

// prefix length 3 in these tests: "c1_readA" and "c2_readA" are the same read.
func chunkFiles(t *testing.T) (string, []string) {
	dir := t.TempDir()
	local := writeLines(t, dir, "c1.m4", []string{
		m4Line("c1_readA", "t1", -100, 0, 100, false, 0, 100, 1000), // 200
		m4Line("c1_readA", "t2", -10, 0, 10, false, 0, 10, 1000),    // 20
		m4Line("c1_readB", "t3", -20, 0, 30, false, 0, 30, 1000),    // 50
	})
	sib1 := writeLines(t, dir, "c2.m4", []string{
		m4Line("c2_readA", "t4", -200, 0, 100, false, 0, 100, 1000), // 300
		m4Line("c2_readC", "t5", -900, 0, 100, false, 0, 100, 1000), // unknown locally
	})
	sib2 := writeLines(t, dir, "c3.m4", []string{
		m4Line("c3_readA", "t6", -150, 0, 100, false, 0, 100, 1000), // 250
		m4Line("c3_readB", "t7", -1, 0, 10, false, 0, 10, 1000),     // 11
	})
	return local, []string{sib1, sib2}
}

func TestSelectChunked(t *testing.T) {
	local, siblings := chunkFiles(t)

	sel, err := Select(local, &SelectOptions{
		BestN: 2, Limit: DefaultLimit, PrefixLen: 3,
		Chunked: true, Siblings: siblings,
	})
	if err != nil {
		t.Fatal(err)
	}

	// readA: top 2 are 300 and 250 from siblings, so both local records are dropped.
	// readB: top 2 are 50 and 11.
	got := selectedQueries(sel)
	if len(got) != 1 || got[0] != "c1_readB|t3" {
		t.Errorf("unexpected selection: %v", got)
	}

	if sel.Stats.LocalRecords != 3 || sel.Stats.SiblingRecords != 4 || sel.Stats.ConsultedRecords != 3 {
		t.Errorf("unexpected stats: %+v", sel.Stats)
	}
	if sel.Tracker.Has("readC") {
		t.Error("queries only in siblings should not be tracked")
	}
	if !sel.Tracker.Has("readA") || !sel.Tracker.Has("readB") {
		t.Error("local queries should be tracked")
	}
}

func TestSelectChunkedOrderIndependent(t *testing.T) {
	local, siblings := chunkFiles(t)

	var results [][]string
	for _, files := range [][]string{siblings, {siblings[1], siblings[0]}} {
		sel, err := Select(local, &SelectOptions{
			BestN: 3, Limit: DefaultLimit, PrefixLen: 3,
			Chunked: true, Siblings: files,
		})
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, selectedQueries(sel))
	}

	if strings.Join(results[0], ",") != strings.Join(results[1], ",") {
		t.Errorf("selection depends on the order of chunks: %v vs %v", results[0], results[1])
	}
	// readA: top 3 are 300, 250, 200
	if strings.Join(results[0], ",") != "c1_readA|t1,c1_readB|t3" {
		t.Errorf("unexpected selection: %v", results[0])
	}
}

func TestSelectNotChunked(t *testing.T) {
	local, _ := chunkFiles(t)

	sel, err := Select(local, &SelectOptions{BestN: 1, Limit: DefaultLimit, PrefixLen: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(sel.Records) != 3 {
		t.Errorf("best-N filtering should only apply to chunked alignments, got %v", selectedQueries(sel))
	}
}

func TestSelectInvalidOptions(t *testing.T) {
	local, _ := chunkFiles(t)
	if _, err := Select(local, &SelectOptions{BestN: 0, Limit: DefaultLimit}); err == nil {
		t.Error("expected an error for best-N of 0")
	}
	if _, err := Select(local, &SelectOptions{BestN: 1, Limit: 0}); err == nil {
		t.Error("expected an error for limit of 0")
	}
}

func TestSelectMissingSibling(t *testing.T) {
	local, _ := chunkFiles(t)
	_, err := Select(local, &SelectOptions{
		BestN: 2, Limit: DefaultLimit, PrefixLen: 3,
		Chunked: true, Siblings: []string{filepath.Join(t.TempDir(), "missing.m4")},
	})
	if err == nil {
		t.Error("expected an error for a missing sibling chunk")
	}
}

func TestReaderSkipsEmptyLines(t *testing.T) {
	dir := t.TempDir()
	file := writeLines(t, dir, "a.m4", []string{
		m4Line("q1", "t1", -50, 0, 10, false, 0, 10, 100),
		"",
		"  ",
		m4Line("q2", "t1", -50, 0, 10, false, 0, 10, 100),
	})
	recs, err := ReadAll(file, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d", len(recs))
	}
}
