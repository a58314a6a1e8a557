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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4tools/m4tools/m4tools/m4"
	"github.com/pelletier/go-toml/v2"
)

func writeFile(t *testing.T, dir, name, data string) string {
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "c1.m4")
	fofn := writeFile(t, dir, "all.fofn",
		local+"\n"+filepath.Join(dir, "c2.m4")+"  \n\n"+filepath.Join(dir, "c3.m4")+"\r\n")

	files, err := readManifest(fofn, local)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{filepath.Join(dir, "c2.m4"), filepath.Join(dir, "c3.m4")}
	if strings.Join(files, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, files)
	}

	if _, err = readManifest(fofn, filepath.Join(dir, "c4.m4")); err == nil {
		t.Error("expected an error when the local chunk is not listed")
	}
}

func TestCollapse(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.m4", strings.Join([]string{
		"q1 t1 -50 88.5 0 0 10 1000 0 0 10 100 254",
		"q1 t1 -30 88.5 0 0 10 1000 0 0 10 100 254",
		"q1 t2 -30 88.5 0 0 10 1000 0 0 10 100 254",
		"q2 t1 -30 88.5 0 0 10 1000 0 0 10 100 254",
	}, "\n")+"\n")

	var buf bytes.Buffer
	count, err := collapse(file, &buf, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if count.Original != 4 || count.Filtered != 3 {
		t.Errorf("unexpected count: %s", count)
	}
	if !strings.Contains(buf.String(), "-50 88.5") || strings.Contains(buf.String(), "q1 t1 -30") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestCollapseMalformed(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.m4", "q1 t1 -50\n")
	if _, err := collapse(file, &bytes.Buffer{}, 1<<20); err == nil {
		t.Error("expected an error for a malformed record")
	}
}

func TestWritePres(t *testing.T) {
	recs := []*m4.Record{
		{QName: "q1", TName: "t1", QStart: 0, QEnd: 4, TStart: 0, TEnd: 4, TLen: 8},
		{QName: "q1", TName: "t9", QStart: 0, QEnd: 4, TStart: 0, TEnd: 4, TLen: 8},
		{QName: "q1", TName: "t1", QStart: 0, QEnd: 4, TReverse: true, TStart: 0, TEnd: 4, TLen: 8},
	}
	reads := map[string][]byte{
		"q1": []byte("ACGTACGT"),
		"t1": []byte("AAAACCCC"),
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	written, skipped, err := writePres(w, recs, reads)
	if err != nil {
		t.Fatal(err)
	}
	w.Flush()

	if written != 2 || skipped != 1 {
		t.Errorf("expected 2 written and 1 skipped, got %d and %d", written, skipped)
	}
	expected := "q1 t1 + 8 0 4 ACGT AAAA\nq1 t1 - 8 0 4 ACGT GGGG\n"
	if buf.String() != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, buf.String())
	}

	dir := t.TempDir()
	file := writeFile(t, dir, "a.pre", buf.String())
	s, err := statPres(file, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if s.Records != 2 || s.Queries != 1 || s.Targets != 1 || s.Forward != 1 || s.Reverse != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}

	if _, _, err = writePres(w, recs[:1], map[string][]byte{"t1": reads["t1"]}); err == nil {
		t.Error("expected an error for a missing query sequence")
	}
}

func TestStatPresMalformed(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.pre", "q1 t1 + 8 0 4 ACGT\n")
	if _, err := statPres(file, 1<<20); err == nil {
		t.Error("expected an error for a malformed pre-alignment")
	}
}

func TestWriteStats(t *testing.T) {
	file := filepath.Join(t.TempDir(), "stats.toml")
	stats := &m4.Stats{LocalRecords: 10, AfterLimit: 7, Written: 6, SkippedNoTarget: 1}
	if err := writeStats(file, stats); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	var s m4.Stats
	if err = toml.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s != *stats {
		t.Errorf("expected %+v, got %+v", *stats, s)
	}
	if !strings.Contains(string(data), "records-skipped-missing-target = 1") {
		t.Errorf("unexpected stats file:\n%s", data)
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		s      string
		expect int64
	}{
		{"1024", 1024},
		{"20M", 20 << 20},
		{"1.5k", 1536},
		{"2G", 2 << 30},
		{"", 0},
	}
	for _, test := range tests {
		v, err := ParseByteSize(test.s)
		if err != nil {
			t.Errorf("%s: %s", test.s, err)
			continue
		}
		if v != test.expect {
			t.Errorf("%s: expected %d, got %d", test.s, test.expect, v)
		}
	}
	if _, err := ParseByteSize("xM"); err == nil {
		t.Error("expected an error for xM")
	}
}
