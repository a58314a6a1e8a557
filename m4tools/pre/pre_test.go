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
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	a := &Alignment{
		QName:  "q1",
		TName:  "t1",
		Strand: '-',
		TLen:   1000,
		TStart: 10,
		TEnd:   14,
		QSeq:   []byte("ACGA"),
		TSeq:   []byte("ACTA"),
	}
	b, err := Parse(string(a.Format()))
	if err != nil {
		t.Fatal(err)
	}
	if b.QName != a.QName || b.TName != a.TName || b.Strand != a.Strand ||
		b.TLen != a.TLen || b.TStart != a.TStart || b.TEnd != a.TEnd ||
		string(b.QSeq) != string(a.QSeq) || string(b.TSeq) != string(a.TSeq) {
		t.Errorf("expected %s, got %s", a.Format(), b.Format())
	}
}

func TestParseExtraSpaces(t *testing.T) {
	a, err := Parse("q1  t1 + 100 0   4 ACGT ACGT")
	if err != nil {
		t.Fatal(err)
	}
	if a.TEnd != 4 || string(a.TSeq) != "ACGT" {
		t.Errorf("unexpected pre-alignment: %s", a.Format())
	}
}

func TestParseMalformed(t *testing.T) {
	lines := []string{
		"q1 t1 + 100 0 4 ACGT",
		"q1 t1 x 100 0 4 ACGT ACGT",
		"q1 t1 + 1e2 0 4 ACGT ACGT",
	}
	for _, line := range lines {
		if _, err := Parse(line); !errors.Is(err, ErrMalformedPre) {
			t.Errorf("%q: expected ErrMalformedPre, got %v", line, err)
		}
	}
}
