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
	"bufio"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// DefaultBufferSize is the default maximum line length.
const DefaultBufferSize = 20 << 20

// Reader reads m4 lines from a plain or compressed file.
// Empty lines are skipped.
type Reader struct {
	file string

	fh      *xopen.Reader
	scanner *bufio.Scanner

	line string
	n    int // line number
}

// NewReader opens a file ("-" for stdin) for reading m4 lines.
// bufferSize limits the length of a line.
func NewReader(file string, bufferSize int) (*Reader, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "open m4 file: %s", file)
	}

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	scanner := bufio.NewScanner(fh)
	initSize := 64 << 10
	if initSize > bufferSize {
		initSize = bufferSize
	}
	scanner.Buffer(make([]byte, initSize), bufferSize)

	return &Reader{file: file, fh: fh, scanner: scanner}, nil
}

// Scan advances to the next non-empty line.
func (r *Reader) Scan() bool {
	for r.scanner.Scan() {
		r.n++
		r.line = strings.TrimRight(r.scanner.Text(), "\r\n")
		if strings.TrimSpace(r.line) == "" {
			continue
		}
		return true
	}
	return false
}

// Line returns the current line without the line break.
func (r *Reader) Line() string { return r.line }

// Fields splits the current line.
func (r *Reader) Fields() ([]string, error) {
	items, err := Fields(r.line)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: line %d", r.file, r.n)
	}
	return items, nil
}

// Record parses the current line.
func (r *Reader) Record() (*Record, error) {
	items, err := r.Fields()
	if err != nil {
		return nil, err
	}
	rec, err := fromFields(items)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: line %d", r.file, r.n)
	}
	return rec, nil
}

// Err returns the first non-EOF error of scanning.
func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return errors.Wrapf(err, "read m4 file: %s", r.file)
	}
	return nil
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.fh.Close()
}

// ReadAll parses all records of a file.
func ReadAll(file string, bufferSize int) ([]*Record, error) {
	r, err := NewReader(file, bufferSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	recs := make([]*Record, 0, 1024)
	var rec *Record
	for r.Scan() {
		rec, err = r.Record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, r.Err()
}
