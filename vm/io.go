package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// InputSource yields exactly one integer per IntInput instruction. The
// name is the source-level variable being read, for prompting.
type InputSource interface {
	ReadInt(name string) (int, error)
}

// OutputSink accepts exactly one integer per IntOutput instruction.
type OutputSink interface {
	WriteInt(name string, v int) error
}

// ErrInputExhausted is reported when a program asks for more input than
// the source can provide.
var ErrInputExhausted = errors.New("input exhausted")

// ReaderSource reads whitespace-separated integers from an io.Reader.
type ReaderSource struct {
	sc *bufio.Scanner
}

// NewReaderSource wraps r as a line-based integer source.
func NewReaderSource(r io.Reader) *ReaderSource {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &ReaderSource{sc: sc}
}

func (s *ReaderSource) ReadInt(name string) (int, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrInputExhausted
	}
	v, err := strconv.Atoi(s.sc.Text())
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s.sc.Text())
	}
	return v, nil
}

// WriterSink writes one integer per line to an io.Writer.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w as an output sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteInt(name string, v int) error {
	_, err := fmt.Fprintln(s.w, v)
	return err
}

// SliceSource serves integers from a fixed slice. Used by tests and the
// fixture runner.
type SliceSource struct {
	values []int
	pos    int
}

// NewSliceSource returns a source yielding the given values in order.
func NewSliceSource(values ...int) *SliceSource {
	return &SliceSource{values: values}
}

func (s *SliceSource) ReadInt(name string) (int, error) {
	if s.pos >= len(s.values) {
		return 0, ErrInputExhausted
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// SliceSink records every written integer.
type SliceSink struct {
	Values []int
}

func (s *SliceSink) WriteInt(name string, v int) error {
	s.Values = append(s.Values, v)
	return nil
}
