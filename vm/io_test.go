package vm

import (
	"errors"
	"strings"
	"testing"
)

func TestReaderSource(t *testing.T) {
	src := NewReaderSource(strings.NewReader("12  -7\n 0\n"))
	for _, want := range []int{12, -7, 0} {
		got, err := src.ReadInt("x")
		if err != nil {
			t.Fatalf("ReadInt: %v", err)
		}
		if got != want {
			t.Errorf("ReadInt = %d, want %d", got, want)
		}
	}
	if _, err := src.ReadInt("x"); !errors.Is(err, ErrInputExhausted) {
		t.Errorf("err = %v, want ErrInputExhausted", err)
	}
}

func TestReaderSourceRejectsNonInteger(t *testing.T) {
	src := NewReaderSource(strings.NewReader("banana"))
	if _, err := src.ReadInt("x"); err == nil {
		t.Error("ReadInt accepted a non-integer token")
	}
}

func TestWriterSink(t *testing.T) {
	var sb strings.Builder
	sink := NewWriterSink(&sb)
	for _, v := range []int{1, -2, 30} {
		if err := sink.WriteInt("x", v); err != nil {
			t.Fatalf("WriteInt: %v", err)
		}
	}
	if got, want := sb.String(), "1\n-2\n30\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
