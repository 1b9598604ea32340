package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestTailCopiesUntilEOF(t *testing.T) {
	src := strings.NewReader("hello from kmsg")
	var dst bytes.Buffer

	err := tail(&dst, src)
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if dst.String() != "hello from kmsg" {
		t.Fatalf("dst = %q, want %q", dst.String(), "hello from kmsg")
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestTailPropagatesReadError(t *testing.T) {
	want := io.ErrClosedPipe
	var dst bytes.Buffer

	err := tail(&dst, errReader{err: want})
	if err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
