// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterReaderFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "stream.bin")
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("os.Create error %s", err)
	}
	w := NewWriter(f)
	if !w.Seekable() {
		t.Fatalf("file writer must be seekable")
	}
	if err = w.WriteInt64(-1); err != nil {
		t.Fatalf("WriteInt64 error %s", err)
	}
	if err = w.WriteByte(7); err != nil {
		t.Fatalf("WriteByte error %s", err)
	}
	if err = w.WriteUint32(0xdeadbeef); err != nil {
		t.Fatalf("WriteUint32 error %s", err)
	}
	if g := w.Tell(); g != 13 {
		t.Fatalf("Tell() = %d; want 13", g)
	}
	// patch the placeholder
	if err = w.Seek(0); err != nil {
		t.Fatalf("Seek error %s", err)
	}
	if err = w.WriteInt64(13); err != nil {
		t.Fatalf("WriteInt64 error %s", err)
	}
	if err = w.SeekEnd(0); err != nil {
		t.Fatalf("SeekEnd error %s", err)
	}
	if err = w.WriteUint64(42); err != nil {
		t.Fatalf("WriteUint64 error %s", err)
	}
	if err = w.Flush(); err != nil {
		t.Fatalf("Flush error %s", err)
	}
	if err = f.Close(); err != nil {
		t.Fatalf("f.Close error %s", err)
	}

	f, err = os.Open(name)
	if err != nil {
		t.Fatalf("os.Open error %s", err)
	}
	defer f.Close()
	r := NewReader(f)
	if !r.Seekable() {
		t.Fatalf("file reader must be seekable")
	}
	size, err := r.Size()
	if err != nil || size != 21 {
		t.Fatalf("Size() = %d, %v; want 21", size, err)
	}
	p, err := r.ReadInt64()
	if err != nil || p != 13 {
		t.Fatalf("ReadInt64() = %d, %v; want 13", p, err)
	}
	if err = r.Seek(p); err != nil {
		t.Fatalf("Seek error %s", err)
	}
	u, err := r.ReadUint64()
	if err != nil || u != 42 {
		t.Fatalf("ReadUint64() = %d, %v; want 42", u, err)
	}
	if err = r.Seek(8); err != nil {
		t.Fatalf("Seek error %s", err)
	}
	c, err := r.ReadByte()
	if err != nil || c != 7 {
		t.Fatalf("ReadByte() = %d, %v; want 7", c, err)
	}
	v, err := r.ReadUint32()
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("ReadUint32() = %#x, %v", v, err)
	}
	if g := r.Tell(); g != 13 {
		t.Fatalf("Tell() = %d; want 13", g)
	}
}

func TestNonSeekable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if w.Seekable() {
		t.Fatalf("buffer writer must not be seekable")
	}
	if err := w.Seek(0); !errors.Is(err, ErrNotSeekable) {
		t.Fatalf("Seek: got %v; want %v", err, ErrNotSeekable)
	}
	data := make([]byte, 3*bufSize+5)
	for i := range data {
		data[i] = byte(i)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write error %s", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush error %s", err)
	}

	r := NewReader(struct{ io.Reader }{&buf})
	if r.Seekable() {
		t.Fatalf("wrapped reader must not be seekable")
	}
	if err := r.Skip(2*bufSize + 1); err != nil {
		t.Fatalf("Skip error %s", err)
	}
	c, err := r.ReadByte()
	if err != nil || c != data[2*bufSize+1] {
		t.Fatalf("ReadByte() = %d, %v; want %d", c, err,
			data[2*bufSize+1])
	}
	if g, w := r.Tell(), int64(2*bufSize+2); g != w {
		t.Fatalf("Tell() = %d; want %d", g, w)
	}
	err = r.Skip(bufSize + 10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Skip past end: got %v; want %v", err,
			io.ErrUnexpectedEOF)
	}
}

func TestTruncatedInteger(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}))
	if _, err := r.ReadUint32(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("ReadUint32: got %v; want %v", err,
			io.ErrUnexpectedEOF)
	}
}
