// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Writer is a buffered byte sink that keeps track of its offset.
type Writer struct {
	bw  *bufio.Writer
	ws  io.WriteSeeker
	off int64
	tmp [8]byte
}

// NewWriter wraps w. The writer is seekable if w is an io.WriteSeeker
// whose Seek method works.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{bw: bufio.NewWriterSize(w, bufSize)}
	if ws, ok := w.(io.WriteSeeker); ok {
		off, err := ws.Seek(0, io.SeekCurrent)
		if err == nil {
			sw.ws = ws
			sw.off = off
		}
	}
	return sw
}

// Seekable reports whether the writer supports Seek.
func (w *Writer) Seekable() bool { return w.ws != nil }

// Tell returns the current offset.
func (w *Writer) Tell() int64 { return w.off }

// Write writes p to the stream.
func (w *Writer) Write(p []byte) (n int, err error) {
	n, err = w.bw.Write(p)
	w.off += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "stream: write")
	}
	return n, nil
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(c byte) error {
	if err := w.bw.WriteByte(c); err != nil {
		return errors.Wrap(err, "stream: write")
	}
	w.off++
	return nil
}

// WriteUint32 writes u in little-endian byte order.
func (w *Writer) WriteUint32(u uint32) error {
	p := w.tmp[:4]
	binary.LittleEndian.PutUint32(p, u)
	_, err := w.Write(p)
	return err
}

// WriteUint64 writes u in little-endian byte order.
func (w *Writer) WriteUint64(u uint64) error {
	p := w.tmp[:8]
	binary.LittleEndian.PutUint64(p, u)
	_, err := w.Write(p)
	return err
}

// WriteInt64 writes i in little-endian byte order.
func (w *Writer) WriteInt64(i int64) error {
	return w.WriteUint64(uint64(i))
}

// Flush writes the buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return errors.Wrap(w.bw.Flush(), "stream: flush")
}

// Seek flushes the buffer and moves the writer to the absolute offset off.
func (w *Writer) Seek(off int64) error {
	return w.seek(off, io.SeekStart)
}

// SeekEnd flushes the buffer and moves the writer to off bytes relative to
// the end of the stream.
func (w *Writer) SeekEnd(off int64) error {
	return w.seek(off, io.SeekEnd)
}

func (w *Writer) seek(off int64, whence int) error {
	if w.ws == nil {
		return ErrNotSeekable
	}
	if err := w.Flush(); err != nil {
		return err
	}
	pos, err := w.ws.Seek(off, whence)
	if err != nil {
		return errors.Wrapf(err, "stream: seek to %d", off)
	}
	w.off = pos
	return nil
}
