// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stream provides the byte streams the point codecs read from and
// write to. The streams track their offset, read and write little-endian
// integers and support seeking if the underlying file supports it.
package stream

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const bufSize = 16 * 1024

// Reader is a buffered byte stream that keeps track of its offset. Offsets
// are absolute positions of the underlying file if it is seekable and
// count the bytes consumed since creation otherwise.
type Reader struct {
	br  *bufio.Reader
	rs  io.ReadSeeker
	off int64
	tmp [8]byte
}

// NewReader wraps r. The reader is seekable if r is an io.ReadSeeker whose
// Seek method works.
func NewReader(r io.Reader) *Reader {
	sr := &Reader{br: bufio.NewReaderSize(r, bufSize)}
	if rs, ok := r.(io.ReadSeeker); ok {
		off, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			sr.rs = rs
			sr.off = off
		}
	}
	return sr
}

// Seekable reports whether the reader supports Seek and SeekEnd.
func (r *Reader) Seekable() bool { return r.rs != nil }

// Tell returns the current offset.
func (r *Reader) Tell() int64 { return r.off }

// Read reads data into p.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.br.Read(p)
	r.off += int64(n)
	return n, err
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	c, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	r.off++
	return c, nil
}

// ReadFull fills p completely. A short read returns io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(p []byte) error {
	n, err := io.ReadFull(r.br, p)
	r.off += int64(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "stream: reading %d bytes at offset %d",
			len(p), r.off-int64(n))
	}
	return nil
}

// ReadUint32 reads a little-endian 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	p := r.tmp[:4]
	if err := r.ReadFull(p); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// ReadUint64 reads a little-endian 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	p := r.tmp[:8]
	if err := r.ReadFull(p); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	u, err := r.ReadUint64()
	return int64(u), err
}

// ErrNotSeekable is returned by the seek methods of streams that don't
// support seeking.
var ErrNotSeekable = errors.New("stream: not seekable")

// Seek moves the reader to the absolute offset off.
func (r *Reader) Seek(off int64) error {
	return r.seek(off, io.SeekStart)
}

// SeekEnd moves the reader to off bytes relative to the end of the stream.
func (r *Reader) SeekEnd(off int64) error {
	return r.seek(off, io.SeekEnd)
}

func (r *Reader) seek(off int64, whence int) error {
	if r.rs == nil {
		return ErrNotSeekable
	}
	if whence == io.SeekStart && off >= r.off &&
		off-r.off <= int64(r.br.Buffered()) {
		// target still in the buffer
		k, _ := r.br.Discard(int(off - r.off))
		r.off += int64(k)
		return nil
	}
	pos, err := r.rs.Seek(off, whence)
	if err != nil {
		return errors.Wrapf(err, "stream: seek to %d", off)
	}
	r.br.Reset(r.rs)
	r.off = pos
	return nil
}

// Size returns the total size of a seekable stream without changing the
// current offset.
func (r *Reader) Size() (int64, error) {
	if r.rs == nil {
		return 0, ErrNotSeekable
	}
	cur := r.off
	if err := r.SeekEnd(0); err != nil {
		return 0, err
	}
	size := r.off
	if err := r.Seek(cur); err != nil {
		return 0, err
	}
	return size, nil
}

// Skip discards the next n bytes. Seekable streams seek, others read and
// drop the data.
func (r *Reader) Skip(n int64) error {
	if n < 0 {
		return errors.Errorf("stream: negative skip count %d", n)
	}
	if r.rs != nil {
		return r.Seek(r.off + n)
	}
	for n > 0 {
		k := bufSize
		if n < int64(k) {
			k = int(n)
		}
		d, err := r.br.Discard(k)
		r.off += int64(d)
		n -= int64(d)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return errors.Wrap(err, "stream: skip")
		}
	}
	return nil
}
