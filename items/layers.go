// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/laz/rc"
)

// layerEncoder collects the code stream of one layer of a chunk in
// memory. Optional layers are only emitted if a value of the layer
// changed in the chunk.
type layerEncoder struct {
	buf      bytes.Buffer
	enc      *rc.Encoder
	optional bool
	changed  bool
	closed   bool
}

func newLayerEncoder(optional bool) *layerEncoder {
	l := &layerEncoder{optional: optional}
	l.enc = rc.NewEncoder(&l.buf)
	return l
}

func (l *layerEncoder) reset() {
	l.buf.Reset()
	l.enc.Init(&l.buf)
	l.changed = false
	l.closed = false
}

func (l *layerEncoder) emitted() bool { return !l.optional || l.changed }

// size closes the code stream and returns the number of bytes the layer
// occupies in the chunk.
func (l *layerEncoder) size() (uint32, error) {
	if !l.closed {
		l.closed = true
		if err := l.enc.Close(); err != nil {
			return 0, err
		}
	}
	if !l.emitted() {
		return 0, nil
	}
	return uint32(l.buf.Len()), nil
}

type layerEncoders []*layerEncoder

func (ls layerEncoders) reset() {
	for _, l := range ls {
		l.reset()
	}
}

func (ls layerEncoders) writeSizes(w io.Writer) error {
	var p [4]byte
	for _, l := range ls {
		n, err := l.size()
		if err != nil {
			return err
		}
		le.PutUint32(p[:], n)
		if _, err = w.Write(p[:]); err != nil {
			return err
		}
	}
	return nil
}

func (ls layerEncoders) writeBytes(w io.Writer) error {
	for _, l := range ls {
		if !l.closed {
			return fmt.Errorf("items: layer bytes written before sizes")
		}
		if !l.emitted() {
			continue
		}
		if _, err := w.Write(l.buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// layerDecoder reads the code stream of one layer. A layer is active if it
// has been requested and the chunk contains bytes for it. The values of an
// inactive layer are not decoded; the previous values are kept.
type layerDecoder struct {
	name      string
	size      uint32
	data      []byte
	rd        bytes.Reader
	dec       *rc.Decoder
	requested bool
	active    bool
}

func newLayerDecoder(name string, requested bool) *layerDecoder {
	return &layerDecoder{
		name:      name,
		dec:       new(rc.Decoder),
		requested: requested,
	}
}

type skipper interface {
	Skip(n int64) error
}

func skip(r io.Reader, n int64) error {
	if s, ok := r.(skipper); ok {
		return s.Skip(n)
	}
	k, err := io.CopyN(io.Discard, r, n)
	if k < n && err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (l *layerDecoder) load(r io.Reader) error {
	l.active = false
	if !l.requested || l.size == 0 {
		if l.size == 0 {
			return nil
		}
		return skip(r, int64(l.size))
	}
	if cap(l.data) < int(l.size) {
		l.data = make([]byte, l.size)
	}
	l.data = l.data[:l.size]
	if _, err := io.ReadFull(r, l.data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	l.rd.Reset(l.data)
	if err := l.dec.Init(&l.rd); err != nil {
		return layerError(l.name, err)
	}
	l.active = true
	return nil
}

type layerDecoders []*layerDecoder

func (ls layerDecoders) readSizes(r io.Reader) error {
	var p [4]byte
	for _, l := range ls {
		if _, err := io.ReadFull(r, p[:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		l.size = le.Uint32(p[:])
	}
	return nil
}

func (ls layerDecoders) readBytes(r io.Reader) error {
	for _, l := range ls {
		if err := l.load(r); err != nil {
			return err
		}
	}
	return nil
}

// err returns the first error of the active layers.
func (ls layerDecoders) err() error {
	for _, l := range ls {
		if !l.active {
			continue
		}
		if err := l.dec.Err(); err != nil {
			return layerError(l.name, err)
		}
	}
	return nil
}

func (ls layerEncoders) err() error {
	for _, l := range ls {
		if err := l.enc.Err(); err != nil {
			return err
		}
	}
	return nil
}

// layerError reports a decoder error of a layer. The layer is held in
// memory completely, so running out of bytes means the layer is corrupt.
func layerError(name string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: layer %s overrun", ErrCorrupt, name)
	}
	return fmt.Errorf("items: layer %s: %w", name, err)
}

func errLayerMissing(name string) error {
	return fmt.Errorf("%w: layer %s is empty", ErrCorrupt, name)
}
