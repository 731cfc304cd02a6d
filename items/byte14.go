// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"fmt"
	"io"

	"github.com/ulikunitz/laz/rc"
)

// Byte14 puts every extra byte into its own layer.

type byte14Context struct {
	unused bool
	last   []byte
	m      []*rc.SymbolModel
}

type byte14State struct {
	contexts [contexts]*byte14Context
	current  uint32
}

func (s *byte14State) setup(n int, table bool) {
	for i := range s.contexts {
		s.contexts[i] = &byte14Context{
			unused: true,
			last:   make([]byte, n),
			m:      newByteModels(n, table),
		}
	}
}

func (c *byte14Context) init(item []byte) {
	c.unused = false
	copy(c.last, item)
	for _, m := range c.m {
		m.Init(nil)
	}
}

func (s *byte14State) init(item []byte, context uint32) {
	for _, c := range s.contexts {
		c.unused = true
	}
	s.current = context & 3
	s.contexts[s.current].init(item)
}

func (s *byte14State) switchTo(context uint32) *byte14Context {
	context &= 3
	if context != s.current {
		c := s.contexts[context]
		if c.unused {
			c.init(s.contexts[s.current].last)
		}
		s.current = context
	}
	return s.contexts[s.current]
}

type byte14Writer struct {
	byte14State
	layers layerEncoders
}

func newByte14Writer(n int) *byte14Writer {
	w := &byte14Writer{layers: make(layerEncoders, n)}
	for i := range w.layers {
		w.layers[i] = newLayerEncoder(true)
	}
	w.setup(n, false)
	return w
}

func (w *byte14Writer) Init(item []byte, context *uint32) error {
	w.layers.reset()
	w.init(item, *context)
	return nil
}

func (w *byte14Writer) Write(item []byte, context *uint32) error {
	c := w.switchTo(*context)
	for i, l := range w.layers {
		d := int32(item[i]) - int32(c.last[i])
		if d != 0 {
			l.changed = true
		}
		l.enc.EncodeSymbol(c.m[i], fold(d))
	}
	copy(c.last, item)
	return w.layers.err()
}

func (w *byte14Writer) WriteChunkSizes(out io.Writer) error {
	return w.layers.writeSizes(out)
}

func (w *byte14Writer) WriteChunkBytes(out io.Writer) error {
	return w.layers.writeBytes(out)
}

type byte14Reader struct {
	byte14State
	layers layerDecoders
}

func newByte14Reader(n int, sel Selective) *byte14Reader {
	r := &byte14Reader{layers: make(layerDecoders, n)}
	for i := range r.layers {
		r.layers[i] = newLayerDecoder(fmt.Sprintf("byte%d", i),
			sel&SelectByte(i) != 0)
	}
	r.setup(n, true)
	return r
}

func (r *byte14Reader) ReadChunkSizes(in io.Reader) error {
	return r.layers.readSizes(in)
}

func (r *byte14Reader) ReadChunkBytes(in io.Reader) error {
	return r.layers.readBytes(in)
}

func (r *byte14Reader) Init(item []byte, context *uint32) error {
	r.init(item, *context)
	return nil
}

func (r *byte14Reader) Read(item []byte, context *uint32) error {
	c := r.switchTo(*context)
	for i, l := range r.layers {
		if l.active {
			c.last[i] += byte(l.dec.DecodeSymbol(c.m[i]))
		}
	}
	copy(item, c.last)
	return r.layers.err()
}
