// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"io"

	"github.com/ulikunitz/laz/rc"
)

// RGB14 and RGBNIR14 keep the colors in an RGB layer and the near infrared
// value in a separate NIR layer. Each scanner channel has its own models.

type rgb14Context struct {
	unused        bool
	last          RGBRecord
	rgb           *rgbModels
	mNIRBytesUsed *rc.SymbolModel
	mNIRDiff      [2]*rc.SymbolModel
}

func newRGB14Context(table bool) *rgb14Context {
	return &rgb14Context{
		unused:        true,
		rgb:           newRGBModels(table),
		mNIRBytesUsed: rc.NewSymbolModel(4, table),
		mNIRDiff: [2]*rc.SymbolModel{
			rc.NewSymbolModel(256, table),
			rc.NewSymbolModel(256, table),
		},
	}
}

func (c *rgb14Context) init(rec *RGBRecord) {
	c.unused = false
	c.last = *rec
	c.rgb.init()
	c.mNIRBytesUsed.Init(nil)
	c.mNIRDiff[0].Init(nil)
	c.mNIRDiff[1].Init(nil)
}

// rgb14State switches between the channel contexts.
type rgb14State struct {
	contexts [contexts]*rgb14Context
	current  uint32
}

func (s *rgb14State) setup(table bool) {
	for i := range s.contexts {
		s.contexts[i] = newRGB14Context(table)
	}
}

func (s *rgb14State) init(rec *RGBRecord, context uint32) {
	for _, c := range s.contexts {
		c.unused = true
	}
	s.current = context & 3
	s.contexts[s.current].init(rec)
}

// switchTo returns the context for the channel, creating it from the
// previous point of the current context on first use.
func (s *rgb14State) switchTo(context uint32) *rgb14Context {
	context &= 3
	if context != s.current {
		c := s.contexts[context]
		if c.unused {
			c.init(&s.contexts[s.current].last)
		}
		s.current = context
	}
	return s.contexts[s.current]
}

type rgb14Writer struct {
	rgb14State
	nir    bool
	layers layerEncoders
	cur    RGBRecord
}

func newRGB14Writer(nir bool) *rgb14Writer {
	w := &rgb14Writer{nir: nir}
	w.layers = layerEncoders{newLayerEncoder(true)}
	if nir {
		w.layers = append(w.layers, newLayerEncoder(true))
	}
	w.setup(false)
	return w
}

func (w *rgb14Writer) size() int {
	if w.nir {
		return RGBNIR14Size
	}
	return RGB14Size
}

func (w *rgb14Writer) Init(item []byte, context *uint32) error {
	w.layers.reset()
	var rec RGBRecord
	rec.Unpack(item[:w.size()])
	w.init(&rec, *context)
	return nil
}

func (w *rgb14Writer) Write(item []byte, context *uint32) error {
	c := w.switchTo(*context)
	w.cur.Unpack(item[:w.size()])
	if c.rgb.write(w.layers[0].enc, &c.last, &w.cur)&0x3f != 0 {
		w.layers[0].changed = true
	}
	if w.nir {
		enc := w.layers[1].enc
		last, cur := c.last.NIR, w.cur.NIR
		var sym uint32
		if lo8(last) != lo8(cur) {
			sym |= 1
		}
		if hi8(last) != hi8(cur) {
			sym |= 2
		}
		if sym != 0 {
			w.layers[1].changed = true
		}
		enc.EncodeSymbol(c.mNIRBytesUsed, sym)
		if sym&1 != 0 {
			enc.EncodeSymbol(c.mNIRDiff[0], fold(lo8(cur)-lo8(last)))
		}
		if sym&2 != 0 {
			enc.EncodeSymbol(c.mNIRDiff[1], fold(hi8(cur)-hi8(last)))
		}
	}
	c.last = w.cur
	return w.layers.err()
}

func (w *rgb14Writer) WriteChunkSizes(out io.Writer) error {
	return w.layers.writeSizes(out)
}

func (w *rgb14Writer) WriteChunkBytes(out io.Writer) error {
	return w.layers.writeBytes(out)
}

type rgb14Reader struct {
	rgb14State
	nir    bool
	layers layerDecoders
	cur    RGBRecord
}

func newRGB14Reader(nir bool, sel Selective) *rgb14Reader {
	r := &rgb14Reader{nir: nir}
	r.layers = layerDecoders{newLayerDecoder("rgb", sel&SelectRGB != 0)}
	if nir {
		r.layers = append(r.layers,
			newLayerDecoder("nir", sel&SelectNIR != 0))
	}
	r.setup(true)
	return r
}

func (r *rgb14Reader) size() int {
	if r.nir {
		return RGBNIR14Size
	}
	return RGB14Size
}

func (r *rgb14Reader) ReadChunkSizes(in io.Reader) error {
	return r.layers.readSizes(in)
}

func (r *rgb14Reader) ReadChunkBytes(in io.Reader) error {
	return r.layers.readBytes(in)
}

func (r *rgb14Reader) Init(item []byte, context *uint32) error {
	var rec RGBRecord
	rec.Unpack(item[:r.size()])
	r.init(&rec, *context)
	return nil
}

func (r *rgb14Reader) Read(item []byte, context *uint32) error {
	c := r.switchTo(*context)
	r.cur = c.last
	if r.layers[0].active {
		c.rgb.read(r.layers[0].dec, &c.last, &r.cur)
	}
	if r.nir && r.layers[1].active {
		dec := r.layers[1].dec
		sym := dec.DecodeSymbol(c.mNIRBytesUsed)
		l, h := lo8(c.last.NIR), hi8(c.last.NIR)
		if sym&1 != 0 {
			l = int32(fold(int32(dec.DecodeSymbol(c.mNIRDiff[0])) + l))
		}
		if sym&2 != 0 {
			h = int32(fold(int32(dec.DecodeSymbol(c.mNIRDiff[1])) + h))
		}
		r.cur.NIR = uint16(h<<8 | l)
	}
	c.last = r.cur
	r.cur.Pack(item[:r.size()])
	return r.layers.err()
}
