// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

func lo8(u uint16) int32 { return int32(u & 0xff) }
func hi8(u uint16) int32 { return int32(u >> 8) }

// rgbChanges computes the bit mask of changed bytes: bit 2c for the low
// and bit 2c+1 for the high byte of channel c.
func rgbChanges(last, cur *RGBRecord) uint32 {
	var sym uint32
	if lo8(last.R) != lo8(cur.R) {
		sym |= 1 << 0
	}
	if hi8(last.R) != hi8(cur.R) {
		sym |= 1 << 1
	}
	if lo8(last.G) != lo8(cur.G) {
		sym |= 1 << 2
	}
	if hi8(last.G) != hi8(cur.G) {
		sym |= 1 << 3
	}
	if lo8(last.B) != lo8(cur.B) {
		sym |= 1 << 4
	}
	if hi8(last.B) != hi8(cur.B) {
		sym |= 1 << 5
	}
	return sym
}

// rgbColor is set in the version 2 symbol if the channels differ.
const rgbColor = 1 << 6

// rgbModels are the models of the version 2 color coding. It is shared by
// RGB12 version 2 and the RGB layers of RGB14 and RGBNIR14.
type rgbModels struct {
	mByteUsed *rc.SymbolModel
	mDiff     [6]*rc.SymbolModel
}

func newRGBModels(table bool) *rgbModels {
	m := &rgbModels{mByteUsed: rc.NewSymbolModel(128, table)}
	for i := range m.mDiff {
		m.mDiff[i] = rc.NewSymbolModel(256, table)
	}
	return m
}

func (m *rgbModels) init() {
	m.mByteUsed.Init(nil)
	for _, d := range m.mDiff {
		d.Init(nil)
	}
}

// write codes cur relative to last. It returns the symbol of changed
// bytes.
func (m *rgbModels) write(enc *rc.Encoder, last, cur *RGBRecord) uint32 {
	sym := rgbChanges(last, cur)
	if lo8(cur.R) != lo8(cur.G) || lo8(cur.R) != lo8(cur.B) ||
		hi8(cur.R) != hi8(cur.G) || hi8(cur.R) != hi8(cur.B) {
		sym |= rgbColor
	}
	enc.EncodeSymbol(m.mByteUsed, sym)

	var diffL, diffH int32
	if sym&(1<<0) != 0 {
		diffL = lo8(cur.R) - lo8(last.R)
		enc.EncodeSymbol(m.mDiff[0], fold(diffL))
	}
	if sym&(1<<1) != 0 {
		diffH = hi8(cur.R) - hi8(last.R)
		enc.EncodeSymbol(m.mDiff[1], fold(diffH))
	}
	if sym&rgbColor != 0 {
		if sym&(1<<2) != 0 {
			corr := lo8(cur.G) - clamp(diffL+lo8(last.G))
			enc.EncodeSymbol(m.mDiff[2], fold(corr))
		}
		if sym&(1<<4) != 0 {
			diffL = (diffL + lo8(cur.G) - lo8(last.G)) / 2
			corr := lo8(cur.B) - clamp(diffL+lo8(last.B))
			enc.EncodeSymbol(m.mDiff[4], fold(corr))
		}
		if sym&(1<<3) != 0 {
			corr := hi8(cur.G) - clamp(diffH+hi8(last.G))
			enc.EncodeSymbol(m.mDiff[3], fold(corr))
		}
		if sym&(1<<5) != 0 {
			diffH = (diffH + hi8(cur.G) - hi8(last.G)) / 2
			corr := hi8(cur.B) - clamp(diffH+hi8(last.B))
			enc.EncodeSymbol(m.mDiff[5], fold(corr))
		}
	}
	return sym
}

// read decodes the colors following last into cur.
func (m *rgbModels) read(dec *rc.Decoder, last, cur *RGBRecord) {
	sym := dec.DecodeSymbol(m.mByteUsed)

	var l, h int32
	if sym&(1<<0) != 0 {
		l = int32(fold(int32(dec.DecodeSymbol(m.mDiff[0])) + lo8(last.R)))
	} else {
		l = lo8(last.R)
	}
	if sym&(1<<1) != 0 {
		h = int32(fold(int32(dec.DecodeSymbol(m.mDiff[1])) + hi8(last.R)))
	} else {
		h = hi8(last.R)
	}
	cur.R = uint16(h<<8 | l)

	if sym&rgbColor == 0 {
		cur.G = cur.R
		cur.B = cur.R
		return
	}

	diff := lo8(cur.R) - lo8(last.R)
	var gl, bl int32
	if sym&(1<<2) != 0 {
		corr := int32(dec.DecodeSymbol(m.mDiff[2]))
		gl = int32(fold(corr + clamp(diff+lo8(last.G))))
	} else {
		gl = lo8(last.G)
	}
	if sym&(1<<4) != 0 {
		corr := int32(dec.DecodeSymbol(m.mDiff[4]))
		diff = (diff + gl - lo8(last.G)) / 2
		bl = int32(fold(corr + clamp(diff+lo8(last.B))))
	} else {
		bl = lo8(last.B)
	}

	diff = hi8(cur.R) - hi8(last.R)
	var gh, bh int32
	if sym&(1<<3) != 0 {
		corr := int32(dec.DecodeSymbol(m.mDiff[3]))
		gh = int32(fold(corr + clamp(diff+hi8(last.G))))
	} else {
		gh = hi8(last.G)
	}
	if sym&(1<<5) != 0 {
		corr := int32(dec.DecodeSymbol(m.mDiff[5]))
		diff = (diff + gh - hi8(last.G)) / 2
		bh = int32(fold(corr + clamp(diff+hi8(last.B))))
	} else {
		bh = hi8(last.B)
	}
	cur.G = uint16(gh<<8 | gl)
	cur.B = uint16(bh<<8 | bl)
}

type rgb12v2Writer struct {
	enc       *rc.Encoder
	m         *rgbModels
	last, cur RGBRecord
}

func (w *rgb12v2Writer) Init(item []byte, context *uint32) error {
	w.last.Unpack(item[:RGB12Size])
	w.m.init()
	return nil
}

func (w *rgb12v2Writer) Write(item []byte, context *uint32) error {
	w.cur.Unpack(item[:RGB12Size])
	w.m.write(w.enc, &w.last, &w.cur)
	w.last = w.cur
	return w.enc.Err()
}

type rgb12v2Reader struct {
	dec       *rc.Decoder
	m         *rgbModels
	last, cur RGBRecord
}

func (r *rgb12v2Reader) Init(item []byte, context *uint32) error {
	r.last.Unpack(item[:RGB12Size])
	r.m.init()
	return nil
}

func (r *rgb12v2Reader) Read(item []byte, context *uint32) error {
	r.m.read(r.dec, &r.last, &r.cur)
	r.last = r.cur
	r.cur.Pack(item[:RGB12Size])
	return r.dec.Err()
}

// RGB12 version 1 codes every changed byte with an integer compressor.

type rgb12v1Writer struct {
	enc       *rc.Encoder
	mByteUsed *rc.SymbolModel
	ic        *ic.Compressor
	last, cur RGBRecord
}

func newRGB12v1Writer(enc *rc.Encoder) *rgb12v1Writer {
	return &rgb12v1Writer{
		enc:       enc,
		mByteUsed: rc.NewSymbolModel(64, false),
		ic:        ic.NewCompressor(enc, 8, 6),
	}
}

func (w *rgb12v1Writer) Init(item []byte, context *uint32) error {
	w.last.Unpack(item[:RGB12Size])
	w.mByteUsed.Init(nil)
	w.ic.Init()
	return nil
}

func rgbBytes(r *RGBRecord) [6]int32 {
	return [6]int32{lo8(r.R), hi8(r.R), lo8(r.G), hi8(r.G),
		lo8(r.B), hi8(r.B)}
}

func (w *rgb12v1Writer) Write(item []byte, context *uint32) error {
	w.cur.Unpack(item[:RGB12Size])
	sym := rgbChanges(&w.last, &w.cur)
	w.enc.EncodeSymbol(w.mByteUsed, sym)
	lb, cb := rgbBytes(&w.last), rgbBytes(&w.cur)
	for i := uint32(0); i < 6; i++ {
		if sym&(1<<i) != 0 {
			w.ic.Compress(lb[i], cb[i], i)
		}
	}
	w.last = w.cur
	return w.enc.Err()
}

type rgb12v1Reader struct {
	dec       *rc.Decoder
	mByteUsed *rc.SymbolModel
	ic        *ic.Decompressor
	last      RGBRecord
}

func newRGB12v1Reader(dec *rc.Decoder) *rgb12v1Reader {
	return &rgb12v1Reader{
		dec:       dec,
		mByteUsed: rc.NewSymbolModel(64, true),
		ic:        ic.NewDecompressor(dec, 8, 6),
	}
}

func (r *rgb12v1Reader) Init(item []byte, context *uint32) error {
	r.last.Unpack(item[:RGB12Size])
	r.mByteUsed.Init(nil)
	r.ic.Init()
	return nil
}

func (r *rgb12v1Reader) Read(item []byte, context *uint32) error {
	sym := r.dec.DecodeSymbol(r.mByteUsed)
	b := rgbBytes(&r.last)
	for i := uint32(0); i < 6; i++ {
		if sym&(1<<i) != 0 {
			b[i] = r.ic.Decompress(b[i], i) & 0xff
		}
	}
	r.last = RGBRecord{
		R: uint16(b[1]<<8 | b[0]),
		G: uint16(b[3]<<8 | b[2]),
		B: uint16(b[5]<<8 | b[4]),
	}
	r.last.Pack(item[:RGB12Size])
	return r.dec.Err()
}
