// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Bits of the changed values symbol of Point10 version 1.
const (
	p10v1Intensity      = 1 << 5
	p10v1BitByte        = 1 << 4
	p10v1Classification = 1 << 3
	p10v1ScanAngle      = 1 << 2
	p10v1UserData       = 1 << 1
	p10v1PointSource    = 1 << 0
)

// point10v1 is the state shared by reader and writer of Point10 version 1.
type point10v1 struct {
	last    [Point10Size]byte
	lastX   [3]int32
	lastY   [3]int32
	lastInc int

	mChanged        *rc.SymbolModel
	mBitByte        []*rc.SymbolModel
	mClassification []*rc.SymbolModel
	mUserData       []*rc.SymbolModel
}

func (p *point10v1) setup(table bool) {
	p.mChanged = rc.NewSymbolModel(64, table)
	p.mBitByte = make([]*rc.SymbolModel, 256)
	p.mClassification = make([]*rc.SymbolModel, 256)
	p.mUserData = make([]*rc.SymbolModel, 256)
}

func (p *point10v1) init(item []byte) {
	copy(p.last[:], item)
	p.lastX = [3]int32{}
	p.lastY = [3]int32{}
	p.lastInc = 0
	p.mChanged.Init(nil)
	clearModels(p.mBitByte)
	clearModels(p.mClassification)
	clearModels(p.mUserData)
}

func (p *point10v1) record(dx, dy int32) {
	p.lastX[p.lastInc] = dx
	p.lastY[p.lastInc] = dy
	p.lastInc++
	if p.lastInc > 2 {
		p.lastInc = 0
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

type point10v1Writer struct {
	point10v1
	enc             *rc.Encoder
	icDX, icDY, icZ *ic.Compressor
	icIntensity     *ic.Compressor
	icScanAngle     *ic.Compressor
	icPointSourceID *ic.Compressor
	cur, prev       Point10Record
}

func newPoint10v1Writer(enc *rc.Encoder) *point10v1Writer {
	w := &point10v1Writer{
		enc:             enc,
		icDX:            ic.NewCompressor(enc, 32, 1),
		icDY:            ic.NewCompressor(enc, 32, 20),
		icZ:             ic.NewCompressor(enc, 32, 20),
		icIntensity:     ic.NewCompressor(enc, 16, 1),
		icScanAngle:     ic.NewCompressor(enc, 8, 4),
		icPointSourceID: ic.NewCompressor(enc, 16, 1),
	}
	w.setup(false)
	return w
}

func (w *point10v1Writer) Init(item []byte, context *uint32) error {
	w.init(item)
	w.icDX.Init()
	w.icDY.Init()
	w.icZ.Init()
	w.icIntensity.Init()
	w.icScanAngle.Init()
	w.icPointSourceID.Init()
	return nil
}

func (w *point10v1Writer) Write(item []byte, context *uint32) error {
	w.prev.Unpack(w.last[:])
	w.cur.Unpack(item)

	dx := w.cur.X - w.prev.X
	dy := w.cur.Y - w.prev.Y
	w.icDX.Compress(median3(w.lastX), dx, 0)
	k := uint32(w.icDX.K())
	w.icDY.Compress(median3(w.lastY), dy, minU32(k, 19))
	k = (k + uint32(w.icDY.K())) / 2
	w.icZ.Compress(w.prev.Z, w.cur.Z, minU32(k, 19))

	var changed uint32
	if w.cur.Intensity != w.prev.Intensity {
		changed |= p10v1Intensity
	}
	if item[14] != w.last[14] {
		changed |= p10v1BitByte
	}
	if item[15] != w.last[15] {
		changed |= p10v1Classification
	}
	if item[16] != w.last[16] {
		changed |= p10v1ScanAngle
	}
	if item[17] != w.last[17] {
		changed |= p10v1UserData
	}
	if w.cur.PointSourceID != w.prev.PointSourceID {
		changed |= p10v1PointSource
	}
	w.enc.EncodeSymbol(w.mChanged, changed)

	if changed&p10v1Intensity != 0 {
		w.icIntensity.Compress(int32(w.prev.Intensity),
			int32(w.cur.Intensity), 0)
	}
	if changed&p10v1BitByte != 0 {
		m := lazySymbol(w.mBitByte, int(w.last[14]), 256, false)
		w.enc.EncodeSymbol(m, uint32(item[14]))
	}
	if changed&p10v1Classification != 0 {
		m := lazySymbol(w.mClassification, int(w.last[15]), 256, false)
		w.enc.EncodeSymbol(m, uint32(item[15]))
	}
	if changed&p10v1ScanAngle != 0 {
		w.icScanAngle.Compress(int32(w.last[16]), int32(item[16]),
			minU32(k, 3))
	}
	if changed&p10v1UserData != 0 {
		m := lazySymbol(w.mUserData, int(w.last[17]), 256, false)
		w.enc.EncodeSymbol(m, uint32(item[17]))
	}
	if changed&p10v1PointSource != 0 {
		w.icPointSourceID.Compress(int32(w.prev.PointSourceID),
			int32(w.cur.PointSourceID), 0)
	}

	w.record(dx, dy)
	copy(w.last[:], item)
	return w.enc.Err()
}

type point10v1Reader struct {
	point10v1
	dec             *rc.Decoder
	icDX, icDY, icZ *ic.Decompressor
	icIntensity     *ic.Decompressor
	icScanAngle     *ic.Decompressor
	icPointSourceID *ic.Decompressor
	r               Point10Record
}

func newPoint10v1Reader(dec *rc.Decoder) *point10v1Reader {
	r := &point10v1Reader{
		dec:             dec,
		icDX:            ic.NewDecompressor(dec, 32, 1),
		icDY:            ic.NewDecompressor(dec, 32, 20),
		icZ:             ic.NewDecompressor(dec, 32, 20),
		icIntensity:     ic.NewDecompressor(dec, 16, 1),
		icScanAngle:     ic.NewDecompressor(dec, 8, 4),
		icPointSourceID: ic.NewDecompressor(dec, 16, 1),
	}
	r.setup(true)
	return r
}

func (r *point10v1Reader) Init(item []byte, context *uint32) error {
	r.init(item)
	r.icDX.Init()
	r.icDY.Init()
	r.icZ.Init()
	r.icIntensity.Init()
	r.icScanAngle.Init()
	r.icPointSourceID.Init()
	return nil
}

func (r *point10v1Reader) Read(item []byte, context *uint32) error {
	p := &r.r
	p.Unpack(r.last[:])

	dx := r.icDX.Decompress(median3(r.lastX), 0)
	p.X += dx
	k := uint32(r.icDX.K())
	dy := r.icDY.Decompress(median3(r.lastY), minU32(k, 19))
	p.Y += dy
	k = (k + uint32(r.icDY.K())) / 2
	p.Z = r.icZ.Decompress(p.Z, minU32(k, 19))

	changed := r.dec.DecodeSymbol(r.mChanged)
	if changed != 0 {
		if changed&p10v1Intensity != 0 {
			p.Intensity = uint16(r.icIntensity.Decompress(
				int32(p.Intensity), 0))
		}
		p.Pack(r.last[:])
		if changed&p10v1BitByte != 0 {
			m := lazySymbol(r.mBitByte, int(r.last[14]), 256, true)
			r.last[14] = byte(r.dec.DecodeSymbol(m))
		}
		if changed&p10v1Classification != 0 {
			m := lazySymbol(r.mClassification, int(r.last[15]),
				256, true)
			r.last[15] = byte(r.dec.DecodeSymbol(m))
		}
		if changed&p10v1ScanAngle != 0 {
			r.last[16] = byte(r.icScanAngle.Decompress(
				int32(r.last[16]), minU32(k, 3)))
		}
		if changed&p10v1UserData != 0 {
			m := lazySymbol(r.mUserData, int(r.last[17]), 256, true)
			r.last[17] = byte(r.dec.DecodeSymbol(m))
		}
		p.Unpack(r.last[:])
		if changed&p10v1PointSource != 0 {
			p.PointSourceID = uint16(r.icPointSourceID.Decompress(
				int32(p.PointSourceID), 0))
		}
	}

	p.Pack(r.last[:])
	r.record(dx, dy)
	copy(item, r.last[:])
	return r.dec.Err()
}
