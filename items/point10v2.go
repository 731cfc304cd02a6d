// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Bits of the changed values symbol of Point10 version 2.
const (
	p10v2BitByte        = 1 << 5
	p10v2Intensity      = 1 << 4
	p10v2Classification = 1 << 3
	p10v2ScanAngle      = 1 << 2
	p10v2UserData       = 1 << 1
	p10v2PointSource    = 1 << 0
)

// point10v2 holds the prediction state of Point10 version 2. Deltas and
// intensities are tracked per return class m, heights per return level l.
type point10v2 struct {
	last          Point10Record
	lastBitByte   byte
	lastIntensity [16]uint16
	lastXDiff     [16]median5
	lastYDiff     [16]median5
	lastHeight    [8]int32

	mChanged        *rc.SymbolModel
	mScanAngle      [2]*rc.SymbolModel
	mBitByte        []*rc.SymbolModel
	mClassification []*rc.SymbolModel
	mUserData       []*rc.SymbolModel
}

func (p *point10v2) setup(table bool) {
	p.mChanged = rc.NewSymbolModel(64, table)
	p.mScanAngle[0] = rc.NewSymbolModel(256, table)
	p.mScanAngle[1] = rc.NewSymbolModel(256, table)
	p.mBitByte = make([]*rc.SymbolModel, 256)
	p.mClassification = make([]*rc.SymbolModel, 256)
	p.mUserData = make([]*rc.SymbolModel, 256)
}

func (p *point10v2) init(item []byte) {
	p.last.Unpack(item)
	p.lastBitByte = item[14]
	p.lastIntensity = [16]uint16{}
	for i := range p.lastXDiff {
		p.lastXDiff[i].init()
		p.lastYDiff[i].init()
	}
	p.lastHeight = [8]int32{}
	p.mChanged.Init(nil)
	p.mScanAngle[0].Init(nil)
	p.mScanAngle[1].Init(nil)
	clearModels(p.mBitByte)
	clearModels(p.mClassification)
	clearModels(p.mUserData)
}

// returnClasses returns the class m and the level l for the bit byte.
func returnClasses(bitByte byte) (n, m, l uint32) {
	r := bitByte & 7
	n8 := (bitByte >> 3) & 7
	return uint32(n8), uint32(numberReturnMap[n8][r]),
		uint32(numberReturnLevel[n8][r])
}

// contextDY computes the context for the Y delta from the class bits of
// the X corrector.
func contextDY(n, kx uint32) uint32 {
	c := b2u(n == 1)
	if kx < 20 {
		return c + zeroBit0(kx)
	}
	return c + 20
}

// contextZ computes the context for Z from the average class bits k of
// the X and Y correctors.
func contextZ(n, k uint32) uint32 {
	c := b2u(n == 1)
	if k < 18 {
		return c + zeroBit0(k)
	}
	return c + 18
}

type point10v2Writer struct {
	point10v2
	enc             *rc.Encoder
	icDX, icDY, icZ *ic.Compressor
	icIntensity     *ic.Compressor
	icPointSourceID *ic.Compressor
	cur             Point10Record
}

func newPoint10v2Writer(enc *rc.Encoder) *point10v2Writer {
	w := &point10v2Writer{
		enc:             enc,
		icDX:            ic.NewCompressor(enc, 32, 2),
		icDY:            ic.NewCompressor(enc, 32, 22),
		icZ:             ic.NewCompressor(enc, 32, 20),
		icIntensity:     ic.NewCompressor(enc, 16, 4),
		icPointSourceID: ic.NewCompressor(enc, 16, 1),
	}
	w.setup(false)
	return w
}

func (w *point10v2Writer) Init(item []byte, context *uint32) error {
	w.init(item)
	w.icDX.Init()
	w.icDY.Init()
	w.icZ.Init()
	w.icIntensity.Init()
	w.icPointSourceID.Init()
	return nil
}

func (w *point10v2Writer) Write(item []byte, context *uint32) error {
	c := &w.cur
	c.Unpack(item)
	last := &w.last
	n, m, l := returnClasses(item[14])

	var changed uint32
	if item[14] != w.lastBitByte {
		changed |= p10v2BitByte
	}
	if w.lastIntensity[m] != c.Intensity {
		changed |= p10v2Intensity
	}
	if c.Classification != last.Classification {
		changed |= p10v2Classification
	}
	if c.ScanAngleRank != last.ScanAngleRank {
		changed |= p10v2ScanAngle
	}
	if c.UserData != last.UserData {
		changed |= p10v2UserData
	}
	if c.PointSourceID != last.PointSourceID {
		changed |= p10v2PointSource
	}
	w.enc.EncodeSymbol(w.mChanged, changed)

	if changed&p10v2BitByte != 0 {
		sm := lazySymbol(w.mBitByte, int(w.lastBitByte), 256, false)
		w.enc.EncodeSymbol(sm, uint32(item[14]))
	}
	if changed&p10v2Intensity != 0 {
		w.icIntensity.Compress(int32(w.lastIntensity[m]),
			int32(c.Intensity), minU32(m, 3))
		w.lastIntensity[m] = c.Intensity
	}
	if changed&p10v2Classification != 0 {
		sm := lazySymbol(w.mClassification, int(last.Classification),
			256, false)
		w.enc.EncodeSymbol(sm, uint32(c.Classification))
	}
	if changed&p10v2ScanAngle != 0 {
		w.enc.EncodeSymbol(w.mScanAngle[c.ScanDirectionFlag],
			fold(int32(uint8(c.ScanAngleRank))-
				int32(uint8(last.ScanAngleRank))))
	}
	if changed&p10v2UserData != 0 {
		sm := lazySymbol(w.mUserData, int(last.UserData), 256, false)
		w.enc.EncodeSymbol(sm, uint32(c.UserData))
	}
	if changed&p10v2PointSource != 0 {
		w.icPointSourceID.Compress(int32(last.PointSourceID),
			int32(c.PointSourceID), 0)
	}

	dx := c.X - last.X
	w.icDX.Compress(w.lastXDiff[m].get(), dx, b2u(n == 1))
	w.lastXDiff[m].add(dx)

	kx := uint32(w.icDX.K())
	dy := c.Y - last.Y
	w.icDY.Compress(w.lastYDiff[m].get(), dy, contextDY(n, kx))
	w.lastYDiff[m].add(dy)

	k := (kx + uint32(w.icDY.K())) / 2
	w.icZ.Compress(w.lastHeight[l], c.Z, contextZ(n, k))
	w.lastHeight[l] = c.Z

	*last = *c
	w.lastBitByte = item[14]
	return w.enc.Err()
}

type point10v2Reader struct {
	point10v2
	dec             *rc.Decoder
	icDX, icDY, icZ *ic.Decompressor
	icIntensity     *ic.Decompressor
	icPointSourceID *ic.Decompressor
}

func newPoint10v2Reader(dec *rc.Decoder) *point10v2Reader {
	r := &point10v2Reader{
		dec:             dec,
		icDX:            ic.NewDecompressor(dec, 32, 2),
		icDY:            ic.NewDecompressor(dec, 32, 22),
		icZ:             ic.NewDecompressor(dec, 32, 20),
		icIntensity:     ic.NewDecompressor(dec, 16, 4),
		icPointSourceID: ic.NewDecompressor(dec, 16, 1),
	}
	r.setup(true)
	return r
}

func (r *point10v2Reader) Init(item []byte, context *uint32) error {
	r.init(item)
	r.icDX.Init()
	r.icDY.Init()
	r.icZ.Init()
	r.icIntensity.Init()
	r.icPointSourceID.Init()
	return nil
}

func (r *point10v2Reader) Read(item []byte, context *uint32) error {
	last := &r.last
	changed := r.dec.DecodeSymbol(r.mChanged)

	if changed&p10v2BitByte != 0 {
		sm := lazySymbol(r.mBitByte, int(r.lastBitByte), 256, true)
		r.lastBitByte = byte(r.dec.DecodeSymbol(sm))
		b := r.lastBitByte
		last.ReturnNumber = b & 7
		last.NumberOfReturns = (b >> 3) & 7
		last.ScanDirectionFlag = (b >> 6) & 1
		last.EdgeOfFlightLine = b >> 7
	}
	n, m, l := returnClasses(r.lastBitByte)

	if changed&p10v2Intensity != 0 {
		last.Intensity = uint16(r.icIntensity.Decompress(
			int32(r.lastIntensity[m]), minU32(m, 3)))
		r.lastIntensity[m] = last.Intensity
	} else {
		last.Intensity = r.lastIntensity[m]
	}
	if changed&p10v2Classification != 0 {
		sm := lazySymbol(r.mClassification, int(last.Classification),
			256, true)
		last.Classification = uint8(r.dec.DecodeSymbol(sm))
	}
	if changed&p10v2ScanAngle != 0 {
		sym := r.dec.DecodeSymbol(r.mScanAngle[last.ScanDirectionFlag])
		last.ScanAngleRank = int8(fold(int32(sym) +
			int32(uint8(last.ScanAngleRank))))
	}
	if changed&p10v2UserData != 0 {
		sm := lazySymbol(r.mUserData, int(last.UserData), 256, true)
		last.UserData = uint8(r.dec.DecodeSymbol(sm))
	}
	if changed&p10v2PointSource != 0 {
		last.PointSourceID = uint16(r.icPointSourceID.Decompress(
			int32(last.PointSourceID), 0))
	}

	dx := r.icDX.Decompress(r.lastXDiff[m].get(), b2u(n == 1))
	last.X += dx
	r.lastXDiff[m].add(dx)

	kx := uint32(r.icDX.K())
	dy := r.icDY.Decompress(r.lastYDiff[m].get(), contextDY(n, kx))
	last.Y += dy
	r.lastYDiff[m].add(dy)

	k := (kx + uint32(r.icDY.K())) / 2
	last.Z = r.icZ.Decompress(r.lastHeight[l], contextZ(n, k))
	r.lastHeight[l] = last.Z

	last.Pack(item)
	return r.dec.Err()
}
