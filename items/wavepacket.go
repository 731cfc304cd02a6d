// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"math"

	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Symbols of the offset difference models.
const (
	offsetSame = 0
	offsetSize = 1
	offsetDiff = 2
	offsetFull = 3
)

// wavepacketState is the prediction state of the waveform packet coding.
// Wavepacket13 uses a single state, Wavepacket14 one per scanner channel.
type wavepacketState struct {
	last       WavepacketRecord
	lastDiff32 int32
	symLast    uint32

	mPacketIndex *rc.SymbolModel
	mOffsetDiff  [4]*rc.SymbolModel
}

func (s *wavepacketState) setup(table bool) {
	s.mPacketIndex = rc.NewSymbolModel(256, table)
	for i := range s.mOffsetDiff {
		s.mOffsetDiff[i] = rc.NewSymbolModel(4, table)
	}
}

func (s *wavepacketState) init(item []byte) {
	s.last.Unpack(item)
	s.lastDiff32 = 0
	s.symLast = 0
	s.mPacketIndex.Init(nil)
	for _, m := range s.mOffsetDiff {
		m.Init(nil)
	}
}

func f32bits(f float32) int32 { return int32(math.Float32bits(f)) }

func f32from(u int32) float32 { return math.Float32frombits(uint32(u)) }

type wavepacketEncoder struct {
	wavepacketState
	enc           *rc.Encoder
	icOffsetDiff  *ic.Compressor
	icPacketSize  *ic.Compressor
	icReturnPoint *ic.Compressor
	icXYZ         *ic.Compressor
	cur           WavepacketRecord
}

func newWavepacketEncoder(enc *rc.Encoder) *wavepacketEncoder {
	e := &wavepacketEncoder{
		enc:           enc,
		icOffsetDiff:  ic.NewCompressor(enc, 32, 1),
		icPacketSize:  ic.NewCompressor(enc, 32, 1),
		icReturnPoint: ic.NewCompressor(enc, 32, 1),
		icXYZ:         ic.NewCompressor(enc, 32, 3),
	}
	e.setup(false)
	return e
}

func (e *wavepacketEncoder) init(item []byte) {
	e.wavepacketState.init(item)
	e.icOffsetDiff.Init()
	e.icPacketSize.Init()
	e.icReturnPoint.Init()
	e.icXYZ.Init()
}

func (e *wavepacketEncoder) write(item []byte) {
	c, l := &e.cur, &e.last
	c.Unpack(item)
	e.enc.EncodeSymbol(e.mPacketIndex, uint32(c.DescriptorIndex))

	m := e.mOffsetDiff[e.symLast]
	d64 := int64(c.Offset - l.Offset)
	if d, ok := fits32(d64); ok {
		switch {
		case d == 0:
			e.symLast = offsetSame
			e.enc.EncodeSymbol(m, offsetSame)
		case int64(d) == int64(l.PacketSize):
			e.symLast = offsetSize
			e.enc.EncodeSymbol(m, offsetSize)
		default:
			e.symLast = offsetDiff
			e.enc.EncodeSymbol(m, offsetDiff)
			e.icOffsetDiff.Compress(e.lastDiff32, d, 0)
			e.lastDiff32 = d
		}
	} else {
		e.symLast = offsetFull
		e.enc.EncodeSymbol(m, offsetFull)
		e.enc.PutInt64(c.Offset)
	}

	e.icPacketSize.Compress(int32(l.PacketSize), int32(c.PacketSize), 0)
	e.icReturnPoint.Compress(f32bits(l.ReturnPoint),
		f32bits(c.ReturnPoint), 0)
	e.icXYZ.Compress(f32bits(l.DX), f32bits(c.DX), 0)
	e.icXYZ.Compress(f32bits(l.DY), f32bits(c.DY), 1)
	e.icXYZ.Compress(f32bits(l.DZ), f32bits(c.DZ), 2)
	*l = *c
}

type wavepacketDecoder struct {
	wavepacketState
	dec           *rc.Decoder
	icOffsetDiff  *ic.Decompressor
	icPacketSize  *ic.Decompressor
	icReturnPoint *ic.Decompressor
	icXYZ         *ic.Decompressor
}

func newWavepacketDecoder(dec *rc.Decoder) *wavepacketDecoder {
	d := &wavepacketDecoder{
		dec:           dec,
		icOffsetDiff:  ic.NewDecompressor(dec, 32, 1),
		icPacketSize:  ic.NewDecompressor(dec, 32, 1),
		icReturnPoint: ic.NewDecompressor(dec, 32, 1),
		icXYZ:         ic.NewDecompressor(dec, 32, 3),
	}
	d.setup(true)
	return d
}

func (d *wavepacketDecoder) init(item []byte) {
	d.wavepacketState.init(item)
	d.icOffsetDiff.Init()
	d.icPacketSize.Init()
	d.icReturnPoint.Init()
	d.icXYZ.Init()
}

func (d *wavepacketDecoder) read(item []byte) {
	l := &d.last
	l.DescriptorIndex = uint8(d.dec.DecodeSymbol(d.mPacketIndex))

	d.symLast = d.dec.DecodeSymbol(d.mOffsetDiff[d.symLast])
	switch d.symLast {
	case offsetSize:
		l.Offset += uint64(l.PacketSize)
	case offsetDiff:
		d.lastDiff32 = d.icOffsetDiff.Decompress(d.lastDiff32, 0)
		l.Offset += uint64(int64(d.lastDiff32))
	case offsetFull:
		l.Offset = d.dec.GetInt64()
	}

	l.PacketSize = uint32(d.icPacketSize.Decompress(int32(l.PacketSize), 0))
	l.ReturnPoint = f32from(d.icReturnPoint.Decompress(
		f32bits(l.ReturnPoint), 0))
	l.DX = f32from(d.icXYZ.Decompress(f32bits(l.DX), 0))
	l.DY = f32from(d.icXYZ.Decompress(f32bits(l.DY), 1))
	l.DZ = f32from(d.icXYZ.Decompress(f32bits(l.DZ), 2))
	l.Pack(item)
}

type wavepacket13Writer struct{ e *wavepacketEncoder }

func (w *wavepacket13Writer) Init(item []byte, context *uint32) error {
	w.e.init(item)
	return nil
}

func (w *wavepacket13Writer) Write(item []byte, context *uint32) error {
	w.e.write(item)
	return w.e.enc.Err()
}

type wavepacket13Reader struct{ d *wavepacketDecoder }

func (r *wavepacket13Reader) Init(item []byte, context *uint32) error {
	r.d.init(item)
	return nil
}

func (r *wavepacket13Reader) Read(item []byte, context *uint32) error {
	r.d.read(item)
	return r.d.dec.Err()
}
