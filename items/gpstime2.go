// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"fmt"

	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Symbols of the version 2 multiplier model. Multipliers from 1 to
// gps2Multi-1 are coded directly, negative multipliers down to
// gps2MultiMinus+1 as gps2Multi-multi.
const (
	gps2Multi      = 500
	gps2MultiMinus = -10
	gps2Unchanged  = gps2Multi - gps2MultiMinus + 1
	gps2CodeFull   = gps2Unchanged + 1
	gps2Total      = gps2CodeFull + 4
)

// gpsTime2 tracks up to four interleaved sequences of GPS times, each with
// its own last difference. New sequences replace the oldest one.
type gpsTime2 struct {
	last, next int
	times      [4]int64
	diffs      [4]int32
	extremes   [4]int32
	mMulti     *rc.SymbolModel
	m0Diff     *rc.SymbolModel
}

func (g *gpsTime2) setup(table bool) {
	g.mMulti = rc.NewSymbolModel(gps2Total, table)
	g.m0Diff = rc.NewSymbolModel(6, table)
}

func (g *gpsTime2) init(t int64) {
	g.last, g.next = 0, 0
	g.times = [4]int64{t}
	g.diffs = [4]int32{}
	g.extremes = [4]int32{}
	g.mMulti.Init(nil)
	g.m0Diff.Init(nil)
}

func (g *gpsTime2) extreme(d int32) {
	g.extremes[g.last]++
	if g.extremes[g.last] > 3 {
		g.diffs[g.last] = d
		g.extremes[g.last] = 0
	}
}

// otherSequence returns the offset i of a sequence whose last time is
// within 32-bit reach of t. Zero is returned if there is none.
func (g *gpsTime2) otherSequence(t int64) int {
	for i := 1; i < 4; i++ {
		if _, ok := fits32(t - g.times[(g.last+i)&3]); ok {
			return i
		}
	}
	return 0
}

// startSequence makes the next slot the current sequence.
func (g *gpsTime2) startSequence(t int64) {
	g.next = (g.next + 1) & 3
	g.last = g.next
	g.times[g.last] = t
	g.diffs[g.last] = 0
	g.extremes[g.last] = 0
}

func high32(t int64) int32 { return int32(uint64(t) >> 32) }

// gpsTime2Encoder writes GPS times into an encoder. It is used by the
// GPSTime11 version 2 writer and by the gps time layer of Point14.
type gpsTime2Encoder struct {
	gpsTime2
	enc *rc.Encoder
	ic  *ic.Compressor
}

func newGPSTime2Encoder(enc *rc.Encoder) *gpsTime2Encoder {
	g := &gpsTime2Encoder{enc: enc, ic: ic.NewCompressor(enc, 32, 9)}
	g.setup(false)
	return g
}

func (g *gpsTime2Encoder) init(t int64) {
	g.gpsTime2.init(t)
	g.ic.Init()
}

func (g *gpsTime2Encoder) write(t int64) {
	for {
		last := g.last
		if t == g.times[last] {
			if g.diffs[last] == 0 {
				g.enc.EncodeSymbol(g.m0Diff, 0)
			} else {
				g.enc.EncodeSymbol(g.mMulti, gps2Unchanged)
			}
			return
		}
		d, ok := fits32(t - g.times[last])
		if !ok {
			if i := g.otherSequence(t); i > 0 {
				if g.diffs[last] == 0 {
					g.enc.EncodeSymbol(g.m0Diff, uint32(i+2))
				} else {
					g.enc.EncodeSymbol(g.mMulti,
						uint32(gps2CodeFull+i))
				}
				g.last = (last + i) & 3
				continue
			}
			if g.diffs[last] == 0 {
				g.enc.EncodeSymbol(g.m0Diff, 2)
			} else {
				g.enc.EncodeSymbol(g.mMulti, gps2CodeFull)
			}
			g.ic.Compress(high32(g.times[last]), high32(t), 8)
			g.enc.PutInt(uint32(t))
			g.startSequence(t)
			return
		}
		if g.diffs[last] == 0 {
			g.enc.EncodeSymbol(g.m0Diff, 1)
			g.ic.Compress(0, d, 0)
			g.diffs[last] = d
			g.extremes[last] = 0
		} else {
			g.writeMulti(d)
		}
		g.times[last] = t
		return
	}
}

func (g *gpsTime2Encoder) writeMulti(d int32) {
	last := g.last
	diff := g.diffs[last]
	multi := quantize(float32(d) / float32(diff))
	switch {
	case multi == 1:
		g.enc.EncodeSymbol(g.mMulti, 1)
		g.ic.Compress(diff, d, 1)
		g.extremes[last] = 0
	case multi > 0 && multi < gps2Multi:
		g.enc.EncodeSymbol(g.mMulti, uint32(multi))
		var ctx uint32 = 3
		if multi < 10 {
			ctx = 2
		}
		g.ic.Compress(multi*diff, d, ctx)
	case multi >= gps2Multi:
		g.enc.EncodeSymbol(g.mMulti, gps2Multi)
		g.ic.Compress(gps2Multi*diff, d, 4)
		g.extreme(d)
	case multi < 0 && multi > gps2MultiMinus:
		g.enc.EncodeSymbol(g.mMulti, uint32(gps2Multi-multi))
		g.ic.Compress(multi*diff, d, 5)
	case multi < 0:
		g.enc.EncodeSymbol(g.mMulti, gps2Multi-gps2MultiMinus)
		g.ic.Compress(gps2MultiMinus*diff, d, 6)
		g.extreme(d)
	default:
		g.enc.EncodeSymbol(g.mMulti, 0)
		g.ic.Compress(0, d, 7)
		g.extreme(d)
	}
}

// gpsTime2Decoder reads the GPS times written by gpsTime2Encoder.
type gpsTime2Decoder struct {
	gpsTime2
	dec *rc.Decoder
	ic  *ic.Decompressor
}

func newGPSTime2Decoder(dec *rc.Decoder) *gpsTime2Decoder {
	g := &gpsTime2Decoder{dec: dec, ic: ic.NewDecompressor(dec, 32, 9)}
	g.setup(true)
	return g
}

func (g *gpsTime2Decoder) init(t int64) {
	g.gpsTime2.init(t)
	g.ic.Init()
}

// read decodes the next time. The encoder switches the sequence at most
// once per value; a second switch is reported as corruption.
func (g *gpsTime2Decoder) read() (int64, error) {
	switched := false
	for {
		last := g.last
		var sym uint32
		if g.diffs[last] == 0 {
			sym = g.dec.DecodeSymbol(g.m0Diff)
			switch {
			case sym == 0:
			case sym == 1:
				d := g.ic.Decompress(0, 0)
				g.diffs[last] = d
				g.extremes[last] = 0
				g.times[last] += int64(d)
			case sym == 2:
				g.readSequence()
			default:
				if switched {
					return 0, g.switchError()
				}
				switched = true
				g.last = (last + int(sym) - 2) & 3
				continue
			}
			return g.times[g.last], g.dec.Err()
		}

		sym = g.dec.DecodeSymbol(g.mMulti)
		switch {
		case sym == 1:
			g.times[last] += int64(g.ic.Decompress(g.diffs[last], 1))
			g.extremes[last] = 0
		case sym < gps2Unchanged:
			g.times[last] += int64(g.readMulti(int32(sym)))
		case sym == gps2Unchanged:
		case sym == gps2CodeFull:
			g.readSequence()
		default:
			if switched {
				return 0, g.switchError()
			}
			switched = true
			g.last = (last + int(sym) - gps2CodeFull) & 3
			continue
		}
		return g.times[g.last], g.dec.Err()
	}
}

func (g *gpsTime2Decoder) switchError() error {
	if err := g.dec.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: repeated gps time sequence switch",
		ErrCorrupt)
}

func (g *gpsTime2Decoder) readMulti(multi int32) int32 {
	diff := g.diffs[g.last]
	switch {
	case multi == 0:
		d := g.ic.Decompress(0, 7)
		g.extreme(d)
		return d
	case multi < gps2Multi:
		var ctx uint32 = 3
		if multi < 10 {
			ctx = 2
		}
		return g.ic.Decompress(multi*diff, ctx)
	case multi == gps2Multi:
		d := g.ic.Decompress(gps2Multi*diff, 4)
		g.extreme(d)
		return d
	}
	multi = gps2Multi - multi
	if multi > gps2MultiMinus {
		return g.ic.Decompress(multi*diff, 5)
	}
	d := g.ic.Decompress(gps2MultiMinus*diff, 6)
	g.extreme(d)
	return d
}

func (g *gpsTime2Decoder) readSequence() {
	hi := g.ic.Decompress(high32(g.times[g.last]), 8)
	lo := g.dec.GetInt()
	g.startSequence(int64(uint64(uint32(hi))<<32 | uint64(lo)))
}

type gpsTime11v2Writer struct {
	g *gpsTime2Encoder
}

func (w *gpsTime11v2Writer) Init(item []byte, context *uint32) error {
	w.g.init(int64(le.Uint64(item)))
	return nil
}

func (w *gpsTime11v2Writer) Write(item []byte, context *uint32) error {
	w.g.write(int64(le.Uint64(item)))
	return w.g.enc.Err()
}

type gpsTime11v2Reader struct {
	g *gpsTime2Decoder
}

func (r *gpsTime11v2Reader) Init(item []byte, context *uint32) error {
	r.g.init(int64(le.Uint64(item)))
	return nil
}

func (r *gpsTime11v2Reader) Read(item []byte, context *uint32) error {
	t, err := r.g.read()
	if err != nil {
		return err
	}
	le.PutUint64(item, uint64(t))
	return nil
}
