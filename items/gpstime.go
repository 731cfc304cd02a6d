// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"math"

	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// GPS times are compressed as the 64-bit integers sharing the bit pattern
// of the double values. Consecutive differences are usually small multiples
// of each other.

// truncate converts f to an integer rounding towards zero. Values outside
// the int32 range saturate.
func truncate(f float32) int32 {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// quantize rounds f to the nearest integer, halves away from zero.
func quantize(f float32) int32 {
	if f >= 0 {
		return truncate(f + 0.5)
	}
	return truncate(f - 0.5)
}

// fits32 returns d as int32 and whether it is representable as such.
func fits32(d int64) (int32, bool) {
	return int32(d), int64(int32(d)) == d
}

// Symbols of the version 1 multiplier model.
const (
	gps1MultiMax   = 512
	gps1Full       = gps1MultiMax - 2
	gps1Unchanged  = gps1MultiMax - 1
	gps1MultiLimit = gps1MultiMax - 3
)

type gpsTime1 struct {
	lastTime int64
	lastDiff int32
	extremes int32
	mMulti   *rc.SymbolModel
	m0Diff   *rc.SymbolModel
}

func (g *gpsTime1) setup(table bool) {
	g.mMulti = rc.NewSymbolModel(gps1MultiMax, table)
	g.m0Diff = rc.NewSymbolModel(3, table)
}

func (g *gpsTime1) init(item []byte) {
	g.lastTime = int64(le.Uint64(item))
	g.lastDiff = 0
	g.extremes = 0
	g.mMulti.Init(nil)
	g.m0Diff.Init(nil)
}

func (g *gpsTime1) extreme(d int32) {
	g.extremes++
	if g.extremes > 3 {
		g.lastDiff = d
		g.extremes = 0
	}
}

// gps1Context returns the integer compressor context for a multiplier
// symbol between 2 and gps1MultiLimit.
func gps1Context(multi int32) uint32 {
	switch {
	case multi < 10:
		return 2
	case multi < 50:
		return 3
	}
	return 4
}

type gpsTime11v1Writer struct {
	gpsTime1
	enc *rc.Encoder
	ic  *ic.Compressor
}

func newGPSTime11v1Writer(enc *rc.Encoder) *gpsTime11v1Writer {
	w := &gpsTime11v1Writer{enc: enc, ic: ic.NewCompressor(enc, 32, 6)}
	w.setup(false)
	return w
}

func (w *gpsTime11v1Writer) Init(item []byte, context *uint32) error {
	w.init(item)
	w.ic.Init()
	return nil
}

func (w *gpsTime11v1Writer) Write(item []byte, context *uint32) error {
	t := int64(le.Uint64(item))
	if t == w.lastTime {
		if w.lastDiff == 0 {
			w.enc.EncodeSymbol(w.m0Diff, 0)
		} else {
			w.enc.EncodeSymbol(w.mMulti, gps1Unchanged)
		}
		return w.enc.Err()
	}
	d, ok := fits32(t - w.lastTime)
	switch {
	case !ok:
		if w.lastDiff == 0 {
			w.enc.EncodeSymbol(w.m0Diff, 2)
		} else {
			w.enc.EncodeSymbol(w.mMulti, gps1Full)
		}
		w.enc.PutInt64(uint64(t))
	case w.lastDiff == 0:
		w.enc.EncodeSymbol(w.m0Diff, 1)
		w.ic.Compress(0, d, 0)
		w.lastDiff = d
	default:
		multi := truncate(float32(d)/float32(w.lastDiff) + 0.5)
		if multi >= gps1MultiLimit {
			multi = gps1MultiLimit
		} else if multi < 0 {
			multi = 0
		}
		w.enc.EncodeSymbol(w.mMulti, uint32(multi))
		switch multi {
		case 1:
			w.ic.Compress(w.lastDiff, d, 1)
			w.lastDiff = d
			w.extremes = 0
		case 0:
			w.ic.Compress(0, d, 5)
			w.extreme(d)
		default:
			w.ic.Compress(multi*w.lastDiff, d, gps1Context(multi))
			if multi == gps1MultiLimit {
				w.extreme(d)
			}
		}
	}
	w.lastTime = t
	return w.enc.Err()
}

type gpsTime11v1Reader struct {
	gpsTime1
	dec *rc.Decoder
	ic  *ic.Decompressor
}

func newGPSTime11v1Reader(dec *rc.Decoder) *gpsTime11v1Reader {
	r := &gpsTime11v1Reader{dec: dec, ic: ic.NewDecompressor(dec, 32, 6)}
	r.setup(true)
	return r
}

func (r *gpsTime11v1Reader) Init(item []byte, context *uint32) error {
	r.init(item)
	r.ic.Init()
	return nil
}

func (r *gpsTime11v1Reader) Read(item []byte, context *uint32) error {
	if r.lastDiff == 0 {
		switch r.dec.DecodeSymbol(r.m0Diff) {
		case 1:
			r.lastDiff = r.ic.Decompress(0, 0)
			r.lastTime += int64(r.lastDiff)
		case 2:
			r.lastTime = int64(r.dec.GetInt64())
		}
	} else {
		multi := int32(r.dec.DecodeSymbol(r.mMulti))
		switch {
		case multi == 1:
			d := r.ic.Decompress(r.lastDiff, 1)
			r.lastDiff = d
			r.extremes = 0
			r.lastTime += int64(d)
		case multi == 0:
			d := r.ic.Decompress(0, 5)
			r.extreme(d)
			r.lastTime += int64(d)
		case multi <= gps1MultiLimit:
			d := r.ic.Decompress(multi*r.lastDiff, gps1Context(multi))
			if multi == gps1MultiLimit {
				r.extreme(d)
			}
			r.lastTime += int64(d)
		case multi == gps1Full:
			r.lastTime = int64(r.dec.GetInt64())
		}
	}
	le.PutUint64(item, uint64(r.lastTime))
	return r.dec.Err()
}
