// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ic codes integers relative to a prediction. The difference, the
// corrector, is split into its magnitude class k, which is coded with an
// adaptive model selected by a context, and the offset inside the class.
package ic

import (
	"fmt"
	"math"

	"github.com/ulikunitz/laz/basics/u32"
	"github.com/ulikunitz/laz/rc"
)

// bitsHigh is the largest class that is coded with a single symbol model.
// Larger classes code their high bitsHigh bits with the model and the
// remaining low bits raw.
const bitsHigh = 8

// corrector holds the range of the corrector values for a given bit
// width.
type corrector struct {
	bits     uint
	contexts uint32
	// zero for 32 bits
	corrRange int64
	corrMin   int64
	corrMax   int64
	k         int
}

func (c *corrector) setup(bits uint, contexts uint32) {
	if bits == 0 || bits > 32 {
		panic(fmt.Errorf("ic: invalid number of bits %d", bits))
	}
	if contexts == 0 {
		panic("ic: at least one context required")
	}
	c.bits = bits
	c.contexts = contexts
	if bits < 32 {
		c.corrRange = 1 << bits
		c.corrMin = -(c.corrRange / 2)
		c.corrMax = c.corrMin + c.corrRange - 1
	} else {
		c.corrRange = 0
		c.corrMin = math.MinInt32
		c.corrMax = math.MaxInt32
	}
}

// CorrectorRange returns the lower and upper bound of the corrector
// values.
func (c *corrector) CorrectorRange() (lo, hi int32) {
	return int32(c.corrMin), int32(c.corrMax)
}

// K returns the magnitude class of the last corrector coded.
func (c *corrector) K() int { return c.k }

func (c *corrector) newModels(table bool) (mBits []*rc.SymbolModel,
	mCorrector0 *rc.BitModel, mCorrector []*rc.SymbolModel) {

	mBits = make([]*rc.SymbolModel, c.contexts)
	for i := range mBits {
		mBits[i] = rc.NewSymbolModel(uint32(c.bits)+1, table)
	}
	mCorrector0 = rc.NewBitModel()
	mCorrector = make([]*rc.SymbolModel, c.bits+1)
	for i := uint(1); i <= c.bits; i++ {
		n := i
		if n > bitsHigh {
			n = bitsHigh
		}
		mCorrector[i] = rc.NewSymbolModel(1<<n, table)
	}
	return mBits, mCorrector0, mCorrector
}

func initModels(mBits []*rc.SymbolModel, mCorrector0 *rc.BitModel,
	mCorrector []*rc.SymbolModel) {

	for _, m := range mBits {
		m.Init(nil)
	}
	mCorrector0.Init()
	for _, m := range mCorrector[1:] {
		m.Init(nil)
	}
}

// Compressor codes integers relative to predictions using an encoder.
type Compressor struct {
	corrector
	enc         *rc.Encoder
	mBits       []*rc.SymbolModel
	mCorrector0 *rc.BitModel
	mCorrector  []*rc.SymbolModel
}

// NewCompressor creates a compressor for values of the given bit width
// with the given number of contexts. The models are initialized.
func NewCompressor(enc *rc.Encoder, bits uint, contexts uint32) *Compressor {
	c := &Compressor{enc: enc}
	c.setup(bits, contexts)
	c.mBits, c.mCorrector0, c.mCorrector = c.newModels(false)
	return c
}

// Init resets all models of the compressor.
func (c *Compressor) Init() {
	initModels(c.mBits, c.mCorrector0, c.mCorrector)
	c.k = 0
}

// Compress codes real relative to pred using the given context.
func (c *Compressor) Compress(pred, real int32, context uint32) {
	corr := int64(real - pred)
	if c.corrRange != 0 {
		if corr < c.corrMin {
			corr += c.corrRange
		} else if corr > c.corrMax {
			corr -= c.corrRange
		}
	}
	c.writeCorrector(int32(corr), c.mBits[context])
}

func (c *Compressor) writeCorrector(corr int32, mBits *rc.SymbolModel) {
	k := u32.Magnitude(corr)
	c.k = k
	c.enc.EncodeSymbol(mBits, uint32(k))
	switch {
	case k == 0:
		c.enc.EncodeBit(c.mCorrector0, uint32(corr))
	case k < 32:
		v := int64(corr)
		if v < 0 {
			v += 1<<k - 1
		} else {
			v--
		}
		if k <= bitsHigh {
			c.enc.EncodeSymbol(c.mCorrector[k], uint32(v))
			return
		}
		k1 := uint(k - bitsHigh)
		lo := uint32(v) & (1<<k1 - 1)
		c.enc.EncodeSymbol(c.mCorrector[k], uint32(v>>k1))
		c.enc.PutBits(k1, lo)
	}
	// k == 32 implies corr == corrMin; nothing else to code.
}

// Decompressor reads the integers written by a Compressor.
type Decompressor struct {
	corrector
	dec         *rc.Decoder
	mBits       []*rc.SymbolModel
	mCorrector0 *rc.BitModel
	mCorrector  []*rc.SymbolModel
}

// NewDecompressor creates a decompressor mirroring NewCompressor.
func NewDecompressor(dec *rc.Decoder, bits uint, contexts uint32) *Decompressor {
	d := &Decompressor{dec: dec}
	d.setup(bits, contexts)
	d.mBits, d.mCorrector0, d.mCorrector = d.newModels(true)
	return d
}

// Init resets all models of the decompressor.
func (d *Decompressor) Init() {
	initModels(d.mBits, d.mCorrector0, d.mCorrector)
	d.k = 0
}

// Decompress returns the value coded relative to pred in the given
// context.
func (d *Decompressor) Decompress(pred int32, context uint32) int32 {
	real := int64(pred) + int64(d.readCorrector(d.mBits[context]))
	if d.corrRange != 0 {
		if real < 0 {
			real += d.corrRange
		} else if real >= d.corrRange {
			real -= d.corrRange
		}
	}
	return int32(real)
}

func (d *Decompressor) readCorrector(mBits *rc.SymbolModel) int32 {
	k := int(d.dec.DecodeSymbol(mBits))
	d.k = k
	switch {
	case k == 0:
		return int32(d.dec.DecodeBit(d.mCorrector0))
	case k < 32:
		var v int64
		if k <= bitsHigh {
			v = int64(d.dec.DecodeSymbol(d.mCorrector[k]))
		} else {
			k1 := uint(k - bitsHigh)
			hi := int64(d.dec.DecodeSymbol(d.mCorrector[k]))
			lo := int64(d.dec.GetBits(k1))
			v = hi<<k1 | lo
		}
		if v >= 1<<(k-1) {
			v++
		} else {
			v -= 1<<k - 1
		}
		return int32(v)
	default:
		return int32(d.corrMin)
	}
}
