// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import (
	"errors"
	"io"
	"math"
)

// ErrCorrupt indicates that the decoder produced a value outside of the
// range the encoder could have written.
var ErrCorrupt = errors.New("rc: corrupt code stream")

// Decoder decodes the bits and symbols written by an Encoder.
//
// The decoding methods don't return errors. The first error is kept and
// reported by Err; after an error the decoder continues to return
// values, which are meaningless.
type Decoder struct {
	r      io.ByteReader
	value  uint32
	length uint32
	err    error
}

// NewDecoder creates a decoder and reads the first four bytes of the code
// stream from r.
func NewDecoder(r io.ByteReader) (*Decoder, error) {
	d := new(Decoder)
	if err := d.Init(r); err != nil {
		return nil, err
	}
	return d, nil
}

// Init starts decoding a new code stream from r.
func (d *Decoder) Init(r io.ByteReader) error {
	d.r = r
	d.err = nil
	d.length = MaxLength
	d.value = 0
	for i := 0; i < 4; i++ {
		d.value = d.value<<8 | uint32(d.readByte())
	}
	return d.err
}

// Err returns the first error encountered by the decoder.
func (d *Decoder) Err() error { return d.err }

// Done detaches the decoder from its byte stream.
func (d *Decoder) Done() error {
	d.r = nil
	return d.err
}

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) readByte() byte {
	if d.r == nil {
		d.fail(errors.New("rc: decoder not initialized"))
		return 0
	}
	c, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		d.fail(err)
		return 0
	}
	return c
}

func (d *Decoder) renormalize() {
	for {
		d.value = d.value<<8 | uint32(d.readByte())
		d.length <<= 8
		if d.length >= MinLength {
			return
		}
	}
}

// DecodeBit decodes a bit using the adaptive model m.
func (d *Decoder) DecodeBit(m *BitModel) uint32 {
	x := m.bit0Prob * (d.length >> bmLengthShift)
	var bit uint32
	if d.value < x {
		d.length = x
		m.bit0Count++
	} else {
		bit = 1
		d.value -= x
		d.length -= x
	}
	if d.length < MinLength {
		d.renormalize()
	}
	m.bitsUntilUpdate--
	if m.bitsUntilUpdate == 0 {
		m.update()
	}
	return bit
}

// DecodeSymbol decodes a symbol using the adaptive model m.
func (d *Decoder) DecodeSymbol(m *SymbolModel) uint32 {
	var sym, x uint32
	y := d.length

	if m.decoderTable != nil {
		d.length >>= dmLengthShift
		dv := d.value / d.length
		t := dv >> m.tableShift
		if t > m.tableSize {
			// only possible if value >= length
			d.fail(ErrCorrupt)
			t = m.tableSize
		}

		sym = m.decoderTable[t]
		n := m.decoderTable[t+1] + 1

		for n > sym+1 {
			k := (sym + n) >> 1
			if m.distribution[k] > dv {
				n = k
			} else {
				sym = k
			}
		}
		x = m.distribution[sym] * d.length
		if sym != m.lastSymbol {
			y = m.distribution[sym+1] * d.length
		}
	} else {
		d.length >>= dmLengthShift
		n := m.symbols
		k := n >> 1
		for {
			z := d.length * m.distribution[k]
			if z > d.value {
				n = k
				y = z
			} else {
				sym = k
				x = z
			}
			k = (sym + n) >> 1
			if k == sym {
				break
			}
		}
	}

	d.value -= x
	d.length = y - x
	if d.length < MinLength {
		d.renormalize()
	}

	m.symbolCount[sym]++
	m.symbolsUntilUpdate--
	if m.symbolsUntilUpdate == 0 {
		m.update()
	}
	return sym
}

// GetBit reads a bit written by PutBit.
func (d *Decoder) GetBit() uint32 {
	d.length >>= 1
	sym := d.value / d.length
	d.value -= d.length * sym
	if d.length < MinLength {
		d.renormalize()
	}
	if sym >= 2 {
		d.fail(ErrCorrupt)
		return 0
	}
	return sym
}

// GetBits reads n bits written by PutBits.
func (d *Decoder) GetBits(n uint) uint32 {
	if n == 0 || n > 32 {
		panic("rc: bit count out of range")
	}
	if n > 19 {
		lo := uint32(d.GetShort())
		hi := d.GetBits(n - 16)
		return hi<<16 | lo
	}
	d.length >>= n
	sym := d.value / d.length
	d.value -= d.length * sym
	if d.length < MinLength {
		d.renormalize()
	}
	if sym >= 1<<n {
		d.fail(ErrCorrupt)
		return 0
	}
	return sym
}

// GetByte reads a byte written by PutByte.
func (d *Decoder) GetByte() byte {
	d.length >>= 8
	sym := d.value / d.length
	d.value -= d.length * sym
	if d.length < MinLength {
		d.renormalize()
	}
	if sym >= 1<<8 {
		d.fail(ErrCorrupt)
		return 0
	}
	return byte(sym)
}

// GetShort reads a 16-bit value written by PutShort.
func (d *Decoder) GetShort() uint16 {
	d.length >>= 16
	sym := d.value / d.length
	d.value -= d.length * sym
	if d.length < MinLength {
		d.renormalize()
	}
	if sym >= 1<<16 {
		d.fail(ErrCorrupt)
		return 0
	}
	return uint16(sym)
}

// GetInt reads a 32-bit value written by PutInt.
func (d *Decoder) GetInt() uint32 {
	lo := uint32(d.GetShort())
	hi := uint32(d.GetShort())
	return hi<<16 | lo
}

// GetInt64 reads a 64-bit value written by PutInt64.
func (d *Decoder) GetInt64() uint64 {
	lo := uint64(d.GetInt())
	hi := uint64(d.GetInt())
	return hi<<32 | lo
}

// GetFloat reads a float written by PutFloat.
func (d *Decoder) GetFloat() float32 {
	return math.Float32frombits(d.GetInt())
}

// GetDouble reads a double written by PutDouble.
func (d *Decoder) GetDouble() float64 {
	return math.Float64frombits(d.GetInt64())
}
