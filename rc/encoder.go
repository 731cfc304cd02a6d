// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rc implements the adaptive arithmetic coder used for point
// records. The Encoder narrows a 32-bit interval for every coded bit or
// symbol and the Decoder mirrors it exactly.
package rc

import (
	"io"
	"math"
)

// bufferSize is the size of one half of the encoder's ring buffer. Bytes
// are handed to the writer half a ring at a time, so a carry can still
// reach bufferSize already produced bytes.
const bufferSize = 1024

// Encoder encodes bits and symbols into a byte stream.
type Encoder struct {
	w      io.Writer
	base   uint32
	length uint32

	// ring buffer of output bytes; out is the index of the next byte
	// and end the index at which the next half is flushed.
	buf [2 * bufferSize]byte
	out int
	end int

	n   int64
	err error
}

// NewEncoder creates an encoder writing into w.
func NewEncoder(w io.Writer) *Encoder {
	e := new(Encoder)
	e.Init(w)
	return e
}

// Init resets the encoder to start a new code stream on w.
func (e *Encoder) Init(w io.Writer) {
	e.w = w
	e.base = 0
	e.length = MaxLength
	e.out = 0
	e.end = len(e.buf)
	e.n = 0
	e.err = nil
}

// Err returns the first error the underlying writer reported.
func (e *Encoder) Err() error { return e.err }

// Len returns the number of bytes handed to the writer so far.
func (e *Encoder) Len() int64 { return e.n }

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	k, err := e.w.Write(p)
	e.n += int64(k)
	if err != nil {
		e.err = err
	}
}

// Close terminates the code stream. It emits the pending bytes of the
// ring buffer and the trailer that keeps the decoder's byte reads in
// sync with the encoder.
func (e *Encoder) Close() error {
	initBase := e.base
	anotherByte := true
	if e.length > 2*MinLength {
		e.base += MinLength
		e.length = MinLength >> 1
	} else {
		e.base += MinLength >> 1
		e.length = MinLength >> 9
		anotherByte = false
	}
	if initBase > e.base {
		e.propagateCarry()
	}
	e.renormalize()

	if e.end != len(e.buf) {
		e.write(e.buf[bufferSize:])
	}
	if e.out > 0 {
		e.write(e.buf[:e.out])
	}

	trailer := []byte{0, 0, 0}
	if !anotherByte {
		trailer = trailer[:2]
	}
	e.write(trailer)
	e.w = nil
	return e.err
}

// propagateCarry adds one to the bytes already produced. It walks
// backwards through the ring buffer turning 0xff bytes into zero.
func (e *Encoder) propagateCarry() {
	p := e.out - 1
	if p < 0 {
		p = len(e.buf) - 1
	}
	for e.buf[p] == 0xff {
		e.buf[p] = 0
		if p == 0 {
			p = len(e.buf) - 1
		} else {
			p--
		}
	}
	e.buf[p]++
}

func (e *Encoder) renormalize() {
	for {
		e.buf[e.out] = byte(e.base >> 24)
		e.out++
		if e.out == e.end {
			e.manageBuffer()
		}
		e.base <<= 8
		e.length <<= 8
		if e.length >= MinLength {
			return
		}
	}
}

// manageBuffer flushes the half of the ring that follows the current
// write position.
func (e *Encoder) manageBuffer() {
	if e.out == len(e.buf) {
		e.out = 0
	}
	e.write(e.buf[e.out : e.out+bufferSize])
	e.end = e.out + bufferSize
}

// EncodeBit encodes the least significant bit of bit using the adaptive
// model m.
func (e *Encoder) EncodeBit(m *BitModel, bit uint32) {
	x := m.bit0Prob * (e.length >> bmLengthShift)
	if bit&1 == 0 {
		e.length = x
		m.bit0Count++
	} else {
		initBase := e.base
		e.base += x
		e.length -= x
		if initBase > e.base {
			e.propagateCarry()
		}
	}
	if e.length < MinLength {
		e.renormalize()
	}
	m.bitsUntilUpdate--
	if m.bitsUntilUpdate == 0 {
		m.update()
	}
}

// EncodeSymbol encodes sym using the adaptive model m. The symbol must be
// smaller than the alphabet size of the model.
func (e *Encoder) EncodeSymbol(m *SymbolModel, sym uint32) {
	if sym >= m.symbols {
		panic("rc: symbol out of range")
	}
	initBase := e.base
	if sym == m.lastSymbol {
		x := m.distribution[sym] * (e.length >> dmLengthShift)
		e.base += x
		e.length -= x
	} else {
		e.length >>= dmLengthShift
		x := m.distribution[sym] * e.length
		e.base += x
		e.length = m.distribution[sym+1]*e.length - x
	}
	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		e.renormalize()
	}
	m.symbolCount[sym]++
	m.symbolsUntilUpdate--
	if m.symbolsUntilUpdate == 0 {
		m.update()
	}
}

// PutBit writes a single bit with probability 1/2.
func (e *Encoder) PutBit(bit uint32) {
	initBase := e.base
	e.length >>= 1
	e.base += (bit & 1) * e.length
	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		e.renormalize()
	}
}

// PutBits writes the lowest n bits of sym uniformly. n must be in the
// range 1 to 32.
func (e *Encoder) PutBits(n uint, sym uint32) {
	if n == 0 || n > 32 {
		panic("rc: bit count out of range")
	}
	if n < 32 {
		sym &= 1<<n - 1
	}
	if n > 19 {
		e.PutShort(uint16(sym))
		sym >>= 16
		n -= 16
	}
	initBase := e.base
	e.length >>= n
	e.base += sym * e.length
	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		e.renormalize()
	}
}

// PutByte writes a byte uniformly.
func (e *Encoder) PutByte(c byte) {
	initBase := e.base
	e.length >>= 8
	e.base += uint32(c) * e.length
	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		e.renormalize()
	}
}

// PutShort writes a 16-bit value uniformly.
func (e *Encoder) PutShort(s uint16) {
	initBase := e.base
	e.length >>= 16
	e.base += uint32(s) * e.length
	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		e.renormalize()
	}
}

// PutInt writes a 32-bit value as two shorts, low half first.
func (e *Encoder) PutInt(u uint32) {
	e.PutShort(uint16(u))
	e.PutShort(uint16(u >> 16))
}

// PutInt64 writes a 64-bit value as two ints, low half first.
func (e *Encoder) PutInt64(u uint64) {
	e.PutInt(uint32(u))
	e.PutInt(uint32(u >> 32))
}

// PutFloat writes the IEEE-754 bit pattern of f.
func (e *Encoder) PutFloat(f float32) {
	e.PutInt(math.Float32bits(f))
}

// PutDouble writes the IEEE-754 bit pattern of f.
func (e *Encoder) PutDouble(f float64) {
	e.PutInt64(math.Float64bits(f))
}
