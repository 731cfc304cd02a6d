// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/ulikunitz/laz/internal/corpus"
)

func TestRawRoundTrip(t *testing.T) {
	floats := []float32{0, float32(math.Copysign(0, -1)), 1.5,
		float32(math.Inf(1)), float32(math.NaN()), math.MaxFloat32}
	doubles := []float64{0, math.Copysign(0, -1), -2.25, math.Inf(-1),
		math.NaN(), math.SmallestNonzeroFloat64}
	ints := []uint32{0, 1, 0xffff, 0x10000, 0xffffffff, 0x80000000}
	longs := []uint64{0, 1<<63 - 1, 1 << 63, math.MaxUint64}

	var buf bytes.Buffer
	e := NewEncoder(&buf)
	for i := 0; i < 100; i++ {
		e.PutBit(uint32(i % 3 & 1))
	}
	for n := uint(1); n <= 32; n++ {
		e.PutBits(n, 0xffffffff)
		e.PutBits(n, 0)
	}
	for i := 0; i < 256; i++ {
		e.PutByte(byte(i))
	}
	e.PutShort(0)
	e.PutShort(0xffff)
	for _, u := range ints {
		e.PutInt(u)
	}
	for _, u := range longs {
		e.PutInt64(u)
	}
	for _, f := range floats {
		e.PutFloat(f)
	}
	for _, f := range doubles {
		e.PutDouble(f)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("e.Close() error %s", err)
	}

	d, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	for i := 0; i < 100; i++ {
		if g, w := d.GetBit(), uint32(i%3&1); g != w {
			t.Fatalf("GetBit #%d: got %d; want %d", i, g, w)
		}
	}
	for n := uint(1); n <= 32; n++ {
		w := uint32(0xffffffff)
		if n < 32 {
			w = 1<<n - 1
		}
		if g := d.GetBits(n); g != w {
			t.Fatalf("GetBits(%d): got %#x; want %#x", n, g, w)
		}
		if g := d.GetBits(n); g != 0 {
			t.Fatalf("GetBits(%d): got %#x; want 0", n, g)
		}
	}
	for i := 0; i < 256; i++ {
		if g := d.GetByte(); g != byte(i) {
			t.Fatalf("GetByte: got %d; want %d", g, i)
		}
	}
	if g := d.GetShort(); g != 0 {
		t.Fatalf("GetShort: got %#x; want 0", g)
	}
	if g := d.GetShort(); g != 0xffff {
		t.Fatalf("GetShort: got %#x; want 0xffff", g)
	}
	for _, w := range ints {
		if g := d.GetInt(); g != w {
			t.Fatalf("GetInt: got %#x; want %#x", g, w)
		}
	}
	for _, w := range longs {
		if g := d.GetInt64(); g != w {
			t.Fatalf("GetInt64: got %#x; want %#x", g, w)
		}
	}
	for _, w := range floats {
		g := d.GetFloat()
		if math.Float32bits(g) != math.Float32bits(w) {
			t.Fatalf("GetFloat: got %v; want %v", g, w)
		}
	}
	for _, w := range doubles {
		g := d.GetDouble()
		if math.Float64bits(g) != math.Float64bits(w) {
			t.Fatalf("GetDouble: got %v; want %v", g, w)
		}
	}
	if err = d.Done(); err != nil {
		t.Fatalf("d.Done() error %s", err)
	}
}

func TestAdaptiveBits(t *testing.T) {
	const n = 10000
	rng := rand.New(rand.NewSource(1))
	bits := make([]uint32, n)
	for i := range bits {
		if rng.Intn(100) >= 95 {
			bits[i] = 1
		}
	}

	var buf bytes.Buffer
	e := NewEncoder(&buf)
	m := NewBitModel()
	for _, b := range bits {
		e.EncodeBit(m, b)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("e.Close() error %s", err)
	}
	t.Logf("%d bits compressed to %d bytes", n, buf.Len())
	if buf.Len() > 600 {
		t.Errorf("compressed size %d; want <= 600", buf.Len())
	}

	d, err := NewDecoder(&buf)
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	m = NewBitModel()
	for i, w := range bits {
		if g := d.DecodeBit(m); g != w {
			t.Fatalf("bit %d: got %d; want %d", i, g, w)
		}
	}
	if err = d.Err(); err != nil {
		t.Fatalf("decoder error %s", err)
	}
}

func TestSymbolsWithAndWithoutTable(t *testing.T) {
	tests := []uint32{2, 3, 16, 17, 64, 256, 516, MaxSymbols}
	for _, symbols := range tests {
		t.Run(fmt.Sprint(symbols), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(symbols)))
			syms := make([]uint32, 20000)
			for i := range syms {
				// skewed towards small symbols
				s := uint32(rng.ExpFloat64() * 4)
				if s >= symbols {
					s = uint32(rng.Intn(int(symbols)))
				}
				syms[i] = s
			}

			var buf bytes.Buffer
			e := NewEncoder(&buf)
			m := NewSymbolModel(symbols, false)
			for _, s := range syms {
				e.EncodeSymbol(m, s)
			}
			if err := e.Close(); err != nil {
				t.Fatalf("e.Close() error %s", err)
			}
			data := buf.Bytes()

			for _, table := range []bool{false, true} {
				d, err := NewDecoder(bytes.NewReader(data))
				if err != nil {
					t.Fatalf("NewDecoder error %s", err)
				}
				m := NewSymbolModel(symbols, table)
				for i, w := range syms {
					if g := d.DecodeSymbol(m); g != w {
						t.Fatalf("table=%t symbol %d: "+
							"got %d; want %d",
							table, i, g, w)
					}
				}
				if err = d.Err(); err != nil {
					t.Fatalf("decoder error %s", err)
				}
			}
		})
	}
}

func TestPropagateCarryWraps(t *testing.T) {
	var e Encoder
	e.Init(io.Discard)
	e.buf[len(e.buf)-2] = 0x12
	e.buf[len(e.buf)-1] = 0xff
	e.buf[0] = 0xff
	e.buf[1] = 0xff
	e.out = 2
	e.propagateCarry()
	if e.buf[0] != 0 || e.buf[1] != 0 || e.buf[len(e.buf)-1] != 0 {
		t.Fatalf("0xff run not cleared: % x % x",
			e.buf[:2], e.buf[len(e.buf)-2:])
	}
	if g := e.buf[len(e.buf)-2]; g != 0x13 {
		t.Fatalf("carry target got %#x; want 0x13", g)
	}

	e.out = 0
	e.buf[len(e.buf)-1] = 0x7f
	e.propagateCarry()
	if g := e.buf[len(e.buf)-1]; g != 0x80 {
		t.Fatalf("carry at out=0 got %#x; want 0x80", g)
	}
}

// TestCarryStress produces long runs of 0xff output bytes. Coding values
// close to the upper end of the interval makes carries frequent.
func TestCarryStress(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	type op struct {
		kind int
		v    uint32
	}
	ops := make([]op, 50000)
	for i := range ops {
		switch rng.Intn(4) {
		case 0:
			ops[i] = op{0, 0xff}
		case 1:
			ops[i] = op{1, 0xffff}
		case 2:
			ops[i] = op{2, uint32(rng.Intn(2))}
		default:
			ops[i] = op{3, 0xffffffff - uint32(rng.Intn(4))}
		}
	}

	var buf bytes.Buffer
	e := NewEncoder(&buf)
	m := NewBitModel()
	for _, o := range ops {
		switch o.kind {
		case 0:
			e.PutByte(byte(o.v))
		case 1:
			e.PutShort(uint16(o.v))
		case 2:
			e.EncodeBit(m, o.v)
		case 3:
			e.PutInt(o.v)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatalf("e.Close() error %s", err)
	}
	if int64(buf.Len()) != e.Len() {
		t.Fatalf("e.Len() = %d; buffer has %d bytes", e.Len(),
			buf.Len())
	}

	d, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	m = NewBitModel()
	for i, o := range ops {
		var g uint32
		switch o.kind {
		case 0:
			g = uint32(d.GetByte())
		case 1:
			g = uint32(d.GetShort())
		case 2:
			g = d.DecodeBit(m)
		case 3:
			g = d.GetInt()
		}
		if g != o.v {
			t.Fatalf("op %d kind %d: got %#x; want %#x", i, o.kind,
				g, o.v)
		}
	}
	if err = d.Err(); err != nil {
		t.Fatalf("decoder error %s", err)
	}
}

func TestDeterministic(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		e := NewEncoder(&buf)
		m := NewSymbolModel(100, false)
		for i := 0; i < 5000; i++ {
			e.EncodeSymbol(m, uint32(i*i%100))
		}
		if err := e.Close(); err != nil {
			t.Fatalf("e.Close() error %s", err)
		}
		return buf.Bytes()
	}
	a, b := encode(), encode()
	if !bytes.Equal(a, b) {
		t.Fatalf("encoding is not deterministic")
	}
}

func TestTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.PutInt(0xdeadbeef)
	if err := e.Close(); err != nil {
		t.Fatalf("e.Close() error %s", err)
	}

	_, err := NewDecoder(bytes.NewReader(buf.Bytes()[:2]))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("NewDecoder on truncated data: got %v; want %v", err,
			io.ErrUnexpectedEOF)
	}

	d, err := NewDecoder(bytes.NewReader(buf.Bytes()[:4]))
	if err != nil {
		t.Fatalf("NewDecoder error %s", err)
	}
	d.GetInt()
	d.GetInt()
	if !errors.Is(d.Err(), io.ErrUnexpectedEOF) {
		t.Fatalf("reading past the end: got %v; want %v", d.Err(),
			io.ErrUnexpectedEOF)
	}
}

func TestSilesiaSymbols(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping corpus test in short mode")
	}
	files, err := corpus.Silesia(1 << 16)
	if err != nil {
		t.Skipf("corpus not available: %s", err)
	}
	for _, f := range files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			var buf bytes.Buffer
			e := NewEncoder(&buf)
			m := NewSymbolModel(256, false)
			for _, c := range f.Data {
				e.EncodeSymbol(m, uint32(c))
			}
			if err := e.Close(); err != nil {
				t.Fatalf("e.Close() error %s", err)
			}
			t.Logf("%d bytes -> %d bytes", len(f.Data), buf.Len())

			d, err := NewDecoder(&buf)
			if err != nil {
				t.Fatalf("NewDecoder error %s", err)
			}
			m = NewSymbolModel(256, true)
			for i, c := range f.Data {
				if g := d.DecodeSymbol(m); g != uint32(c) {
					t.Fatalf("byte %d: got %d; want %d",
						i, g, c)
				}
			}
		})
	}
}
