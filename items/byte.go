// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Extra bytes are coded byte by byte relative to the same byte of the
// previous point.

type byteV1Writer struct {
	enc  *rc.Encoder
	ic   *ic.Compressor
	last []byte
}

func newByteV1Writer(enc *rc.Encoder, n int) *byteV1Writer {
	return &byteV1Writer{
		enc:  enc,
		ic:   ic.NewCompressor(enc, 8, uint32(n)),
		last: make([]byte, n),
	}
}

func (w *byteV1Writer) Init(item []byte, context *uint32) error {
	copy(w.last, item)
	w.ic.Init()
	return nil
}

func (w *byteV1Writer) Write(item []byte, context *uint32) error {
	for i, b := range item[:len(w.last)] {
		w.ic.Compress(int32(w.last[i]), int32(b), uint32(i))
	}
	copy(w.last, item)
	return w.enc.Err()
}

type byteV1Reader struct {
	dec  *rc.Decoder
	ic   *ic.Decompressor
	last []byte
}

func newByteV1Reader(dec *rc.Decoder, n int) *byteV1Reader {
	return &byteV1Reader{
		dec:  dec,
		ic:   ic.NewDecompressor(dec, 8, uint32(n)),
		last: make([]byte, n),
	}
}

func (r *byteV1Reader) Init(item []byte, context *uint32) error {
	copy(r.last, item)
	r.ic.Init()
	return nil
}

func (r *byteV1Reader) Read(item []byte, context *uint32) error {
	for i := range r.last {
		r.last[i] = byte(r.ic.Decompress(int32(r.last[i]), uint32(i)))
	}
	copy(item, r.last)
	return r.dec.Err()
}

func newByteModels(n int, table bool) []*rc.SymbolModel {
	m := make([]*rc.SymbolModel, n)
	for i := range m {
		m[i] = rc.NewSymbolModel(256, table)
	}
	return m
}

type byteV2Writer struct {
	enc  *rc.Encoder
	m    []*rc.SymbolModel
	last []byte
}

func newByteV2Writer(enc *rc.Encoder, n int) *byteV2Writer {
	return &byteV2Writer{
		enc:  enc,
		m:    newByteModels(n, false),
		last: make([]byte, n),
	}
}

func (w *byteV2Writer) Init(item []byte, context *uint32) error {
	copy(w.last, item)
	for _, m := range w.m {
		m.Init(nil)
	}
	return nil
}

func (w *byteV2Writer) Write(item []byte, context *uint32) error {
	for i, m := range w.m {
		w.enc.EncodeSymbol(m, fold(int32(item[i])-int32(w.last[i])))
	}
	copy(w.last, item)
	return w.enc.Err()
}

type byteV2Reader struct {
	dec  *rc.Decoder
	m    []*rc.SymbolModel
	last []byte
}

func newByteV2Reader(dec *rc.Decoder, n int) *byteV2Reader {
	return &byteV2Reader{
		dec:  dec,
		m:    newByteModels(n, true),
		last: make([]byte, n),
	}
}

func (r *byteV2Reader) Init(item []byte, context *uint32) error {
	copy(r.last, item)
	for _, m := range r.m {
		m.Init(nil)
	}
	return nil
}

func (r *byteV2Reader) Read(item []byte, context *uint32) error {
	for i, m := range r.m {
		r.last[i] += byte(r.dec.DecodeSymbol(m))
	}
	copy(item, r.last)
	return r.dec.Err()
}
