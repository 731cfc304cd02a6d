// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"bytes"
	"io"
)

// Wavepacket14 codes the packets like Wavepacket13 with one state per
// scanner channel in a single layer.

type wavepacket14Writer struct {
	layers   layerEncoders
	contexts [contexts]*wavepacketEncoder
	unused   [contexts]bool
	current  uint32
	last     [Wavepacket14Size]byte
}

func newWavepacket14Writer() *wavepacket14Writer {
	w := &wavepacket14Writer{layers: layerEncoders{newLayerEncoder(true)}}
	for i := range w.contexts {
		w.contexts[i] = newWavepacketEncoder(w.layers[0].enc)
	}
	return w
}

func (w *wavepacket14Writer) Init(item []byte, context *uint32) error {
	w.layers.reset()
	for i := range w.unused {
		w.unused[i] = true
	}
	w.current = *context & 3
	w.contexts[w.current].init(item)
	w.unused[w.current] = false
	copy(w.last[:], item)
	return nil
}

func (w *wavepacket14Writer) Write(item []byte, context *uint32) error {
	if ctx := *context & 3; ctx != w.current {
		if w.unused[ctx] {
			w.contexts[w.current].last.Pack(w.last[:])
			w.contexts[ctx].init(w.last[:])
			w.unused[ctx] = false
		}
		w.current = ctx
	}
	e := w.contexts[w.current]
	e.last.Pack(w.last[:])
	if !bytes.Equal(w.last[:], item[:Wavepacket14Size]) {
		w.layers[0].changed = true
	}
	e.write(item)
	return w.layers.err()
}

func (w *wavepacket14Writer) WriteChunkSizes(out io.Writer) error {
	return w.layers.writeSizes(out)
}

func (w *wavepacket14Writer) WriteChunkBytes(out io.Writer) error {
	return w.layers.writeBytes(out)
}

type wavepacket14Reader struct {
	layers   layerDecoders
	contexts [contexts]*wavepacketDecoder
	unused   [contexts]bool
	current  uint32
	tmp      [Wavepacket14Size]byte
}

func newWavepacket14Reader(sel Selective) *wavepacket14Reader {
	r := &wavepacket14Reader{layers: layerDecoders{
		newLayerDecoder("wavepacket", sel&SelectWavepacket != 0)}}
	for i := range r.contexts {
		r.contexts[i] = newWavepacketDecoder(r.layers[0].dec)
	}
	return r
}

func (r *wavepacket14Reader) ReadChunkSizes(in io.Reader) error {
	return r.layers.readSizes(in)
}

func (r *wavepacket14Reader) ReadChunkBytes(in io.Reader) error {
	return r.layers.readBytes(in)
}

func (r *wavepacket14Reader) Init(item []byte, context *uint32) error {
	for i := range r.unused {
		r.unused[i] = true
	}
	r.current = *context & 3
	r.contexts[r.current].init(item)
	r.unused[r.current] = false
	return nil
}

func (r *wavepacket14Reader) Read(item []byte, context *uint32) error {
	if ctx := *context & 3; ctx != r.current {
		if r.unused[ctx] {
			r.contexts[r.current].last.Pack(r.tmp[:])
			r.contexts[ctx].init(r.tmp[:])
			r.unused[ctx] = false
		}
		r.current = ctx
	}
	d := r.contexts[r.current]
	if r.layers[0].active {
		d.read(item)
	} else {
		d.last.Pack(item)
	}
	return r.layers.err()
}
