// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/laz/internal/stream"
	"github.com/ulikunitz/laz/items"
	"github.com/ulikunitz/laz/rc"
)

// split slices the point p into the fields of the items. The slices are
// stored in f, which must have the length of its.
func split(its []items.Item, p []byte, f [][]byte) {
	for i, it := range its {
		f[i] = p[:it.Size:it.Size]
		p = p[it.Size:]
	}
}

// chunkEncoder compresses the points of one chunk. The first point is
// stored raw and initializes the item writers.
type chunkEncoder struct {
	its     []items.Item
	layered bool
	enc     *rc.Encoder
	ws      []items.Writer
	fields  [][]byte
	context uint32
	out     io.Writer
	n       uint32
}

func newChunkEncoder(d *Descriptor) (*chunkEncoder, error) {
	c := &chunkEncoder{
		its:     d.Items,
		layered: d.Layered(),
		enc:     rc.NewEncoder(nil),
		ws:      make([]items.Writer, len(d.Items)),
		fields:  make([][]byte, len(d.Items)),
	}
	for i, it := range d.Items {
		w, err := items.NewWriter(it, c.enc)
		if err != nil {
			return nil, &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
		}
		c.ws[i] = w
	}
	return c, nil
}

// begin starts a chunk on out with the point p.
func (c *chunkEncoder) begin(out io.Writer, p []byte) error {
	c.out = out
	c.context = 0
	c.n = 1
	if _, err := out.Write(p); err != nil {
		return err
	}
	split(c.its, p, c.fields)
	for i, w := range c.ws {
		if err := w.Init(c.fields[i], &c.context); err != nil {
			return err
		}
	}
	if !c.layered {
		c.enc.Init(out)
	}
	return nil
}

func (c *chunkEncoder) add(p []byte) error {
	split(c.its, p, c.fields)
	for i, w := range c.ws {
		if err := w.Write(c.fields[i], &c.context); err != nil {
			return err
		}
	}
	c.n++
	if !c.layered {
		return c.enc.Err()
	}
	return nil
}

// end finishes the chunk. Pointwise chunks end with the trailer of the
// coder; layered chunks with the point count and the layers.
func (c *chunkEncoder) end() error {
	if !c.layered {
		return c.enc.Close()
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], c.n)
	if _, err := c.out.Write(b[:]); err != nil {
		return err
	}
	for _, w := range c.ws {
		if err := w.(items.LayeredWriter).WriteChunkSizes(c.out); err != nil {
			return err
		}
	}
	for _, w := range c.ws {
		if err := w.(items.LayeredWriter).WriteChunkBytes(c.out); err != nil {
			return err
		}
	}
	return nil
}

// encode compresses the points stored consecutively in p as a single
// chunk.
func (c *chunkEncoder) encode(out io.Writer, p []byte, pointSize int) error {
	if err := c.begin(out, p[:pointSize]); err != nil {
		return err
	}
	for p = p[pointSize:]; len(p) > 0; p = p[pointSize:] {
		if err := c.add(p[:pointSize]); err != nil {
			return err
		}
	}
	return c.end()
}

// chunkDecoder decompresses the points of one chunk.
type chunkDecoder struct {
	its     []items.Item
	layered bool
	dec     *rc.Decoder
	rs      []items.Reader
	fields  [][]byte
	context uint32
}

func newChunkDecoder(d *Descriptor, sel items.Selective) (*chunkDecoder, error) {
	c := &chunkDecoder{
		its:     d.Items,
		layered: d.Layered(),
		dec:     new(rc.Decoder),
		rs:      make([]items.Reader, len(d.Items)),
		fields:  make([][]byte, len(d.Items)),
	}
	for i, it := range d.Items {
		r, err := items.NewReader(it, c.dec, sel)
		if err != nil {
			return nil, &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
		}
		c.rs[i] = r
	}
	return c, nil
}

// chunkBytes limits the layer reads to the end of the chunk.
type chunkBytes struct {
	r       *stream.Reader
	n       int64
	overrun bool
}

func (c *chunkBytes) Read(p []byte) (n int, err error) {
	if c.n <= 0 {
		c.overrun = true
		return 0, io.EOF
	}
	if int64(len(p)) > c.n {
		p = p[:c.n]
	}
	n, err = c.r.Read(p)
	c.n -= int64(n)
	return n, err
}

func (c *chunkBytes) Skip(n int64) error {
	if n > c.n {
		c.overrun = true
		return io.ErrUnexpectedEOF
	}
	c.n -= n
	return c.r.Skip(n)
}

// begin reads the raw first point of a chunk into p. For layered chunks
// the point count of the chunk is returned, otherwise zero. If end is not
// negative, the layers must not extend beyond it.
func (c *chunkDecoder) begin(in *stream.Reader, p []byte, end int64) (n uint32, err error) {
	c.context = 0
	if err = in.ReadFull(p); err != nil {
		return 0, err
	}
	if c.layered {
		if n, err = in.ReadUint32(); err != nil {
			return 0, err
		}
		for _, r := range c.rs {
			err = r.(items.LayeredReader).ReadChunkSizes(in)
			if err != nil {
				return 0, err
			}
		}
		var lr io.Reader = in
		var cb *chunkBytes
		if end >= 0 {
			cb = &chunkBytes{r: in, n: end - in.Tell()}
			lr = cb
		}
		for _, r := range c.rs {
			err = r.(items.LayeredReader).ReadChunkBytes(lr)
			if err != nil {
				if cb != nil && cb.overrun {
					return 0, fmt.Errorf(
						"%w: layers exceed chunk",
						items.ErrCorrupt)
				}
				return 0, err
			}
		}
	}
	split(c.its, p, c.fields)
	for i, r := range c.rs {
		if err = r.Init(c.fields[i], &c.context); err != nil {
			return 0, err
		}
	}
	if !c.layered {
		if err = c.dec.Init(in); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (c *chunkDecoder) next(p []byte) error {
	split(c.its, p, c.fields)
	for i, r := range c.rs {
		if err := r.Read(c.fields[i], &c.context); err != nil {
			// a truncated stream may look corrupt to the items
			if !c.layered && c.dec.Err() != nil {
				return c.dec.Err()
			}
			return err
		}
	}
	if !c.layered {
		return c.dec.Err()
	}
	return nil
}
