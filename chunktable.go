// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/internal/stream"
	"github.com/ulikunitz/laz/rc"
)

// chunkTableVersion is the only version of the chunk table.
const chunkTableVersion = 0

// chunkTable records the number of points and the compressed size of
// every chunk. The point counts are only stored for variable chunks.
type chunkTable struct {
	counts []uint32
	sizes  []uint32
}

func (t *chunkTable) add(points uint32, size int64) error {
	if size > 0xffffffff {
		return unsupported("chunk %d has %d bytes", len(t.sizes), size)
	}
	t.counts = append(t.counts, points)
	t.sizes = append(t.sizes, uint32(size))
	return nil
}

func (t *chunkTable) len() int { return len(t.sizes) }

// write encodes the table. Counts and sizes are predicted from the
// entry of the previous chunk.
func (t *chunkTable) write(w *stream.Writer, variable bool) error {
	if err := w.WriteUint32(chunkTableVersion); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(t.len())); err != nil {
		return err
	}
	if t.len() == 0 {
		return nil
	}
	enc := rc.NewEncoder(w)
	c := ic.NewCompressor(enc, 32, 2)
	c.Init()
	var lastCount, lastSize uint32
	for i, size := range t.sizes {
		if variable {
			c.Compress(int32(lastCount), int32(t.counts[i]), 0)
			lastCount = t.counts[i]
		}
		c.Compress(int32(lastSize), int32(size), 1)
		lastSize = size
	}
	return enc.Close()
}

// readChunkTable decodes a table written by write.
func readChunkTable(r *stream.Reader, variable bool) (*chunkTable, error) {
	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != chunkTableVersion {
		return nil, errorf(KindChunkTable, -1,
			"unknown chunk table version %d", version)
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	t := new(chunkTable)
	if n == 0 {
		return t, nil
	}
	dec, err := rc.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	d := ic.NewDecompressor(dec, 32, 2)
	d.Init()
	var lastCount, lastSize int32
	for i := uint32(0); i < n; i++ {
		if dec.Err() != nil {
			break
		}
		if variable {
			lastCount = d.Decompress(lastCount, 0)
		}
		lastSize = d.Decompress(lastSize, 1)
		t.counts = append(t.counts, uint32(lastCount))
		t.sizes = append(t.sizes, uint32(lastSize))
	}
	if err = dec.Done(); err != nil {
		return nil, err
	}
	return t, nil
}

// chunkIndex locates the chunks in the stream.
type chunkIndex struct {
	// starts has one entry more than the number of chunks; the last
	// entry is the end of the last chunk.
	starts []int64
	// firsts has the index of the first point of every chunk and the
	// total number of points as last entry.
	firsts []int64
}

func (x *chunkIndex) chunks() int { return len(x.starts) - 1 }

// chunkOf returns the chunk containing point i.
func (x *chunkIndex) chunkOf(i int64) int {
	lo, hi := 0, x.chunks()
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if x.firsts[m+1] <= i {
			lo = m + 1
		} else {
			hi = m
		}
	}
	return lo
}

// index validates the table and computes the chunk index. The chunks must
// fill the space between dataStart and the table exactly.
func (t *chunkTable) index(dataStart, tablePos int64, chunkSize uint32,
	points int64) (*chunkIndex, error) {

	x := &chunkIndex{
		starts: make([]int64, 1, t.len()+1),
		firsts: make([]int64, 1, t.len()+1),
	}
	x.starts[0] = dataStart
	x.firsts[0] = 0
	variable := chunkSize == ChunkSizeVariable
	for i, size := range t.sizes {
		if size == 0 {
			return nil, errorf(KindChunkTable, i, "chunk has size zero")
		}
		if x.firsts[i] >= points {
			return nil, errorf(KindChunkTable, i,
				"chunk starts after the last point")
		}
		n := int64(chunkSize)
		if variable {
			n = int64(t.counts[i])
			if n == 0 {
				return nil, errorf(KindChunkTable, i,
					"chunk has no points")
			}
		}
		first := x.firsts[i] + n
		if first > points {
			first = points
		}
		x.starts = append(x.starts, x.starts[i]+int64(size))
		x.firsts = append(x.firsts, first)
	}
	if end := x.starts[len(x.starts)-1]; end != tablePos {
		return nil, errorf(KindChunkTable, -1,
			"chunks end at %d; table starts at %d", end, tablePos)
	}
	if x.firsts[len(x.firsts)-1] != points {
		return nil, errorf(KindChunkTable, -1,
			"chunks hold %d points; stream has %d",
			x.firsts[len(x.firsts)-1], points)
	}
	return x, nil
}

// lazyIndex is the chunk index grown while reading a stream without a
// usable chunk table.
func lazyIndex(dataStart int64) *chunkIndex {
	return &chunkIndex{starts: []int64{dataStart}, firsts: []int64{0}}
}
