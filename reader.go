// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"fmt"
	"io"

	"github.com/ulikunitz/laz/internal/stream"
	"github.com/ulikunitz/laz/internal/xlog"
)

// Reader decompresses point records.
type Reader struct {
	cfg ReaderConfig
	d   *Descriptor
	r   *stream.Reader

	pointSize int
	points    int64
	dataStart int64

	cur *chunkDecoder
	// x locates the chunks. It has been read from the chunk table if
	// tabled is set and grows while reading otherwise.
	x      *chunkIndex
	tabled bool

	// chunk is the index of the current chunk and left the number of
	// points remaining in it.
	chunk int
	left  int64

	count int64
	err   error
}

// NewReader creates a reader for the stream r. If r is an io.ReadSeeker
// the chunk table is read and the reader supports seeking.
func NewReader(r io.Reader, cfg ReaderConfig) (*Reader, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	d := cfg.Descriptor
	zr := &Reader{
		cfg:       cfg,
		d:         d,
		r:         stream.NewReader(r),
		pointSize: d.PointSize(),
		points:    cfg.Points,
	}
	xlog.Debug(cfg.Logger, "laz: reader", "descriptor", xlog.Pretty(d))
	if d.Compressor != CompressorNone {
		var err error
		zr.cur, err = newChunkDecoder(d, cfg.selective())
		if err != nil {
			return nil, err
		}
	}
	if !d.Chunked() {
		zr.dataStart = zr.r.Tell()
		return zr, nil
	}
	ptr, err := zr.r.ReadInt64()
	if err != nil {
		return nil, chunkError(-1, err)
	}
	zr.dataStart = zr.r.Tell()
	if err = zr.loadTable(ptr); err != nil {
		return nil, err
	}
	return zr, nil
}

// loadTable reads the chunk table. An unusable table is reported as a
// warning and replaced by an index that grows while reading.
func (r *Reader) loadTable(ptr int64) error {
	x, err := r.readTable(ptr)
	if r.r.Seekable() {
		if serr := r.r.Seek(r.dataStart); serr != nil {
			return serr
		}
	}
	if err != nil {
		xlog.Warn(r.cfg.Logger,
			"laz: chunk table unusable; locating chunks while reading",
			"err", err)
		r.x = lazyIndex(r.dataStart)
		return nil
	}
	r.x = x
	r.tabled = true
	return nil
}

func (r *Reader) readTable(ptr int64) (*chunkIndex, error) {
	if !r.r.Seekable() {
		return nil, errorf(KindChunkTable, -1, "stream is not seekable")
	}
	size, err := r.r.Size()
	if err != nil {
		return nil, err
	}
	if ptr == -1 {
		if err = r.r.SeekEnd(-8); err != nil {
			return nil, &Error{Kind: KindChunkTable, Chunk: -1, Err: err}
		}
		if ptr, err = r.r.ReadInt64(); err != nil {
			return nil, &Error{Kind: KindChunkTable, Chunk: -1, Err: err}
		}
	}
	if ptr < r.dataStart || ptr > size-8 {
		return nil, errorf(KindChunkTable, -1,
			"table offset %d outside of stream", ptr)
	}
	if err = r.r.Seek(ptr); err != nil {
		return nil, err
	}
	t, err := readChunkTable(r.r, r.d.VariableChunks())
	if err != nil {
		return nil, &Error{Kind: KindChunkTable, Chunk: -1, Err: err}
	}
	return t.index(r.dataStart, ptr, r.d.ChunkSize, r.points)
}

// Descriptor returns the descriptor of the compressed points.
func (r *Reader) Descriptor() *Descriptor { return r.d }

// Count returns the index of the next point to read.
func (r *Reader) Count() int64 { return r.count }

// Points returns the number of points in the stream.
func (r *Reader) Points() int64 { return r.points }

// Chunks returns the number of chunks known to the reader. Without chunk
// table only the chunks already visited are known.
func (r *Reader) Chunks() int {
	if r.x == nil {
		return 0
	}
	return r.x.chunks()
}

// ReadPoint reads the next point into p, which must have the point size of
// the descriptor. It returns io.EOF after the last point. Errors of kind
// KindCorruptChunk allow to continue with SkipChunk.
func (r *Reader) ReadPoint(p []byte) error {
	if r.err != nil {
		return r.err
	}
	if len(p) != r.pointSize {
		return fmt.Errorf("laz: point buffer has %d bytes; want %d",
			len(p), r.pointSize)
	}
	if r.count >= r.points {
		return io.EOF
	}
	if r.d.Compressor == CompressorNone {
		if err := r.r.ReadFull(p); err != nil {
			return r.fail(chunkError(-1, err))
		}
		r.count++
		r.cfg.Metrics.addPoints(dirRead, 1)
		return nil
	}
	var err error
	if r.left == 0 {
		err = r.beginChunk(p)
	} else {
		err = r.cur.next(p)
	}
	if err != nil {
		return r.fail(chunkError(r.chunk, err))
	}
	r.count++
	r.left--
	if r.left == 0 {
		if err = r.endChunk(); err != nil {
			return r.fail(err)
		}
	}
	return nil
}

func (r *Reader) fail(err error) error {
	r.err = err
	if e, ok := err.(*Error); ok && e.Kind == KindCorruptChunk {
		r.cfg.Metrics.corrupt()
	}
	return err
}

// chunkPoints returns the number of points of the current chunk as far as
// it is known before reading the chunk.
func (r *Reader) chunkPoints() int64 {
	remaining := r.points - r.count
	switch {
	case !r.d.Chunked():
		return remaining
	case r.d.VariableChunks():
		if r.chunk < r.x.chunks() {
			return r.x.firsts[r.chunk+1] - r.x.firsts[r.chunk]
		}
		return 0
	}
	return min(int64(r.d.ChunkSize), remaining)
}

func (r *Reader) beginChunk(p []byte) error {
	if r.d.Chunked() {
		if r.chunk == r.x.chunks() {
			// lazy index
			r.x.firsts[r.chunk] = r.count
		}
		if start := r.x.starts[r.chunk]; r.r.Tell() != start {
			if err := r.r.Seek(start); err != nil {
				return err
			}
		}
	}
	want := r.chunkPoints()
	end := int64(-1)
	if r.d.Chunked() && r.chunk < r.x.chunks() {
		end = r.x.starts[r.chunk+1]
	}
	n, err := r.cur.begin(r.r, p, end)
	if err != nil {
		return err
	}
	if r.d.Layered() {
		if want != 0 && int64(n) != want {
			return errorf(KindCorruptChunk, r.chunk,
				"chunk has %d points; want %d", n, want)
		}
		if n == 0 || int64(n) > r.points-r.count {
			return errorf(KindCorruptChunk, r.chunk,
				"invalid point count %d", n)
		}
		want = int64(n)
	}
	if want == 0 {
		return errorf(KindChunkTable, r.chunk,
			"variable chunks can't be located without chunk table")
	}
	r.left = want
	return nil
}

// endChunk checks the stream position after the last point of a chunk
// against the index and advances to the next chunk.
func (r *Reader) endChunk() error {
	if !r.d.Chunked() {
		r.cfg.Metrics.addPoints(dirRead, int(r.count))
		return nil
	}
	pos := r.r.Tell()
	if r.chunk < r.x.chunks() {
		if end := r.x.starts[r.chunk+1]; pos != end {
			return errorf(KindCorruptChunk, r.chunk,
				"chunk ends at %d; table has %d", pos, end)
		}
	} else {
		r.x.starts = append(r.x.starts, pos)
		r.x.firsts = append(r.x.firsts, r.count)
	}
	r.cfg.Metrics.chunk(dirRead, pos-r.x.starts[r.chunk])
	r.cfg.Metrics.addPoints(dirRead, int(r.count-r.x.firsts[r.chunk]))
	r.chunk++
	return nil
}

// SkipChunk continues reading with the chunk following the current one,
// which is the chunk an error occurred in or the chunk the next point
// would be read from. It is used to recover from errors of kind
// KindCorruptChunk and requires a chunk table.
func (r *Reader) SkipChunk() error {
	if !r.tabled {
		return errorf(KindChunkTable, r.chunk,
			"skipping chunks requires a chunk table")
	}
	xlog.Warn(r.cfg.Logger, "laz: skipping chunk", "chunk", r.chunk,
		"err", r.err)
	return r.gotoChunk(min(r.chunk+1, r.x.chunks()))
}

// gotoChunk positions the reader at the start of chunk i.
func (r *Reader) gotoChunk(i int) error {
	if err := r.r.Seek(r.x.starts[i]); err != nil {
		r.err = err
		return err
	}
	r.err = nil
	r.chunk = i
	r.left = 0
	r.count = r.x.firsts[i]
	return nil
}

// Seek positions the reader at point target. The chunk containing the
// point is located in the chunk table and decoded from its start.
func (r *Reader) Seek(target int64) error {
	if target < 0 || target > r.points {
		return fmt.Errorf("laz: seek target %d outside [0,%d]",
			target, r.points)
	}
	if !r.r.Seekable() {
		if target < r.count || r.err != nil {
			return stream.ErrNotSeekable
		}
		return r.discard(target)
	}
	switch {
	case r.d.Compressor == CompressorNone:
		if err := r.r.Seek(r.dataStart +
			target*int64(r.pointSize)); err != nil {
			return err
		}
		r.err = nil
		r.count = target
		return nil
	case !r.d.Chunked():
		if target < r.count || r.err != nil {
			if err := r.r.Seek(r.dataStart); err != nil {
				return err
			}
			r.err = nil
			r.count = 0
			r.left = 0
		}
	case target < r.x.firsts[r.x.chunks()] || r.tabled:
		i := r.x.chunkOf(target)
		if i != r.chunk || target < r.count || r.err != nil {
			if err := r.gotoChunk(i); err != nil {
				return err
			}
		}
	default:
		// beyond the chunks visited so far
		if i := r.x.chunks(); i != r.chunk || r.err != nil {
			if err := r.gotoChunk(i); err != nil {
				return err
			}
		}
	}
	return r.discard(target)
}

// discard reads and drops points until target is reached.
func (r *Reader) discard(target int64) error {
	p := make([]byte, r.pointSize)
	for r.count < target {
		if err := r.ReadPoint(p); err != nil {
			return err
		}
	}
	return nil
}
