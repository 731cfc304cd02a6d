// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ulikunitz/laz/internal/stream"
	"github.com/ulikunitz/laz/internal/xlog"
)

var errWriterClosed = errors.New("laz: writer is closed")

// Writer compresses point records.
type Writer struct {
	cfg WriterConfig
	d   *Descriptor
	w   *stream.Writer

	pointSize int
	// offset of the chunk table pointer
	start int64

	cur        *chunkEncoder
	inChunk    bool
	chunkStart int64
	chunkN     uint32
	table      chunkTable

	// points waiting for parallel compression
	pending  []byte
	parallel bool

	count int64
	err   error
}

// NewWriter creates a writer for points of type 0 using the default
// configuration.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterConfig(w, WriterConfig{})
}

// NewWriterConfig creates a writer using the given configuration. Chunked
// streams start with the pointer to the chunk table, which is written
// before the function returns.
func NewWriterConfig(w io.Writer, cfg WriterConfig) (*Writer, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	d := cfg.Descriptor
	zw := &Writer{
		cfg:       cfg,
		d:         d,
		w:         stream.NewWriter(w),
		pointSize: d.PointSize(),
	}
	xlog.Debug(cfg.Logger, "laz: writer", "descriptor", xlog.Pretty(d))
	if d.Compressor == CompressorNone {
		return zw, nil
	}
	var err error
	if zw.cur, err = newChunkEncoder(d); err != nil {
		return nil, err
	}
	if d.Chunked() {
		zw.start = zw.w.Tell()
		if err = zw.w.WriteInt64(-1); err != nil {
			return nil, err
		}
		zw.parallel = cfg.Workers > 1 && !d.VariableChunks()
	}
	return zw, nil
}

// Descriptor returns the descriptor of the compressed points.
func (w *Writer) Descriptor() *Descriptor { return w.d }

// Count returns the number of points written.
func (w *Writer) Count() int64 { return w.count }

func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

// WritePoint writes a single point. The slice must have the point size of
// the descriptor.
func (w *Writer) WritePoint(p []byte) error {
	if w.err != nil {
		return w.err
	}
	if len(p) != w.pointSize {
		return fmt.Errorf("laz: point has %d bytes; want %d",
			len(p), w.pointSize)
	}
	switch {
	case w.d.Compressor == CompressorNone:
		if _, err := w.w.Write(p); err != nil {
			return w.fail(err)
		}
	case w.parallel:
		w.pending = append(w.pending, p...)
		if len(w.pending) == w.cfg.Workers*int(w.d.ChunkSize)*w.pointSize {
			if err := w.flushPending(); err != nil {
				return w.fail(err)
			}
		}
	default:
		if err := w.writeSerial(p); err != nil {
			return w.fail(err)
		}
	}
	w.count++
	return nil
}

func (w *Writer) writeSerial(p []byte) error {
	if !w.inChunk {
		w.inChunk = true
		w.chunkStart = w.w.Tell()
		w.chunkN = 1
		if err := w.cur.begin(w.w, p); err != nil {
			return err
		}
	} else {
		if err := w.cur.add(p); err != nil {
			return err
		}
		w.chunkN++
	}
	if w.d.Chunked() && !w.d.VariableChunks() && w.chunkN == w.d.ChunkSize {
		return w.endChunk()
	}
	return nil
}

func (w *Writer) endChunk() error {
	if err := w.cur.end(); err != nil {
		return err
	}
	w.inChunk = false
	return w.record(w.chunkN, w.w.Tell()-w.chunkStart)
}

// record adds a finished chunk to the chunk table.
func (w *Writer) record(n uint32, size int64) error {
	w.cfg.Metrics.chunk(dirWrite, size)
	w.cfg.Metrics.addPoints(dirWrite, int(n))
	return w.table.add(n, size)
}

// flushPending compresses the pending points in parallel. The chunks are
// written in order after all of them have been compressed.
func (w *Writer) flushPending() error {
	if len(w.pending) == 0 {
		return nil
	}
	chunkBytes := int(w.d.ChunkSize) * w.pointSize
	var chunks [][]byte
	for p := w.pending; len(p) > 0; {
		k := min(chunkBytes, len(p))
		chunks = append(chunks, p[:k])
		p = p[k:]
	}
	bufs := make([]bytes.Buffer, len(chunks))
	var g errgroup.Group
	g.SetLimit(w.cfg.Workers)
	for i := range chunks {
		g.Go(func() error {
			c, err := newChunkEncoder(w.d)
			if err != nil {
				return err
			}
			return c.encode(&bufs[i], chunks[i], w.pointSize)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range bufs {
		n, err := w.w.Write(bufs[i].Bytes())
		if err != nil {
			return err
		}
		if err = w.record(uint32(len(chunks[i])/w.pointSize),
			int64(n)); err != nil {
			return err
		}
	}
	w.pending = w.pending[:0]
	return nil
}

// Chunk finishes the current chunk. It is only supported for variable
// chunk sizes. Calling Chunk without points written since the last call
// does nothing.
func (w *Writer) Chunk() error {
	if w.err != nil {
		return w.err
	}
	if !w.d.VariableChunks() {
		return unsupported("Chunk requires chunk size %#x",
			uint32(ChunkSizeVariable))
	}
	if !w.inChunk {
		return nil
	}
	if err := w.endChunk(); err != nil {
		return w.fail(err)
	}
	return nil
}

// Close finishes the last chunk, writes the chunk table and flushes the
// stream. It doesn't close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if err := w.close(); err != nil {
		return w.fail(err)
	}
	w.err = errWriterClosed
	return nil
}

func (w *Writer) close() error {
	if w.d.Compressor == CompressorNone {
		w.cfg.Metrics.addPoints(dirWrite, int(w.count))
		return w.w.Flush()
	}
	if err := w.flushPending(); err != nil {
		return err
	}
	if w.inChunk {
		if err := w.endChunk(); err != nil {
			return err
		}
	}
	if w.d.Chunked() {
		if err := w.writeTable(); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// writeTable appends the chunk table and stores its offset in the pointer
// at the start of the stream. Streams that can't seek get the offset
// appended instead.
func (w *Writer) writeTable() error {
	pos := w.w.Tell()
	if err := w.table.write(w.w, w.d.VariableChunks()); err != nil {
		return err
	}
	xlog.Debug(w.cfg.Logger, "laz: chunk table written",
		"offset", pos, "chunks", w.table.len(), "points", w.count)
	if !w.w.Seekable() {
		return w.w.WriteInt64(pos)
	}
	end := w.w.Tell()
	if err := w.w.Seek(w.start); err != nil {
		return err
	}
	if err := w.w.WriteInt64(pos); err != nil {
		return err
	}
	return w.w.Seek(end)
}
