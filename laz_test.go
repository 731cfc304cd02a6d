// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ulikunitz/laz/internal/corpus"
	"github.com/ulikunitz/laz/items"
)

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	p   []byte
	off int
}

func (b *seekBuffer) Write(p []byte) (n int, err error) {
	end := b.off + len(p)
	if end > len(b.p) {
		b.p = append(b.p, make([]byte, end-len(b.p))...)
	}
	copy(b.p[b.off:], p)
	b.off = end
	return len(p), nil
}

func (b *seekBuffer) Seek(off int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		off += int64(b.off)
	case io.SeekEnd:
		off += int64(len(b.p))
	}
	if off < 0 {
		return 0, errors.New("seekBuffer: negative offset")
	}
	b.off = int(off)
	return off, nil
}

func (b *seekBuffer) Bytes() []byte { return b.p }

// onlyReader hides the Seek method of a reader.
type onlyReader struct{ io.Reader }

// onlyWriter hides the Seek method of a writer.
type onlyWriter struct{ io.Writer }

var payload []byte

// extraBytes returns real data for the extra bytes of the points.
func extraBytes(t testing.TB) []byte {
	if payload != nil {
		return payload
	}
	files, err := corpus.Silesia(1 << 14)
	if err != nil {
		t.Fatalf("corpus.Silesia error %s", err)
	}
	for _, f := range files {
		payload = append(payload, f.Data...)
	}
	return payload
}

// genPoints generates n points for the items of d. The points change
// like the points of an airborne scan.
func genPoints(t testing.TB, d *Descriptor, n int, seed int64) [][]byte {
	rng := rand.New(rand.NewSource(seed))
	extra := extraBytes(t)
	p10 := items.Point10Record{X: 500000, Y: 700000, Z: 1200,
		NumberOfReturns: 1, ReturnNumber: 1, Classification: 2}
	p14 := items.Point14Record{X: -300000, Y: 400000, Z: 800,
		NumberOfReturns: 2, ReturnNumber: 1, Classification: 6,
		GPSTime: 2.5e8}
	rgb := items.RGBRecord{R: 12000, G: 13000, B: 11000, NIR: 9000}
	wp := items.WavepacketRecord{DescriptorIndex: 1, Offset: 1 << 20,
		PacketSize: 256, ReturnPoint: 1500, DX: 0.25, DY: -0.5, DZ: 1}
	gps := 86400.0
	ps := d.PointSize()
	points := make([][]byte, n)
	for k := range points {
		p := make([]byte, ps)
		q := p
		for _, it := range d.Items {
			f := q[:it.Size]
			q = q[it.Size:]
			switch it.Kind {
			case items.Point10:
				p10.X += int32(rng.Intn(31) - 10)
				p10.Y += int32(rng.Intn(9) - 4)
				p10.Z += int32(rng.Intn(21) - 10)
				p10.Intensity = uint16(rng.Intn(1000))
				p10.NumberOfReturns = uint8(1 + rng.Intn(4))
				p10.ReturnNumber = uint8(1 +
					rng.Intn(int(p10.NumberOfReturns)))
				p10.ScanAngleRank = int8(rng.Intn(41) - 20)
				if rng.Intn(25) == 0 {
					p10.Classification = uint8(rng.Intn(20))
				}
				p10.Pack(f)
			case items.Point14:
				p14.X += int32(rng.Intn(31) - 10)
				p14.Y += int32(rng.Intn(9) - 4)
				p14.Z += int32(rng.Intn(21) - 10)
				p14.Intensity = uint16(rng.Intn(1000))
				p14.NumberOfReturns = uint8(1 + rng.Intn(6))
				p14.ReturnNumber = uint8(1 +
					rng.Intn(int(p14.NumberOfReturns)))
				if rng.Intn(40) == 0 {
					p14.ScannerChannel = uint8(rng.Intn(4))
				}
				p14.ScanAngle = int16(rng.Intn(2001) - 1000)
				if rng.Intn(30) == 0 {
					p14.UserData = uint8(rng.Intn(256))
				}
				if rng.Intn(3) > 0 {
					p14.GPSTime += 1e-5
				}
				p14.Pack(f)
			case items.GPSTime11:
				if rng.Intn(4) > 0 {
					gps += 2e-5
				}
				binary.LittleEndian.PutUint64(f, math.Float64bits(gps))
			case items.RGB12, items.RGB14, items.RGBNIR14:
				if rng.Intn(5) == 0 {
					rgb.R += uint16(rng.Intn(512))
					rgb.G += uint16(rng.Intn(512))
					rgb.B += uint16(rng.Intn(256))
					rgb.NIR -= uint16(rng.Intn(128))
				}
				rgb.Pack(f)
			case items.Wavepacket13, items.Wavepacket14:
				wp.Offset += uint64(wp.PacketSize)
				wp.ReturnPoint += float32(rng.Intn(10))
				wp.Pack(f)
			default:
				i := (k * int(it.Size)) % (len(extra) - int(it.Size))
				copy(f, extra[i:])
			}
		}
		points[k] = p
	}
	return points
}

// compress writes the points and returns the stream and the writer.
func compress(t *testing.T, cfg WriterConfig, points [][]byte) ([]byte, *Writer) {
	t.Helper()
	var buf seekBuffer
	w, err := NewWriterConfig(&buf, cfg)
	require.NoError(t, err)
	for _, p := range points {
		require.NoError(t, w.WritePoint(p))
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w
}

// newReader creates a reader for the stream data.
func newReader(t *testing.T, data []byte, d *Descriptor, n int64,
	skip items.Selective) *Reader {

	t.Helper()
	r, err := NewReader(bytes.NewReader(data),
		ReaderConfig{Descriptor: d, Points: n, Skip: skip})
	require.NoError(t, err)
	return r
}

// readAll reads all points of the reader.
func readAll(t *testing.T, r *Reader) [][]byte {
	t.Helper()
	var points [][]byte
	for {
		p := make([]byte, r.Descriptor().PointSize())
		err := r.ReadPoint(p)
		if err == io.EOF {
			return points
		}
		require.NoError(t, err)
		points = append(points, p)
	}
}
