// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/laz/rc"
)

// encode compresses the points as a single chunk. The first point is not
// part of the result.
func encode(t *testing.T, its []Item, points [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := rc.NewEncoder(&buf)
	ws := make([]Writer, len(its))
	for i, it := range its {
		w, err := NewWriter(it, enc)
		require.NoError(t, err)
		ws[i] = w
	}
	var context uint32
	for k, p := range points {
		for i, f := range fields(its, p) {
			var err error
			if k == 0 {
				err = ws[i].Init(f, &context)
			} else {
				err = ws[i].Write(f, &context)
			}
			require.NoError(t, err)
		}
	}
	if !its[0].Kind.Layered() {
		require.NoError(t, enc.Close())
		return buf.Bytes()
	}
	for _, w := range ws {
		require.NoError(t, w.(LayeredWriter).WriteChunkSizes(&buf))
	}
	for _, w := range ws {
		require.NoError(t, w.(LayeredWriter).WriteChunkBytes(&buf))
	}
	return buf.Bytes()
}

// decode decompresses n points from data given the first point.
func decode(t *testing.T, its []Item, data, first []byte, n int,
	sel Selective) [][]byte {

	t.Helper()
	dec := new(rc.Decoder)
	rs := make([]Reader, len(its))
	for i, it := range its {
		r, err := NewReader(it, dec, sel)
		require.NoError(t, err)
		rs[i] = r
	}
	in := bytes.NewReader(data)
	layered := its[0].Kind.Layered()
	if layered {
		for _, r := range rs {
			require.NoError(t, r.(LayeredReader).ReadChunkSizes(in))
		}
		for _, r := range rs {
			require.NoError(t, r.(LayeredReader).ReadChunkBytes(in))
		}
	}
	var context uint32
	p := append([]byte(nil), first...)
	for i, f := range fields(its, p) {
		require.NoError(t, rs[i].Init(f, &context))
	}
	points := [][]byte{p}
	if !layered && n > 1 {
		require.NoError(t, dec.Init(in))
	}
	for k := 1; k < n; k++ {
		p := make([]byte, len(first))
		for i, f := range fields(its, p) {
			require.NoError(t, rs[i].Read(f, &context))
		}
		points = append(points, p)
	}
	return points
}

func TestRoundTrip(t *testing.T) {
	tests := [][]Item{
		{{Point10, 20, 1}},
		{{Point10, 20, 2}},
		{{GPSTime11, 8, 1}},
		{{GPSTime11, 8, 2}},
		{{RGB12, 6, 1}},
		{{RGB12, 6, 2}},
		{{Wavepacket13, 29, 1}},
		{{Byte, 5, 1}},
		{{Byte, 5, 2}},
		{{Point10, 20, 2}, {GPSTime11, 8, 2}, {RGB12, 6, 2}},
		{{Point10, 20, 1}, {GPSTime11, 8, 1}, {RGB12, 6, 1},
			{Wavepacket13, 29, 1}, {Byte, 3, 1}},
		{{Point14, 30, 3}},
		{{Point14, 30, 4}},
		{{Point14, 30, 3}, {RGB14, 6, 3}},
		{{Point14, 30, 3}, {RGBNIR14, 8, 3}, {Wavepacket14, 29, 3},
			{Byte14, 3, 3}},
	}
	for i, its := range tests {
		t.Run(fmt.Sprintf("%d_%s", i, its[0].Kind), func(t *testing.T) {
			points := genPoints(its, 2000, int64(i)+1)
			data := encode(t, its, points)
			got := decode(t, its, data, points[0], len(points),
				SelectAll)
			require.Equal(t, points, got)
		})
	}
}

func TestSinglePointChunk(t *testing.T) {
	for _, its := range [][]Item{
		{{Point10, 20, 2}},
		{{Point14, 30, 3}, {RGB14, 6, 3}},
	} {
		points := genPoints(its, 1, 5)
		data := encode(t, its, points)
		got := decode(t, its, data, points[0], 1, SelectAll)
		require.Equal(t, points, got)
	}
}

func TestPoint10GPSRGB(t *testing.T) {
	its := []Item{{Point10, 20, 2}, {GPSTime11, 8, 2}, {RGB12, 6, 2}}
	xyz := [3][3]int32{{1000, 2000, 300}, {1005, 1998, 305},
		{1010, 2003, 310}}
	rgb := RGBRecord{R: 40000, G: 30000, B: 20000}
	points := make([][]byte, len(xyz))
	for k, c := range xyz {
		p := make([]byte, pointSize(its))
		f := fields(its, p)
		r := Point10Record{X: c[0], Y: c[1], Z: c[2],
			ReturnNumber: 1, NumberOfReturns: 1}
		r.Pack(f[0])
		le.PutUint64(f[1], math.Float64bits(1000.0+0.5*float64(k)))
		rgb.Pack(f[2])
		points[k] = p
	}
	data := encode(t, its, points)
	got := decode(t, its, data, points[0], len(points), SelectAll)
	require.Equal(t, points, got)

	for k := 1; k < len(got); k++ {
		prev, cur := fields(its, got[k-1]), fields(its, got[k])
		var a, b RGBRecord
		a.Unpack(prev[2])
		b.Unpack(cur[2])
		if c := rgbChanges(&a, &b); c != 0 {
			t.Errorf("point %d: rgb changes %#x; want none", k, c)
		}
		if bytes.Equal(prev[1], cur[1]) {
			t.Errorf("point %d: gps time unchanged", k)
		}
		var r Point10Record
		r.Unpack(cur[0])
		if r.X != xyz[k][0] || r.Y != xyz[k][1] || r.Z != xyz[k][2] {
			t.Errorf("point %d: got (%d,%d,%d); want %v",
				k, r.X, r.Y, r.Z, xyz[k])
		}
	}
}

func TestPoint14Selective(t *testing.T) {
	its := []Item{{Point14, 30, 3}}
	points := genPoints(its, 3000, 11)
	data := encode(t, its, points)

	var first Point14Record
	first.Unpack(points[0])
	got := decode(t, its, data, points[0], len(points),
		SelectChannelReturnsXY)
	for k := range points {
		var want, g Point14Record
		want.Unpack(points[k])
		g.Unpack(got[k])
		if g.X != want.X || g.Y != want.Y ||
			g.ReturnNumber != want.ReturnNumber ||
			g.NumberOfReturns != want.NumberOfReturns ||
			g.ScannerChannel != want.ScannerChannel {
			t.Fatalf("point %d: got %+v; want %+v", k, g, want)
		}
		if g.Z != first.Z || g.Intensity != first.Intensity ||
			g.GPSTime != first.GPSTime ||
			g.Classification != first.Classification {
			t.Fatalf("point %d: skipped layer decoded: %+v", k, g)
		}
	}

	got = decode(t, its, data, points[0], len(points), SelectAll&^SelectZ)
	for k := range points {
		var want, g Point14Record
		want.Unpack(points[k])
		g.Unpack(got[k])
		want.Z = first.Z
		require.Equal(t, want, g, "point %d", k)
	}
}

func TestByte14Selective(t *testing.T) {
	its := []Item{{Point14, 30, 3}, {Byte14, 3, 3}}
	points := genPoints(its, 500, 12)
	data := encode(t, its, points)
	got := decode(t, its, data, points[0], len(points), SelectByte(1))
	first := fields(its, points[0])[1]
	for k := range points {
		want := fields(its, points[k])[1]
		g := fields(its, got[k])[1]
		if g[0] != first[0] || g[1] != want[1] || g[2] != first[2] {
			t.Fatalf("point %d: got %v; want byte 1 of %v", k, g, want)
		}
	}
}

func TestUnchangedLayerIsEmpty(t *testing.T) {
	its := []Item{{Point14, 30, 3}}
	points := make([][]byte, 100)
	for k := range points {
		r := Point14Record{X: int32(k), Y: int32(2 * k), Z: 10,
			ReturnNumber: 1, NumberOfReturns: 1, Classification: 2,
			GPSTime: float64(k)}
		points[k] = make([]byte, Point14Size)
		r.Pack(points[k])
	}
	data := encode(t, its, points)
	sizes := make([]uint32, p14Layers)
	for i := range sizes {
		sizes[i] = le.Uint32(data[4*i:])
	}
	require.NotZero(t, sizes[p14LayerXY])
	require.NotZero(t, sizes[p14LayerZ])
	require.NotZero(t, sizes[p14LayerGPSTime])
	require.Zero(t, sizes[p14LayerIntensity])
	require.Zero(t, sizes[p14LayerClassification])
	require.Zero(t, sizes[p14LayerFlags])
	require.Zero(t, sizes[p14LayerScanAngle])
	require.Zero(t, sizes[p14LayerUserData])
	require.Zero(t, sizes[p14LayerPointSource])

	got := decode(t, its, data, points[0], len(points), SelectAll)
	require.Equal(t, points, got)
}

func TestChannelsAreIsolated(t *testing.T) {
	its := []Item{{Point14, 30, 3}, {RGB14, 6, 3}}
	points := make([][]byte, 400)
	for k := range points {
		ch := uint8(k % 2)
		r := Point14Record{X: int32(k) + 1000*int32(ch),
			Y: 5 * int32(k), Z: int32(ch) * 100, ReturnNumber: 1,
			NumberOfReturns: 1, ScannerChannel: ch,
			GPSTime: 10 + float64(k)}
		c := RGBRecord{R: 100 * uint16(ch+1), G: 7, B: 9}
		p := make([]byte, pointSize(its))
		f := fields(its, p)
		r.Pack(f[0])
		c.Pack(f[1])
		points[k] = p
	}
	data := encode(t, its, points)
	got := decode(t, its, data, points[0], len(points), SelectAll)
	require.Equal(t, points, got)
}

func TestGPSTimeRepeatedSwitch(t *testing.T) {
	var buf bytes.Buffer
	enc := rc.NewEncoder(&buf)
	g := newGPSTime2Encoder(enc)
	g.init(0)
	// two switches in a row, which no encoder produces
	enc.EncodeSymbol(g.m0Diff, 3)
	enc.EncodeSymbol(g.m0Diff, 3)
	require.NoError(t, enc.Close())

	dec := new(rc.Decoder)
	d := newGPSTime2Decoder(dec)
	d.init(0)
	require.NoError(t, dec.Init(bytes.NewReader(buf.Bytes())))
	_, err := d.read()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("read returned %v; want ErrCorrupt", err)
	}
}

func TestUnsupported(t *testing.T) {
	for _, it := range []Item{
		{Short, 2, 1},
		{Point10, 19, 2},
		{Point14, 30, 2},
		{GPSTime11, 8, 3},
		{Byte, 0, 2},
	} {
		if _, err := NewWriter(it, nil); !errors.Is(err, ErrUnsupported) {
			t.Errorf("NewWriter(%s) error %v; want ErrUnsupported",
				it, err)
		}
		_, err := NewReader(it, nil, SelectAll)
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("NewReader(%s) error %v; want ErrUnsupported",
				it, err)
		}
	}
}

func TestTruncatedLayers(t *testing.T) {
	its := []Item{{Point14, 30, 3}}
	points := genPoints(its, 200, 3)
	data := encode(t, its, points)
	r, err := NewReader(its[0], nil, SelectAll)
	require.NoError(t, err)
	lr := r.(LayeredReader)
	in := bytes.NewReader(data[:len(data)-10])
	require.NoError(t, lr.ReadChunkSizes(in))
	if err = lr.ReadChunkBytes(in); err == nil {
		t.Fatal("ReadChunkBytes on truncated data succeeded")
	}
}

func TestPoint10v2HeightStartsAtZero(t *testing.T) {
	its := []Item{{Point10, 20, 2}}
	points := make([][]byte, 6)
	for k := range points {
		r := Point10Record{X: 10 * int32(k), Y: 3 * int32(k),
			Z: 1000 + int32(k), ReturnNumber: uint8(1 + k%3),
			NumberOfReturns: 3}
		points[k] = make([]byte, Point10Size)
		r.Pack(points[k])
	}

	w := newPoint10v2Writer(rc.NewEncoder(new(bytes.Buffer)))
	var context uint32
	require.NoError(t, w.Init(points[0], &context))
	require.Equal(t, [8]int32{}, w.lastHeight)

	// The heights of the following points are predicted from zero on
	// every return level, so the Z of the first point doesn't enter
	// the compressed data.
	data := encode(t, its, points)
	var r Point10Record
	r.Unpack(points[0])
	r.Z = -7777
	other := append([][]byte{make([]byte, Point10Size)}, points[1:]...)
	r.Pack(other[0])
	require.Equal(t, data, encode(t, its, other))

	got := decode(t, its, data, points[0], len(points), SelectAll)
	require.Equal(t, points, got)
}

func TestLayerOverrun(t *testing.T) {
	its := []Item{{Point14, 30, 3}}
	points := genPoints(its, 200, 8)
	data := encode(t, its, points)

	short := append([]byte(nil), data...)
	le.PutUint32(short[4*p14LayerXY:], 2)
	r, err := NewReader(its[0], nil, SelectAll)
	require.NoError(t, err)
	lr := r.(LayeredReader)
	in := bytes.NewReader(short)
	require.NoError(t, lr.ReadChunkSizes(in))
	err = lr.ReadChunkBytes(in)
	require.ErrorIs(t, err, ErrCorrupt)

	le.PutUint32(short[4*p14LayerXY:], 8)
	r, err = NewReader(its[0], nil, SelectChannelReturnsXY)
	require.NoError(t, err)
	lr = r.(LayeredReader)
	in = bytes.NewReader(short)
	require.NoError(t, lr.ReadChunkSizes(in))
	require.NoError(t, lr.ReadChunkBytes(in))
	var context uint32
	p := append([]byte(nil), points[0]...)
	require.NoError(t, r.Init(p, &context))
	for k := 1; k < len(points); k++ {
		if err = r.Read(p, &context); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrCorrupt)
	require.NotErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEdgeValues(t *testing.T) {
	tests := [][]Item{
		{{Point10, 20, 1}},
		{{Point10, 20, 2}},
		{{GPSTime11, 8, 1}},
		{{GPSTime11, 8, 2}},
		{{RGB12, 6, 1}},
		{{RGB12, 6, 2}},
		{{Wavepacket13, 29, 1}},
		{{Byte, 4, 2}},
		{{Point14, 30, 3}},
		{{Point14, 30, 3}, {RGBNIR14, 8, 3}, {Wavepacket14, 29, 3},
			{Byte14, 2, 3}},
	}
	for i, its := range tests {
		t.Run(fmt.Sprintf("%d_%s", i, its[0].Kind), func(t *testing.T) {
			points := genEdgePoints(its, 1000, int64(i)+100)
			data := encode(t, its, points)
			got := decode(t, its, data, points[0], len(points),
				SelectAll)
			require.Equal(t, points, got)
		})
	}
}

func TestGPSTimeSequences(t *testing.T) {
	its := []Item{{GPSTime11, 8, 2}}
	bases := []float64{10, 2e4, 5e7, 3e9, 1e12, 6e14}
	var times []float64
	// three sequences fit into the slots; six force replacements
	for _, n := range []int{3, 6} {
		for k := 0; k < 300; k++ {
			i := k % n
			if k%7 == 0 {
				i = (k / 7) % n
			}
			bases[i] *= 1 + 1e-10
			times = append(times, bases[i])
			if k%11 == 0 {
				// unchanged time
				times = append(times, bases[i])
			}
		}
	}
	points := make([][]byte, len(times))
	for k, x := range times {
		points[k] = make([]byte, 8)
		le.PutUint64(points[k], math.Float64bits(x))
	}
	data := encode(t, its, points)
	got := decode(t, its, data, points[0], len(points), SelectAll)
	require.Equal(t, points, got)
}

// channelState is the prediction state of a scanner channel.
type channelState struct {
	Last          Point14Record
	LastGPSChange bool
	LastIntensity [8]uint16
	LastXDiff     [12]median5
	LastYDiff     [12]median5
	LastZ         [8]int32
	GPS           [4]int64
	GPSDiffs      [4]int32
}

func stateOf(c *point14DecContext) channelState {
	return channelState{
		Last:          c.last,
		LastGPSChange: c.lastGPSChange,
		LastIntensity: c.lastIntensity,
		LastXDiff:     c.lastXDiff,
		LastYDiff:     c.lastYDiff,
		LastZ:         c.lastZ,
		GPS:           c.gps.times,
		GPSDiffs:      c.gps.diffs,
	}
}

// decodePoint14 decodes the points and returns the reader.
func decodePoint14(t *testing.T, points [][]byte) *point14Reader {
	t.Helper()
	its := []Item{{Point14, 30, 3}}
	data := encode(t, its, points)
	r := newPoint14Reader(SelectAll)
	in := bytes.NewReader(data)
	require.NoError(t, r.ReadChunkSizes(in))
	require.NoError(t, r.ReadChunkBytes(in))
	var context uint32
	p := append([]byte(nil), points[0]...)
	require.NoError(t, r.Init(p, &context))
	for k := 1; k < len(points); k++ {
		require.NoError(t, r.Read(p, &context))
		require.Equal(t, points[k], p, "point %d", k)
		require.Equal(t, uint32(points[k][15]>>4&3), context)
	}
	return r
}

func TestFourChannels(t *testing.T) {
	points := genPoints([]Item{{Point14, 30, 3}}, 2000, 31)
	for k, p := range points {
		// every channel from the second point on
		if k > 0 && k < 5 {
			p[15] = p[15]&^0x30 | byte(k-1)<<4
		}
	}
	mixed := decodePoint14(t, points)

	for ch := byte(0); ch < contexts; ch++ {
		// A channel starts with the first point of the chunk or
		// with the point preceding its first point.
		var single [][]byte
		for k := range points {
			if points[k][15]>>4&3 != ch {
				continue
			}
			if single == nil && k > 0 {
				first := append([]byte(nil), points[k-1]...)
				first[15] = first[15]&^0x30 | ch<<4
				single = append(single, first)
			}
			single = append(single, points[k])
		}
		require.Greater(t, len(single), 100, "channel %d", ch)
		alone := decodePoint14(t, single)
		require.Equal(t, stateOf(alone.contexts[ch]),
			stateOf(mixed.contexts[ch]), "channel %d", ch)
	}
}
