// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"math"
	"math/rand"
)

// The generators produce point sequences that resemble airborne scans:
// slowly moving coordinates, mostly increasing GPS times and rarely
// changing attributes.

type gen func(p []byte)

func newGen(it Item, rng *rand.Rand) gen {
	switch it.Kind {
	case Point10:
		r := Point10Record{X: 100000, Y: 200000, Z: 3000,
			Classification: 2, PointSourceID: 7}
		return func(p []byte) {
			r.X += int32(rng.Intn(21) - 5)
			r.Y += int32(rng.Intn(11) - 5)
			r.Z += int32(rng.Intn(41) - 20)
			r.Intensity = uint16(rng.Intn(400))
			r.NumberOfReturns = uint8(1 + rng.Intn(5))
			r.ReturnNumber = uint8(1 + rng.Intn(int(r.NumberOfReturns)))
			r.ScanDirectionFlag = uint8(rng.Intn(2))
			if rng.Intn(50) == 0 {
				r.EdgeOfFlightLine ^= 1
			}
			if rng.Intn(10) == 0 {
				r.Classification = uint8(rng.Intn(32))
			}
			r.ScanAngleRank = int8(rng.Intn(61) - 30)
			if rng.Intn(20) == 0 {
				r.UserData = uint8(rng.Intn(256))
			}
			if rng.Intn(100) == 0 {
				r.PointSourceID++
			}
			r.Pack(p)
		}
	case GPSTime11:
		t := 123456.0
		return func(p []byte) {
			switch rng.Intn(20) {
			case 0:
			case 1:
				t += 1e4
			default:
				t += 1e-5 * float64(1+rng.Intn(3))
			}
			le.PutUint64(p, math.Float64bits(t))
		}
	case RGB12, RGB14, RGBNIR14:
		r := RGBRecord{R: 1000, G: 2000, B: 3000, NIR: 500}
		return func(p []byte) {
			switch rng.Intn(4) {
			case 0:
			case 1:
				r.R += uint16(rng.Intn(600))
				r.G, r.B = r.R, r.R
			default:
				r.R += uint16(rng.Intn(9) - 4)
				r.G += uint16(rng.Intn(300))
				r.B -= uint16(rng.Intn(300))
			}
			if rng.Intn(3) == 0 {
				r.NIR += uint16(rng.Intn(1000) - 500)
			}
			r.Pack(p[:it.Size])
		}
	case Wavepacket13, Wavepacket14:
		w := WavepacketRecord{DescriptorIndex: 1, Offset: 1000,
			PacketSize: 256, ReturnPoint: 12.5, DX: 0.25, DY: -0.5,
			DZ: 0.125}
		return func(p []byte) {
			switch rng.Intn(5) {
			case 0:
			case 1:
				w.Offset += uint64(w.PacketSize)
			case 2:
				w.Offset += uint64(rng.Intn(5000))
			case 3:
				w.Offset += 1 << 40
			default:
				w.Offset -= uint64(rng.Intn(100))
			}
			if rng.Intn(10) == 0 {
				w.DescriptorIndex = uint8(rng.Intn(4))
				w.PacketSize = uint32(64 << rng.Intn(4))
			}
			w.ReturnPoint = float32(rng.Intn(1000)) / 10
			w.DX = float32(rng.Intn(100)-50) / 64
			w.DY = float32(rng.Intn(100)-50) / 64
			w.DZ = -1
			w.Pack(p)
		}
	case Byte, Byte14:
		b := make([]byte, it.Size)
		return func(p []byte) {
			for i := range b {
				if rng.Intn(3) == 0 {
					b[i] += byte(rng.Intn(7) - 3)
				}
			}
			copy(p, b)
		}
	case Point14:
		r := Point14Record{X: -500000, Y: 4000000, Z: 120,
			Classification: 1, PointSourceID: 3, GPSTime: 2.5e8}
		return func(p []byte) {
			if rng.Intn(8) == 0 {
				r.ScannerChannel = uint8(rng.Intn(4))
			}
			r.X += int32(rng.Intn(41) - 10)
			r.Y += int32(rng.Intn(21) - 10)
			r.Z += int32(rng.Intn(81) - 40)
			r.Intensity = uint16(rng.Intn(4000))
			if rng.Intn(4) == 0 {
				r.NumberOfReturns = uint8(1 + rng.Intn(15))
			}
			r.ReturnNumber = uint8(rng.Intn(16))
			r.ScanDirectionFlag = uint8(rng.Intn(2))
			if rng.Intn(40) == 0 {
				r.EdgeOfFlightLine ^= 1
			}
			if rng.Intn(10) == 0 {
				r.Classification = uint8(rng.Intn(256))
				r.ClassificationFlags = uint8(rng.Intn(16))
			}
			if rng.Intn(3) == 0 {
				r.ScanAngle = int16(rng.Intn(30001) - 15000)
			}
			if rng.Intn(20) == 0 {
				r.UserData = uint8(rng.Intn(256))
			}
			if rng.Intn(50) == 0 {
				r.PointSourceID = uint16(rng.Intn(1 << 16))
			}
			if rng.Intn(3) != 0 {
				r.GPSTime += 1e-6 * float64(1+rng.Intn(4))
			}
			r.Pack(p)
		}
	}
	panic("no generator for " + it.String())
}

func pointSize(its []Item) int {
	n := 0
	for _, it := range its {
		n += int(it.Size)
	}
	return n
}

// fields splits a point into the slices of its items.
func fields(its []Item, p []byte) [][]byte {
	f := make([][]byte, len(its))
	for i, it := range its {
		f[i] = p[:it.Size:it.Size]
		p = p[it.Size:]
	}
	return f
}

func genPoints(its []Item, n int, seed int64) [][]byte {
	return generate(its, n, seed, newGen)
}

// genEdgePoints produces points with the extreme values of the fields.
func genEdgePoints(its []Item, n int, seed int64) [][]byte {
	return generate(its, n, seed, newEdgeGen)
}

func generate(its []Item, n int, seed int64,
	newGen func(Item, *rand.Rand) gen) [][]byte {

	rng := rand.New(rand.NewSource(seed))
	gens := make([]gen, len(its))
	for i, it := range its {
		gens[i] = newGen(it, rng)
	}
	points := make([][]byte, n)
	for k := range points {
		p := make([]byte, pointSize(its))
		for i, f := range fields(its, p) {
			gens[i](f)
		}
		points[k] = p
	}
	return points
}

var (
	edgeInt32  = []int32{math.MinInt32, math.MaxInt32, 0, -1, 1}
	edgeUint16 = []uint16{0, math.MaxUint16, 0x00ff, 0xff00}
	edgeGPS    = []float64{0, math.MaxFloat64, -math.MaxFloat64,
		math.SmallestNonzeroFloat64, -0.5, 1e-300, 7e15}
)

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.Intn(len(values))]
}

// edgeGPSTime returns GPS times that either repeat, jump between the
// extreme values or continue one of six interleaved sequences. The
// sequences are too far apart to be reached by 32-bit differences.
func edgeGPSTime(rng *rand.Rand) func() float64 {
	seqs := []float64{100, 1e5, 3e7, 1e10, 4e12, 2e14}
	t := seqs[0]
	return func() float64 {
		switch rng.Intn(8) {
		case 0:
		case 1:
			t = pick(rng, edgeGPS)
		default:
			i := rng.Intn(len(seqs))
			seqs[i] += 1e-9 * float64(1+rng.Intn(3)) * seqs[i]
			t = seqs[i]
		}
		return t
	}
}

func newEdgeGen(it Item, rng *rand.Rand) gen {
	switch it.Kind {
	case Point10:
		var r Point10Record
		return func(p []byte) {
			r.X = pick(rng, edgeInt32)
			r.Y = pick(rng, edgeInt32)
			r.Z = pick(rng, edgeInt32)
			r.Intensity = pick(rng, edgeUint16)
			r.ReturnNumber = uint8(rng.Intn(8))
			r.NumberOfReturns = uint8(rng.Intn(8))
			r.ScanDirectionFlag = uint8(rng.Intn(2))
			r.EdgeOfFlightLine = uint8(rng.Intn(2))
			r.Classification = pick(rng, []uint8{0, 31, 255})
			r.ScanAngleRank = pick(rng, []int8{math.MinInt8,
				math.MaxInt8, 0})
			r.UserData = pick(rng, []uint8{0, 255})
			r.PointSourceID = pick(rng, edgeUint16)
			r.Pack(p)
		}
	case GPSTime11:
		next := edgeGPSTime(rng)
		return func(p []byte) {
			le.PutUint64(p, math.Float64bits(next()))
		}
	case RGB12, RGB14, RGBNIR14:
		return func(p []byte) {
			var r RGBRecord
			switch rng.Intn(3) {
			case 0:
			case 1:
				r = RGBRecord{math.MaxUint16, math.MaxUint16,
					math.MaxUint16, math.MaxUint16}
			default:
				r = RGBRecord{pick(rng, edgeUint16),
					pick(rng, edgeUint16), pick(rng, edgeUint16),
					pick(rng, edgeUint16)}
			}
			r.Pack(p[:it.Size])
		}
	case Wavepacket13, Wavepacket14:
		return func(p []byte) {
			offset := pick(rng, []uint64{0, math.MaxUint64, 1 << 63})
			w := WavepacketRecord{
				DescriptorIndex: pick(rng, []uint8{0, 255}),
				Offset:          offset,
				PacketSize:      pick(rng, []uint32{0, math.MaxUint32}),
				ReturnPoint:     pick(rng, []float32{0, math.MaxFloat32}),
				DX:              -math.MaxFloat32,
				DY:              math.SmallestNonzeroFloat32,
				DZ:              pick(rng, []float32{0, 1}),
			}
			w.Pack(p)
		}
	case Byte, Byte14:
		return func(p []byte) {
			c := pick(rng, []byte{0, 0xff})
			for i := range p {
				p[i] = c
			}
		}
	case Point14:
		var r Point14Record
		next := edgeGPSTime(rng)
		return func(p []byte) {
			r.ScannerChannel = uint8(rng.Intn(4))
			r.X = pick(rng, edgeInt32)
			r.Y = pick(rng, edgeInt32)
			r.Z = pick(rng, edgeInt32)
			r.Intensity = pick(rng, edgeUint16)
			r.ReturnNumber = uint8(rng.Intn(16))
			r.NumberOfReturns = uint8(rng.Intn(16))
			r.ClassificationFlags = uint8(rng.Intn(16))
			r.ScanDirectionFlag = uint8(rng.Intn(2))
			r.EdgeOfFlightLine = uint8(rng.Intn(2))
			r.Classification = pick(rng, []uint8{0, 255})
			r.UserData = pick(rng, []uint8{0, 255})
			r.ScanAngle = pick(rng, []int16{math.MinInt16,
				math.MaxInt16, 0})
			r.PointSourceID = pick(rng, edgeUint16)
			r.GPSTime = next()
			r.Pack(p)
		}
	}
	panic("no edge generator for " + it.String())
}
