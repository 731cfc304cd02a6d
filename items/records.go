// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"encoding/binary"
	"math"
)

var le = binary.LittleEndian

// Point10Record is the core record of the point types 0 to 5. The layout of
// the packed 20 bytes is X, Y, Z (int32), intensity (uint16), the bit byte
// holding return number, number of returns, scan direction and edge of
// flight line, classification, scan angle rank, user data and point source
// ID.
type Point10Record struct {
	X, Y, Z           int32
	Intensity         uint16
	ReturnNumber      uint8
	NumberOfReturns   uint8
	ScanDirectionFlag uint8
	EdgeOfFlightLine  uint8
	Classification    uint8
	ScanAngleRank     int8
	UserData          uint8
	PointSourceID     uint16
}

// Unpack reads the record from p.
func (r *Point10Record) Unpack(p []byte) {
	_ = p[Point10Size-1]
	r.X = int32(le.Uint32(p[0:]))
	r.Y = int32(le.Uint32(p[4:]))
	r.Z = int32(le.Uint32(p[8:]))
	r.Intensity = le.Uint16(p[12:])
	b := p[14]
	r.ReturnNumber = b & 7
	r.NumberOfReturns = (b >> 3) & 7
	r.ScanDirectionFlag = (b >> 6) & 1
	r.EdgeOfFlightLine = b >> 7
	r.Classification = p[15]
	r.ScanAngleRank = int8(p[16])
	r.UserData = p[17]
	r.PointSourceID = le.Uint16(p[18:])
}

// Pack writes the record into p.
func (r *Point10Record) Pack(p []byte) {
	_ = p[Point10Size-1]
	le.PutUint32(p[0:], uint32(r.X))
	le.PutUint32(p[4:], uint32(r.Y))
	le.PutUint32(p[8:], uint32(r.Z))
	le.PutUint16(p[12:], r.Intensity)
	p[14] = r.ReturnNumber&7 | (r.NumberOfReturns&7)<<3 |
		(r.ScanDirectionFlag&1)<<6 | (r.EdgeOfFlightLine&1)<<7
	p[15] = r.Classification
	p[16] = byte(r.ScanAngleRank)
	p[17] = r.UserData
	le.PutUint16(p[18:], r.PointSourceID)
}

// Point14Record is the core record of the point types 6 to 10. It is packed
// into 30 bytes: X, Y, Z (int32), intensity (uint16), return number and
// number of returns (4 bits each), classification flags (4 bits), scanner
// channel (2 bits), scan direction and edge of flight line, classification,
// user data, scan angle (int16), point source ID and GPS time (float64).
type Point14Record struct {
	X, Y, Z             int32
	Intensity           uint16
	ReturnNumber        uint8
	NumberOfReturns     uint8
	ClassificationFlags uint8
	ScannerChannel      uint8
	ScanDirectionFlag   uint8
	EdgeOfFlightLine    uint8
	Classification      uint8
	UserData            uint8
	ScanAngle           int16
	PointSourceID       uint16
	GPSTime             float64
}

// Unpack reads the record from p.
func (r *Point14Record) Unpack(p []byte) {
	_ = p[Point14Size-1]
	r.X = int32(le.Uint32(p[0:]))
	r.Y = int32(le.Uint32(p[4:]))
	r.Z = int32(le.Uint32(p[8:]))
	r.Intensity = le.Uint16(p[12:])
	r.ReturnNumber = p[14] & 0xf
	r.NumberOfReturns = p[14] >> 4
	b := p[15]
	r.ClassificationFlags = b & 0xf
	r.ScannerChannel = (b >> 4) & 3
	r.ScanDirectionFlag = (b >> 6) & 1
	r.EdgeOfFlightLine = b >> 7
	r.Classification = p[16]
	r.UserData = p[17]
	r.ScanAngle = int16(le.Uint16(p[18:]))
	r.PointSourceID = le.Uint16(p[20:])
	r.GPSTime = math.Float64frombits(le.Uint64(p[22:]))
}

// Pack writes the record into p.
func (r *Point14Record) Pack(p []byte) {
	_ = p[Point14Size-1]
	le.PutUint32(p[0:], uint32(r.X))
	le.PutUint32(p[4:], uint32(r.Y))
	le.PutUint32(p[8:], uint32(r.Z))
	le.PutUint16(p[12:], r.Intensity)
	p[14] = r.ReturnNumber&0xf | r.NumberOfReturns<<4
	p[15] = r.ClassificationFlags&0xf | (r.ScannerChannel&3)<<4 |
		(r.ScanDirectionFlag&1)<<6 | (r.EdgeOfFlightLine&1)<<7
	p[16] = r.Classification
	p[17] = r.UserData
	le.PutUint16(p[18:], uint16(r.ScanAngle))
	le.PutUint16(p[20:], r.PointSourceID)
	le.PutUint64(p[22:], math.Float64bits(r.GPSTime))
}

// gpsBits returns the GPS time as the integer it is compressed as.
func (r *Point14Record) gpsBits() int64 {
	return int64(math.Float64bits(r.GPSTime))
}

// RGBRecord holds the colors of the RGB12 and RGB14 items and the near
// infrared channel of RGBNIR14.
type RGBRecord struct {
	R, G, B uint16
	NIR     uint16
}

// Unpack reads the record from p. The NIR value is only read if p has the
// size of an RGBNIR14 item.
func (r *RGBRecord) Unpack(p []byte) {
	r.R = le.Uint16(p[0:])
	r.G = le.Uint16(p[2:])
	r.B = le.Uint16(p[4:])
	if len(p) >= RGBNIR14Size {
		r.NIR = le.Uint16(p[6:])
	}
}

// Pack writes the record into p.
func (r *RGBRecord) Pack(p []byte) {
	le.PutUint16(p[0:], r.R)
	le.PutUint16(p[2:], r.G)
	le.PutUint16(p[4:], r.B)
	if len(p) >= RGBNIR14Size {
		le.PutUint16(p[6:], r.NIR)
	}
}

// WavepacketRecord describes the waveform data of a point.
type WavepacketRecord struct {
	DescriptorIndex uint8
	Offset          uint64
	PacketSize      uint32
	ReturnPoint     float32
	DX, DY, DZ      float32
}

// Unpack reads the record from p.
func (r *WavepacketRecord) Unpack(p []byte) {
	_ = p[Wavepacket13Size-1]
	r.DescriptorIndex = p[0]
	r.Offset = le.Uint64(p[1:])
	r.PacketSize = le.Uint32(p[9:])
	r.ReturnPoint = math.Float32frombits(le.Uint32(p[13:]))
	r.DX = math.Float32frombits(le.Uint32(p[17:]))
	r.DY = math.Float32frombits(le.Uint32(p[21:]))
	r.DZ = math.Float32frombits(le.Uint32(p[25:]))
}

// Pack writes the record into p.
func (r *WavepacketRecord) Pack(p []byte) {
	_ = p[Wavepacket13Size-1]
	p[0] = r.DescriptorIndex
	le.PutUint64(p[1:], r.Offset)
	le.PutUint32(p[9:], r.PacketSize)
	le.PutUint32(p[13:], math.Float32bits(r.ReturnPoint))
	le.PutUint32(p[17:], math.Float32bits(r.DX))
	le.PutUint32(p[21:], math.Float32bits(r.DY))
	le.PutUint32(p[25:], math.Float32bits(r.DZ))
}
