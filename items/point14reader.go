// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"io"
	"math"

	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

type point14DecContext struct {
	point14Context
	icDX, icDY, icZ *ic.Decompressor
	icIntensity     *ic.Decompressor
	icScanAngle     *ic.Decompressor
	icPointSourceID *ic.Decompressor
	gps             *gpsTime2Decoder
}

func (c *point14DecContext) init(rec *Point14Record) {
	c.point14Context.init(rec)
	c.icDX.Init()
	c.icDY.Init()
	c.icZ.Init()
	c.icIntensity.Init()
	c.icScanAngle.Init()
	c.icPointSourceID.Init()
	c.gps.init(rec.gpsBits())
}

// point14Reader decodes the layers written by point14Writer. Layers that
// are not selected are skipped and their fields keep the values of the
// first point of the chunk.
type point14Reader struct {
	layers   layerDecoders
	contexts [contexts]*point14DecContext
	current  uint32
}

func newPoint14Reader(sel Selective) *point14Reader {
	r := &point14Reader{layers: make(layerDecoders, p14Layers)}
	for i := range r.layers {
		requested := i == p14LayerXY || sel&p14LayerSelect[i] != 0
		r.layers[i] = newLayerDecoder(p14LayerNames[i], requested)
	}
	dec := func(i int) *rc.Decoder { return r.layers[i].dec }
	for i := range r.contexts {
		c := &point14DecContext{
			icDX:        ic.NewDecompressor(dec(p14LayerXY), 32, 2),
			icDY:        ic.NewDecompressor(dec(p14LayerXY), 32, 22),
			icZ:         ic.NewDecompressor(dec(p14LayerZ), 32, 20),
			icIntensity: ic.NewDecompressor(dec(p14LayerIntensity), 16, 4),
			icScanAngle: ic.NewDecompressor(dec(p14LayerScanAngle), 16, 2),
			icPointSourceID: ic.NewDecompressor(
				dec(p14LayerPointSource), 16, 1),
			gps: newGPSTime2Decoder(dec(p14LayerGPSTime)),
		}
		c.setup(true)
		r.contexts[i] = c
	}
	return r
}

func (r *point14Reader) ReadChunkSizes(in io.Reader) error {
	return r.layers.readSizes(in)
}

func (r *point14Reader) ReadChunkBytes(in io.Reader) error {
	if r.layers[p14LayerXY].size == 0 {
		return errLayerMissing(p14LayerNames[p14LayerXY])
	}
	return r.layers.readBytes(in)
}

func (r *point14Reader) Init(item []byte, context *uint32) error {
	var rec Point14Record
	rec.Unpack(item)
	for _, c := range r.contexts {
		c.unused = true
	}
	r.current = uint32(rec.ScannerChannel)
	*context = r.current
	r.contexts[r.current].init(&rec)
	return nil
}

func (r *point14Reader) Read(item []byte, context *uint32) error {
	ly := r.layers
	cc := r.contexts[r.current]
	xy := ly[p14LayerXY].dec
	changed := xy.DecodeSymbol(cc.mChanged[cc.lpr()])

	if changed&p14Channel != 0 {
		ch := (r.current + xy.DecodeSymbol(cc.mScannerChannel) + 1) & 3
		nc := r.contexts[ch]
		if nc.unused {
			nc.init(&cc.last)
		}
		r.current = ch
		cc = nc
		cc.last.ScannerChannel = uint8(ch)
	}
	*context = r.current
	last := &cc.last
	gpsChange := changed&p14GPSTime != 0

	if changed&p14NumberOfReturns != 0 {
		m := cc.symbol(cc.mNumberOfReturns, uint32(last.NumberOfReturns), 16)
		last.NumberOfReturns = uint8(xy.DecodeSymbol(m))
	}
	switch changed & 3 {
	case 1:
		last.ReturnNumber = (last.ReturnNumber + 1) & 15
	case 2:
		last.ReturnNumber = (last.ReturnNumber + 15) & 15
	case 3:
		if gpsChange {
			m := cc.symbol(cc.mReturnNumber, uint32(last.ReturnNumber), 16)
			last.ReturnNumber = uint8(xy.DecodeSymbol(m))
		} else {
			sym := xy.DecodeSymbol(cc.mReturnNumberGPSSame)
			last.ReturnNumber = uint8(
				(uint32(last.ReturnNumber) + sym + 2) & 15)
		}
	}

	n, rn := uint32(last.NumberOfReturns), uint32(last.ReturnNumber)
	m, l, cpr := returnContexts(n, rn)
	gps := b2u(gpsChange)
	idx := m<<1 | gps
	dx := cc.icDX.Decompress(cc.lastXDiff[idx].get(), b2u(n == 1))
	last.X += dx
	cc.lastXDiff[idx].add(dx)
	kx := uint32(cc.icDX.K())
	dy := cc.icDY.Decompress(cc.lastYDiff[idx].get(), contextDY(n, kx))
	last.Y += dy
	cc.lastYDiff[idx].add(dy)

	if ly[p14LayerZ].active {
		k := (kx + uint32(cc.icDY.K())) / 2
		last.Z = cc.icZ.Decompress(cc.lastZ[l], contextZ(n, k))
		cc.lastZ[l] = last.Z
	}

	if ly[p14LayerClassification].active {
		ccc := (uint32(last.Classification)&0x1f)<<1 + b2u(cpr == 3)
		m := cc.symbol(cc.mClassification, ccc, 256)
		last.Classification = uint8(
			ly[p14LayerClassification].dec.DecodeSymbol(m))
	}

	if ly[p14LayerFlags].active {
		m := cc.symbol(cc.mFlags, flags14(last), 64)
		f := ly[p14LayerFlags].dec.DecodeSymbol(m)
		last.EdgeOfFlightLine = uint8(f>>5) & 1
		last.ScanDirectionFlag = uint8(f>>4) & 1
		last.ClassificationFlags = uint8(f) & 0xf
	}

	if ly[p14LayerIntensity].active {
		ii := cpr<<1 | gps
		v := uint16(cc.icIntensity.Decompress(
			int32(cc.lastIntensity[ii]), cpr))
		cc.lastIntensity[ii] = v
		last.Intensity = v
	}

	if ly[p14LayerScanAngle].active && changed&p14ScanAngle != 0 {
		last.ScanAngle = int16(cc.icScanAngle.Decompress(
			int32(last.ScanAngle), gps))
	}

	if ly[p14LayerUserData].active {
		m := cc.symbol(cc.mUserData, uint32(last.UserData)/4, 256)
		last.UserData = uint8(ly[p14LayerUserData].dec.DecodeSymbol(m))
	}

	if ly[p14LayerPointSource].active && changed&p14PointSource != 0 {
		last.PointSourceID = uint16(cc.icPointSourceID.Decompress(
			int32(last.PointSourceID), 0))
	}

	if ly[p14LayerGPSTime].active && gpsChange {
		t, err := cc.gps.read()
		if err != nil {
			return err
		}
		last.GPSTime = math.Float64frombits(uint64(t))
	}

	cc.lastGPSChange = gpsChange
	last.Pack(item)
	return ly.err()
}
