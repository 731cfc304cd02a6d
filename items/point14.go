// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"io"

	"github.com/ulikunitz/laz/ic"
	"github.com/ulikunitz/laz/rc"
)

// Layers of the Point14 item in the order of the chunk.
const (
	p14LayerXY = iota
	p14LayerZ
	p14LayerClassification
	p14LayerFlags
	p14LayerIntensity
	p14LayerScanAngle
	p14LayerUserData
	p14LayerPointSource
	p14LayerGPSTime
	p14Layers
)

var p14LayerNames = [p14Layers]string{
	"channel_returns_xy", "z", "classification", "flags", "intensity",
	"scan_angle", "user_data", "point_source", "gps_time",
}

var p14LayerSelect = [p14Layers]Selective{
	SelectChannelReturnsXY, SelectZ, SelectClassification, SelectFlags,
	SelectIntensity, SelectScanAngle, SelectUserData, SelectPointSource,
	SelectGPSTime,
}

// Bits of the changed values symbol. The lowest two bits code the change
// of the return number.
const (
	p14NumberOfReturns = 1 << 2
	p14ScanAngle       = 1 << 3
	p14GPSTime         = 1 << 4
	p14PointSource     = 1 << 5
	p14Channel         = 1 << 6
)

// contexts is the number of scanner channels.
const contexts = 4

// point14Context is the prediction state of a single scanner channel.
type point14Context struct {
	unused        bool
	table         bool
	last          Point14Record
	lastGPSChange bool
	lastIntensity [8]uint16
	lastXDiff     [12]median5
	lastYDiff     [12]median5
	lastZ         [8]int32

	mChanged             [8]*rc.SymbolModel
	mScannerChannel      *rc.SymbolModel
	mNumberOfReturns     []*rc.SymbolModel
	mReturnNumber        []*rc.SymbolModel
	mReturnNumberGPSSame *rc.SymbolModel
	mClassification      []*rc.SymbolModel
	mFlags               []*rc.SymbolModel
	mUserData            []*rc.SymbolModel
}

func (c *point14Context) setup(table bool) {
	c.unused = true
	c.table = table
	for i := range c.mChanged {
		c.mChanged[i] = rc.NewSymbolModel(128, table)
	}
	c.mScannerChannel = rc.NewSymbolModel(3, table)
	c.mNumberOfReturns = make([]*rc.SymbolModel, 16)
	c.mReturnNumber = make([]*rc.SymbolModel, 16)
	c.mReturnNumberGPSSame = rc.NewSymbolModel(13, table)
	c.mClassification = make([]*rc.SymbolModel, 64)
	c.mFlags = make([]*rc.SymbolModel, 64)
	c.mUserData = make([]*rc.SymbolModel, 64)
}

// init starts the context with rec as the previous point.
func (c *point14Context) init(rec *Point14Record) {
	c.unused = false
	c.last = *rec
	c.lastGPSChange = false
	for i := range c.lastIntensity {
		c.lastIntensity[i] = rec.Intensity
	}
	for i := range c.lastXDiff {
		c.lastXDiff[i].init()
		c.lastYDiff[i].init()
	}
	for i := range c.lastZ {
		c.lastZ[i] = rec.Z
	}
	for _, m := range c.mChanged {
		m.Init(nil)
	}
	c.mScannerChannel.Init(nil)
	c.mReturnNumberGPSSame.Init(nil)
	clearModels(c.mNumberOfReturns)
	clearModels(c.mReturnNumber)
	clearModels(c.mClassification)
	clearModels(c.mFlags)
	clearModels(c.mUserData)
}

func (c *point14Context) symbol(models []*rc.SymbolModel, i uint32,
	symbols uint32) *rc.SymbolModel {
	return lazySymbol(models, int(i), symbols, c.table)
}

// lpr selects the model of the changed values from the returns and the
// GPS time change of the previous point.
func (c *point14Context) lpr() uint32 {
	l := &c.last
	return b2u(l.ReturnNumber == 1) + 2*b2u(l.ReturnNumber >= l.NumberOfReturns) +
		4*b2u(c.lastGPSChange)
}

// returnCode codes the change of the return number in two bits.
func returnCode(lastR, r uint8) uint32 {
	switch r {
	case lastR:
		return 0
	case (lastR + 1) & 15:
		return 1
	case (lastR + 15) & 15:
		return 2
	}
	return 3
}

func flags14(p *Point14Record) uint32 {
	return uint32(p.EdgeOfFlightLine)<<5 | uint32(p.ScanDirectionFlag)<<4 |
		uint32(p.ClassificationFlags)
}

// returnContexts computes the return class m, the return level l and cpr,
// which combines first and last return.
func returnContexts(n, r uint32) (m, l, cpr uint32) {
	m = uint32(returnMap6[n][r])
	l = uint32(returnLevel8[n][r])
	cpr = 2*b2u(r == 1) + b2u(r >= n)
	return m, l, cpr
}

type point14EncContext struct {
	point14Context
	icDX, icDY, icZ *ic.Compressor
	icIntensity     *ic.Compressor
	icScanAngle     *ic.Compressor
	icPointSourceID *ic.Compressor
	gps             *gpsTime2Encoder
}

func (c *point14EncContext) init(rec *Point14Record) {
	c.point14Context.init(rec)
	c.icDX.Init()
	c.icDY.Init()
	c.icZ.Init()
	c.icIntensity.Init()
	c.icScanAngle.Init()
	c.icPointSourceID.Init()
	c.gps.init(rec.gpsBits())
}

// point14Writer writes Point14 items as layers of separate code streams.
type point14Writer struct {
	layers   layerEncoders
	contexts [contexts]*point14EncContext
	current  uint32
	cur      Point14Record
}

func newPoint14Writer() *point14Writer {
	w := &point14Writer{layers: make(layerEncoders, p14Layers)}
	// The XY and Z layers are always emitted, even if Z never changes.
	// Only the layers after them are optional.
	for i := range w.layers {
		w.layers[i] = newLayerEncoder(i > p14LayerZ)
	}
	enc := func(i int) *rc.Encoder { return w.layers[i].enc }
	for i := range w.contexts {
		c := &point14EncContext{
			icDX:            ic.NewCompressor(enc(p14LayerXY), 32, 2),
			icDY:            ic.NewCompressor(enc(p14LayerXY), 32, 22),
			icZ:             ic.NewCompressor(enc(p14LayerZ), 32, 20),
			icIntensity:     ic.NewCompressor(enc(p14LayerIntensity), 16, 4),
			icScanAngle:     ic.NewCompressor(enc(p14LayerScanAngle), 16, 2),
			icPointSourceID: ic.NewCompressor(enc(p14LayerPointSource), 16, 1),
			gps:             newGPSTime2Encoder(enc(p14LayerGPSTime)),
		}
		c.setup(false)
		w.contexts[i] = c
	}
	return w
}

func (w *point14Writer) Init(item []byte, context *uint32) error {
	w.layers.reset()
	w.cur.Unpack(item)
	for _, c := range w.contexts {
		c.unused = true
	}
	w.current = uint32(w.cur.ScannerChannel)
	*context = w.current
	w.contexts[w.current].init(&w.cur)
	return nil
}

func (w *point14Writer) Write(item []byte, context *uint32) error {
	cur := &w.cur
	cur.Unpack(item)
	cc := w.contexts[w.current]
	lpr := cc.lpr()
	last := &cc.last
	ch := uint32(cur.ScannerChannel)
	if ch != w.current && !w.contexts[ch].unused {
		last = &w.contexts[ch].last
	}

	gpsChange := cur.gpsBits() != last.gpsBits()
	changed := b2u(ch != w.current)<<6 |
		b2u(cur.PointSourceID != last.PointSourceID)<<5 |
		b2u(gpsChange)<<4 |
		b2u(cur.ScanAngle != last.ScanAngle)<<3 |
		b2u(cur.NumberOfReturns != last.NumberOfReturns)<<2 |
		returnCode(last.ReturnNumber, cur.ReturnNumber)
	xy := w.layers[p14LayerXY].enc
	xy.EncodeSymbol(cc.mChanged[lpr], changed)

	if changed&p14Channel != 0 {
		var sym uint32
		if ch > w.current {
			sym = ch - w.current - 1
		} else {
			sym = ch + 3 - w.current
		}
		xy.EncodeSymbol(cc.mScannerChannel, sym)
		nc := w.contexts[ch]
		if nc.unused {
			nc.init(&cc.last)
		}
		w.current = ch
		cc = nc
		last = &cc.last
	}
	*context = w.current

	lastN, lastR := uint32(last.NumberOfReturns), uint32(last.ReturnNumber)
	n, r := uint32(cur.NumberOfReturns), uint32(cur.ReturnNumber)
	if changed&p14NumberOfReturns != 0 {
		xy.EncodeSymbol(cc.symbol(cc.mNumberOfReturns, lastN, 16), n)
	}
	if changed&3 == 3 {
		if gpsChange {
			xy.EncodeSymbol(cc.symbol(cc.mReturnNumber, lastR, 16), r)
		} else {
			d := int32(r) - int32(lastR)
			if d > 1 {
				d -= 2
			} else {
				d += 16 - 2
			}
			xy.EncodeSymbol(cc.mReturnNumberGPSSame, uint32(d))
		}
	}

	m, l, cpr := returnContexts(n, r)
	gps := b2u(gpsChange)
	idx := m<<1 | gps
	dx := cur.X - last.X
	cc.icDX.Compress(cc.lastXDiff[idx].get(), dx, b2u(n == 1))
	cc.lastXDiff[idx].add(dx)
	kx := uint32(cc.icDX.K())
	dy := cur.Y - last.Y
	cc.icDY.Compress(cc.lastYDiff[idx].get(), dy, contextDY(n, kx))
	cc.lastYDiff[idx].add(dy)

	k := (kx + uint32(cc.icDY.K())) / 2
	cc.icZ.Compress(cc.lastZ[l], cur.Z, contextZ(n, k))
	cc.lastZ[l] = cur.Z

	ly := w.layers
	if cur.Classification != last.Classification {
		ly[p14LayerClassification].changed = true
	}
	ccc := (uint32(last.Classification)&0x1f)<<1 + b2u(cpr == 3)
	ly[p14LayerClassification].enc.EncodeSymbol(
		cc.symbol(cc.mClassification, ccc, 256),
		uint32(cur.Classification))

	lf, f := flags14(last), flags14(cur)
	if f != lf {
		ly[p14LayerFlags].changed = true
	}
	ly[p14LayerFlags].enc.EncodeSymbol(cc.symbol(cc.mFlags, lf, 64), f)

	if cur.Intensity != last.Intensity {
		ly[p14LayerIntensity].changed = true
	}
	ii := cpr<<1 | gps
	cc.icIntensity.Compress(int32(cc.lastIntensity[ii]),
		int32(cur.Intensity), cpr)
	cc.lastIntensity[ii] = cur.Intensity

	if changed&p14ScanAngle != 0 {
		ly[p14LayerScanAngle].changed = true
		cc.icScanAngle.Compress(int32(last.ScanAngle),
			int32(cur.ScanAngle), gps)
	}

	if cur.UserData != last.UserData {
		ly[p14LayerUserData].changed = true
	}
	ly[p14LayerUserData].enc.EncodeSymbol(
		cc.symbol(cc.mUserData, uint32(last.UserData)/4, 256),
		uint32(cur.UserData))

	if changed&p14PointSource != 0 {
		ly[p14LayerPointSource].changed = true
		cc.icPointSourceID.Compress(int32(last.PointSourceID),
			int32(cur.PointSourceID), 0)
	}

	if gpsChange {
		ly[p14LayerGPSTime].changed = true
		cc.gps.write(cur.gpsBits())
	}

	cc.last = *cur
	cc.lastGPSChange = gpsChange
	return w.layers.err()
}

func (w *point14Writer) WriteChunkSizes(out io.Writer) error {
	return w.layers.writeSizes(out)
}

func (w *point14Writer) WriteChunkBytes(out io.Writer) error {
	return w.layers.writeBytes(out)
}
