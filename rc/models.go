// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import "fmt"

// Interval limits of the coder. The length of the coding interval is kept
// between MinLength and MaxLength after every renormalization.
const (
	MinLength = 0x01000000
	MaxLength = 0xFFFFFFFF
)

// Precision of the probability estimates of the models.
const (
	bmLengthShift = 13
	bmMaxCount    = 1 << bmLengthShift

	dmLengthShift = 15
	dmMaxCount    = 1 << dmLengthShift
)

// MaxSymbols is the largest alphabet a SymbolModel supports.
const MaxSymbols = 1 << 11

// BitModel is an adaptive probability estimate for a single binary
// decision. The counts are rescaled regularly, so the model follows the
// local statistics of the data.
type BitModel struct {
	bit0Prob        uint32
	bit0Count       uint32
	bitCount        uint32
	updateCycle     uint32
	bitsUntilUpdate uint32
}

// NewBitModel returns an initialized bit model.
func NewBitModel() *BitModel {
	m := new(BitModel)
	m.Init()
	return m
}

// Init resets the model to equal probabilities.
func (m *BitModel) Init() {
	m.bit0Count = 1
	m.bitCount = 2
	m.bit0Prob = 1 << (bmLengthShift - 1)
	m.updateCycle = 4
	m.bitsUntilUpdate = 4
}

func (m *BitModel) update() {
	m.bitCount += m.updateCycle
	if m.bitCount > bmMaxCount {
		m.bitCount = (m.bitCount + 1) >> 1
		m.bit0Count = (m.bit0Count + 1) >> 1
		if m.bit0Count == m.bitCount {
			m.bitCount++
		}
	}

	scale := uint32(0x80000000) / m.bitCount
	m.bit0Prob = (m.bit0Count * scale) >> (31 - bmLengthShift)

	m.updateCycle = (5 * m.updateCycle) >> 2
	if m.updateCycle > 64 {
		m.updateCycle = 64
	}
	m.bitsUntilUpdate = m.updateCycle
}

// SymbolModel is an adaptive frequency table over an alphabet of 2 to
// MaxSymbols symbols. The cumulative distribution is scaled to 2^15 and
// recomputed every updateCycle symbols. Models used for decoding may
// carry a lookup table that narrows the search for a symbol.
type SymbolModel struct {
	symbols    uint32
	lastSymbol uint32

	distribution []uint32
	symbolCount  []uint32
	decoderTable []uint32

	totalCount         uint32
	updateCycle        uint32
	symbolsUntilUpdate uint32

	tableSize  uint32
	tableShift uint32
}

// NewSymbolModel creates an initialized model for the given number of
// symbols. If table is set and the alphabet has more than 16 symbols a
// decoder lookup table is maintained. Encoders don't need the table.
func NewSymbolModel(symbols uint32, table bool) *SymbolModel {
	if symbols < 2 || symbols > MaxSymbols {
		panic(fmt.Errorf("rc: invalid number of symbols %d", symbols))
	}
	m := &SymbolModel{
		symbols:    symbols,
		lastSymbol: symbols - 1,
	}
	if table && symbols > 16 {
		tableBits := uint32(3)
		for symbols > 1<<(tableBits+2) {
			tableBits++
		}
		m.tableSize = 1 << tableBits
		m.tableShift = dmLengthShift - tableBits
		m.decoderTable = make([]uint32, m.tableSize+2)
	}
	m.distribution = make([]uint32, symbols)
	m.symbolCount = make([]uint32, symbols)
	m.Init(nil)
	return m
}

// Symbols returns the size of the alphabet.
func (m *SymbolModel) Symbols() uint32 { return m.symbols }

// Init resets the model. The counts may be preset by the table argument;
// a nil table sets all counts to one.
func (m *SymbolModel) Init(counts []uint32) {
	m.totalCount = 0
	m.updateCycle = m.symbols
	if counts != nil {
		copy(m.symbolCount, counts)
	} else {
		for k := range m.symbolCount {
			m.symbolCount[k] = 1
		}
	}
	m.update()
	m.updateCycle = (m.symbols + 6) >> 1
	m.symbolsUntilUpdate = m.updateCycle
}

func (m *SymbolModel) update() {
	m.totalCount += m.updateCycle
	if m.totalCount > dmMaxCount {
		m.totalCount = 0
		for n := range m.symbolCount {
			m.symbolCount[n] = (m.symbolCount[n] + 1) >> 1
			m.totalCount += m.symbolCount[n]
		}
	}

	var sum, s uint32
	scale := uint32(0x80000000) / m.totalCount

	if m.tableSize == 0 {
		for k := uint32(0); k < m.symbols; k++ {
			m.distribution[k] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[k]
		}
	} else {
		for k := uint32(0); k < m.symbols; k++ {
			m.distribution[k] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[k]
			w := m.distribution[k] >> m.tableShift
			for s < w {
				s++
				m.decoderTable[s] = k - 1
			}
		}
		m.decoderTable[0] = 0
		for s <= m.tableSize {
			s++
			m.decoderTable[s] = m.symbols - 1
		}
	}

	m.updateCycle = (5 * m.updateCycle) >> 2
	maxCycle := (m.symbols + 6) << 3
	if m.updateCycle > maxCycle {
		m.updateCycle = maxCycle
	}
	m.symbolsUntilUpdate = m.updateCycle
}
