// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import "github.com/ulikunitz/laz/rc"

// median5 tracks the median of the last five values added. The sorted
// window is maintained incrementally; high records on which side the next
// value replaces an entry.
type median5 struct {
	values [5]int32
	high   bool
}

func (m *median5) init() {
	m.values = [5]int32{}
	m.high = true
}

func (m *median5) add(v int32) {
	a := &m.values
	if m.high {
		if v < a[2] {
			a[4] = a[3]
			a[3] = a[2]
			if v < a[0] {
				a[2] = a[1]
				a[1] = a[0]
				a[0] = v
			} else if v < a[1] {
				a[2] = a[1]
				a[1] = v
			} else {
				a[2] = v
			}
		} else {
			if v < a[3] {
				a[4] = a[3]
				a[3] = v
			} else {
				a[4] = v
			}
			m.high = false
		}
		return
	}
	if a[2] < v {
		a[0] = a[1]
		a[1] = a[2]
		if a[4] < v {
			a[2] = a[3]
			a[3] = a[4]
			a[4] = v
		} else if a[3] < v {
			a[2] = a[3]
			a[3] = v
		} else {
			a[2] = v
		}
	} else {
		if a[1] < v {
			a[0] = a[1]
			a[1] = v
		} else {
			a[0] = v
		}
		m.high = true
	}
}

func (m *median5) get() int32 { return m.values[2] }

// median3 returns the median of three values.
func median3(a [3]int32) int32 {
	if a[0] < a[1] {
		switch {
		case a[1] < a[2]:
			return a[1]
		case a[0] < a[2]:
			return a[2]
		default:
			return a[0]
		}
	}
	switch {
	case a[0] < a[2]:
		return a[0]
	case a[1] < a[2]:
		return a[2]
	default:
		return a[1]
	}
}

// fold maps a byte difference into the range 0..255.
func fold(n int32) uint32 {
	return uint32(uint8(n))
}

// clamp limits n to the range of a byte.
func clamp(n int32) int32 {
	switch {
	case n < 0:
		return 0
	case n > 255:
		return 255
	}
	return n
}

// zeroBit0 clears the lowest bit.
func zeroBit0(n uint32) uint32 { return n &^ 1 }

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// numberReturnMap maps the number of returns n and the return number r of
// a Point10 record to one of 16 classes.
var numberReturnMap = [8][8]uint8{
	{15, 14, 13, 12, 11, 10, 9, 8},
	{14, 0, 1, 3, 6, 10, 10, 9},
	{13, 1, 2, 4, 7, 11, 11, 10},
	{12, 3, 4, 5, 8, 12, 12, 11},
	{11, 6, 7, 8, 9, 13, 13, 12},
	{10, 10, 11, 12, 13, 14, 14, 13},
	{9, 10, 11, 12, 13, 14, 15, 14},
	{8, 9, 10, 11, 12, 13, 14, 15},
}

// numberReturnLevel is the distance of the return from the last return.
var numberReturnLevel = [8][8]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7},
	{1, 0, 1, 2, 3, 4, 5, 6},
	{2, 1, 0, 1, 2, 3, 4, 5},
	{3, 2, 1, 0, 1, 2, 3, 4},
	{4, 3, 2, 1, 0, 1, 2, 3},
	{5, 4, 3, 2, 1, 0, 1, 2},
	{6, 5, 4, 3, 2, 1, 0, 1},
	{7, 6, 5, 4, 3, 2, 1, 0},
}

// returnMap6 maps the number of returns and the return number of a
// Point14 record to one of six classes.
var returnMap6 = [16][16]uint8{
	{0, 1, 2, 3, 4, 5, 3, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{1, 0, 1, 3, 4, 5, 3, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{2, 1, 2, 4, 4, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{3, 3, 4, 5, 4, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{4, 4, 4, 4, 5, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{3, 3, 4, 4, 4, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{4, 4, 4, 4, 4, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{4, 4, 4, 4, 4, 5, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
}

// returnLevel8 is the distance of the return from the last return for up
// to 15 returns. It saturates at 7.
var returnLevel8 = [16][16]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7, 7, 7, 7},
	{1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7, 7, 7},
	{2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7, 7},
	{3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7},
	{4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7},
	{5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7},
	{6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7, 7},
	{7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7, 7},
	{7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6, 7},
	{7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6},
	{7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5},
	{7, 7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4},
	{7, 7, 7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3},
	{7, 7, 7, 7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2},
	{7, 7, 7, 7, 7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0, 1},
	{7, 7, 7, 7, 7, 7, 7, 7, 7, 6, 5, 4, 3, 2, 1, 0},
}

// lazySymbol returns the model stored at models[i], creating it on first
// use. The models of the byte valued contexts are only allocated for the
// values that actually occur.
func lazySymbol(models []*rc.SymbolModel, i int, symbols uint32,
	table bool) *rc.SymbolModel {

	m := models[i]
	if m == nil {
		m = rc.NewSymbolModel(symbols, table)
		models[i] = m
	}
	return m
}

// clearModels drops the lazily allocated models.
func clearModels(models []*rc.SymbolModel) {
	for i := range models {
		models[i] = nil
	}
}
