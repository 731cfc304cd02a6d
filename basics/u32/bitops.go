// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package u32 provides bit functions for the uint32 type used by the
// integer compressors.
package u32

// ntzConst is the de Bruijn constant used by NLZ.
const ntzConst = 0x04d7651f

// Helper table for de Bruijn algorithm by Danny Dubé. See Henry S.
// Warren, Jr. "Hacker's Delight" section 5-1 figure 5-26.
var ntzTable = [32]int8{
	0, 1, 2, 24, 3, 19, 6, 25,
	22, 4, 20, 10, 16, 7, 12, 26,
	31, 23, 18, 5, 21, 9, 15, 11,
	30, 17, 8, 14, 29, 13, 28, 27}

// NLZ computes the number of leading zeros for an unsigned 32-bit integer.
func NLZ(x uint32) int {
	// Smear left most bit to the right
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x++
	if x == 0 {
		return 0
	}
	x *= ntzConst
	return 32 - int(ntzTable[x>>27])
}

// BitLen returns the number of bits required to represent x. BitLen(0)
// is zero.
func BitLen(x uint32) int { return 32 - NLZ(x) }

// Magnitude returns the smallest k with -(2^k) < c <= 2^k. The values 0
// and 1 have magnitude zero.
func Magnitude(c int32) int {
	if c <= 0 {
		return BitLen(uint32(-int64(c)))
	}
	return BitLen(uint32(c - 1))
}
