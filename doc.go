// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package laz compresses and decompresses the point records of LAS files in
the LAZ format.

The layout of the compressed points is described by a Descriptor, which is
negotiated with Setup from the LAS point type and point size and stored in
the variable length record of the LAS file. A Writer compresses the points
in chunks that are independently coded. The offsets of the chunks are kept
in a chunk table following the last chunk. A Reader uses the table to seek
to arbitrary points and to continue after a corrupt chunk with SkipChunk.

The points of the LAS 1.4 point types are compressed in layers, which can be
skipped by the reader if the fields aren't required:

	r, err := laz.NewReader(f, laz.ReaderConfig{
		Descriptor: d,
		Points:     n,
		Skip:       items.SelectRGB | items.SelectGPSTime,
	})

The subpackages rc and ic provide the arithmetic coder and the integer
compressor the item codecs in package items are built on.
*/
package laz
