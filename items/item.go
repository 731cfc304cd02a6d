// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package items implements the compressors for the items a point record
// consists of. Pointwise items (versions 1 and 2) code all fields of a point
// into a single arithmetic coder shared by all items of the record. Layered
// items (versions 3 and 4) code each group of fields into a separate coder,
// so readers can skip the groups they don't need.
package items

import (
	"errors"
	"fmt"
	"io"
)

// Kind identifies the type of an item. The values are the identifiers used
// in the descriptor record.
type Kind uint16

// Item kinds.
const (
	Byte         Kind = 0
	Short        Kind = 1
	Int          Kind = 2
	Long         Kind = 3
	Float        Kind = 4
	Double       Kind = 5
	Point10      Kind = 6
	GPSTime11    Kind = 7
	RGB12        Kind = 8
	Wavepacket13 Kind = 9
	Point14      Kind = 10
	RGB14        Kind = 11
	RGBNIR14     Kind = 12
	Wavepacket14 Kind = 13
	Byte14       Kind = 14
)

var kindNames = map[Kind]string{
	Byte:         "BYTE",
	Short:        "SHORT",
	Int:          "INT",
	Long:         "LONG",
	Float:        "FLOAT",
	Double:       "DOUBLE",
	Point10:      "POINT10",
	GPSTime11:    "GPSTIME11",
	RGB12:        "RGB12",
	Wavepacket13: "WAVEPACKET13",
	Point14:      "POINT14",
	RGB14:        "RGB14",
	RGBNIR14:     "RGBNIR14",
	Wavepacket14: "WAVEPACKET14",
	Byte14:       "BYTE14",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Sizes of the fixed size items in bytes.
const (
	Point10Size      = 20
	GPSTime11Size    = 8
	RGB12Size        = 6
	Wavepacket13Size = 29
	Point14Size      = 30
	RGB14Size        = 6
	RGBNIR14Size     = 8
	Wavepacket14Size = 29
)

// FixedSize returns the required size of an item kind. Zero is returned for
// the byte kinds, which may have any positive size.
func (k Kind) FixedSize() int {
	switch k {
	case Point10:
		return Point10Size
	case GPSTime11:
		return GPSTime11Size
	case RGB12:
		return RGB12Size
	case Wavepacket13:
		return Wavepacket13Size
	case Point14:
		return Point14Size
	case RGB14:
		return RGB14Size
	case RGBNIR14:
		return RGBNIR14Size
	case Wavepacket14:
		return Wavepacket14Size
	}
	return 0
}

// Layered reports whether the kind belongs to the LAS 1.4 point types
// that are compressed in layers.
func (k Kind) Layered() bool {
	switch k {
	case Point14, RGB14, RGBNIR14, Wavepacket14, Byte14:
		return true
	}
	return false
}

// Item describes a single item of a point record.
type Item struct {
	Kind    Kind   `yaml:"kind"`
	Size    uint16 `yaml:"size" validate:"min=1"`
	Version uint16 `yaml:"version" validate:"max=4"`
}

func (it Item) String() string {
	return fmt.Sprintf("%s(size=%d, v%d)", it.Kind, it.Size, it.Version)
}

// Errors returned by the item compressors.
var (
	// ErrCorrupt indicates an invalid compressed stream.
	ErrCorrupt = errors.New("items: corrupt data")
	// ErrUnsupported indicates an item kind, size or version that
	// can't be compressed.
	ErrUnsupported = errors.New("items: unsupported item")
)

// Verify checks whether the item can be compressed.
func (it Item) Verify() error {
	if it.Size == 0 {
		return fmt.Errorf("%w: %s has size zero", ErrUnsupported, it)
	}
	if n := it.Kind.FixedSize(); n > 0 && int(it.Size) != n {
		return fmt.Errorf("%w: %s requires size %d",
			ErrUnsupported, it, n)
	}
	ok := false
	switch it.Kind {
	case Byte:
		ok = it.Version == 1 || it.Version == 2
	case Point10, GPSTime11, RGB12:
		ok = it.Version == 1 || it.Version == 2
	case Wavepacket13:
		// version 2 codes like version 1
		ok = it.Version == 1 || it.Version == 2
	case Point14, RGB14, RGBNIR14, Wavepacket14, Byte14:
		ok = it.Version == 3 || it.Version == 4
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, it)
	}
	return nil
}

// Writer compresses the items of a point stream. Init is called with the
// first item of every chunk, which is stored raw, and prepares the
// compressor for the following items. The context is the scanner channel
// selected by a Point14 item; other items follow it.
type Writer interface {
	Init(item []byte, context *uint32) error
	Write(item []byte, context *uint32) error
}

// Reader decompresses the items written by a Writer.
type Reader interface {
	Init(item []byte, context *uint32) error
	Read(item []byte, context *uint32) error
}

// LayeredWriter is a Writer that keeps its compressed data in layers. At
// the end of a chunk the sizes of all layers are written followed by the
// layer data.
type LayeredWriter interface {
	Writer
	WriteChunkSizes(w io.Writer) error
	WriteChunkBytes(w io.Writer) error
}

// LayeredReader is the Reader for layered data. ReadChunkSizes and
// ReadChunkBytes are called at the start of a chunk before Init.
type LayeredReader interface {
	Reader
	ReadChunkSizes(r io.Reader) error
	ReadChunkBytes(r io.Reader) error
}

// Selective selects the layers a LayeredReader decompresses. Layers that
// are not selected are skipped and their fields keep the values of the
// first point of the chunk.
type Selective uint32

// Layer flags. The channel, returns and XY layer is always decompressed.
const (
	SelectChannelReturnsXY Selective = 0
	SelectZ                Selective = 1 << 0
	SelectClassification   Selective = 1 << 1
	SelectFlags            Selective = 1 << 2
	SelectIntensity        Selective = 1 << 3
	SelectScanAngle        Selective = 1 << 4
	SelectUserData         Selective = 1 << 5
	SelectPointSource      Selective = 1 << 6
	SelectGPSTime          Selective = 1 << 7
	SelectRGB              Selective = 1 << 8
	SelectNIR              Selective = 1 << 9
	SelectWavepacket       Selective = 1 << 10
	SelectByte0            Selective = 1 << 16
	SelectExtraBytes       Selective = 0xffff0000
	SelectAll              Selective = 0xffffffff
)

// SelectByte returns the flag for the extra byte i. Bytes beyond the
// sixteenth share the flag of the last one.
func SelectByte(i int) Selective {
	if i > 15 {
		i = 15
	}
	return SelectByte0 << i
}
