// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"encoding/binary"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ulikunitz/laz/items"
)

// Compressor selects how points are compressed.
type Compressor uint16

// Compressors. The values are stored in the descriptor record.
const (
	CompressorNone             Compressor = 0
	CompressorPointwise        Compressor = 1
	CompressorPointwiseChunked Compressor = 2
	CompressorLayeredChunked   Compressor = 3
)

var compressorNames = [...]string{
	"none", "pointwise", "pointwise_chunked", "layered_chunked",
}

func (c Compressor) String() string {
	if int(c) < len(compressorNames) {
		return compressorNames[c]
	}
	return fmt.Sprintf("Compressor(%d)", uint16(c))
}

// ParseCompressor returns the compressor for its name.
func ParseCompressor(s string) (Compressor, error) {
	for i, name := range compressorNames {
		if s == name {
			return Compressor(i), nil
		}
	}
	return 0, unsupported("unknown compressor %q", s)
}

// MarshalText returns the name of the compressor.
func (c Compressor) MarshalText() ([]byte, error) {
	if int(c) >= len(compressorNames) {
		return nil, unsupported("unknown compressor %d", uint16(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses the name of a compressor.
func (c *Compressor) UnmarshalText(p []byte) error {
	x, err := ParseCompressor(string(p))
	if err != nil {
		return err
	}
	*c = x
	return nil
}

// CoderArithmetic is the only supported entropy coder.
const CoderArithmetic = 0

// Chunk sizes.
const (
	// DefaultChunkSize is the number of points per chunk used by Setup.
	DefaultChunkSize = 50000
	// ChunkSizeVariable lets the writer decide the chunk boundaries
	// with explicit calls to Writer.Chunk.
	ChunkSizeVariable = 0xffffffff
)

// Version of the format written.
const (
	VersionMajor    = 3
	VersionMinor    = 4
	VersionRevision = 3
)

// Descriptor describes the layout of the compressed points. It is
// stored in the variable length record of the LAS file.
type Descriptor struct {
	Compressor        Compressor   `yaml:"compressor" validate:"lte=3"`
	Coder             uint16       `yaml:"coder" validate:"eq=0"`
	VersionMajor      uint8        `yaml:"version_major"`
	VersionMinor      uint8        `yaml:"version_minor"`
	VersionRevision   uint16       `yaml:"version_revision"`
	Options           uint32       `yaml:"options"`
	ChunkSize         uint32       `yaml:"chunk_size"`
	SpecialEVLRCount  int64        `yaml:"special_evlr_count"`
	SpecialEVLROffset int64        `yaml:"special_evlr_offset"`
	Items             []items.Item `yaml:"items" validate:"required,min=1,max=32,dive"`
}

var validate = validator.New()

// baseSizes are the sizes of the LAS point types without extra bytes.
var baseSizes = [...]uint16{20, 28, 26, 34, 57, 63, 30, 36, 38, 59, 67}

// Setup negotiates the descriptor for a LAS point type and point size.
// Bytes beyond the size of the point type become extra bytes.
func Setup(pointType uint8, pointSize uint16, c Compressor) (*Descriptor, error) {
	if int(pointType) >= len(baseSizes) {
		return nil, unsupported("point type %d", pointType)
	}
	if c > CompressorLayeredChunked {
		return nil, unsupported("unknown compressor %d", uint16(c))
	}
	base := baseSizes[pointType]
	if pointSize < base {
		return nil, unsupported("point size %d too small for point type %d",
			pointSize, pointType)
	}
	las14 := pointType >= 6
	if las14 && c != CompressorLayeredChunked && c != CompressorNone {
		return nil, unsupported("point type %d requires %s",
			pointType, CompressorLayeredChunked)
	}

	var kinds []items.Kind
	switch pointType {
	case 0:
		kinds = []items.Kind{items.Point10}
	case 1:
		kinds = []items.Kind{items.Point10, items.GPSTime11}
	case 2:
		kinds = []items.Kind{items.Point10, items.RGB12}
	case 3:
		kinds = []items.Kind{items.Point10, items.GPSTime11, items.RGB12}
	case 4:
		kinds = []items.Kind{items.Point10, items.GPSTime11,
			items.Wavepacket13}
	case 5:
		kinds = []items.Kind{items.Point10, items.GPSTime11, items.RGB12,
			items.Wavepacket13}
	case 6:
		kinds = []items.Kind{items.Point14}
	case 7:
		kinds = []items.Kind{items.Point14, items.RGB14}
	case 8:
		kinds = []items.Kind{items.Point14, items.RGBNIR14}
	case 9:
		kinds = []items.Kind{items.Point14, items.Wavepacket14}
	case 10:
		kinds = []items.Kind{items.Point14, items.RGBNIR14,
			items.Wavepacket14}
	}

	d := &Descriptor{
		Compressor:        c,
		Coder:             CoderArithmetic,
		VersionMajor:      VersionMajor,
		VersionMinor:      VersionMinor,
		VersionRevision:   VersionRevision,
		SpecialEVLRCount:  -1,
		SpecialEVLROffset: -1,
	}
	if c != CompressorNone && c != CompressorPointwise {
		d.ChunkSize = DefaultChunkSize
	}
	for _, k := range kinds {
		d.Items = append(d.Items, items.Item{
			Kind:    k,
			Size:    uint16(k.FixedSize()),
			Version: itemVersion(k, c),
		})
	}
	if extra := pointSize - base; extra > 0 {
		k := items.Byte
		if las14 {
			k = items.Byte14
		}
		d.Items = append(d.Items, items.Item{
			Kind: k, Size: extra, Version: itemVersion(k, c)})
	}
	return d, nil
}

func itemVersion(k items.Kind, c Compressor) uint16 {
	switch {
	case c == CompressorNone:
		return 0
	case k.Layered():
		return 3
	case k == items.Wavepacket13:
		return 1
	}
	return 2
}

// PointSize returns the size of a point in bytes.
func (d *Descriptor) PointSize() int {
	n := 0
	for _, it := range d.Items {
		n += int(it.Size)
	}
	return n
}

// Chunked reports whether the stream is split into chunks and has a
// chunk table.
func (d *Descriptor) Chunked() bool {
	return d.Compressor == CompressorPointwiseChunked ||
		d.Compressor == CompressorLayeredChunked
}

// Layered reports whether the points are compressed in layers.
func (d *Descriptor) Layered() bool {
	return len(d.Items) > 0 && d.Items[0].Kind.Layered()
}

// VariableChunks reports whether the chunk sizes are decided by the
// writer.
func (d *Descriptor) VariableChunks() bool {
	return d.ChunkSize == ChunkSizeVariable
}

// Verify checks the descriptor for consistency.
func (d *Descriptor) Verify() error {
	if d == nil {
		return unsupported("descriptor is nil")
	}
	if err := validate.Struct(d); err != nil {
		return &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
	}
	if d.Chunked() && d.ChunkSize == 0 {
		return unsupported("%s requires a chunk size", d.Compressor)
	}
	layered := d.Layered()
	for i, it := range d.Items {
		if d.Compressor == CompressorNone {
			if n := it.Kind.FixedSize(); n > 0 && int(it.Size) != n {
				return unsupported("item %s requires size %d", it, n)
			}
			continue
		}
		if err := it.Verify(); err != nil {
			return &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
		}
		if it.Kind.Layered() != layered {
			return unsupported("item %d (%s) mixes layered and pointwise items",
				i, it)
		}
		switch it.Kind {
		case items.Point10, items.Point14:
			if i != 0 {
				return unsupported("%s must be the first item", it.Kind)
			}
		}
	}
	if layered && d.Compressor != CompressorLayeredChunked &&
		d.Compressor != CompressorNone {
		return unsupported("layered items require %s",
			CompressorLayeredChunked)
	}
	return nil
}

// Check verifies that the item list matches the descriptor.
func (d *Descriptor) Check(its []items.Item) error {
	if len(its) != len(d.Items) {
		return unsupported("%d items don't match descriptor with %d items",
			len(its), len(d.Items))
	}
	for i, it := range its {
		if it != d.Items[i] {
			return unsupported("item %d is %s; descriptor has %s",
				i, it, d.Items[i])
		}
	}
	return nil
}

// descriptorHeaderLen is the size of the fixed part of the record.
const descriptorHeaderLen = 34

// MarshalBinary encodes the descriptor in the layout of the LASzip
// variable length record.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	if err := d.Verify(); err != nil {
		return nil, err
	}
	p := make([]byte, descriptorHeaderLen+6*len(d.Items))
	le := binary.LittleEndian
	le.PutUint16(p[0:], uint16(d.Compressor))
	le.PutUint16(p[2:], d.Coder)
	p[4] = d.VersionMajor
	p[5] = d.VersionMinor
	le.PutUint16(p[6:], d.VersionRevision)
	le.PutUint32(p[8:], d.Options)
	le.PutUint32(p[12:], d.ChunkSize)
	le.PutUint64(p[16:], uint64(d.SpecialEVLRCount))
	le.PutUint64(p[24:], uint64(d.SpecialEVLROffset))
	le.PutUint16(p[32:], uint16(len(d.Items)))
	q := p[descriptorHeaderLen:]
	for _, it := range d.Items {
		le.PutUint16(q[0:], uint16(it.Kind))
		le.PutUint16(q[2:], it.Size)
		le.PutUint16(q[4:], it.Version)
		q = q[6:]
	}
	return p, nil
}

// UnmarshalBinary decodes the descriptor and verifies it.
func (d *Descriptor) UnmarshalBinary(p []byte) error {
	if len(p) < descriptorHeaderLen {
		return unsupported("descriptor record has %d bytes", len(p))
	}
	le := binary.LittleEndian
	var x Descriptor
	x.Compressor = Compressor(le.Uint16(p[0:]))
	x.Coder = le.Uint16(p[2:])
	x.VersionMajor = p[4]
	x.VersionMinor = p[5]
	x.VersionRevision = le.Uint16(p[6:])
	x.Options = le.Uint32(p[8:])
	x.ChunkSize = le.Uint32(p[12:])
	x.SpecialEVLRCount = int64(le.Uint64(p[16:]))
	x.SpecialEVLROffset = int64(le.Uint64(p[24:]))
	n := int(le.Uint16(p[32:]))
	q := p[descriptorHeaderLen:]
	if len(q) != 6*n {
		return unsupported("descriptor record with %d items has %d bytes",
			n, len(p))
	}
	for i := 0; i < n; i++ {
		x.Items = append(x.Items, items.Item{
			Kind:    items.Kind(le.Uint16(q[0:])),
			Size:    le.Uint16(q[2:]),
			Version: le.Uint16(q[4:]),
		})
		q = q[6:]
	}
	if err := x.Verify(); err != nil {
		return err
	}
	*d = x
	return nil
}

// UnpackDescriptor decodes the descriptor record and checks that it
// describes points of the given size.
func UnpackDescriptor(p []byte, pointSize int) (*Descriptor, error) {
	d := new(Descriptor)
	if err := d.UnmarshalBinary(p); err != nil {
		return nil, err
	}
	if n := d.PointSize(); n != pointSize {
		return nil, unsupported("items have %d bytes; points have %d",
			n, pointSize)
	}
	return d, nil
}
