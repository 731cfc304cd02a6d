// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ulikunitz/laz/items"
)

// WriterConfig describes the parameters for a writer. If Descriptor is
// nil, the descriptor is negotiated with Setup from PointType, PointSize,
// Compressor and ChunkSize.
type WriterConfig struct {
	// LAS point type 0..10
	PointType uint8 `yaml:"point_type" validate:"lte=10"`
	// PointSize includes extra bytes. Zero selects the size of the
	// point type.
	PointSize uint16 `yaml:"point_size"`
	// Compressor name; pointwise_chunked for point types 0 to 5 and
	// layered_chunked for the others by default.
	Compressor string `yaml:"compressor" validate:"omitempty,oneof=none pointwise pointwise_chunked layered_chunked"`
	// ChunkSize in points; ChunkSizeVariable lets Writer.Chunk decide.
	// (default: DefaultChunkSize for chunked compressors)
	ChunkSize uint32 `yaml:"chunk_size"`
	// Version overrides the item versions if not zero.
	Version uint16 `yaml:"version" validate:"lte=4"`

	// Workers defines the number of goroutines compressing chunks
	// (default: 1). The writer buffers Workers*ChunkSize points and
	// their compressed chunks. Only fixed size chunks are compressed in
	// parallel.
	Workers int `yaml:"workers" validate:"gte=0"`

	Descriptor *Descriptor  `yaml:"-"`
	Logger     *slog.Logger `yaml:"-"`
	Metrics    *Metrics     `yaml:"-"`
}

func defaultCompressor(pointType uint8) Compressor {
	if pointType >= 6 {
		return CompressorLayeredChunked
	}
	return CompressorPointwiseChunked
}

// ApplyDefaults replaces zero values with defaults.
func (c *WriterConfig) ApplyDefaults() {
	if c.PointSize == 0 && int(c.PointType) < len(baseSizes) {
		c.PointSize = baseSizes[c.PointType]
	}
	if c.Compressor == "" {
		c.Compressor = defaultCompressor(c.PointType).String()
	}
	if c.ChunkSize == 0 {
		switch c.Compressor {
		case "pointwise_chunked", "layered_chunked":
			c.ChunkSize = DefaultChunkSize
		}
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Verify checks the configuration and negotiates the descriptor if none
// has been provided. Zero values are replaced by default values.
func (c *WriterConfig) Verify() error {
	if c == nil {
		return unsupported("writer configuration is nil")
	}
	c.ApplyDefaults()
	if err := validate.Struct(c); err != nil {
		return &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
	}
	if c.Descriptor == nil {
		d, err := c.negotiate()
		if err != nil {
			return err
		}
		c.Descriptor = d
	}
	return c.Descriptor.Verify()
}

func (c *WriterConfig) negotiate() (*Descriptor, error) {
	comp, err := ParseCompressor(c.Compressor)
	if err != nil {
		return nil, err
	}
	d, err := Setup(c.PointType, c.PointSize, comp)
	if err != nil {
		return nil, err
	}
	if d.Chunked() {
		d.ChunkSize = c.ChunkSize
	}
	if c.Version != 0 && comp != CompressorNone {
		for i := range d.Items {
			d.Items[i].Version = c.Version
		}
	}
	return d, nil
}

// ParseWriterConfig reads a writer configuration in YAML format.
func ParseWriterConfig(p []byte) (*WriterConfig, error) {
	c := new(WriterConfig)
	if err := yaml.Unmarshal(p, c); err != nil {
		return nil, &Error{Kind: KindUnsupported, Chunk: -1,
			Msg: "writer configuration", Err: err}
	}
	return c, nil
}

// LoadWriterConfig reads the YAML writer configuration file.
func LoadWriterConfig(path string) (*WriterConfig, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWriterConfig(p)
}

// ReaderConfig describes the parameters for a reader.
type ReaderConfig struct {
	// Descriptor of the points; required.
	Descriptor *Descriptor
	// Points is the number of points in the stream as recorded in the
	// LAS header.
	Points int64 `validate:"gte=0"`
	// Skip selects the layers that are not decoded. Skipped fields keep
	// the value of the first point of the chunk. The zero value decodes
	// all layers.
	Skip items.Selective

	Logger  *slog.Logger
	Metrics *Metrics
}

// selective returns the layers to decode.
func (c *ReaderConfig) selective() items.Selective {
	return items.SelectAll &^ c.Skip
}

// Verify checks the reader configuration.
func (c *ReaderConfig) Verify() error {
	if c == nil {
		return unsupported("reader configuration is nil")
	}
	if err := validate.Struct(c); err != nil {
		return &Error{Kind: KindUnsupported, Chunk: -1, Err: err}
	}
	return c.Descriptor.Verify()
}
