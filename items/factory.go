// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package items

import (
	"fmt"

	"github.com/ulikunitz/laz/rc"
)

// NewWriter returns the compressor for the item. Pointwise items code into
// enc; layered items keep their own code streams and ignore enc.
func NewWriter(it Item, enc *rc.Encoder) (Writer, error) {
	if err := it.Verify(); err != nil {
		return nil, err
	}
	n := int(it.Size)
	v1 := it.Version == 1
	switch it.Kind {
	case Byte:
		if v1 {
			return newByteV1Writer(enc, n), nil
		}
		return newByteV2Writer(enc, n), nil
	case Point10:
		if v1 {
			return newPoint10v1Writer(enc), nil
		}
		return newPoint10v2Writer(enc), nil
	case GPSTime11:
		if v1 {
			return newGPSTime11v1Writer(enc), nil
		}
		return &gpsTime11v2Writer{g: newGPSTime2Encoder(enc)}, nil
	case RGB12:
		if v1 {
			return newRGB12v1Writer(enc), nil
		}
		return &rgb12v2Writer{enc: enc, m: newRGBModels(false)}, nil
	case Wavepacket13:
		return &wavepacket13Writer{e: newWavepacketEncoder(enc)}, nil
	case Point14:
		return newPoint14Writer(), nil
	case RGB14:
		return newRGB14Writer(false), nil
	case RGBNIR14:
		return newRGB14Writer(true), nil
	case Wavepacket14:
		return newWavepacket14Writer(), nil
	case Byte14:
		return newByte14Writer(n), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, it)
}

// NewReader returns the decompressor for the item. The selection only
// affects layered items; pointwise items are always fully decoded.
func NewReader(it Item, dec *rc.Decoder, sel Selective) (Reader, error) {
	if err := it.Verify(); err != nil {
		return nil, err
	}
	n := int(it.Size)
	v1 := it.Version == 1
	switch it.Kind {
	case Byte:
		if v1 {
			return newByteV1Reader(dec, n), nil
		}
		return newByteV2Reader(dec, n), nil
	case Point10:
		if v1 {
			return newPoint10v1Reader(dec), nil
		}
		return newPoint10v2Reader(dec), nil
	case GPSTime11:
		if v1 {
			return newGPSTime11v1Reader(dec), nil
		}
		return &gpsTime11v2Reader{g: newGPSTime2Decoder(dec)}, nil
	case RGB12:
		if v1 {
			return newRGB12v1Reader(dec), nil
		}
		return &rgb12v2Reader{dec: dec, m: newRGBModels(true)}, nil
	case Wavepacket13:
		return &wavepacket13Reader{d: newWavepacketDecoder(dec)}, nil
	case Point14:
		return newPoint14Reader(sel), nil
	case RGB14:
		return newRGB14Reader(false, sel), nil
	case RGBNIR14:
		return newRGB14Reader(true, sel), nil
	case Wavepacket14:
		return newWavepacket14Reader(sel), nil
	case Byte14:
		return newByte14Reader(n, sel), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, it)
}
