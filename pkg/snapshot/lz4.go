package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Payload encodings.
const (
	encodingRaw byte = iota
	encodingLZ4
)

// lz4MaxRatio bounds how many bytes one LZ4 block byte can decompress to.
const lz4MaxRatio = 255

// boundsPerRange is the number of uint32 values stored per range.
const boundsPerRange = 2

// checkPayload rejects a header whose range count cannot be backed by a
// payload of length bytes, before anything is allocated for it.
func checkPayload(encoding byte, length, count int) error {
	switch encoding {
	case encodingRaw:
		if length%(boundsPerRange*uint32ByteSize) != 0 || length/(boundsPerRange*uint32ByteSize) != count {
			return fmt.Errorf("%w: %d raw payload bytes for %d ranges", ErrCorrupt, length, count)
		}
	case encodingLZ4:
		if count > length*lz4MaxRatio/(boundsPerRange*uint32ByteSize) {
			return fmt.Errorf("%w: %d compressed payload bytes cannot hold %d ranges", ErrCorrupt, length, count)
		}
	default:
		return fmt.Errorf("%w: unknown payload encoding %d", ErrCorrupt, encoding)
	}

	return nil
}

// packUint32s serializes data little-endian and LZ4-compresses it. When the
// block does not shrink, the raw bytes are returned with encodingRaw.
func packUint32s(data []uint32) (byte, []byte, error) {
	if len(data) == 0 {
		return encodingRaw, nil, nil
	}

	buf := new(bytes.Buffer)

	err := binary.Write(buf, binary.LittleEndian, data)
	if err != nil {
		return 0, nil, fmt.Errorf("write values: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if written == 0 || written >= buf.Len() {
		return encodingRaw, buf.Bytes(), nil
	}

	return encodingLZ4, compressed[:written], nil
}

// unpackUint32s restores len(result) values packed by packUint32s.
func unpackUint32s(encoding byte, data []byte, result []uint32) error {
	raw := data

	switch encoding {
	case encodingRaw:
	case encodingLZ4:
		raw = make([]byte, len(result)*uint32ByteSize)

		n, err := lz4.UncompressBlock(data, raw)
		if err != nil {
			return fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}

		raw = raw[:n]
	default:
		return fmt.Errorf("%w: unknown payload encoding %d", ErrCorrupt, encoding)
	}

	if len(raw) != len(result)*uint32ByteSize {
		return fmt.Errorf("%w: payload holds %d bytes, want %d", ErrCorrupt, len(raw), len(result)*uint32ByteSize)
	}

	err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return nil
}

// deltaEncode replaces each element with the difference from its
// predecessor, in place. Sorted bounds turn into small repetitive values.
func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode restores values produced by deltaEncode with a prefix sum.
func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
