// Package snapshot encodes the presence state of a piece set into a compact
// binary form and validates its JSON form.
//
// The binary layout is:
//
//	"PCS1" | uvarint size | uvarint ranges | encoding byte | uvarint payload length | payload
//
// The payload is the flattened start/end bounds of every range as
// little-endian uint32 values, delta encoded and LZ4 block compressed when
// that shrinks it.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/pieces/pkg/alg/interval"
	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
	"github.com/Sumatoshi-tech/pieces/pkg/safeconv"
)

// Magic prefixes every binary snapshot.
const Magic = "PCS1"

// Extension is the file extension of binary snapshots.
const Extension = ".pcs"

// Decoding errors.
var (
	ErrBadMagic       = errors.New("snapshot: bad magic")
	ErrIncompleteRead = errors.New("snapshot: incomplete read")
	ErrCorrupt        = errors.New("snapshot: corrupt data")
)

// ErrUnsupportedState is returned by Codec for values that are not snapshots.
var ErrUnsupportedState = errors.New("snapshot: unsupported state type")

// Encode serializes snap. Ranges must be ascending, disjoint and inside
// [0, snap.Size).
func Encode(snap pieces.Snapshot) ([]byte, error) {
	size, err := safeconv.IntToUint32(snap.Size)
	if err != nil {
		return nil, fmt.Errorf("size %d: %w", snap.Size, err)
	}

	bounds := make([]uint32, 0, len(snap.Ranges)*2)

	for _, r := range snap.Ranges {
		start, err := safeconv.IntToUint32(r.Start)
		if err != nil {
			return nil, fmt.Errorf("range %v: %w", r, err)
		}

		end, err := safeconv.IntToUint32(r.End)
		if err != nil {
			return nil, fmt.Errorf("range %v: %w", r, err)
		}

		if n := len(bounds); start > end || end >= size || (n > 0 && start <= bounds[n-1]) {
			return nil, fmt.Errorf("%w: range %v out of order or outside domain", ErrCorrupt, r)
		}

		bounds = append(bounds, start, end)
	}

	deltaEncode(bounds)

	encoding, payload, err := packUint32s(bounds)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(Magic)+3*binary.MaxVarintLen64+1+len(payload))
	out = append(out, Magic...)
	out = binary.AppendUvarint(out, uint64(size))
	out = binary.AppendUvarint(out, uint64(len(snap.Ranges)))
	out = append(out, encoding)
	out = binary.AppendUvarint(out, uint64(len(payload)))
	out = append(out, payload...)

	return out, nil
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (pieces.Snapshot, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return pieces.Snapshot{}, ErrBadMagic
	}

	reader := bytes.NewReader(data[len(Magic):])

	size, err := readInt(reader)
	if err != nil {
		return pieces.Snapshot{}, fmt.Errorf("size: %w", err)
	}

	count, err := readInt(reader)
	if err != nil {
		return pieces.Snapshot{}, fmt.Errorf("range count: %w", err)
	}

	encoding, err := reader.ReadByte()
	if err != nil {
		return pieces.Snapshot{}, fmt.Errorf("encoding: %w", ErrIncompleteRead)
	}

	length, err := readInt(reader)
	if err != nil {
		return pieces.Snapshot{}, fmt.Errorf("payload length: %w", err)
	}

	if length > reader.Len() {
		return pieces.Snapshot{}, fmt.Errorf("payload: %w: %d of %d bytes", ErrIncompleteRead, reader.Len(), length)
	}

	if length < reader.Len() {
		return pieces.Snapshot{}, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, reader.Len()-length)
	}

	if size > int(safeconv.MaxUint32) {
		return pieces.Snapshot{}, fmt.Errorf("%w: size %d exceeds uint32", ErrCorrupt, size)
	}

	// Disjoint ranges inside [0, size) number at most size.
	if count > size {
		return pieces.Snapshot{}, fmt.Errorf("%w: %d ranges in a domain of %d", ErrCorrupt, count, size)
	}

	err = checkPayload(encoding, length, count)
	if err != nil {
		return pieces.Snapshot{}, err
	}

	payload := make([]byte, length)
	if _, err = io.ReadFull(reader, payload); err != nil {
		return pieces.Snapshot{}, fmt.Errorf("payload: %w", ErrIncompleteRead)
	}

	bounds := make([]uint32, count*2)

	err = unpackUint32s(encoding, payload, bounds)
	if err != nil {
		return pieces.Snapshot{}, err
	}

	deltaDecode(bounds)

	snap := pieces.Snapshot{Size: size, Ranges: make([]interval.Interval, 0, count)}

	for i := 0; i < len(bounds); i += 2 {
		r := interval.New(int(bounds[i]), int(bounds[i+1]))

		if n := len(snap.Ranges); !r.Valid() || r.End >= size || (n > 0 && r.Start <= snap.Ranges[n-1].End) {
			return pieces.Snapshot{}, fmt.Errorf("%w: range %v out of order", ErrCorrupt, r)
		}

		snap.Ranges = append(snap.Ranges, r)
	}

	return snap, nil
}

func readInt(reader io.ByteReader) (int, error) {
	value, err := binary.ReadUvarint(reader)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrIncompleteRead
		}

		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	n, err := safeconv.Uint64ToInt(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return n, nil
}
