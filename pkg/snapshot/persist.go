package snapshot

import (
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/pieces/pkg/pieces"
)

// Codec adapts Encode and Decode to the persist.Codec interface. It accepts
// pieces.Snapshot or *pieces.Snapshot on encode and *pieces.Snapshot on
// decode.
type Codec struct{}

// NewCodec creates a binary snapshot codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Encode writes state in the binary snapshot format.
func (c *Codec) Encode(w io.Writer, state any) error {
	var snap pieces.Snapshot

	switch s := state.(type) {
	case pieces.Snapshot:
		snap = s
	case *pieces.Snapshot:
		snap = *s
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedState, state)
	}

	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}

	return nil
}

// Decode reads a binary snapshot into state.
func (c *Codec) Decode(r io.Reader, state any) error {
	target, ok := state.(*pieces.Snapshot)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedState, state)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("snapshot read: %w", err)
	}

	snap, err := Decode(data)
	if err != nil {
		return fmt.Errorf("snapshot decode: %w", err)
	}

	*target = snap

	return nil
}

// Extension returns the binary snapshot file extension.
func (c *Codec) Extension() string {
	return Extension
}
