package persist

import (
	"errors"
	"io/fs"
)

// Persister handles I/O for a specific state type using a Codec.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister with the given basename and codec.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{
		basename: basename,
		codec:    codec,
	}
}

// Path returns the file the persister uses inside dir.
func (p *Persister[T]) Path(dir string) string {
	return Path(dir, p.basename, p.codec)
}

// Save writes state to the given directory.
func (p *Persister[T]) Save(dir string, state T) error {
	return SaveState(dir, p.basename, p.codec, &state)
}

// Load restores state from the given directory. A missing file is reported
// as found == false with a nil error.
func (p *Persister[T]) Load(dir string) (state T, found bool, err error) {
	err = LoadState(dir, p.basename, p.codec, &state)
	if errors.Is(err, fs.ErrNotExist) {
		return state, false, nil
	}

	if err != nil {
		return state, false, err
	}

	return state, true, nil
}
