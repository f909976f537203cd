package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// statePerm is the permission of state files.
const statePerm = 0o600

// Path returns the file SaveState writes for basename.
func Path(dir, basename string, codec Codec) string {
	return filepath.Join(dir, basename+codec.Extension())
}

// SaveState saves the given state to a file in the specified directory.
// The file is written next to its destination and renamed into place, so
// readers never observe a partial snapshot.
func SaveState(dir, basename string, codec Codec, state any) (err error) {
	path := Path(dir, basename, codec)

	file, err := os.CreateTemp(dir, "."+basename+"-*")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(file.Name()))
		}
	}()

	err = codec.Encode(file, state)
	if err != nil {
		return errors.Join(fmt.Errorf("encode state: %w", err), file.Close())
	}

	err = file.Chmod(statePerm)
	if err != nil {
		return errors.Join(fmt.Errorf("chmod state file: %w", err), file.Close())
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close state file: %w", err)
	}

	err = os.Rename(file.Name(), path)
	if err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// LoadState loads state from a file in the specified directory.
// The state parameter must be a pointer to the target value.
func LoadState(dir, basename string, codec Codec, state any) error {
	return LoadFile(Path(dir, basename, codec), codec, state)
}

// LoadFile decodes the file at path into state.
func LoadFile(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
