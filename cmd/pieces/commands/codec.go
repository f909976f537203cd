package commands

import (
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/pieces/pkg/config"
	"github.com/Sumatoshi-tech/pieces/pkg/persist"
	"github.com/Sumatoshi-tech/pieces/pkg/snapshot"
)

// codecByName resolves a configured codec name, including the binary
// snapshot format.
func codecByName(name string) (persist.Codec, error) {
	if strings.EqualFold(name, config.CodecBinary) {
		return snapshot.NewCodec(), nil
	}

	return persist.ByName(name)
}

// codecForPath picks a codec from the file extension.
func codecForPath(path string) (persist.Codec, error) {
	if strings.EqualFold(filepath.Ext(path), snapshot.Extension) {
		return snapshot.NewCodec(), nil
	}

	return persist.ForPath(path)
}
