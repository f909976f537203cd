// Package persist provides codec-based file persistence for piece snapshots
// and other serializable state.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	gobExtension  = ".gob"
	yamlExtension = ".yaml"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// Codec names accepted by ByName.
const (
	CodecJSON    = "json"
	CodecGob     = "gob"
	CodecYAML    = "yaml"
	CodecJSONLZ4 = "json.lz4"
	CodecGobLZ4  = "gob.lz4"
)

// ErrUnknownCodec is returned for unrecognized codec names and extensions.
var ErrUnknownCodec = errors.New("unknown codec")

// ErrDecodedTooLarge is returned when decompressed content exceeds
// LZ4Codec.Limit.
var ErrDecodedTooLarge = errors.New("decoded content exceeds limit")

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".gob").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	err := gob.NewEncoder(w).Encode(state)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	err := gob.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// YAMLCodec implements Codec using YAML encoding.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, state any) error {
	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml flush: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, state any) error {
	err := yaml.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for YAML files.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// LZ4Codec wraps another codec in an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
	// Limit caps the decompressed bytes Decode reads. Zero means no limit.
	Limit uint64
}

// NewLZ4Codec creates a codec compressing the output of inner.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode by compressing the inner encoding.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, state)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode by decompressing into the inner decoder.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	var src io.Reader = lz4.NewReader(r)
	if c.Limit > 0 {
		src = &cappedReader{src: src, left: c.Limit}
	}

	return c.Inner.Decode(src, state)
}

// cappedReader fails with ErrDecodedTooLarge once more than left bytes are
// available, instead of truncating like io.LimitReader.
type cappedReader struct {
	src  io.Reader
	left uint64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left == 0 {
		var extra [1]byte

		n, err := c.src.Read(extra[:])
		if n > 0 {
			return 0, ErrDecodedTooLarge
		}

		return 0, err
	}

	if uint64(len(p)) > c.left {
		p = p[:c.left]
	}

	n, err := c.src.Read(p)
	c.left -= uint64(n) //nolint:gosec // n is never negative

	return n, err
}

// Extension implements Codec.Extension, e.g. ".json.lz4".
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case CodecJSON:
		return NewJSONCodec(), nil
	case CodecGob:
		return NewGobCodec(), nil
	case CodecYAML, "yml":
		return NewYAMLCodec(), nil
	case CodecJSONLZ4:
		return NewLZ4Codec(NewJSONCodec()), nil
	case CodecGobLZ4:
		return NewLZ4Codec(NewGobCodec()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// ForPath picks a codec from the extension of path.
func ForPath(path string) (Codec, error) {
	base := strings.ToLower(filepath.Base(path))

	for _, name := range []string{CodecJSONLZ4, CodecGobLZ4, CodecJSON, CodecGob, CodecYAML, "yml"} {
		if strings.HasSuffix(base, "."+name) {
			return ByName(name)
		}
	}

	return nil, fmt.Errorf("%w: no codec for %q", ErrUnknownCodec, filepath.Ext(path))
}
