package snapshot

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON schema of a snapshot written by a JSON or YAML codec.
//
//go:embed schema.json
var Schema string

// ErrInvalidDocument is returned when a JSON snapshot violates Schema.
var ErrInvalidDocument = errors.New("snapshot: document does not match schema")

// ValidateJSON checks data against Schema and returns one error describing
// every violation.
func ValidateJSON(data []byte) error {
	violations, err := Violations(data)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(violations, "; "))
}

// Violations returns a "field: description" line per schema violation.
func Violations(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(Schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate snapshot: %w", err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, verr.Field()+": "+verr.Description())
	}

	return violations, nil
}
