package jurassic2

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Codec serializes request bodies and deserializes response bodies.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec. Unknown response keys are ignored.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DecodeError is returned when a response body does not match ChatResponse.
type DecodeError struct {
	// Field is the dotted path of the mismatched field, if known.
	Field string

	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("jurassic2: cant decode response field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("jurassic2: cant decode response: %v", e.Err)
}

// Unwrap returns the codec error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(err error) *DecodeError {
	de := &DecodeError{Err: err}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		de.Field = typeErr.Field
	}
	return de
}
