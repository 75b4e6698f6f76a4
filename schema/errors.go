package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedVersion = errors.New("schema: unsupported version")
	ErrNotSchematic       = errors.New("schema: not a sponge schematic")
	ErrMissingField       = errors.New("schema: missing required field")
	ErrWrongType          = errors.New("schema: field has the wrong type")
	ErrInvalidValue       = errors.New("schema: invalid field value")
	ErrReservedKey        = errors.New("schema: block entity payload uses a reserved key")
)

// FieldError ties a failure to the dotted path of the field being read or
// written, relative to the Schematic compound.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("schema: field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
