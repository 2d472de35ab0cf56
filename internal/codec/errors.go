package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnexpectedEndOfInput is matched by every short read.
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")

	// ErrInvalidEncoding reports a text field that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrTrailingBytes reports input left over after a complete value was decoded.
	ErrTrailingBytes = errors.New("trailing bytes after value")
)

// EndOfInputError carries the width of the read that could not be satisfied.
type EndOfInputError struct {
	Width     int
	Remaining int
}

func (e *EndOfInputError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, %d remaining", ErrUnexpectedEndOfInput, e.Width, e.Remaining)
}

// Is lets errors.Is match the error against ErrUnexpectedEndOfInput.
func (e *EndOfInputError) Is(target error) bool {
	return target == ErrUnexpectedEndOfInput
}
