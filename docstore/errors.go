package docstore

import (
	"errors"
	"fmt"
)

// ErrInvalidOperand matches every *InvalidOperandError.
var ErrInvalidOperand = errors.New("invalid operand")

// InvalidOperandError is returned by Add and Subtract when the operand does
// not coerce to a number. Nothing is written.
type InvalidOperandError struct {
	Op    string
	Key   string
	Value any
}

func (e *InvalidOperandError) Error() string {
	return fmt.Sprintf("%s %q: %v: %#v is not a number", e.Op, e.Key, ErrInvalidOperand, e.Value)
}

func (e *InvalidOperandError) Is(target error) bool { return target == ErrInvalidOperand }
