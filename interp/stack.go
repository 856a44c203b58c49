package interp

import (
	"github.com/wippyai/wasm-interp/errors"
)

// Stack is a wasm value stack. Every function invocation owns a fresh one.
type Stack struct {
	values []Value
}

// Push adds a value on top of the stack.
func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, errors.StackViolation("pop on empty stack")
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Peek returns the offset'th value from the top without removing it
// (offset 0 is the most recently pushed value).
func (s *Stack) Peek(offset int) (Value, error) {
	i := len(s.values) - 1 - offset
	if i < 0 {
		return Value{}, errors.StackViolation("peek past the bottom of the stack")
	}
	return s.values[i], nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.values)
}

// AssertEmpty fails unless the stack holds no values.
func (s *Stack) AssertEmpty() error {
	if len(s.values) != 0 {
		return errors.StackViolation("stack not empty at function exit")
	}
	return nil
}
