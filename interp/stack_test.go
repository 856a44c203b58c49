package interp

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasm-interp/errors"
)

func TestStackPushPop(t *testing.T) {
	s := &Stack{}
	s.Push(I32(1))
	s.Push(I32(2))

	v, err := s.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v.AsI32() != 2 {
		t.Errorf("Pop: got %d, want 2", v.AsI32())
	}
	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}
}

func TestStackPopEmpty(t *testing.T) {
	s := &Stack{}
	_, err := s.Pop()
	if !stderrors.Is(err, errors.StackViolation("")) {
		t.Errorf("expected stack_violation, got %v", err)
	}
}

func TestStackPeek(t *testing.T) {
	s := &Stack{}
	s.Push(I32(10))
	s.Push(I32(20))
	s.Push(I32(30))

	for offset, want := range []int32{30, 20, 10} {
		v, err := s.Peek(offset)
		if err != nil {
			t.Fatalf("Peek(%d): %v", offset, err)
		}
		if v.AsI32() != want {
			t.Errorf("Peek(%d): got %d, want %d", offset, v.AsI32(), want)
		}
	}
	if s.Len() != 3 {
		t.Errorf("Peek should not consume: len %d", s.Len())
	}

	if _, err := s.Peek(3); !stderrors.Is(err, errors.StackViolation("")) {
		t.Errorf("expected stack_violation, got %v", err)
	}
}

func TestStackAssertEmpty(t *testing.T) {
	s := &Stack{}
	if err := s.AssertEmpty(); err != nil {
		t.Errorf("empty stack: %v", err)
	}
	s.Push(I32(1))
	if err := s.AssertEmpty(); !stderrors.Is(err, errors.StackViolation("")) {
		t.Errorf("expected stack_violation, got %v", err)
	}
}
