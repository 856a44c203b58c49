package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse   Phase = "parse"   // module sections and preamble
	PhaseDecode  Phase = "decode"  // instruction stream
	PhaseRuntime Phase = "runtime" // execution
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"      // wrong magic number
	KindBadVersion         Kind = "bad_version"        // unsupported binary version
	KindUnknownSection     Kind = "unknown_section"    // section id cannot be handled
	KindUnknownOpcode      Kind = "unknown_opcode"     // primary opcode not recognized
	KindUnknownSecondary   Kind = "unknown_secondary_opcode"
	KindEndOfData          Kind = "end_of_data"        // bytes exhausted mid-decode
	KindIntSizeViolation   Kind = "int_size_violation" // LEB128 exceeds target width
	KindFloatSizeViolation Kind = "float_size_violation"
	KindUnexpectedData     Kind = "unexpected_data"    // type byte, limit flag, kind byte, UTF-8
	KindStackViolation     Kind = "stack_violation"    // pop/peek on empty, unbalanced exit
	KindMisc               Kind = "misc"               // operand type mismatch, export collisions, ...
)

// Error is the structured error type used throughout the interpreter
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path (section, field)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidInput reports a module that does not begin with the wasm magic.
func InvalidInput() *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidInput,
		Detail: "not a wasm binary (bad magic number)",
	}
}

// BadVersion reports an unsupported binary format version.
func BadVersion(got uint32) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindBadVersion,
		Detail: fmt.Sprintf("unsupported binary version %d", got),
		Value:  got,
	}
}

// UnknownOpcode reports a primary opcode the decoder cannot dispatch.
func UnknownOpcode(op byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownOpcode,
		Detail: fmt.Sprintf("opcode 0x%02X", op),
		Value:  op,
	}
}

// UnknownSecondaryOpcode reports an unrecognized sub-opcode after a prefix byte.
func UnknownSecondaryOpcode(prefix byte, sub uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownSecondary,
		Detail: fmt.Sprintf("opcode 0x%02X 0x%02X", prefix, sub),
		Value:  sub,
	}
}

// EndOfData reports bytes exhausted mid-decode.
func EndOfData(path ...string) *Error {
	return &Error{
		Phase: PhaseParse,
		Kind:  KindEndOfData,
		Path:  path,
	}
}

// IntSizeViolation reports a LEB128 value wider than the caller requested.
func IntSizeViolation(path ...string) *Error {
	return &Error{
		Phase: PhaseParse,
		Kind:  KindIntSizeViolation,
		Path:  path,
	}
}

// FloatSizeViolation reports fewer than 4/8 bytes remaining for a float read.
func FloatSizeViolation(path ...string) *Error {
	return &Error{
		Phase: PhaseParse,
		Kind:  KindFloatSizeViolation,
		Path:  path,
	}
}

// UnexpectedData reports a malformed type byte, limit flag, export kind,
// or invalid UTF-8.
func UnexpectedData(reason string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnexpectedData,
		Detail: reason,
	}
}

// StackViolation reports a pop or peek on an empty stack, or a stack left
// unbalanced at function exit.
func StackViolation(detail string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindStackViolation,
		Detail: detail,
	}
}

// Misc reports one-off faults: operand type mismatches, export name
// collisions, indices out of range.
func Misc(format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindMisc,
		Detail: fmt.Sprintf(format, args...),
	}
}
