// Package errors provides structured error types for the interpreter.
//
// Every error carries a processing phase (parse, decode, runtime) and a
// kind categorizing what went wrong. Errors support errors.Is matching
// on (phase, kind) pairs, error wrapping via Cause, and a fluent Builder
// for cases the convenience constructors don't cover.
//
// Runtime traps (memory out of bounds, undefined division) are NOT
// represented here; they are control-transfer tokens owned by the interp
// package and only become errors at the call boundary.
package errors
