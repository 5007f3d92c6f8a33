package toolstate

import "errors"

// ErrUnknownField is returned when SetField names a field the tool's schema
// does not declare.
var ErrUnknownField = errors.New("toolstate: unknown field")

// ErrClosed is returned when a synchronizer is used after Close.
var ErrClosed = errors.New("toolstate: synchronizer closed")

// ErrInvalidScope is returned for a Clear scope other than "tool" or "all".
var ErrInvalidScope = errors.New(`toolstate: clear scope must be "tool" or "all"`)
