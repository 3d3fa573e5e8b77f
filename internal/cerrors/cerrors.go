// Package cerrors defines the fatal error taxonomy shared by every pass of
// the compiler. Every pass reports failures as one of the Kinds below,
// wrapped with pkg/errors as it is returned up the pipeline so that the
// underlying Kind survives errors.Cause and the accumulated context
// survives Error().
package cerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which entry of the taxonomy an error belongs to. The
// driver never needs more than this plus the message to report a single
// line and exit nonzero.
type Kind int

const (
	Lexical Kind = iota
	Parse
	UnboundName
	ArityMismatch
	TypeMismatch
	ControlOutsideLoop
	CyclicTypes
	MissingMain
	MonomorphizationDiverges
	UnsupportedArity
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "LexicalError"
	case Parse:
		return "ParseError"
	case UnboundName:
		return "UnboundName"
	case ArityMismatch:
		return "ArityMismatch"
	case TypeMismatch:
		return "TypeMismatch"
	case ControlOutsideLoop:
		return "ControlOutsideLoop"
	case CyclicTypes:
		return "CyclicTypes"
	case MissingMain:
		return "MissingMain"
	case MonomorphizationDiverges:
		return "MonomorphizationDiverges"
	case UnsupportedArity:
		return "UnsupportedArity"
	default:
		return "UnknownError"
	}
}

// Error is a single taxonomy error with an optional source byte offset,
// supplied by the lexer/parser when available.
type Error struct {
	Kind    Kind
	Msg     string
	Offset  int
	HasOffs bool
}

func (e *Error) Error() string {
	if e.HasOffs {
		return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds a taxonomy error with no source offset.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewAt builds a taxonomy error carrying a source offset.
func NewAt(kind Kind, offset int, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Offset: offset, HasOffs: true}
}

// Wrap attaches a pass name to an error as it crosses a pipeline stage
// boundary, preserving the underlying taxonomy Kind for errors.As/Cause.
func Wrap(err error, pass string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, pass)
}

// As recovers the taxonomy Error beneath any number of Wrap layers, the way
// a driver needs to in order to decide the process exit path.
func As(err error) (*Error, bool) {
	type causer interface{ Cause() error }
	for err != nil {
		if ce, ok := err.(*Error); ok {
			return ce, true
		}
		c, ok := err.(causer)
		if !ok {
			return nil, false
		}
		err = c.Cause()
	}
	return nil, false
}
