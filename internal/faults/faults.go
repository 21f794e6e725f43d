// Package faults defines the closed set of failure kinds a downgrade can end
// in. Every pipeline component returns *Error so callers classify failures
// with Is or KindOf instead of matching message text.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a coarse-grained categorization for pipeline failures.
type Kind string

const (
	KindInvalidExtension Kind = "invalid_extension"
	KindNotFound         Kind = "not_found"
	KindFormat           Kind = "format"
	KindRecordNotFound   Kind = "record_not_found"
	KindOutputExists     Kind = "output_exists"
	KindIO               Kind = "io"
	KindInvalidTarget    Kind = "invalid_target"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{
	KindInvalidExtension,
	KindNotFound,
	KindFormat,
	KindRecordNotFound,
	KindOutputExists,
	KindIO,
	KindInvalidTarget,
}

// Error wraps an underlying error with operation context and a kind.
type Error struct {
	Op     string
	Kind   Kind
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	parts = append(parts, e.Kind.Label())
	if detail := strings.TrimSpace(e.Detail); detail != "" {
		parts = append(parts, detail)
	}
	msg := strings.Join(parts, ": ")
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an *Error without an underlying cause.
func New(kind Kind, op, path, detail string) *Error {
	return &Error{Op: op, Kind: kind, Path: path, Detail: detail}
}

// Wrap tags err with kind and operation context. A nil err yields nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Path: path, Err: err}
}

// Wrapf is Wrap with a formatted detail message.
func Wrapf(kind Kind, op, path string, err error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Label renders the kind for humans.
func (k Kind) Label() string {
	switch k {
	case KindInvalidExtension:
		return "invalid extension"
	case KindNotFound:
		return "not found"
	case KindFormat:
		return "invalid container format"
	case KindRecordNotFound:
		return "version record not found"
	case KindOutputExists:
		return "output already exists"
	case KindIO:
		return "i/o failure"
	case KindInvalidTarget:
		return "invalid target version"
	default:
		if k == "" {
			return "unknown failure"
		}
		return string(k)
	}
}

// Hint suggests how the caller can recover from a failure of this kind.
func (k Kind) Hint() string {
	switch k {
	case KindInvalidExtension:
		return "pass a Premiere Pro project file ending in .prproj"
	case KindNotFound:
		return "check the path and file name"
	case KindFormat:
		return "the file is not a gzip-compressed project; it may be damaged"
	case KindRecordNotFound:
		return "the project has no <Project ObjectID=...> record carrying a Version attribute"
	case KindOutputExists:
		return "move or rename the existing output, or choose another output directory"
	case KindIO:
		return "check permissions and free space in the output directory"
	case KindInvalidTarget:
		return "use a plain version number such as 1"
	default:
		return ""
	}
}
