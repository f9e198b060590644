// Package ergiberr defines the closed set of domain error kinds the
// snapshot engine can surface, so callers can switch on Kind with
// errors.As instead of matching error strings.
package ergiberr

import "fmt"

// Kind is one of the domain error categories the engine produces.
type Kind int

const (
	IO Kind = iota
	UnknownToken
	UnknownHashAlgorithm
	RepoExists
	RepoDirExists
	UnknownRepo
	StillReferenced
	UnknownFile
	UnknownDirectory
	SnapshotMismatch
	SnapshotMismatchDirty
	NoSnapshotAvailable
	LastSnapshot
	ArchiveEmpty
	IndexOutOfRange
	Glob
	Serialization
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IO"
	case UnknownToken:
		return "UnknownToken"
	case UnknownHashAlgorithm:
		return "UnknownHashAlgorithm"
	case RepoExists:
		return "RepoExists"
	case RepoDirExists:
		return "RepoDirExists"
	case UnknownRepo:
		return "UnknownRepo"
	case StillReferenced:
		return "StillReferenced"
	case UnknownFile:
		return "UnknownFile"
	case UnknownDirectory:
		return "UnknownDirectory"
	case SnapshotMismatch:
		return "SnapshotMismatch"
	case SnapshotMismatchDirty:
		return "SnapshotMismatchDirty"
	case NoSnapshotAvailable:
		return "NoSnapshotAvailable"
	case LastSnapshot:
		return "LastSnapshot"
	case ArchiveEmpty:
		return "ArchiveEmpty"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case Glob:
		return "Glob"
	case Serialization:
		return "Serialization"
	default:
		return "Unknown"
	}
}

// Error is the engine's single error type: a Kind plus a human message and
// an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// Context fields, populated by the constructors that need them.
	NumReferences int
	NumItems      int
	Index         int64
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, satisfying
// errors.Is(err, ergiberr.New(SomeKind, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a bare error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs an error of the given kind wrapping a lower-level cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IOErr wraps a filesystem failure with the path that caused it.
func IOErr(path string, err error) *Error {
	return &Error{Kind: IO, Msg: path, Err: err}
}

// UnknownTokenErr reports a blob requested by token that is absent.
func UnknownTokenErr(token string) *Error {
	return &Error{Kind: UnknownToken, Msg: token}
}

// StillReferencedErr reports a repository deletion refused because it is
// still referenced.
func StillReferencedErr(numReferences, numItems int) *Error {
	return &Error{
		Kind:          StillReferenced,
		Msg:           fmt.Sprintf("%d references across %d items", numReferences, numItems),
		NumReferences: numReferences,
		NumItems:      numItems,
	}
}

// IndexOutOfRangeErr reports an out-of-range nth_back index.
func IndexOutOfRangeErr(archive string, index int64) *Error {
	return &Error{
		Kind:  IndexOutOfRange,
		Msg:   fmt.Sprintf("archive %q: index %d out of range", archive, index),
		Index: index,
	}
}
