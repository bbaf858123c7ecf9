package jsonstat

import (
	"errors"
	"fmt"
	"strings"
)

// ─── Decode errors ────────────────────────────────────────────────────────────

// ErrSyntax matches any ParseError caused by malformed JSON text.
var ErrSyntax = errors.New("jsonstat: malformed JSON")

// ErrRequired is wrapped by a ParseError when version or class is absent.
var ErrRequired = errors.New("required field absent")

// ParseError reports a document that could not be decoded.
// Path is a dotted field path ("dimension.sex.category.index"), empty when the
// failure concerns the document as a whole. Offset is the byte position of a
// syntax error, or -1 when unknown.
type ParseError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("jsonstat: decode")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports syntax failures as ErrSyntax.
func (e *ParseError) Is(target error) bool {
	return target == ErrSyntax && e.Offset >= 0
}

// ShapeError reports a polymorphic field whose value matched none of its
// permitted wire shapes. Tried lists the shapes in the order attempted.
type ShapeError struct {
	Field string
	Tried []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s matches none of its shapes (tried %s)", e.Field, strings.Join(e.Tried, ", "))
}

// atPath prefixes err with a field path, merging with any path it already has.
func atPath(path string, err error) error {
	if pe, ok := err.(*ParseError); ok {
		p := path
		if pe.Path != "" {
			p += "." + pe.Path
		}
		return &ParseError{Path: p, Offset: pe.Offset, Err: pe.Err}
	}
	return &ParseError{Path: path, Offset: -1, Err: err}
}

// ─── Conversion errors ────────────────────────────────────────────────────────

// ConversionKind classifies why a narrowing conversion was refused.
type ConversionKind int

const (
	ClassMismatch ConversionKind = iota + 1
	MissingField
	ForbiddenField
	InvariantViolation
)

func (k ConversionKind) String() string {
	switch k {
	case ClassMismatch:
		return "class mismatch"
	case MissingField:
		return "missing field"
	case ForbiddenField:
		return "forbidden field"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *ConversionError.
var (
	ErrClassMismatch  = errors.New("class mismatch")
	ErrMissingField   = errors.New("missing field")
	ErrForbiddenField = errors.New("forbidden field")
	ErrInvariant      = errors.New("invariant violation")
)

// ConversionError is returned by the narrowing converters. Exactly one
// violation is reported per attempt: the first one found.
type ConversionError struct {
	Kind   ConversionKind
	Target Class  // class the caller asked for
	Got    Class  // class found on the envelope (ClassMismatch only)
	Field  string // offending field, empty for ClassMismatch
	Detail string
}

func (e *ConversionError) Error() string {
	switch e.Kind {
	case ClassMismatch:
		return fmt.Sprintf("jsonstat: cannot narrow %q document to %s", e.Got, e.Target)
	case InvariantViolation:
		return fmt.Sprintf("jsonstat: %s: %s: %s", e.Target, e.Field, e.Detail)
	default:
		return fmt.Sprintf("jsonstat: %s: %s %q", e.Target, e.Kind, e.Field)
	}
}

func (e *ConversionError) Is(target error) bool {
	switch target {
	case ErrClassMismatch:
		return e.Kind == ClassMismatch
	case ErrMissingField:
		return e.Kind == MissingField
	case ErrForbiddenField:
		return e.Kind == ForbiddenField
	case ErrInvariant:
		return e.Kind == InvariantViolation
	}
	return false
}

func classMismatch(target, got Class) error {
	return &ConversionError{Kind: ClassMismatch, Target: target, Got: got}
}

func missingField(target Class, field string) error {
	return &ConversionError{Kind: MissingField, Target: target, Field: field}
}

func forbiddenField(target Class, field string) error {
	return &ConversionError{Kind: ForbiddenField, Target: target, Field: field}
}

func invariant(target Class, field, format string, args ...any) error {
	return &ConversionError{Kind: InvariantViolation, Target: target, Field: field, Detail: fmt.Sprintf(format, args...)}
}
