// Package base holds the small cross-cutting primitives — error kinds and a
// minimal injectable logger — shared by every other package in this module.
package base

import (
	"github.com/cockroachdb/errors"
)

// errorKind is a marker error used with errors.Mark/errors.Is to classify
// failures into the three kinds the on-disk format cares about: Io,
// Corruption, and InvalidInput. NotFound is not a kind — see ErrNotFound.
type errorKind struct{ name string }

func (k *errorKind) Error() string { return k.name }

var (
	kindIO           = &errorKind{"io"}
	kindCorruption   = &errorKind{"corruption"}
	kindInvalidInput = &errorKind{"invalid input"}
)

// ErrNotFound is returned by Reader.Get when the requested key is absent.
// It is a normal result, not a failure, and is never mixed into the
// Io/Corruption/InvalidInput kind hierarchy below.
var ErrNotFound = errors.New("bigtable: key not found")

// IOErrorf constructs a new error of kind Io.
func IOErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kindIO)
}

// WrapIO wraps err, if non-nil, as a kind-Io error with additional context.
func WrapIO(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kindIO)
}

// CorruptionErrorf constructs a new error of kind Corruption. Callers should
// include the file path, block offset, and field name where available, so
// the error is diagnosable without a debugger.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kindCorruption)
}

// WrapCorruption wraps err, if non-nil, as a kind-Corruption error.
func WrapCorruption(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kindCorruption)
}

// InvalidInputErrorf constructs a new error of kind InvalidInput.
func InvalidInputErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kindInvalidInput)
}

// IsIO reports whether err (or something it wraps) is a kind-Io error.
func IsIO(err error) bool { return errors.Is(err, kindIO) }

// IsCorruption reports whether err (or something it wraps) is a
// kind-Corruption error.
func IsCorruption(err error) bool { return errors.Is(err, kindCorruption) }

// IsInvalidInput reports whether err (or something it wraps) is a
// kind-InvalidInput error.
func IsInvalidInput(err error) bool { return errors.Is(err, kindInvalidInput) }
