package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTheme is returned for a theme index or label outside the table.
var ErrUnknownTheme = errors.New("unknown theme")

// MissingFileError reports an expected input file or directory that is absent.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("missing file %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// EmptyInputError reports an input with no usable entries: a theme or
// country folder without images, an empty matrix file, or an empty
// prediction sequence.
type EmptyInputError struct {
	What string // kind of input, e.g. "country", "predictions"
	Name string // optional identifier
}

func (e *EmptyInputError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("empty input: %s", e.What)
	}
	return fmt.Sprintf("empty input: %s %q", e.What, e.Name)
}

// NameResolutionError reports a country name with no known geographic code.
type NameResolutionError struct {
	Name string
	Err  error
}

func (e *NameResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot resolve country %q", e.Name)
	}
	return fmt.Sprintf("cannot resolve country %q: %v", e.Name, e.Err)
}

func (e *NameResolutionError) Unwrap() error { return e.Err }

// ShapeMismatchError reports a feature vector whose length differs from the
// rest of its matrix or from what a classifier was trained on.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %d, got %d", e.What, e.Want, e.Got)
}
