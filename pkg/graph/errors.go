package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ReferenceError reports an id that does not resolve within the graph.
type ReferenceError struct {
	Path      string   // document location, e.g. constraints[2].args.part_a
	Kind      string   // part, track, constraint or anchor
	ID        string   // the unresolved id
	Available []string // valid names, sorted
}

// UnknownID reports id as an unresolved reference of kind. available is
// copied and sorted into the error.
func UnknownID(path, kind, id string, available []string) *ReferenceError {
	return &ReferenceError{Path: path, Kind: kind, ID: id, Available: slices.Sorted(slices.Values(available))}
}

func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("references unknown %s id %q", e.Kind, e.ID)
	if e.Kind == "anchor" {
		msg = fmt.Sprintf("references unknown anchor %q", e.ID)
	}
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Available, ", "))
	}
	if e.Path != "" {
		return e.Path + " " + msg
	}
	return msg
}

// TypeError reports an unsupported type string or enum value.
type TypeError struct {
	Path    string
	Field   string
	Value   string
	Allowed []string
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("unsupported %s %q (supported: %s)", e.Field, e.Value, strings.Join(e.Allowed, ", "))
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

// ArgError reports an argument that is unknown, missing or out of range.
type ArgError struct {
	Path   string
	Key    string
	Reason string
}

func (e *ArgError) Error() string {
	switch {
	case e.Path != "" && e.Key != "":
		return fmt.Sprintf("%s.%s: %s", e.Path, e.Key, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	case e.Key != "":
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	return e.Reason
}

// AggregateError collects every load-time problem found in one document.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d graph errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// Errors returns the members of an AggregateError, or err itself as a
// one-element slice. It returns nil for a nil error.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg.Errors
	}
	return []error{err}
}

// aggregate returns nil for no errors, the error itself for one, and an
// AggregateError otherwise.
func aggregate(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}

// atPath stamps a document path on errors produced below the document
// level. Errors that already carry a path are returned unchanged.
func atPath(err error, path string) error {
	switch e := err.(type) {
	case *TypeError:
		if e.Path == "" {
			e.Path = path
		}
	case *ArgError:
		if e.Path == "" {
			e.Path = path
		}
	case *ReferenceError:
		if e.Path == "" {
			e.Path = path
		}
	}
	return err
}
