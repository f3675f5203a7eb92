package model

import (
	"errors"
	"fmt"
	"strconv"
)

type Kind string

const (
	EmptyField             Kind = "empty_field"
	NotANumber             Kind = "not_a_number"
	NotPositive            Kind = "not_positive"
	NonMonotonicCoordinate Kind = "non_monotonic_coordinate"
	OutOfRange             Kind = "out_of_range"
	MissingOutputName      Kind = "missing_output_name"
	UnknownChoice          Kind = "unknown_choice"
	IOFailure              Kind = "io_failure"
	ExternalProcessFailure Kind = "external_process_failure"
)

// Validation reports whether the kind comes from checking user input, as
// opposed to writing files or running tools.
func (k Kind) Validation() bool {
	switch k {
	case IOFailure, ExternalProcessFailure, "":
		return false
	}
	return true
}

type Field string

const (
	FieldStart          Field = "start"
	FieldEnd            Field = "end"
	FieldMode           Field = "mode"
	FieldDivisions      Field = "divisions"
	FieldSpacing        Field = "spacing"
	FieldLaw            Field = "law"
	FieldFactor         Field = "factor"
	FieldCount          Field = "count"
	FieldSegment        Field = "segment"
	FieldAxis           Field = "axis"
	FieldName           Field = "field"
	FieldDimensionality Field = "dimensionality"
	FieldFormat         Field = "format"
	FieldBaseName       Field = "base_name"
	FieldNodes          Field = "nodes"
	FieldRegions        Field = "regions"
	FieldFile           Field = "file"
	FieldTool           Field = "tool"
)

func ParseField(s string) (Field, error) {
	f := Field(s)
	switch f {
	case FieldStart, FieldMode, FieldDivisions, FieldSpacing, FieldLaw, FieldFactor:
		return f, nil
	}
	return "", &Error{Kind: UnknownChoice, Field: FieldName, Value: s}
}

// Error is the single diagnostic surfaced to the user. Segment is 1-based;
// for the end coordinate it is the segment count plus one.
type Error struct {
	Kind    Kind
	Axis    AxisName
	Segment int
	Field   Field
	Value   string
	Limit   int
	Err     error
}

var (
	ErrEmptyField             = &Error{Kind: EmptyField}
	ErrNotANumber             = &Error{Kind: NotANumber}
	ErrNotPositive            = &Error{Kind: NotPositive}
	ErrNonMonotonicCoordinate = &Error{Kind: NonMonotonicCoordinate}
	ErrOutOfRange             = &Error{Kind: OutOfRange}
	ErrMissingOutputName      = &Error{Kind: MissingOutputName}
	ErrUnknownChoice          = &Error{Kind: UnknownChoice}
	ErrIOFailure              = &Error{Kind: IOFailure}
	ErrExternalProcessFailure = &Error{Kind: ExternalProcessFailure}
)

// Is matches on kind, so errors.Is(err, ErrOutOfRange) works for any
// out of range diagnostic.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Error() string {
	switch e.Kind {
	case EmptyField:
		return fmt.Sprintf("Error in %s. %s is empty.", e.location(), e.label())
	case NotANumber:
		return fmt.Sprintf("Error in %s. %s must be a number.", e.location(), e.label())
	case NotPositive:
		return fmt.Sprintf("Error in %s. %s must be positive.", e.location(), e.label())
	case NonMonotonicCoordinate:
		return fmt.Sprintf("Error in %s. Coordinate must be greater than that of Segment %d.", e.location(), e.Segment-1)
	case OutOfRange:
		return e.rangeMessage()
	case MissingOutputName:
		return "Please specify a file name."
	case UnknownChoice:
		return fmt.Sprintf("Unknown %s %q.", e.Field, e.Value)
	case IOFailure:
		return wrapMsg("Could not write "+e.Value, e.Err)
	case ExternalProcessFailure:
		return wrapMsg(e.Value+" run failed", e.Err)
	}
	return wrapMsg(string(e.Kind), e.Err)
}

func (e *Error) location() string {
	if e.Axis == "" {
		return string(e.Field)
	}
	switch {
	case e.Field == FieldEnd:
		return fmt.Sprintf("%s Dimension, end coordinate", e.Axis)
	case e.Segment > 0:
		return fmt.Sprintf("%s Dimension, Segment %d", e.Axis, e.Segment)
	default:
		return fmt.Sprintf("%s Dimension", e.Axis)
	}
}

func (e *Error) label() string {
	switch e.Field {
	case FieldStart, FieldEnd:
		return "Coordinate input"
	case FieldDivisions:
		return "Divisions input"
	case FieldSpacing:
		return "Spacing input"
	case FieldFactor:
		return "Geometric factor input"
	}
	return string(e.Field)
}

func (e *Error) rangeMessage() string {
	switch e.Field {
	case FieldCount:
		if n, err := strconv.Atoi(e.Value); err == nil && n < MinSegments {
			return fmt.Sprintf("Number of %s segments must be positive.", e.Axis)
		}
		return fmt.Sprintf("No more than %d %s segments can be specified.", MaxSegments, e.Axis)
	case FieldSegment:
		return fmt.Sprintf("%s Dimension has no Segment %s.", e.Axis, e.Value)
	case FieldDimensionality:
		return "You can only have 1, 2, or 3 dimensions."
	case FieldNodes:
		return fmt.Sprintf("Too many nodes on the %s axis: %s exceeds %d.", e.Axis, e.Value, e.Limit)
	case FieldRegions:
		return fmt.Sprintf("Too many regions: %s exceeds %d.", e.Value, e.Limit)
	}
	return fmt.Sprintf("%s out of range: %s", e.Field, e.Value)
}

func wrapMsg(msg string, err error) string {
	if err == nil {
		return msg + "."
	}
	return msg + ": " + err.Error()
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

func withLocation(err error, axis AxisName, segment int) error {
	var me *Error
	if errors.As(err, &me) {
		me.Axis = axis
		me.Segment = segment
	}
	return err
}
