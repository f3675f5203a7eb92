// Package model defines the mesh request edited through the form: per-axis
// segment lists, spacing choices and the output selection.
package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	MinSegments = 1
	MaxSegments = 100
)

type AxisName string

const (
	AxisX AxisName = "X"
	AxisY AxisName = "Y"
	AxisZ AxisName = "Z"
)

// AxisNames lists axes in deck order.
var AxisNames = [3]AxisName{AxisX, AxisY, AxisZ}

func ParseAxis(s string) (AxisName, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return AxisX, nil
	case "Y":
		return AxisY, nil
	case "Z":
		return AxisZ, nil
	}
	return "", &Error{Kind: UnknownChoice, Field: FieldAxis, Value: s}
}

func (a AxisName) index() int {
	switch a {
	case AxisY:
		return 1
	case AxisZ:
		return 2
	default:
		return 0
	}
}

type DivisionMode int

const (
	ByCount DivisionMode = iota
	BySpacing
)

func (m DivisionMode) String() string {
	if m == BySpacing {
		return "spacing"
	}
	return "count"
}

func ParseDivisionMode(s string) (DivisionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count", "divisions":
		return ByCount, nil
	case "spacing":
		return BySpacing, nil
	}
	return ByCount, &Error{Kind: UnknownChoice, Field: FieldMode, Value: s}
}

func (m DivisionMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *DivisionMode) UnmarshalText(b []byte) error {
	v, err := ParseDivisionMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// SpacingLaw values are the codes the generator reads from the deck.
type SpacingLaw int

const (
	Linear SpacingLaw = iota + 1
	Geometric
	LogExpanding
	LogContracting
)

var lawNames = map[SpacingLaw]string{
	Linear:         "linear",
	Geometric:      "geometric",
	LogExpanding:   "log-expanding",
	LogContracting: "log-contracting",
}

func (l SpacingLaw) Code() int { return int(l) }

func (l SpacingLaw) String() string {
	if s, ok := lawNames[l]; ok {
		return s
	}
	return "law(" + strconv.Itoa(int(l)) + ")"
}

// ParseSpacingLaw accepts a law name or its numeric deck code.
func ParseSpacingLaw(s string) (SpacingLaw, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		l := SpacingLaw(n)
		if _, ok := lawNames[l]; ok {
			return l, nil
		}
	}
	for l, name := range lawNames {
		if v == name {
			return l, nil
		}
	}
	return 0, &Error{Kind: UnknownChoice, Field: FieldLaw, Value: s}
}

func (l SpacingLaw) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *SpacingLaw) UnmarshalText(b []byte) error {
	v, err := ParseSpacingLaw(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// OutputFormat values are the codes the generator reads from the deck.
type OutputFormat int

const (
	AVS OutputFormat = iota + 1
	Tracer3D
	Vector
	FEHM
)

var formatNames = map[OutputFormat]string{
	AVS:      "avs",
	Tracer3D: "tracer3d",
	Vector:   "vector",
	FEHM:     "fehm",
}

func (f OutputFormat) Code() int { return int(f) }

func (f OutputFormat) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		f := OutputFormat(n)
		if _, ok := formatNames[f]; ok {
			return f, nil
		}
	}
	for f, name := range formatNames {
		if v == name {
			return f, nil
		}
	}
	return 0, &Error{Kind: UnknownChoice, Field: FieldFormat, Value: s}
}

func (f OutputFormat) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *OutputFormat) UnmarshalText(b []byte) error {
	v, err := ParseOutputFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Segment holds one division of an axis. Values are kept as typed and are
// only parsed when the request is checked.
type Segment struct {
	Start     string       `json:"start"`
	Mode      DivisionMode `json:"mode"`
	Divisions string       `json:"divisions"`
	Spacing   string       `json:"spacing"`
	Law       SpacingLaw   `json:"law"`
	Factor    string       `json:"factor"`
}

func NewSegment() Segment {
	return Segment{Mode: ByCount, Law: Linear}
}

// Axis is an ordered run of segments closed by End. Segment i ends where
// segment i+1 starts; the last one ends at End.
type Axis struct {
	Name     AxisName  `json:"name"`
	Segments []Segment `json:"segments"`
	End      string    `json:"end"`
}

func NewAxis(name AxisName) Axis {
	return Axis{Name: name, Segments: []Segment{NewSegment()}}
}

func (a *Axis) Count() int { return len(a.Segments) }

// SetSegmentCount keeps segments [0,n) and appends defaults up to n.
// Out of range counts leave the axis untouched.
func (a *Axis) SetSegmentCount(n int) error {
	if n < MinSegments || n > MaxSegments {
		return &Error{Kind: OutOfRange, Axis: a.Name, Field: FieldCount, Value: strconv.Itoa(n)}
	}
	cur := len(a.Segments)
	switch {
	case n < cur:
		// dropped segments are gone for good
		a.Segments = slices.Clip(a.Segments[:n])
	case n > cur:
		grown := make([]Segment, n)
		copy(grown, a.Segments)
		for i := cur; i < n; i++ {
			grown[i] = NewSegment()
		}
		a.Segments = grown
	}
	return nil
}

func (a *Axis) Segment(i int) (Segment, error) {
	if err := a.checkIndex(i); err != nil {
		return Segment{}, err
	}
	return a.Segments[i], nil
}

// SetField writes one segment field without checking the value; free-text
// fields are checked at submit time. i is zero based.
func (a *Axis) SetField(i int, f Field, value string) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	s := &a.Segments[i]
	switch f {
	case FieldStart:
		s.Start = value
	case FieldDivisions:
		s.Divisions = value
	case FieldSpacing:
		s.Spacing = value
	case FieldFactor:
		s.Factor = value
	case FieldMode:
		m, err := ParseDivisionMode(value)
		if err != nil {
			return withLocation(err, a.Name, i+1)
		}
		s.Mode = m
	case FieldLaw:
		l, err := ParseSpacingLaw(value)
		if err != nil {
			return withLocation(err, a.Name, i+1)
		}
		s.Law = l
	default:
		return &Error{Kind: UnknownChoice, Axis: a.Name, Segment: i + 1, Field: FieldName, Value: string(f)}
	}
	return nil
}

func (a *Axis) SetEnd(value string) { a.End = value }

func (a *Axis) checkIndex(i int) error {
	if i < 0 || i >= len(a.Segments) {
		return &Error{Kind: OutOfRange, Axis: a.Name, Segment: i + 1, Field: FieldSegment, Value: strconv.Itoa(i + 1)}
	}
	return nil
}

func (a Axis) clone() Axis {
	a.Segments = slices.Clone(a.Segments)
	return a
}

// MeshRequest is the complete form: dimensionality, one axis per direction,
// and where the result goes. Only the first Dimensionality axes are used.
type MeshRequest struct {
	Dimensionality int          `json:"dimensionality"`
	Axes           [3]Axis      `json:"axes"`
	Format         OutputFormat `json:"format"`
	BaseName       string       `json:"base_name"`
	View           bool         `json:"view"`
}

func NewMeshRequest() *MeshRequest {
	r := &MeshRequest{}
	r.Reset()
	return r
}

// Reset discards every axis and restores defaults.
func (r *MeshRequest) Reset() {
	*r = MeshRequest{
		Dimensionality: 1,
		Format:         AVS,
	}
	for i, name := range AxisNames {
		r.Axes[i] = NewAxis(name)
	}
}

func (r *MeshRequest) Axis(name AxisName) *Axis {
	return &r.Axes[name.index()]
}

func (r *MeshRequest) SetDimensionality(d int) error {
	if d < 1 || d > 3 {
		return &Error{Kind: OutOfRange, Field: FieldDimensionality, Value: strconv.Itoa(d)}
	}
	r.Dimensionality = d
	return nil
}

// ActiveAxes returns the axes in use, in deck order.
func (r *MeshRequest) ActiveAxes() []*Axis {
	d := r.Dimensionality
	if d < 1 {
		d = 1
	}
	if d > 3 {
		d = 3
	}
	out := make([]*Axis, 0, d)
	for i := range d {
		out = append(out, &r.Axes[i])
	}
	return out
}

func (r *MeshRequest) Clone() *MeshRequest {
	cp := *r
	for i := range cp.Axes {
		cp.Axes[i] = r.Axes[i].clone()
	}
	return &cp
}

func (r *MeshRequest) String() string {
	counts := make([]string, 0, 3)
	for _, a := range r.ActiveAxes() {
		counts = append(counts, fmt.Sprintf("%s=%d", a.Name, a.Count()))
	}
	return fmt.Sprintf("%dD %s [%s] -> %q", r.Dimensionality, r.Format, strings.Join(counts, " "), r.BaseName)
}
