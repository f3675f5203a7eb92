// Package validate checks a mesh request in a fixed order and reports the
// first offending field. On success it returns the parsed values.
package validate

import (
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/gridform/internal/core/model"
)

type Segment struct {
	Begin     float64
	End       float64
	Mode      model.DivisionMode
	Divisions int
	Spacing   float64
	Law       model.SpacingLaw
	Factor    float64
}

func (s Segment) Length() float64 { return s.End - s.Begin }

type Axis struct {
	Name     model.AxisName
	Segments []Segment
}

type Mesh struct {
	Dimensionality int
	Axes           []Axis
	Format         model.OutputFormat
	BaseName       string
}

// Request runs Geometry and then requires an output base name.
func Request(r *model.MeshRequest) (Mesh, error) {
	m, err := Geometry(r)
	if err != nil {
		return Mesh{}, err
	}
	name := strings.TrimSpace(r.BaseName)
	if name == "" {
		return Mesh{}, &model.Error{Kind: model.MissingOutputName, Field: model.FieldBaseName}
	}
	m.BaseName = name
	return m, nil
}

// Geometry checks dimensionality, every active axis' segment count, and
// then each active axis in X, Y, Z order.
func Geometry(r *model.MeshRequest) (Mesh, error) {
	if r.Dimensionality < 1 || r.Dimensionality > 3 {
		return Mesh{}, &model.Error{Kind: model.OutOfRange, Field: model.FieldDimensionality, Value: strconv.Itoa(r.Dimensionality)}
	}
	if _, ok := lawOrFormat(r.Format); !ok {
		return Mesh{}, &model.Error{Kind: model.UnknownChoice, Field: model.FieldFormat, Value: strconv.Itoa(int(r.Format))}
	}
	active := r.ActiveAxes()
	for _, a := range active {
		if n := a.Count(); n < model.MinSegments || n > model.MaxSegments {
			return Mesh{}, &model.Error{Kind: model.OutOfRange, Axis: a.Name, Field: model.FieldCount, Value: strconv.Itoa(n)}
		}
	}
	m := Mesh{Dimensionality: r.Dimensionality, Format: r.Format}
	for _, a := range active {
		pa, err := CheckAxis(a)
		if err != nil {
			return Mesh{}, err
		}
		m.Axes = append(m.Axes, pa)
	}
	return m, nil
}

// CheckAxis runs the coordinate, division and geometric factor passes in
// that order and stops at the first failure.
func CheckAxis(a *model.Axis) (Axis, error) {
	count := a.Count()
	coords := make([]float64, count+1)

	var prev float64
	for i := 0; i <= count; i++ {
		raw, field := a.End, model.FieldEnd
		if i < count {
			raw, field = a.Segments[i].Start, model.FieldStart
		}
		v, err := parseFloat(raw)
		if err != nil {
			return Axis{}, located(err, a.Name, i, field)
		}
		if i > 0 && v <= prev {
			return Axis{}, located(model.ErrNonMonotonicCoordinate, a.Name, i, field)
		}
		coords[i] = v
		prev = v
	}

	out := Axis{Name: a.Name, Segments: make([]Segment, count)}
	for i, s := range a.Segments {
		ps := Segment{Begin: coords[i], End: coords[i+1], Mode: s.Mode, Law: s.Law}
		if s.Mode == model.BySpacing {
			v, err := parseFloat(s.Spacing)
			if err == nil && v <= 0 {
				err = model.ErrNotPositive
			}
			if err != nil {
				return Axis{}, located(err, a.Name, i, model.FieldSpacing)
			}
			ps.Spacing = v
		} else {
			n, err := parseInt(s.Divisions)
			if err == nil && n <= 0 {
				err = model.ErrNotPositive
			}
			if err != nil {
				return Axis{}, located(err, a.Name, i, model.FieldDivisions)
			}
			ps.Divisions = n
		}
		out.Segments[i] = ps
	}

	for i, s := range a.Segments {
		if s.Law != model.Geometric {
			continue
		}
		// only positivity is enforced; factors below and above 1 both pass
		v, err := parseFloat(s.Factor)
		if err == nil && v <= 0 {
			err = model.ErrNotPositive
		}
		if err != nil {
			return Axis{}, located(err, a.Name, i, model.FieldFactor)
		}
		out.Segments[i].Factor = v
	}

	for i, s := range a.Segments {
		if _, ok := lawOrFormat(s.Law); !ok {
			return Axis{}, &model.Error{Kind: model.UnknownChoice, Axis: a.Name, Segment: i + 1, Field: model.FieldLaw, Value: strconv.Itoa(int(s.Law))}
		}
	}
	return out, nil
}

func parseFloat(raw string) (float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, model.ErrEmptyField
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, model.ErrNotANumber
	}
	return f, nil
}

func parseInt(raw string) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, model.ErrEmptyField
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.ErrNotANumber
	}
	return n, nil
}

// located copies a sentinel kind into a diagnostic for segment i (zero
// based) of axis.
func located(err error, axis model.AxisName, i int, field model.Field) error {
	return &model.Error{Kind: model.KindOf(err), Axis: axis, Segment: i + 1, Field: field}
}

type coded interface{ Code() int }

func lawOrFormat(c coded) (int, bool) {
	n := c.Code()
	return n, n >= 1 && n <= 4
}
