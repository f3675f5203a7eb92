// Package preview computes what the generator will produce for a checked
// request: node coordinates per axis, node and element counts, and the
// region summary shown next to the form.
package preview

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/validate"
)

// Generator limits.
const (
	MaxNodesPerAxis = 16385
	MaxRegions      = 500
)

// Summary is the region count line for the active axes.
func Summary(r *model.MeshRequest) string {
	x := r.Axes[0].Count()
	y := r.Axes[1].Count()
	z := r.Axes[2].Count()
	switch r.Dimensionality {
	case 1:
		return fmt.Sprintf("%d line segment region(s)", x)
	case 2:
		return fmt.Sprintf("%d x %d = %d rectangular region(s)", x, y, x*y)
	default:
		return fmt.Sprintf("%d x %d x %d = %d rectangular cuboid region(s)", x, y, z, x*y*z)
	}
}

type Axis struct {
	Name      model.AxisName `json:"name"`
	Nodes     []float64      `json:"nodes"`
	Divisions []int          `json:"divisions"`
}

type Mesh struct {
	Axes     []Axis `json:"axes"`
	Nodes    int    `json:"nodes"`
	Elements int    `json:"elements"`
	Regions  int    `json:"regions"`
}

// Build lays out node coordinates for a checked mesh. Segments share their
// boundary nodes. Counts are checked against the generator limits before
// any coordinates are allocated.
func Build(m validate.Mesh) (Mesh, error) {
	regions := 1
	for _, a := range m.Axes {
		regions *= len(a.Segments)
	}
	if regions > MaxRegions {
		return Mesh{}, &model.Error{Kind: model.OutOfRange, Field: model.FieldRegions,
			Value: strconv.Itoa(regions), Limit: MaxRegions}
	}

	out := Mesh{Regions: regions, Nodes: 1, Elements: 1}
	for _, a := range m.Axes {
		divs := make([]int, len(a.Segments))
		nodes := 1
		for i, s := range a.Segments {
			divs[i] = Divisions(s)
			// compare before adding; by-count divisions may be as large as an int
			if divs[i] > MaxNodesPerAxis-nodes {
				total := uint64(nodes) + uint64(divs[i])
				return Mesh{}, &model.Error{Kind: model.OutOfRange, Axis: a.Name, Field: model.FieldNodes,
					Value: strconv.FormatUint(total, 10), Limit: MaxNodesPerAxis}
			}
			nodes += divs[i]
		}

		coords := make([]float64, 0, nodes)
		for i, s := range a.Segments {
			seg := Coordinates(s, divs[i])
			if i > 0 {
				seg = seg[1:]
			}
			coords = append(coords, seg...)
		}
		out.Axes = append(out.Axes, Axis{Name: a.Name, Nodes: coords, Divisions: divs})
		out.Nodes *= nodes
		out.Elements *= nodes - 1
	}
	return out, nil
}

// Divisions is the number of elements the generator makes in s. In
// spacing mode it is derived from the spacing the way the generator does
// it, capped just above the per-axis node limit.
func Divisions(s validate.Segment) int {
	if s.Mode == model.ByCount {
		return s.Divisions
	}
	length := s.Length()
	var n float64
	switch s.Law {
	case model.Geometric:
		f := s.Factor
		if f < 1 {
			f = 1 / f
		}
		rest := length / s.Spacing
		for n = 0; rest > 0 && n <= MaxNodesPerAxis; n++ {
			rest -= math.Pow(f, n)
		}
	case model.LogExpanding, model.LogContracting:
		n = math.Ceil(-9 / (math.Pow(10, (length-s.Spacing)/length) - 10))
	default:
		n = math.Ceil(length / s.Spacing)
	}
	if n < 1 {
		n = 1
	}
	if n > MaxNodesPerAxis {
		return MaxNodesPerAxis
	}
	return int(n)
}

// Coordinates returns the n+1 node positions of s, both ends included.
func Coordinates(s validate.Segment, n int) []float64 {
	x := make([]float64, n+1)
	begin, end := s.Begin, s.End
	length := s.Length()

	switch s.Law {
	case model.Geometric:
		widths := make([]float64, n)
		w := 1.0
		for j := range widths {
			widths[j] = w
			w *= s.Factor
		}
		dx := length / floats.Sum(widths)
		x[0] = begin
		for i := 1; i <= n; i++ {
			x[i] = x[i-1] + dx
			dx *= s.Factor
		}
	case model.LogContracting:
		for i := 0; i <= n; i++ {
			x[i] = begin + math.Log10(1+9*float64(i)/float64(n))*length
		}
	case model.LogExpanding:
		for i := 0; i <= n; i++ {
			x[n-i] = end - math.Log10(1+9*float64(i)/float64(n))*length
		}
	default:
		floats.Span(x, begin, end)
	}
	x[0], x[n] = begin, end
	return x
}
