// Package requestfile reads and writes mesh requests as YAML documents for
// the command line tool.
package requestfile

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/mohammed-shakir/gridform/internal/core/model"
)

// Values stay strings so the text reaches the validator as written.
type segmentDoc struct {
	Start     string `yaml:"start"`
	Mode      string `yaml:"mode,omitempty"`
	Divisions string `yaml:"divisions,omitempty"`
	Spacing   string `yaml:"spacing,omitempty"`
	Law       string `yaml:"law,omitempty"`
	Factor    string `yaml:"factor,omitempty"`
}

type axisDoc struct {
	Segments []segmentDoc `yaml:"segments"`
	End      string       `yaml:"end"`
}

type document struct {
	Dimensionality int                `yaml:"dimensionality"`
	Format         string             `yaml:"format,omitempty"`
	BaseName       string             `yaml:"base_name"`
	View           bool               `yaml:"view,omitempty"`
	Axes           map[string]axisDoc `yaml:"axes"`
}

// ErrDuplicateAxis reports two keys under axes naming the same axis, such as
// "x" and "X".
var ErrDuplicateAxis = errors.New("axis given more than once")

func LoadFile(path string) (*model.MeshRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a request document. Selector values (mode, law, format,
// axis names) are resolved here; numbers are left for the validator.
func Load(r io.Reader) (*model.MeshRequest, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	var doc document
	if err := yaml.UnmarshalStrict(b, &doc); err != nil {
		return nil, fmt.Errorf("parse request file: %w", err)
	}

	req := model.NewMeshRequest()
	if doc.Dimensionality != 0 {
		if err := req.SetDimensionality(doc.Dimensionality); err != nil {
			return nil, err
		}
	}
	if doc.Format != "" {
		f, err := model.ParseOutputFormat(doc.Format)
		if err != nil {
			return nil, err
		}
		req.Format = f
	}
	req.BaseName = doc.BaseName
	req.View = doc.View

	seen := map[model.AxisName]string{}
	for _, key := range slices.Sorted(maps.Keys(doc.Axes)) {
		ad := doc.Axes[key]
		name, err := model.ParseAxis(key)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("parse request file: %w: %q and %q", ErrDuplicateAxis, prev, key)
		}
		seen[name] = key
		a := req.Axis(name)
		if len(ad.Segments) > 0 {
			if err := a.SetSegmentCount(len(ad.Segments)); err != nil {
				return nil, err
			}
		}
		for i, sd := range ad.Segments {
			if err := applySegment(a, i, sd); err != nil {
				return nil, err
			}
		}
		a.SetEnd(ad.End)
	}
	return req, nil
}

type fieldValue struct {
	field model.Field
	value string
}

func applySegment(a *model.Axis, i int, sd segmentDoc) error {
	set := []fieldValue{
		{model.FieldStart, sd.Start},
		{model.FieldDivisions, sd.Divisions},
		{model.FieldSpacing, sd.Spacing},
		{model.FieldFactor, sd.Factor},
	}
	// omitted selectors keep the segment defaults
	if sd.Mode != "" {
		set = append(set, fieldValue{model.FieldMode, sd.Mode})
	}
	if sd.Law != "" {
		set = append(set, fieldValue{model.FieldLaw, sd.Law})
	}
	for _, fv := range set {
		if err := a.SetField(i, fv.field, fv.value); err != nil {
			return err
		}
	}
	return nil
}

// Marshal writes req as a request document. Only active axes are written.
func Marshal(req *model.MeshRequest) ([]byte, error) {
	doc := document{
		Dimensionality: req.Dimensionality,
		Format:         req.Format.String(),
		BaseName:       req.BaseName,
		View:           req.View,
		Axes:           map[string]axisDoc{},
	}
	for _, a := range req.ActiveAxes() {
		ad := axisDoc{End: a.End}
		for _, s := range a.Segments {
			ad.Segments = append(ad.Segments, segmentDoc{
				Start:     s.Start,
				Mode:      s.Mode.String(),
				Divisions: s.Divisions,
				Spacing:   s.Spacing,
				Law:       s.Law.String(),
				Factor:    s.Factor,
			})
		}
		doc.Axes[strings.ToUpper(string(a.Name))] = ad
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode request file: %w", err)
	}
	return b, nil
}
