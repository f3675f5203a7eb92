package requestfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mohammed-shakir/gridform/internal/core/deck"
	"github.com/mohammed-shakir/gridform/internal/core/model"
)

const twoAxes = `
dimensionality: 2
format: fehm
base_name: run1
view: true
axes:
  X:
    end: "10"
    segments:
      - start: "0"
        divisions: "5"
      - start: "5"
        mode: spacing
        spacing: "0.5"
        law: geometric
        factor: "1.2"
  y:
    end: "1"
    segments:
      - start: "-1"
        divisions: "3"
        law: "4"
`

func TestLoad_BuildsRequest(t *testing.T) {
	req, err := Load(strings.NewReader(twoAxes))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if req.Dimensionality != 2 || req.Format != model.FEHM || req.BaseName != "run1" || !req.View {
		t.Fatalf("request=%s view=%v", req, req.View)
	}
	x := req.Axis(model.AxisX)
	if x.Count() != 2 || x.Segments[1].Mode != model.BySpacing || x.Segments[1].Law != model.Geometric {
		t.Fatalf("x=%+v", x)
	}
	if x.Segments[0].Law != model.Linear || x.Segments[0].Mode != model.ByCount {
		t.Fatalf("defaults not kept: %+v", x.Segments[0])
	}
	if y := req.Axis(model.AxisY); y.Segments[0].Law != model.LogContracting || y.End != "1" {
		t.Fatalf("y=%+v", y)
	}

	got, err := deck.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "2 2 0\n5\n5\n1\n10\n0 0.5\n2\n1.2\n1 -1\n1\n3\n4\n4\n"
	if string(got) != want {
		t.Fatalf("deck=%q want %q", got, want)
	}
}

func TestLoad_KeepsBadValuesForValidator(t *testing.T) {
	req, err := Load(strings.NewReader(`
base_name: r
axes:
  X:
    end: "ten"
    segments:
      - start: "0"
        divisions: ""
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if req.Axis(model.AxisX).End != "ten" {
		t.Fatalf("end=%q", req.Axis(model.AxisX).End)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		kind model.Kind
	}{
		{"unknown law", "axes:\n  X:\n    segments:\n      - start: \"0\"\n        law: cubic\n", model.UnknownChoice},
		{"unknown axis", "axes:\n  W:\n    end: \"1\"\n", model.UnknownChoice},
		{"bad format", "format: vtk\n", model.UnknownChoice},
		{"bad dimensionality", "dimensionality: 4\n", model.OutOfRange},
	}
	for _, tc := range cases {
		_, err := Load(strings.NewReader(tc.doc))
		if model.KindOf(err) != tc.kind {
			t.Errorf("%s: err=%v want kind %s", tc.name, err, tc.kind)
		}
	}

	var me *model.Error
	if _, err := Load(strings.NewReader("colour: red\n")); err == nil || errors.As(err, &me) {
		t.Fatalf("unknown key should be a parse error, got %v", err)
	}
}

func TestLoad_RejectsAxisGivenTwice(t *testing.T) {
	doc := `
axes:
  x:
    end: "1"
  X:
    end: "2"
`
	for range 5 {
		_, err := Load(strings.NewReader(doc))
		if !errors.Is(err, ErrDuplicateAxis) {
			t.Fatalf("err=%v", err)
		}
		if err.Error() != `parse request file: axis given more than once: "X" and "x"` {
			t.Fatalf("message=%q", err.Error())
		}
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	req, err := Load(strings.NewReader(twoAxes))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Load(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Load(Marshal): %v\n%s", err, b)
	}
	d1, _ := deck.Marshal(req)
	d2, _ := deck.Marshal(again)
	if !bytes.Equal(d1, d2) {
		t.Fatalf("decks differ:\n%q\n%q", d1, d2)
	}
}
