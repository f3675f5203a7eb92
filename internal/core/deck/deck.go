// Package deck serializes a checked mesh request into the generator's
// plain text input deck and the auxiliary files around it.
package deck

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/validate"
)

// Fixed names used by the external tools.
const (
	GeneratorOutput = "grid.inp"
	GeneratorEcho   = "input.tmp"
	ConverterLog    = "outx3dgen"
)

// Encode writes the deck for r. The request is checked first; values are
// written as typed, trimmed of surrounding space.
func Encode(w io.Writer, r *model.MeshRequest) error {
	m, err := validate.Geometry(r)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d ", m.Dimensionality)
	for _, a := range r.ActiveAxes() {
		writeAxis(bw, a)
	}
	fmt.Fprintf(bw, "%d\n", m.Format.Code())
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	return nil
}

// Marshal returns the deck bytes for r.
func Marshal(r *model.MeshRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAxis(w *bufio.Writer, a *model.Axis) {
	n := a.Count()
	fmt.Fprintf(w, "%d %s\n", n, tok(a.Segments[0].Start))
	for i, s := range a.Segments {
		boundary := a.End
		if i+1 < n {
			boundary = a.Segments[i+1].Start
		}
		w.WriteString(tok(boundary) + "\n")
		if s.Mode == model.BySpacing {
			w.WriteString("0 " + tok(s.Spacing) + "\n")
		} else {
			w.WriteString(tok(s.Divisions) + "\n")
		}
		fmt.Fprintf(w, "%d\n", s.Law.Code())
		if s.Law == model.Geometric {
			w.WriteString(tok(s.Factor) + "\n")
		}
	}
}

func tok(s string) string { return strings.TrimSpace(s) }

// Digest fingerprints deck bytes for logs and run events.
func Digest(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// Extension is the suffix the generator output is renamed to.
func Extension(f model.OutputFormat, dim int) string {
	switch f {
	case model.Tracer3D:
		return ".tracer3d"
	case model.Vector:
		switch dim {
		case 1:
			return ".x"
		case 2:
			return ".xy"
		default:
			return ".xyz"
		}
	case model.FEHM:
		return ".fehm"
	default:
		return ".inp"
	}
}

// Files are the per-submission file names, relative to the work dir.
type Files struct {
	Deck      string
	Output    string
	Converter string
	Viewer    string
	Script    string
}

func FilesFor(base string, f model.OutputFormat, dim int, batch bool) Files {
	script := base + ".sh"
	if batch {
		script = base + ".bat"
	}
	return Files{
		Deck:      base + ".gridder_input",
		Output:    base + Extension(f, dim),
		Converter: base + ".lagrit",
		Viewer:    base + ".gmv",
		Script:    script,
	}
}

// Converter returns the command file that turns the AVS output into a
// viewer file.
func Converter(files Files) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "read / avs / %s / mo\n", files.Output)
	fmt.Fprintf(&b, "dump / gmv / %s / mo\n", files.Viewer)
	b.WriteString("finish\n")
	return b.Bytes()
}
