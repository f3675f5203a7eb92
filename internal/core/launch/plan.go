// Package launch builds and runs the external tool pipeline for a submitted
// deck: generator, optional converter, optional viewer.
package launch

import (
	"fmt"

	"github.com/mohammed-shakir/gridform/internal/core/deck"
	"github.com/mohammed-shakir/gridform/internal/core/model"
)

// Command is one process invocation. Stdin names a file in the work dir
// that is fed to the process.
type Command struct {
	Tool  string
	Path  string
	Args  []string
	Stdin string
}

type Binaries struct {
	Generator string
	Converter string
	Viewer    string
}

// DefaultBinaries names the tools the way they are shipped per platform.
func DefaultBinaries(goos string) Binaries {
	if goos == "windows" {
		return Binaries{Generator: "gridder.exe", Converter: "lagrit.exe", Viewer: "gmv.exe"}
	}
	suffix := ""
	switch goos {
	case "darwin":
		suffix = "_maci"
	case "linux":
		suffix = "_linux"
	case "solaris", "illumos":
		suffix = "_sun"
	}
	return Binaries{
		Generator: "gridder" + suffix,
		Converter: "lagrit" + suffix,
		Viewer:    "gmv" + suffix,
	}
}

// Plan is the ordered pipeline for one submission. All names are relative
// to Dir.
type Plan struct {
	Dir       string
	Files     deck.Files
	Generate  Command
	Rename    [2]string
	Transient []string
	Convert   *Command
	View      *Command
}

// NewPlan lays out the pipeline. The converter and viewer only run for AVS
// output, which is the only format the converter reads, and only under a
// POSIX shell; LaGriT and GMV are not shipped for Windows.
func NewPlan(dir string, bins Binaries, files deck.Files, f model.OutputFormat, view bool, sh Shell) Plan {
	p := Plan{
		Dir:   dir,
		Files: files,
		Generate: Command{
			Tool:  "gridder",
			Path:  bins.Generator,
			Stdin: files.Deck,
		},
		Rename:    [2]string{deck.GeneratorOutput, files.Output},
		Transient: []string{deck.GeneratorEcho},
	}
	if view && f == model.AVS && sh == POSIX {
		p.Convert = &Command{Tool: "LaGriT", Path: bins.Converter, Stdin: files.Converter}
		p.View = &Command{Tool: "GMV", Path: bins.Viewer, Args: []string{"-i", files.Viewer}}
	}
	return p
}

func (c Command) String() string {
	s := c.Path
	for _, a := range c.Args {
		s += " " + a
	}
	if c.Stdin != "" {
		s += " < " + c.Stdin
	}
	return s
}

func (p Plan) String() string {
	s := fmt.Sprintf("%s; mv %s %s", p.Generate, p.Rename[0], p.Rename[1])
	if p.Convert != nil {
		s += "; " + p.Convert.String()
	}
	if p.View != nil {
		s += "; " + p.View.String() + " &"
	}
	return s
}
