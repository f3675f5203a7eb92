package launch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohammed-shakir/gridform/internal/core/deck"
	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/observability"
)

// Executor runs processes. Run waits; Start leaves the process running.
type Executor interface {
	Run(ctx context.Context, dir string, c Command) error
	Start(dir string, c Command) error
}

type OSExecutor struct{}

var _ Executor = OSExecutor{}

func (OSExecutor) Run(ctx context.Context, dir string, c Command) error {
	cmd := exec.CommandContext(ctx, resolve(dir, c.Path), c.Args...)
	cmd.Dir = dir
	if c.Stdin != "" {
		f, err := os.Open(filepath.Join(dir, c.Stdin))
		if err != nil {
			return fmt.Errorf("open stdin: %w", err)
		}
		defer f.Close()
		cmd.Stdin = f
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if t := tail(out.String(), 512); t != "" {
			return fmt.Errorf("%w: %s", err, t)
		}
		return err
	}
	return nil
}

func (OSExecutor) Start(dir string, c Command) error {
	cmd := exec.Command(resolve(dir, c.Path), c.Args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return err
	}
	// reap only; the viewer's lifetime is the user's business
	go func() { _ = cmd.Wait() }()
	return nil
}

// resolve prefers a tool shipped next to the work files over PATH.
func resolve(dir, path string) string {
	if strings.ContainsRune(path, os.PathSeparator) || strings.ContainsRune(path, '/') {
		return path
	}
	local := filepath.Join(dir, path)
	if st, err := os.Stat(local); err == nil && !st.IsDir() {
		if abs, err := filepath.Abs(local); err == nil {
			return abs
		}
	}
	return path
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}

type Report struct {
	Output        string
	Converted     bool
	ViewerStarted bool
}

type Runner struct {
	exec Executor
	log  *slog.Logger
}

func NewRunner(e Executor, logger *slog.Logger) *Runner {
	if e == nil {
		e = OSExecutor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{exec: e, log: logger}
}

// Run executes the plan in order and stops at the first failing step.
func (r *Runner) Run(ctx context.Context, p Plan) (Report, error) {
	rep := Report{}

	if err := r.run(ctx, p.Dir, p.Generate); err != nil {
		return rep, err
	}
	from, to := filepath.Join(p.Dir, p.Rename[0]), filepath.Join(p.Dir, p.Rename[1])
	if err := os.Rename(from, to); err != nil {
		return rep, &model.Error{Kind: model.ExternalProcessFailure, Field: model.FieldTool, Value: p.Generate.Tool,
			Err: fmt.Errorf("collect %s: %w", p.Rename[0], err)}
	}
	rep.Output = p.Rename[1]
	for _, t := range p.Transient {
		if err := os.Remove(filepath.Join(p.Dir, t)); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("remove transient file", "file", t, "err", err)
		}
	}

	if p.Convert == nil {
		return rep, nil
	}
	if err := r.run(ctx, p.Dir, *p.Convert); err != nil {
		return rep, err
	}
	ok, err := converterSucceeded(filepath.Join(p.Dir, deck.ConverterLog))
	if err != nil || !ok {
		if err == nil {
			err = errors.New("no completion message in " + deck.ConverterLog)
		}
		return rep, &model.Error{Kind: model.ExternalProcessFailure, Field: model.FieldTool, Value: p.Convert.Tool, Err: err}
	}
	rep.Converted = true
	if err := os.Remove(filepath.Join(p.Dir, p.Convert.Stdin)); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn("remove converter input", "file", p.Convert.Stdin, "err", err)
	}

	if p.View != nil {
		start := time.Now()
		err := r.exec.Start(p.Dir, *p.View)
		observability.ObserveExternalProcess(p.View.Tool, err, time.Since(start).Seconds())
		if err != nil {
			return rep, &model.Error{Kind: model.ExternalProcessFailure, Field: model.FieldTool, Value: p.View.Tool, Err: err}
		}
		rep.ViewerStarted = true
	}
	return rep, nil
}

func (r *Runner) run(ctx context.Context, dir string, c Command) error {
	start := time.Now()
	r.log.Debug("running tool", "tool", c.Tool, "cmd", c.String())
	err := r.exec.Run(ctx, dir, c)
	observability.ObserveExternalProcess(c.Tool, err, time.Since(start).Seconds())
	if err != nil {
		return &model.Error{Kind: model.ExternalProcessFailure, Field: model.FieldTool, Value: c.Tool, Err: err}
	}
	return nil
}

func converterSucceeded(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open converter log: %w", err)
	}
	defer f.Close()
	return ConverterSucceeded(f)
}

// ConverterSucceeded scans whitespace separated tokens for "LaGriT",
// "successfully" and "completed" appearing in that order.
func ConverterSucceeded(r io.Reader) (bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	want := []string{"LaGriT", "successfully", "completed"}
	next := 0
	for sc.Scan() {
		if sc.Text() == want[next] {
			next++
			if next == len(want) {
				return true, nil
			}
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("scan converter log: %w", err)
	}
	return false, nil
}
