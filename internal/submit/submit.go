// Package submit is the submit action of the form: check the request,
// write the deck and its companion files, and optionally run the tools.
package submit

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mohammed-shakir/gridform/internal/core/deck"
	"github.com/mohammed-shakir/gridform/internal/core/launch"
	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/observability"
	"github.com/mohammed-shakir/gridform/internal/core/preview"
	"github.com/mohammed-shakir/gridform/internal/core/validate"
	mylog "github.com/mohammed-shakir/gridform/internal/logger"
	"github.com/mohammed-shakir/gridform/internal/runevents"
)

const StatusLaunched = "Gridder run successful."

type Config struct {
	WorkDir  string
	Binaries launch.Binaries
	Shell    launch.Shell
	Launch   bool
}

type Submitter struct {
	cfg    Config
	runner *launch.Runner
	events runevents.Sink
	log    *slog.Logger
}

func New(cfg Config, runner *launch.Runner, events runevents.Sink, logger *slog.Logger) *Submitter {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = launch.NewRunner(nil, logger)
	}
	if events == nil {
		events = runevents.Discard{}
	}
	return &Submitter{cfg: cfg, runner: runner, events: events, log: logger}
}

// Result describes a successful submission. Files are relative to the
// work dir.
type Result struct {
	Status        string        `json:"status"`
	Summary       string        `json:"summary"`
	Digest        string        `json:"digest"`
	Files         []string      `json:"files"`
	Launched      bool          `json:"launched"`
	Output        string        `json:"output,omitempty"`
	Converted     bool          `json:"converted"`
	ViewerStarted bool          `json:"viewer_started"`
	Plan          string        `json:"plan"`
	Names         deck.Files    `json:"-"`
	Mesh          *preview.Mesh `json:"-"`
}

// Submit runs the whole submit action for req. draftID only labels logs
// and events and may be empty. Every outcome is counted and published.
func (s *Submitter) Submit(ctx context.Context, draftID string, req *model.MeshRequest) (Result, error) {
	ctx = mylog.WithComponent(mylog.WithDraftID(ctx, draftID), "submit")
	ev := runevents.Event{
		DraftID:        draftID,
		BaseName:       req.BaseName,
		Format:         req.Format.String(),
		Dimensionality: req.Dimensionality,
	}

	res, err := s.submit(ctx, req)
	ev.Digest = res.Digest
	ev.Outcome = outcome(err)
	if err != nil {
		ev.Message = err.Error()
		kind := ""
		if ev.Outcome == runevents.OutcomeInvalid {
			kind = string(model.KindOf(err))
		}
		observability.ObserveSubmission(ev.Outcome, kind)
		s.events.Publish(ev)
		s.log.WarnContext(ctx, "submission failed", "outcome", ev.Outcome, "err", err)
		return res, err
	}
	ev.Message = res.Status
	observability.ObserveSubmission(ev.Outcome, "")
	s.events.Publish(ev)
	s.log.InfoContext(ctx, "submission done", "base", req.BaseName, "digest", res.Digest, "launched", res.Launched)
	return res, nil
}

func (s *Submitter) submit(ctx context.Context, req *model.MeshRequest) (Result, error) {
	m, err := validate.Request(req)
	if err != nil {
		return Result{}, err
	}
	mesh, err := preview.Build(m)
	if err != nil {
		return Result{}, err
	}
	body, err := deck.Marshal(req)
	if err != nil {
		return Result{}, err
	}

	files := deck.FilesFor(m.BaseName, m.Format, m.Dimensionality, s.cfg.Shell == launch.Batch)
	plan := launch.NewPlan(s.cfg.WorkDir, s.cfg.Binaries, files, m.Format, req.View, s.cfg.Shell)
	res := Result{
		Summary: preview.Summary(req),
		Digest:  deck.Digest(body),
		Plan:    plan.String(),
		Names:   files,
		Mesh:    &mesh,
	}

	if err := s.write(files.Deck, body, 0o644); err != nil {
		return res, err
	}
	res.Files = append(res.Files, files.Deck)
	if plan.Convert != nil {
		if err := s.write(files.Converter, deck.Converter(files), 0o644); err != nil {
			return res, err
		}
		res.Files = append(res.Files, files.Converter)
	}
	if err := s.write(files.Script, launch.Script(plan, s.cfg.Shell), 0o755); err != nil {
		return res, err
	}
	res.Files = append(res.Files, files.Script)

	if !s.cfg.Launch {
		res.Status = "Wrote " + files.Deck + "."
		return res, nil
	}
	rep, err := s.runner.Run(ctx, plan)
	res.Launched = true
	res.Output = rep.Output
	res.Converted = rep.Converted
	res.ViewerStarted = rep.ViewerStarted
	if rep.Output != "" {
		res.Files = append(res.Files, rep.Output)
	}
	if err != nil {
		return res, err
	}
	res.Status = StatusLaunched
	return res, nil
}

func (s *Submitter) write(name string, data []byte, perm os.FileMode) error {
	return deck.WriteFile(filepath.Join(s.cfg.WorkDir, name), data, perm)
}

func outcome(err error) string {
	var me *model.Error
	switch {
	case err == nil:
		return runevents.OutcomeOK
	case !errors.As(err, &me):
		return runevents.OutcomeIOFailure
	case me.Kind == model.ExternalProcessFailure:
		return runevents.OutcomeProcessFailure
	case me.Kind == model.IOFailure:
		return runevents.OutcomeIOFailure
	default:
		return runevents.OutcomeInvalid
	}
}
