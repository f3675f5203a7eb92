// Package router maps the draft HTTP API onto the draft service and the
// submit action.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/core/preview"
	"github.com/mohammed-shakir/gridform/internal/core/validate"
	"github.com/mohammed-shakir/gridform/internal/draft"
	mylog "github.com/mohammed-shakir/gridform/internal/logger"
	"github.com/mohammed-shakir/gridform/internal/submit"
)

const maxBody = 64 << 10

// Submitter is the submit action as the router needs it.
type Submitter interface {
	Submit(ctx context.Context, draftID string, req *model.MeshRequest) (submit.Result, error)
}

type Handler struct {
	drafts *draft.Service
	submit Submitter
	log    *slog.Logger
}

func New(drafts *draft.Service, s Submitter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{drafts: drafts, submit: s, log: logger}
}

// Routes mounts the draft API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/drafts", h.create)
	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.remove)
		r.Post("/reset", h.reset)
		r.Put("/dimensionality", h.setDimensionality)
		r.Put("/output", h.setOutput)
		r.Put("/axes/{axis}/count", h.setCount)
		r.Put("/axes/{axis}/end", h.setEnd)
		r.Patch("/axes/{axis}/segments/{n}", h.setSegmentField)
		r.Get("/preview", h.preview)
		r.Post("/submit", h.submitDraft)
	})
}

type draftView struct {
	ID        string             `json:"id"`
	Request   *model.MeshRequest `json:"request"`
	Summary   string             `json:"summary"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func view(d draft.Draft) draftView {
	return draftView{ID: d.ID, Request: d.Request, Summary: preview.Summary(d.Request), UpdatedAt: d.UpdatedAt}
}

type errorBody struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

var errBadRequest = errors.New("bad request")

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Create(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view(d))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(d))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(d))
}

func (h *Handler) setDimensionality(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Dimensionality int `json:"dimensionality"`
	}
	h.edit(w, r, &body, func(req *model.MeshRequest) error {
		return req.SetDimensionality(body.Dimensionality)
	})
}

func (h *Handler) setOutput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Format   *string `json:"format"`
		BaseName *string `json:"base_name"`
		View     *bool   `json:"view"`
	}
	h.edit(w, r, &body, func(req *model.MeshRequest) error {
		if body.Format != nil {
			f, err := model.ParseOutputFormat(*body.Format)
			if err != nil {
				return err
			}
			req.Format = f
		}
		if body.BaseName != nil {
			req.BaseName = *body.BaseName
		}
		if body.View != nil {
			req.View = *body.View
		}
		return nil
	})
}

func (h *Handler) setCount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	h.editAxis(w, r, &body, func(a *model.Axis) error {
		return a.SetSegmentCount(body.Count)
	})
}

func (h *Handler) setEnd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"value"`
	}
	h.editAxis(w, r, &body, func(a *model.Axis) error {
		a.SetEnd(body.Value)
		return nil
	})
}

func (h *Handler) setSegmentField(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: segment number %q", errBadRequest, chi.URLParam(r, "n")))
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	h.editAxis(w, r, &body, func(a *model.Axis) error {
		f, err := model.ParseField(body.Field)
		if err != nil {
			return err
		}
		return a.SetField(n-1, f, body.Value)
	})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := validate.Geometry(d.Request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	mesh, err := preview.Build(m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Summary string       `json:"summary"`
		Mesh    preview.Mesh `json:"mesh"`
	}{preview.Summary(d.Request), mesh})
}

func (h *Handler) submitDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.drafts.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.submit.Submit(r.Context(), id, d.Request)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// edit decodes the body into dst and applies fn to the draft.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, dst any, fn func(*model.MeshRequest) error) {
	if err := decode(r, dst); err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	d, err := h.drafts.Update(mylog.WithDraftID(r.Context(), id), id, fn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(d))
}

func (h *Handler) editAxis(w http.ResponseWriter, r *http.Request, dst any, fn func(*model.Axis) error) {
	name, err := model.ParseAxis(chi.URLParam(r, "axis"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.edit(w, r, dst, func(req *model.MeshRequest) error {
		return fn(req.Axis(name))
	})
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, body := classify(err)
	if code >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "err", err)
	}
	writeJSON(w, code, body)
}

func classify(err error) (int, errorBody) {
	body := errorBody{Status: "error", Message: err.Error()}
	var me *model.Error
	switch {
	case errors.Is(err, draft.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, body
	case errors.As(err, &me):
		body.Kind = string(me.Kind)
		if me.Kind.Validation() {
			return http.StatusUnprocessableEntity, body
		}
		return http.StatusInternalServerError, body
	}
	return http.StatusInternalServerError, body
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
