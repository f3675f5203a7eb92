package draft_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/draft"
	"github.com/mohammed-shakir/gridform/internal/draft/memstore"
)

func newService(t *testing.T) *draft.Service {
	t.Helper()
	n := 0
	ids := func() string { n++; return "d" + string(rune('0'+n)) }
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return draft.NewService(memstore.New(16, time.Hour), nil, draft.WithIDs(ids), draft.WithClock(clock))
}

func TestService_CreateGetDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	d, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID != "d1" || d.Request.Dimensionality != 1 || d.Request.Format != model.AVS {
		t.Fatalf("draft=%+v", d)
	}
	got, err := s.Get(ctx, d.ID)
	if err != nil || got.Request.Axis(model.AxisX).Count() != 1 {
		t.Fatalf("Get: %+v %v", got, err)
	}
	if err := s.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, d.ID); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("after delete err=%v", err)
	}
	if err := s.Delete(ctx, d.ID); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("second delete err=%v", err)
	}
}

func TestService_UpdatePersists(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	d, _ := s.Create(ctx)

	_, err := s.Update(ctx, d.ID, func(r *model.MeshRequest) error {
		x := r.Axis(model.AxisX)
		if err := x.SetSegmentCount(3); err != nil {
			return err
		}
		return x.SetField(1, model.FieldStart, "5")
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get(ctx, d.ID)
	x := got.Request.Axis(model.AxisX)
	if x.Count() != 3 || x.Segments[1].Start != "5" {
		t.Fatalf("stored axis=%+v", x)
	}
}

func TestService_FailedUpdateLeavesDraftUnchanged(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	d, _ := s.Create(ctx)

	_, err := s.Update(ctx, d.ID, func(r *model.MeshRequest) error {
		r.BaseName = "half-applied"
		return r.Axis(model.AxisY).SetSegmentCount(101)
	})
	if !errors.Is(err, model.ErrOutOfRange) {
		t.Fatalf("err=%v want OutOfRange", err)
	}
	got, _ := s.Get(ctx, d.ID)
	if got.Request.BaseName != "" || got.Request.Axis(model.AxisY).Count() != 1 {
		t.Fatalf("draft mutated: %+v", got.Request)
	}
}

func TestService_Reset(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	d, _ := s.Create(ctx)
	_, _ = s.Update(ctx, d.ID, func(r *model.MeshRequest) error {
		r.BaseName = "run"
		return r.SetDimensionality(3)
	})

	got, err := s.Reset(ctx, d.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got.Request.Dimensionality != 1 || got.Request.BaseName != "" {
		t.Fatalf("after reset=%+v", got.Request)
	}
}

func TestService_UnknownDraft(t *testing.T) {
	s := newService(t)
	_, err := s.Update(context.Background(), "missing", func(*model.MeshRequest) error { return nil })
	if !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestMemstore_ExpiresAndCopies(t *testing.T) {
	st := memstore.New(4, 20*time.Millisecond)
	ctx := context.Background()
	d := draft.Draft{ID: "a", Request: model.NewMeshRequest()}
	if err := st.Put(ctx, d); err != nil {
		t.Fatal(err)
	}

	d.Request.BaseName = "changed after put"
	got, err := st.Get(ctx, "a")
	if err != nil || got.Request.BaseName != "" {
		t.Fatalf("store shares memory: %+v %v", got.Request, err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := st.Get(ctx, "a"); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("expired draft still present: %v", err)
	}
}

func TestEncodeDecode_KeepsRawText(t *testing.T) {
	r := model.NewMeshRequest()
	x := r.Axis(model.AxisX)
	x.Segments[0] = model.Segment{Start: " 0.0 ", Mode: model.BySpacing, Spacing: "abc", Law: model.Geometric, Factor: ""}
	x.End = "1e3"
	r.Format = model.Vector

	b, err := draft.Encode(draft.Draft{ID: "x", Request: r})
	if err != nil {
		t.Fatal(err)
	}
	got, err := draft.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	gx := got.Request.Axis(model.AxisX)
	if gx.Segments[0] != x.Segments[0] || gx.End != "1e3" || got.Request.Format != model.Vector {
		t.Fatalf("decoded=%+v", got.Request)
	}
}
