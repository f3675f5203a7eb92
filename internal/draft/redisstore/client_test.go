package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/gridform/internal/core/model"
	"github.com/mohammed-shakir/gridform/internal/draft"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr(), ttl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestPutGetDelete(t *testing.T) {
	rc, mr := newMini(t, time.Hour)
	ctx := context.Background()

	r := model.NewMeshRequest()
	r.BaseName = "run"
	r.Axis(model.AxisX).End = "10"
	if err := rc.Put(ctx, draft.Draft{ID: "abc", Request: r}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !mr.Exists("gridform:draft:abc") {
		t.Fatalf("key not written; keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("gridform:draft:abc"); ttl != time.Hour {
		t.Fatalf("ttl=%v want 1h", ttl)
	}

	got, err := rc.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Request.BaseName != "run" || got.Request.Axis(model.AxisX).End != "10" {
		t.Fatalf("got=%+v", got.Request)
	}

	if err := rc.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := rc.Get(ctx, "abc"); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("after delete err=%v", err)
	}
}

func TestExpiry(t *testing.T) {
	rc, mr := newMini(t, time.Minute)
	ctx := context.Background()
	if err := rc.Put(ctx, draft.Draft{ID: "a", Request: model.NewMeshRequest()}); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := rc.Get(ctx, "a"); !errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestCorruptValueIsAnError(t *testing.T) {
	rc, mr := newMini(t, 0)
	if err := mr.Set(Key("bad"), "{not json"); err != nil {
		t.Fatal(err)
	}
	_, err := rc.Get(context.Background(), "bad")
	if err == nil || errors.Is(err, draft.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestContextCanceled_IsRespected(t *testing.T) {
	rc, _ := newMini(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Put(ctx, draft.Draft{ID: "k", Request: model.NewMeshRequest()}); err == nil {
		t.Fatal("expected error on Put with canceled context")
	}
	if _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatal("expected error on Get with canceled context")
	}
}

func TestNew_FailsWithoutServer(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, addr, 0, WithDialTimeout(100*time.Millisecond)); err == nil {
		t.Fatal("expected ping failure")
	}
	if _, err := New(ctx, "", 0); err == nil {
		t.Fatal("expected error for empty address")
	}
}
