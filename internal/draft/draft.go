// Package draft keeps the form state of mesh requests between edits. A
// draft is the server side stand-in for the open form window.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammed-shakir/gridform/internal/core/model"
)

var ErrNotFound = errors.New("draft not found")

type Draft struct {
	ID        string             `json:"id"`
	Request   *model.MeshRequest `json:"request"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store persists drafts. Implementations must return ErrNotFound for
// unknown or expired ids and must not share memory with callers.
type Store interface {
	Get(ctx context.Context, id string) (Draft, error)
	Put(ctx context.Context, d Draft) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func Encode(d Draft) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode draft %s: %w", d.ID, err)
	}
	return b, nil
}

func Decode(b []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	if d.Request == nil {
		d.Request = model.NewMeshRequest()
	}
	return d, nil
}
