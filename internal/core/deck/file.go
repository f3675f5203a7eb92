package deck

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mohammed-shakir/gridform/internal/core/model"
)

// WriteFile replaces path with data through a temp file in the same
// directory, so readers never see a partial file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	fail := func(err error) error {
		return &model.Error{Kind: model.IOFailure, Field: model.FieldFile, Value: path, Err: err}
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fail(err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fail(fmt.Errorf("rename: %w", err))
	}
	return nil
}
