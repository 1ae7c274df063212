package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmehdipour/rate-table-editor/internal/model"
)

// FileStore writes one pretty-printed JSON file per environment under Dir,
// replacing it on every save.
type FileStore struct {
	Dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{Dir: dir}
}

// Path is the file used for env, e.g. rate_tables.uat.json.
func (s *FileStore) Path(env model.Environment) string {
	return filepath.Join(s.Dir, fmt.Sprintf("rate_tables.%s.json", env))
}

func (s *FileStore) Save(_ context.Context, env model.Environment, series []model.RateTableSeries) error {
	if series == nil {
		series = []model.RateTableSeries{}
	}

	b, err := json.MarshalIndent(series, "", "    ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	path := s.Path(env)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace cache: %w", err)
	}

	return nil
}

func (s *FileStore) Load(_ context.Context, env model.Environment) ([]model.RateTableSeries, error) {
	b, err := os.ReadFile(s.Path(env))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var out []model.RateTableSeries
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", s.Path(env), err)
	}
	return out, nil
}
