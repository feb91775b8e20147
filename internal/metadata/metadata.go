// Package metadata loads and persists a project's schema as a single JSON
// document and triggers script regeneration after every save.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fentz26/blockwright/internal/regen"
	"github.com/fentz26/blockwright/internal/schema"
)

// FileName is the metadata document inside a project directory.
const FileName = "blockwright.json"

// MetadataReadError reports a metadata file that exists but could not be
// read or parsed.
type MetadataReadError struct {
	Path string
	Err  error
}

func (e *MetadataReadError) Error() string {
	return fmt.Sprintf("read metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataReadError) Unwrap() error { return e.Err }

// MetadataWriteError reports a failed metadata write. Regeneration does not
// run after one.
type MetadataWriteError struct {
	Path string
	Err  error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("write metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

// Regenerator rebuilds generated scripts from a saved schema.
type Regenerator interface {
	Regenerate(meta schema.ProjectMeta) (*regen.Report, error)
}

// Store reads and writes one project's metadata document.
type Store struct {
	dir   string
	regen Regenerator
	log   *zap.Logger
}

// New creates a store for the project at projectDir. A nil regenerator
// skips regeneration on save.
func New(projectDir string, r Regenerator, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: projectDir, regen: r, log: log}
}

// Path returns the metadata file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Exists reports whether the metadata file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// ProjectName is derived from the project directory.
func (s *Store) ProjectName() string {
	abs, err := filepath.Abs(s.dir)
	if err != nil {
		return filepath.Base(s.dir)
	}
	return filepath.Base(abs)
}

// Load reads the metadata document. A missing file is replaced by a default
// document, which is persisted before returning. Any other failure is a
// MetadataReadError.
func (s *Store) Load() (schema.ProjectMeta, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			meta := schema.DefaultMeta(s.ProjectName())
			if err := s.write(meta); err != nil {
				return schema.ProjectMeta{}, err
			}
			s.log.Info("created project metadata", zap.String("path", path))
			return meta, nil
		}
		return schema.ProjectMeta{}, &MetadataReadError{Path: path, Err: err}
	}

	var doc struct {
		schema.ProjectMeta
		Env *schema.Env `json:"env"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return schema.ProjectMeta{}, &MetadataReadError{Path: path, Err: err}
	}

	meta := doc.ProjectMeta
	meta.Name = s.ProjectName()
	meta.Env = schema.DefaultEnv()
	if doc.Env != nil {
		meta.Env = *doc.Env
		if meta.Env.Timeout <= 0 {
			meta.Env.Timeout = schema.DefaultTimeout
		}
	}
	meta.Normalize()
	return meta, nil
}

// Save persists meta and then regenerates every suite's script. Nothing is
// regenerated when the write fails.
func (s *Store) Save(meta schema.ProjectMeta) error {
	meta = meta.Clone()
	meta.Name = s.ProjectName()
	meta.Normalize()

	if err := s.write(meta); err != nil {
		return err
	}
	s.log.Debug("metadata saved", zap.String("path", s.Path()), zap.Int("suites", len(meta.Suites)))

	if s.regen == nil {
		return nil
	}
	if _, err := s.regen.Regenerate(meta); err != nil {
		return fmt.Errorf("regenerate scripts: %w", err)
	}
	return nil
}

// write replaces the metadata file atomically.
func (s *Store) write(meta schema.ProjectMeta) error {
	path := s.Path()
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &MetadataWriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &MetadataWriteError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(s.dir, "."+FileName+".*")
	if err != nil {
		return &MetadataWriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &MetadataWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &MetadataWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &MetadataWriteError{Path: path, Err: err}
	}
	return nil
}
