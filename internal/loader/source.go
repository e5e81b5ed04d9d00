// Package loader provides the model sources that feed the reference index.
package loader

import (
	"bytes"
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"bimsight/internal/codec"
	"bimsight/internal/domain"
)

// Source delivers the raw records of a reference model
type Source interface {
	Load(ctx context.Context) ([]domain.SourceRecord, error)
	Name() string
}

// FileSource reads a JSON or YAML model document, chosen by file extension
type FileSource struct {
	Path string
}

// NewFileSource creates a source for a model document on disk
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.Path
}

// Load reads and decodes the document
func (s *FileSource) Load(ctx context.Context) ([]domain.SourceRecord, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Records(), nil
}

// Document reads and decodes the document without flattening it
func (s *FileSource) Document(ctx context.Context) (*codec.ModelDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := codec.ForPath(s.Path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read model %s", s.Path)
	}

	doc, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse model %s", s.Path)
	}
	return doc, nil
}

// FallbackSource loads Primary, switching to Fallback only when the primary file does not exist
type FallbackSource struct {
	Primary  Source
	Fallback Source

	// OnFallback, if set, is called with the primary error before the fallback is used
	OnFallback func(err error)
}

// Name returns the primary source name
func (s *FallbackSource) Name() string {
	return s.Primary.Name()
}

// Load tries the primary source, then the fallback when the primary is missing
func (s *FallbackSource) Load(ctx context.Context) ([]domain.SourceRecord, error) {
	records, err := s.Primary.Load(ctx)
	if err == nil {
		return records, nil
	}
	if !errors.Is(err, os.ErrNotExist) || s.Fallback == nil {
		return nil, err
	}
	if s.OnFallback != nil {
		s.OnFallback(err)
	}

	records, fbErr := s.Fallback.Load(ctx)
	if fbErr != nil {
		return nil, multierr.Combine(err, fbErr)
	}
	return records, nil
}

// New returns the source for a configured model path: the simulated model when the path
// is empty, otherwise the file with the simulated model as fallback when it is missing
func New(path string, onFallback func(error)) Source {
	if path == "" {
		return NewDefaultSource()
	}
	return &FallbackSource{
		Primary:    NewFileSource(path),
		Fallback:   NewDefaultSource(),
		OnFallback: onFallback,
	}
}
