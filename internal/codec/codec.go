// Package codec reads and writes reference model documents and recorded detection frames.
package codec

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Importer interface for importing model documents from various formats
type Importer interface {
	Parse(r io.Reader) (*ModelDocument, error)
	Format() string
}

// Exporter interface for exporting model documents to various formats
type Exporter interface {
	Export(doc *ModelDocument, w io.Writer) error
	Format() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ErrUnknownFormat is returned for formats no codec handles
var ErrUnknownFormat = errors.New("unknown model format")

// ForFormat returns the codec for a format name ("json", "yaml", "yml")
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// ForPath returns the codec matching a file's extension
func ForPath(path string) (Codec, error) {
	return ForFormat(filepath.Ext(path))
}
