// Package bundled serves the record set compiled into the binary, or an
// operator supplied JSON file, as the fallback record source.
package bundled

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

// SourceName identifies the bundled source in logs and metrics.
const SourceName = "bundled"

//go:embed data/records.json
var defaultData []byte

// Source reads a JSON array of record documents.
type Source struct {
	path string
}

// New returns a source reading path, or the embedded dataset when path is empty.
func New(path string) *Source {
	return &Source{path: path}
}

// Name returns SourceName.
func (s *Source) Name() string {
	return SourceName
}

// Documents decodes the dataset. The file is read on every call.
func (s *Source) Documents(ctx context.Context) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bundled documents: %w", err)
	}

	if s.path == "" {
		return Decode(bytes.NewReader(defaultData))
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open bundled data: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	return Decode(f)
}

// Decode reads a JSON array of flat documents. Numbers are kept as
// json.Number so large ids survive intact.
func Decode(r io.Reader) ([]domain.Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var docs []domain.Document
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode bundled data: %w", err)
	}

	return docs, nil
}
