// Package corpus loads the logical corpus a store is built from.
package corpus

import (
	"context"
	"fmt"
	"io/ioutil"
)

// Loader provides the corpus bytes for building a store.
type Loader interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileLoader reads the corpus from a single flat file.
type FileLoader struct {
	path string
}

// NewFileLoader returns a Loader reading the file at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

var _ Loader = (*FileLoader)(nil)

// Load implements Loader.
func (fl *FileLoader) Load(ctx context.Context) ([]byte, error) {
	content, err := ioutil.ReadFile(fl.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return content, nil
}
