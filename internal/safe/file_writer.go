package safe

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

// ErrAlreadyDone is returned when the file writer was already committed or
// closed.
var ErrAlreadyDone = errors.New("file writer was already committed or closed")

// FileWriter stages writes in a temporary file next to the target path and
// atomically replaces the target on Commit. Readers never observe a partially
// written file.
type FileWriter struct {
	tmpFile       *os.File
	path          string
	commitOrClose sync.Once
}

// NewFileWriter creates a FileWriter for the given target path. The temporary
// file is created in the target's directory so the final rename stays on one
// filesystem.
func NewFileWriter(path string) (*FileWriter, error) {
	tmpFile, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}

	return &FileWriter{tmpFile: tmpFile, path: path}, nil
}

// Write appends to the staged temporary file.
func (fw *FileWriter) Write(p []byte) (n int, err error) {
	return fw.tmpFile.Write(p)
}

// Commit flushes the staged content and renames it over the target path. The
// first call to Commit or Close wins; later calls return ErrAlreadyDone.
func (fw *FileWriter) Commit() error {
	err := ErrAlreadyDone

	fw.commitOrClose.Do(func() {
		if err = fw.tmpFile.Sync(); err != nil {
			err = fmt.Errorf("syncing temp file: %v", err)
			return
		}

		if err = fw.tmpFile.Close(); err != nil {
			err = fmt.Errorf("closing temp file: %v", err)
			return
		}

		if err = os.Rename(fw.tmpFile.Name(), fw.path); err != nil {
			err = fmt.Errorf("renaming temp file: %v", err)
			return
		}

		if err = fw.syncDir(); err != nil {
			err = fmt.Errorf("syncing dir: %v", err)
			return
		}
	})

	return err
}

func (fw *FileWriter) syncDir() error {
	f, err := os.Open(filepath.Dir(fw.path))
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}

// Close discards the staged content without touching the target path. Closing
// after a successful Commit returns ErrAlreadyDone and changes nothing.
func (fw *FileWriter) Close() error {
	err := ErrAlreadyDone

	fw.commitOrClose.Do(func() {
		if err = fw.tmpFile.Close(); err != nil {
			return
		}
		if err = os.Remove(fw.tmpFile.Name()); err != nil && !os.IsNotExist(err) {
			return
		}
		err = nil
	})

	return err
}
