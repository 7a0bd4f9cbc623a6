// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io"
	"io/fs"
	"sync"
)

// FileReader is an [io.ReadCloser] which opens the file on first read.
type FileReader struct {
	fsys fs.FS
	path string

	openOnce sync.Once
	openErr  error
	file     fs.File
}

// NewFileReader returns a [FileReader] for path in fsys.
func NewFileReader(fsys fs.FS, path string) *FileReader {
	return &FileReader{fsys: fsys, path: path}
}

// Read implements the [io.Reader] interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		r.file, r.openErr = r.fsys.Open(r.path)
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	if r.file == nil {
		return 0, io.EOF
	}
	return r.file.Read(b)
}

// Close implements the [io.Closer] interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
