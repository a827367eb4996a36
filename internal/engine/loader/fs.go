package loader

import (
	"bytes"
	"context"
	"io/fs"
	"path"
	"time"

	"github.com/Faultbox/matview/internal/assets"
)

// sourceFS exposes a Source as an fs.FS so the glTF decoder can read external
// buffers and images relative to the model file, from disk or over HTTP.
type sourceFS struct {
	ctx  context.Context
	src  Source
	base string
}

func (s *sourceFS) ReadFile(name string) ([]byte, error) {
	data, err := s.src.Load(s.ctx, assets.Resolve(s.base, name))
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (s *sourceFS) Open(name string) (fs.File, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &memFile{Reader: bytes.NewReader(data), name: path.Base(name)}, nil
}

type memFile struct {
	*bytes.Reader
	name string
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Close() error               { return nil }

func (f *memFile) Name() string       { return f.name }
func (f *memFile) Mode() fs.FileMode  { return 0o444 }
func (f *memFile) ModTime() time.Time { return time.Time{} }
func (f *memFile) IsDir() bool        { return false }
func (f *memFile) Sys() any           { return nil }
