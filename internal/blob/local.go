package blob

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Local keeps media on a filesystem directory and serves it under a URL prefix.
type Local struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

var _ Store = (*Local)(nil)

// NewLocal creates the upload directory if needed.
func NewLocal(fs afero.Fs, dir, urlPrefix string) (*Local, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{fs: fs, dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (l *Local) Put(_ context.Context, data []byte, ext string) (string, error) {
	name := newObjectName(ext)
	if err := afero.WriteFile(l.fs, filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func (l *Local) URLFor(ref string) (string, error) {
	return l.urlPrefix + "/" + path.Base(ref), nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	err := l.fs.Remove(filepath.Join(l.dir, path.Base(ref)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Prefix is the URL path media is served under.
func (l *Local) Prefix() string {
	return l.urlPrefix
}

// Handler serves stored files relative to Prefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(l.urlPrefix, http.FileServer(afero.NewHttpFs(l.fs).Dir(l.dir)))
}
