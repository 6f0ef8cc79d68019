package assets

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/spf13/afero"
)

// Source is a read view over either a directory on disk or the copy
// embedded in the binary.
type Source struct {
	Fs     afero.Fs
	Dir    string
	OnDisk bool
}

// Open prefers dir when it exists on disk and falls back to the sub
// directory of embedded otherwise.
func Open(dir string, embedded fs.FS, sub string) (Source, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			return Source{
				Fs:     afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir)),
				Dir:    dir,
				OnDisk: true,
			}, nil
		case err == nil:
			return Source{}, fmt.Errorf("%s is not a directory", dir)
		case !os.IsNotExist(err):
			return Source{}, fmt.Errorf("stat %s: %w", dir, err)
		}
	}

	subFS, err := fs.Sub(embedded, sub)
	if err != nil {
		return Source{}, fmt.Errorf("embedded %s: %w", sub, err)
	}
	return Source{Fs: afero.FromIOFS{FS: subFS}, Dir: sub}, nil
}

// HTTP exposes the source as an http.FileSystem for static serving.
func (s Source) HTTP() http.FileSystem {
	return http.FS(afero.NewIOFS(s.Fs))
}
