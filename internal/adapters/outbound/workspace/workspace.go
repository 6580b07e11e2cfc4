package workspace

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS implements domain.Workspace on a billy filesystem. Paths are relative
// to the filesystem root.
type FS struct {
	fs billy.Filesystem
}

// New wraps fs.
func New(fs billy.Filesystem) *FS { return &FS{fs: fs} }

// NewOS returns a workspace rooted at dir on the local disk.
func NewOS(dir string) *FS { return New(osfs.New(dir)) }

// Filesystem exposes the underlying filesystem to adapters sharing the root.
func (w *FS) Filesystem() billy.Filesystem { return w.fs }

func (w *FS) ReadFile(path string) (string, error) {
	data, err := util.ReadFile(w.fs, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (w *FS) WriteFile(path, content string) error {
	return util.WriteFile(w.fs, path, []byte(content), 0644)
}
