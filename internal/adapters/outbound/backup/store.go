package backup

import (
	"errors"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const backupDir = ".vulnfix/backup"

// Store is a file-based implementation of domain.BackupStore. Backups live
// next to the manifests under .vulnfix/backup, mirroring their paths.
type Store struct {
	fs billy.Filesystem
}

// New creates a backup store on fs, which must share the workspace root.
func New(fs billy.Filesystem) *Store {
	return &Store{fs: fs}
}

// Save writes content as the backup of targetFile, replacing any older one.
func (s *Store) Save(targetFile, content string) error {
	p := backupPath(targetFile)
	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return err
	}
	return util.WriteFile(s.fs, p, []byte(content), 0644)
}

// Load returns the backup of targetFile. ok is false if none exists.
func (s *Store) Load(targetFile string) (content string, ok bool, err error) {
	data, err := util.ReadFile(s.fs, backupPath(targetFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil // no backup is not an error
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Remove deletes the backup of targetFile.
func (s *Store) Remove(targetFile string) error {
	if err := s.fs.Remove(backupPath(targetFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func backupPath(targetFile string) string {
	return path.Join(backupDir, path.Clean("/"+targetFile))
}
