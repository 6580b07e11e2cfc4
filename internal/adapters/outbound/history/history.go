package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/vulnfix/vulnfix/internal/domain"
)

const historyFile = ".vulnfix/history/fixes.json"

// maxEntries bounds the log; the oldest runs are dropped first.
const maxEntries = 200

// Log is an append-only run log stored as JSON on a billy filesystem
// rooted at the project.
type Log struct {
	fs billy.Filesystem
}

func New(fs billy.Filesystem) *Log {
	return &Log{fs: fs}
}

// Save appends entry to the log.
func (l *Log) Save(entry domain.FixEntry) error {
	entries, err := l.Load()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := l.fs.MkdirAll(path.Dir(historyFile), 0755); err != nil {
		return err
	}
	return util.WriteFile(l.fs, historyFile, data, 0644)
}

// Load returns all recorded runs, oldest first. A missing log is empty.
func (l *Log) Load() ([]domain.FixEntry, error) {
	data, err := util.ReadFile(l.fs, historyFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries []domain.FixEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", historyFile, err)
	}
	return entries, nil
}
