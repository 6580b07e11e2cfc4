package application

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/vulnfix/vulnfix/internal/domain"
)

// RollbackResult lists the manifests restored from backup and those that
// had no backup to restore.
type RollbackResult struct {
	Restored []string `json:"restored"`
	Missing  []string `json:"missing"`
}

// RollbackService restores manifests from the backups taken before a fix.
type RollbackService struct {
	workspace domain.Workspace
	backups   domain.BackupStore
	history   domain.FixHistory
	log       logr.Logger
}

func NewRollbackService(ws domain.Workspace, backups domain.BackupStore, history domain.FixHistory, log logr.Logger) *RollbackService {
	return &RollbackService{workspace: ws, backups: backups, history: history, log: log}
}

// Rollback restores files. With no files, the manifests changed by the most
// recent non-dry-run fix are restored. A restored backup is removed.
func (s *RollbackService) Rollback(files []string) (*RollbackResult, error) {
	if len(files) == 0 {
		last, err := s.lastApplied()
		if err != nil {
			return nil, err
		}
		files = last
	}

	result := &RollbackResult{Restored: []string{}, Missing: []string{}}
	for _, file := range files {
		content, ok, err := s.backups.Load(file)
		if err != nil {
			return result, &domain.ManifestIOError{Op: "load backup", Path: file, Err: err}
		}
		if !ok {
			result.Missing = append(result.Missing, file)
			continue
		}
		if err := s.workspace.WriteFile(file, content); err != nil {
			return result, &domain.ManifestIOError{Op: "write", Path: file, Err: err}
		}
		if err := s.backups.Remove(file); err != nil {
			s.log.Info("could not remove backup", "targetFile", file, "error", err.Error())
		}
		s.log.V(1).Info("restored manifest", "targetFile", file)
		result.Restored = append(result.Restored, file)
	}
	return result, nil
}

func (s *RollbackService) lastApplied() ([]string, error) {
	if s.history == nil {
		return nil, fmt.Errorf("no files given and no fix history available")
	}
	entries, err := s.history.Load()
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if !entries[i].DryRun && len(entries[i].Files) > 0 {
			return entries[i].Files, nil
		}
	}
	return nil, fmt.Errorf("no applied fix found in history")
}
