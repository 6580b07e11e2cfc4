package domain

// Workspace reads and writes files relative to a project root.
type Workspace interface {
	ReadFile(path string) (string, error)
	WriteFile(path, content string) error
}

// BackupStore keeps a copy of a manifest before it is overwritten.
type BackupStore interface {
	Save(targetFile, content string) error
	Load(targetFile string) (string, bool, error)
	Remove(targetFile string) error
}

// FixHistory records fix runs for one project.
type FixHistory interface {
	Save(entry FixEntry) error
	Load() ([]FixEntry, error)
}

// GitInfo reports repository state for a project directory.
type GitInfo interface {
	CommitHash(projectPath string) (string, error)
	IsClean(projectPath, file string) (bool, error)
}

// FixEntry is one recorded fix run.
type FixEntry struct {
	Timestamp  string   `json:"timestamp"`
	CommitHash string   `json:"commit_hash,omitempty"`
	DryRun     bool     `json:"dry_run"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Applied    int      `json:"applied"`
	Files      []string `json:"files,omitempty"`
}
