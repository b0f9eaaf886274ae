// Package storage provides the durable, versioned persistence layer for
// project state. Each project identity owns an isolated directory under the
// state root containing a versioned state document, a lightweight summary,
// an append-only event log, and a run lock.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drover-cli/drover/pkg/models"
)

// SchemaVersion is stamped on every persisted state document. Load refuses
// documents carrying any other version rather than guessing at their shape.
const SchemaVersion = "1"

const (
	stateFileName   = "state.yaml"
	summaryFileName = "summary.yaml"
	projectsDirName = "projects"
)

// stateDocument is the on-disk envelope around a project tree.
type stateDocument struct {
	Version string          `yaml:"version"`
	Project *models.Project `yaml:"project"`
}

// ListEntry pairs an identity with its summary for the projects surface.
type ListEntry struct {
	Identity string
	Summary  models.Summary
}

// StateStore defines the persistence operations for project state.
type StateStore interface {
	Exists(identity string) bool
	Load(identity string) (*models.Project, error)
	Save(identity string, project *models.Project) error
	List() ([]ListEntry, error)
	Reset(identity string) error
	ProjectDir(identity string) string
}

// fileStateStore implements StateStore on the local filesystem.
type fileStateStore struct {
	root string
}

// NewStateStore creates a StateStore rooted at the given directory.
// Project state lives under <root>/projects/<identity>/.
func NewStateStore(root string) StateStore {
	return &fileStateStore{root: root}
}

// ResolveStateRoot determines the state root directory: $DROVER_HOME if set,
// otherwise ~/.drover, falling back to .drover in the current directory when
// the home directory cannot be determined.
func ResolveStateRoot() string {
	if home := os.Getenv("DROVER_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".drover"
	}
	return filepath.Join(home, ".drover")
}

func (s *fileStateStore) ProjectDir(identity string) string {
	return filepath.Join(s.root, projectsDirName, identity)
}

func (s *fileStateStore) statePath(identity string) string {
	return filepath.Join(s.ProjectDir(identity), stateFileName)
}

func (s *fileStateStore) Exists(identity string) bool {
	_, err := os.Stat(s.statePath(identity))
	return err == nil
}

// Load reads and validates the persisted tree for an identity. A missing
// file is ErrNotFound; anything unparseable or version-mismatched is a
// CorruptStateError. The file is never modified or discarded on failure.
func (s *fileStateStore) Load(identity string) (*models.Project, error) {
	path := s.statePath(identity)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading state for %s: %w", identity, err)
	}

	var doc stateDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptStateError{
			Identity: identity,
			Path:     path,
			Reason:   "cannot parse state document",
			Err:      err,
		}
	}
	if doc.Version != SchemaVersion {
		return nil, &CorruptStateError{
			Identity: identity,
			Path:     path,
			Reason:   fmt.Sprintf("schema version %q, expected %q", doc.Version, SchemaVersion),
		}
	}
	if doc.Project == nil {
		return nil, &CorruptStateError{
			Identity: identity,
			Path:     path,
			Reason:   "state document carries no project",
		}
	}
	return doc.Project, nil
}

// Save writes the full tree atomically: marshal to a temp file in the same
// directory, fsync, then rename over the live file. A crash mid-write leaves
// either the old state or the new one, never a torn file. The summary
// document is refreshed alongside.
func (s *fileStateStore) Save(identity string, project *models.Project) error {
	dir := s.ProjectDir(identity)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("saving state for %s: creating directory: %w", identity, err)
	}

	project.UpdatedAt = time.Now().UTC()
	doc := stateDocument{Version: SchemaVersion, Project: project}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("saving state for %s: marshaling: %w", identity, err)
	}
	if err := writeFileAtomic(s.statePath(identity), data); err != nil {
		return fmt.Errorf("saving state for %s: %w", identity, err)
	}

	summary := project.Summarize()
	summaryData, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("saving summary for %s: marshaling: %w", identity, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, summaryFileName), summaryData); err != nil {
		return fmt.Errorf("saving summary for %s: %w", identity, err)
	}
	return nil
}

// List enumerates all known project state directories. Directories whose
// summary cannot be read are skipped rather than failing the whole listing.
func (s *fileStateStore) List() ([]ListEntry, error) {
	base := filepath.Join(s.root, projectsDirName)
	dirEntries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	var entries []ListEntry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(base, de.Name(), summaryFileName))
		if err != nil {
			continue
		}
		var summary models.Summary
		if err := yaml.Unmarshal(data, &summary); err != nil {
			continue
		}
		entries = append(entries, ListEntry{Identity: de.Name(), Summary: summary})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Summary.UpdatedAt.After(entries[j].Summary.UpdatedAt)
	})
	return entries, nil
}

// Reset removes all persisted state for one identity. Missing state is not
// an error; reset is idempotent.
func (s *fileStateStore) Reset(identity string) error {
	dir := s.ProjectDir(identity)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("resetting state for %s: %w", identity, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	return nil
}
