// Package archive keeps a local history of processed order files. Each run
// stores the source CSV under the branch's directory together with a JSON
// record of what the run did, so a disputed delivery can be traced back to
// the exact file that produced it.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is the stored metadata of one archived run.
type Record struct {
	RunID      uuid.UUID `json:"run_id"`
	Branch     string    `json:"branch"`
	SourceName string    `json:"source_name"`
	StoredName string    `json:"stored_name"`
	Size       int64     `json:"size"`
	ArchivedAt time.Time `json:"archived_at"`

	FrozenWritten    int `json:"frozen_written"`
	DessertWritten   int `json:"dessert_written"`
	LogisticsWritten int `json:"logistics_written"`
}

// Store is a filesystem-backed run archive.
type Store struct {
	basePath string
}

// NewStore opens (and creates, if needed) the archive directory.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("archive: create directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Put copies the source CSV into the branch's archive directory and writes
// the run record next to it. The stored name carries the run ID prefix so
// a branch sending the same filename every day never collides.
func (s *Store) Put(csvPath string, rec Record) (*Record, error) {
	if rec.RunID == uuid.Nil {
		rec.RunID = uuid.New()
	}
	branchDir := filepath.Join(s.basePath, sanitizeName(rec.Branch))
	if err := os.MkdirAll(branchDir, 0755); err != nil {
		return nil, fmt.Errorf("archive: create branch directory: %w", err)
	}

	src, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open source: %w", err)
	}
	defer src.Close()

	rec.SourceName = filepath.Base(csvPath)
	rec.StoredName = rec.RunID.String()[:8] + "_" + sanitizeName(rec.SourceName)
	storedPath := filepath.Join(branchDir, rec.StoredName)

	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("archive: create copy: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("archive: copy: %w", err)
	}
	rec.Size = size
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now()
	}

	if err := s.saveRecord(branchDir, rec); err != nil {
		os.Remove(storedPath)
		return nil, err
	}
	return &rec, nil
}

// List returns the archived runs of one branch, most recent last.
func (s *Store) List(branch string) ([]*Record, error) {
	metaDir := filepath.Join(s.basePath, sanitizeName(branch), ".meta")
	entries, err := os.ReadDir(metaDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: list records: %w", err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		rec, err := s.readRecord(filepath.Join(metaDir, entry.Name()))
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Open returns the archived CSV of one run.
func (s *Store) Open(branch string, runID uuid.UUID) (io.ReadCloser, *Record, error) {
	branchDir := filepath.Join(s.basePath, sanitizeName(branch))
	rec, err := s.readRecord(filepath.Join(branchDir, ".meta", runID.String()+".json"))
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(branchDir, rec.StoredName))
	if err != nil {
		return nil, nil, fmt.Errorf("archive: open stored file: %w", err)
	}
	return f, rec, nil
}

func (s *Store) saveRecord(branchDir string, rec Record) error {
	metaDir := filepath.Join(branchDir, ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("archive: create metadata directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}
	path := filepath.Join(metaDir, rec.RunID.String()+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("archive: write record: %w", err)
	}
	return nil
}

func (s *Store) readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive: record not found: %s", filepath.Base(path))
		}
		return nil, fmt.Errorf("archive: read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("archive: parse record: %w", err)
	}
	return &rec, nil
}

// sanitizeName strips path separators and other unsafe characters.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	out := replacer.Replace(strings.TrimSpace(name))
	if out == "" {
		out = "subesiz"
	}
	return out
}
