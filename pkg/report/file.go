package report

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/talentecho/talentecho/pkg/interview"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore persists reports as JSON lines, one file per owner, under a base
// directory. Suitable for single-user deployments; use the postgres store
// when multiple users share an instance.
//
// Thread-safe for concurrent use within one process. Files are append-only;
// List reads the whole file, so very long histories belong in postgres.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save implements [Store]. It appends the report to the owner's JSONL file.
func (fs *FileStore) Save(ctx context.Context, rep *interview.Report, ownerKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("report: save: nil report")
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	data = append(data, '\n')

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.ownerPath(ownerKey), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("report: write: %w", err)
	}
	return nil
}

// List implements [Store]. A missing file means the owner has no reports yet
// and yields an empty slice, not an error.
func (fs *FileStore) List(ctx context.Context, ownerKey string) ([]*interview.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.ownerPath(ownerKey))
	if err != nil {
		if os.IsNotExist(err) {
			return []*interview.Report{}, nil
		}
		return nil, fmt.Errorf("report: open file: %w", err)
	}
	defer f.Close()

	var reports []*interview.Report
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rep interview.Report
		if err := json.Unmarshal(line, &rep); err != nil {
			return nil, fmt.Errorf("report: parse line: %w", err)
		}
		reports = append(reports, &rep)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("report: read file: %w", err)
	}

	// Appends are chronological; newest first means reversed.
	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	if reports == nil {
		reports = []*interview.Report{}
	}
	return reports, nil
}

// ownerPath maps an owner key to a file path. Keys are hashed so arbitrary
// strings (emails) never leak into filenames or escape the base directory.
func (fs *FileStore) ownerPath(ownerKey string) string {
	name := "anonymous"
	if ownerKey != "" {
		sum := sha256.Sum256([]byte(ownerKey))
		name = hex.EncodeToString(sum[:8])
	}
	return filepath.Join(fs.dir, name+".jsonl")
}
