package datastore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sheetql/sheetql/internal/domain"
)

// auditFile appends audit records to a jsonl file. It is the degraded mode
// used when the SQLite audit database cannot be opened.
type auditFile struct {
	path string
	mu   sync.Mutex
}

func newAuditFile(path string) *auditFile {
	return &auditFile{path: path}
}

func (f *auditFile) Append(log *domain.QueryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Records loads entries best-effort, newest first.
func (f *auditFile) Records(actor string, limit int) ([]domain.QueryLog, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []domain.QueryLog
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec domain.QueryLog
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if actor != "" && rec.Actor != actor {
			continue
		}
		logs = append(logs, rec)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}
