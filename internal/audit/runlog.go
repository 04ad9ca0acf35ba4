// Package audit keeps the maintenance run log: one JSON record per step run,
// appended under an inter-process file lock.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/DEVBOX10/microsoft-scalar/pkg/model"
)

// RunLog appends to and reads a JSONL run log.
type RunLog struct {
	path string
	mu   sync.Mutex
}

// NewRunLog creates a RunLog at path. The file is created on first append.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

// Path returns the log file path.
func (l *RunLog) Path() string {
	return l.path
}

func (l *RunLog) lock() *flock.Flock {
	return flock.New(l.path + ".lock")
}

// Append writes rec as one line.
func (l *RunLog) Append(rec model.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create run log dir: %w", err)
	}

	fl := l.lock()
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock run log: %w", err)
	}
	defer fl.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync run log: %w", err)
	}
	return nil
}

// Records returns every record in file order. Malformed lines are skipped.
func (l *RunLog) Records() ([]model.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer file.Close()

	fl := l.lock()
	if err := fl.RLock(); err != nil {
		return nil, fmt.Errorf("lock run log: %w", err)
	}
	defer fl.Unlock()

	var records []model.RunRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return records, nil
}

// Tail returns the last n records, or all of them when n <= 0.
func (l *RunLog) Tail(n int) ([]model.RunRecord, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// LastSuccess returns the newest succeeded record for area, or nil.
func (l *RunLog) LastSuccess(area string) (*model.RunRecord, error) {
	records, err := l.Records()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Area == area && records[i].Succeeded() {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, nil
}
