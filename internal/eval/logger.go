package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Logger appends evaluation records to a JSONL file. Records from
// earlier runs are never overwritten; re-running an evaluation
// appends to the same day's log.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewLogger opens (creating if needed) the append-only log file for
// today under dir.
func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("eval-%s.jsonl", time.Now().UTC().Format("2006-01-02")))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening eval log: %w", err)
	}
	return &Logger{file: file, path: path}, nil
}

// Log appends one record as a JSON line.
func (l *Logger) Log(record models.EvaluationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling eval record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("appending eval record: %w", err)
	}
	return nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.file.Close()
}
