package repository

import (
	"context"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/mizzouse/WeBot/internal/entity"
)

// FileOrderLog appends dispatch batches to a local JSON-lines file. Used when
// no database is configured; record shape matches the repository so the log
// stays format-stable across sinks.
type FileOrderLog struct {
	mu   sync.Mutex
	path string
}

func NewFileOrderLog(path string) *FileOrderLog {
	if path == "" {
		path = "order_responses.jsonl"
	}

	return &FileOrderLog{path: path}
}

func (l *FileOrderLog) SaveBatch(_ context.Context, responses []entity.OrderResponse) error {
	if len(responses) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, response := range responses {
		if err := encoder.Encode(response); err != nil {
			return err
		}
	}

	return nil
}
