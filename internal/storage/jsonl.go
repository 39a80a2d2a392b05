package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swapScope/internal/model"
)

// Entry kinds written to the journal file.
const (
	KindQuote        = "quote"
	KindPoolSnapshot = "pool_snapshot"
)

type jsonlEntry struct {
	Kind   string      `json:"kind"`
	Record interface{} `json:"record"`
}

// JsonlStorage appends journal entries to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) PutQuote(_ context.Context, record model.QuoteRecord) error {
	return s.append(jsonlEntry{Kind: KindQuote, Record: record})
}

func (s *JsonlStorage) PutPoolSnapshot(_ context.Context, record model.PoolSnapshotRecord) error {
	return s.append(jsonlEntry{Kind: KindPoolSnapshot, Record: record})
}

func (s *JsonlStorage) append(entries ...jsonlEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal %s entry: %w", entry.Kind, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s entry: %w", entry.Kind, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
