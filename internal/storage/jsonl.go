package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"nftPool/internal/model"
)

// JsonlStorage appends swap records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSwap appends one record as a JSON line.
func (s *JsonlStorage) PutSwap(ctx context.Context, record model.SwapRecord) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal swap record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write swap record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ReadSwaps loads every record from a JSONL swap file.
func ReadSwaps(path string) ([]model.SwapRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open swap file: %w", err)
	}
	defer file.Close()

	var records []model.SwapRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record model.SwapRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse swap record: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan swap file: %w", err)
	}
	return records, nil
}
