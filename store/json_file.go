package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JSONFileStore stores each collection as a separate JSON file on disk.
//
// Layout:
//
//	data_dir/
//	  userData.json    # {"<id>": <document>, ...}
//	  nodeStatus.json
//
// Documents are embedded as JSON values, so the files stay human readable.
type JSONFileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONFileStore{dir: dir}, nil
}

func (s *JSONFileStore) Close() error { return nil }

func (s *JSONFileStore) collectionPath(collection string) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, collection+".json"), nil
}

func (s *JSONFileStore) loadFile(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	result := map[string]json.RawMessage{}
	if len(data) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// saveFile writes through a temporary file so a crash never leaves a
// truncated collection behind.
func (s *JSONFileStore) saveFile(path string, rows map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// compact undoes the indentation saveFile applies to embedded documents.
func compact(doc json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return string(doc)
	}
	return buf.String()
}

func (s *JSONFileStore) Ensure(_ context.Context, collection string) error {
	path, err := s.collectionPath(collection)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return s.saveFile(path, map[string]json.RawMessage{})
}

func (s *JSONFileStore) Load(_ context.Context, collection, id string) (string, bool, error) {
	path, err := s.collectionPath(collection)
	if err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.loadFile(path)
	if err != nil {
		return "", false, err
	}
	doc, ok := rows[id]
	if !ok {
		return "", false, nil
	}
	return compact(doc), true, nil
}

func (s *JSONFileStore) Save(_ context.Context, collection, id, doc string) error {
	return s.write(collection, id, doc, true)
}

func (s *JSONFileStore) Update(_ context.Context, collection, id, doc string) error {
	return s.write(collection, id, doc, false)
}

func (s *JSONFileStore) write(collection, id, doc string, create bool) error {
	path, err := s.collectionPath(collection)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(doc)) {
		return fmt.Errorf("%s/%s: document is not valid JSON", collection, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadFile(path)
	if err != nil {
		return err
	}
	if _, ok := rows[id]; !ok && !create {
		return nil
	}
	rows[id] = json.RawMessage(doc)
	return s.saveFile(path, rows)
}

func (s *JSONFileStore) Remove(_ context.Context, collection, id string) error {
	path, err := s.collectionPath(collection)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadFile(path)
	if err != nil {
		return err
	}
	if _, ok := rows[id]; !ok {
		return nil
	}
	delete(rows, id)
	return s.saveFile(path, rows)
}

func (s *JSONFileStore) Scan(_ context.Context, collection string) ([]Row, error) {
	path, err := s.collectionPath(collection)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(raw))
	for id, doc := range raw {
		rows = append(rows, Row{ID: id, Document: compact(doc)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}
