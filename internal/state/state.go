// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists per-attempt pipeline artifacts as JSON files in a
// state directory: topic selection, research bundle, draft article, and
// quality report. It is a plain key→JSON store; each attempt overwrites
// the previous attempt's files.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known state file names.
const (
	TopicFile    = "topic.json"
	ResearchFile = "research.json"
	ArticleFile  = "article.json"
	QualityFile  = "quality-report.json"
)

// Store reads and writes JSON documents under a single directory.
type Store struct {
	dir string
}

// NewStore creates the state directory if needed and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Read unmarshals the named JSON document into v.
func (s *Store) Read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("reading state %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing state %s: %w", name, err)
	}
	return nil
}

// Write marshals v as indented JSON with a trailing newline.
func (s *Store) Write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing state %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named document is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
