// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/post-engine/pkg/types"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	bundle := types.ResearchBundle{
		Topic: "Feature flags in modern web applications",
		Angle: "Explain the concept with implementation steps.",
		SourceList: []types.Source{
			{Title: "Docs", URL: "https://docs.example.com"},
		},
	}
	if err := store.Write(ResearchFile, bundle); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got types.ResearchBundle
	if err := store.Read(ResearchFile, &got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Topic != bundle.Topic || len(got.SourceList) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestStoreWriteFormat(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Write(TopicFile, map[string]int{"a": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, TopicFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("state files end with a newline")
	}
	if !strings.Contains(string(data), "  \"a\": 1") {
		t.Errorf("state files are indented, got %q", data)
	}
}

func TestStoreExists(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.Exists(QualityFile) {
		t.Error("Exists before write")
	}
	if err := store.Write(QualityFile, types.QualityReport{Pass: true, Score: 100}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !store.Exists(QualityFile) {
		t.Error("Exists after write")
	}
}

func TestStoreReadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var v map[string]any
	if err := store.Read("missing.json", &v); err == nil {
		t.Error("reading a missing document should error")
	}
}
