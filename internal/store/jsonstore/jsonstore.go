// Package jsonstore reads and writes todo exports as a single JSON file.
// Human-readable and portable; it is never the source of truth.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idilsaglam/todo/internal/model"
)

// DefaultFileName is used when no export path is given.
const DefaultFileName = "todos.json"

// Path resolves name against the working directory, falling back to
// DefaultFileName.
func Path(name string) (string, error) {
	if name == "" {
		name = DefaultFileName
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, name), nil
}

// Save writes todos to path as indented JSON.
func Save(path string, todos []model.Todo) error {
	if todos == nil {
		todos = []model.Todo{}
	}
	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Load reads an export back as drafts. Identifiers and timestamps in the file
// are dropped; the store assigns fresh ones on insert. A missing file is an
// error matching os.ErrNotExist.
func Load(path string) ([]model.Draft, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var drafts []model.Draft
	if err := json.Unmarshal(b, &drafts); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return drafts, nil
}
