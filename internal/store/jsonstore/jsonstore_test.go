package jsonstore_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store/jsonstore"
)

func TestSaveThenLoadDropsIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	err := jsonstore.Save(path, []model.Todo{
		{ID: 9, Title: "Buy milk", Description: "oat", Completed: true, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"created_at"`)

	drafts, err := jsonstore.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Draft{{Title: "Buy milk", Description: "oat", Completed: true}}, drafts)
}

func TestLoadMissingFile(t *testing.T) {
	drafts, err := jsonstore.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, drafts)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := jsonstore.Load(path)
	require.Error(t, err)
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, jsonstore.Save(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestPath(t *testing.T) {
	p, err := jsonstore.Path("")
	require.NoError(t, err)
	assert.Equal(t, jsonstore.DefaultFileName, filepath.Base(p))

	abs := filepath.Join(t.TempDir(), "x.json")
	p, err = jsonstore.Path(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, p)
}
