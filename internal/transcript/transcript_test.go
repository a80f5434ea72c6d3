// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-reveal/internal/model"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Array(t *testing.T) {
	msgs, err := Parse([]byte(`[
		{"id": "a1", "role": "user", "content": "hi", "timestamp": 1700000000000},
		{"id": "a2", "role": "Assistant", "content": "hello"}
	]`))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a1", msgs[0].ID)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, int64(1700000000000), msgs[0].Timestamp.UnixMilli())
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].Timestamp.IsZero())
}

func TestParse_Object(t *testing.T) {
	msgs, err := Parse([]byte(`{"title": "x", "messages": [{"id": "s", "role": "system", "content": "be brief"}]}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "  \n", "[]", `{"messages": []}`} {
		msgs, err := Parse([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, msgs, in)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Parse([]byte(`[{"role": "tool", "content": "x"}]`))
	assert.ErrorIs(t, err, model.ErrUnknownRole)

	_, err = Parse([]byte(`[{"role": "user"`))
	assert.Error(t, err)
}

func TestParse_DerivedIDsAreStable(t *testing.T) {
	data := []byte(`[{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hi"}]`)
	first, err := Parse(data)
	require.NoError(t, err)
	second, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)
	assert.Equal(t, DeriveID(0, model.RoleUser, "hi"), first[0].ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func nextUpdate(t *testing.T, w *Watcher) Update {
	t.Helper()
	select {
	case u := <-w.Updates():
		return u
	case <-time.After(3 * time.Second):
		t.Fatal("no transcript update")
		return Update{}
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))

	w, err := NewWatcher(path, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "q", "role": "user", "content": "hi"}]`), 0600))
	u := nextUpdate(t, w)
	require.NoError(t, u.Err)
	require.Len(t, u.Messages, 1)
	assert.Equal(t, "q", u.Messages[0].ID)
}

func TestWatcher_ReloadsOnRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.json")
	w, err := NewWatcher(path, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	tmp := filepath.Join(dir, "chat.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`[{"id": "a", "role": "assistant", "content": "done"}]`), 0600))
	require.NoError(t, os.Rename(tmp, path))

	u := nextUpdate(t, w)
	require.NoError(t, u.Err)
	require.Len(t, u.Messages, 1)
}

func TestWatcher_ReportsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	w, err := NewWatcher(path, Options{Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`[{"role": `), 0600))
	u := nextUpdate(t, w)
	assert.Error(t, u.Err)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "chat.json"), Options{Debounce: 10 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0600))
	select {
	case u := <-w.Updates():
		t.Fatalf("unexpected update: %+v", u)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Close(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "chat.json"), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Close())
}
