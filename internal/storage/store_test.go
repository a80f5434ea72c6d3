// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-reveal/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleConversation() *Conversation {
	ts := time.UnixMilli(1700000000000)
	return &Conversation{
		Messages: []*model.Message{
			{ID: "m1", Role: model.RoleSystem, Content: "be brief", Timestamp: ts},
			{ID: "m2", Role: model.RoleUser, Content: "How do I print?\nIn Go.", Timestamp: ts},
			{ID: "m3", Role: model.RoleAssistant, Content: "Use fmt:\n\n```go\nfmt.Println(\"hi\")\n```"},
		},
	}
}

// =============================================================================
// SAVE AND LOAD TESTS
// =============================================================================

func TestStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv := sampleConversation()
	id, err := s.Save(ctx, conv)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "conv_"), id)
	assert.Equal(t, "How do I print?", conv.Title)

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID)
	assert.Equal(t, "How do I print?", loaded.Title)
	require.Len(t, loaded.Messages, 3)

	for i, msg := range loaded.Messages {
		want := conv.Messages[i]
		assert.Equal(t, want.ID, msg.ID)
		assert.Equal(t, want.Role, msg.Role)
		assert.Equal(t, want.Content, msg.Content)
		assert.True(t, want.Timestamp.Equal(msg.Timestamp), "timestamp %d", i)
	}
	assert.True(t, loaded.Messages[2].Timestamp.IsZero())
}

func TestStore_SaveReplacesMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv := sampleConversation()
	id, err := s.Save(ctx, conv)
	require.NoError(t, err)
	created := conv.CreatedAt

	conv.Messages = conv.Messages[:1]
	conv.Title = "renamed"
	_, err = s.Save(ctx, conv)
	require.NoError(t, err)

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 1)
	assert.Equal(t, "renamed", loaded.Title)
	assert.Equal(t, created.UnixMilli(), loaded.CreatedAt.UnixMilli())
}

func TestStore_SaveRejectsBadMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, nil)
	assert.Error(t, err)

	_, err = s.Save(ctx, &Conversation{Messages: []*model.Message{nil}})
	assert.Error(t, err)

	_, err = s.Save(ctx, &Conversation{Messages: []*model.Message{{ID: "x", Role: "tool"}}})
	assert.ErrorIs(t, err, model.ErrUnknownRole)
}

func TestStore_TitleWithoutUserMessage(t *testing.T) {
	s := openTestStore(t)
	conv := &Conversation{Messages: []*model.Message{model.NewAssistantMessage("hello")}}
	_, err := s.Save(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, "New conversation", conv.Title)
}

func TestStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "conv_missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

// =============================================================================
// LIST, RESOLVE AND DELETE TESTS
// =============================================================================

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	metas, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, metas)

	older := &Conversation{ID: "conv_old", Messages: []*model.Message{model.NewUserMessage("first")}}
	_, err = s.Save(ctx, older)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.Save(ctx, &Conversation{ID: "conv_new", Messages: sampleConversation().Messages})
	require.NoError(t, err)

	metas, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "conv_new", metas[0].ID)
	assert.Equal(t, 3, metas[0].MessageCount)
	assert.Equal(t, "How do I print?", metas[0].Preview)
	assert.Equal(t, "conv_old", metas[1].ID)
	assert.Equal(t, 1, metas[1].MessageCount)
}

func TestStore_Resolve(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"conv_abc1", "conv_abc2", "conv_xyz"} {
		_, err := s.Save(ctx, &Conversation{ID: id})
		require.NoError(t, err)
	}

	id, err := s.Resolve(ctx, "conv_xy")
	require.NoError(t, err)
	assert.Equal(t, "conv_xyz", id)

	id, err = s.Resolve(ctx, "conv_abc1")
	require.NoError(t, err)
	assert.Equal(t, "conv_abc1", id)

	_, err = s.Resolve(ctx, "conv_abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = s.Resolve(ctx, "conv_zzz")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = s.Resolve(ctx, "  ")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleConversation())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrConversationNotFound)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(context.Background(), sampleConversation())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	conv, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 3)
	assert.Equal(t, path, s.Path())
}

func TestStore_Closed(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.List(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Save(context.Background(), sampleConversation())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatList(t *testing.T) {
	assert.Equal(t, "No conversations found.", FormatList(nil))

	out := FormatList([]Meta{{
		ID:           "conv_1",
		Title:        strings.Repeat("long title ", 10),
		UpdatedAt:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.Local),
		MessageCount: 4,
	}})
	assert.Contains(t, out, "conv_1")
	assert.Contains(t, out, "2025-03-01 09:30")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, strings.Repeat("long title ", 10))
}
