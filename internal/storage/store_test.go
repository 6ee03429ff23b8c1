package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshot(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	got, err := s.Snapshot(ctx, "joe")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.PutSnapshot(ctx, "joe", `{ "filters": {"year": 2024} }`))
	got, err = s.Snapshot(ctx, "joe")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"filters\": {\n    \"year\": 2024\n  }\n}", got)

	other, err := s.Snapshot(ctx, "ann")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.DeleteSnapshot(ctx, "joe"))
	got, err = s.Snapshot(ctx, "joe")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPutSnapshot_RejectsInvalidJSON(t *testing.T) {
	s := newStore(t)
	err := s.PutSnapshot(context.Background(), "joe", `{not json`)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestView_UserBeforeShared(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutView(ctx, "", "overview", json.RawMessage(`{"owner":"shared"}`)))
	require.NoError(t, s.PutView(ctx, "joe", "overview", json.RawMessage(`{"owner":"joe"}`)))

	raw, err := s.View(ctx, "overview", "joe")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"joe"}`, string(raw))

	raw, err = s.View(ctx, "overview", "ann")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"shared"}`, string(raw))

	raw, err = s.View(ctx, "overview", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"shared"}`, string(raw))

	raw, err = s.View(ctx, "missing", "joe")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestPutView_Validation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.PutView(ctx, "joe", "v", json.RawMessage(`[`)), ErrInvalidJSON)
	assert.Error(t, s.PutView(ctx, "joe", "", json.RawMessage(`{}`)))
}

func TestListAndDeleteViews(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutView(ctx, "joe", "b", json.RawMessage(`{}`)))
	require.NoError(t, s.PutView(ctx, "joe", "a", json.RawMessage(`{}`)))
	require.NoError(t, s.PutView(ctx, SharedOwner, "c", json.RawMessage(`{}`)))

	names, err := s.ListViews(ctx, "joe")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = s.ListViews(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names)

	require.NoError(t, s.DeleteView(ctx, "joe", "a"))
	names, err = s.ListViews(ctx, "joe")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestCanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Snapshot(ctx, "joe")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.PutSnapshot(ctx, "joe", `{}`), context.Canceled)
}
