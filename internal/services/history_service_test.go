// internal/services/history_service_test.go
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/events"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
)

func TestHistoryAddPrependsAndFilters(t *testing.T) {
	ctx := context.Background()
	history := newTestHistory(t, nil)

	seq := 0
	history.newID = func() string { seq++; return fmt.Sprintf("id-%d", seq) }
	history.now = func() time.Time { return time.UnixMilli(1700000000000) }

	first, err := history.Add(ctx, models.HistoryTypeVeo, "veo prompt")
	require.NoError(t, err)
	_, err = history.Add(ctx, models.HistoryTypeScript, "script text")
	require.NoError(t, err)

	assert.Equal(t, "id-1", first.ID)
	assert.EqualValues(t, 1700000000000, first.Timestamp)

	all, err := history.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "id-2", all[0].ID, "newest first")

	veo, err := history.List(ctx, models.HistoryTypeVeo)
	require.NoError(t, err)
	require.Len(t, veo, 1)
	assert.Equal(t, "veo prompt", veo[0].Prompt)

	_, err = history.List(ctx, "audio")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestHistoryRejectsUnknownType(t *testing.T) {
	_, err := newTestHistory(t, nil).Add(context.Background(), "audio", "x")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestHistoryGetDeleteClear(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	history := newTestHistory(t, publisher)

	a, err := history.Add(ctx, models.HistoryTypeVeo, "a")
	require.NoError(t, err)
	b, err := history.Add(ctx, models.HistoryTypeScript, "b")
	require.NoError(t, err)

	got, err := history.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NoError(t, history.Delete(ctx, a.ID))
	_, err = history.Get(ctx, a.ID)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.True(t, apperrors.IsNotFoundError(history.Delete(ctx, a.ID)))

	require.NoError(t, history.Clear(ctx))
	items, err := history.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.Equal(t, []string{
		events.SubjectHistoryCreated,
		events.SubjectHistoryCreated,
		events.SubjectHistoryDeleted,
		events.SubjectHistoryDeleted,
	}, publisher.subjects)
	assert.Equal(t, b.ID, publisher.events[1].ID)
	assert.Equal(t, a.ID, publisher.events[2].ID)
	assert.True(t, publisher.events[3].All)
}

func TestHistoryPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	item, err := NewHistoryService(fs, nil).Add(ctx, models.HistoryTypeVeo, "kept")
	require.NoError(t, err)

	reopened, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	got, err := NewHistoryService(reopened, nil).Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Prompt)
}

func TestHistoryCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, historyDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, historyDir, historyFile), []byte("{not json"), 0644))

	fs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	_, err = NewHistoryService(fs, nil).List(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeError))
}
