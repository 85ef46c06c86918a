// internal/services/history_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/events"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const (
	historyDir  = "history"
	historyFile = "prompt-history.json"
)

// HistoryService keeps the saved generations, newest first, in one JSON file
type HistoryService struct {
	storage   *storage.FileStorage
	publisher events.Publisher

	// serializes read-modify-write of the history file
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewHistoryService stores history under the given file storage. A nil publisher
// disables history events.
func NewHistoryService(fs *storage.FileStorage, publisher events.Publisher) *HistoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &HistoryService{
		storage:   fs,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *HistoryService) load() ([]models.HistoryItem, error) {
	var items []models.HistoryItem
	err := s.storage.LoadJSONFile(historyDir, historyFile, &items)
	if errors.Is(err, storage.ErrNotExist) {
		return []models.HistoryItem{}, nil
	}
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to read history", err)
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return items, nil
}

func (s *HistoryService) save(items []models.HistoryItem) error {
	if err := s.storage.SaveJSONFile(historyDir, historyFile, items); err != nil {
		return apperrors.NewProcessingError("failed to save history", err)
	}
	utils.GetMetricsCollector().SetGauge(utils.MetricHistoryItems, int64(len(items)))
	return nil
}

// Add saves a new item at the front of the history
func (s *HistoryService) Add(ctx context.Context, itemType models.HistoryType, prompt string) (models.HistoryItem, error) {
	if !itemType.IsValid() {
		return models.HistoryItem{}, apperrors.NewValidationError(fmt.Sprintf("unknown history type %q", itemType), nil)
	}

	item := models.HistoryItem{
		ID:        s.newID(),
		Type:      itemType,
		Prompt:    prompt,
		Timestamp: s.now().UnixMilli(),
	}

	s.mu.Lock()
	items, err := s.load()
	if err == nil {
		items = append([]models.HistoryItem{item}, items...)
		err = s.save(items)
	}
	s.mu.Unlock()
	if err != nil {
		return models.HistoryItem{}, err
	}

	s.publish(ctx, events.SubjectHistoryCreated, events.HistoryEvent{
		ID:        item.ID,
		Type:      item.Type,
		Timestamp: item.Timestamp,
	})
	return item, nil
}

// List returns all items, or only those of filterType when it is not empty
func (s *HistoryService) List(ctx context.Context, filterType models.HistoryType) ([]models.HistoryItem, error) {
	if filterType != "" && !filterType.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown history type %q", filterType), nil)
	}

	s.mu.Lock()
	items, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if filterType == "" {
		return items, nil
	}
	filtered := make([]models.HistoryItem, 0, len(items))
	for _, item := range items {
		if item.Type == filterType {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Get returns one item by id
func (s *HistoryService) Get(ctx context.Context, id string) (models.HistoryItem, error) {
	items, err := s.List(ctx, "")
	if err != nil {
		return models.HistoryItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.HistoryItem{}, apperrors.NewNotFoundError("history item not found: "+id, nil)
}

// Delete removes one item
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	items, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	var removed *models.HistoryItem
	kept := make([]models.HistoryItem, 0, len(items))
	for i := range items {
		if items[i].ID == id && removed == nil {
			removed = &items[i]
			continue
		}
		kept = append(kept, items[i])
	}
	if removed == nil {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("history item not found: "+id, nil)
	}
	err = s.save(kept)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, events.SubjectHistoryDeleted, events.HistoryEvent{
		ID:        removed.ID,
		Type:      removed.Type,
		Timestamp: s.now().UnixMilli(),
	})
	return nil
}

// Clear deletes every item
func (s *HistoryService) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.save([]models.HistoryItem{})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, events.SubjectHistoryDeleted, events.HistoryEvent{
		All:       true,
		Timestamp: s.now().UnixMilli(),
	})
	return nil
}

// publish failures never fail the history operation
func (s *HistoryService) publish(ctx context.Context, subject string, event events.HistoryEvent) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		utils.GetLogger().Warn("publishing history event failed", map[string]interface{}{
			"subject": subject,
			"id":      event.ID,
			"error":   err.Error(),
		})
	}
}
