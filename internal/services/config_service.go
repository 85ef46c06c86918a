// internal/services/config_service.go
package services

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/Corphon/VeoPromptStudio/internal/config"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const maxConfigChanges = 100

// ErrConfigNotApplied the settings were saved but a subscriber rejected them
var ErrConfigNotApplied = errors.New("settings saved but not applied")

// ConfigChangeSubscriber reacts to a saved settings change
type ConfigChangeSubscriber interface {
	OnConfigChanged(oldConfig, newConfig *config.AppConfig) error
}

// ConfigChangeRecord one changed setting. API keys are never recorded in clear.
type ConfigChangeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	ChangedBy string    `json:"changed_by"`
	Section   string    `json:"section"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
}

// ConfigService updates the LLM settings, keeps a bounded change log and
// notifies subscribers so the running provider follows the saved settings
type ConfigService struct {
	subscribers   []ConfigChangeSubscriber
	changeHistory []ConfigChangeRecord
	mu            sync.RWMutex

	// serializes updates so old/new snapshots pair up
	updateMu sync.Mutex
	now      func() time.Time
}

func NewConfigService() *ConfigService {
	return &ConfigService{
		changeHistory: make([]ConfigChangeRecord, 0, maxConfigChanges),
		now:           time.Now,
	}
}

// UpdateLLMConfig saves provider, model, key and extra settings, then notifies
// subscribers. A save failure is a processing error; a subscriber failure wraps
// ErrConfigNotApplied.
func (s *ConfigService) UpdateLLMConfig(provider, model, apiKey string, extra map[string]string, changedBy string) (*config.AppConfig, error) {
	if provider == "" {
		return nil, apperrors.NewValidationError("provider cannot be empty", nil)
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	oldConfig := config.GetCurrentConfig()
	if err := config.UpdateLLMConfig(provider, model, apiKey, extra); err != nil {
		return nil, apperrors.NewProcessingError("failed to save LLM settings", err)
	}
	newConfig := config.GetCurrentConfig()

	s.recordChange(changedBy, "llm_provider", oldConfig.LLMProvider, newConfig.LLMProvider)
	s.recordChange(changedBy, "llm_model", oldConfig.LLMModel, newConfig.LLMModel)
	s.recordChange(changedBy, "api_key", maskKey(oldConfig.APIKey), maskKey(newConfig.APIKey))
	if !maps.Equal(oldConfig.LLMConfig, newConfig.LLMConfig) {
		s.recordChange(changedBy, "llm_config", fmt.Sprint(oldConfig.LLMConfig), fmt.Sprint(newConfig.LLMConfig))
	}

	if err := s.notifySubscribers(oldConfig, newConfig); err != nil {
		return newConfig, fmt.Errorf("%w: %v", ErrConfigNotApplied, err)
	}
	return newConfig, nil
}

func (s *ConfigService) SubscribeToChanges(subscriber ConfigChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, subscriber)
}

func (s *ConfigService) UnsubscribeFromChanges(subscriber ConfigChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == subscriber {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			break
		}
	}
}

// notifySubscribers runs every subscriber in order and joins their errors
func (s *ConfigService) notifySubscribers(oldConfig, newConfig *config.AppConfig) error {
	s.mu.RLock()
	subscribers := make([]ConfigChangeSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	var errs []error
	for _, subscriber := range subscribers {
		if err := subscriber.OnConfigChanged(oldConfig, newConfig); err != nil {
			utils.GetLogger().Warn("settings subscriber failed", map[string]interface{}{
				"provider": newConfig.LLMProvider,
				"error":    err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetChangeHistory returns the most recent limit changes, oldest first; limit <= 0 means all
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.changeHistory) {
		limit = len(s.changeHistory)
	}
	history := make([]ConfigChangeRecord, limit)
	copy(history, s.changeHistory[len(s.changeHistory)-limit:])
	return history
}

// recordChange appends a record when the value actually changed
func (s *ConfigService) recordChange(changedBy, section, oldValue, newValue string) {
	if oldValue == newValue {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.changeHistory) >= maxConfigChanges {
		s.changeHistory = s.changeHistory[1:]
	}
	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp: s.now(),
		ChangedBy: changedBy,
		Section:   section,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

// maskKey keeps the last four characters of a key
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
