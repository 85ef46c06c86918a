// internal/services/stats_service.go
package services

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const (
	statsDir          = "stats"
	statsFile         = "usage_stats.json"
	statsSaveInterval = 30 * time.Second
	dailyStatsKept    = 90
	dayLayout         = "2006-01-02"
	monthLayout       = "2006-01"
)

// UsageRecorder receives one call per successful generation
type UsageRecorder interface {
	RecordGeneration(kind models.HistoryType, tokens int)
}

type nopUsage struct{}

func (nopUsage) RecordGeneration(models.HistoryType, int) {}

// UsageStats generation counters that survive restarts
type UsageStats struct {
	TodayGenerations int            `json:"today_generations"`
	MonthlyTokens    int            `json:"monthly_tokens"`
	DailyStats       map[string]int `json:"daily_stats"`   // day -> generations
	MonthlyStats     map[string]int `json:"monthly_stats"` // month -> tokens
	ByType           map[string]int `json:"by_type"`       // veo|script -> generations
	LastUpdated      time.Time      `json:"last_updated"`
}

func newUsageStats(now time.Time) *UsageStats {
	return &UsageStats{
		DailyStats:   make(map[string]int),
		MonthlyStats: make(map[string]int),
		ByType:       make(map[string]int),
		LastUpdated:  now,
	}
}

func (u *UsageStats) clone() *UsageStats {
	cp := *u
	cp.DailyStats = maps.Clone(u.DailyStats)
	cp.MonthlyStats = maps.Clone(u.MonthlyStats)
	cp.ByType = maps.Clone(u.ByType)
	return &cp
}

// StatsService counts generations per day, month and type in stats/usage_stats.json.
// Writes are batched: dirty stats are flushed at most every save interval.
type StatsService struct {
	storage *storage.FileStorage
	mutex   sync.Mutex
	stats   *UsageStats

	dirty        bool
	lastSaveTime time.Time
	saveInterval time.Duration

	now func() time.Time
}

func NewStatsService(fs *storage.FileStorage) *StatsService {
	return &StatsService{
		storage:      fs,
		saveInterval: statsSaveInterval,
		now:          time.Now,
	}
}

// loadLocked reads the stats file once; a missing or unreadable file starts fresh
func (s *StatsService) loadLocked() {
	if s.stats != nil {
		return
	}

	var loaded UsageStats
	err := s.storage.LoadJSONFile(statsDir, statsFile, &loaded)
	switch {
	case err == nil:
		if loaded.DailyStats == nil {
			loaded.DailyStats = make(map[string]int)
		}
		if loaded.MonthlyStats == nil {
			loaded.MonthlyStats = make(map[string]int)
		}
		if loaded.ByType == nil {
			loaded.ByType = make(map[string]int)
		}
		s.stats = &loaded
	case errors.Is(err, storage.ErrNotExist):
		s.stats = newUsageStats(s.now())
	default:
		utils.GetLogger().Warn("usage stats unreadable, starting fresh", map[string]interface{}{
			"error": err.Error(),
		})
		s.stats = newUsageStats(s.now())
	}
	s.rollOverLocked(s.now())
}

// rollOverLocked resets the today/month counters when the period changed and
// prunes old daily entries
func (s *StatsService) rollOverLocked(now time.Time) {
	last := s.stats.LastUpdated
	if now.Format(dayLayout) != last.Format(dayLayout) {
		s.stats.TodayGenerations = 0
		s.dirty = true
	}
	if now.Format(monthLayout) != last.Format(monthLayout) {
		s.stats.MonthlyTokens = 0
		s.dirty = true
	}

	cutoff := now.AddDate(0, 0, -dailyStatsKept).Format(dayLayout)
	for day := range s.stats.DailyStats {
		if day < cutoff {
			delete(s.stats.DailyStats, day)
			s.dirty = true
		}
	}
	s.stats.LastUpdated = now
}

// RecordGeneration counts one generation of kind using tokens
func (s *StatsService) RecordGeneration(kind models.HistoryType, tokens int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loadLocked()
	now := s.now()
	s.rollOverLocked(now)

	s.stats.TodayGenerations++
	s.stats.MonthlyTokens += tokens
	s.stats.DailyStats[now.Format(dayLayout)]++
	s.stats.MonthlyStats[now.Format(monthLayout)] += tokens
	s.stats.ByType[string(kind)]++
	s.dirty = true

	if now.Sub(s.lastSaveTime) > s.saveInterval {
		if err := s.saveLocked(); err != nil {
			utils.GetLogger().Warn("saving usage stats failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// GetUsageStats returns a copy with the period counters rolled over
func (s *StatsService) GetUsageStats() *UsageStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.loadLocked()
	s.rollOverLocked(s.now())
	return s.stats.clone()
}

func (s *StatsService) saveLocked() error {
	if !s.dirty || s.stats == nil {
		return nil
	}
	if err := s.storage.SaveJSONFile(statsDir, statsFile, s.stats); err != nil {
		return apperrors.NewProcessingError("failed to save usage stats", err)
	}
	s.dirty = false
	s.lastSaveTime = s.now()
	return nil
}

// Flush writes pending changes
func (s *StatsService) Flush() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saveLocked()
}

// StartPeriodicSave flushes every save interval until ctx is done, then once more
func (s *StatsService) StartPeriodicSave(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				if err := s.Flush(); err != nil {
					utils.GetLogger().Warn("final usage stats flush failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
				return
			case <-ticker.C:
				if err := s.Flush(); err != nil {
					utils.GetLogger().Warn("periodic usage stats save failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}
		}
	}()
}

// ResetStats clears every counter and persists the empty state
func (s *StatsService) ResetStats() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stats = newUsageStats(s.now())
	s.dirty = true
	return s.saveLocked()
}
