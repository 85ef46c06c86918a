// internal/models/history.go
package models

// HistoryType tags which generator produced an item
type HistoryType string

const (
	HistoryTypeScript HistoryType = "script"
	HistoryTypeVeo    HistoryType = "veo"
)

// IsValid reports whether t is script or veo
func (t HistoryType) IsValid() bool {
	return t == HistoryTypeScript || t == HistoryTypeVeo
}

// HistoryItem is one saved generation. Items are never mutated after creation.
type HistoryItem struct {
	ID        string      `json:"id"`
	Type      HistoryType `json:"type"`
	Prompt    string      `json:"prompt"`
	Timestamp int64       `json:"timestamp"` // epoch milliseconds
}
