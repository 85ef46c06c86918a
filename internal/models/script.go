// internal/models/script.go
package models

import "strings"

// Script is the structured short script returned by the script generator.
// Every field is written in Vietnamese by the model.
type Script struct {
	Character       string `json:"character"`
	Setting         string `json:"setting"`
	Plot            string `json:"plot"`
	Atmosphere      string `json:"atmosphere"`
	StyleSuggestion string `json:"styleSuggestion"`
}

// Format renders the labelled text block that is copied and saved to history
func (s Script) Format() string {
	var b strings.Builder
	b.WriteString("Nhân vật:\n")
	b.WriteString(s.Character)
	b.WriteString("\n\nBối cảnh:\n")
	b.WriteString(s.Setting)
	b.WriteString("\n\nCốt truyện:\n")
	b.WriteString(s.Plot)
	b.WriteString("\n\nKhông khí/Cảm xúc:\n")
	b.WriteString(s.Atmosphere)
	b.WriteString("\n\nPhong cách đề xuất:\n")
	b.WriteString(s.StyleSuggestion)
	return strings.TrimSpace(b.String())
}

// SuggestedStyle maps the suggestion back onto a known style, if it names one
func (s Script) SuggestedStyle() (Style, bool) {
	candidate := Style(strings.ToLower(strings.TrimSpace(s.StyleSuggestion)))
	if candidate.IsValid() {
		return candidate, true
	}
	return "", false
}
