// internal/models/request.go
package models

import "strings"

// GenerationRequest is one Veo prompt submission. It is built once per request and
// passed by value through the pipeline.
type GenerationRequest struct {
	Idea     string   `json:"idea"`
	Duration Duration `json:"duration"`
	Style    Style    `json:"style"`
	Language Language `json:"language"`
	Voice    Voice    `json:"voice"`
}

// NewGenerationRequest fills empty selections with the form defaults.
// Unknown non-empty values are kept; the mappers fall back for them.
func NewGenerationRequest(idea string, duration Duration, style Style, language Language, voice Voice) GenerationRequest {
	d := DefaultSelection()
	if duration == "" {
		duration = d.Duration
	}
	if style == "" {
		style = d.Style
	}
	if language == "" {
		language = d.Language
	}
	if voice == "" {
		voice = d.Voice
	}
	return GenerationRequest{
		Idea:     idea,
		Duration: duration,
		Style:    style,
		Language: language,
		Voice:    voice,
	}
}

// HasIdea reports whether the idea contains anything besides whitespace
func (r GenerationRequest) HasIdea() bool {
	return strings.TrimSpace(r.Idea) != ""
}

// ComposedInstruction is the system directive plus the user content sent to the model
type ComposedInstruction struct {
	SystemInstruction string `json:"system_instruction"`
	UserContent       string `json:"user_content"`
}

// SegmentedPrompt is a model reply split into a shared preamble and ordered scenes
type SegmentedPrompt struct {
	Preamble string   `json:"preamble"`
	Scenes   []string `json:"scenes"`
	Seamless string   `json:"seamless"`
}

// HasScenes reports whether a scene marker was found
func (p SegmentedPrompt) HasScenes() bool {
	return len(p.Scenes) > 0
}
