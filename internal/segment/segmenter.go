// internal/segment/segmenter.go
package segment

import (
	"regexp"
	"strings"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// SceneSeparator joins seamless scenes
const SceneSeparator = "\n\n"

var (
	// First scene marker: "scene 1" followed by a colon or whitespace.
	// A "scene 1" inside ordinary prose matches too; context is not checked.
	firstScenePattern = regexp.MustCompile(`(?i)scene 1[:\s]`)

	// Boundary of every "Scene <digits>:" chunk
	sceneMarkerPattern = regexp.MustCompile(`(?i)scene \d+:`)

	lineBreaks = regexp.MustCompile(`[\r\n]+`)
)

// Flatten collapses every run of line-break characters into a single space
func Flatten(s string) string {
	return lineBreaks.ReplaceAllString(s, " ")
}

// Segment splits a model reply into the character/style preamble and its scenes and
// builds the seamless prompt. A reply without a "Scene 1" marker is kept as a single
// unsegmented block.
func Segment(raw string) models.SegmentedPrompt {
	loc := firstScenePattern.FindStringIndex(raw)
	if loc == nil {
		preamble := strings.TrimSpace(raw)
		return models.SegmentedPrompt{
			Preamble: preamble,
			Scenes:   []string{},
			Seamless: strings.TrimSpace(Flatten(raw)),
		}
	}

	preamble := strings.TrimSpace(raw[:loc[0]])
	scenes := SplitScenes(strings.TrimSpace(raw[loc[0]:]))

	return models.SegmentedPrompt{
		Preamble: preamble,
		Scenes:   scenes,
		Seamless: Seamless(preamble, scenes),
	}
}

// SplitScenes cuts text before every "Scene <N>:" marker. Chunks are trimmed and empty
// chunks dropped; text before the first marker, if any, is its own chunk.
func SplitScenes(text string) []string {
	bounds := sceneMarkerPattern.FindAllStringIndex(text, -1)

	cuts := make([]int, 0, len(bounds)+2)
	cuts = append(cuts, 0)
	for _, b := range bounds {
		if b[0] > 0 {
			cuts = append(cuts, b[0])
		}
	}
	cuts = append(cuts, len(text))

	scenes := make([]string, 0, len(cuts)-1)
	for i := 0; i < len(cuts)-1; i++ {
		chunk := strings.TrimSpace(text[cuts[i]:cuts[i+1]])
		if chunk != "" {
			scenes = append(scenes, chunk)
		}
	}
	return scenes
}

// Seamless prefixes the flattened preamble onto every flattened scene. With no scenes
// the flattened preamble alone is returned.
func Seamless(preamble string, scenes []string) string {
	flatPreamble := strings.TrimSpace(Flatten(preamble))
	if len(scenes) == 0 {
		return flatPreamble
	}

	parts := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		parts = append(parts, flatPreamble+" "+strings.TrimSpace(Flatten(scene)))
	}
	return strings.Join(parts, SceneSeparator)
}

// StripEmphasis removes every "**" the model uses for bold markup
func StripEmphasis(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
