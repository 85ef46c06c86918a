// internal/prompt/composer_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
)

func TestMappersCoverEveryValue(t *testing.T) {
	t.Parallel()

	for _, d := range models.AllDurations() {
		_, ok := durationTexts[d]
		assert.True(t, ok, "duration %q has no text", d)
		assert.NotEmpty(t, DurationText(d))
	}
	for _, s := range models.AllStyles() {
		_, ok := styleTexts[s]
		assert.True(t, ok, "style %q has no text", s)
		assert.NotEmpty(t, StyleText(s))
	}
	for _, l := range models.AllLanguages() {
		_, ok := languageNames[l]
		assert.True(t, ok, "language %q has no name", l)
		info := LanguageText(l)
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Instruction)
	}
	for _, v := range models.AllVoices() {
		_, ok := voiceTemplates[v]
		assert.True(t, ok, "voice %q has no template", v)
	}

	assert.Len(t, durationTexts, len(models.AllDurations()))
	assert.Len(t, styleTexts, len(models.AllStyles()))
	assert.Len(t, voiceTemplates, len(models.AllVoices()))
}

func TestEveryCombinationComposes(t *testing.T) {
	t.Parallel()

	for _, d := range models.AllDurations() {
		for _, s := range models.AllStyles() {
			for _, l := range models.AllLanguages() {
				for _, v := range models.AllVoices() {
					out := ComposeVeo(models.GenerationRequest{Idea: "x", Duration: d, Style: s, Language: l, Voice: v})
					if out.SystemInstruction == "" || strings.Contains(out.SystemInstruction, "{{") {
						t.Fatalf("bad instruction for %s/%s/%s/%s", d, s, l, v)
					}
				}
			}
		}
	}
}

func TestMapperFallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DurationText(models.DurationMedium), DurationText("forever"))
	assert.Equal(t, "A cinematic, photorealistic style.", StyleText("unknown_style"))
	assert.Equal(t, LanguageText(models.LanguageVietnamese), LanguageText("klingon"))
	assert.Equal(t, VoiceText(models.VoiceDefault, "English"), VoiceText("robot", "English"))
	assert.Equal(t, DurationText(""), DurationText(models.DurationMedium))
}

func TestLanguageText(t *testing.T) {
	t.Parallel()

	vi := LanguageText(models.LanguageVietnamese)
	assert.Equal(t, "Vietnamese", vi.Name)
	assert.Equal(t,
		`The character MUST speak Vietnamese. Explicitly state: "The character speaks fluent and natural Vietnamese." For any dialogue, add "(in Vietnamese)" before the line, as shown in the example above.`,
		vi.Instruction)

	ja := LanguageText(models.LanguageJapanese)
	assert.Equal(t, "Japanese", ja.Name)
	assert.True(t, strings.HasSuffix(ja.Instruction, `add "(in Japanese)" before the line.`))
}

func TestVoiceTextUsesLanguage(t *testing.T) {
	t.Parallel()

	got := VoiceText(models.VoiceChild, "Japanese")
	assert.Equal(t, "The character MUST have a high-pitched, energetic child's voice, speaking fluent and natural Japanese. Specify this in the character description.", got)
}

func TestComposeVeoInterpolatesFragments(t *testing.T) {
	t.Parallel()

	req := models.GenerationRequest{
		Idea:     "Một con mèo",
		Duration: models.DurationEpic,
		Style:    models.StyleNoir,
		Language: models.LanguageEnglish,
		Voice:    models.VoiceElderlyFemale,
	}
	out := ComposeVeo(req)

	assert.Contains(t, out.SystemInstruction, "Video duration: longer than 48 seconds, consisting of at least 6 scenes.")
	assert.Contains(t, out.SystemInstruction, `visual style: "`+StyleText(models.StyleNoir)+`"`)
	assert.Contains(t, out.SystemInstruction, "3.  **Voice Profile:** "+VoiceText(models.VoiceElderlyFemale, "English"))
	assert.Contains(t, out.SystemInstruction, `(in English) "It's over,"`)
	assert.Contains(t, out.SystemInstruction, "respect the English language requirement")
	assert.Contains(t, out.SystemInstruction, `"The video has no subtitles."`)
	assert.Contains(t, out.SystemInstruction, "**Consistent Character:**")
	assert.NotContains(t, out.SystemInstruction, req.Idea)
	assert.Equal(t, `User Idea: "Một con mèo"`, out.UserContent)
}

func TestComposeVeoPassesIdeaVerbatim(t *testing.T) {
	t.Parallel()

	idea := "  Cô gái nói: \"Xin chào!\"\nRồi chạy đi... (100% thật?) {{style}}  "
	out := ComposeVeo(models.GenerationRequest{Idea: idea})

	assert.Equal(t, `User Idea: "`+idea+`"`, out.UserContent)
	assert.Contains(t, out.UserContent, idea)
}

func TestComposeVeoIsDeterministic(t *testing.T) {
	t.Parallel()

	req := models.NewGenerationRequest("idea", "", "", "", "")
	assert.Equal(t, ComposeVeo(req), ComposeVeo(req))
}

func TestComposeScript(t *testing.T) {
	t.Parallel()

	out := ComposeScript("một chú chó")
	assert.Equal(t, "một chú chó", out.UserContent)
	assert.Contains(t, out.SystemInstruction, "["+models.StylesList()+"]")
	assert.True(t, strings.HasPrefix(out.SystemInstruction, "Bạn là một chuyên gia viết kịch bản"))
}

func TestScriptSchema(t *testing.T) {
	t.Parallel()

	schema := ScriptSchema()
	require.NotNil(t, schema)
	assert.Equal(t, llm.TypeObject, schema.Type)
	assert.ElementsMatch(t, []string{"character", "setting", "plot", "atmosphere", "styleSuggestion"}, schema.Required)
	for _, field := range schema.Required {
		prop, ok := schema.Properties[field]
		require.True(t, ok, field)
		assert.Equal(t, llm.TypeString, prop.Type)
		assert.NotEmpty(t, prop.Description)
	}
	assert.Contains(t, schema.Properties["styleSuggestion"].Description, "drone_footage")
}
