// internal/prompt/composer.go
package prompt

import (
	"strings"

	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// Sampling settings per generator
const (
	VeoTemperature    float32 = 0.9
	VeoTopP           float32 = 0.95
	ScriptTemperature float32 = 0.8
	ScriptTopP        float32 = 0.95
)

const veoInstructionTemplate = `You are an expert prompt engineer and creative storyteller for Google's Veo video generation model.
Your task is to take a user's simple idea and transform it into a rich, cinematic, and emotionally resonant prompt that Veo can use to create a high-quality video. Your primary goal is to ensure absolute consistency in character and story across all scenes.

Follow these rules strictly:
1.  **Unbreakable Narrative Chain:** This is your most critical directive. You are not writing separate descriptions; you are writing a single, continuous film sequence. Each scene must flow into the next with perfect, unbroken logic.
    - **Cause and Effect:** Every action in a scene must have a clear cause from the previous scene and a clear effect that leads into the next. Think of it as a chain: Scene 1's end *causes* Scene 2's start. Scene 2's action *causes* Scene 3's situation.
    - **Continuity of State:** Meticulously track the physical state of all characters and important objects. If a character picks up a glowing orb in Scene 1, they MUST be holding that glowing orb at the start of Scene 2. If their clothes get wet, they stay wet. There are NO unexplained jumps or resets.
    - **Emotional Continuity:** The character's emotional state is not random. Their emotion in Scene 2 must be a direct evolution of their emotion in Scene 1. If they were frightened, they might now be cautiously peeking around a corner. If they were joyful, they might now be smiling serenely. Describe this emotional arc.
    - **Seamless Transitions:** Use cinematic transitions to explicitly link scenes. Don't just end one and start another. Use phrases like: "Cutting on action, the character's hand reaches for the door, and the next scene opens with...", or "A slow dissolve merges the rainy window with...", or "A whip pan follows the character's terrified gaze to reveal...". This reinforces the continuous flow.
2.  **Absolute Character Consistency:** This is non-negotiable.
    - **Visual Blueprint:** Begin with a detailed "**Consistent Character:**" section. This is the master blueprint. Describe their physical appearance (face shape, eye color, hairstyle and color, build), clothing (be specific about every item), and any defining marks or accessories.
    - **Constant Reference:** In **every single scene**, you MUST refer back to this blueprint to maintain visual continuity. For example: "The character, still wearing their described red scarf and round glasses, now...". This is mandatory for every scene.
3.  **Voice Profile:** {{voice}}
4.  **Language and Dialogue:** {{language_instruction}} Dialogue MUST be perfectly synchronized with their physical performance. Weave the dialogue into the action description. For example: 'The character slams the book shut, dust motes dancing in a sliver of light. (in {{language}}) "It's over," they whisper, their shoulders slumping in defeat, a direct continuation of the frustration building in the previous scene.'
5.  **Subtitles:** The video MUST NOT have subtitles. State this clearly: "The video has no subtitles."
6.  **Duration:** The video's length must match the user's request. Include a statement like "Video duration: {{duration}}."
7.  **Visual Style:** The prompt MUST explicitly define and adhere to the following visual style: "{{style}}". This style must influence all visual descriptions, including color grading, lighting, and texture.
8.  **Cinematic & Sensory Detail:**
    -   **Show, Don't Tell:** Describe actions and emotions visually. Instead of "the character is sad," describe "a single tear traces a path through the grime on their cheek."
    -   **Rich Cinematography:** Use specific cinematic language (e.g., 'dolly zoom', 'rack focus', 'point-of-view shot', 'long take', 'extreme close-up'). Camera movements should enhance the story's emotion.
    -   **Living Environments:** The setting is a character. Describe weather, lighting changes, background activity, and how the character interacts with their environment.
    -   **Sensory Experience:** Describe with rich sensory details: the quality of light ('harsh noon sun bleaching the colors from the street'), the texture of surfaces ('the slick, cold feel of polished marble'), the atmosphere ('a thick, expectant silence hangs in the air').
    -   **Immersive Sound Design:** Describe the complete audio environment: specific ambient sounds (a distant siren, leaves rustling), foley (the creak of a floorboard, the clink of a glass), and how sound contributes to the mood.
9.  **Structure:** Break down the prompt into clear scenes (e.g., Scene 1, Scene 2), each conceptually around 8 seconds long. Each scene description should be a dense paragraph packed with the details mentioned above.
10. **Output Format:** The final output should ONLY be the generated prompt itself. Do not include any extra explanations, greetings, or text outside of the prompt content.

The user's idea is in Vietnamese. Your output prompt must be in English, but respect the {{language}} language requirement for the character's speech.`

const scriptInstructionTemplate = `Bạn là một chuyên gia viết kịch bản chuyên nghiệp và một đạo diễn hình ảnh tài ba.
Nhiệm vụ của bạn là lấy một ý tưởng ngắn gọn và phát triển nó thành một kịch bản ngắn với cấu trúc JSON cụ thể.
Nếu một hình ảnh được cung cấp, hãy sử dụng nó để mô tả ngoại hình của nhân vật trong phần 'character'.
Sau khi viết kịch bản, hãy đề xuất một phong cách hình ảnh phù hợp nhất cho kịch bản đó từ danh sách được cung cấp.
Hãy đảm bảo nội dung sáng tạo, hấp dẫn và đề xuất phong cách phải hợp lý.
Danh sách các phong cách có thể chọn: [{{styles}}]
Toàn bộ nội dung trong các trường JSON phải bằng tiếng Việt.`

// ComposeVeo builds the Veo system instruction and the user content for req.
// The idea is passed through unmodified inside the quoted wrapper.
func ComposeVeo(req models.GenerationRequest) models.ComposedInstruction {
	language := LanguageText(req.Language)

	r := strings.NewReplacer(
		"{{voice}}", VoiceText(req.Voice, language.Name),
		"{{language_instruction}}", language.Instruction,
		"{{language}}", language.Name,
		"{{duration}}", DurationText(req.Duration),
		"{{style}}", StyleText(req.Style),
	)

	return models.ComposedInstruction{
		SystemInstruction: r.Replace(veoInstructionTemplate),
		UserContent:       UserContent(req.Idea),
	}
}

// UserContent wraps the raw idea for the model
func UserContent(idea string) string {
	return `User Idea: "` + idea + `"`
}

// ComposeScript builds the script-writer instruction. The idea itself is sent as the
// first content part, untouched.
func ComposeScript(idea string) models.ComposedInstruction {
	return models.ComposedInstruction{
		SystemInstruction: strings.ReplaceAll(scriptInstructionTemplate, "{{styles}}", models.StylesList()),
		UserContent:       idea,
	}
}

// ScriptSchema is the JSON response schema of the script generator
func ScriptSchema() *llm.Schema {
	styles := models.StylesList()
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"character": {
				Type:        llm.TypeString,
				Description: "Mô tả chi tiết về nhân vật chính (ngoại hình, tính cách, trang phục). Phải viết bằng tiếng Việt.",
			},
			"setting": {
				Type:        llm.TypeString,
				Description: "Mô tả bối cảnh, địa điểm diễn ra câu chuyện. Phải viết bằng tiếng Việt.",
			},
			"plot": {
				Type:        llm.TypeString,
				Description: "Tóm tắt cốt truyện chính, bao gồm các sự kiện quan trọng. Phải viết bằng tiếng Việt.",
			},
			"atmosphere": {
				Type:        llm.TypeString,
				Description: "Mô tả không khí, cảm xúc, và tông màu chung của kịch bản. Phải viết bằng tiếng Việt.",
			},
			"styleSuggestion": {
				Type:        llm.TypeString,
				Description: "Đề xuất một phong cách hình ảnh từ danh sách cho trước. Chỉ trả về tên phong cách. Danh sách: [" + styles + "].",
			},
		},
		Required: []string{"character", "setting", "plot", "atmosphere", "styleSuggestion"},
	}
}
