// internal/prompt/mappers.go
package prompt

import (
	"fmt"

	"github.com/Corphon/VeoPromptStudio/internal/models"
)

// Fallback fragments for values missing from the tables
const (
	defaultDurationText = "around 24 seconds, consisting of 3 scenes"
	defaultStyleText    = "A cinematic, photorealistic style."
)

// LanguageInfo name used inside the prompt plus the dialogue instruction
type LanguageInfo struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

var durationTexts = map[models.Duration]string{
	models.DurationVeryShort: "around 8 seconds, consisting of 1 scene",
	models.DurationShort:     "around 16 seconds, consisting of 2 scenes",
	models.DurationMedium:    "around 24 seconds, consisting of 3 scenes",
	models.DurationLong:      "around 32 seconds, consisting of 4 scenes",
	models.DurationVeryLong:  "around 40 seconds, consisting of 5 scenes",
	models.DurationEpic:      "longer than 48 seconds, consisting of at least 6 scenes",
}

var languageNames = map[models.Language]string{
	models.LanguageVietnamese: "Vietnamese",
	models.LanguageEnglish:    "English",
	models.LanguageJapanese:   "Japanese",
}

// The Vietnamese instruction points back at the dialogue example in rule 4.
var languageSuffixes = map[models.Language]string{
	models.LanguageVietnamese: ", as shown in the example above",
}

// %s is the language name
var voiceTemplates = map[models.Voice]string{
	models.VoiceDefault:       "The character's voice MUST be appropriate for their described age, gender, and emotional state, speaking fluent and natural %s. The AI should determine the best voice. Specify this in the character description.",
	models.VoiceChild:         "The character MUST have a high-pitched, energetic child's voice, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceTeenMale:      "The character MUST have a young male voice, possibly with some adolescent cracking, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceTeenFemale:    "The character MUST have a young female voice, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceAdultMale:     "The character MUST have a standard adult male voice, with a medium pitch, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceAdultFemale:   "The character MUST have a standard adult female voice, with a medium pitch, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceElderlyMale:   "The character MUST have an older, perhaps gravelly or frail, male voice, speaking fluent and natural %s. Specify this in the character description.",
	models.VoiceElderlyFemale: "The character MUST have an older, perhaps softer or frail, female voice, speaking fluent and natural %s. Specify this in the character description.",
}

var styleTexts = map[models.Style]string{
	models.StyleCinematic:       "A cinematic, photorealistic style with dramatic lighting, shallow depth of field, and high-end camera work. The color palette should be rich and moody.",
	models.StyleAnime:           "A vibrant Japanese anime style, reminiscent of Studio Ghibli films, with expressive characters, hand-drawn backgrounds, and fluid animation.",
	models.StyleClaymation:      "A charming stop-motion claymation style, similar to Aardman Animations. Characters and objects should have a handcrafted look with visible fingerprints and textures.",
	models.StylePixelArt:        "A retro 16-bit pixel art style. The scene should be composed of visible pixels, with a limited color palette and animations characteristic of classic video games.",
	models.StyleDocumentary:     "A realistic, grounded documentary style. Use handheld camera shots, natural lighting, and a fly-on-the-wall perspective.",
	models.StyleSurreal:         "A surreal, dream-like art style. Use impossible geometry, strange color combinations, and symbolic imagery to create an abstract and thought-provoking atmosphere.",
	models.StyleHyperrealistic:  "An ultra-detailed, hyperrealistic 8K CGI style. Every texture, reflection, and light source should be rendered with extreme fidelity, aiming for a look that's almost indistinguishable from reality.",
	models.StyleWatercolor:      "A beautiful and fluid watercolor painting style. The visuals should appear as if painted on paper, with soft edges, color bleeds, and visible brush strokes.",
	models.StyleCartoon:         "A vibrant 2D cartoon animation style, like modern TV cartoons. Characterized by bold outlines, solid colors, and expressive, fluid animation.",
	models.StyleLego:            "A stop-motion or CGI style that perfectly replicates the look of LEGO bricks. Characters, vehicles, and environments are all constructed from LEGO pieces. The animation should have the distinct, slightly rigid movement of LEGO minifigures.",
	models.StyleVintage:         "A vintage film style, reminiscent of the 1950s. Use grainy textures, faded Technicolor-like colors, and classic film aspect ratios to create a nostalgic feel.",
	models.StyleNoir:            "A classic black and white film noir style. Emphasize high-contrast lighting, deep shadows (chiaroscuro), dramatic camera angles, and a mysterious, gritty urban atmosphere.",
	models.StyleVaporwave:       "A vaporwave aesthetic with a nostalgic 80s and 90s retro-futuristic vibe. Use neon pinks and blues, glitch art effects, Roman busts, and surreal, dreamlike landscapes.",
	models.StyleSteampunk:       "A steampunk aesthetic, featuring intricate brass machinery, steam-powered contraptions, Victorian-era fashion, and a color palette of browns, bronze, and copper. The atmosphere is one of industrial revolution meets fantasy.",
	models.StyleCyberpunk:       "A high-tech, dystopian cyberpunk world. Dominated by neon-drenched cityscapes, towering skyscrapers, rain-slicked streets, holographic advertisements, and characters with cybernetic enhancements. The mood is gritty and futuristic.",
	models.StyleFantasy:         "An epic high-fantasy style. Think sprawling landscapes, majestic castles, mythical creatures, and magical effects. The visuals should be grand and cinematic, inspired by classic fantasy sagas.",
	models.StyleHorror:          "A suspenseful horror style. Use dark, shadowy lighting, unsettling camera angles, a muted and cold color palette, and an eerie, tense atmosphere to build suspense and fear.",
	models.StyleSketch:          "A black and white pencil sketch animation style. The visuals should look like they're being drawn in real-time in an artist's sketchbook, with visible pencil lines, cross-hatching, and a dynamic, unfinished quality.",
	models.StyleGothic:          "A dark and romantic gothic style. Characterized by imposing, ornate architecture (cathedrals, castles), deep shadows, a desaturated color palette with occasional splashes of deep red or purple, and a mysterious, melancholic mood.",
	models.StylePsychedelic:     "A vibrant, trippy psychedelic style inspired by 1960s art. Features swirling, kaleidoscopic patterns, bold and clashing colors, distorted visuals, and fluid, dream-like transitions.",
	models.StyleMinimalist:      "A clean, minimalist aesthetic. Focus on simple geometric shapes, a limited and deliberate color palette (often monochromatic or with a single accent color), and abundant negative space. The composition is key.",
	models.StyleCartoon1930s:    "A vintage 1930s American cartoon style. Black and white, with 'rubber hose' animation where characters have noodle-like limbs. The visuals should be whimsical, slightly surreal, with bouncing movements synchronized to a jazzy soundtrack.",
	models.StyleCartoon80s:      "A vibrant Saturday morning cartoon style from the 1980s. Characterized by bright, saturated colors, bold outlines, and a slightly grainy, cel-animated look. The action should be dynamic and heroic.",
	models.StyleAnimatedSitcom:  "A modern animated sitcom style, similar to shows like The Simpsons or Bob's Burgers. Features a clean 2D look, relatively simple character designs with expressive faces, and a focus on comedic timing in a contemporary setting.",
	models.StyleThreeDAnimation: "A polished and smooth 3D animation style, similar to modern CGI films from Pixar or DreamWorks. Features detailed character models, realistic lighting and textures, and fluid motion.",
	models.StylePapercraft:      "A charming stop-motion style using paper cutouts and handcrafted paper models. The world has a distinct layered, 2.5D look with visible paper textures and delicate movements.",
	models.StyleOilPainting:     "A living oil painting style. The visuals have the rich texture, thick brushstrokes (impasto), and vibrant, blended colors of a classic oil painting in motion. Each frame looks like it belongs in a museum.",
	models.StyleGlitchArt:       "An experimental glitch art style. The visuals are characterized by digital artifacts, color bleeding, pixelation, datamoshing, and other intentional distortions, creating a chaotic and futuristic aesthetic.",
	models.StyleStopMotion:      "A classic stop-motion animation style. Objects are physically manipulated in small increments between individually photographed frames, creating a unique, tangible, and slightly jittery movement.",
	models.StyleUkiyoE:          "A Japanese Ukiyo-e woodblock print style in motion. Characterized by flat areas of color, bold outlines, and compositions inspired by traditional Japanese art from the Edo period.",
	models.StyleMacro:           "An extreme close-up macro photography style. The video focuses on minuscule details, revealing the hidden textures and intricacies of small subjects. Features an extremely shallow depth of field, making the background a soft blur.",
	models.StyleDroneFootage:    "A breathtaking aerial drone footage style. Characterized by smooth, sweeping camera movements, high-altitude perspectives, and epic shots of landscapes or cityscapes. Creates a sense of scale and grandeur.",
}

// DurationText describes the requested video length. Unknown values map to medium.
func DurationText(d models.Duration) string {
	if text, ok := durationTexts[d]; ok {
		return text
	}
	return defaultDurationText
}

// StyleText describes the visual style. Unknown values map to a short cinematic default.
func StyleText(s models.Style) string {
	if text, ok := styleTexts[s]; ok {
		return text
	}
	return defaultStyleText
}

// LanguageText returns the language name and the dialogue instruction.
// Unknown values map to Vietnamese.
func LanguageText(l models.Language) LanguageInfo {
	if _, ok := languageNames[l]; !ok {
		l = models.LanguageVietnamese
	}
	name := languageNames[l]
	instruction := fmt.Sprintf(
		`The character MUST speak %s. Explicitly state: "The character speaks fluent and natural %s." For any dialogue, add "(in %s)" before the line%s.`,
		name, name, name, languageSuffixes[l])
	return LanguageInfo{Name: name, Instruction: instruction}
}

// VoiceText describes the voice profile in the given language. Unknown values map to
// the default voice.
func VoiceText(v models.Voice, languageName string) string {
	template, ok := voiceTemplates[v]
	if !ok {
		template = voiceTemplates[models.VoiceDefault]
	}
	return fmt.Sprintf(template, languageName)
}
