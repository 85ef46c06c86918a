// internal/models/options.go
package models

import "strings"

// Duration target video length
type Duration string

const (
	DurationVeryShort Duration = "very_short"
	DurationShort     Duration = "short"
	DurationMedium    Duration = "medium"
	DurationLong      Duration = "long"
	DurationVeryLong  Duration = "very_long"
	DurationEpic      Duration = "epic"
)

// Language spoken by the character
type Language string

const (
	LanguageVietnamese Language = "vietnamese"
	LanguageEnglish    Language = "english"
	LanguageJapanese   Language = "japanese"
)

// Voice profile of the character
type Voice string

const (
	VoiceDefault       Voice = "default"
	VoiceChild         Voice = "child"
	VoiceTeenMale      Voice = "teen_male"
	VoiceTeenFemale    Voice = "teen_female"
	VoiceAdultMale     Voice = "adult_male"
	VoiceAdultFemale   Voice = "adult_female"
	VoiceElderlyMale   Voice = "elderly_male"
	VoiceElderlyFemale Voice = "elderly_female"
)

// Style visual style of the video
type Style string

const (
	StyleCinematic       Style = "cinematic"
	StyleAnime           Style = "anime"
	StyleClaymation      Style = "claymation"
	StylePixelArt        Style = "pixel_art"
	StyleDocumentary     Style = "documentary"
	StyleSurreal         Style = "surreal"
	StyleHyperrealistic  Style = "hyperrealistic"
	StyleWatercolor      Style = "watercolor"
	StyleCartoon         Style = "cartoon"
	StyleLego            Style = "lego"
	StyleVintage         Style = "vintage"
	StyleNoir            Style = "noir"
	StyleVaporwave       Style = "vaporwave"
	StyleSteampunk       Style = "steampunk"
	StyleCyberpunk       Style = "cyberpunk"
	StyleFantasy         Style = "fantasy"
	StyleHorror          Style = "horror"
	StyleSketch          Style = "sketch"
	StyleGothic          Style = "gothic"
	StylePsychedelic     Style = "psychedelic"
	StyleMinimalist      Style = "minimalist"
	StyleCartoon1930s    Style = "cartoon_1930s"
	StyleCartoon80s      Style = "cartoon_80s"
	StyleAnimatedSitcom  Style = "animated_sitcom"
	StyleThreeDAnimation Style = "3d_animation"
	StylePapercraft      Style = "papercraft"
	StyleOilPainting     Style = "oil_painting"
	StyleGlitchArt       Style = "glitch_art"
	StyleStopMotion      Style = "stop_motion"
	StyleUkiyoE          Style = "ukiyo_e"
	StyleMacro           Style = "macro"
	StyleDroneFootage    Style = "drone_footage"
)

// Option is one selectable entry shown to the user
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// OptionSet groups every option table for the UI
type OptionSet struct {
	Durations  []Option `json:"durations"`
	Languages  []Option `json:"languages"`
	Voices     []Option `json:"voices"`
	Styles     []Option `json:"styles"`
	StylesList string   `json:"styles_list"`
	Defaults   Defaults `json:"defaults"`
}

// Defaults pre-selected values of the form
type Defaults struct {
	Duration Duration `json:"duration"`
	Style    Style    `json:"style"`
	Language Language `json:"language"`
	Voice    Voice    `json:"voice"`
}

var durationOptions = []Option{
	{Value: string(DurationVeryShort), Label: "Rất ngắn", Description: "~8 giây (1 cảnh)"},
	{Value: string(DurationShort), Label: "Ngắn", Description: "~16 giây (2 cảnh)"},
	{Value: string(DurationMedium), Label: "Trung bình", Description: "~24 giây (3 cảnh)"},
	{Value: string(DurationLong), Label: "Dài", Description: "~32 giây (4 cảnh)"},
	{Value: string(DurationVeryLong), Label: "Rất dài", Description: "~40 giây (5 cảnh)"},
	{Value: string(DurationEpic), Label: "Sử thi", Description: "> 48 giây (> 6 cảnh)"},
}

var languageOptions = []Option{
	{Value: string(LanguageVietnamese), Label: "Tiếng Việt", Description: "Nhân vật nói tiếng Việt"},
	{Value: string(LanguageEnglish), Label: "Tiếng Anh", Description: "Nhân vật nói tiếng Anh"},
	{Value: string(LanguageJapanese), Label: "Tiếng Nhật", Description: "Nhân vật nói tiếng Nhật"},
}

var voiceOptions = []Option{
	{Value: string(VoiceDefault), Label: "Mặc định", Description: "AI tự quyết định giọng"},
	{Value: string(VoiceChild), Label: "Trẻ em", Description: "Giọng cao, trong trẻo"},
	{Value: string(VoiceTeenMale), Label: "Thiếu niên (Nam)", Description: "Giọng nam trẻ"},
	{Value: string(VoiceTeenFemale), Label: "Thiếu niên (Nữ)", Description: "Giọng nữ trẻ"},
	{Value: string(VoiceAdultMale), Label: "Người lớn (Nam)", Description: "Giọng nam trung"},
	{Value: string(VoiceAdultFemale), Label: "Người lớn (Nữ)", Description: "Giọng nữ trung"},
	{Value: string(VoiceElderlyMale), Label: "Người già (Nam)", Description: "Giọng nam trầm, lớn tuổi"},
	{Value: string(VoiceElderlyFemale), Label: "Người già (Nữ)", Description: "Giọng nữ nhẹ, lớn tuổi"},
}

var styleOptions = []Option{
	{Value: string(StyleCinematic), Label: "Điện ảnh", Description: "Chân thực, chất lượng cao"},
	{Value: string(StyleAnime), Label: "Anime", Description: "Hoạt hình Nhật Bản"},
	{Value: string(StyleClaymation), Label: "Đất sét", Description: "Hoạt hình tĩnh vật"},
	{Value: string(StylePixelArt), Label: "Pixel Art", Description: "Phong cách retro 8-bit"},
	{Value: string(StyleDocumentary), Label: "Tài liệu", Description: "Thực tế, tự nhiên"},
	{Value: string(StyleSurreal), Label: "Siêu thực", Description: "Trừu tượng, như mơ"},
	{Value: string(StyleHyperrealistic), Label: "Siêu thực tế", Description: "Cực kỳ chi tiết, 8K"},
	{Value: string(StyleWatercolor), Label: "Màu nước", Description: "Nghệ thuật, mềm mại"},
	{Value: string(StyleCartoon), Label: "Hoạt hình", Description: "Phim hoạt hình 2D"},
	{Value: string(StyleLego), Label: "Lego", Description: "Hoạt hình Lego"},
	{Value: string(StyleVintage), Label: "Cổ điển", Description: "Phong cách phim cũ 1950s"},
	{Value: string(StyleNoir), Label: "Phim Đen", Description: "Đen trắng, kịch tính"},
	{Value: string(StyleVaporwave), Label: "Vaporwave", Description: "Thẩm mỹ retro 80s/90s"},
	{Value: string(StyleSteampunk), Label: "Steampunk", Description: "Cơ khí, hơi nước, cổ điển"},
	{Value: string(StyleCyberpunk), Label: "Cyberpunk", Description: "Tương lai, neon, u ám"},
	{Value: string(StyleFantasy), Label: "Fantasy", Description: "Sử thi, phép thuật, hùng vĩ"},
	{Value: string(StyleHorror), Label: "Kinh dị", Description: "U ám, căng thẳng, đáng sợ"},
	{Value: string(StyleSketch), Label: "Phác thảo", Description: "Nét vẽ tay đen trắng"},
	{Value: string(StyleGothic), Label: "Gothic", Description: "Bí ẩn, kiến trúc cổ"},
	{Value: string(StylePsychedelic), Label: "Ảo giác", Description: "Màu sắc, hoa văn xoáy"},
	{Value: string(StyleMinimalist), Label: "Tối giản", Description: "Đơn giản, sạch sẽ"},
	{Value: string(StyleCartoon1930s), Label: "Hoạt hình 1930s", Description: "Đen trắng, kiểu cũ"},
	{Value: string(StyleCartoon80s), Label: "Hoạt hình 80s", Description: "Sặc sỡ, hành động"},
	{Value: string(StyleAnimatedSitcom), Label: "Sitcom Hoạt hình", Description: "Hài hước, hiện đại"},
	{Value: string(StyleThreeDAnimation), Label: "Hoạt hình 3D", Description: "Phong cách Pixar/Disney"},
	{Value: string(StylePapercraft), Label: "Thủ công giấy", Description: "Hoạt hình cắt giấy"},
	{Value: string(StyleOilPainting), Label: "Sơn dầu", Description: "Tranh sơn dầu chuyển động"},
	{Value: string(StyleGlitchArt), Label: "Nghệ thuật Glitch", Description: "Hiệu ứng kỹ thuật số"},
	{Value: string(StyleStopMotion), Label: "Stop Motion", Description: "Hoạt hình tĩnh vật"},
	{Value: string(StyleUkiyoE), Label: "Tranh Ukiyo-e", Description: "Tranh khắc gỗ Nhật Bản"},
	{Value: string(StyleMacro), Label: "Cận cảnh (Macro)", Description: "Quay siêu gần, chi tiết"},
	{Value: string(StyleDroneFootage), Label: "Cảnh quay Drone", Description: "Góc quay từ trên cao"},
}

// AllDurations returns every duration in display order
func AllDurations() []Duration {
	out := make([]Duration, 0, len(durationOptions))
	for _, o := range durationOptions {
		out = append(out, Duration(o.Value))
	}
	return out
}

// AllLanguages returns every language in display order
func AllLanguages() []Language {
	out := make([]Language, 0, len(languageOptions))
	for _, o := range languageOptions {
		out = append(out, Language(o.Value))
	}
	return out
}

// AllVoices returns every voice in display order
func AllVoices() []Voice {
	out := make([]Voice, 0, len(voiceOptions))
	for _, o := range voiceOptions {
		out = append(out, Voice(o.Value))
	}
	return out
}

// AllStyles returns every style in declaration order
func AllStyles() []Style {
	out := make([]Style, 0, len(styleOptions))
	for _, o := range styleOptions {
		out = append(out, Style(o.Value))
	}
	return out
}

// StylesList joins every style value with ", " for prompts that let the model pick one
func StylesList() string {
	values := make([]string, 0, len(styleOptions))
	for _, o := range styleOptions {
		values = append(values, o.Value)
	}
	return strings.Join(values, ", ")
}

// Options returns copies of all option tables
func Options() OptionSet {
	return OptionSet{
		Durations:  append([]Option(nil), durationOptions...),
		Languages:  append([]Option(nil), languageOptions...),
		Voices:     append([]Option(nil), voiceOptions...),
		Styles:     append([]Option(nil), styleOptions...),
		StylesList: StylesList(),
		Defaults:   DefaultSelection(),
	}
}

// DefaultSelection form defaults, also the mapper fallbacks
func DefaultSelection() Defaults {
	return Defaults{
		Duration: DurationMedium,
		Style:    StyleCinematic,
		Language: LanguageVietnamese,
		Voice:    VoiceDefault,
	}
}

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// IsValid reports whether d is a known duration
func (d Duration) IsValid() bool { return hasOption(durationOptions, string(d)) }

// IsValid reports whether l is a known language
func (l Language) IsValid() bool { return hasOption(languageOptions, string(l)) }

// IsValid reports whether v is a known voice
func (v Voice) IsValid() bool { return hasOption(voiceOptions, string(v)) }

// IsValid reports whether s is a known style
func (s Style) IsValid() bool { return hasOption(styleOptions, string(s)) }
