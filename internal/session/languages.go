package session

import "fmt"

// Language is one selectable conversation language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultVoice is the prebuilt voice used for live spoken replies.
const DefaultVoice = "Zephyr"

var languages = []Language{
	{Code: "en-US", Name: "English (US)"},
	{Code: "es-ES", Name: "Español (España)"},
	{Code: "fr-FR", Name: "Français"},
	{Code: "de-DE", Name: "Deutsch"},
	{Code: "it-IT", Name: "Italiano"},
	{Code: "ja-JP", Name: "日本語"},
	{Code: "ko-KR", Name: "한국어"},
	{Code: "pt-BR", Name: "Português (Brasil)"},
	{Code: "zh-CN", Name: "中文 (普通话)"},
}

// Languages returns the supported conversation languages.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LanguageName resolves a language code to its display name, falling back to
// the code itself for unknown values.
func LanguageName(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// SystemInstruction builds the session system prompt for the given input and
// output language codes.
func SystemInstruction(inputCode, outputCode string) string {
	return fmt.Sprintf(
		"You are a friendly and helpful AI assistant. The user is speaking %s. Please respond in %s.",
		LanguageName(inputCode), LanguageName(outputCode),
	)
}
