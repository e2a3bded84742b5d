package assistant

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LanguageAuto asks for the question's language to be detected.
const LanguageAuto = "auto"

// DefaultLanguage is used when detection is unreliable.
const DefaultLanguage = "hi"

// ErrUnsupportedLanguage is returned for codes the assistant cannot answer in.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Languages maps the supported ISO 639-1 codes to their display names.
var Languages = map[string]string{
	"hi": "हिन्दी",
	"en": "English",
	"mr": "मराठी",
	"ta": "தமிழ்",
	"te": "తెలుగు",
	"gu": "ગુજરાતી",
	"kn": "ಕನ್ನಡ",
	"pa": "ਪੰਜਾਬੀ",
}

// ResolveLanguage validates code, detecting it from text when code is auto
// or empty.
func ResolveLanguage(code, text string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == LanguageAuto {
		return detect(text), nil
	}
	if _, ok := Languages[code]; !ok {
		return "", ErrUnsupportedLanguage
	}
	return code, nil
}

func detect(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return DefaultLanguage
	}
	code := info.Lang.Iso6391()
	if _, ok := Languages[code]; !ok {
		return DefaultLanguage
	}
	return code
}
