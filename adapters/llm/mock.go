package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/repositories"
)

// mockPhrases are translated verbatim, keyed by "<source>:<target>:<lowercased text>"
var mockPhrases = map[string]string{
	"en:es:hello world. how are you?":       "hola mundo. ¿cómo estás?",
	"en:es:hello world. how are you today?": "Hola mundo. ¿Cómo estás hoy?",
	"en:fr:hello world. how are you today?": "Bonjour le monde. Comment allez-vous aujourd'hui ?",
	"es:en:hola mundo. ¿cómo estás hoy?":    "Hello world. How are you today?",
	"en:de:hello world. how are you today?": "Hallo Welt. Wie geht es dir heute?",
	"en:ja:hello world. how are you today?": "こんにちは世界。今日はお元気ですか？",
	"en:it:hello world. how are you today?": "Ciao mondo. Come stai oggi?",
	"en:pt:hello world. how are you today?": "Olá mundo. Como você está hoje?",
	"en:nl:hello world. how are you today?": "Hallo wereld. Hoe gaat het vandaag?",
	"en:zh:hello world. how are you today?": "你好世界。你今天好吗？",
	"en:ko:hello world. how are you today?": "안녕하세요 세계. 오늘 어떻게 지내세요?",
	"en:ru:hello world. how are you today?": "Привет, мир. Как дела сегодня?",
}

// MockTranslator is a placeholder implementation for translation
type MockTranslator struct {
	logger *zap.Logger
}

var (
	_ repositories.Translator       = (*MockTranslator)(nil)
	_ repositories.LanguageDetector = (*MockTranslator)(nil)
)

// NewMockTranslator creates a new mock translator
func NewMockTranslator(logger *zap.Logger) *MockTranslator {
	return &MockTranslator{logger: logger}
}

// Translate looks the phrase up, or tags the text with the target language
func (m *MockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	if sourceLang == targetLang {
		return text, nil
	}

	key := sourceLang + ":" + targetLang + ":" + strings.ToLower(strings.TrimSpace(text))
	out, ok := mockPhrases[key]
	if !ok {
		out = fmt.Sprintf("[%s] %s", targetLang, text)
	}

	m.logger.Info("Mock translation",
		zap.String("from", sourceLang),
		zap.String("to", targetLang),
		zap.String("result", out))
	return out, nil
}

// DetectLanguage guesses from the scripts and a few marker characters
func (m *MockTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	var han, letters bool
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			return "ja", nil
		case unicode.Is(unicode.Hangul, r):
			return "ko", nil
		case unicode.Is(unicode.Cyrillic, r):
			return "ru", nil
		case unicode.Is(unicode.Han, r):
			han = true
		case r == '¿' || r == '¡' || r == 'ñ':
			return "es", nil
		case r == 'ß' || r == 'ä' || r == 'ö' || r == 'ü':
			return "de", nil
		case r == 'ç' || r == 'è' || r == 'ê':
			return "fr", nil
		case unicode.IsLetter(r):
			letters = true
		}
	}
	switch {
	case han:
		return "zh", nil
	case letters:
		return "en", nil
	default:
		return "", nil
	}
}
