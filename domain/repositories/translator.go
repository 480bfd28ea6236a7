package repositories

import "context"

// Translator abstracts machine translation services
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// LanguageDetector is implemented by translators that can guess the language
// of a text. An empty code means the language is unknown.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}
