package entities

import "sort"

// Language is an entry of the supported-language table
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// supportedLanguages maps ISO 639-1 codes to display names and BCP-47 locales
var supportedLanguages = map[string]Language{
	"en": {Code: "en", Name: "English", Locale: "en-US"},
	"es": {Code: "es", Name: "Spanish", Locale: "es-ES"},
	"fr": {Code: "fr", Name: "French", Locale: "fr-FR"},
	"de": {Code: "de", Name: "German", Locale: "de-DE"},
	"it": {Code: "it", Name: "Italian", Locale: "it-IT"},
	"pt": {Code: "pt", Name: "Portuguese", Locale: "pt-BR"},
	"nl": {Code: "nl", Name: "Dutch", Locale: "nl-NL"},
	"ru": {Code: "ru", Name: "Russian", Locale: "ru-RU"},
	"ja": {Code: "ja", Name: "Japanese", Locale: "ja-JP"},
	"ko": {Code: "ko", Name: "Korean", Locale: "ko-KR"},
	"zh": {Code: "zh", Name: "Chinese", Locale: "cmn-Hans-CN"},
}

// LookupLanguage returns the table entry for a two-letter code
func LookupLanguage(code string) (Language, bool) {
	lang, ok := supportedLanguages[code]
	return lang, ok
}

// IsSupportedLanguage reports whether code is in the supported table
func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// SupportedLanguages returns the table sorted by code
func SupportedLanguages() []Language {
	langs := make([]Language, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		return langs[i].Code < langs[j].Code
	})
	return langs
}
