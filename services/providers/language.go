package providers

import "strings"

var rtlLanguages = map[string]bool{
	"ar": true, // Arabic
	"fa": true, // Persian
	"he": true, // Hebrew
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
	"yi": true, // Yiddish
	"ku": true, // Kurdish (some dialects)
	"dv": true, // Divehi
}

// IsRTLLanguage checks if a language code is right-to-left
func IsRTLLanguage(langCode string) bool {
	return rtlLanguages[langCode]
}

// NormalizeLanguageCode maps language names (English or Chinese) to ISO codes
func NormalizeLanguageCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	switch lang {
	case "":
		return ""
	case "英语", "english", "eng":
		return "en"
	case "中文", "chinese", "chi", "普通话", "国语", "粤语":
		return "zh"
	case "日语", "japanese", "jpn":
		return "ja"
	case "韩语", "korean", "kor":
		return "ko"
	case "西班牙语", "spanish", "spa":
		return "es"
	case "法语", "french", "fra":
		return "fr"
	case "德语", "german", "ger":
		return "de"
	case "阿拉伯语", "arabic", "ara":
		return "ar"
	case "希伯来语", "hebrew", "heb":
		return "he"
	}
	if len(lang) <= 3 {
		return lang
	}
	return "en"
}

// DetectLanguage guesses a language from the script of the lyric text.
// Kana wins over Han so Japanese lyrics with kanji are not read as Chinese.
func DetectLanguage(doc string) string {
	var han, hangul, arabic, hebrew bool
	for _, r := range doc {
		switch {
		case r >= '぀' && r <= 'ヿ':
			return "ja"
		case r >= '가' && r <= '힯':
			hangul = true
		case r >= '一' && r <= '鿿':
			han = true
		case r >= '؀' && r <= 'ۿ':
			arabic = true
		case r >= '֐' && r <= '׿':
			hebrew = true
		}
	}

	switch {
	case hangul:
		return "ko"
	case han:
		return "zh"
	case arabic:
		return "ar"
	case hebrew:
		return "he"
	default:
		return "en"
	}
}
