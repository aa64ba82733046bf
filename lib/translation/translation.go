package translation

import (
	"github.com/leonelquinteros/gotext"
	"strings"
)

// Configure loads the locale catalogue for lang from dir, e.g. locales/pl/default.po
func Configure(dir, lang string) {
	gotext.Configure(dir, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// Translate looks msgID up in the active catalogue and falls back to msgID itself
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
