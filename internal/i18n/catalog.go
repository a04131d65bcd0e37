// Package i18n holds the user-facing strings of the eraser in English and
// Turkish and resolves request locales against them.
package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"magiceraser/internal/domain"
)

var supported = []language.Tag{language.English, language.Turkish}

var entries = map[string][2]string{
	// UI
	"ui.title":              {"Magic Eraser", "Sihirli Silgi"},
	"ui.upload.label":       {"Upload Image", "Resim Yükle"},
	"ui.upload.description": {"Upload the image containing the object you want to erase.", "Silmek istediğiniz nesnenin bulunduğu resmi yükleyin."},
	"ui.brush.label":        {"Brush Size:", "Fırça Boyutu:"},
	"ui.clear":              {"Clear", "Temizle"},
	"ui.erase":              {"Erase", "Sil"},
	"ui.erasing":            {"Erasing...", "Siliniyor..."},
	"ui.reset":              {"Start Over", "Baştan Başla"},
	"ui.download":           {"Download", "İndir"},
	"ui.result":             {"Result", "Sonuç"},

	// failure kinds
	"error." + string(domain.FailureNoImage):   {"Please upload an image.", "Lütfen bir resim yükleyin."},
	"error." + string(domain.FailureDecode):    {"The image could not be read. Please try another file.", "Resim okunamadı. Lütfen başka bir dosya deneyin."},
	"error." + string(domain.FailureFormat):    {"Unsupported image format. Use PNG, JPEG or WEBP.", "Desteklenmeyen resim biçimi. PNG, JPEG veya WEBP kullanın."},
	"error." + string(domain.FailureEmpty):     {"The AI could not erase the object. Please try again.", "Yapay zeka nesneyi silemedi. Lütfen tekrar deneyin."},
	"error." + string(domain.FailureNetwork):   {"Could not reach the editing service. Please try again.", "Düzenleme servisine ulaşılamadı. Lütfen tekrar deneyin."},
	"error." + string(domain.FailureAuth):      {"The editing service rejected the credentials.", "Düzenleme servisi kimlik bilgilerini reddetti."},
	"error." + string(domain.FailureQuota):     {"The editing quota is exhausted. Please try again later.", "Düzenleme kotası doldu. Lütfen daha sonra tekrar deneyin."},
	"error." + string(domain.FailureSafety):    {"The request was blocked by safety filters.", "İstek güvenlik filtrelerine takıldı."},
	"error." + string(domain.FailureGeneric):   {"An unknown error occurred.", "Bilinmeyen bir hata oluştu."},
	"error." + string(domain.FailureInFlight):  {"An erase is already in progress.", "Bir silme işlemi zaten sürüyor."},
	"error." + string(domain.FailureBrush):     {"Brush size must be between 5 and 80.", "Fırça boyutu 5 ile 80 arasında olmalıdır."},
	"error." + string(domain.FailureViewport):  {"Invalid viewport width.", "Geçersiz görüntü alanı genişliği."},
	"error." + string(domain.FailureNotFound):  {"Not found.", "Bulunamadı."},
	"error." + string(domain.FailureMalformed): {"The request could not be understood.", "İstek anlaşılamadı."},
}

// Bundle is the message catalogue plus a matcher over its locales.
type Bundle struct {
	cat     *catalog.Builder
	matcher language.Matcher
}

func New() *Bundle {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msgs := range entries {
		for i, tag := range supported {
			// keys are plain strings without verbs, so they are safe as formats
			_ = cat.SetString(tag, key, msgs[i])
		}
	}
	return &Bundle{cat: cat, matcher: language.NewMatcher(supported)}
}

// Match returns the best supported locale ("en" or "tr") for the given
// candidates, in preference order.
func (b *Bundle) Match(candidates ...string) string {
	var tags []language.Tag
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if parsed, _, err := language.ParseAcceptLanguage(c); err == nil {
			tags = append(tags, parsed...)
		}
	}
	if len(tags) == 0 {
		return "en"
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Supported lists the locales of the catalogue.
func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(supported))
	for _, tag := range supported {
		base, _ := tag.Base()
		out = append(out, base.String())
	}
	return out
}

func (b *Bundle) printer(locale string) *message.Printer {
	return message.NewPrinter(language.Make(b.Match(locale)), message.Catalog(b.cat))
}

// T translates key, returning the key itself when unknown.
func (b *Bundle) T(locale, key string) string {
	if _, ok := entries[key]; !ok {
		return key
	}
	return b.printer(locale).Sprintf(key)
}

// Error returns the localized message for err's failure kind.
func (b *Bundle) Error(locale string, err error) string {
	kind := domain.KindOf(err)
	if kind == "" {
		return ""
	}
	return b.Kind(locale, kind)
}

// Kind returns the localized message for a failure kind.
func (b *Bundle) Kind(locale string, kind domain.FailureKind) string {
	key := "error." + string(kind)
	if _, ok := entries[key]; !ok {
		key = "error." + string(domain.FailureGeneric)
	}
	return b.printer(locale).Sprintf(key)
}

// Messages returns every UI string for locale, keyed without the "ui." prefix.
func (b *Bundle) Messages(locale string) map[string]string {
	p := b.printer(locale)
	out := make(map[string]string)
	for _, key := range Keys("ui.") {
		out[strings.TrimPrefix(key, "ui.")] = p.Sprintf(key)
	}
	return out
}

// Keys lists catalogue keys with the given prefix in sorted order.
func Keys(prefix string) []string {
	var keys []string
	for key := range entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
