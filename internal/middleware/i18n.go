package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var (
	locales       = []language.Tag{language.English, language.Turkish}
	localeMatcher = language.NewMatcher(locales)
	countryHints  = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
)

// I18N stores the request locale ("en" or "tr") and, when known, the client
// country in the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			ctx := context.WithValue(r.Context(), LocaleKey, detectLocale(r, defaultLocale, country))
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale prefers X-Locale, then Accept-Language, then the country.
func detectLocale(r *http.Request, fallback, country string) string {
	for _, h := range []string{"X-Locale", "Accept-Language"} {
		if locale, ok := matchLocale(r.Header.Get(h)); ok {
			return locale
		}
	}
	switch {
	case strings.EqualFold(country, "TR"):
		return "tr"
	case country != "":
		return "en"
	}
	if locale, ok := matchLocale(fallback); ok {
		return locale
	}
	return "en"
}

// matchLocale maps an Accept-Language style value onto a supported locale.
// Anything parseable but unsupported resolves to "en".
func matchLocale(value string) (string, bool) {
	tags := parseTags(value)
	if len(tags) == 0 {
		return "", false
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return "en", true
	}
	base, _ := locales[idx].Base()
	return base.String(), true
}

func parseTags(value string) []language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil {
		return nil
	}
	return tags
}

// explicitRegion returns the first region spelled out in the value, so "en"
// alone yields nothing even though it implies US.
func explicitRegion(value string) string {
	for _, tag := range parseTags(value) {
		if region, conf := tag.Region(); conf == language.Exact && region.IsCountry() {
			return region.String()
		}
	}
	return ""
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry picks a country from proxy headers, the locale headers and,
// last, an IP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	localeHeaders := []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")}
	for _, v := range localeHeaders {
		if region := explicitRegion(v); region != "" {
			return region
		}
	}
	for _, v := range localeHeaders {
		if locale, ok := matchLocale(v); ok && locale == "tr" {
			return "TR"
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}
