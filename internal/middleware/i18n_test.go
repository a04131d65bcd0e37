package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		fallback string
		country  string
		want     string
	}{
		{"x-locale wins over country", map[string]string{"X-Locale": "TR"}, "", "US", "tr"},
		{"accept-language en", map[string]string{"Accept-Language": "en-US,en;q=0.9"}, "", "", "en"},
		{"accept-language tr", map[string]string{"Accept-Language": "tr-TR,en;q=0.8"}, "", "", "tr"},
		{"unsupported first choice", map[string]string{"Accept-Language": "de-DE,tr;q=0.7"}, "", "", "tr"},
		{"unsupported only", map[string]string{"X-Locale": "fr"}, "tr", "TR", "en"},
		{"turkish visitors", nil, "", "TR", "tr"},
		{"other countries", nil, "tr", "US", "en"},
		{"configured fallback", nil, "tr", "", "tr"},
		{"default", nil, "", "", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	lookupTR := func(ip string) (string, error) {
		if ip != "203.0.113.4" {
			return "", errors.New("unexpected ip " + ip)
		}
		return "tr", nil
	}
	tests := []struct {
		name    string
		headers map[string]string
		lookup  CountryLookup
		want    string
	}{
		{"proxy header order", map[string]string{"X-Country-Code": "us", "CF-IPCountry": "tr"}, nil, "US"},
		{"x-locale region", map[string]string{"X-Locale": "en-AU"}, lookupTR, "AU"},
		{"accept-language region", map[string]string{"Accept-Language": "en-GB,en;q=0.9"}, nil, "GB"},
		{"bare tr locale", map[string]string{"Accept-Language": "tr;q=0.8"}, nil, "TR"},
		{"bare en locale has no region", map[string]string{"Accept-Language": "en"}, nil, ""},
		{"ip lookup", nil, lookupTR, "TR"},
		{"lookup error", nil, func(string) (string, error) { return "", errors.New("boom") }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestI18NStoresLocaleAndCountry(t *testing.T) {
	var locale, country string
	h := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "tr")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if locale != "tr" || country != "TR" {
		t.Fatalf("locale = %q, country = %q", locale, country)
	}

	if got := LocaleFromContext(context.Background()); got != "en" {
		t.Fatalf("LocaleFromContext() default = %q", got)
	}
}
