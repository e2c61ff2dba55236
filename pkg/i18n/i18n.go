// Package i18n holds the pt/en message catalog used for error messages and
// email content, and negotiates the caller's language.
package i18n

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Lang is a supported response language.
type Lang string

const (
	English    Lang = "en"
	Portuguese Lang = "pt"
)

// DefaultLang is used when nothing in the request matches a supported language.
const DefaultLang = English

// LanguageHeader is checked before Accept-Language.
const LanguageHeader = "language"

var (
	supported = []language.Tag{language.English, language.Portuguese}
	matcher   = language.NewMatcher(supported)
	langs     = []Lang{English, Portuguese}
)

// Tag returns the x/text tag for the language.
func (l Lang) Tag() language.Tag {
	if l == Portuguese {
		return language.Portuguese
	}
	return language.English
}

// Parse negotiates a raw header value ("pt", "pt-BR,en;q=0.8", ...) down to a
// supported language. Empty or unparsable input yields DefaultLang.
func Parse(raw string) Lang {
	if raw == "" {
		return DefaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	return langs[idx]
}

// params lists, per key, the order in which named parameters are passed to
// the catalog's positional format verbs.
var params = map[string][]string{
	"exceededAttempts":          {"time"},
	"passcodeExpirationMessage": {"minutes"},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := b.SetString(language.English, key, msg); err != nil {
			panic(fmt.Sprintf("i18n: en %s: %v", key, err))
		}
	}
	for key, msg := range portuguese {
		if err := b.SetString(language.Portuguese, key, msg); err != nil {
			panic(fmt.Sprintf("i18n: pt %s: %v", key, err))
		}
	}
	return b
}

// T translates key into lang. Unknown keys are returned unchanged.
func T(lang Lang, key string, values map[string]any) string {
	if !Has(key) {
		return key
	}
	var args []any
	for _, name := range params[key] {
		v, ok := values[name]
		if !ok {
			v = ""
		}
		args = append(args, v)
	}
	p := message.NewPrinter(lang.Tag(), message.Catalog(cat))
	return p.Sprintf(key, args...)
}

// Has reports whether key exists in the catalog.
func Has(key string) bool {
	_, ok := english[key]
	return ok
}

type contextKey struct {
	name string
}

var langKey = &contextKey{"Lang"}

// WithLang stores the language on the context.
func WithLang(ctx context.Context, lang Lang) context.Context {
	return context.WithValue(ctx, langKey, lang)
}

// FromContext returns the negotiated language, or DefaultLang.
func FromContext(ctx context.Context) Lang {
	if lang, ok := ctx.Value(langKey).(Lang); ok {
		return lang
	}
	return DefaultLang
}

// Middleware negotiates the request language from the "language" header,
// falling back to Accept-Language.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(LanguageHeader)
		if raw == "" {
			raw = r.Header.Get("Accept-Language")
		}
		ctx := WithLang(r.Context(), Parse(raw))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
