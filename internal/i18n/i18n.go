package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"log"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle        *i18n.Bundle
	matcher       language.Matcher
	defaultLocale = "en"
	initOnce      sync.Once
)

type ctxKey struct{}

// Init loads all locale files and sets the default locale. Only the first
// call has any effect.
func Init(defLocale string) {
	initOnce.Do(func() {
		if defLocale != "" {
			defaultLocale = defLocale
		}

		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			log.Fatalf("i18n: read locales dir: %v", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				log.Fatalf("i18n: read %s: %v", e.Name(), err)
			}
			bundle.MustParseMessageFileBytes(data, e.Name())
		}
		matcher = language.NewMatcher(bundle.LanguageTags())
		log.Printf("i18n: loaded %d locale files, default=%s", len(entries), defaultLocale)
	})
}

// Negotiate picks the best loaded locale for an Accept-Language header,
// falling back to the default locale.
func Negotiate(acceptLanguage string) string {
	Init("")
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return defaultLocale
	}
	tag, _, conf := matcher.Match(tags...)
	if conf == language.No {
		return defaultLocale
	}
	base, _ := tag.Base()
	return base.String()
}

// WithLocale returns a new context carrying the given locale. The value may be
// a plain tag ("vi") or a raw Accept-Language header.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return defaultLocale
}

// T translates a message ID using the locale from the context.
// Optional templateData provides values for template placeholders.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	Init("")
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx), defaultLocale)

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
