// Package messages renders participant-facing text in the supported locales.
package messages

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/flagbot/internal/domain/issuance"
)

// Message keys.
const (
	KeyCredited         = "issuance.credited"
	KeyAlreadySolved    = "issuance.already_solved"
	KeyNotValidated     = "issuance.not_validated"
	KeyUnreachable      = "issuance.unreachable"
	KeyRejected         = "issuance.rejected"
	KeyFailed           = "issuance.failed"
	KeyModalTitle       = "modal.title"
	KeyModalLabel       = "modal.label"
	KeyModalPlaceholder = "modal.placeholder"
	KeyButtonLabel      = "button.label"
	KeyWelcomeTitle     = "welcome.title"
	KeyWelcomeBody      = "welcome.body"
	KeyCTFTitle         = "ctf.title"
	KeyCTFBody          = "ctf.body"
	KeyCTFFooter        = "ctf.footer"
)

// DefaultLocale is the language of the community the bot was written for.
const DefaultLocale = "fr"

//go:embed locales/*.yaml
var localeFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog holds the translations and picks one per chat locale.
type Catalog struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// Load builds a catalog from the embedded locale files. defaultLocale is used
// when a chat locale is empty or unsupported.
func Load(defaultLocale string) (*Catalog, error) {
	return LoadFromFS(localeFS, defaultLocale)
}

// LoadFromFS builds a catalog from locales/*.yaml in fsys.
func LoadFromFS(fsys fs.FS, defaultLocale string) (*Catalog, error) {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = DefaultLocale
	}
	fallback, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}

	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	builder := catalog.NewBuilder(catalog.Fallback(fallback))
	var tags []language.Tag
	hasFallback := false
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", path, err)
		}
		for key, value := range file.Messages {
			if err := builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("locale %s: key %q: %w", path, key, err)
			}
		}
		if tag == fallback {
			hasFallback = true
		}
		tags = append(tags, tag)
	}
	if !hasFallback {
		return nil, fmt.Errorf("default locale %s has no messages", fallback)
	}

	// The matcher falls back to its first tag.
	ordered := []language.Tag{fallback}
	for _, tag := range tags {
		if tag != fallback {
			ordered = append(ordered, tag)
		}
	}

	return &Catalog{
		builder:  builder,
		tags:     ordered,
		matcher:  language.NewMatcher(ordered),
		fallback: fallback,
	}, nil
}

// Tag returns the supported language closest to locale.
func (c *Catalog) Tag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return c.fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return c.fallback
	}
	_, index, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return c.fallback
	}
	return c.tags[index]
}

// Printer returns a printer bound to the catalog for locale.
func (c *Catalog) Printer(locale string) *message.Printer {
	return message.NewPrinter(c.Tag(locale), message.Catalog(c.builder))
}

// Text renders key in locale.
func (c *Catalog) Text(locale, key string, args ...any) string {
	return c.Printer(locale).Sprintf(key, args...)
}

// Outcome renders the reply for a finished issuance attempt.
func (c *Catalog) Outcome(locale string, out *issuance.Outcome) string {
	p := c.Printer(locale)
	switch out.Status {
	case issuance.StatusCredited:
		return p.Sprintf(KeyCredited, out.DisplayName, out.Flag, count(out.Points), count(out.Score), count(out.TotalFlags))
	case issuance.StatusAlreadySolved:
		return p.Sprintf(KeyAlreadySolved, out.DisplayName, out.Flag)
	case issuance.StatusNotValidated:
		return p.Sprintf(KeyNotValidated, out.DisplayName, out.Flag)
	case issuance.StatusUnreachable:
		return p.Sprintf(KeyUnreachable, out.DisplayName, out.Flag)
	default:
		return p.Sprintf(KeyRejected, out.DisplayName)
	}
}

// count renders an optional platform number, "?" when absent.
func count(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *n)
}
