package survey

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocaleKey holds the fallback text in a LocalizedString.
const DefaultLocaleKey = "default"

// LocalizedString maps locale tags to text. A plain string decodes to the
// default entry.
type LocalizedString map[string]string

// UnmarshalJSON accepts either a string or an object of strings.
func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = LocalizedString{DefaultLocaleKey: plain}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*l = m
	return nil
}

// For resolves text for locale: exact tag, then base language, then default.
func (l LocalizedString) For(locale string) string {
	if len(l) == 0 {
		return ""
	}
	if locale != "" {
		if text, ok := l.lookup(locale); ok {
			return text
		}
		if tag, err := language.Parse(locale); err == nil {
			base, _ := tag.Base()
			if text, ok := l.lookup(base.String()); ok {
				return text
			}
		}
	}
	if text, ok := l[DefaultLocaleKey]; ok {
		return text
	}
	return ""
}

func (l LocalizedString) lookup(tag string) (string, bool) {
	for key, text := range l {
		if strings.EqualFold(key, tag) {
			return text, true
		}
	}
	return "", false
}

// NormalizeLocale canonicalizes a BCP 47 tag. Blank input selects the
// default locale and is returned unchanged.
func NormalizeLocale(tag string) (string, error) {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLocale, tag, err)
	}
	return parsed.String(), nil
}

func localizedFrom(v any) LocalizedString {
	switch typed := v.(type) {
	case string:
		if typed == "" {
			return nil
		}
		return LocalizedString{DefaultLocaleKey: typed}
	case map[string]any:
		out := make(LocalizedString, len(typed))
		for k, val := range typed {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	case map[string]string:
		return LocalizedString(typed)
	default:
		return nil
	}
}
