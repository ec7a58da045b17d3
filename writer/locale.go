// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writer

import (
	"golang.org/x/text/language"
)

// Localizer picks the language localized string fields are rendered in.
type Localizer struct {
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
}

// NewLocalizer returns a [Localizer] which matches client preferences against
// supported. Without supported languages the first client preference is used
// as is.
func NewLocalizer(fallback language.Tag, supported ...language.Tag) *Localizer {
	l := &Localizer{fallback: fallback}
	if len(supported) == 0 {
		return l
	}

	// the matcher's default is its first tag
	tags := []language.Tag{fallback}
	for _, tag := range supported {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}
	l.supported = tags
	l.matcher = language.NewMatcher(tags)
	return l
}

// Default returns the fallback language.
func (l *Localizer) Default() language.Tag {
	return l.fallback
}

// Negotiate returns the supported language best matching prefs, which are
// ordered by preference.
func (l *Localizer) Negotiate(prefs ...language.Tag) language.Tag {
	if len(prefs) == 0 {
		return l.fallback
	}
	if l.matcher == nil {
		return prefs[0]
	}
	_, idx, conf := l.matcher.Match(prefs...)
	if conf == language.No {
		return l.fallback
	}
	return l.supported[idx]
}

// NegotiateHeader is like [Localizer.Negotiate] for the value of an
// Accept-Language header. Malformed headers select the fallback.
func (l *Localizer) NegotiateHeader(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return l.fallback
	}
	return l.Negotiate(prefs...)
}
