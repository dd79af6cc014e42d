// Package sanitize redacts personal data from diagnostic text before it is
// written to any log sink.
package sanitize

import (
	"log/slog"
	"regexp"
	"unicode/utf8"
)

// Placeholder tokens substituted for redacted spans.
const (
	TokenEmail = "[EMAIL]"
	TokenCard  = "[CARD]"
	TokenSSN   = "[SSN]"
	TokenPhone = "[PHONE]"
	TokenPath  = "[PATH]"
)

// Order matters: cards before phones (a card contains phone-shaped runs) and
// emails before paths.
var (
	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reCard  = regexp.MustCompile(`\b\d(?:[ \-]?\d){12,15}\b`)
	reSSN   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	rePhone = regexp.MustCompile(`\+\d{1,3}(?:[\s.\-]?\d{2,4}){2,4}\b|(?:\+?1[\s.\-]?)?(?:\(\d{3}\)\s?|\b\d{3}[\s.\-]?)\d{3}[\s.\-]?\d{4}\b`)
	// unix-ish paths need a boundary in front so dates like 01/31/2025
	// survive. Relative and home paths may have a single segment; a bare
	// absolute one must start with a letter, dot or underscore.
	reUnixPath = regexp.MustCompile(`(^|[\s"'(=:])(?:(?:~|\.{1,2})?(?:/[^\s/"'()]+){2,}|(?:~|\.{1,2})/[^\s/"'()]+|/[A-Za-z_.][^\s/"'()]*)/?`)
	reWinPath  = regexp.MustCompile(`\b[A-Za-z]:\\[^\s"']*`)
)

// Redact returns s with emails, card numbers, SSNs, phone numbers and
// filesystem paths replaced by fixed tokens.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = reEmail.ReplaceAllString(s, TokenEmail)
	s = reCard.ReplaceAllString(s, TokenCard)
	s = reSSN.ReplaceAllString(s, TokenSSN)
	s = rePhone.ReplaceAllString(s, TokenPhone)
	s = reWinPath.ReplaceAllString(s, TokenPath)
	s = reUnixPath.ReplaceAllString(s, "${1}"+TokenPath)
	return s
}

// Preview redacts s and truncates it to at most n runes.
func Preview(s string, n int) string {
	s = Redact(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook that redacts the
// message and every string-ish attribute on its way to the sink.
func ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, Redact(v.Error()))
		case interface{ String() string }:
			return slog.String(a.Key, Redact(v.String()))
		case []string:
			out := make([]string, len(v))
			for i := range v {
				out[i] = Redact(v[i])
			}
			return slog.Any(a.Key, out)
		}
	}
	return a
}

// Options returns a copy of opts whose ReplaceAttr always redacts,
// chaining any ReplaceAttr the caller already set.
func Options(opts *slog.HandlerOptions) *slog.HandlerOptions {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	out := *opts
	prev := opts.ReplaceAttr
	out.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if prev != nil {
			a = prev(groups, a)
		}
		return ReplaceAttr(groups, a)
	}
	return &out
}
