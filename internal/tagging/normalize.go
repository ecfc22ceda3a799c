package tagging

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases with Turkish casing rules, then folds dotless ı onto i so that
// "I", "İ", "ı" and "i" compare equal. Variation selectors are dropped so "❤" matches "❤️".
func fold(s string) string {
	// cases.Caser is stateful; build one per call.
	s = cases.Lower(language.Turkish).String(norm.NFC.String(s))
	s = strings.ReplaceAll(s, "ı", "i")
	return strings.ReplaceAll(s, "\uFE0F", "")
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F9FF,
		r >= 0x1FA00 && r <= 0x1FAFF,
		r >= 0x2700 && r <= 0x27BF,
		r >= 0x2600 && r <= 0x26FF:
		return true
	}
	return false
}

func hasEmoji(s string) bool {
	for _, r := range s {
		if isEmoji(r) {
			return true
		}
	}
	return false
}

// clean turns punctuation into spaces, isolates emoji as their own tokens and
// collapses whitespace. Input is expected to be folded already.
func clean(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch {
		case unicode.IsPunct(r) || unicode.IsSpace(r):
			b.WriteByte(' ')
		case isEmoji(r):
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type triggerKind int

const (
	kindWord triggerKind = iota
	kindPhrase
	kindEmoji
	kindStem
)

// minStemRunes keeps very short stems from matching most of the vocabulary.
const minStemRunes = 3

type trigger struct {
	raw  string
	norm string
	kind triggerKind
}

// compileTrigger classifies a taxonomy entry. A single word ending in "*" is a
// stem and matches any token that starts with it, so "reklamlar*" also covers
// "reklamlardan".
func compileTrigger(raw string) (trigger, bool) {
	raw = strings.TrimSpace(raw)
	stem := strings.HasSuffix(raw, "*")
	if stem {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "*"))
	}
	f := fold(raw)
	if f == "" {
		return trigger{}, false
	}
	if hasEmoji(f) {
		return trigger{raw: raw, norm: f, kind: kindEmoji}, true
	}
	c := clean(f)
	if c == "" {
		return trigger{}, false
	}
	if strings.Contains(c, " ") {
		return trigger{raw: raw, norm: c, kind: kindPhrase}, true
	}
	if stem && utf8.RuneCountInString(c) >= minStemRunes {
		return trigger{raw: raw, norm: c, kind: kindStem}, true
	}
	return trigger{raw: raw, norm: c, kind: kindWord}, true
}

func compileAll(raws []string) []trigger {
	out := make([]trigger, 0, len(raws))
	for _, r := range raws {
		if t, ok := compileTrigger(r); ok {
			out = append(out, t)
		}
	}
	return out
}

// text is a review body prepared once for matching against many triggers.
type text struct {
	folded  string
	cleaned string
	tokens  map[string]struct{}
	words   []string
	count   int
}

func prepare(s string) text {
	f := fold(s)
	c := clean(f)
	fields := strings.Fields(c)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return text{folded: f, cleaned: c, tokens: set, words: fields, count: len(fields)}
}

func (t text) matches(tr trigger) bool {
	switch tr.kind {
	case kindEmoji:
		return strings.Contains(t.folded, tr.norm)
	case kindPhrase:
		return strings.Contains(" "+t.cleaned+" ", " "+tr.norm+" ")
	case kindStem:
		for _, w := range t.words {
			if strings.HasPrefix(w, tr.norm) {
				return true
			}
		}
		return false
	default:
		_, ok := t.tokens[tr.norm]
		return ok
	}
}
