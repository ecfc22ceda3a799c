package tagging

import "reviewpulse/internal/domain"

// Tagger is immutable after New and safe for concurrent use.
type Tagger struct {
	tax      *Taxonomy
	cats     []compiledCategory
	shortPos []trigger
	shortNeg []trigger
}

type compiledCategory struct {
	name     string
	triggers []trigger
	subs     []compiledSub
}

type compiledSub struct {
	name     string
	triggers []trigger
}

// Match is the outcome of running the taxonomy over one text.
type Match struct {
	Main       string
	Sub        string
	Categories []string
	Keywords   []string
}

func New(t *Taxonomy) *Tagger {
	if t == nil {
		t = Default()
	}
	tg := &Tagger{
		tax:      t,
		shortPos: compileAll(t.ShortText.Positive),
		shortNeg: compileAll(t.ShortText.Negative),
	}
	for _, c := range t.Categories {
		cc := compiledCategory{name: c.Name, triggers: compileAll(c.Triggers)}
		for _, s := range c.Subcategories {
			cc.subs = append(cc.subs, compiledSub{name: s.Name, triggers: compileAll(s.Triggers)})
		}
		tg.cats = append(tg.cats, cc)
	}
	return tg
}

func (tg *Tagger) Taxonomy() *Taxonomy { return tg.tax }

func (tg *Tagger) Tag(r domain.ClassifiedReview) domain.CategorizedReview {
	m := tg.Match(r.Text)
	return domain.CategorizedReview{
		ClassifiedReview: r,
		MainCategory:     m.Main,
		SubCategory:      m.Sub,
		Categories:       m.Categories,
		Keywords:         m.Keywords,
		SentimentScore:   domain.SentimentScore(r.ConfidenceScores),
	}
}

func (tg *Tagger) TagAll(rs []domain.ClassifiedReview) []domain.CategorizedReview {
	out := make([]domain.CategorizedReview, 0, len(rs))
	for _, r := range rs {
		out = append(out, tg.Tag(r))
	}
	return out
}

// Match evaluates every category (multi-label); the first hit in taxonomy order
// is the main category.
func (tg *Tagger) Match(s string) Match {
	t := prepare(s)
	m := Match{Keywords: []string{}}
	seenKw := map[string]struct{}{}
	var mainIdx = -1

	for i, c := range tg.cats {
		hit := false
		for _, tr := range c.triggers {
			if !t.matches(tr) {
				continue
			}
			hit = true
			if _, dup := seenKw[tr.raw]; !dup {
				seenKw[tr.raw] = struct{}{}
				m.Keywords = append(m.Keywords, tr.raw)
			}
		}
		if hit {
			m.Categories = append(m.Categories, c.name)
			if mainIdx < 0 {
				mainIdx = i
			}
		}
	}

	if mainIdx >= 0 {
		m.Main = tg.cats[mainIdx].name
		m.Sub = tg.subFor(tg.cats[mainIdx], t)
		return m
	}

	if t.count > 0 && t.count <= tg.tax.ShortText.MaxTokens {
		var hits []string
		for _, tr := range append(append([]trigger{}, tg.shortPos...), tg.shortNeg...) {
			if t.matches(tr) {
				hits = append(hits, tr.raw)
			}
		}
		if len(hits) > 0 {
			m.Main = tg.tax.Priority
			m.Sub = tg.tax.Other
			m.Categories = []string{tg.tax.Priority}
			m.Keywords = hits
			return m
		}
	}

	m.Main = tg.tax.Other
	m.Sub = tg.tax.Other
	m.Categories = []string{tg.tax.Other}
	return m
}

func (tg *Tagger) subFor(c compiledCategory, t text) string {
	for _, s := range c.subs {
		for _, tr := range s.triggers {
			if t.matches(tr) {
				return s.name
			}
		}
	}
	return tg.tax.Other
}
