package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/observability"
	"reviewpulse/internal/domain"
)

const (
	summaryAttempts   = 3
	defaultMaxChars   = 1500
	defaultBaseDelay  = time.Second
	promptSampleCount = 5
)

type SummaryInput struct {
	AppTitle  string
	Aggregate domain.Aggregate
	Reviews   []domain.CategorizedReview
}

type SummarizerConfig struct {
	Language  string // tr|en
	BaseDelay time.Duration
	MaxChars  int
}

// Summarizer turns aggregate numbers into a short insight report. It never fails:
// when the generator is unavailable a template built from the numbers is returned.
type Summarizer struct {
	gen    domain.TextGenerator
	cfg    SummarizerConfig
	labels []string
	sleep  func(ctx context.Context, d time.Duration) bool
}

// NewSummarizer takes the category labels in taxonomy order so the prompt lists them consistently.
func NewSummarizer(gen domain.TextGenerator, cfg SummarizerConfig, labels []string) *Summarizer {
	if cfg.Language != "en" {
		cfg.Language = "tr"
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	return &Summarizer{gen: gen, cfg: cfg, labels: labels, sleep: sleepCtx}
}

func (s *Summarizer) Summarize(ctx context.Context, in SummaryInput) string {
	if in.Aggregate.Statistics.Total == 0 || s.gen == nil {
		observability.ObserveSummary("fallback")
		return s.fallback(in.Aggregate.Statistics)
	}

	prompt := s.prompt(in)
	var lastErr error
	for attempt := 1; attempt <= summaryAttempts; attempt++ {
		out, err := s.gen.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(out) != "" {
			observability.ObserveSummary("generated")
			return truncateRunes(strings.TrimSpace(out), s.cfg.MaxChars)
		}
		if err == nil {
			err = fmt.Errorf("empty completion")
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("insight generation failed")
		if attempt < summaryAttempts && !s.sleep(ctx, time.Duration(attempt)*s.cfg.BaseDelay) {
			break
		}
	}

	log.Error().Err(fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, lastErr)).
		Str("app", in.AppTitle).Msg("using template insight")
	observability.ObserveSummary("fallback")
	return s.fallback(in.Aggregate.Statistics)
}

func (s *Summarizer) fallback(st domain.Statistics) string {
	if s.cfg.Language == "en" {
		if st.Total == 0 {
			return "There is not enough data yet. More user reviews are needed for a detailed analysis."
		}
		return fmt.Sprintf("Overall assessment:\n"+
			"%d reviews were analyzed. %.1f%% of them are positive and %.1f%% are negative.\n\n"+
			"Recommendations:\n"+
			"1. Track user feedback regularly\n"+
			"2. Respond quickly to negative reviews\n"+
			"3. Keep improving the user experience",
			st.Total, Percent(st.Positive, st.Total), Percent(st.Negative, st.Total))
	}
	if st.Total == 0 {
		return "Henüz yeterli veri bulunmamaktadır. Daha detaylı analiz için daha fazla kullanıcı yorumu gereklidir."
	}
	return fmt.Sprintf("Genel Değerlendirme:\n"+
		"Uygulama için toplam %d yorum analiz edilmiştir. Yorumların %%%.1f'i olumlu, %%%.1f'i olumsuz olarak değerlendirilmiştir.\n\n"+
		"Öneriler:\n"+
		"1. Kullanıcı geri bildirimlerini düzenli olarak takip edin\n"+
		"2. Olumsuz yorumlara hızlı yanıt verin\n"+
		"3. Kullanıcı deneyimini sürekli iyileştirin",
		st.Total, Percent(st.Positive, st.Total), Percent(st.Negative, st.Total))
}

func (s *Summarizer) prompt(in SummaryInput) string {
	st := in.Aggregate.Statistics
	title := in.AppTitle
	var b strings.Builder

	if s.cfg.Language == "en" {
		if title == "" {
			title = "Unknown app"
		}
		b.WriteString("Write a short, focused insight report from the app analysis data below.\n")
		b.WriteString("Cover only: 1. overall satisfaction (1-2 sentences) 2. main positive and negative points (short bullets) ")
		b.WriteString("3. priority improvements (at most 3 bullets).\nWrite in English and stay under 150 words.\n\n")
		fmt.Fprintf(&b, "App: %s\n\nStatistics:\n- Total reviews: %d\n", title, st.Total)
		fmt.Fprintf(&b, "- Positive: %d (%.1f%%)\n- Neutral: %d (%.1f%%)\n- Negative: %d (%.1f%%)\n\nCategories:\n",
			st.Positive, Percent(st.Positive, st.Total), st.Neutral, Percent(st.Neutral, st.Total), st.Negative, Percent(st.Negative, st.Total))
	} else {
		if title == "" {
			title = "Bilinmeyen Uygulama"
		}
		b.WriteString("Aşağıdaki uygulama analiz verilerine dayanarak kısa ve öz bir içgörü raporu hazırla.\n")
		b.WriteString("Raporda sadece şu noktalara değin: 1. Genel memnuniyet durumu (1-2 cümle) 2. Öne çıkan olumlu ve olumsuz noktalar (madde madde, kısa) ")
		b.WriteString("3. Öncelikli iyileştirme önerileri (en fazla 3 madde).\nRaporu Türkçe olarak yaz ve 150 kelimeyi geçme.\n\n")
		fmt.Fprintf(&b, "Uygulama: %s\n\nGenel İstatistikler:\n- Toplam Yorum Sayısı: %d\n", title, st.Total)
		fmt.Fprintf(&b, "- Olumlu Yorumlar: %d (%.1f%%)\n- Nötr Yorumlar: %d (%.1f%%)\n- Olumsuz Yorumlar: %d (%.1f%%)\n\nKategori Dağılımı:\n",
			st.Positive, Percent(st.Positive, st.Total), st.Neutral, Percent(st.Neutral, st.Total), st.Negative, Percent(st.Negative, st.Total))
	}

	for _, l := range s.orderedLabels(in.Aggregate.Categories) {
		n := in.Aggregate.Categories[l]
		fmt.Fprintf(&b, "- %s: %d (%.1f%%)\n", l, n, Percent(n, st.Total))
	}

	if s.cfg.Language == "en" {
		b.WriteString("\nRatings:\n")
	} else {
		b.WriteString("\nPuan Dağılımı:\n")
	}
	for star := 5; star >= 1; star-- {
		n := in.Aggregate.Ratings[star]
		fmt.Fprintf(&b, "- %d★: %d (%.1f%%)\n", star, n, Percent(n, st.Total))
	}

	if s.cfg.Language == "en" {
		b.WriteString("\nSample reviews:\n")
	} else {
		b.WriteString("\nSon Yorumlardan Örnekler:\n")
	}
	for i, r := range in.Reviews {
		if i == promptSampleCount {
			break
		}
		fmt.Fprintf(&b, "- %s: %q\n", strings.ToUpper(string(r.Sentiment)), truncateRunes(r.Text, 280))
	}
	return b.String()
}

// orderedLabels lists counted categories in taxonomy order, unknown labels last.
func (s *Summarizer) orderedLabels(counts domain.CategoryCounts) []string {
	out := make([]string, 0, len(counts))
	seen := map[string]bool{}
	for _, l := range s.labels {
		if counts[l] > 0 {
			out = append(out, l)
			seen[l] = true
		}
	}
	var rest []string
	for l, n := range counts {
		if n > 0 && !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
