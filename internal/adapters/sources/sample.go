package sources

import (
	"fmt"
	"hash/fnv"
	"time"

	"reviewpulse/internal/domain"
)

var sampleTexts = []struct {
	title string
	text  string
	score int
}{
	{"Harika", "Uygulama harika, çok memnunum.", 5},
	{"Yavaş", "Son güncellemeden sonra uygulama çok yavaş açılıyor.", 2},
	{"Reklamlar", "Reklamlar çok fazla, içerik güzel ama rahatsız edici.", 3},
	{"Giriş sorunu", "Giriş yapamıyorum, sürekli hata veriyor.", 1},
	{"Fiyat", "Abonelik fiyatı çok pahalı.", 2},
	{"Kullanışlı", "Arayüz sade ve kullanımı kolay.", 4},
	{"Destek", "Müşteri hizmetleri yanıt vermiyor.", 1},
	{"İdare eder", "Fena değil, yeni özellikler bekliyorum.", 3},
}

// Sample builds a deterministic synthetic review set for appID. Callers must
// flag the result; it never represents real user feedback.
func Sample(appID string, n int, now time.Time) []domain.Review {
	if n <= 0 {
		n = len(sampleTexts)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(appID))
	off := int(h.Sum32() % uint32(len(sampleTexts)))

	out := make([]domain.Review, 0, n)
	for i := 0; i < n; i++ {
		s := sampleTexts[(off+i)%len(sampleTexts)]
		out = append(out, domain.Review{
			ID:       fmt.Sprintf("sample-%s-%d", appID, i+1),
			UserName: fmt.Sprintf("Örnek Kullanıcı %d", i+1),
			Title:    s.title,
			Text:     s.text,
			Score:    s.score,
			Date:     now.Add(-time.Duration(i) * time.Hour).UTC(),
		})
	}
	return out
}
