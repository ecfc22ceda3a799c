package domain

import "time"

type Platform string

const (
	PlatformGoogle Platform = "google"
	PlatformApple  Platform = "apple"
)

func (p Platform) Valid() bool { return p == PlatformGoogle || p == PlatformApple }

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

// ParseSentiment maps an upstream label onto the closed set; anything unknown is neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentMixed:
		return Sentiment(s)
	}
	return SentimentNeutral
}

// Review is the normalized shape every source adapter produces.
type Review struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Score     int       `json:"score"` // 1..5, 0 when unknown
	Date      time.Time `json:"date"`
	Version   string    `json:"version,omitempty"`
	ThumbsUp  int       `json:"thumbsUp,omitempty"`
	ReplyText string    `json:"replyText,omitempty"`
}

type ConfidenceScores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// FallbackConfidence is used whenever the sentiment service could not score a document.
var FallbackConfidence = ConfidenceScores{Positive: 0, Neutral: 1, Negative: 0}

type ClassifiedReview struct {
	Review
	Sentiment            Sentiment        `json:"sentiment"`
	ConfidenceScores     ConfidenceScores `json:"confidenceScores"`
	ClassificationFailed bool             `json:"classificationFailed,omitempty"`
}

type CategorizedReview struct {
	ClassifiedReview
	MainCategory   string   `json:"mainCategory"`
	SubCategory    string   `json:"subCategory"`
	Categories     []string `json:"categories"`
	Keywords       []string `json:"keywords"`
	SentimentScore int      `json:"sentimentScore"`
}

// SentimentScore derives a 0..100 score from confidence values (50 is neutral).
func SentimentScore(c ConfidenceScores) int {
	v := 50 + 50*(c.Positive-c.Negative)
	switch {
	case v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return int(v + 0.5)
}
