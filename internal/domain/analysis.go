package domain

import "time"

type AppInfo struct {
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Developer      string  `json:"developer,omitempty"`
	Icon           string  `json:"icon,omitempty"`
	Score          float64 `json:"score,omitempty"`
	Ratings        int64   `json:"ratings,omitempty"`
	Reviews        int64   `json:"reviews,omitempty"`
	CurrentVersion string  `json:"currentVersion,omitempty"`
	Price          string  `json:"price,omitempty"`
	Genre          string  `json:"genre,omitempty"`
}

// Statistics counts sentiments; Mixed and Failed are sub-counts of Neutral.
type Statistics struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Mixed    int `json:"mixed"`
	Failed   int `json:"failedCount"`
}

type CategoryCounts map[string]int

// RatingHistogram is keyed by star value 1..5.
type RatingHistogram map[int]int

type TrendPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Positive int    `json:"positive"`
	Neutral  int    `json:"neutral"`
	Negative int    `json:"negative"`
}

type Aggregate struct {
	Statistics Statistics      `json:"statistics"`
	Categories CategoryCounts  `json:"categories"`
	Ratings    RatingHistogram `json:"ratings"`
	Unrated    int             `json:"unrated"`
	Trend      []TrendPoint    `json:"trend"`
}

type AnalysisRecord struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"ownerId"`
	Platform    Platform            `json:"platform"`
	AppID       string              `json:"appId"`
	AppInfo     AppInfo             `json:"appInfo"`
	Reviews     []CategorizedReview `json:"reviews"`
	Statistics  Statistics          `json:"statistics"`
	Categories  CategoryCounts      `json:"categories"`
	Ratings     RatingHistogram     `json:"ratings"`
	Trend       []TrendPoint        `json:"trend"`
	InsightText string              `json:"insightText"`
	Warnings    []string            `json:"warnings,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// AnalysisSummary is the list-view projection of an AnalysisRecord.
type AnalysisSummary struct {
	ID         string     `json:"id"`
	Platform   Platform   `json:"platform"`
	AppID      string     `json:"appId"`
	AppTitle   string     `json:"appTitle"`
	Statistics Statistics `json:"statistics"`
	CreatedAt  time.Time  `json:"createdAt"`
}
