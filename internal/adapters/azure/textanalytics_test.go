package azure_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpulse/internal/adapters/azure"
	"reviewpulse/internal/domain"
)

func TestAnalyzeSentiment_MapsDocumentsAndErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text/analytics/v3.1/sentiment", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))

		var req struct {
			Documents []struct{ ID, Language, Text string } `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Documents, 3)
		assert.Equal(t, "tr", req.Documents[0].Language)

		// answer out of order to prove results are re-aligned by id
		_, _ = w.Write([]byte(`{
			"documents":[
				{"id":"2","sentiment":"negative","confidenceScores":{"positive":0.05,"neutral":0.05,"negative":0.9}},
				{"id":"0","sentiment":"positive","confidenceScores":{"positive":0.9,"neutral":0.1,"negative":0}}
			],
			"errors":[{"id":"1","error":{"code":"InvalidDocument","message":"Document text is empty."}}]
		}`))
	}))
	defer ts.Close()

	cl, err := azure.New(ts.URL, "secret", 100)
	require.NoError(t, err)

	got, err := cl.AnalyzeSentiment(context.Background(), []domain.SentimentDocument{
		{ID: "0", Text: "harika", Language: "tr"},
		{ID: "1", Text: "x", Language: "tr"},
		{ID: "2", Text: "berbat", Language: "tr"},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.SentimentPositive, got[0].Sentiment)
	assert.Empty(t, got[0].Err)

	assert.Equal(t, domain.SentimentNeutral, got[1].Sentiment)
	assert.Equal(t, domain.FallbackConfidence, got[1].Confidence)
	assert.Equal(t, "Document text is empty.", got[1].Err)

	assert.Equal(t, domain.SentimentNegative, got[2].Sentiment)
	assert.InDelta(t, 0.9, got[2].Confidence.Negative, 1e-9)
}

func TestAnalyzeSentiment_BatchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, err := azure.New(ts.URL, "bad", 100)
	require.NoError(t, err)

	_, err = cl.AnalyzeSentiment(context.Background(), []domain.SentimentDocument{{ID: "0", Text: "a"}})
	assert.Error(t, err)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := azure.New("", "k", 1)
	assert.Error(t, err)
	_, err = azure.New("http://x", "", 1)
	assert.Error(t, err)
}
