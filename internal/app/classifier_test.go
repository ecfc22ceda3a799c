package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

func TestClassify_PreservesOrderAcrossChunks(t *testing.T) {
	in := make([]domain.Review, 23)
	for i := range in {
		in[i] = domain.Review{ID: fmt.Sprintf("r%02d", i), Text: fmt.Sprintf("yorum %d", i)}
	}
	svc := &fakeSentiment{}
	c := app.NewClassifier(svc, "tr")

	got, err := c.Classify(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 3, svc.calls)
	assert.Equal(t, 3, got.Chunks)
	require.Len(t, got.Reviews, 23)
	for i, r := range got.Reviews {
		assert.Equal(t, in[i].ID, r.ID)
		assert.Equal(t, domain.SentimentPositive, r.Sentiment)
	}
	assert.NoError(t, got.Partial())
}

func TestClassify_PerDocumentError(t *testing.T) {
	svc := &fakeSentiment{fn: func(_ int, docs []domain.SentimentDocument) ([]domain.SentimentResult, error) {
		out, _ := allAs(domain.SentimentNegative)(0, docs)
		out[1] = domain.SentimentResult{ID: docs[1].ID, Err: "InvalidDocument"}
		return out, nil
	}}
	c := app.NewClassifier(svc, "tr")

	got, err := c.Classify(context.Background(), reviews(3, "kötü", 1))
	require.NoError(t, err)

	assert.Equal(t, domain.SentimentNegative, got.Reviews[0].Sentiment)
	assert.Equal(t, domain.SentimentNeutral, got.Reviews[1].Sentiment)
	assert.Equal(t, domain.FallbackConfidence, got.Reviews[1].ConfidenceScores)
	assert.True(t, got.Reviews[1].ClassificationFailed)
	assert.Equal(t, 1, got.FailedCount)
	assert.Equal(t, 0, got.FailedChunks)
}

func TestClassify_OneChunkFailsOthersContinue(t *testing.T) {
	svc := &fakeSentiment{fn: func(call int, docs []domain.SentimentDocument) ([]domain.SentimentResult, error) {
		if call == 2 {
			return nil, errUpstream
		}
		return allAs(domain.SentimentPositive)(call, docs)
	}}
	c := app.NewClassifier(svc, "tr")

	got, err := c.Classify(context.Background(), reviews(25, "güzel", 5))
	require.NoError(t, err)

	require.Len(t, got.Reviews, 25)
	assert.Equal(t, 1, got.FailedChunks)
	assert.Equal(t, 10, got.FailedCount)
	for i, r := range got.Reviews {
		if i >= 10 && i < 20 {
			assert.Equal(t, domain.SentimentNeutral, r.Sentiment)
			assert.True(t, r.ClassificationFailed)
		} else {
			assert.Equal(t, domain.SentimentPositive, r.Sentiment)
		}
	}
	perr := got.Partial()
	assert.ErrorIs(t, perr, domain.ErrClassificationPartial)
}

func TestClassify_AllChunksFailedIsUnavailable(t *testing.T) {
	c := app.NewClassifier(&fakeSentiment{fn: failing}, "tr")

	_, err := c.Classify(context.Background(), reviews(20, "x", 3))

	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestClassify_SingleFailedChunkIsPartial(t *testing.T) {
	c := app.NewClassifier(&fakeSentiment{fn: failing}, "tr")

	got, err := c.Classify(context.Background(), reviews(10, "x", 3))
	require.NoError(t, err)
	assert.Equal(t, 10, got.FailedCount)

	// a stricter threshold turns the same situation into a hard failure
	_, err = c.WithUnavailableAfter(1).Classify(context.Background(), reviews(10, "x", 3))
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestClassify_RejectsEmptyText(t *testing.T) {
	svc := &fakeSentiment{}
	c := app.NewClassifier(svc, "tr")

	in := reviews(2, "ok", 4)
	in[1].Text = "   "
	_, err := c.Classify(context.Background(), in)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "reviews[1].text", ve.Field)
	assert.Zero(t, svc.calls)
}

func TestClassify_InvalidChunkSize(t *testing.T) {
	c := app.NewClassifier(&fakeSentiment{}, "tr").WithChunkSize(0)

	_, err := c.Classify(context.Background(), reviews(2, "ok", 4))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClassify_Empty(t *testing.T) {
	svc := &fakeSentiment{}
	got, err := app.NewClassifier(svc, "tr").Classify(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
	assert.Zero(t, svc.calls)
}
