package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

func compareSource() *fakeSource {
	return &fakeSource{
		platform: domain.PlatformGoogle,
		res: map[string]domain.FetchResult{
			"com.main": {App: domain.AppInfo{Title: "Main"}, Reviews: reviews(4, "harika", 5)},
			"com.c1":   {App: domain.AppInfo{Title: "C1"}, Reviews: reviews(2, "çok yavaş", 2)},
		},
		err: map[string]error{
			"com.gone": &domain.FetchFailedError{Source: "google-play", Status: 404, Message: "gone"},
		},
	}
}

func TestCompare_OrderAndCompetitorFailure(t *testing.T) {
	e := newEnv(compareSource(), 0)
	cs := app.NewCompareService(e.svc, 3)

	res, err := cs.Compare(context.Background(), app.CompareRequest{
		Platform: domain.PlatformGoogle, MainAppID: "com.main", Competitors: []string{"com.c1", "com.gone"},
	})
	require.NoError(t, err)
	require.Len(t, res.Analyses, 3)

	main := res.Analyses[0]
	assert.True(t, main.Main)
	assert.Equal(t, "Main", main.AppName)
	assert.Equal(t, 4, main.Statistics.Positive)
	assert.Equal(t, 100.0, main.SentimentScore)

	assert.Equal(t, "C1", res.Analyses[1].AppName)
	assert.Empty(t, res.Analyses[1].Error)

	assert.Equal(t, "com.gone", res.Analyses[2].AppID)
	assert.NotEmpty(t, res.Analyses[2].Error)

	// nothing is stored and no insight is generated
	assert.Empty(t, e.repo.saved)
	assert.Zero(t, e.gen.calls)
}

func TestCompare_MainFailureFails(t *testing.T) {
	e := newEnv(compareSource(), 0)
	cs := app.NewCompareService(e.svc, 1)

	_, err := cs.Compare(context.Background(), app.CompareRequest{
		Platform: domain.PlatformGoogle, MainAppID: "com.gone", Competitors: []string{"com.c1"},
	})

	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestCompare_Validation(t *testing.T) {
	cs := app.NewCompareService(newEnv(compareSource(), 0).svc, 1)

	_, err := cs.Compare(context.Background(), app.CompareRequest{Platform: domain.PlatformGoogle, MainAppID: "com.main"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = cs.Compare(context.Background(), app.CompareRequest{
		Platform: domain.PlatformGoogle, MainAppID: "com.main",
		Competitors: []string{"a.b", "c.d", "e.f", "g.h", "i.j", "k.l"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
