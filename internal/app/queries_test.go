package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

func seeded(n int) *fakeRepo {
	r := &fakeRepo{}
	for i := 0; i < n; i++ {
		r.saved = append(r.saved, domain.AnalysisRecord{
			ID:        string(rune('a' + i)),
			OwnerID:   "o1",
			Platform:  domain.PlatformGoogle,
			AppID:     "com.demo",
			AppInfo:   domain.AppInfo{Title: "Demo"},
			CreatedAt: day.Add(time.Duration(i) * time.Minute),
		})
	}
	return r
}

func TestListRecent_NewestFirstAndCached(t *testing.T) {
	repo := seeded(5)
	cache := &fakeCache{}
	q := app.NewHistoryService(repo, cache, 10*time.Minute)

	out, err := q.ListRecent(context.Background(), "o1", 3)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 3 || out[0].ID != "e" || out[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", out)
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.saved[4].AppInfo.Title = "SHOULD NOT SEE THIS"

	out2, err := q.ListRecent(context.Background(), "o1", 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.lists != 1 {
		t.Fatalf("expected a single repo read, got %d", repo.lists)
	}
	if len(out2) != 5 || out2[0].AppTitle != "Demo" {
		t.Fatalf("expected cached list, got %+v", out2)
	}
}

// gatedRepo holds ListRecent until release is closed.
type gatedRepo struct {
	*fakeRepo
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *gatedRepo) ListRecent(ctx context.Context, owner string, limit int) ([]domain.AnalysisSummary, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeRepo.ListRecent(ctx, owner, limit)
}

func TestListRecent_SharedLoadSurvivesCancelledCaller(t *testing.T) {
	repo := &gatedRepo{fakeRepo: seeded(3), started: make(chan struct{}), release: make(chan struct{})}
	q := app.NewHistoryService(repo, &fakeCache{}, time.Minute)

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := q.ListRecent(ctx1, "o1", 3)
		first <- err
	}()
	<-repo.started

	type result struct {
		out []domain.AnalysisSummary
		err error
	}
	second := make(chan result, 1)
	go func() {
		out, err := q.ListRecent(context.Background(), "o1", 3)
		second <- result{out, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}
	close(repo.release)

	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("live caller failed: %v", res.err)
		}
		if len(res.out) != 3 || res.out[0].ID != "c" {
			t.Fatalf("unexpected list: %+v", res.out)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("live caller never returned")
	}
}

func TestListRecent_EmptyIsNotNil(t *testing.T) {
	q := app.NewHistoryService(&fakeRepo{}, &fakeCache{}, time.Minute)

	out, err := q.ListRecent(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice, got %#v", out)
	}
}

func TestGet_CacheAndOwnership(t *testing.T) {
	repo := seeded(2)
	cache := &fakeCache{}
	q := app.NewHistoryService(repo, cache, time.Minute)

	rec, err := q.Get(context.Background(), "o1", "a")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rec.ID != "a" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, ok := cache.store["analysis:a"]; !ok {
		t.Fatalf("expected record cached")
	}

	if _, err := q.Get(context.Background(), "someone-else", "a"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if _, err := q.Get(context.Background(), "o1", "zzz"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
