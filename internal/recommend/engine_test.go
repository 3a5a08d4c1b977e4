// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package recommend

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/recommend/scoring"
	"github.com/tomtom215/shopranker/internal/store"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// fakeSource is an in-test Source with error injection.
type fakeSource struct {
	mu       sync.Mutex
	products []models.Product
	records  map[string]models.InteractionRecord

	listErr error
	getErr  error
	recErr  error

	lists int
}

func (f *fakeSource) GetProduct(_ context.Context, id string) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.Product{}, f.getErr
	}
	for _, p := range f.products {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return models.Product{}, models.NotFoundf("get product", id)
}

func (f *fakeSource) ListProducts(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Product
	for _, p := range f.products {
		if filter.Match(&p) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (f *fakeSource) GetInteractions(_ context.Context, userID string) (models.InteractionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recErr != nil {
		return models.InteractionRecord{}, f.recErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return models.InteractionRecord{}, models.NotFoundf("get interactions", userID)
	}
	return rec, nil
}

func (f *fakeSource) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

var errDown = models.NewError(models.ErrStorageUnavailable, "list_products", "", errors.New("connection refused"))

func item(id, category string, mutate func(*models.Product)) models.Product {
	p := models.Product{ID: id, Name: id, Category: category, IsActive: true, CreatedAt: t0}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func newTestEngine(t *testing.T, src Source, mutate func(*config.RankingConfig)) *Engine {
	t.Helper()
	cfg := config.Defaults().Ranking
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(src, nil, &cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func ids(resp Response) []string {
	out := make([]string, len(resp.Items))
	for i, it := range resp.Items {
		out[i] = it.ID
	}
	return out
}

func TestTrendingWithinCategory(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{
		item("C", "men", func(p *models.Product) { p.Analytics.Views = 1000 }),
		item("B", "women", func(p *models.Product) { p.Analytics = models.Counters{Views: 50, Purchases: 20} }),
		item("A", "women", func(p *models.Product) { p.Analytics = models.Counters{Views: 100, Purchases: 5} }),
	}}
	e := newTestEngine(t, src, nil)

	resp, err := e.Trending(context.Background(), "women", 2)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if got := ids(resp); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("ids = %v, want [A B]", got)
	}
	if resp.Degraded || resp.Limit != 2 || resp.Surface != models.SurfaceTrending {
		t.Errorf("resp = %+v", resp)
	}
	for i, it := range resp.Items {
		if it.Rank != i+1 || it.Reason != "Popular this week" || it.Trending == nil {
			t.Errorf("item %d = %+v", i, it)
		}
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score %v out of range", it.Score)
		}
	}
	if resp.Items[0].Trending.ViewCount != 100 {
		t.Errorf("trending detail = %+v", resp.Items[0].Trending)
	}
}

func TestLimitResolution(t *testing.T) {
	t.Parallel()
	var products []models.Product
	for i := range 60 {
		products = append(products, item(string(rune('a'+i%26))+string(rune('a'+i/26)), "women", nil))
	}
	e := newTestEngine(t, &fakeSource{products: products}, nil)

	tests := []struct {
		name    string
		surface models.Surface
		limit   int
		want    int
		wantErr bool
	}{
		{"trending default", models.SurfaceTrending, 0, 10, false},
		{"suggested default", models.SurfaceSuggested, 0, 10, false},
		{"recent default", models.SurfaceRecent, 0, 8, false},
		{"category default", models.SurfaceCategory, 0, 8, false},
		{"explicit", models.SurfaceTrending, 3, 3, false},
		{"max", models.SurfaceRecent, 50, 50, false},
		{"above max", models.SurfaceTrending, 51, 0, true},
		{"negative", models.SurfaceRecent, -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := e.Rank(context.Background(), models.SurfaceRequest{Surface: tt.surface, Category: "women", Limit: tt.limit})
			if tt.wantErr {
				if !models.IsInvalid(err) {
					t.Fatalf("err = %v, want InvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if len(resp.Items) != tt.want || resp.Limit != tt.want {
				t.Errorf("len = %d limit = %d, want %d", len(resp.Items), resp.Limit, tt.want)
			}
		})
	}
}

func TestLimitCeilingIgnoresConfiguredMax(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeSource{}, func(c *config.RankingConfig) {
		c.Limits.Max = 500
		c.Limits.Trending = 200
	})

	if _, err := e.ResolveLimit(models.SurfaceTrending, 51); !models.IsInvalid(err) {
		t.Errorf("ResolveLimit(51) error = %v, want InvalidRequest", err)
	}
	got, err := e.ResolveLimit(models.SurfaceTrending, 0)
	if err != nil {
		t.Fatalf("ResolveLimit(0) error = %v", err)
	}
	if got != config.MaxLimit {
		t.Errorf("default limit = %d, want %d", got, config.MaxLimit)
	}
}

func TestFewerCandidatesThanLimit(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeSource{products: []models.Product{item("a", "women", nil)}}, nil)
	resp, err := e.Recent(context.Background(), "", 50)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("len = %d, want 1", len(resp.Items))
	}
}

func TestInactiveNeverReturned(t *testing.T) {
	t.Parallel()
	inactive := func(p *models.Product) { p.IsActive = false; p.Rating.Average = 5; p.Analytics.Views = 1e6 }
	src := &fakeSource{products: []models.Product{
		item("subject", "women", nil),
		item("live", "women", nil),
		item("dead", "women", inactive),
	}}
	e := newTestEngine(t, src, nil)
	ctx := context.Background()

	requests := []models.SurfaceRequest{
		{Surface: models.SurfaceTrending},
		{Surface: models.SurfaceSuggested},
		{Surface: models.SurfaceSimilar, SubjectID: "subject"},
		{Surface: models.SurfaceRecent},
		{Surface: models.SurfaceCategory, Category: "women"},
	}
	for _, req := range requests {
		resp, err := e.Rank(ctx, req)
		if err != nil {
			t.Fatalf("%s: %v", req.Surface, err)
		}
		if slices.Contains(ids(resp), "dead") {
			t.Errorf("%s returned an inactive product: %v", req.Surface, ids(resp))
		}
	}
}

func TestSimilar(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{
		item("s", "women", func(p *models.Product) { p.Brand = "StyleHub" }),
		item("cat", "women", func(p *models.Product) { p.Rating.Average = 4 }),
		item("brand", "men", func(p *models.Product) { p.Brand = "StyleHub"; p.Rating.Average = 4.5 }),
		item("other", "kids", nil),
	}}
	e := newTestEngine(t, src, nil)

	resp, err := e.Similar(context.Background(), "s", 0)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if got := ids(resp); !slices.Equal(got, []string{"brand", "cat"}) {
		t.Errorf("ids = %v, want [brand cat]", got)
	}
	if resp.Limit != 6 || resp.Items[0].Reason != "Similar to your viewed item" {
		t.Errorf("resp = %+v", resp)
	}

	_, err = e.Similar(context.Background(), "missing", 0)
	if !models.IsNotFound(err) {
		t.Errorf("unknown subject err = %v, want NotFound", err)
	}
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeSource{}, nil)
	ctx := context.Background()

	if _, err := e.Similar(ctx, "  ", 0); !models.IsInvalid(err) {
		t.Errorf("blank similar subject err = %v", err)
	}
	if _, err := e.Category(ctx, "", 0); !models.IsInvalid(err) {
		t.Errorf("missing category err = %v", err)
	}
	if _, err := e.Rank(ctx, models.SurfaceRequest{Surface: "bestsellers"}); !errors.Is(err, models.ErrValidationFailed) {
		t.Errorf("unknown surface err = %v", err)
	}
}

func TestSuggestedPersonalization(t *testing.T) {
	t.Parallel()
	products := []models.Product{
		item("w", "women", func(p *models.Product) { p.Brand = "StyleHub"; p.Price = 2000; p.Rating.Average = 4 }),
		item("m", "men", func(p *models.Product) { p.Brand = "Other"; p.Price = 100; p.Rating.Average = 5 }),
	}
	src := &fakeSource{
		products: products,
		records: map[string]models.InteractionRecord{
			"u1": {UserID: "u1", Interactions: []models.Interaction{
				{Type: models.InteractionPurchase, ProductID: "w", Category: "women", Brand: "StyleHub", Price: 2000, Timestamp: t0},
			}},
		},
	}
	e := newTestEngine(t, src, nil)
	ctx := context.Background()

	resp, err := e.Suggested(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("Suggested() error = %v", err)
	}
	if got := ids(resp); !slices.Equal(got, []string{"w", "m"}) {
		t.Errorf("personalized ids = %v", got)
	}
	if resp.Strategy != "personalized" || resp.Items[0].Reason != "Based on your preferences" {
		t.Errorf("strategy = %q reason = %q", resp.Strategy, resp.Items[0].Reason)
	}

	resp, err = e.Suggested(ctx, "stranger", 0)
	if err != nil {
		t.Fatalf("Suggested() error = %v", err)
	}
	if got := ids(resp); !slices.Equal(got, []string{"m", "w"}) || resp.Strategy != "unpersonalized" {
		t.Errorf("anonymous ids = %v strategy = %q", got, resp.Strategy)
	}
	if resp.Items[0].Reason != "Popular choice" {
		t.Errorf("reason = %q", resp.Items[0].Reason)
	}
}

func TestSuggestedRecordFailureIsSilent(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		products: []models.Product{item("a", "women", nil)},
		recErr:   models.NewError(models.ErrStorageUnavailable, "get_interactions", "u1", errors.New("timeout")),
	}
	e := newTestEngine(t, src, nil)

	resp, err := e.Suggested(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Suggested() error = %v", err)
	}
	if resp.Degraded || resp.Strategy != "unpersonalized" || len(resp.Items) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDegradedMode(t *testing.T) {
	t.Parallel()
	src := &fakeSource{listErr: errDown, getErr: errDown}
	e := newTestEngine(t, src, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SurfaceRequest
		want []string
	}{
		{"trending", models.SurfaceRequest{Surface: models.SurfaceTrending}, []string{"trending-1", "trending-2", "trending-3"}},
		{"trending limited", models.SurfaceRequest{Surface: models.SurfaceTrending, Limit: 1}, []string{"trending-1"}},
		{"trending women", models.SurfaceRequest{Surface: models.SurfaceTrending, Category: "women"}, []string{"trending-1", "trending-3"}},
		{"trending unknown category", models.SurfaceRequest{Surface: models.SurfaceTrending, Category: "garden"}, []string{"trending-1", "trending-2", "trending-3"}},
		{"suggested", models.SurfaceRequest{Surface: models.SurfaceSuggested, SubjectID: "u1"}, []string{"suggested-1"}},
		{"similar", models.SurfaceRequest{Surface: models.SurfaceSimilar, SubjectID: "p1"}, []string{"suggested-1"}},
		{"similar excludes subject", models.SurfaceRequest{Surface: models.SurfaceSimilar, SubjectID: "suggested-1"}, []string{}},
		{"recent", models.SurfaceRequest{Surface: models.SurfaceRecent}, []string{"suggested-1"}},
		{"category", models.SurfaceRequest{Surface: models.SurfaceCategory, Category: "women"}, []string{"suggested-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := e.Rank(ctx, tt.req)
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if !resp.Degraded {
				t.Error("Degraded = false")
			}
			if got := ids(resp); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if len(resp.Items) > resp.Limit {
				t.Errorf("len %d exceeds limit %d", len(resp.Items), resp.Limit)
			}
		})
	}
}

func TestDegradedCategoryReasons(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeSource{listErr: errDown, getErr: errDown}, nil)

	resp, err := e.Category(context.Background(), "women", 0)
	if err != nil {
		t.Fatalf("Category() error = %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Product.Category == "women" {
		t.Fatalf("items = %+v", resp.Items)
	}
	if got := resp.Items[0].Reason; got != scoring.ReasonPopular {
		t.Errorf("reason = %q, want %q", got, scoring.ReasonPopular)
	}
}

func TestDegradedSimilarKeepsKnownSubject(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		products: []models.Product{item("p1", "men", func(p *models.Product) { p.Brand = "ComfortWear" })},
		listErr:  errDown,
	}
	e := newTestEngine(t, src, nil)

	resp, err := e.Similar(context.Background(), "p1", 0)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if !resp.Degraded || !slices.Equal(ids(resp), []string{"suggested-1"}) {
		t.Errorf("resp = %+v", resp)
	}
}

func TestNonOutageErrorsPropagate(t *testing.T) {
	t.Parallel()
	src := &fakeSource{listErr: models.Invalidf("list_products", "bad filter")}
	e := newTestEngine(t, src, nil)

	if _, err := e.Trending(context.Background(), "", 0); !models.IsInvalid(err) {
		t.Errorf("err = %v, want InvalidRequest", err)
	}
}

func TestDeterministicAcrossSourceOrder(t *testing.T) {
	t.Parallel()
	products := []models.Product{
		item("c", "women", func(p *models.Product) { p.Rating.Average = 4 }),
		item("a", "women", func(p *models.Product) { p.Rating.Average = 4 }),
		item("b", "women", func(p *models.Product) { p.Rating.Average = 4 }),
	}
	reversed := slices.Clone(products)
	slices.Reverse(reversed)

	ctx := context.Background()
	for _, surface := range []models.Surface{models.SurfaceTrending, models.SurfaceSuggested, models.SurfaceRecent} {
		first, err := newTestEngine(t, &fakeSource{products: products}, nil).Rank(ctx, models.SurfaceRequest{Surface: surface})
		if err != nil {
			t.Fatal(err)
		}
		second, err := newTestEngine(t, &fakeSource{products: reversed}, nil).Rank(ctx, models.SurfaceRequest{Surface: surface})
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(ids(first), ids(second)) || !slices.Equal(ids(first), []string{"a", "b", "c"}) {
			t.Errorf("%s: %v vs %v", surface, ids(first), ids(second))
		}
	}
}

func TestCandidateFilter(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{
		item("cheap", "women", func(p *models.Product) { p.Price = 500 }),
		item("pricey", "women", func(p *models.Product) { p.Price = 9000 }),
	}}
	e := newTestEngine(t, src, func(c *config.RankingConfig) { c.CandidateFilter = "product.price < 1000.0" })

	resp, err := e.Recent(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if !slices.Equal(ids(resp), []string{"cheap"}) {
		t.Errorf("ids = %v", ids(resp))
	}
}

func TestCandidateFilterEvalErrorKeepsProduct(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{
		item("tagged", "women", func(p *models.Product) { p.Tags = []string{"sale"} }),
		item("untagged", "women", nil),
	}}
	e := newTestEngine(t, src, func(c *config.RankingConfig) { c.CandidateFilter = `product.tags[0] == "sale"` })

	resp, err := e.Recent(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if !slices.Equal(ids(resp), []string{"tagged", "untagged"}) {
		t.Errorf("ids = %v", ids(resp))
	}
}

func TestCandidateFilterCompileError(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults().Ranking
	cfg.CandidateFilter = "product.price <"
	if _, err := NewEngine(&fakeSource{}, nil, &cfg, zerolog.Nop()); err == nil {
		t.Error("NewEngine() accepted a broken filter")
	}
}

func TestResultCache(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{item("a", "women", nil)}}
	e := newTestEngine(t, src, func(c *config.RankingConfig) { c.Cache.Enabled = true })
	ctx := context.Background()

	first, err := e.Trending(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Trending(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v/%v, want false/true", first.Cached, second.Cached)
	}
	if src.listCalls() != 1 {
		t.Errorf("list calls = %d, want 1", src.listCalls())
	}
	if !slices.Equal(ids(first), ids(second)) {
		t.Error("cached response differs")
	}

	// A different limit is a different key.
	if _, err := e.Trending(ctx, "", 1); err != nil {
		t.Fatal(err)
	}
	if src.listCalls() != 2 {
		t.Errorf("list calls = %d, want 2", src.listCalls())
	}
}

func TestDegradedResponsesAreNotCached(t *testing.T) {
	t.Parallel()
	src := &fakeSource{listErr: errDown}
	e := newTestEngine(t, src, func(c *config.RankingConfig) { c.Cache.Enabled = true })
	ctx := context.Background()

	for range 2 {
		resp, err := e.Recent(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if resp.Cached {
			t.Error("degraded response served from cache")
		}
	}
	if src.listCalls() != 2 {
		t.Errorf("list calls = %d, want 2", src.listCalls())
	}
}

func TestCanceledCallerGetsError(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeSource{listErr: errDown}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Recent(ctx, "", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEngineOverGuardedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.New(store.NewMemory(), &config.Defaults().Storage)
	for _, p := range []models.Product{
		item("A", "women", func(p *models.Product) { p.Analytics = models.Counters{Views: 100, Purchases: 5} }),
		item("B", "women", func(p *models.Product) { p.Analytics = models.Counters{Views: 50, Purchases: 20} }),
		item("C", "men", nil),
	} {
		if err := st.PutProduct(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	e := newTestEngine(t, st, nil)

	if _, err := st.IncrementView(ctx, "B"); err != nil {
		t.Fatal(err)
	}
	resp, err := e.Trending(ctx, "women", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(resp), []string{"A", "B"}) || resp.Items[1].Trending.ViewCount != 51 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSweepCache(t *testing.T) {
	t.Parallel()
	src := &fakeSource{products: []models.Product{item("a", "women", nil)}}
	e := newTestEngine(t, src, func(c *config.RankingConfig) {
		c.Cache.Enabled = true
		c.Cache.TTL = time.Millisecond
	})
	ctx := context.Background()

	if _, err := e.Trending(ctx, "", 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := e.SweepCache(ctx); err != nil {
		t.Fatal(err)
	}
	resp, err := e.Trending(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Cached {
		t.Error("expired entry served after sweep")
	}
	if src.listCalls() != 2 {
		t.Errorf("list calls = %d, want 2", src.listCalls())
	}

	uncached := newTestEngine(t, src, nil)
	if err := uncached.SweepCache(ctx); err != nil {
		t.Errorf("SweepCache without cache = %v", err)
	}
}
