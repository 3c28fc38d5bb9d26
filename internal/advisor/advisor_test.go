package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
)

type stubSuggester struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context) (domain.Suggestion, error)
}

func (s *stubSuggester) Suggest(ctx context.Context, _ domain.SuggestionRequest) (domain.Suggestion, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(ctx)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]domain.Suggestion
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.Suggestion, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	return &v, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.Suggestion, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = *value
	return nil
}

func sampleRequest() domain.SuggestionRequest {
	return domain.SuggestionRequest{
		CustomerName: "Ana",
		Lines: []domain.CartLine{
			{ProductID: "1", Name: "Artisan Cappuccino", Price: decimal.RequireFromString("4.50"), Category: domain.CategoryCoffee, Quantity: 2},
		},
	}
}

func TestAdvisorFallsBackOnError(t *testing.T) {
	stub := &stubSuggester{fn: func(context.Context) (domain.Suggestion, error) {
		return domain.Suggestion{}, errors.New("quota exceeded")
	}}
	a := New(stub, nil, Options{})

	got := a.Suggest(context.Background(), sampleRequest())
	assert.Equal(t, domain.SuggestionSourceFallback, got.Source)
	assert.Equal(t, "Thank you for your purchase, Ana!", got.ThankYouNote)
	assert.Empty(t, got.UpsellSuggestion)
}

func TestAdvisorFallsBackOnTimeout(t *testing.T) {
	stub := &stubSuggester{fn: func(ctx context.Context) (domain.Suggestion, error) {
		<-ctx.Done()
		return domain.Suggestion{}, ctx.Err()
	}}
	a := New(stub, nil, Options{Timeout: 20 * time.Millisecond})

	started := time.Now()
	got := a.Suggest(context.Background(), sampleRequest())
	assert.Equal(t, domain.SuggestionSourceFallback, got.Source)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestAdvisorCachesSuccessfulSuggestions(t *testing.T) {
	stub := &stubSuggester{fn: func(context.Context) (domain.Suggestion, error) {
		return domain.Suggestion{UpsellSuggestion: "Try the cheesecake", ThankYouNote: "Enjoy, Ana!", Source: domain.SuggestionSourceGemini}, nil
	}}
	c := &mapCache{data: map[string]domain.Suggestion{}}
	a := New(stub, c, Options{})

	first := a.Suggest(context.Background(), sampleRequest())
	second := a.Suggest(context.Background(), sampleRequest())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls)
}

func TestAdvisorDoesNotCacheFallback(t *testing.T) {
	stub := &stubSuggester{fn: func(context.Context) (domain.Suggestion, error) {
		return domain.Suggestion{}, errors.New("down")
	}}
	c := &mapCache{data: map[string]domain.Suggestion{}}
	a := New(stub, c, Options{})

	a.Suggest(context.Background(), sampleRequest())
	a.Suggest(context.Background(), sampleRequest())
	assert.Equal(t, 2, stub.calls)
	assert.Empty(t, c.data)
}

func TestAdvisorFillsMissingNote(t *testing.T) {
	stub := &stubSuggester{fn: func(context.Context) (domain.Suggestion, error) {
		return domain.Suggestion{UpsellSuggestion: "Add a muffin", Source: domain.SuggestionSourceLocal}, nil
	}}
	got := New(stub, nil, Options{}).Suggest(context.Background(), domain.SuggestionRequest{Lines: sampleRequest().Lines})
	assert.Equal(t, "Thank you for your purchase, Walk-in Customer!", got.ThankYouNote)
	assert.Equal(t, "Add a muffin", got.UpsellSuggestion)
}

func TestCacheKeyIgnoresLineOrder(t *testing.T) {
	a := domain.SuggestionRequest{CustomerName: "Ana", Lines: []domain.CartLine{{ProductID: "1", Quantity: 1}, {ProductID: "2", Quantity: 3}}}
	b := domain.SuggestionRequest{CustomerName: "ana", Lines: []domain.CartLine{{ProductID: "2", Quantity: 3}, {ProductID: "1", Quantity: 1}}}
	assert.Equal(t, buildCacheKey(a), buildCacheKey(b))

	b.Lines[0].Quantity = 4
	assert.NotEqual(t, buildCacheKey(a), buildCacheKey(b))
}

func TestLocalSuggesterPairsCoffeeWithDessert(t *testing.T) {
	ten := 10
	zero := 0
	l := NewLocalSuggester()
	l.now = func() time.Time { return time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC) }

	req := sampleRequest()
	req.Catalog = []domain.Product{
		{ID: "1", Name: "Artisan Cappuccino", Price: decimal.RequireFromString("4.50"), Category: domain.CategoryCoffee, Status: domain.ProductStatusActive},
		{ID: "4", Name: "Strawberry Cheesecake", Price: decimal.RequireFromString("6.50"), Category: domain.CategoryDesserts, Stock: &ten, Status: domain.ProductStatusActive},
		{ID: "8", Name: "Brownie with Ice Cream", Price: decimal.RequireFromString("5.50"), Category: domain.CategoryDesserts, Stock: &zero, Status: domain.ProductStatusActive},
		{ID: "10", Name: "Sparkling Water", Price: decimal.RequireFromString("2.00"), Category: domain.CategoryDrinks, Status: domain.ProductStatusActive},
	}

	got, err := l.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionSourceLocal, got.Source)
	assert.Contains(t, got.UpsellSuggestion, "Strawberry Cheesecake")
	assert.Contains(t, got.ThankYouNote, "Ana")
}

func TestLocalSuggesterSkipsDraftsAndEmptyCatalog(t *testing.T) {
	l := NewLocalSuggester()
	req := sampleRequest()
	req.Catalog = []domain.Product{
		{ID: "4", Name: "Draft Pie", Price: decimal.RequireFromString("6.50"), Category: domain.CategoryDesserts, Status: domain.ProductStatusDraft},
	}

	got, err := l.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got.UpsellSuggestion)
	assert.NotEmpty(t, got.ThankYouNote)
}

func TestBuildPromptListsItemsAndMenu(t *testing.T) {
	req := sampleRequest()
	req.Catalog = []domain.Product{
		{ID: "14", Name: "Blueberry Muffin", Category: domain.CategoryDesserts, Status: domain.ProductStatusActive},
		{ID: "99", Name: "Hidden Draft", Category: domain.CategoryDesserts, Status: domain.ProductStatusDraft},
	}

	prompt := buildPrompt(req)
	assert.Contains(t, prompt, "Customer Ana is buying: 2x Artisan Cappuccino.")
	assert.Contains(t, prompt, "Good pairing for coffee: desserts.")
	assert.Contains(t, prompt, "Blueberry Muffin")
	assert.False(t, strings.Contains(prompt, "Hidden Draft"))
}

func TestBuildPromptIsStableAcrossCalls(t *testing.T) {
	req := domain.SuggestionRequest{
		CustomerName: "Ana",
		Lines: []domain.CartLine{
			{ProductID: "1", Name: "Artisan Cappuccino", Category: domain.CategoryCoffee, Quantity: 1},
			{ProductID: "9", Name: "Club Sandwich", Category: domain.CategoryFood, Quantity: 1},
			{ProductID: "5", Name: "Butter Croissant", Category: domain.CategoryDesserts, Quantity: 1},
			{ProductID: "7", Name: "Orange Juice", Category: domain.CategoryDrinks, Quantity: 1},
		},
	}

	first := buildPrompt(req)
	for range 50 {
		require.Equal(t, first, buildPrompt(req))
	}

	coffee := strings.Index(first, "Good pairing for coffee")
	desserts := strings.Index(first, "Good pairing for desserts")
	drinks := strings.Index(first, "Good pairing for drinks")
	food := strings.Index(first, "Good pairing for food")
	require.True(t, coffee >= 0 && desserts >= 0 && drinks >= 0 && food >= 0)
	assert.True(t, coffee < desserts && desserts < drinks && drinks < food)
}

func TestParseSuggestion(t *testing.T) {
	got, err := parseSuggestion(`{"upsellSuggestion":" A muffin? ","thankYouNote":"Thanks Ana!"}`)
	require.NoError(t, err)
	assert.Equal(t, "A muffin?", got.UpsellSuggestion)
	assert.Equal(t, "Thanks Ana!", got.ThankYouNote)
	assert.Equal(t, domain.SuggestionSourceGemini, got.Source)

	_, err = parseSuggestion("")
	assert.ErrorIs(t, err, errEmptyResponse)
	_, err = parseSuggestion(`{"upsellSuggestion":"x"}`)
	assert.ErrorIs(t, err, errEmptyResponse)
	_, err = parseSuggestion("not json")
	assert.Error(t, err)
}
