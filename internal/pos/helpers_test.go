package pos

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"novapos/internal/domain"
	"novapos/internal/store/memory"
)

type stubAdvisor struct {
	mu         sync.Mutex
	suggestion domain.Suggestion
	release    chan struct{}
	calls      int
}

func (s *stubAdvisor) Suggest(_ context.Context, req domain.SuggestionRequest) domain.Suggestion {
	s.mu.Lock()
	s.calls++
	release := s.release
	suggestion := s.suggestion
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if suggestion.ThankYouNote == "" {
		return domain.Suggestion{ThankYouNote: domain.FallbackThankYouNote(req.CustomerName), Source: domain.SuggestionSourceFallback}
	}
	return suggestion
}

type failingStockStore struct {
	*memory.Store
}

var errStockWrite = errors.New("stock write failed")

func (failingStockStore) DecrementStock(context.Context, []domain.StockAdjustment) error {
	return errStockWrite
}

// stepClock advances one second per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEngine(t *testing.T, advisor Advisor, opts Options) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.NewSeeded()
	if advisor == nil {
		advisor = &stubAdvisor{}
	}
	if opts.Now == nil {
		clock := &stepClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
		opts.Now = clock.Now
	}
	return NewEngine(s, advisor, opts), s
}

func product(t *testing.T, s *memory.Store, id string) domain.Product {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return *p
}

func mustDispatch(t *testing.T, e *Engine, cmd Command) Result {
	t.Helper()
	res, err := e.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	return res
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// fillScenarioCart adds 2x cappuccino (4.50) and 1x croissant (3.00).
func fillScenarioCart(t *testing.T, e *Engine, s *memory.Store) {
	t.Helper()
	cappuccino := product(t, s, "1")
	croissant := product(t, s, "5")
	mustDispatch(t, e, AddItem{Product: cappuccino})
	mustDispatch(t, e, AddItem{Product: cappuccino})
	mustDispatch(t, e, AddItem{Product: croissant})
}
