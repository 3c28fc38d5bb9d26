// Package pos holds the in-memory point-of-sale state: the cart, the
// checkout flow, the sales history and the cash session tracker.
//
// All mutations go through Engine.Dispatch or one of the asynchronous
// methods (Analyze, Checkout, StartQRPayment). Slow work runs outside the
// engine lock; a pending flag and a cart revision counter make sure results
// only land on the state they were computed from.
package pos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"novapos/internal/domain"
	"novapos/internal/xid"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCheckoutPending = errors.New("checkout already in progress")
	ErrInvalidPayment  = errors.New("unsupported payment method")
	ErrRegisterOpen    = errors.New("cash register is already open")
	ErrSessionClosed   = errors.New("cash session is already closed")
	ErrBranchMismatch  = errors.New("cash register belongs to another branch")
	ErrQRCancelled     = errors.New("qr payment cancelled")
	ErrInvalidCommand  = errors.New("invalid command")
)

var DefaultTaxRate = decimal.RequireFromString("0.16")

// Store is the catalog and cash register persistence the engine needs.
type Store interface {
	ListProducts(ctx context.Context, includeDrafts bool) ([]domain.Product, error)
	DecrementStock(ctx context.Context, adjustments []domain.StockAdjustment) error
	GetRegister(ctx context.Context, id string) (*domain.CashRegister, error)
	OpenAllRegisters(ctx context.Context) (int, error)
	CreateSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error)
	CloseSession(ctx context.Context, session domain.CashSession) (*domain.CashSession, error)
	GetSession(ctx context.Context, id string) (*domain.CashSession, error)
}

// Advisor returns a suggestion for a cart. It must not fail; degraded
// results carry the fallback source.
type Advisor interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) domain.Suggestion
}

type Options struct {
	// TaxRate defaults to DefaultTaxRate when not valid.
	TaxRate       decimal.NullDecimal
	CheckoutDelay time.Duration
	QRGenerating  time.Duration
	QRWaiting     time.Duration
	QRApproval    time.Duration
	Now           func() time.Time
	NewID         func() string
}

type Engine struct {
	store   Store
	advisor Advisor
	opts    Options
	taxRate decimal.Decimal
	logger  zerolog.Logger

	mu         sync.Mutex
	lines      []domain.CartLine
	revision   uint64
	suggestion *domain.Suggestion
	analyzing  int
	pending    bool
	sales      []domain.Sale
	saleIDs    map[string]struct{}
	qr         *QRPayment
}

func NewEngine(store Store, advisor Advisor, opts Options) *Engine {
	taxRate := DefaultTaxRate
	if opts.TaxRate.Valid {
		taxRate = opts.TaxRate.Decimal
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return xid.New("sale") }
	}

	return &Engine{
		store:   store,
		advisor: advisor,
		opts:    opts,
		taxRate: taxRate,
		logger:  log.With().Str("component", "pos").Logger(),
		saleIDs: make(map[string]struct{}),
	}
}

func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
