package advisor

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"novapos/internal/cache"
	"novapos/internal/domain"
)

// Suggester produces an upsell line and a thank-you note for a cart.
type Suggester interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error)
}

type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Advisor bounds a Suggester with a timeout and a cache. It never fails:
// any error yields the fallback suggestion.
type Advisor struct {
	suggester Suggester
	cache     cache.SuggestionCache
	timeout   time.Duration
	cacheTTL  time.Duration
}

func New(suggester Suggester, cacheStore cache.SuggestionCache, opts Options) *Advisor {
	if cacheStore == nil {
		cacheStore = cache.NoopSuggestionCache{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 4 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Minute
	}
	return &Advisor{
		suggester: suggester,
		cache:     cacheStore,
		timeout:   opts.Timeout,
		cacheTTL:  opts.CacheTTL,
	}
}

func (a *Advisor) Suggest(ctx context.Context, req domain.SuggestionRequest) domain.Suggestion {
	req.CustomerName = domain.CustomerOrDefault(req.CustomerName)
	logger := log.With().Str("component", "advisor").Int("lines", len(req.Lines)).Logger()

	if a.suggester == nil || len(req.Lines) == 0 {
		return Fallback(req.CustomerName)
	}

	key := buildCacheKey(req)
	if cached, ok, err := a.cache.Get(ctx, key); err == nil && ok {
		return *cached
	} else if err != nil {
		logger.Warn().Err(err).Msg("suggestion cache read failed")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	suggestion, err := a.suggester.Suggest(callCtx, req)
	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("suggestion failed, using fallback")
		return Fallback(req.CustomerName)
	}
	if strings.TrimSpace(suggestion.ThankYouNote) == "" {
		suggestion.ThankYouNote = domain.FallbackThankYouNote(req.CustomerName)
	}

	if err := a.cache.Set(ctx, key, &suggestion, a.cacheTTL); err != nil {
		logger.Warn().Err(err).Msg("suggestion cache write failed")
	}
	logger.Debug().Str("source", suggestion.Source).Dur("elapsed", time.Since(started)).Msg("suggestion ready")
	return suggestion
}

func Fallback(customer string) domain.Suggestion {
	return domain.Suggestion{
		ThankYouNote: domain.FallbackThankYouNote(customer),
		Source:       domain.SuggestionSourceFallback,
	}
}

func buildCacheKey(req domain.SuggestionRequest) string {
	lines := slices.Clone(req.Lines)
	slices.SortFunc(lines, func(a, b domain.CartLine) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})

	parts := make([]string, 0, len(lines)+1)
	parts = append(parts, strings.ToLower(req.CustomerName))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s:%d", line.ProductID, line.Quantity))
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}
