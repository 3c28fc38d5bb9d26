package advisor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"novapos/internal/domain"
)

// categoryPairs scores how well a candidate category complements a cart category.
var categoryPairs = map[string]map[string]float64{
	domain.CategoryCoffee: {
		domain.CategoryDesserts: 0.90,
		domain.CategoryFood:     0.70,
		domain.CategoryDrinks:   0.20,
	},
	domain.CategoryDesserts: {
		domain.CategoryCoffee: 0.85,
		domain.CategoryDrinks: 0.50,
	},
	domain.CategoryFood: {
		domain.CategoryDrinks:   0.80,
		domain.CategoryCoffee:   0.60,
		domain.CategoryDesserts: 0.45,
	},
	domain.CategoryDrinks: {
		domain.CategoryFood:     0.75,
		domain.CategoryDesserts: 0.55,
	},
}

// LocalSuggester picks a complementary catalog product without calling out.
type LocalSuggester struct {
	now           func() time.Time
	minConfidence float64
}

func NewLocalSuggester() *LocalSuggester {
	return &LocalSuggester{now: time.Now, minConfidence: 0.30}
}

func (l *LocalSuggester) Suggest(_ context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	customer := domain.CustomerOrDefault(req.CustomerName)
	suggestion := domain.Suggestion{
		ThankYouNote: localNote(customer, req.Lines),
		Source:       domain.SuggestionSourceLocal,
	}

	inCart := make(map[string]struct{}, len(req.Lines))
	categoryWeight := make(map[string]int, len(req.Lines))
	totalQty := 0
	for _, line := range req.Lines {
		inCart[line.ProductID] = struct{}{}
		categoryWeight[line.Category] += line.Quantity
		totalQty += line.Quantity
	}
	if totalQty == 0 {
		return suggestion, nil
	}

	hour := l.now().Hour()
	var (
		best      *domain.Product
		bestScore float64
	)
	for i := range req.Catalog {
		product := req.Catalog[i]
		if _, exists := inCart[product.ID]; exists || !product.IsActive() {
			continue
		}
		if product.Stock != nil && *product.Stock <= 0 {
			continue
		}

		pairAffinity := 0.0
		for category, qty := range categoryWeight {
			pairAffinity += categoryPairs[category][product.Category] * float64(qty)
		}
		pairAffinity = clamp(pairAffinity/float64(totalQty), 0, 1)

		stockScore := 0.6
		if product.Stock != nil {
			stockScore = clamp(float64(*product.Stock)/40.0, 0, 1)
		}
		timeRelevance := categoryHourRelevance(product.Category, hour)

		score := 0.60*pairAffinity + 0.25*stockScore + 0.15*timeRelevance
		if score < l.minConfidence {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && product.Name < best.Name) {
			best = &req.Catalog[i]
			bestScore = score
		}
	}

	if best != nil {
		suggestion.UpsellSuggestion = fmt.Sprintf("How about adding a %s for %s?", best.Name, best.Price.StringFixed(2))
	}
	return suggestion, nil
}

func localNote(customer string, lines []domain.CartLine) string {
	if len(lines) == 0 {
		return domain.FallbackThankYouNote(customer)
	}
	favorite := lines[0]
	for _, line := range lines[1:] {
		if line.Quantity > favorite.Quantity {
			favorite = line
		}
	}
	return fmt.Sprintf("Thanks %s, enjoy your %s!", customer, favorite.Name)
}

func categoryHourRelevance(category string, hour int) float64 {
	switch category {
	case domain.CategoryCoffee, domain.CategoryFood:
		if hour >= 6 && hour <= 11 {
			return 0.95
		}
		if hour >= 12 && hour <= 15 {
			return 0.75
		}
	case domain.CategoryDesserts, domain.CategoryDrinks:
		if hour >= 14 && hour <= 20 {
			return 0.90
		}
	}
	return 0.55
}

func clamp(val float64, minVal float64, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// rankedCategories lists the categories paired with category, best first.
func rankedCategories(category string) []string {
	pairs := categoryPairs[category]
	out := make([]string, 0, len(pairs))
	for c := range pairs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if pairs[out[i]] != pairs[out[j]] {
			return pairs[out[i]] > pairs[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
