package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"novapos/internal/domain"
)

var errEmptyResponse = errors.New("gemini returned no text")

type GeminiSuggester struct {
	client *genai.Client
	model  string
}

func NewGeminiSuggester(ctx context.Context, apiKey string, model string) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiSuggester{client: client, model: model}, nil
}

func (g *GeminiSuggester) Close() error {
	return g.client.Close()
}

func (g *GeminiSuggester) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"upsellSuggestion": {Type: genai.TypeString, Description: "One complementary product, one short sentence"},
			"thankYouNote":     {Type: genai.TypeString, Description: "Warm personal note for the receipt, at most 15 words"},
		},
		Required: []string{"upsellSuggestion", "thankYouNote"},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(req)))
	if err != nil {
		return domain.Suggestion{}, err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.Suggestion{}, errEmptyResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return parseSuggestion(text.String())
}

func buildPrompt(req domain.SuggestionRequest) string {
	items := make([]string, 0, len(req.Lines))
	categories := make(map[string]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		items = append(items, fmt.Sprintf("%dx %s", line.Quantity, line.Name))
		categories[line.Category] = struct{}{}
	}

	var b strings.Builder
	b.WriteString("You are a friendly point-of-sale assistant for a modern coffee shop.\n")
	fmt.Fprintf(&b, "Customer %s is buying: %s.\n", domain.CustomerOrDefault(req.CustomerName), strings.Join(items, ", "))
	b.WriteString("1. Suggest ONE complementary product briefly (for example a dessert with coffee).\n")
	b.WriteString("2. Write a short, warm, personal thank-you note (at most 15 words) for the receipt.\n")

	for _, category := range slices.Sorted(maps.Keys(categories)) {
		if ranked := rankedCategories(category); len(ranked) > 0 {
			fmt.Fprintf(&b, "Good pairing for %s: %s.\n", category, ranked[0])
		}
	}

	if len(req.Catalog) > 0 {
		names := make([]string, 0, len(req.Catalog))
		for _, p := range req.Catalog {
			if p.IsActive() && (p.Stock == nil || *p.Stock > 0) {
				names = append(names, p.Name)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "Only suggest products from this menu: %s.\n", strings.Join(names, ", "))
		}
	}
	return b.String()
}

func parseSuggestion(raw string) (domain.Suggestion, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Suggestion{}, errEmptyResponse
	}

	var payload struct {
		UpsellSuggestion string `json:"upsellSuggestion"`
		ThankYouNote     string `json:"thankYouNote"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.Suggestion{}, fmt.Errorf("decode gemini response: %w", err)
	}
	if strings.TrimSpace(payload.ThankYouNote) == "" {
		return domain.Suggestion{}, errEmptyResponse
	}
	return domain.Suggestion{
		UpsellSuggestion: strings.TrimSpace(payload.UpsellSuggestion),
		ThankYouNote:     strings.TrimSpace(payload.ThankYouNote),
		Source:           domain.SuggestionSourceGemini,
	}, nil
}
