package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"portfolioRiskBot/internal/finance"
)

const systemPrompt = `You are a professional risk analyst explaining portfolio metrics to a retail investor. You will receive an equal-weighted portfolio and its computed figures.

Your response must follow this exact structure:

**Summary:**
[One or two sentences on how the portfolio did over the window]

**Downside risk:**
[What the Sortino ratio says about returns relative to downside deviation]

**Market sensitivity:**
[What the beta says about exposure to the benchmark]

Guidelines:
- Use only the figures given; do not invent prices or dates
- Returns and the risk-free threshold are percentage points over the whole window, not annualized
- If the Sortino ratio is undefined, say there were no observations below the threshold
- Keep it under 150 words
- No buy or sell advice`

type Commentator struct {
	cli   oa.Client
	model string
}

func NewCommentator(apiKey, model string, opts ...option.RequestOption) *Commentator {
	if model == "" {
		model = "gpt-4"
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...), model: model}
}

// Explain asks the model for a short plain-language reading of r.
func (c *Commentator) Explain(ctx context.Context, r finance.Report) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: oa.ChatModel(c.model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(buildPrompt(r)),
		},
		MaxTokens: oa.Int(400), // fits one telegram message
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(r finance.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio: %s (equal weighted, %d trading days)\n", strings.Join(r.Assets, ", "), r.Points)
	fmt.Fprintf(&b, "Risk-free threshold: %g percentage points\n", r.RiskFreeRate)
	fmt.Fprintf(&b, "Portfolio return: %.2f%%\n", r.PortfolioReturn)
	fmt.Fprintf(&b, "Downside deviation: %.4f\n", r.DownsideDeviation)
	fmt.Fprintf(&b, "Sortino ratio: %s\n", r.SortinoText())
	fmt.Fprintf(&b, "Beta vs %s: %.3f\n", r.Benchmark, r.PortfolioBeta)
	b.WriteString("\nExplain these figures following the structured format.")
	return b.String()
}
