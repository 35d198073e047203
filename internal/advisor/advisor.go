package advisor

import (
	"context"
	"fmt"
	"log"

	"coinpilot/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// RefineInput is everything the refiner forwards to the model: the scored
// candidates, the live balances, and a compact portfolio summary.
type RefineInput struct {
	Buys      []domain.Opportunity `json:"buy_opportunities"`
	Sells     []domain.Opportunity `json:"sell_opportunities"`
	Balances  domain.Balances      `json:"balances"`
	Positions []PositionSummary    `json:"positions"`
}

type PositionSummary struct {
	Currency     string   `json:"currency"`
	CoinAmount   float64  `json:"coin_amount"`
	USDValue     float64  `json:"usd_value"`
	EntryPrice   *float64 `json:"entry_price"`
	CurrentPrice *float64 `json:"current_price"`
}

// RefineResult carries the model's free-text rationale and whatever action
// list could be recovered from it. Actions is empty, never nil-panicking,
// when the response held no parseable JSON array.
type RefineResult struct {
	Rationale string
	Actions   []domain.TradeAction
}

// Refiner asks the model to turn scored opportunities into a balance-aware
// action list. Its output goes through the same validator as scorer output;
// nothing the model says is trusted directly.
type Refiner struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewRefiner(tracer trace.Tracer, llm LLMClient, model string) *Refiner {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Refiner{tracer: tracer, llm: llm, model: model}
}

// Refine sends one completion request and parses the fenced action list out
// of the reply. A malformed reply is not an error: the rationale is kept and
// the action list comes back empty, so the cycle simply trades nothing.
func (r *Refiner) Refine(ctx context.Context, in RefineInput) (RefineResult, error) {
	ctx, span := r.tracer.Start(ctx, "refiner.refine")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", r.model),
		attribute.Int("refiner.buy_count", len(in.Buys)),
		attribute.Int("refiner.sell_count", len(in.Sells)),
	)

	userPrompt, err := BuildUserPrompt(in)
	if err != nil {
		return RefineResult{}, fmt.Errorf("build refiner prompt: %w", err)
	}

	completion, err := r.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		span.RecordError(err)
		return RefineResult{}, fmt.Errorf("refiner completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return RefineResult{}, fmt.Errorf("no choices in refiner response")
	}

	content := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(content)))

	actions, err := ExtractActions(content)
	if err != nil {
		log.Printf("refiner reply held no parseable action list: %v", err)
		return RefineResult{Rationale: content}, nil
	}
	return RefineResult{Rationale: content, Actions: actions}, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
