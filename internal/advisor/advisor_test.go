package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coinpilot/internal/domain"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/trace"
)

func TestRefineHappyPath(t *testing.T) {
	reply := "Sells first to free up USD.\n```json\n" +
		`[{"product_id": "ETH-USD", "side": "SELL", "amount": 118.4},` +
		`{"product_id": "BTC-USD", "side": "BUY", "amount": 25}]` +
		"\n```"
	llm := &stubLLMClient{
		response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: reply}},
			},
		},
	}

	r := NewRefiner(trace.NewNoopTracerProvider().Tracer("test"), llm, "gpt-4o-mini")
	result, err := r.Refine(context.Background(), RefineInput{
		Buys: []domain.Opportunity{
			{ProductID: "BTC-USD", Side: domain.SideBuy, Score: 75, AmountUSD: 25},
		},
		Sells: []domain.Opportunity{
			{ProductID: "ETH-USD", Side: domain.SideSell, Score: 80, AmountUSD: 118.4},
		},
		Balances: domain.Balances{"USD": 500},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Rationale != reply {
		t.Fatal("rationale should carry the full model reply")
	}
	if len(result.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(result.Actions))
	}
	if result.Actions[0].Side != domain.SideSell || result.Actions[1].Side != domain.SideBuy {
		t.Fatalf("action order must follow the reply, got %+v", result.Actions)
	}
}

func TestRefineLLMError(t *testing.T) {
	llm := &stubLLMClient{err: errors.New("api down")}

	r := NewRefiner(trace.NewNoopTracerProvider().Tracer("test"), llm, "gpt-4o-mini")
	if _, err := r.Refine(context.Background(), RefineInput{}); err == nil {
		t.Fatal("expected an error when the completion fails")
	}
}

func TestRefineNoChoices(t *testing.T) {
	llm := &stubLLMClient{response: &openai.ChatCompletion{}}

	r := NewRefiner(trace.NewNoopTracerProvider().Tracer("test"), llm, "gpt-4o-mini")
	if _, err := r.Refine(context.Background(), RefineInput{}); err == nil {
		t.Fatal("expected an error on an empty choice list")
	}
}

func TestRefineUnparseableReplyKeepsRationale(t *testing.T) {
	llm := &stubLLMClient{
		response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "I would sit this cycle out."}},
			},
		},
	}

	r := NewRefiner(trace.NewNoopTracerProvider().Tracer("test"), llm, "gpt-4o-mini")
	result, err := r.Refine(context.Background(), RefineInput{})
	if err != nil {
		t.Fatalf("a reply without an action list is not an error: %v", err)
	}
	if result.Rationale != "I would sit this cycle out." {
		t.Fatalf("unexpected rationale %q", result.Rationale)
	}
	if len(result.Actions) != 0 {
		t.Fatalf("expected no actions, got %d", len(result.Actions))
	}
}

func TestBuildUserPromptMentionsBalance(t *testing.T) {
	prompt, err := BuildUserPrompt(RefineInput{
		Balances: domain.Balances{"USD": 312.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "312.5") {
		t.Fatal("prompt should call out the available USD balance")
	}
	if !strings.Contains(prompt, "buy_opportunities") {
		t.Fatal("prompt should embed the serialized refine input")
	}
}

type stubLLMClient struct {
	response *openai.ChatCompletion
	err      error
}

func (s *stubLLMClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return s.response, s.err
}
