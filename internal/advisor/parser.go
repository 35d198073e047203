package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"coinpilot/internal/domain"
)

// ExtractActions pulls exactly one JSON array of trade actions out of free
// text. It prefers a ```json fenced block and falls back to the first bare
// array, stripping // comments the model sometimes leaves inline. Structural
// validation of the actions themselves is the validator's job; this only
// recovers well-formed JSON.
func ExtractActions(content string) ([]domain.TradeAction, error) {
	raw, err := extractArray(content)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ProductID string          `json:"product_id"`
		Side      string          `json:"side"`
		Amount    json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("parse action array: %w", err)
	}

	actions := make([]domain.TradeAction, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, domain.TradeAction{
			ProductID: strings.TrimSpace(row.ProductID),
			Side:      domain.Side(strings.ToUpper(strings.TrimSpace(row.Side))),
			AmountUSD: coerceAmount(row.Amount),
		})
	}
	return actions, nil
}

func extractArray(content string) (string, error) {
	search := content
	if fence := strings.Index(content, "```json"); fence != -1 {
		search = content[fence:]
	}

	start := strings.Index(search, "[")
	if start == -1 {
		return "", fmt.Errorf("no JSON array in response")
	}
	end := strings.Index(search[start:], "]")
	if end == -1 {
		return "", fmt.Errorf("unterminated JSON array in response")
	}
	raw := search[start : start+end+1]

	// The model occasionally annotates values with // comments.
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx != -1 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, " "), nil
}

// coerceAmount accepts both a bare number and a quoted numeric string.
func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f); err == nil {
			return f
		}
	}
	return 0
}
