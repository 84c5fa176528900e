package agentloop

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultMaxTokens bounds a single decide call. Grounded on the teacher's
// AnthropicProvider default (internal/agent/ai/api_anthropic.go).
const defaultMaxTokens = 4096

// Oracle decides the next step given a system prompt and the running
// conversation history. AnthropicOracle is the only implementation; the
// interface exists so loop tests can substitute a fake.
type Oracle interface {
	Decide(ctx context.Context, systemPrompt string, history []anthropic.MessageParam) (string, error)
}

// AnthropicOracle wraps the Claude messages API (D3). Retargeted from the
// teacher's streaming AnthropicProvider to a single blocking call per loop
// step — the agent loop has no use for token-level streaming.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

func NewAnthropicOracle(apiKey, model string) *AnthropicOracle {
	return &AnthropicOracle{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *AnthropicOracle) Decide(ctx context.Context, systemPrompt string, history []anthropic.MessageParam) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: defaultMaxTokens,
		Messages:  history,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
	}

	msg, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if variant := block.AsAny(); variant != nil {
			if textBlock, ok := variant.(anthropic.TextBlock); ok {
				text += textBlock.Text
			}
		}
	}
	return text, nil
}

// buildObservationMessage renders one Observation as a user turn: a text
// block carrying the goal/step/history framing followed by the screenshot
// as an inline image block (§4.C10, §6).
func buildObservationMessage(promptText string, screenshotB64 string) anthropic.MessageParam {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(promptText),
	}
	if screenshotB64 != "" {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", screenshotB64))
	}
	return anthropic.NewUserMessage(blocks...)
}
