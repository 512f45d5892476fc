package app

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicCompleter implements Completer on the official SDK. Responses are
// streamed and accumulated; callers only see the final message.
type AnthropicCompleter struct{}

func (AnthropicCompleter) Complete(ctx context.Context, model string, req CompletionRequest) (*CompletionResult, error) {
	client := anthropic.NewClient(option.WithAPIKey(req.APIKey))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	stream := client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return nil, &TransportError{Message: "failed to accumulate stream: " + err.Error()}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return &CompletionResult{StopReason: StopReasonAborted}, nil
		}
		return nil, mapAnthropicError(err)
	}

	result := &CompletionResult{StopReason: mapStopReason(string(message.StopReason))}
	for _, block := range message.Content {
		if block.Type == "text" && block.Text != "" {
			result.TextBlocks = append(result.TextBlocks, block.Text)
		}
	}
	return result, nil
}

func mapStopReason(reason string) StopReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return StopReasonStop
	case "max_tokens":
		return StopReasonLength
	case "tool_use":
		return StopReasonToolUse
	default:
		return StopReasonStop
	}
}

var (
	planTypeRe = regexp.MustCompile(`"plan_type"\s*:\s*"([^"]+)"`)
	resetsAtRe = regexp.MustCompile(`"resets_at"\s*:\s*"?(\d+|[0-9T:+.Z-]+)"?`)
)

func mapAnthropicError(err error) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return &TransportError{Message: err.Error()}
	}

	text := apierr.Error()
	if m := planTypeRe.FindStringSubmatch(text); m != nil {
		resets := time.Now().Add(time.Hour)
		if rm := resetsAtRe.FindStringSubmatch(text); rm != nil {
			if epoch, perr := strconv.ParseInt(rm[1], 10, 64); perr == nil {
				resets = time.Unix(epoch, 0)
			} else if ts, perr := time.Parse(time.RFC3339, rm[1]); perr == nil {
				resets = ts
			}
		}
		return &UsageLimitError{PlanType: m[1], ResetsAt: resets}
	}

	return &TransportError{StatusCode: apierr.StatusCode, Message: text}
}
