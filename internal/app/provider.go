package app

import (
	"context"
	"fmt"
	"time"
)

// StopReason is the terminal state of one completion.
type StopReason string

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "toolUse"
	StopReasonAborted StopReason = "aborted"
	StopReasonError   StopReason = "error"
)

// CompletionRequest is the narrow request shape callers hand to a provider.
// The provider owns transport, streaming, and its own timeouts.
type CompletionRequest struct {
	SystemPrompt string
	UserContent  string
	APIKey       string
	MaxTokens    int
}

// CompletionResult carries the aggregated text blocks of one response.
type CompletionResult struct {
	TextBlocks []string
	StopReason StopReason
}

func (r *CompletionResult) Text() string {
	out := ""
	for i, b := range r.TextBlocks {
		if i > 0 {
			out += "\n"
		}
		out += b
	}
	return out
}

// Completer is the chat-completion capability consumed by the handoff engine
// and the chat loop.
type Completer interface {
	Complete(ctx context.Context, model string, req CompletionRequest) (*CompletionResult, error)
}

// TransportError is a transport-level failure with an HTTP status when one
// was observed. Callers use the status to decide retryability.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// UsageLimitError is a provider quota rejection carrying reset metadata.
type UsageLimitError struct {
	PlanType string
	ResetsAt time.Time
}

func (e *UsageLimitError) Error() string {
	return fmt.Sprintf("usage limit reached (%s plan), resets at %s", e.PlanType, e.ResetsAt.Format(time.RFC3339))
}

// Friendly renders the notification-line form of the quota rejection.
func (e *UsageLimitError) Friendly() string {
	mins := int(time.Until(e.ResetsAt).Minutes())
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("You have hit your usage limit (%s plan). Try again in ~%d min.", e.PlanType, mins)
}
