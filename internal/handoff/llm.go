package handoff

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/sethvargo/go-retry"

	"carry/internal/app"
)

var retryableText = regexp.MustCompile(`(?i)rate.?limit|overloaded|service.?unavailable|upstream.?connect|connection.?refused`)

// isRetryable reports whether a completion failure is worth another attempt.
// Quota rejections carry reset metadata and are terminal; plain 429s and
// 5xx-class failures are transient.
func isRetryable(err error) bool {
	var ue *app.UsageLimitError
	if errors.As(err, &ue) {
		return false
	}
	var te *app.TransportError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return retryableText.MatchString(err.Error())
}

const (
	extractMaxTokens = 2400
	composeMaxTokens = 1600
	maxRetries       = 3
)

// Driver runs the two LLM passes with retry and cancellation.
type Driver struct {
	Completer app.Completer
	Model     string
	APIKey    string
}

// Extract runs pass 1 over the assembled extractor input.
func (d *Driver) Extract(sig *Signal, input string) (string, error) {
	return d.run(sig, ExtractorSystemPrompt(), input, extractMaxTokens)
}

// Compose runs pass 2 over the assembled composer input.
func (d *Driver) Compose(sig *Signal, input string) (string, error) {
	return d.run(sig, ComposerSystemPrompt(), input, composeMaxTokens)
}

// run invokes the completion capability, retrying transient upstream
// failures with exponential backoff. Cancellation wins over retry: an
// aborted signal surfaces as ErrCancelled from whichever wait it interrupts,
// including the backoff sleeps.
func (d *Driver) run(sig *Signal, systemPrompt, input string, maxTokens int) (string, error) {
	if sig == nil {
		sig = NewSignal()
	}
	if sig.Aborted() {
		return "", ErrCancelled
	}
	ctx, cancel := sig.Context(context.Background())
	defer cancel()

	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(time.Second))
	var text string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := d.Completer.Complete(ctx, d.Model, app.CompletionRequest{
			SystemPrompt: systemPrompt,
			UserContent:  input,
			APIKey:       d.APIKey,
			MaxTokens:    maxTokens,
		})
		if err != nil {
			if sig.Aborted() || errors.Is(err, context.Canceled) {
				return ErrCancelled
			}
			if isRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if res.StopReason == app.StopReasonAborted {
			return ErrCancelled
		}
		text = res.Text()
		return nil
	})
	if err != nil {
		if sig.Aborted() || errors.Is(err, context.Canceled) {
			return "", ErrCancelled
		}
		return "", err
	}
	return text, nil
}
