package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sotc/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	maxAttempts      = 3
)

// ClientConfig holds configuration for the vision client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int64
	RequestsPerMin float64
	Timeout        time.Duration
}

// Client identifies watch collections with the Anthropic Messages API
type Client struct {
	messages    messageCreator
	model       string
	maxTokens   int64
	rateLimiter *rate.Limiter
	debug       bool
	sleep       func(time.Duration)
}

// messageCreator is the slice of the SDK the client uses
type messageCreator interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// NewClient creates a new vision client
func NewClient(cfg ClientConfig) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// retries are handled here so they share the rate limiter
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := sdk.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 50
	}

	return &Client{
		messages:    &client.Messages,
		model:       model,
		maxTokens:   maxTokens,
		rateLimiter: rate.NewLimiter(rate.Limit(perMin/60), 5),
		sleep:       time.Sleep,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the delay before the given retry attempt (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// IdentifyCollection sends the photo and prompt to the model and returns the
// text of its answer. Transient failures (429, 5xx, network) are retried.
func (c *Client) IdentifyCollection(ctx context.Context, mediaType, base64Data, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, base64Data),
				sdk.NewTextBlock(prompt),
			),
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[VISION] Rate limiter error: %v", err)
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		start := time.Now()
		message, err := c.messages.New(ctx, params)
		if err != nil {
			lastErr = wrapAPIError(err)
			if !retryable(err) {
				log.Printf("[VISION] Request failed (attempt %d, not retried): %v", attempt, err)
				return "", lastErr
			}
			log.Printf("[VISION] Request failed (attempt %d): %v", attempt, err)
			if attempt < maxAttempts {
				c.sleep(exponentialBackoff(attempt))
			}
			continue
		}

		if c.debug {
			log.Printf("[VISION] model=%s tokens_in=%d tokens_out=%d elapsed=%s",
				c.model, message.Usage.InputTokens, message.Usage.OutputTokens, time.Since(start))
		}

		for _, block := range message.Content {
			if block.Type == "text" && block.Text != "" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("%w: no analysis returned from AI", domain.ErrParseFailure)
	}

	log.Printf("[VISION] All retries failed")
	return "", lastErr
}

// wrapAPIError maps upstream 429s to ErrRateLimited and everything else to
// ErrVisionAPIFailure
func wrapAPIError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrVisionAPIFailure, err)
}

// retryable reports whether an SDK error is worth another attempt
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
