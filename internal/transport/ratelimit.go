package transport

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedSender throttles every outbound call through one limiter, so
// scheduler deliveries and dialog prompts together stay under the chat
// platform's flood limits.
type RateLimitedSender struct {
	inner   Sender
	limiter *rate.Limiter
}

func NewRateLimitedSender(inner Sender, rps float64, burst int) *RateLimitedSender {
	if rps <= 0 {
		rps = 25
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimitedSender{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *RateLimitedSender) Send(ctx context.Context, message Message) (SendResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return SendResult{}, fmt.Errorf("await send slot: %w", err)
	}
	return s.inner.Send(ctx, message)
}

func (s *RateLimitedSender) Edit(ctx context.Context, chatID int64, messageID int, text string, html bool) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("await send slot: %w", err)
	}
	return s.inner.Edit(ctx, chatID, messageID, text, html)
}

func (s *RateLimitedSender) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("await send slot: %w", err)
	}
	return s.inner.AnswerCallback(ctx, callbackID)
}
