package submission

import (
	"context"
	"fmt"
	"time"
)

// minRetryDelay keeps nextRetryAt strictly after the attempt that failed,
// even when the schedule starts with an immediate retry.
const minRetryDelay = time.Second

// Policy fixes the retry schedule and the polling bounds.
type Policy struct {
	// Schedule is indexed by retry count; the last entry repeats.
	Schedule    []time.Duration
	MaxAttempts int
	// CallTimeout bounds one upload, status or proof call.
	CallTimeout         time.Duration
	PollInterval        time.Duration
	WebhookPollInterval time.Duration
	MaxPollDuration     time.Duration
	// TickInterval spaces the Run loop's scans for due work.
	TickInterval time.Duration
}

// DefaultPolicy: immediate, 1m, 5m, 15m, 1h; five attempts; poll every
// minute (every ten once a webhook has been seen) for up to three days.
func DefaultPolicy() Policy {
	return Policy{
		Schedule:            []time.Duration{0, time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour},
		MaxAttempts:         5,
		CallTimeout:         30 * time.Second,
		PollInterval:        time.Minute,
		WebhookPollInterval: 10 * time.Minute,
		MaxPollDuration:     72 * time.Hour,
		TickInterval:        15 * time.Second,
	}
}

// Delay returns the wait before the retry following retryCount earlier
// retries.
func (p Policy) Delay(retryCount int) time.Duration {
	if len(p.Schedule) == 0 {
		return minRetryDelay
	}
	i := retryCount
	if i < 0 {
		i = 0
	}
	if i >= len(p.Schedule) {
		i = len(p.Schedule) - 1
	}
	d := p.Schedule[i]
	if d < minRetryDelay {
		d = minRetryDelay
	}
	return d
}

// pollEvery returns the interval to the next status check.
func (p Policy) pollEvery(webhookSeen bool) time.Duration {
	if webhookSeen && p.WebhookPollInterval > p.PollInterval {
		return p.WebhookPollInterval
	}
	return p.PollInterval
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if len(p.Schedule) == 0 {
		p.Schedule = d.Schedule
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = d.CallTimeout
	}
	if p.PollInterval <= 0 {
		p.PollInterval = d.PollInterval
	}
	if p.WebhookPollInterval <= 0 {
		p.WebhookPollInterval = p.PollInterval
	}
	if p.MaxPollDuration <= 0 {
		p.MaxPollDuration = d.MaxPollDuration
	}
	if p.TickInterval <= 0 {
		p.TickInterval = d.TickInterval
	}
	return p
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// sleepWithContext waits for d or until ctx is done.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
