// Package ratelimit holds the retry policy applied to throttled Shopify
// calls and the pacing math driven by the API's cost extension.
package ratelimit

import (
	"math"
	"time"
)

// Backoff constants for throttled requests. Delays double per attempt:
// 1s, 2s, 4s, 8s.
const (
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 500 * time.Millisecond
	backoffFactor         = 2.0
)

// Policy decides whether, and after how long, a throttled call is retried.
// The zero value is unusable; use Default or fill both fields.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Default returns the standard throttle retry policy.
func Default() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
	}
}

// NextDelay returns the backoff before retry number attempt (1-based count
// of failures so far) and whether another attempt is allowed at all.
func (p Policy) NextDelay(attempt int) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	delay := float64(p.InitialBackoff) * math.Pow(backoffFactor, float64(attempt))
	return time.Duration(delay), true
}

// ThrottleStatus is the API-reported request budget at response time.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// Cost is the query cost extension returned alongside successful responses.
type Cost struct {
	RequestedQueryCost float64        `json:"requestedQueryCost"`
	ActualQueryCost    float64        `json:"actualQueryCost"`
	ThrottleStatus     ThrottleStatus `json:"throttleStatus"`
}

// PacingDelay computes how long to wait before the next call given the cost
// of the one just made. When the remaining budget does not cover a repeat of
// the query, it waits for the restore rate to refill the difference plus a
// small buffer; otherwise a flat buffer keeps calls from bursting. A nil
// cost (extension missing) falls back to a conservative fixed delay.
func PacingDelay(cost *Cost, buffer time.Duration) time.Duration {
	if cost == nil {
		return 2 * buffer
	}
	available := cost.ThrottleStatus.CurrentlyAvailable
	if available >= cost.ActualQueryCost {
		return buffer
	}
	if cost.ThrottleStatus.RestoreRate <= 0 {
		return 2 * buffer
	}
	secondsToWait := (cost.ActualQueryCost - available) / cost.ThrottleStatus.RestoreRate
	return time.Duration(math.Ceil(secondsToWait*1000))*time.Millisecond + buffer
}
