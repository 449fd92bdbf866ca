package service

import (
	"context"
	"log"
	"time"
)

// ExpiryReconciler periodically closes out in_progress attempts whose
// deadline has passed. This is an optional background sweep: lazy expiry on
// access already guarantees correctness, the reconciler only makes expired
// attempts visible to rankings without waiting for the owner's next request.
type ExpiryReconciler struct {
	attempts  *AttemptService
	interval  time.Duration
	batchSize int
}

// NewExpiryReconciler creates a reconciler. interval <= 0 disables it.
func NewExpiryReconciler(attempts *AttemptService, interval time.Duration, batchSize int) *ExpiryReconciler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ExpiryReconciler{
		attempts:  attempts,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run sweeps until ctx is cancelled. Call in a goroutine.
func (r *ExpiryReconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		log.Printf("[ExpiryReconciler] disabled")
		return
	}

	log.Printf("[ExpiryReconciler] started: interval=%v batch=%d", r.interval, r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[ExpiryReconciler] stopped")
			return
		case <-ticker.C:
			expired, err := r.attempts.ExpireOverdue(r.batchSize)
			if err != nil {
				log.Printf("[ExpiryReconciler] sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("[ExpiryReconciler] expired %d overdue attempts", expired)
			}
		}
	}
}
