package rewards

import (
	"context"
	"errors"
	"log"
	"time"
)

// RelayStore is implemented by SQLStore.
type RelayStore interface {
	Pending(ctx context.Context, limit, maxRetries int) ([]PointRequest, error)
	MarkPending(ctx context.Context, id int64) error
	MarkOK(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}

// Relay delivers stored point requests to a Notifier and records the
// outcome per request.
type Relay struct {
	Store      RelayStore
	Notifier   Notifier
	Batch      int
	MaxRetries int
	Logger     *log.Logger
}

func NewRelay(store RelayStore, n Notifier, batch, maxRetries int) *Relay {
	if batch <= 0 {
		batch = 50
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Relay{Store: store, Notifier: n, Batch: batch, MaxRetries: maxRetries, Logger: log.Default()}
}

// RelayPending delivers one batch. A failed delivery is recorded and does
// not stop the batch; the returned count is the number delivered.
func (r *Relay) RelayPending(ctx context.Context) (int, error) {
	pending, err := r.Store.Pending(ctx, r.Batch, r.MaxRetries)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, pr := range pending {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := r.Store.MarkPending(ctx, pr.ID); err != nil {
			return delivered, err
		}
		if err := r.Notifier.Notify(ctx, pr); err != nil {
			r.logf("point request %d: notify failed: %v", pr.ID, err)
			if merr := r.Store.MarkFailed(ctx, pr.ID, err.Error()); merr != nil {
				return delivered, merr
			}
			continue
		}
		if err := r.Store.MarkOK(ctx, pr.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// Run relays a batch every interval until ctx is done.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := r.RelayPending(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			r.logf("relay: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (r *Relay) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}
