package supervisor

import (
	"context"
	"time"

	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
)

// Flusher persists every dirty cached ledger.
type Flusher interface {
	Flush(ctx context.Context) error
}

// FlushService flushes dirty ledgers on an interval and once more on stop.
type FlushService struct {
	flusher  Flusher
	interval time.Duration
	timeout  time.Duration
}

// NewFlushService creates the service. An interval of zero disables the
// periodic flush; the final flush still runs.
func NewFlushService(flusher Flusher, interval, timeout time.Duration) *FlushService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FlushService{flusher: flusher, interval: interval, timeout: timeout}
}

// Serve implements suture.Service.
func (f *FlushService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if f.interval > 0 {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			f.flush(context.Background(), "final")
			return ctx.Err()
		case <-tick:
			f.flush(ctx, "periodic")
		}
	}
}

func (f *FlushService) flush(parent context.Context, kind string) {
	ctx, cancel := context.WithTimeout(parent, f.timeout)
	defer cancel()

	if err := f.flusher.Flush(ctx); err != nil {
		logging.Warn().Err(err).Str("kind", kind).Msg("ledger flush incomplete")
		return
	}
	logging.Debug().Str("kind", kind).Msg("ledger flush complete")
}

func (f *FlushService) String() string {
	return "ledger-flush"
}
