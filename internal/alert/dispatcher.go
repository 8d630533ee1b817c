package alert

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher fans events out to matching webhooks without blocking callers.
type Dispatcher struct {
	webhooks []Webhook
	log      *zap.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewDispatcher creates a Dispatcher. Returns nil if there are no webhooks;
// a nil Dispatcher is safe to call.
func NewDispatcher(webhooks []Webhook, log *zap.Logger) *Dispatcher {
	if len(webhooks) == 0 {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		webhooks: webhooks,
		log:      log.Named("alert"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch sends ev to every webhook whose Events list matches its kind.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	for _, wh := range d.webhooks {
		if !wh.wants(ev) {
			continue
		}
		d.wg.Add(1)
		go func(wh Webhook) {
			defer d.wg.Done()
			if err := Send(d.ctx, wh, ev); err != nil {
				d.log.Warn("alert delivery failed",
					zap.String("url", wh.URL),
					zap.String("decision_id", ev.DecisionID),
					zap.Error(err))
			}
		}(wh)
	}
}

// Close waits for in-flight deliveries until ctx expires, then aborts them.
func (d *Dispatcher) Close(ctx context.Context) {
	if d == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.cancel()
		<-done
	}
	d.cancel()
}
