// Package publisher emits audit events to a Store, either synchronously or
// through a buffered channel drained by a background goroutine. The durable
// record of a transition is written by the same operation that performed it;
// async mode trades that guarantee for latency and is meant for market events
// where a dropped record is tolerable.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	id "curio/pkg/domain"
	audit "curio/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	done   chan struct{}
	closed sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity. Emit never blocks on the store; Close drains the buffer.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records the event. In sync mode the caller blocks until the store
// write succeeds or fails; in async mode the event is queued.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full: fall back to a synchronous write rather than drop.
		return p.store.Append(ctx, event)
	}
	return nil
}

// List returns the recorded transitions for one asset.
func (p *Publisher) List(ctx context.Context, assetID id.AssetID) ([]audit.Event, error) {
	return p.store.ListByAsset(ctx, assetID)
}

// Close drains any queued events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		} else {
			close(p.done)
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				"action", event.Action,
				"asset", event.Asset,
				"error", err,
			)
		}
	}
}
