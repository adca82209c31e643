package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("feed subscription closed")

// Source is a realtime feed transport. Watch calls emit with a full snapshot every time the
// value at path changes and blocks until ctx is done or the transport fails.
type Source interface {
	Watch(ctx context.Context, path string, emit func(Snapshot)) error
}

type ReconnectOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Zero retries forever
	MaxElapsedTime time.Duration
}

func (o ReconnectOptions) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()

	if o.InitialInterval > 0 {
		b.InitialInterval = o.InitialInterval
	}
	if o.MaxInterval > 0 {
		b.MaxInterval = o.MaxInterval
	}
	b.MaxElapsedTime = o.MaxElapsedTime
	b.Reset()

	return b
}

// Subscription is the handle returned by Subscribe. Snapshots are delivered newest-wins:
// a consumer that falls behind only ever sees the latest full image.
type Subscription struct {
	path      string
	snapshots chan Snapshot
	errors    chan error

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func Subscribe(ctx context.Context, source Source, path string, reconnect ReconnectOptions) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription{
		path:      path,
		snapshots: make(chan Snapshot, 1),
		errors:    make(chan error, 8),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go s.run(ctx, source, reconnect)

	return s
}

func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.snapshots
}

// Errors reports transport failures. The subscription keeps reconnecting after each one
// unless the reconnect budget is exhausted, in which case the last error wraps ErrClosed.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and waits for the transport to finish. It is safe to call
// any number of times, once it returns no further snapshots are delivered.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done

		close(s.snapshots)
		close(s.errors)

		log.Debug().Str("path", s.path).Msg("Feed subscription closed")
	})
}

func (s *Subscription) run(ctx context.Context, source Source, reconnect ReconnectOptions) {
	defer close(s.done)

	retryBackoff := reconnect.backOff()

	for {
		log.Info().Str("path", s.path).Msg("Watching realtime feed")

		err := source.Watch(ctx, s.path, func(snapshot Snapshot) {
			retryBackoff.Reset()
			s.deliver(ctx, snapshot)
		})

		if ctx.Err() != nil {
			return
		}

		if err == nil {
			err = errors.New("feed watch ended")
		}

		wait := retryBackoff.NextBackOff()
		if wait == backoff.Stop {
			s.report(fmt.Errorf("%w: giving up on %s: %v", ErrClosed, s.path, err))
			return
		}

		log.Error().Err(err).Str("path", s.path).Str("retry", wait.String()).Msg("Realtime feed listener error")
		s.report(err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Subscription) deliver(ctx context.Context, snapshot Snapshot) {
	if ctx.Err() != nil {
		return
	}

	// drop a snapshot the consumer has not picked up yet, the new one supersedes it
	select {
	case <-s.snapshots:
	default:
	}

	select {
	case s.snapshots <- snapshot:
	default:
	}
}

func (s *Subscription) report(err error) {
	for {
		select {
		case s.errors <- err:
			return
		default:
		}

		// full, make room by dropping the oldest error
		select {
		case <-s.errors:
		default:
		}
	}
}
