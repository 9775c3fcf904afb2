package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/jobly/account-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// LoginDispatcher persists last-login timestamps off the request path. Events
// are routed to a fixed set of workers using consistent hashing on the
// username, so stamps for the same account apply in order while login latency
// is not coupled to the extra write.
type LoginDispatcher struct {
	workers []chan ports.LoginEvent
	repo    ports.AccountRepository
	log     zerolog.Logger
}

// NewLoginDispatcher creates a LoginDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewLoginDispatcher(numWorkers int, repo ports.AccountRepository, log zerolog.Logger) *LoginDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &LoginDispatcher{
		workers: make([]chan ports.LoginEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.LoginEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *LoginDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record sends an event to the worker responsible for its username.
// The call is non-blocking up to channelBuffer capacity.
func (d *LoginDispatcher) Record(event ports.LoginEvent) {
	d.workers[d.shardIndex(event.Username)] <- event
}

// shardIndex maps a username deterministically to a worker index.
func (d *LoginDispatcher) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32()) % len(d.workers)
}

func (d *LoginDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.LoginEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.repo.TouchLastLogin(ctx, event.Username, event.At); err != nil {
				d.log.Error().Err(err).
					Str("username", event.Username).
					Int("worker_id", id).
					Msg("last login stamp failed")
			}
		}
	}
}
