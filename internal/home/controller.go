// Package home implements the home view: it fetches the metadata payload with the stored credential whenever the
// credential changes and keeps the pretty-printed response for display.
package home

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/metaview/internal/meta"
	"github.com/skybi/metaview/internal/session"
)

// State represents the state of the home view
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateDisplayed State = "displayed"
	StateFailed    State = "failed"
)

// Fetcher fetches the metadata payload using a token
type Fetcher interface {
	Fetch(ctx context.Context, token string) (*meta.Response, error)
}

// Snapshot represents what the home view currently displays
type Snapshot struct {
	State     State
	Content   string
	Token     string
	Status    int
	FetchedAt time.Time
}

// Controller drives the home view.
// While mounted, exactly one fetch is issued per distinct token value; a token change cancels the fetch in flight.
// Failures are logged and never surfaced: the previous content stays visible.
type Controller struct {
	Logger zerolog.Logger

	store   *session.Store
	fetcher Fetcher
	metrics *Metrics

	mtx         sync.Mutex
	mounted     bool
	unsubscribe func()
	token       string
	generation  uint64
	cancel      context.CancelFunc
	inflight    chan struct{}
	snapshot    Snapshot
}

// NewController creates a new unmounted home view controller
func NewController(store *session.Store, fetcher Fetcher, metrics *Metrics) *Controller {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Controller{
		Logger:   log.Logger,
		store:    store,
		fetcher:  fetcher,
		metrics:  metrics,
		snapshot: Snapshot{State: StateIdle},
	}
}

// Mount subscribes to token changes and fetches the metadata for the current token.
// Mounting an already mounted controller is a no-op.
func (controller *Controller) Mount(ctx context.Context) error {
	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	if controller.mounted {
		return nil
	}

	unsubscribe := controller.store.Subscribe(controller.onTokenChange)
	token, err := controller.store.Get(ctx)
	if err != nil {
		unsubscribe()
		return err
	}
	controller.unsubscribe = unsubscribe
	controller.mounted = true
	controller.start(token)
	return nil
}

// Unmount stops listening for token changes, cancels the fetch in flight and discards the displayed content
func (controller *Controller) Unmount() {
	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	if !controller.mounted {
		return
	}
	controller.unsubscribe()
	controller.unsubscribe = nil
	if controller.cancel != nil {
		controller.cancel()
		controller.cancel = nil
	}
	controller.generation++
	controller.inflight = nil
	controller.token = ""
	controller.mounted = false
	controller.snapshot = Snapshot{State: StateIdle}
}

// Mounted returns whether the controller is currently mounted
func (controller *Controller) Mounted() bool {
	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	return controller.mounted
}

// Snapshot returns what the home view currently displays
func (controller *Controller) Snapshot() Snapshot {
	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	return controller.snapshot
}

// Wait blocks until no fetch is in flight or the context is done
func (controller *Controller) Wait(ctx context.Context) error {
	for {
		controller.mtx.Lock()
		done := controller.inflight
		controller.mtx.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (controller *Controller) onTokenChange(token string) {
	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	if !controller.mounted || token == controller.token {
		return
	}
	controller.start(token)
}

// start issues a new fetch; the caller has to hold the lock
func (controller *Controller) start(token string) {
	if controller.cancel != nil {
		controller.cancel()
	}
	controller.generation++
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	controller.token = token
	controller.cancel = cancel
	controller.inflight = done
	controller.snapshot.State = StateFetching

	go controller.fetch(ctx, controller.generation, token, done)
}

func (controller *Controller) fetch(ctx context.Context, generation uint64, token string, done chan struct{}) {
	defer close(done)
	started := time.Now()

	content := ""
	response, err := controller.fetcher.Fetch(ctx, token)
	if err == nil {
		content, err = response.Pretty()
		if err != nil {
			err = errors.Join(meta.ErrMalformedBody, err)
		}
	}
	elapsed := time.Since(started).Seconds()

	controller.mtx.Lock()
	defer controller.mtx.Unlock()
	if generation != controller.generation {
		controller.metrics.observe(outcomeSuperseded, elapsed)
		controller.Logger.Debug().Err(err).Msg("discarding superseded metadata fetch")
		return
	}
	controller.cancel()
	controller.cancel = nil
	controller.inflight = nil

	if err != nil {
		controller.metrics.observe(outcomeFailed, elapsed)
		event := controller.Logger.Warn().Err(err)
		var statusErr *meta.StatusError
		if errors.As(err, &statusErr) {
			event = event.Int("status", statusErr.Status)
			controller.snapshot.Status = statusErr.Status
		}
		event.Msg("could not fetch metadata")
		controller.snapshot.State = StateFailed
		return
	}

	controller.metrics.observe(outcomeDisplayed, elapsed)
	controller.snapshot = Snapshot{
		State:     StateDisplayed,
		Content:   content,
		Token:     token,
		Status:    response.Status,
		FetchedAt: time.Now(),
	}
}
