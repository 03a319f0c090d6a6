// Package syncer keeps the travel caches in step with the signed-in
// identity: it loads everything when an identity appears and clears
// everything when it goes away.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Orchestrator is a two-state machine driven by one identity subscription.
type Orchestrator struct {
	data        *travel.Data
	signal      *identity.Signal
	logger      logging.Logger
	loadTimeout time.Duration

	mu    sync.Mutex
	state State
	uid   string
	stop  func()
}

type Option func(*Orchestrator)

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLoadTimeout bounds one full load. Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.loadTimeout = d }
}

func New(data *travel.Data, signal *identity.Signal, opts ...Option) *Orchestrator {
	o := &Orchestrator{data: data, signal: signal, logger: logging.Nop{}}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Start subscribes to the identity signal and handles the current identity
// right away. Calling Start twice has no effect.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.stop != nil {
		o.mu.Unlock()
		return
	}
	o.stop = o.signal.Subscribe(func(id *identity.Identity) { o.handle(ctx, id) })
	o.mu.Unlock()

	o.handle(ctx, o.signal.Current())
}

// Stop removes the subscription. Caches are left as they are.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		o.stop()
		o.stop = nil
	}
}

// State returns the current state and the uid it was loaded for.
func (o *Orchestrator) State() (State, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.uid
}

// handle runs one transition. It holds o.mu for the whole transition so
// signals are processed one at a time.
func (o *Orchestrator) handle(ctx context.Context, id *identity.Identity) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case id == nil && o.state == Loaded:
		o.onLost(ctx)
	case id == nil:
	case o.state == Unloaded:
		o.onAcquired(ctx, id.UID)
	case id.UID != o.uid:
		o.onChanged(ctx, id.UID)
	}
}

func (o *Orchestrator) onLost(ctx context.Context) {
	o.logger.Info(ctx, "identity lost, clearing caches", "uid", o.uid)
	o.data.Reset()
	o.state, o.uid = Unloaded, ""
}

func (o *Orchestrator) onChanged(ctx context.Context, uid string) {
	o.logger.Info(ctx, "identity changed, reloading", "from", o.uid, "to", uid)
	o.data.Reset()
	o.state, o.uid = Unloaded, ""
	o.onAcquired(ctx, uid)
}

func (o *Orchestrator) onAcquired(ctx context.Context, uid string) {
	o.logger.Info(ctx, "identity acquired, loading caches", "uid", uid)
	o.load(ctx, uid)
	o.state, o.uid = Loaded, uid
}

// load fills the trip cache first and then the expense, photo and profile
// caches in parallel. Each loader logs its own failure and leaves its
// cache empty.
func (o *Orchestrator) load(ctx context.Context, uid string) {
	if o.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.loadTimeout)
		defer cancel()
	}

	if err := o.data.Trips.Load(ctx, uid); err != nil {
		o.logger.Error(ctx, "loading trips failed", "uid", uid, "error", err)
	}

	loaders := map[string]func(context.Context) error{
		"expenses": func(ctx context.Context) error { return o.data.Expenses.Load(ctx, uid) },
		"photos":   func(ctx context.Context) error { return o.data.Photos.Load(ctx, uid) },
		"profile": func(ctx context.Context) error {
			_, err := o.data.Profile.Fetch(ctx)
			return err
		},
	}

	var wg sync.WaitGroup
	for name, fn := range loaders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				o.logger.Error(ctx, "loading "+name+" failed", "uid", uid, "error", err)
			}
		}()
	}
	wg.Wait()
}
