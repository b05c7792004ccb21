// Package action runs request/response cycles against the backend. Every
// cycle marks its key Loading, performs the call, applies a success or
// failure reducer and records the outcome in logs and metrics.
package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

var (
	// ErrInFlight rejects a run whose key is already Loading.
	ErrInFlight = errors.New("action already in flight")
	// ErrUnmounted reports a call that finished after its view went away;
	// its reducers were not applied.
	ErrUnmounted = errors.New("view unmounted")
)

// LoadState is the progress of the latest run for a key.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Succeeded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type stateKey struct {
	action string
	key    string
}

// Tracker holds load states for one view.
type Tracker struct {
	log     logger.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	states map[stateKey]LoadState

	// reduceMu serializes reducers with Unmount.
	reduceMu sync.Mutex
	mounted  bool
}

// NewTracker returns a mounted tracker. Either argument may be nil.
func NewTracker(log logger.Logger, m *metrics.Metrics) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{
		log:     log,
		metrics: m,
		states:  map[stateKey]LoadState{},
		mounted: true,
	}
}

// State returns the load state of action on key.
func (t *Tracker) State(action, key string) LoadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[stateKey{action, key}]
}

// InFlight reports whether any of the named actions is Loading for key.
func (t *Tracker) InFlight(key string, actions ...string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range actions {
		if t.states[stateKey{a, key}] == Loading {
			return true
		}
	}
	return false
}

// Reset returns action on key to Idle unless it is Loading.
func (t *Tracker) Reset(action, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := stateKey{action, key}
	if t.states[k] != Loading {
		delete(t.states, k)
	}
}

// Forget drops every state recorded for key that is not Loading.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, s := range t.states {
		if k.key == key && s != Loading {
			delete(t.states, k)
		}
	}
}

// Unmount stops reducers from running. Calls already sent still complete.
func (t *Tracker) Unmount() {
	t.reduceMu.Lock()
	defer t.reduceMu.Unlock()
	t.mounted = false
}

// Mount re-enables reducers.
func (t *Tracker) Mount() {
	t.reduceMu.Lock()
	defer t.reduceMu.Unlock()
	t.mounted = true
}

// Mounted reports whether reducers run.
func (t *Tracker) Mounted() bool {
	t.reduceMu.Lock()
	defer t.reduceMu.Unlock()
	return t.mounted
}

func (t *Tracker) begin(k stateKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.states[k] == Loading {
		return false
	}
	t.states[k] = Loading
	return true
}

func (t *Tracker) finish(k stateKey, s LoadState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[k] = s
}

// Spec describes one run.
type Spec[T any] struct {
	// Name is the action label used in logs and metrics.
	Name string
	// Key identifies what the action works on, usually a row id.
	Key       string
	Call      func(ctx context.Context) (T, error)
	OnSuccess func(T)
	OnFailure func(error)
}

// Run executes spec on t. A key already Loading is rejected with
// ErrInFlight and no call is made.
func Run[T any](ctx context.Context, t *Tracker, spec Spec[T]) (T, error) {
	var zero T
	k := stateKey{spec.Name, spec.Key}

	if !t.begin(k) {
		t.metrics.ObserveAction(spec.Name, metrics.OutcomeRejected, 0)
		t.log.Debug("Action rejected",
			logger.String("action", spec.Name),
			logger.String("key", spec.Key),
		)
		return zero, fmt.Errorf("%s %s: %w", spec.Name, spec.Key, ErrInFlight)
	}

	requestID := uuid.NewString()
	ctx = client.WithRequestID(ctx, requestID)
	log := t.log.With(
		logger.String("action", spec.Name),
		logger.String("key", spec.Key),
		logger.String("request_id", requestID),
	)

	ctx = logger.WithContext(ctx, log)

	start := time.Now()
	result, err := spec.Call(ctx)
	elapsed := time.Since(start)

	state := Succeeded
	outcome := metrics.OutcomeSuccess
	if err != nil {
		state = Failed
		outcome = metrics.OutcomeFailure
	}
	t.metrics.ObserveAction(spec.Name, outcome, elapsed)

	t.reduceMu.Lock()
	mounted := t.mounted
	if mounted {
		if err != nil && spec.OnFailure != nil {
			spec.OnFailure(err)
		}
		if err == nil && spec.OnSuccess != nil {
			spec.OnSuccess(result)
		}
	}
	t.finish(k, state)
	t.reduceMu.Unlock()

	if err != nil {
		log.Error("Action failed",
			logger.Duration("duration", elapsed),
			logger.Bool("network_failure", client.IsNetworkFailure(err)),
			logger.Error(err),
		)
	} else {
		log.Info("Action completed", logger.Duration("duration", elapsed))
	}

	if !mounted {
		if err != nil {
			return zero, errors.Join(err, ErrUnmounted)
		}
		return result, ErrUnmounted
	}
	if err != nil {
		return zero, err
	}
	return result, nil
}
