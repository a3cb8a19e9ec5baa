package dashboard

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"cohost-dashboard/internal/cohost"
	apperrors "cohost-dashboard/internal/common/errors"
	"cohost-dashboard/internal/common/logger"
	"cohost-dashboard/internal/common/metrics"
)

const (
	ActionClassify = "classify"
	ActionGenerate = "generate"

	outcomeSuccess    = "success"
	outcomeFailed     = "failed"
	outcomeInputError = "input_error"
	outcomeSkipped    = "skipped"
)

// Gateway is the remote co-host API as seen by the dashboard.
type Gateway interface {
	Classify(ctx context.Context, message, requesterID string) (*cohost.ClassificationResult, error)
	Generate(ctx context.Context, question string, product cohost.ProductContext, prefs *cohost.SellerPreferences) (*cohost.GeneratedResponse, error)
}

// Store persists session state. Get returns ErrSessionNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, sessionID string) (State, error)
	Put(ctx context.Context, sessionID string, state State) error
	Delete(ctx context.Context, sessionID string) error
}

// ActionRecorder receives one observation per finished action.
type ActionRecorder interface {
	RecordAction(ctx context.Context, action, outcome string, duration time.Duration)
}

type Config struct {
	RequesterID string
	Preferences cohost.SellerPreferences
}

// Controller applies seller actions to stored sessions.
//
// Remote calls run outside any lock. The state is written before each call and re-read
// after it, so edits made while a call is in flight survive and the last call to
// resolve wins. A busy flag with no call running in this process is stale and is
// cleared on the next read.
type Controller struct {
	config   Config
	gateway  Gateway
	store    Store
	recorder ActionRecorder
	logger   logger.Logger
	locks    [64]sync.Mutex

	runningMu sync.Mutex
	running   map[runningKey]struct{}
}

type runningKey struct {
	sessionID string
	action    string
}

func NewController(config Config, gateway Gateway, store Store, recorder ActionRecorder, log logger.Logger) *Controller {
	if config.Preferences == (cohost.SellerPreferences{}) {
		config.Preferences = cohost.DefaultSellerPreferences()
	}
	return &Controller{
		config:   config,
		gateway:  gateway,
		store:    store,
		recorder: recorder,
		logger:   log.With(map[string]interface{}{"component": "dashboard"}),
		running:  make(map[runningKey]struct{}),
	}
}

// Session returns the state for sessionID, creating a fresh one when none exists.
func (c *Controller) Session(ctx context.Context, sessionID string) (State, error) {
	return c.update(ctx, sessionID, func(s State) (State, bool) {
		return s, false
	})
}

// Reset discards the session and starts over with the example product.
func (c *Controller) Reset(ctx context.Context, sessionID string) (State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state := NewState()
	if err := c.store.Put(ctx, sessionID, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// UpdateQuestion replaces the question text. It does not touch any result.
func (c *Controller) UpdateQuestion(ctx context.Context, sessionID, text string) (State, error) {
	return c.update(ctx, sessionID, func(s State) (State, bool) {
		return s.WithQuestion(text), true
	})
}

// UpdateProductField replaces a single product field.
func (c *Controller) UpdateProductField(ctx context.Context, sessionID string, field Field, raw string) (State, error) {
	var fieldErr error
	state, err := c.update(ctx, sessionID, func(s State) (State, bool) {
		next, err := s.WithProductField(field, raw)
		if err != nil {
			fieldErr = err
			return s, false
		}
		return next, true
	})
	if err != nil {
		return State{}, err
	}
	return state, fieldErr
}

// UpdateProduct applies several field edits at once, in form order. Unknown keys are ignored.
func (c *Controller) UpdateProduct(ctx context.Context, sessionID string, values map[Field]string) (State, error) {
	return c.update(ctx, sessionID, func(s State) (State, bool) {
		changed := false
		for _, field := range ProductFields {
			raw, ok := values[field]
			if !ok {
				continue
			}
			s, _ = s.WithProductField(field, raw)
			changed = true
		}
		return s, changed
	})
}

// Classify sends the current question for classification. A blank question only sets
// an input error. A second trigger while classification is running is ignored.
func (c *Controller) Classify(ctx context.Context, sessionID string) (state State, err error) {
	start := time.Now()
	var (
		question string
		outcome  = outcomeSkipped
	)

	state, err = c.update(ctx, sessionID, func(s State) (State, bool) {
		if strings.TrimSpace(s.Question) == "" {
			outcome = outcomeInputError
			return s.WithInputError(apperrors.NewEmptyQuestionError().Message), true
		}
		if s.Classifying {
			return s, false
		}
		question = s.Question
		outcome = ""
		c.setRunning(sessionID, ActionClassify, true)
		return s.BeginClassify(), true
	})
	if err != nil {
		c.setRunning(sessionID, ActionClassify, false)
		c.record(ctx, ActionClassify, outcomeFailed, start)
		return State{}, err
	}
	if outcome != "" {
		c.record(ctx, ActionClassify, outcome, start)
		return state, nil
	}

	// The call belongs to the session, not to the request that started it.
	callCtx := context.WithoutCancel(ctx)

	var (
		result  *cohost.ClassificationResult
		callErr error
	)
	defer func() {
		state, err = c.settle(callCtx, sessionID, ActionClassify, start, callErr, func(s State) State {
			if callErr != nil {
				return s.ClassifyFailed(apperrors.UserMessage(apperrors.ErrCodeClassificationFailed))
			}
			return s.ClassifySucceeded(result)
		})
	}()

	result, callErr = c.gateway.Classify(callCtx, question, c.config.RequesterID)
	if callErr == nil && result == nil {
		callErr = fmt.Errorf("%w: empty result", cohost.ErrClassificationFailed)
	}
	return state, err
}

// GenerateResponse drafts an answer for the current question and product. It does
// nothing until a classification exists, and ignores a second trigger while running.
func (c *Controller) GenerateResponse(ctx context.Context, sessionID string) (state State, err error) {
	start := time.Now()
	var (
		question string
		product  cohost.ProductContext
		started  bool
	)

	state, err = c.update(ctx, sessionID, func(s State) (State, bool) {
		if s.Classification == nil || s.Generating {
			return s, false
		}
		question = s.Question
		product = s.Product
		started = true
		c.setRunning(sessionID, ActionGenerate, true)
		return s.BeginGenerate(), true
	})
	if err != nil {
		c.setRunning(sessionID, ActionGenerate, false)
		c.record(ctx, ActionGenerate, outcomeFailed, start)
		return State{}, err
	}
	if !started {
		c.record(ctx, ActionGenerate, outcomeSkipped, start)
		return state, nil
	}

	callCtx := context.WithoutCancel(ctx)
	prefs := c.config.Preferences

	var (
		result  *cohost.GeneratedResponse
		callErr error
	)
	defer func() {
		state, err = c.settle(callCtx, sessionID, ActionGenerate, start, callErr, func(s State) State {
			if callErr != nil {
				return s.GenerateFailed(apperrors.UserMessage(apperrors.ErrCodeGenerationFailed))
			}
			return s.GenerateSucceeded(result)
		})
	}()

	result, callErr = c.gateway.Generate(callCtx, question, product, &prefs)
	if callErr == nil && result == nil {
		callErr = fmt.Errorf("%w: empty result", cohost.ErrGenerationFailed)
	}
	return state, err
}

// settle applies the outcome of a remote call to the latest stored state. A failed
// write is tried once more and then returned; the busy flag it leaves behind is stale
// from then on.
func (c *Controller) settle(ctx context.Context, sessionID, action string, start time.Time, callErr error, apply func(State) State) (State, error) {
	defer c.setRunning(sessionID, action, false)

	outcome := outcomeSuccess
	if callErr != nil {
		outcome = outcomeFailed
		fields := apperrors.LogFields(callErr)
		fields["sessionID"] = sessionID
		fields["action"] = action
		c.logger.Error(action+" failed", fields)
	}
	c.record(ctx, action, outcome, start)

	settleFn := func(s State) (State, bool) {
		return apply(s), true
	}
	state, err := c.update(ctx, sessionID, settleFn)
	if err == nil {
		return state, nil
	}

	fields := apperrors.LogFields(err)
	fields["sessionID"] = sessionID
	fields["action"] = action
	c.logger.Warn("storing "+action+" result failed, retrying", fields)

	return c.update(ctx, sessionID, settleFn)
}

// update runs fn on the stored state under the session's lock and writes the result
// back when fn reports a change. Missing sessions start from NewState.
func (c *Controller) update(ctx context.Context, sessionID string, fn func(State) (State, bool)) (State, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := c.store.Get(ctx, sessionID)
	created := false
	if errors.Is(err, ErrSessionNotFound) {
		state, created = NewState(), true
	} else if err != nil {
		return State{}, err
	}
	state, repaired := c.clearStale(sessionID, state)

	next, changed := fn(state)
	if changed || created || repaired {
		if err := c.store.Put(ctx, sessionID, next); err != nil {
			return State{}, err
		}
	}
	return next, nil
}

// clearStale drops busy flags whose call is no longer running, which happens when the
// final write of an earlier call failed or the process restarted mid-call.
func (c *Controller) clearStale(sessionID string, s State) (State, bool) {
	repaired := false
	if s.Classifying && !c.isRunning(sessionID, ActionClassify) {
		s.Classifying = false
		repaired = true
	}
	if s.Generating && !c.isRunning(sessionID, ActionGenerate) {
		s.Generating = false
		repaired = true
	}
	if repaired {
		c.logger.Warn("cleared stale busy flag", map[string]interface{}{"sessionID": sessionID})
	}
	return s, repaired
}

func (c *Controller) setRunning(sessionID, action string, running bool) {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	key := runningKey{sessionID, action}
	if running {
		c.running[key] = struct{}{}
	} else {
		delete(c.running, key)
	}
}

func (c *Controller) isRunning(sessionID, action string) bool {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	_, ok := c.running[runningKey{sessionID, action}]
	return ok
}

func (c *Controller) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &c.locks[h.Sum32()%uint32(len(c.locks))]
}

func (c *Controller) record(ctx context.Context, action, outcome string, start time.Time) {
	metrics.DashboardActions.WithLabelValues(action, outcome).Inc()
	if c.recorder != nil {
		c.recorder.RecordAction(ctx, action, outcome, time.Since(start))
	}
}
