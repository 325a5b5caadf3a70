// Package service implements the query resolution logic: an ordered
// fallback chain over answer backends plus the lazy lifecycle of the
// retrieval index.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/systemstock/queryd/internal/backend"
	"github.com/systemstock/queryd/internal/log"
)

// StandbyMessage is returned while the index is reactivating.
const StandbyMessage = "The index is reactivating, please try again shortly."

// Entry is one step of the fallback chain. A Terminal entry's failure
// surfaces to the caller instead of falling through to the next step.
type Entry struct {
	Backend  backend.Backend
	Terminal bool
}

// Result is the outcome of resolving a query.
type Result struct {
	Answer  *backend.Answer
	Backend string
	Elapsed float64 // seconds, rounded to 2 decimals
	Standby bool
}

// InitTrigger kicks off a background index build. *Manager satisfies it.
type InitTrigger interface {
	TriggerInit()
}

// QueryService resolves questions by trying each configured backend in
// priority order and stopping at the first success. All failures are
// converted into errors for the HTTP layer to shape; nothing panics
// through Resolve.
type QueryService struct {
	entries []Entry
	trigger InitTrigger
	logger  log.Logger
	now     func() time.Time
}

// New creates a QueryService over the given chain. trigger may be nil
// when no retrieval backend is configured.
func New(entries []Entry, trigger InitTrigger, logger log.Logger) *QueryService {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &QueryService{entries: entries, trigger: trigger, logger: logger, now: time.Now}
}

// PrimaryMode reports the mode of the highest-priority configured
// backend, for the liveness endpoint.
func (s *QueryService) PrimaryMode() backend.Mode {
	if len(s.entries) == 0 {
		return backend.ModeStandby
	}
	switch s.entries[0].Backend.Name() {
	case "ollama":
		return backend.ModeLocal
	case "search":
		return backend.ModeOffline
	default:
		return backend.ModeOnline
	}
}

// Resolve answers the question through the fallback chain.
//
// A backend failure is logged and the next backend is tried, with two
// exceptions: an ErrIndexNotReady short-circuits into a standby result
// (the rebuild happens in the background, never on the request path),
// and a Terminal entry's failure is returned as-is.
func (s *QueryService) Resolve(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len(s.entries) == 0 {
		return nil, ErrNoBackend
	}

	start := s.now()

	for _, entry := range s.entries {
		answer, err := entry.Backend.Answer(ctx, question)
		if err == nil {
			s.logger.Info("query answered by %s backend in %.2fs", entry.Backend.Name(), s.now().Sub(start).Seconds())
			return &Result{
				Answer:  answer,
				Backend: entry.Backend.Name(),
				Elapsed: roundElapsed(s.now().Sub(start)),
			}, nil
		}

		if errors.Is(err, backend.ErrIndexNotReady) {
			s.logger.Warn("index not ready, answering standby")
			if s.trigger != nil {
				s.trigger.TriggerInit()
			}
			return &Result{
				Answer:  &backend.Answer{Text: StandbyMessage, Mode: backend.ModeStandby},
				Backend: entry.Backend.Name(),
				Elapsed: roundElapsed(s.now().Sub(start)),
				Standby: true,
			}, nil
		}

		if entry.Terminal {
			return nil, fmt.Errorf("%s backend failed: %w", entry.Backend.Name(), err)
		}

		s.logger.Warn("%s backend failed, trying next: %v", entry.Backend.Name(), err)
	}

	return nil, ErrNoBackend
}

func roundElapsed(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
