package service

import (
	"context"
	"sync"
	"time"

	"github.com/systemstock/queryd/internal/index"
	"github.com/systemstock/queryd/internal/log"
)

// Loader is the document-store capability the manager needs to build an
// index. *store.Store satisfies it.
type Loader interface {
	Connect(ctx context.Context) error
	LoadDocuments(ctx context.Context) ([]index.Document, error)
}

// IndexBuilder turns a document snapshot into a ready index.
type IndexBuilder func(ctx context.Context, docs []index.Document) (*index.Index, error)

// ManagerConfig configures index lifecycle handling.
type ManagerConfig struct {
	Loader      Loader
	Builder     IndexBuilder
	Cooldown    time.Duration // minimum interval between build attempts
	LoadTimeout time.Duration // bound on a whole build (load + construction)
}

// Manager owns the cached index handle, the readiness flag and the
// backoff timestamp. Concurrent callers of EnsureReady either join an
// in-flight build or are serialized; at most one build runs at a time.
type Manager struct {
	cfg    ManagerConfig
	logger log.Logger

	mu          sync.Mutex
	idx         *index.Index
	ready       bool
	lastAttempt time.Time
	lastErr     error
	inflight    chan struct{} // non-nil while a build is running

	now func() time.Time // swappable clock for tests
}

// NewManager creates a Manager. The index is absent until the first
// successful EnsureReady call.
func NewManager(cfg ManagerConfig, logger log.Logger) *Manager {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Manager{cfg: cfg, logger: logger, now: time.Now}
}

// EnsureReady builds the index if it is absent (or if force is set),
// respecting the cooldown window between attempts. A failed build
// clears the readiness flag and leaves everything else untouched so a
// later call can retry.
func (m *Manager) EnsureReady(ctx context.Context, force bool) error {
	m.mu.Lock()

	if m.ready && !force {
		m.mu.Unlock()
		return nil
	}

	// Join a build that is already running.
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
		err := m.lastErr
		m.mu.Unlock()
		return err
	}

	// Cooldown gate: a second request within the window is a no-op
	// returning prior state.
	if !m.lastAttempt.IsZero() && m.now().Sub(m.lastAttempt) < m.cfg.Cooldown {
		err := m.lastErr
		if m.ready {
			err = nil
		}
		m.mu.Unlock()
		return err
	}

	m.lastAttempt = m.now()
	done := make(chan struct{})
	m.inflight = done
	m.mu.Unlock()

	idx, err := m.build(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.lastErr = err
	if err != nil {
		m.ready = false
		m.logger.Error("index initialization failed: %v", err)
	} else {
		m.idx = idx
		m.ready = true
		m.logger.Info("retrieval index initialized (%d documents)", idx.Len())
	}
	close(done)
	m.mu.Unlock()

	return err
}

func (m *Manager) build(ctx context.Context) (*index.Index, error) {
	if m.cfg.Loader == nil || m.cfg.Builder == nil {
		return nil, ErrMongoURIMissing
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.LoadTimeout)
	defer cancel()

	m.logger.Info("connecting to document store...")
	if err := m.cfg.Loader.Connect(ctx); err != nil {
		return nil, err
	}

	docs, err := m.cfg.Loader.LoadDocuments(ctx)
	if err != nil {
		return nil, err
	}

	return m.cfg.Builder(ctx, docs)
}

// TriggerInit starts a build in the background unless one is already
// running or the cooldown suppresses it. It never blocks the caller.
func (m *Manager) TriggerInit() {
	m.mu.Lock()
	busy := m.inflight != nil
	cooled := !m.lastAttempt.IsZero() && m.now().Sub(m.lastAttempt) < m.cfg.Cooldown
	m.mu.Unlock()
	if busy || cooled {
		return
	}

	go func() {
		if err := m.EnsureReady(context.Background(), false); err != nil {
			m.logger.Warn("background index initialization failed: %v", err)
		}
	}()
}

// Index returns the cached index handle and the readiness flag. The
// handle is only meaningful when the flag is true.
func (m *Manager) Index() (*index.Index, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idx, m.ready
}

// Status reports readiness and whether an index handle is cached,
// for the health endpoint.
func (m *Manager) Status() (ready, cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready, m.idx != nil
}
