package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnavailable is returned by Handle.Get once initialization has failed.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Factory constructs an Embedder. It is called at most once per Handle.
type Factory func(ctx context.Context) (Embedder, error)

// Handle owns the lifecycle of an embedding backend. The first Get runs the
// factory under a mutex; a failure downgrades the handle for good and is
// logged exactly once. After that the handle is read-only.
type Handle struct {
	factory Factory
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	embedder    Embedder
	err         error
}

// NewHandle creates a lazy handle. A nil factory yields a disabled handle.
func NewHandle(factory Factory, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{factory: factory, logger: logger}
}

// Disabled returns a handle that never provides an embedder.
func Disabled() *Handle {
	return &Handle{
		initialized: true,
		err:         fmt.Errorf("%w: %w", ErrUnavailable, ErrDisabled),
		logger:      slog.Default(),
	}
}

// Static returns an already-initialized handle around e.
func Static(e Embedder) *Handle {
	if e == nil {
		return Disabled()
	}
	return &Handle{initialized: true, embedder: e, logger: slog.Default()}
}

// Get returns the embedder, initializing it on first use.
// Every call after a failed initialization returns an error wrapping ErrUnavailable.
func (h *Handle) Get(ctx context.Context) (Embedder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		h.initialized = true
		h.embedder, h.err = h.initialize(ctx)
		if h.err != nil {
			h.embedder = nil
			h.logger.Warn("embedding backend unavailable, using sparse retrieval", "error", h.err)
		} else {
			h.logger.Info("embedding backend ready", "model", h.embedder.Model())
		}
	}
	return h.embedder, h.err
}

func (h *Handle) initialize(ctx context.Context) (e Embedder, err error) {
	if h.factory == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrDisabled)
	}
	defer func() {
		if r := recover(); r != nil {
			e, err = nil, fmt.Errorf("%w: factory panic: %v", ErrUnavailable, r)
		}
	}()

	e, err = h.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: factory returned no embedder", ErrUnavailable)
	}
	return e, nil
}

// Ready reports whether the handle initialized successfully. It never
// triggers initialization.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized && h.err == nil
}
