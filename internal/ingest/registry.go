// Package ingest pulls edge payloads from a message broker and hands them to
// a named handler.
package ingest

import (
	"fmt"
	"sort"
	"sync"

	graphErrors "github.com/devrev/graphmesh/internal/errors"
	"go.uber.org/zap"
)

// Handler consumes one raw message value
type Handler interface {
	Handle(payload []byte)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(payload []byte)

// Handle calls f(payload)
func (f HandlerFunc) Handle(payload []byte) {
	f(payload)
}

// Enqueuer accepts payloads for the orchestrator
type Enqueuer interface {
	Enqueue(payload string)
}

// Deps are the collaborators a handler may be built with
type Deps struct {
	Queue  Enqueuer
	Logger *zap.Logger
}

// Constructor builds a handler from deps
type Constructor func(deps Deps) (Handler, error)

// Registry maps handler names to constructors. Populate it once at startup.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry holding the built-in handlers:
// "enqueue" forwards payloads to the orchestrator queue and "print" logs
// them.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("enqueue", newEnqueueHandler)
	_ = r.Register("print", newPrintHandler)
	return r
}

// Register adds a constructor under name
func (r *Registry) Register(name string, c Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.constructors[name]; ok {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.constructors[name] = c
	return nil
}

// Build constructs the handler registered under name
func (r *Registry) Build(name string, deps Deps) (Handler, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, graphErrors.Misconfigured(fmt.Sprintf("unknown ingestion handler %q", name))
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return c(deps)
}

// Names returns the registered handler names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newEnqueueHandler(deps Deps) (Handler, error) {
	if deps.Queue == nil {
		return nil, graphErrors.Misconfigured("enqueue handler requires a queue")
	}
	return HandlerFunc(func(payload []byte) {
		deps.Queue.Enqueue(string(payload))
	}), nil
}

func newPrintHandler(deps Deps) (Handler, error) {
	logger := deps.Logger.Named("print")
	return HandlerFunc(func(payload []byte) {
		logger.Info("Received message", zap.ByteString("payload", payload))
	}), nil
}
