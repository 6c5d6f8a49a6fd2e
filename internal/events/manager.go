// Package events implements the host application's synchronous event bus.
//
// Listeners are attached to named events with a priority; higher priorities
// run first and equal priorities run in attach order. A publication threads
// the event target through every listener: each listener receives the value
// returned by the previous one and the publisher receives the final value.
package events

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// Listener handles one publication and returns the (possibly unchanged) target.
type Listener func(ctx context.Context, evt Event) (any, error)

type registration struct {
	id       uint64
	priority int
	listener Listener
}

// Manager is the in-process event bus. It is safe for concurrent use; a
// publication works on a snapshot of the listeners attached at that moment.
type Manager struct {
	mu        sync.RWMutex
	listeners map[string][]registration
	nextID    atomic.Uint64
	logger    *slog.Logger
}

// NewManager creates an empty bus. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		listeners: make(map[string][]registration),
		logger:    logger,
	}
}

// Attach registers listener for the named event and returns a function that
// detaches it again.
func (m *Manager) Attach(name string, listener Listener, priority int) (func(), error) {
	if name == "" {
		return nil, ferrors.ValidationError("event name cannot be empty").Build()
	}
	if listener == nil {
		return nil, ferrors.ValidationError("listener cannot be nil").WithContext("event", name).Build()
	}

	id := m.nextID.Add(1)

	m.mu.Lock()
	regs := append(m.listeners[name], registration{id: id, priority: priority, listener: listener})
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].priority > regs[j].priority
	})
	m.listeners[name] = regs
	m.mu.Unlock()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			regs := m.listeners[name]
			for i, r := range regs {
				if r.id == id {
					m.listeners[name] = append(regs[:i:i], regs[i+1:]...)
					break
				}
			}
			if len(m.listeners[name]) == 0 {
				delete(m.listeners, name)
			}
		})
	}
	return detach, nil
}

// ListenerCount returns the number of listeners attached to name.
func (m *Manager) ListenerCount(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners[name])
}

// Trigger publishes the named event and returns the final target.
//
// Listener errors stop dispatch and are returned unchanged so that template
// engine errors reach the caller as-is. A canceled context stops dispatch
// between listeners.
func (m *Manager) Trigger(ctx context.Context, name string, target any, params map[string]any) (any, error) {
	if ctx == nil {
		return nil, ferrors.ValidationError("context cannot be nil").Build()
	}

	m.mu.RLock()
	regs := make([]registration, len(m.listeners[name]))
	copy(regs, m.listeners[name])
	m.mu.RUnlock()

	evt := Event{Name: name, Target: target, Params: maps.Clone(params)}
	for _, r := range regs {
		if err := ctx.Err(); err != nil {
			return evt.Target, ferrors.WrapError(err, ferrors.CategoryEvent, "event dispatch canceled").
				WithContext("event", name).Build()
		}
		out, err := r.listener(ctx, evt)
		if err != nil {
			m.logger.Debug("Listener failed", logfields.Event(name), logfields.Error(err))
			return evt.Target, err
		}
		evt.Target = out
	}
	return evt.Target, nil
}

// TriggerString is Trigger for string targets.
func (m *Manager) TriggerString(ctx context.Context, name, target string, params map[string]any) (string, error) {
	out, err := m.Trigger(ctx, name, target, params)
	if err != nil {
		return target, err
	}
	s, ok := out.(string)
	if !ok {
		return target, ferrors.EventError("listener returned a non-string target").
			WithContext("event", name).Build()
	}
	return s, nil
}
