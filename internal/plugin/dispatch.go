package plugin

import (
	"context"
	"sync"

	"github.com/ayusman/vestir/internal/store"
	"github.com/cyclopcam/logs"
)

// BindingSource looks up the plugin bindings for a gesture type.
type BindingSource interface {
	GetByGestureType(gestureType string) ([]*store.Binding, error)
}

// Event is a gesture handed to the dispatcher.
type Event struct {
	Gesture   string
	Intensity int
	Hand      int
}

// Dispatcher runs bound plugin actions for gesture events on a background
// worker, so a slow plugin never stalls frame processing. Events that
// arrive while the queue is full are dropped.
type Dispatcher struct {
	plugins  *Manager
	executor *Executor
	bindings BindingSource
	log      logs.Log

	mu     sync.Mutex
	queue  chan Event
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with room for queueSize pending events.
func NewDispatcher(plugins *Manager, executor *Executor, bindings BindingSource, log logs.Log, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		plugins:  plugins,
		executor: executor,
		bindings: bindings,
		log:      log,
		queue:    make(chan Event, queueSize),
	}
}

// Start launches the worker. It stops when Close is called; ctx bounds
// individual plugin runs.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range d.queue {
			d.run(ctx, e)
		}
	}()
}

// Dispatch queues an event. It reports false if the event was dropped.
func (d *Dispatcher) Dispatch(e Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		d.log.Warnf("Plugin queue full, dropping %s", e.Gesture)
		return false
	}
}

// Close stops accepting events and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, e Event) {
	bindings, err := d.bindings.GetByGestureType(e.Gesture)
	if err != nil {
		d.log.Errorf("Failed to look up bindings for %s: %v", e.Gesture, err)
		return
	}

	for _, b := range bindings {
		p, err := d.plugins.Get(b.PluginName)
		if err != nil {
			d.log.Warnf("Binding %s: %v: %s", b.ID, err, b.PluginName)
			continue
		}

		resp, err := d.executor.Execute(ctx, p, &Request{
			Action:    b.ActionName,
			Gesture:   e.Gesture,
			Intensity: e.Intensity,
			Hand:      e.Hand,
			Config:    b.Config,
		})
		switch {
		case err != nil:
			d.log.Errorf("Plugin %s action %s: %v", b.PluginName, b.ActionName, err)
		case !resp.Success:
			d.log.Warnf("Plugin %s action %s failed: %s", b.PluginName, b.ActionName, resp.Error)
		default:
			d.log.Debugf("Plugin %s ran %s for %s", b.PluginName, b.ActionName, e.Gesture)
		}
	}
}
