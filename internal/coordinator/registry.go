package coordinator

import (
	"fmt"
	"sync"

	"github.com/stacklok/layermap-scraper/internal/target"
)

// taskHandle is the registry's view of one running poll task
type taskHandle struct {
	key      target.Key
	stop     chan struct{}
	stopOnce sync.Once
	// done is closed after the task has removed itself from the registry
	done chan struct{}
}

func newTaskHandle(key target.Key) *taskHandle {
	return &taskHandle{
		key:  key,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// requestStop asks the task to finish before its next cycle. Safe to call repeatedly.
func (h *taskHandle) requestStop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// registry maps each key to the task polling it. One mutex guards the map;
// it is never held across I/O.
type registry struct {
	mu    sync.Mutex
	tasks map[target.Key]*taskHandle
}

func newRegistry() *registry {
	return &registry{tasks: make(map[target.Key]*taskHandle)}
}

// diff is the outcome of one reconcile step
type diff struct {
	started []target.Key
	stopped []target.Key
}

// reconcile starts a task for every desired key without one and raises stop
// for every registered key no longer desired. Stopped entries stay registered
// until their task exits, so a key with a pending stop is not started again.
// spawn runs under the registry lock and must not block.
func (r *registry) reconcile(desired target.Set, spawn func(*taskHandle)) diff {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := target.NewSet()
	for k := range r.tasks {
		active.Add(k)
	}

	var d diff
	for _, k := range active.Difference(desired).Keys() {
		r.tasks[k].requestStop()
		d.stopped = append(d.stopped, k)
	}
	for _, k := range desired.Difference(active).Keys() {
		h := newTaskHandle(k)
		r.insertLocked(h)
		spawn(h)
		d.started = append(d.started, k)
	}
	return d
}

func (r *registry) insertLocked(h *taskHandle) {
	if _, exists := r.tasks[h.key]; exists {
		panic(fmt.Sprintf("task registry invariant violated: %s is already registered", h.key))
	}
	r.tasks[h.key] = h
}

// remove deletes h's entry. An entry that belongs to a different handle is left alone.
func (r *registry) remove(h *taskHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.tasks[h.key]; ok && cur == h {
		delete(r.tasks, h.key)
	}
}

// stopAll raises stop on every registered task
func (r *registry) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.tasks {
		h.requestStop()
	}
}

// keys returns the registered keys in sorted order
func (r *registry) keys() []target.Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]target.Key, 0, len(r.tasks))
	for k := range r.tasks {
		keys = append(keys, k)
	}
	target.SortKeys(keys)
	return keys
}

func (r *registry) get(k target.Key) (*taskHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.tasks[k]
	return h, ok
}
